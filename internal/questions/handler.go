package questions

import (
	"github.com/gin-gonic/gin"

	"github.com/stagetalk/backend/internal/models"
	"github.com/stagetalk/backend/pkg/response"
)

// Handler serves the minimal HTTP snapshot surface. The realtime channel is
// the primary interface; these endpoints exist for display pages that only
// need a one-shot fetch.
type Handler struct {
	service *Service
}

// NewHandler creates a questions HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /questions?sortBy= (public sorted snapshot).
func (h *Handler) List(c *gin.Context) {
	sort := models.ParseSortKey(c.Query("sortBy"))
	list, err := h.service.List(c.Request.Context(), sort)
	if err != nil {
		response.Internal(c, "failed to fetch questions")
		return
	}
	if list == nil {
		list = []models.Question{}
	}
	response.OK(c, gin.H{"questions": list})
}

// ListApproved handles GET /questions/approved (public rotating display).
func (h *Handler) ListApproved(c *gin.Context) {
	list, err := h.service.ListApproved(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to fetch questions")
		return
	}
	if list == nil {
		list = []models.Question{}
	}
	response.OK(c, gin.H{"questions": list})
}

// ListArchived handles GET /moderator/archived (moderator token required).
func (h *Handler) ListArchived(c *gin.Context) {
	list, err := h.service.ListArchived(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to fetch archived questions")
		return
	}
	if list == nil {
		list = []models.ArchivedQuestion{}
	}
	response.OK(c, gin.H{"archived_questions": list})
}

// Export handles GET /moderator/export: a complete snapshot of active and
// archived questions.
func (h *Handler) Export(c *gin.Context) {
	active, err := h.service.List(c.Request.Context(), models.SortRecency)
	if err != nil {
		response.Internal(c, "failed to fetch questions")
		return
	}
	archived, err := h.service.ListArchived(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to fetch archived questions")
		return
	}
	if active == nil {
		active = []models.Question{}
	}
	if archived == nil {
		archived = []models.ArchivedQuestion{}
	}
	response.OK(c, gin.H{"questions": active, "archived_questions": archived})
}
