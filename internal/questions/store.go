package questions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagetalk/backend/internal/models"
)

// Store is the persistence contract for the question workflow. The pgx
// Repository is the production implementation.
//
// Mutations report whether the target row existed: (false, nil) means the id
// was unknown and nothing changed. Compound mutations (PromoteLive,
// PromoteNextUp, Archive, Unarchive) must apply all of their steps atomically
// so that a concurrent reader never observes two live or two next-up rows.
type Store interface {
	Insert(ctx context.Context, q *models.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error)

	List(ctx context.Context, sort models.SortKey) ([]models.Question, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.Question, error)
	// GetByStatus returns the single question holding a singleton status
	// (live, next_up), or nil when none does.
	GetByStatus(ctx context.Context, status models.Status) (*models.Question, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (bool, error)
	// UpdateStatusFrom flips status only when the row currently holds the
	// expected status (cancel_live, cancel_next_up).
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to models.Status) (bool, error)
	UpdateText(ctx context.Context, id uuid.UUID, text string) (bool, error)

	// PromoteLive demotes the current live question to approved, clears any
	// next-up question back to submitted, and makes the target live.
	PromoteLive(ctx context.Context, id uuid.UUID) (bool, error)
	// PromoteNextUp demotes the current next-up question to submitted and
	// makes the target next up.
	PromoteNextUp(ctx context.Context, id uuid.UUID) (bool, error)

	Archive(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Unarchive(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListArchived(ctx context.Context) ([]models.ArchivedQuestion, error)
}
