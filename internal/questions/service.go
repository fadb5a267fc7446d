package questions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stagetalk/backend/internal/models"
)

// ErrEmptyText is returned when a submission carries no question text.
var ErrEmptyText = errors.New("question text is required")

// Service is the question registry: it owns the workflow state machine and
// republishes affected views as the terminal step of every successful
// mutation. Unknown ids are silent no-ops and publish nothing, since nothing
// changed. Store failures abandon the mutation before any broadcast.
type Service struct {
	store  Store
	bus    *Broadcaster
	logger *zap.Logger
}

// NewService creates the question registry.
func NewService(store Store, bus *Broadcaster, logger *zap.Logger) *Service {
	return &Service{store: store, bus: bus, logger: logger}
}

// Submit validates and persists a new question with submitted status.
func (s *Service) Submit(ctx context.Context, username, text, participantID string) (*models.Question, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	q := &models.Question{
		Username:      username,
		Text:          text,
		ParticipantID: participantID,
		Status:        models.StatusSubmitted,
	}
	if err := s.store.Insert(ctx, q); err != nil {
		s.logger.Error("insert question", zap.Error(err))
		return nil, err
	}
	s.bus.PublishAll(ctx)
	return q, nil
}

// Approve moves a question to approved, making it visible and votable. The
// singleton views are republished too, since approving the current live or
// next-up question vacates its slot.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "approve", func() (bool, error) {
		return s.store.UpdateStatus(ctx, id, models.StatusApproved)
	}, s.publishSingletonsAndLists)
}

// Unapprove sends a question back to submitted.
func (s *Service) Unapprove(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "unapprove", func() (bool, error) {
		return s.store.UpdateStatus(ctx, id, models.StatusSubmitted)
	}, s.publishSingletonsAndLists)
}

// SetLive promotes a question to live. The previous live question drops back
// to approved and any next-up question is cleared, atomically at the store.
func (s *Service) SetLive(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "set live", func() (bool, error) {
		return s.store.PromoteLive(ctx, id)
	}, func(ctx context.Context) {
		s.bus.PublishLive(ctx)
		s.bus.PublishNextUp(ctx)
		s.publishLists(ctx)
	})
}

// SetNextUp queues a question as next up, demoting any previous holder.
func (s *Service) SetNextUp(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "set next up", func() (bool, error) {
		return s.store.PromoteNextUp(ctx, id)
	}, func(ctx context.Context) {
		s.bus.PublishNextUp(ctx)
		s.publishLists(ctx)
	})
}

// CancelLive takes the live question off air, back to approved.
func (s *Service) CancelLive(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "cancel live", func() (bool, error) {
		return s.store.UpdateStatusFrom(ctx, id, models.StatusLive, models.StatusApproved)
	}, func(ctx context.Context) {
		s.bus.PublishLive(ctx)
		s.publishLists(ctx)
	})
}

// CancelNextUp clears the next-up slot, returning the question to submitted.
func (s *Service) CancelNextUp(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "cancel next up", func() (bool, error) {
		return s.store.UpdateStatusFrom(ctx, id, models.StatusNextUp, models.StatusSubmitted)
	}, func(ctx context.Context) {
		s.bus.PublishNextUp(ctx)
		s.publishLists(ctx)
	})
}

// EditText replaces a question's text in place, keeping its status.
func (s *Service) EditText(ctx context.Context, id uuid.UUID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return s.mutate(ctx, "edit text", func() (bool, error) {
		return s.store.UpdateText(ctx, id, text)
	}, func(ctx context.Context) {
		s.bus.PublishLive(ctx)
		s.bus.PublishNextUp(ctx)
		s.publishLists(ctx)
	})
}

// Archive moves a question out of the active workflow into the archive set.
// Unknown ids are a no-op.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "archive", func() (bool, error) {
		return s.store.Archive(ctx, id, time.Now())
	}, func(ctx context.Context) {
		s.bus.PublishLive(ctx)
		s.bus.PublishNextUp(ctx)
		s.publishLists(ctx)
		s.bus.PublishArchive(ctx)
	})
}

// Unarchive restores an archived question to the active set as submitted,
// upvotes preserved, with a fresh creation timestamp.
func (s *Service) Unarchive(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "unarchive", func() (bool, error) {
		return s.store.Unarchive(ctx, id, time.Now())
	}, func(ctx context.Context) {
		s.publishLists(ctx)
		s.bus.PublishArchive(ctx)
	})
}

// Delete hard-removes a question with no archive trace.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "delete", func() (bool, error) {
		return s.store.Delete(ctx, id)
	}, func(ctx context.Context) {
		s.bus.PublishLive(ctx)
		s.bus.PublishNextUp(ctx)
		s.publishLists(ctx)
	})
}

// OverrideStatus writes a raw status with no invariant enforcement. This is a
// deliberate escape hatch for forward-compatible statuses; every use is
// logged.
func (s *Service) OverrideStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.logger.Warn("raw status override",
		zap.String("question_id", id.String()),
		zap.String("status", status),
	)
	return s.mutate(ctx, "override status", func() (bool, error) {
		return s.store.UpdateStatus(ctx, id, models.Status(status))
	}, s.publishSingletonsAndLists)
}

// List returns a snapshot of all active questions in the requested order.
func (s *Service) List(ctx context.Context, sort models.SortKey) ([]models.Question, error) {
	return s.store.List(ctx, sort)
}

// ListApproved returns the approved questions, recency descending.
func (s *Service) ListApproved(ctx context.Context) ([]models.Question, error) {
	return s.store.ListByStatus(ctx, models.StatusApproved)
}

// ListArchived returns the archive set, most recently archived first.
func (s *Service) ListArchived(ctx context.Context) ([]models.ArchivedQuestion, error) {
	return s.store.ListArchived(ctx)
}

// mutate runs a store mutation and, only when it found and changed a row,
// republishes the affected views.
func (s *Service) mutate(ctx context.Context, op string, fn func() (bool, error), publish func(context.Context)) error {
	found, err := fn()
	if err != nil {
		s.logger.Error("question mutation failed", zap.String("op", op), zap.Error(err))
		return err
	}
	if !found {
		s.logger.Debug("question mutation on unknown id", zap.String("op", op))
		return nil
	}
	publish(ctx)
	return nil
}

// publishLists pushes the two list views every moderator action can affect:
// the public approved list and the moderator's full list.
func (s *Service) publishLists(ctx context.Context) {
	s.bus.PublishApproved(ctx)
	s.bus.PublishAll(ctx)
}

// publishSingletonsAndLists additionally refreshes the live and next-up views,
// for mutations that can pull a question out of either slot.
func (s *Service) publishSingletonsAndLists(ctx context.Context) {
	s.bus.PublishLive(ctx)
	s.bus.PublishNextUp(ctx)
	s.publishLists(ctx)
}
