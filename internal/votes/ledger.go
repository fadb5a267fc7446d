package votes

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stagetalk/backend/internal/models"
)

// Store is the persistence contract for cast votes. The pgx Repository is the
// production implementation.
type Store interface {
	// Upvote records the vote iff the question exists, is approved, and the
	// (question, voter) pair has not voted before. Returns the updated
	// question and true when the vote was counted.
	Upvote(ctx context.Context, questionID uuid.UUID, voterID string) (*models.Question, bool, error)
}

// Announcer publishes the views an accepted vote changes. Implemented by
// questions.Broadcaster.
type Announcer interface {
	PublishVote(q *models.Question)
	PublishApproved(ctx context.Context)
}

// Ledger enforces at-most-one-vote-per-voter-per-question. Rejected votes are
// silent no-ops rather than loud errors: duplicate and invalid votes are a
// normal part of audience behavior, not faults.
type Ledger struct {
	store  Store
	bus    Announcer
	logger *zap.Logger
}

// NewLedger creates the vote ledger.
func NewLedger(store Store, bus Announcer, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, bus: bus, logger: logger}
}

// Upvote counts a vote from a connection and republishes the affected views.
// Returns the updated question, or nil when the vote was ignored.
func (l *Ledger) Upvote(ctx context.Context, questionID uuid.UUID, voterID string) (*models.Question, error) {
	q, counted, err := l.store.Upvote(ctx, questionID, voterID)
	if err != nil {
		l.logger.Error("upvote failed", zap.String("question_id", questionID.String()), zap.Error(err))
		return nil, err
	}
	if !counted {
		return nil, nil
	}
	l.bus.PublishVote(q)
	l.bus.PublishApproved(ctx)
	return q, nil
}
