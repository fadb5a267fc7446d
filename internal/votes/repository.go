package votes

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stagetalk/backend/internal/models"
)

// Repository handles vote persistence on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a votes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upvote records a vote and bumps the question's counter in one transaction.
// The insert only matches approved questions and the (question_id, voter_id)
// primary key is the final arbiter against duplicate votes, so two concurrent
// upvotes from the same voter can never both increment the counter. Returns
// the updated question and true when the vote took effect.
func (r *Repository) Upvote(ctx context.Context, questionID uuid.UUID, voterID string) (*models.Question, bool, error) {
	var q models.Question
	var counted bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO votes (question_id, voter_id)
			 SELECT q.id, $2 FROM questions q WHERE q.id = $1 AND q.status = 'approved'
			 ON CONFLICT (question_id, voter_id) DO NOTHING`,
			questionID, voterID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		err = tx.QueryRow(ctx,
			`UPDATE questions SET upvotes = upvotes + 1 WHERE id = $1
			 RETURNING id, username, text, participant_id, status, upvotes, created_at`,
			questionID).
			Scan(&q.ID, &q.Username, &q.Text, &q.ParticipantID, &q.Status, &q.Upvotes, &q.CreatedAt)
		if err != nil {
			return err
		}
		counted = true
		return nil
	})
	if err != nil || !counted {
		return nil, false, err
	}
	return &q, true, nil
}
