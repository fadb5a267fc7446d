package questions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stagetalk/backend/internal/models"
)

const questionColumns = `id, username, text, participant_id, status, upvotes, created_at`

// errNoTarget aborts a promote transaction when the target row does not exist,
// rolling back the demotions that ran before the target update.
var errNoTarget = errors.New("target question not found")

// Repository handles question persistence on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a new question and fills in its generated id and timestamp.
func (r *Repository) Insert(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (id, username, text, participant_id, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, q.Username, q.Text, q.ParticipantID, q.Status).
		Scan(&q.ID, &q.CreatedAt)
}

// GetByID returns a question by id, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	return scanQuestion(r.pool.QueryRow(ctx, query, id))
}

// List returns a snapshot of all active questions in the requested order.
func (r *Repository) List(ctx context.Context, sort models.SortKey) ([]models.Question, error) {
	orderBy := `created_at DESC`
	switch sort {
	case models.SortVotes:
		orderBy = `upvotes DESC`
	case models.SortApprovedFirst:
		orderBy = `CASE WHEN status = 'approved' THEN 1 ELSE 2 END, created_at DESC`
	}
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY `+orderBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// ListByStatus returns all questions holding a status, recency descending.
func (r *Repository) ListByStatus(ctx context.Context, status models.Status) ([]models.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions
		WHERE status = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// GetByStatus returns the question holding a singleton status, or nil when none does.
func (r *Repository) GetByStatus(ctx context.Context, status models.Status) (*models.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE status = $1 LIMIT 1`
	return scanQuestion(r.pool.QueryRow(ctx, query, status))
}

// UpdateStatus overwrites a question's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE questions SET status = $2 WHERE id = $1`, id, status)
	return tag.RowsAffected() > 0, err
}

// UpdateStatusFrom flips a question's status only when it currently holds the expected one.
func (r *Repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to models.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	return tag.RowsAffected() > 0, err
}

// UpdateText replaces a question's text in place.
func (r *Repository) UpdateText(ctx context.Context, id uuid.UUID, text string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE questions SET text = $2 WHERE id = $1`, id, text)
	return tag.RowsAffected() > 0, err
}

// PromoteLive makes the target question live in a single transaction: the
// current live question drops back to approved and any next-up question is
// cleared, so no reader ever sees two live rows. The demotions must run before
// the target update because of the partial unique index on status = 'live';
// when the target row does not exist the whole transaction rolls back, so the
// demotions never leak.
func (r *Repository) PromoteLive(ctx context.Context, id uuid.UUID) (bool, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE questions SET status = 'approved' WHERE status = 'live'`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE questions SET status = 'submitted' WHERE status = 'next_up' AND id <> $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE questions SET status = 'live' WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errNoTarget
		}
		return nil
	})
	if errors.Is(err, errNoTarget) {
		return false, nil
	}
	return err == nil, err
}

// PromoteNextUp queues the target question as next up in a single transaction,
// demoting any previous next-up question back to submitted. A missing target
// rolls back the demotion.
func (r *Repository) PromoteNextUp(ctx context.Context, id uuid.UUID) (bool, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE questions SET status = 'submitted' WHERE status = 'next_up' AND id <> $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE questions SET status = 'next_up' WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errNoTarget
		}
		return nil
	})
	if errors.Is(err, errNoTarget) {
		return false, nil
	}
	return err == nil, err
}

// Archive copies the question into the archive set and removes it from the
// active set in one transaction. Cast votes cascade away with the row.
func (r *Repository) Archive(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	var archived bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO archived_questions (id, username, text, participant_id, status, upvotes, archived_at)
			 SELECT id, username, text, participant_id, status, upvotes, $2
			 FROM questions WHERE id = $1`, id, at)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
			return err
		}
		archived = true
		return nil
	})
	return archived, err
}

// Unarchive moves an archived question back into the active set with status
// reset to submitted, upvotes preserved, and a fresh creation timestamp.
func (r *Repository) Unarchive(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	var restored bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO questions (id, username, text, participant_id, status, upvotes, created_at)
			 SELECT id, username, text, participant_id, 'submitted', upvotes, $2
			 FROM archived_questions WHERE id = $1`, id, at)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM archived_questions WHERE id = $1`, id); err != nil {
			return err
		}
		restored = true
		return nil
	})
	return restored, err
}

// Delete hard-removes a question. No archive trace; votes cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return tag.RowsAffected() > 0, err
}

// ListArchived returns the archive set, most recently archived first.
func (r *Repository) ListArchived(ctx context.Context) ([]models.ArchivedQuestion, error) {
	const query = `SELECT id, username, text, participant_id, status, upvotes, archived_at
		FROM archived_questions ORDER BY archived_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ArchivedQuestion
	for rows.Next() {
		var q models.ArchivedQuestion
		if err := rows.Scan(&q.ID, &q.Username, &q.Text, &q.ParticipantID, &q.Status, &q.Upvotes, &q.ArchivedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	err := row.Scan(&q.ID, &q.Username, &q.Text, &q.ParticipantID, &q.Status, &q.Upvotes, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func collectQuestions(rows pgx.Rows) ([]models.Question, error) {
	var out []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Username, &q.Text, &q.ParticipantID, &q.Status, &q.Upvotes, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
