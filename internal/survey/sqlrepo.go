package survey

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLRepository stores submissions in the survey_submissions table created
// by the embedded migrations. It works on postgres and sqlite3.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository wraps an open, migrated database.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const insertSubmission = `
INSERT INTO survey_submissions (id, user_id, name, age, gender, created_at)
VALUES (:id, :user_id, :name, :age, :gender, :created_at)`

// Save inserts s.
func (r *SQLRepository) Save(ctx context.Context, s Submission) error {
	s.CreatedAt = s.CreatedAt.UTC()
	if _, err := r.db.NamedExecContext(ctx, insertSubmission, s); err != nil {
		return fmt.Errorf("survey: insert submission: %w", err)
	}
	return nil
}

// Count returns the number of stored submissions.
func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM survey_submissions`); err != nil {
		return 0, fmt.Errorf("survey: count submissions: %w", err)
	}
	return n, nil
}

// Recent returns up to limit submissions, newest first.
func (r *SQLRepository) Recent(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 10
	}
	query := r.db.Rebind(`
SELECT id, user_id, name, age, gender, created_at
FROM survey_submissions
ORDER BY created_at DESC
LIMIT ?`)
	var out []Submission
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("survey: recent submissions: %w", err)
	}
	return out, nil
}
