// Package attempts provides a PostgreSQL-backed repository for recorded quiz
// attempts. Attempt ids are derived deterministically on the server, so
// replays of the same offline snapshot insert each attempt at most once.
package attempts

import (
	"context"
	"fmt"

	"github.com/studaxis/studaxis/internal/dbx"
	"github.com/studaxis/studaxis/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateIfAbsent inserts the attempt unless a row with the same id already
// exists. It reports whether a row was actually inserted.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, attempt *models.Attempt) (bool, error) {
	query := `
		INSERT INTO quiz_attempts
			(attempt_id, user_id, quiz_id, score, total_questions, accuracy,
			 subject, difficulty, device_id, completed_at_local)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (attempt_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		attempt.ID, attempt.UserID, attempt.QuizID, attempt.Score,
		attempt.TotalQuestions, attempt.Accuracy, attempt.Subject,
		attempt.Difficulty, attempt.DeviceID, attempt.CompletedAtLocal)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// SelectByUser returns the user's attempts, most recent first.
func (r *PostgresRepository) SelectByUser(ctx context.Context, userID string) ([]*models.Attempt, error) {
	query := `
		SELECT attempt_id, user_id, quiz_id, score, total_questions, accuracy,
		       subject, difficulty, device_id, completed_at_local, synced_at
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY synced_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Attempt
	for rows.Next() {
		a := &models.Attempt{}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.QuizID, &a.Score, &a.TotalQuestions, &a.Accuracy,
			&a.Subject, &a.Difficulty, &a.DeviceID, &a.CompletedAtLocal, &a.SyncedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
