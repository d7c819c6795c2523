// Package quizzes provides a PostgreSQL-backed repository for the quiz
// index. Quiz payloads live in object storage; rows here are metadata only.
package quizzes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studaxis/studaxis/internal/common"
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

// CreateOrUpdate inserts the quiz row or, if the id already exists,
// replaces its metadata. Republishing a quiz keeps the original created_at.
func (r *PostgresRepository) CreateOrUpdate(ctx context.Context, quiz *models.Quiz) error {
	query := `
		INSERT INTO quizzes (quiz_id, title, subject, difficulty, question_count, s3_key, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (quiz_id) DO UPDATE SET
			title = EXCLUDED.title,
			subject = EXCLUDED.subject,
			difficulty = EXCLUDED.difficulty,
			question_count = EXCLUDED.question_count,
			s3_key = EXCLUDED.s3_key
	`
	if _, err := r.db.ExecContext(ctx, query,
		quiz.ID, quiz.Title, quiz.Subject, quiz.Difficulty,
		quiz.QuestionCount, quiz.StorageKey, quiz.CreatedBy); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	query := `
		SELECT quiz_id, title, subject, difficulty, question_count, s3_key, created_by, created_at
		FROM quizzes
		WHERE quiz_id = $1
	`
	quiz := &models.Quiz{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&quiz.ID, &quiz.Title, &quiz.Subject, &quiz.Difficulty,
		&quiz.QuestionCount, &quiz.StorageKey, &quiz.CreatedBy, &quiz.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return quiz, nil
}

// SelectBySubject returns quizzes of one subject, newest first.
func (r *PostgresRepository) SelectBySubject(ctx context.Context, subject string) ([]*models.Quiz, error) {
	query := `
		SELECT quiz_id, title, subject, difficulty, question_count, s3_key, created_by, created_at
		FROM quizzes
		WHERE subject = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	return scanQuizzes(rows)
}

// SelectAll returns every quiz in the index, newest first.
func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.Quiz, error) {
	query := `
		SELECT quiz_id, title, subject, difficulty, question_count, s3_key, created_by, created_at
		FROM quizzes
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	return scanQuizzes(rows)
}

func scanQuizzes(rows *sql.Rows) ([]*models.Quiz, error) {
	var result []*models.Quiz
	for rows.Next() {
		quiz := &models.Quiz{}
		if err := rows.Scan(
			&quiz.ID, &quiz.Title, &quiz.Subject, &quiz.Difficulty,
			&quiz.QuestionCount, &quiz.StorageKey, &quiz.CreatedBy, &quiz.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
