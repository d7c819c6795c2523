// Package students provides a PostgreSQL-backed repository for student
// accounts and their last-sync bookkeeping.
package students

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	query := `
		INSERT INTO students (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		student.UserName, student.PasswordHash).Scan(&student.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return student, nil
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.Student, error) {
	query := `
		SELECT id, username, password_hash, created_at, last_sync_at
		FROM students
		WHERE username = $1
	`
	student := &models.Student{}
	err := r.db.QueryRowContext(ctx, query, login).Scan(
		&student.ID, &student.UserName, &student.PasswordHash,
		&student.CreatedAt, &student.LastSyncAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return student, nil
}

// GetLastSync returns the student's last sync time, or nil if the student
// has never synced. An unknown user id maps to common.ErrorNotFound.
func (r *PostgresRepository) GetLastSync(ctx context.Context, userID string) (*time.Time, error) {
	query := `
		SELECT last_sync_at FROM students
		WHERE id = $1
	`
	var lastSync *time.Time
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&lastSync)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return lastSync, nil
}

func (r *PostgresRepository) UpdateLastSync(ctx context.Context, userID string, at time.Time) error {
	query := `
		UPDATE students SET last_sync_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
