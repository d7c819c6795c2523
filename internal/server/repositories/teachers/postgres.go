// Package teachers provides a PostgreSQL-backed repository for
// content-author accounts.
package teachers

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

func (r *PostgresRepository) Create(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error) {
	query := `
		INSERT INTO teachers (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		teacher.UserName, teacher.PasswordHash).Scan(&teacher.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return teacher, nil
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.Teacher, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM teachers
		WHERE username = $1
	`
	teacher := &models.Teacher{}
	err := r.db.QueryRowContext(ctx, query, login).Scan(
		&teacher.ID, &teacher.UserName, &teacher.PasswordHash, &teacher.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return teacher, nil
}
