package quizzes

import (
	"context"

	"github.com/studaxis/studaxis/internal/server/models"
)

type Repository interface {
	CreateOrUpdate(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	SelectBySubject(ctx context.Context, subject string) ([]*models.Quiz, error)
	SelectAll(ctx context.Context) ([]*models.Quiz, error)
}
