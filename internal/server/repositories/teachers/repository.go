package teachers

import (
	"context"

	"github.com/studaxis/studaxis/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error)
	GetByLogin(ctx context.Context, login string) (*models.Teacher, error)
}
