package students

import (
	"context"
	"time"

	"github.com/studaxis/studaxis/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	GetByLogin(ctx context.Context, login string) (*models.Student, error)
	GetLastSync(ctx context.Context, userID string) (*time.Time, error)
	UpdateLastSync(ctx context.Context, userID string, at time.Time) error
}
