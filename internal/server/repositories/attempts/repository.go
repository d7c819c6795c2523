package attempts

import (
	"context"

	"github.com/studaxis/studaxis/internal/server/models"
)

type Repository interface {
	CreateIfAbsent(ctx context.Context, attempt *models.Attempt) (bool, error)
	SelectByUser(ctx context.Context, userID string) ([]*models.Attempt, error)
}
