package logins

import (
	"context"

	"github.com/dmitrijs2005/gamestarter/internal/server/models"
)

// Repository stores the login audit trail. Records are never updated.
type Repository interface {
	Create(ctx context.Context, userID int64, sourceAddress, userAgent string) (*models.LoginRecord, error)
	GetByID(ctx context.Context, id int64) (*models.LoginRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]models.LoginRecord, error)
	ListAll(ctx context.Context) ([]models.LoginRecord, error)
}
