package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gamestarter/internal/server/models"
)

// Repository is the storage boundary for user accounts. Lookups that find
// nothing return common.ErrorNotFound; an insert or update that collides on
// email returns common.ErrorDuplicateEmail.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int64, changes models.UserChanges) error
	Delete(ctx context.Context, id int64) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) (bool, error)
}
