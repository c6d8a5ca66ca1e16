package users

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/server/models"
)

type Repository interface {
	// Create fills in ID and CreatedAt of u.
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByName(ctx context.Context, userName string) (*models.User, error)
}
