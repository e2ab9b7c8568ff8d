package repository

import (
	"context"

	"github.com/dcevallos/restopos-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmailAndRestaurant(ctx context.Context, email, restaurantID string) (*entity.User, error)
}
