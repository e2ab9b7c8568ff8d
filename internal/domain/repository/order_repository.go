package repository

import (
	"context"

	"github.com/dcevallos/restopos-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para órdenes y sus líneas.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order, items []*entity.OrderItem) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetItemsByOrderID(ctx context.Context, orderID string) ([]*entity.OrderItem, error)
	// Update reemplaza cabecera y líneas (las líneas se reescriben completas).
	Update(ctx context.Context, order *entity.Order, items []*entity.OrderItem) error
	UpdateStatus(ctx context.Context, id, status string) error
	// MarkBilled marca la orden como facturada. Solo se invoca con la
	// respuesta persistida del ciclo de emisión, nunca de forma optimista.
	MarkBilled(ctx context.Context, id string, billed bool) error
	// UnmarkAllBilled desmarca todas las órdenes del restaurante (reset de facturación).
	UnmarkAllBilled(ctx context.Context, restaurantID string) error
	ListByRestaurant(ctx context.Context, restaurantID string, limit, offset int) ([]*entity.Order, error)
	CountByRestaurant(ctx context.Context, restaurantID string) (int, error)
}
