package repository

import (
	"context"

	"github.com/dcevallos/restopos-api/internal/domain/entity"
)

// BillFilter filtros del listado de comprobantes.
type BillFilter struct {
	Identification string // identificación del adquirente (igualdad exacta)
	Number         string // número de comprobante "001-001-000000123"
	Limit          int
	Offset         int
}

// BillRepository define el puerto de persistencia para comprobantes.
type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	GetByID(ctx context.Context, id string) (*entity.Bill, error)
	GetByOrderID(ctx context.Context, orderID string) (*entity.Bill, error)
	// UpdateSRIResult actualiza estado, clave de acceso, autorización y
	// mensajes tras una respuesta del ciclo SRI.
	UpdateSRIResult(ctx context.Context, bill *entity.Bill) error
	// MarkCanceled marca el comprobante como anulado (CANCELADA + has_credit_note).
	MarkCanceled(ctx context.Context, id string) error
	List(ctx context.Context, restaurantID string, f BillFilter) ([]*entity.Bill, int, error)
	// DeleteByRestaurant purga todos los comprobantes (reset del sistema de facturación).
	DeleteByRestaurant(ctx context.Context, restaurantID string) error
}
