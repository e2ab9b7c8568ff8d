package repository

import (
	"context"

	"github.com/dcevallos/restopos-api/internal/domain/entity"
)

// RestaurantRepository define el puerto de persistencia para la configuración
// del restaurante (identidad fiscal, colores, secuenciales).
type RestaurantRepository interface {
	Create(ctx context.Context, r *entity.Restaurant) error
	GetByID(ctx context.Context, id string) (*entity.Restaurant, error)
	Update(ctx context.Context, r *entity.Restaurant) error

	// NextInvoiceSequence avanza y devuelve el secuencial de facturas con un
	// lock de fila: es el punto de serialización que evita números duplicados
	// entre operadores concurrentes. Solo debe llamarse dentro de la
	// transacción de emisión.
	NextInvoiceSequence(ctx context.Context, restaurantID string) (int64, error)
	// NextCreditNoteSequence ídem para notas de crédito.
	NextCreditNoteSequence(ctx context.Context, restaurantID string) (int64, error)
	// ResetSequences pone ambos secuenciales en cero (reset del sistema de facturación).
	ResetSequences(ctx context.Context, restaurantID string) error
}
