package repository

import (
	"context"

	"github.com/dcevallos/restopos-api/internal/domain/entity"
)

// CreditNoteRepository define el puerto de persistencia para notas de crédito.
type CreditNoteRepository interface {
	Create(ctx context.Context, note *entity.CreditNote) error
	GetByBillID(ctx context.Context, billID string) (*entity.CreditNote, error)
	DeleteByRestaurant(ctx context.Context, restaurantID string) error
}
