package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dcevallos/restopos-api/internal/domain"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
)

var _ repository.CreditNoteRepository = (*CreditNoteRepo)(nil)

// CreditNoteRepo implementación de CreditNoteRepository (usable con pool o tx).
type CreditNoteRepo struct {
	q Querier
}

// NewCreditNoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditNoteRepository(q Querier) *CreditNoteRepo {
	return &CreditNoteRepo{q: q}
}

// Create persiste la nota de crédito. El constraint único sobre bill_id
// respalda la regla de una sola nota por comprobante.
func (r *CreditNoteRepo) Create(ctx context.Context, n *entity.CreditNote) error {
	query := `
		INSERT INTO credit_notes (id, restaurant_id, bill_id, reason_code, description, tax_rate, sequence, number, access_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.RestaurantID, n.BillID, n.ReasonCode, nullIfEmpty(n.Description),
		n.TaxRate, n.Sequence, n.Number, n.AccessKey, n.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrBillAlreadyCanceled
		}
		return fmt.Errorf("insert credit note: %w", err)
	}
	return nil
}

// GetByBillID obtiene la nota de un comprobante. Retorna (nil, nil) si no existe.
func (r *CreditNoteRepo) GetByBillID(ctx context.Context, billID string) (*entity.CreditNote, error) {
	var n entity.CreditNote
	var description *string
	err := r.q.QueryRow(ctx, `
		SELECT id, restaurant_id, bill_id, reason_code, description, tax_rate, sequence, number, access_key, created_at
		FROM credit_notes WHERE bill_id = $1`, billID).Scan(
		&n.ID, &n.RestaurantID, &n.BillID, &n.ReasonCode, &description,
		&n.TaxRate, &n.Sequence, &n.Number, &n.AccessKey, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit note: %w", err)
	}
	n.Description = derefStr(description)
	return &n, nil
}

// DeleteByRestaurant purga todas las notas del restaurante.
func (r *CreditNoteRepo) DeleteByRestaurant(ctx context.Context, restaurantID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM credit_notes WHERE restaurant_id = $1`, restaurantID); err != nil {
		return fmt.Errorf("delete credit notes: %w", err)
	}
	return nil
}
