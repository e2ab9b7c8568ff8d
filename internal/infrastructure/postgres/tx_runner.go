package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcevallos/restopos-api/internal/application/billing"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
)

var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunIssuance abre la transacción de emisión: avance de secuencial (con lock
// de fila) y creación del comprobante son atómicos.
func (r *TxRunner) RunIssuance(ctx context.Context, fn func(
	billRepo repository.BillRepository,
	orderRepo repository.OrderRepository,
	restaurantRepo repository.RestaurantRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewBillRepository(tx), NewOrderRepository(tx), NewRestaurantRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunReset abre la transacción de purga del sistema de facturación.
func (r *TxRunner) RunReset(ctx context.Context, fn func(
	billRepo repository.BillRepository,
	noteRepo repository.CreditNoteRepository,
	orderRepo repository.OrderRepository,
	restaurantRepo repository.RestaurantRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewBillRepository(tx), NewCreditNoteRepository(tx), NewOrderRepository(tx), NewRestaurantRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
