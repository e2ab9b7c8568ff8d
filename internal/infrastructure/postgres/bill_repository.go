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

var _ repository.BillRepository = (*BillRepo)(nil)

// BillRepo implementación de BillRepository (usable con pool o tx).
type BillRepo struct {
	q Querier
}

// NewBillRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillRepository(q Querier) *BillRepo {
	return &BillRepo{q: q}
}

const billColumns = `id, restaurant_id, order_id, establishment, emission_point, sequence, number,
	       customer_identification, customer_name, customer_address, customer_email,
	       subtotal, tax, total, tax_rate, sri_status, access_key,
	       authorization_number, authorized_at, environment, has_credit_note, sri_messages,
	       created_at, updated_at`

// Create persiste el comprobante recién emitido.
func (r *BillRepo) Create(ctx context.Context, b *entity.Bill) error {
	query := `
		INSERT INTO bills (id, restaurant_id, order_id, establishment, emission_point, sequence, number,
		                   customer_identification, customer_name, customer_address, customer_email,
		                   subtotal, tax, total, tax_rate, sri_status, access_key,
		                   authorization_number, authorized_at, environment, has_credit_note, sri_messages,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.RestaurantID, b.OrderID, b.Establishment, b.EmissionPoint, b.Sequence, b.Number,
		b.CustomerIdentification, b.CustomerName, nullIfEmpty(b.CustomerAddress), nullIfEmpty(b.CustomerEmail),
		b.Subtotal, b.Tax, b.Total, b.TaxRate, b.SRIStatus, b.AccessKey,
		nullIfEmpty(b.AuthorizationNumber), b.AuthorizedAt, b.Environment, b.HasCreditNote, nullIfEmpty(b.SRIMessages),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número de comprobante duplicado", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// GetByID obtiene un comprobante por ID. Retorna (nil, nil) si no existe.
func (r *BillRepo) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	row := r.q.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
	return scanBill(row)
}

// GetByOrderID obtiene el comprobante más reciente de una orden.
func (r *BillRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.Bill, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`, orderID)
	return scanBill(row)
}

// UpdateSRIResult persiste el veredicto del ciclo SRI.
func (r *BillRepo) UpdateSRIResult(ctx context.Context, b *entity.Bill) error {
	query := `
		UPDATE bills
		SET sri_status           = $2,
		    access_key           = $3,
		    authorization_number = COALESCE($4, authorization_number),
		    authorized_at        = COALESCE($5, authorized_at),
		    sri_messages         = $6,
		    updated_at           = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.SRIStatus, b.AccessKey,
		nullIfEmpty(b.AuthorizationNumber), b.AuthorizedAt, nullIfEmpty(b.SRIMessages), b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bill sri result: %w", err)
	}
	return nil
}

// MarkCanceled marca el comprobante como anulado por nota de crédito.
func (r *BillRepo) MarkCanceled(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE bills SET sri_status = 'CANCELADA', has_credit_note = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark bill canceled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista comprobantes del restaurante con filtros opcionales.
func (r *BillRepo) List(ctx context.Context, restaurantID string, f repository.BillFilter) ([]*entity.Bill, int, error) {
	where := `WHERE restaurant_id = $1`
	args := []any{restaurantID}
	if f.Identification != "" {
		args = append(args, f.Identification)
		where += fmt.Sprintf(" AND customer_identification = $%d", len(args))
	}
	if f.Number != "" {
		args = append(args, f.Number)
		where += fmt.Sprintf(" AND number = $%d", len(args))
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM bills `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM bills %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		billColumns, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []*entity.Bill
	for rows.Next() {
		b, sErr := scanBill(rows)
		if sErr != nil {
			return nil, 0, sErr
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}

// DeleteByRestaurant purga todos los comprobantes del restaurante.
func (r *BillRepo) DeleteByRestaurant(ctx context.Context, restaurantID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM bills WHERE restaurant_id = $1`, restaurantID); err != nil {
		return fmt.Errorf("delete bills: %w", err)
	}
	return nil
}

func scanBill(row pgx.Row) (*entity.Bill, error) {
	var b entity.Bill
	var address, email, authNumber, messages *string
	err := row.Scan(
		&b.ID, &b.RestaurantID, &b.OrderID, &b.Establishment, &b.EmissionPoint, &b.Sequence, &b.Number,
		&b.CustomerIdentification, &b.CustomerName, &address, &email,
		&b.Subtotal, &b.Tax, &b.Total, &b.TaxRate, &b.SRIStatus, &b.AccessKey,
		&authNumber, &b.AuthorizedAt, &b.Environment, &b.HasCreditNote, &messages,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan bill: %w", err)
	}
	b.CustomerAddress = derefStr(address)
	b.CustomerEmail = derefStr(email)
	b.AuthorizationNumber = derefStr(authNumber)
	b.SRIMessages = derefStr(messages)
	return &b, nil
}
