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

var _ repository.RestaurantRepository = (*RestaurantRepo)(nil)

// RestaurantRepo implementación de RestaurantRepository (usable con pool o tx).
type RestaurantRepo struct {
	q Querier
}

// NewRestaurantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRestaurantRepository(q Querier) *RestaurantRepo {
	return &RestaurantRepo{q: q}
}

const restaurantColumns = `id, name, status,
	       primary_color, secondary_color, accent_color,
	       ruc, razon_social, nombre_comercial, direccion, billing_email, regime,
	       environment, establishment, emission_point,
	       invoice_sequence, credit_note_sequence,
	       created_at, updated_at`

// Create persiste un restaurante nuevo.
func (r *RestaurantRepo) Create(ctx context.Context, rest *entity.Restaurant) error {
	query := `
		INSERT INTO restaurants (id, name, status,
		                         primary_color, secondary_color, accent_color,
		                         ruc, razon_social, nombre_comercial, direccion, billing_email, regime,
		                         environment, establishment, emission_point,
		                         invoice_sequence, credit_note_sequence,
		                         created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	b := rest.Billing
	_, err := r.q.Exec(ctx, query,
		rest.ID, rest.Name, rest.Status,
		nullIfEmpty(rest.Colors.Primary), nullIfEmpty(rest.Colors.Secondary), nullIfEmpty(rest.Colors.Accent),
		nullIfEmpty(b.RUC), nullIfEmpty(b.RazonSocial), nullIfEmpty(b.NombreComercial),
		nullIfEmpty(b.Direccion), nullIfEmpty(b.Email), nullIfEmpty(b.Regime),
		b.Environment, nullIfEmpty(b.Establishment), nullIfEmpty(b.EmissionPoint),
		b.InvoiceSequence, b.CreditNoteSequence,
		rest.CreatedAt, rest.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert restaurant: %w", err)
	}
	return nil
}

// GetByID obtiene un restaurante por ID. Retorna (nil, nil) si no existe.
func (r *RestaurantRepo) GetByID(ctx context.Context, id string) (*entity.Restaurant, error) {
	row := r.q.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	return scanRestaurant(row)
}

// Update persiste nombre, colores e identidad fiscal. Los secuenciales NO se
// tocan por aquí: solo avanzan en la transacción de emisión o con el reset.
func (r *RestaurantRepo) Update(ctx context.Context, rest *entity.Restaurant) error {
	query := `
		UPDATE restaurants
		SET name             = $2,
		    primary_color    = $3,
		    secondary_color  = $4,
		    accent_color     = $5,
		    ruc              = $6,
		    razon_social     = $7,
		    nombre_comercial = $8,
		    direccion        = $9,
		    billing_email    = $10,
		    regime           = $11,
		    environment      = $12,
		    establishment    = $13,
		    emission_point   = $14,
		    updated_at       = now()
		WHERE id = $1`
	b := rest.Billing
	tag, err := r.q.Exec(ctx, query,
		rest.ID, rest.Name,
		nullIfEmpty(rest.Colors.Primary), nullIfEmpty(rest.Colors.Secondary), nullIfEmpty(rest.Colors.Accent),
		nullIfEmpty(b.RUC), nullIfEmpty(b.RazonSocial), nullIfEmpty(b.NombreComercial),
		nullIfEmpty(b.Direccion), nullIfEmpty(b.Email), nullIfEmpty(b.Regime),
		b.Environment, nullIfEmpty(b.Establishment), nullIfEmpty(b.EmissionPoint),
	)
	if err != nil {
		return fmt.Errorf("update restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextInvoiceSequence avanza y devuelve el secuencial de facturas. El UPDATE
// toma el lock de fila: dos emisores concurrentes se serializan aquí y jamás
// obtienen el mismo número.
func (r *RestaurantRepo) NextInvoiceSequence(ctx context.Context, restaurantID string) (int64, error) {
	var seq int64
	err := r.q.QueryRow(ctx, `
		UPDATE restaurants
		SET invoice_sequence = invoice_sequence + 1, updated_at = now()
		WHERE id = $1
		RETURNING invoice_sequence`, restaurantID).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}
	return seq, nil
}

// NextCreditNoteSequence ídem para notas de crédito.
func (r *RestaurantRepo) NextCreditNoteSequence(ctx context.Context, restaurantID string) (int64, error) {
	var seq int64
	err := r.q.QueryRow(ctx, `
		UPDATE restaurants
		SET credit_note_sequence = credit_note_sequence + 1, updated_at = now()
		WHERE id = $1
		RETURNING credit_note_sequence`, restaurantID).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("next credit note sequence: %w", err)
	}
	return seq, nil
}

// ResetSequences pone ambos secuenciales en cero (reset de facturación).
func (r *RestaurantRepo) ResetSequences(ctx context.Context, restaurantID string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE restaurants
		SET invoice_sequence = 0, credit_note_sequence = 0, updated_at = now()
		WHERE id = $1`, restaurantID)
	if err != nil {
		return fmt.Errorf("reset sequences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRestaurant(row pgx.Row) (*entity.Restaurant, error) {
	var rest entity.Restaurant
	var primary, secondary, accent *string
	var ruc, razon, comercial, direccion, email, regime, establishment, emissionPoint *string
	err := row.Scan(
		&rest.ID, &rest.Name, &rest.Status,
		&primary, &secondary, &accent,
		&ruc, &razon, &comercial, &direccion, &email, &regime,
		&rest.Billing.Environment, &establishment, &emissionPoint,
		&rest.Billing.InvoiceSequence, &rest.Billing.CreditNoteSequence,
		&rest.CreatedAt, &rest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan restaurant: %w", err)
	}
	rest.Colors = entity.BrandColors{
		Primary:   derefStr(primary),
		Secondary: derefStr(secondary),
		Accent:    derefStr(accent),
	}
	rest.Billing.RUC = derefStr(ruc)
	rest.Billing.RazonSocial = derefStr(razon)
	rest.Billing.NombreComercial = derefStr(comercial)
	rest.Billing.Direccion = derefStr(direccion)
	rest.Billing.Email = derefStr(email)
	rest.Billing.Regime = derefStr(regime)
	rest.Billing.Establishment = derefStr(establishment)
	rest.Billing.EmissionPoint = derefStr(emissionPoint)
	return &rest, nil
}
