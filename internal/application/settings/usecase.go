// Package settings gestiona la configuración del restaurante (identidad
// fiscal, colores, secuenciales) con una caché explícita por restaurante:
// se invalida al escribir y tras cada emisión exitosa, y sirve de último
// snapshot bueno conocido cuando la lectura fresca falla.
package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dcevallos/restopos-api/internal/application/dto"
	"github.com/dcevallos/restopos-api/internal/domain"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
	"github.com/dcevallos/restopos-api/pkg/sri"
)

// UseCase expone lectura, actualización parcial y sincronización de la
// configuración. Implementa el puerto ConfigRefresher de facturación.
type UseCase struct {
	repo repository.RestaurantRepository

	mu    sync.RWMutex
	cache map[string]*entity.Restaurant // último snapshot bueno conocido
}

// NewUseCase construye el caso de uso con caché vacía.
func NewUseCase(repo repository.RestaurantRepository) *UseCase {
	return &UseCase{
		repo:  repo,
		cache: make(map[string]*entity.Restaurant),
	}
}

// Get devuelve la configuración. Intenta siempre la lectura fresca; si falla
// y hay snapshot en caché, responde con él marcado Stale para que el
// operador sepa que los secuenciales mostrados pueden estar atrasados.
func (uc *UseCase) Get(ctx context.Context, restaurantID string) (*dto.SettingsResponse, error) {
	rest, err := uc.repo.GetByID(ctx, restaurantID)
	if err != nil {
		uc.mu.RLock()
		cached, ok := uc.cache[restaurantID]
		uc.mu.RUnlock()
		if !ok {
			return nil, err
		}
		log.Warn().Err(err).Str("restaurante", restaurantID).
			Msg("Lectura de configuración falló, sirviendo último snapshot conocido")
		resp := toSettingsResponse(cached)
		resp.Stale = true
		return resp, nil
	}
	if rest == nil {
		return nil, domain.ErrNotFound
	}
	uc.store(rest)
	return toSettingsResponse(rest), nil
}

// Update fusiona los campos enviados sobre la configuración actual. Los
// sub-objetos se mezclan campo a campo; lo no enviado se conserva. Los
// secuenciales no son actualizables por esta vía.
func (uc *UseCase) Update(ctx context.Context, restaurantID string, in dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	rest, err := uc.repo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, domain.ErrNotFound
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: el nombre no puede quedar vacío", domain.ErrInvalidInput)
		}
		rest.Name = name
	}
	if in.Colors != nil {
		applyString(&rest.Colors.Primary, in.Colors.Primary)
		applyString(&rest.Colors.Secondary, in.Colors.Secondary)
		applyString(&rest.Colors.Accent, in.Colors.Accent)
	}
	if in.Billing != nil {
		if err := mergeBilling(&rest.Billing, in.Billing); err != nil {
			return nil, err
		}
	}

	if err := uc.repo.Update(ctx, rest); err != nil {
		return nil, err
	}
	// Escritura exitosa: el snapshot viejo ya no sirve.
	uc.invalidate(restaurantID)
	uc.store(rest)
	return toSettingsResponse(rest), nil
}

// Refresh recarga el snapshot tras una emisión exitosa (los secuenciales
// avanzaron en la transacción y la caché quedó atrás). Si la recarga falla,
// la caché se invalida igualmente: mejor sin snapshot que con uno mentiroso.
func (uc *UseCase) Refresh(ctx context.Context, restaurantID string) error {
	uc.invalidate(restaurantID)
	rest, err := uc.repo.GetByID(ctx, restaurantID)
	if err != nil {
		return err
	}
	if rest == nil {
		return domain.ErrNotFound
	}
	uc.store(rest)
	return nil
}

func (uc *UseCase) store(rest *entity.Restaurant) {
	cp := *rest
	uc.mu.Lock()
	uc.cache[rest.ID] = &cp
	uc.mu.Unlock()
}

func (uc *UseCase) invalidate(restaurantID string) {
	uc.mu.Lock()
	delete(uc.cache, restaurantID)
	uc.mu.Unlock()
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// mergeBilling valida cada campo fiscal antes de aplicarlo.
func mergeBilling(cfg *entity.BillingConfig, in *dto.BillingConfigDTO) error {
	if in.RUC != nil {
		ruc := strings.TrimSpace(*in.RUC)
		if err := sri.ValidateIdentification(ruc); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
		}
		if sri.IsFinalConsumer(ruc) || len(ruc) != 13 {
			return fmt.Errorf("%w: el RUC del emisor debe tener 13 dígitos", domain.ErrInvalidInput)
		}
		cfg.RUC = ruc
	}
	if in.Environment != nil {
		env := strings.TrimSpace(*in.Environment)
		if env != sri.EnvironmentPruebas && env != sri.EnvironmentProduccion {
			return fmt.Errorf("%w: ambiente SRI inválido %q (usar \"1\" o \"2\")", domain.ErrInvalidInput, env)
		}
		cfg.Environment = env
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email != "" && !sri.IsValidEmail(email) {
			return fmt.Errorf("%w: correo fiscal malformado %q", domain.ErrInvalidInput, email)
		}
		cfg.Email = email
	}
	if in.Establishment != nil {
		if err := validateSeriePart(*in.Establishment); err != nil {
			return err
		}
		cfg.Establishment = strings.TrimSpace(*in.Establishment)
	}
	if in.EmissionPoint != nil {
		if err := validateSeriePart(*in.EmissionPoint); err != nil {
			return err
		}
		cfg.EmissionPoint = strings.TrimSpace(*in.EmissionPoint)
	}
	applyString(&cfg.RazonSocial, in.RazonSocial)
	applyString(&cfg.NombreComercial, in.NombreComercial)
	applyString(&cfg.Direccion, in.Direccion)
	applyString(&cfg.Regime, in.Regime)
	return nil
}

func validateSeriePart(v string) error {
	v = strings.TrimSpace(v)
	if len(v) != 3 {
		return fmt.Errorf("%w: establecimiento y punto de emisión son de 3 dígitos (ej. \"001\")", domain.ErrInvalidInput)
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: establecimiento y punto de emisión son numéricos", domain.ErrInvalidInput)
		}
	}
	return nil
}

func toSettingsResponse(rest *entity.Restaurant) *dto.SettingsResponse {
	resp := &dto.SettingsResponse{
		ID:   rest.ID,
		Name: rest.Name,
	}
	resp.Colors.Primary = rest.Colors.Primary
	resp.Colors.Secondary = rest.Colors.Secondary
	resp.Colors.Accent = rest.Colors.Accent

	b := rest.Billing
	resp.Billing.RUC = b.RUC
	resp.Billing.RazonSocial = b.RazonSocial
	resp.Billing.NombreComercial = b.NombreComercial
	resp.Billing.Direccion = b.Direccion
	resp.Billing.Email = b.Email
	resp.Billing.Regime = b.Regime
	resp.Billing.Environment = b.Environment
	resp.Billing.Establishment = b.Establishment
	resp.Billing.EmissionPoint = b.EmissionPoint
	if b.Establishment != "" && b.EmissionPoint != "" {
		resp.Billing.NextInvoiceNumber = sri.FormatDocumentNumber(b.Establishment, b.EmissionPoint, b.InvoiceSequence+1)
		resp.Billing.NextCreditNoteNumber = sri.FormatDocumentNumber(b.Establishment, b.EmissionPoint, b.CreditNoteSequence+1)
	}
	return resp
}
