package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dcevallos/restopos-api/internal/application/dto"
	"github.com/dcevallos/restopos-api/internal/domain"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
	"github.com/dcevallos/restopos-api/pkg/sri"
)

// CreditNoteUseCase anula un comprobante AUTORIZADO emitiendo una nota de
// crédito por el total. Las precondiciones se verifican localmente antes de
// tocar la red: si alguna falla no se consume secuencial ni se llama al SRI.
type CreditNoteUseCase struct {
	authorizer     SRIAuthorizer
	billRepo       repository.BillRepository
	noteRepo       repository.CreditNoteRepository
	restaurantRepo repository.RestaurantRepository
	refresher      ConfigRefresher
}

// NewCreditNoteUseCase construye el caso de uso. refresher puede ser nil.
func NewCreditNoteUseCase(
	authorizer SRIAuthorizer,
	billRepo repository.BillRepository,
	noteRepo repository.CreditNoteRepository,
	restaurantRepo repository.RestaurantRepository,
	refresher ConfigRefresher,
) *CreditNoteUseCase {
	return &CreditNoteUseCase{
		authorizer:     authorizer,
		billRepo:       billRepo,
		noteRepo:       noteRepo,
		restaurantRepo: restaurantRepo,
		refresher:      refresher,
	}
}

// Issue emite la nota de crédito contra el comprobante indicado.
//
// No hay reintento local: si el ciclo SRI falla, el error llega textual al
// operador y vuelve a intentar él mismo. El secuencial consumido queda como
// brecha, el SRI las admite.
func (uc *CreditNoteUseCase) Issue(ctx context.Context, restaurantID, billID string, in dto.CreditNoteRequest) (*dto.CreditNoteResponse, error) {
	bill, err := uc.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	if bill.RestaurantID != restaurantID {
		return nil, domain.ErrForbidden
	}

	// Precondiciones locales, en orden de especificidad
	if sri.IsFinalConsumer(bill.CustomerIdentification) {
		return nil, domain.ErrFinalConsumerCancel
	}
	if bill.HasCreditNote {
		return nil, domain.ErrBillAlreadyCanceled
	}
	if bill.SRIStatus != sri.EstadoAutorizado {
		return nil, fmt.Errorf("%w (estado actual: %s)", domain.ErrBillNotAuthorized, bill.SRIStatus)
	}
	if err := sri.ValidateCreditNoteReason(in.ReasonCode); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	if in.TaxRate.IsNegative() {
		return nil, fmt.Errorf("%w: tasa de IVA negativa", domain.ErrInvalidInput)
	}

	restaurant, err := uc.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, domain.ErrNotFound
	}
	if err := validateBillingConfig(&restaurant.Billing); err != nil {
		return nil, err
	}

	seq, err := uc.restaurantRepo.NextCreditNoteSequence(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	key, err := sri.BuildAccessKey(sri.AccessKeyParams{
		IssuedAt:      now,
		DocType:       sri.DocTypeNotaCredito,
		RUC:           restaurant.Billing.RUC,
		Environment:   restaurant.Billing.Environment,
		Establishment: restaurant.Billing.Establishment,
		EmissionPoint: restaurant.Billing.EmissionPoint,
		Sequence:      seq,
		NumericCode:   randomNumericCode(),
	})
	if err != nil {
		return nil, err
	}

	note := &entity.CreditNote{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		BillID:       bill.ID,
		ReasonCode:   in.ReasonCode,
		Description:  strings.TrimSpace(in.CustomDescription),
		TaxRate:      in.TaxRate,
		Sequence:     seq,
		Number:       sri.FormatDocumentNumber(restaurant.Billing.Establishment, restaurant.Billing.EmissionPoint, seq),
		AccessKey:    key,
		CreatedAt:    now,
	}

	result, err := uc.authorizer.SubmitCreditNote(ctx, note, bill, restaurant)
	if err != nil {
		return nil, err
	}
	if result.Estado != sri.EstadoAutorizado {
		return nil, fmt.Errorf("%w: nota de crédito %s por el SRI: %s",
			domain.ErrConflict, result.Estado, result.Messages)
	}

	// Persistir solo con la nota autorizada: nota + anulación del comprobante.
	if err := uc.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}
	if err := uc.billRepo.MarkCanceled(ctx, bill.ID); err != nil {
		return nil, err
	}
	if uc.refresher != nil {
		if rErr := uc.refresher.Refresh(ctx, restaurantID); rErr != nil {
			log.Warn().Err(rErr).Msg("No se pudo refrescar la configuración tras la nota de crédito")
		}
	}

	log.Info().
		Str("comprobante", bill.Number).
		Str("nota_credito", note.Number).
		Str("motivo", sri.CreditNoteReasonText(note.ReasonCode, note.Description)).
		Msg("Comprobante anulado con nota de crédito")

	return &dto.CreditNoteResponse{
		ID:         note.ID,
		BillID:     note.BillID,
		Number:     note.Number,
		ReasonCode: note.ReasonCode,
		Reason:     sri.CreditNoteReasonText(note.ReasonCode, note.Description),
		AccessKey:  note.AccessKey,
		CreatedAt:  note.CreatedAt.Format(time.RFC3339),
	}, nil
}

// GetByBillID devuelve la nota de crédito de un comprobante, si existe.
func (uc *CreditNoteUseCase) GetByBillID(ctx context.Context, restaurantID, billID string) (*dto.CreditNoteResponse, error) {
	bill, err := uc.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil || bill.RestaurantID != restaurantID {
		return nil, domain.ErrNotFound
	}
	note, err := uc.noteRepo.GetByBillID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.CreditNoteResponse{
		ID:         note.ID,
		BillID:     note.BillID,
		Number:     note.Number,
		ReasonCode: note.ReasonCode,
		Reason:     sri.CreditNoteReasonText(note.ReasonCode, note.Description),
		AccessKey:  note.AccessKey,
		CreatedAt:  note.CreatedAt.Format(time.RFC3339),
	}, nil
}
