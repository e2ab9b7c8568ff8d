package billing

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dcevallos/restopos-api/internal/application/dto"
	"github.com/dcevallos/restopos-api/internal/domain"
	domainbilling "github.com/dcevallos/restopos-api/internal/domain/billing"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
	"github.com/dcevallos/restopos-api/pkg/sri"
)

// IssueBillUseCase orquesta la emisión de facturas electrónicas:
//
//	Validación → secuencial (tx) → generación/firma/envío (colaborador) → veredicto → persistencia
//
// La orden se marca facturada únicamente con el veredicto persistido, nunca
// de forma optimista; un fallo en cualquier etapa deja la orden facturable
// de nuevo (el secuencial consumido queda como brecha, el SRI las admite).
type IssueBillUseCase struct {
	txRunner       BillingTxRunner
	authorizer     SRIAuthorizer
	orderRepo      repository.OrderRepository
	billRepo       repository.BillRepository
	restaurantRepo repository.RestaurantRepository
	refresher      ConfigRefresher

	// Guarda anti doble-click: una sola emisión en vuelo por orden.
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewIssueBillUseCase construye el caso de uso. refresher puede ser nil.
func NewIssueBillUseCase(
	txRunner BillingTxRunner,
	authorizer SRIAuthorizer,
	orderRepo repository.OrderRepository,
	billRepo repository.BillRepository,
	restaurantRepo repository.RestaurantRepository,
	refresher ConfigRefresher,
) *IssueBillUseCase {
	return &IssueBillUseCase{
		txRunner:       txRunner,
		authorizer:     authorizer,
		orderRepo:      orderRepo,
		billRepo:       billRepo,
		restaurantRepo: restaurantRepo,
		refresher:      refresher,
		inFlight:       make(map[string]struct{}),
	}
}

// Issue emite una factura para la orden indicada.
//
// Si la validación produce advertencias (consumidor final sobre el umbral,
// correo ausente o malformado) y el operador no las reconoció con
// AcknowledgeWarnings, retorna (nil, advertencias, nil) sin consumir
// secuencial; el handler responde 422 y el front re-envía confirmando.
func (uc *IssueBillUseCase) Issue(ctx context.Context, restaurantID string, in dto.IssueBillRequest) (*dto.BillResponse, []string, error) {
	if in.OrderID == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	if !uc.acquire(in.OrderID) {
		return nil, nil, domain.ErrIssuanceInFlight
	}
	defer uc.release(in.OrderID)

	tracker := domainbilling.NewTracker()
	if err := tracker.Advance(domainbilling.StateValidating); err != nil {
		return nil, nil, err
	}

	order, err := uc.orderRepo.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, domain.ErrNotFound
	}
	if order.RestaurantID != restaurantID {
		return nil, nil, domain.ErrForbidden
	}
	if order.Billed {
		return nil, nil, domain.ErrOrderAlreadyBilled
	}
	// Un comprobante previo AUTORIZADO o RECIBIDA bloquea el reintento;
	// DEVUELTA o NO AUTORIZADO lo permiten (se emite uno nuevo).
	if prev, pErr := uc.billRepo.GetByOrderID(ctx, in.OrderID); pErr == nil && prev != nil {
		if prev.SRIStatus == sri.EstadoAutorizado || prev.SRIStatus == sri.EstadoRecibida {
			return nil, nil, domain.ErrOrderAlreadyBilled
		}
	}

	items, err := uc.orderRepo.GetItemsByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: la orden no tiene líneas", domain.ErrInvalidInput)
	}

	restaurant, err := uc.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, nil, err
	}
	if restaurant == nil {
		return nil, nil, domain.ErrNotFound
	}
	if err := validateBillingConfig(&restaurant.Billing); err != nil {
		return nil, nil, err
	}

	// Datos del adquirente
	identification := strings.TrimSpace(in.Client.Identification)
	if err := sri.ValidateIdentification(identification); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	customerName := strings.TrimSpace(in.Client.Name)
	if sri.IsFinalConsumer(identification) {
		customerName = "CONSUMIDOR FINAL"
	} else if customerName == "" {
		return nil, nil, fmt.Errorf("%w: nombre del cliente requerido", domain.ErrInvalidInput)
	}
	if in.TaxRate.IsNegative() {
		return nil, nil, fmt.Errorf("%w: tasa de IVA negativa", domain.ErrInvalidInput)
	}

	// Montos: los precios del menú incluyen IVA, se desglosa hacia atrás.
	total := domainbilling.OrderTotal(derefItems(items))
	subtotal, tax, err := domainbilling.Breakdown(total, in.TaxRate)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	// Advertencias que requieren confirmación explícita del operador
	var warnings []string
	if sri.IsFinalConsumer(identification) && total.GreaterThan(sri.FinalConsumerMaxTotal) {
		warnings = append(warnings, fmt.Sprintf(
			"La venta a CONSUMIDOR FINAL por $%s supera el límite de $%s; el SRI exige identificar al cliente",
			total.StringFixed(2), sri.FinalConsumerMaxTotal.StringFixed(2)))
	}
	if !sri.IsFinalConsumer(identification) {
		email := strings.TrimSpace(in.Client.Email)
		if email == "" {
			warnings = append(warnings, "Sin correo electrónico el cliente no recibirá su comprobante")
		} else if !sri.IsValidEmail(email) {
			warnings = append(warnings, fmt.Sprintf("El correo %q parece malformado; el comprobante podría no llegar", email))
		}
	}
	if len(warnings) > 0 && !in.AcknowledgeWarnings {
		return nil, warnings, nil
	}

	// Secuencial + creación del comprobante en una sola transacción: el lock
	// de fila de NextInvoiceSequence serializa emisores concurrentes.
	now := time.Now()
	bill := &entity.Bill{
		ID:                     uuid.NewString(),
		RestaurantID:           restaurantID,
		OrderID:                order.ID,
		Establishment:          restaurant.Billing.Establishment,
		EmissionPoint:          restaurant.Billing.EmissionPoint,
		CustomerIdentification: identification,
		CustomerName:           customerName,
		CustomerAddress:        strings.TrimSpace(in.Client.Address),
		CustomerEmail:          strings.TrimSpace(in.Client.Email),
		Subtotal:               subtotal,
		Tax:                    tax,
		Total:                  total,
		TaxRate:                in.TaxRate,
		SRIStatus:              sri.EstadoEnProceso,
		Environment:            restaurant.Billing.Environment,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	err = uc.txRunner.RunIssuance(ctx, func(
		billRepo repository.BillRepository,
		_ repository.OrderRepository,
		restaurantRepo repository.RestaurantRepository,
	) error {
		seq, seqErr := restaurantRepo.NextInvoiceSequence(ctx, restaurantID)
		if seqErr != nil {
			return seqErr
		}
		bill.Sequence = seq
		bill.Number = sri.FormatDocumentNumber(bill.Establishment, bill.EmissionPoint, seq)
		key, keyErr := sri.BuildAccessKey(sri.AccessKeyParams{
			IssuedAt:      now,
			DocType:       sri.DocTypeFactura,
			RUC:           restaurant.Billing.RUC,
			Environment:   restaurant.Billing.Environment,
			Establishment: bill.Establishment,
			EmissionPoint: bill.EmissionPoint,
			Sequence:      seq,
			NumericCode:   randomNumericCode(),
		})
		if keyErr != nil {
			return keyErr
		}
		bill.AccessKey = key
		return billRepo.Create(ctx, bill)
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("orden", order.ID).
		Str("comprobante", bill.Number).
		Str("clave_acceso", bill.AccessKey).
		Msg("Comprobante creado, iniciando ciclo SRI")

	// Ciclo externo: el colaborador genera, firma y envía; reporta avance
	// por callback. Un avance fuera de tabla es bug, se loguea y se aborta.
	var stateErr error
	result, err := uc.authorizer.SubmitInvoice(ctx, &InvoiceSubmission{
		Bill:       bill,
		Items:      items,
		Restaurant: restaurant,
	}, func(s domainbilling.State) {
		if aErr := tracker.Advance(s); aErr != nil {
			stateErr = aErr
			log.Error().Err(aErr).Str("comprobante", bill.Number).Msg("Transición de estado inválida")
			return
		}
		log.Debug().Str("comprobante", bill.Number).Str("estado", string(s)).Msg("Avance del ciclo de emisión")
	})
	if stateErr != nil {
		return nil, nil, stateErr
	}
	if err != nil {
		// Fallo de transporte o del colaborador: el mensaje se guarda textual
		// y la orden queda facturable de nuevo.
		_ = tracker.Fail()
		bill.SRIMessages = err.Error()
		bill.UpdatedAt = time.Now()
		if upErr := uc.billRepo.UpdateSRIResult(ctx, bill); upErr != nil {
			log.Error().Err(upErr).Str("comprobante", bill.Number).Msg("No se pudo persistir el fallo de emisión")
		}
		return nil, nil, err
	}

	return uc.settleVerdict(ctx, tracker, bill, result)
}

// settleVerdict clasifica el veredicto del SRI y persiste el desenlace.
func (uc *IssueBillUseCase) settleVerdict(ctx context.Context, tracker *domainbilling.Tracker, bill *entity.Bill, result *AuthorizationResult) (*dto.BillResponse, []string, error) {
	bill.SRIMessages = result.Messages
	bill.UpdatedAt = time.Now()

	switch result.Estado {
	case sri.EstadoAutorizado:
		if err := tracker.Advance(domainbilling.StateAuthorized); err != nil {
			return nil, nil, err
		}
		bill.SRIStatus = sri.EstadoAutorizado
		bill.AuthorizationNumber = result.AuthorizationNumber
		bill.AuthorizedAt = result.AuthorizedAt
		if bill.AuthorizedAt == nil {
			t := time.Now()
			bill.AuthorizedAt = &t
		}
		if err := uc.billRepo.UpdateSRIResult(ctx, bill); err != nil {
			return nil, nil, err
		}
		if err := uc.orderRepo.MarkBilled(ctx, bill.OrderID, true); err != nil {
			return nil, nil, err
		}
		uc.refreshConfig(ctx, bill.RestaurantID)
		log.Info().Str("comprobante", bill.Number).Str("autorizacion", bill.AuthorizationNumber).Msg("Factura AUTORIZADA")

	case sri.EstadoRecibida:
		// El SRI recibió pero aún no confirma: terminal recuperable,
		// se resuelve con la re-consulta explícita (CheckStatus).
		if err := tracker.Advance(domainbilling.StatePending); err != nil {
			return nil, nil, err
		}
		bill.SRIStatus = sri.EstadoRecibida
		if err := uc.billRepo.UpdateSRIResult(ctx, bill); err != nil {
			return nil, nil, err
		}
		if err := uc.orderRepo.MarkBilled(ctx, bill.OrderID, true); err != nil {
			return nil, nil, err
		}
		uc.refreshConfig(ctx, bill.RestaurantID)
		log.Warn().Str("comprobante", bill.Number).Msg("Factura RECIBIDA sin autorización, re-consultar más tarde")

	default:
		// NO AUTORIZADO, DEVUELTA o un estado desconocido: los mensajes del
		// SRI se muestran textuales, traen la guía normativa para corregir.
		_ = tracker.Fail()
		bill.SRIStatus = result.Estado
		if bill.SRIStatus == "" {
			bill.SRIStatus = sri.EstadoDevuelta
		}
		if err := uc.billRepo.UpdateSRIResult(ctx, bill); err != nil {
			return nil, nil, err
		}
		log.Warn().Str("comprobante", bill.Number).Str("estado", bill.SRIStatus).Str("mensajes", bill.SRIMessages).Msg("Factura rechazada por el SRI")
	}

	resp := toBillResponse(bill)
	return &resp, nil, nil
}

// CheckStatus re-consulta al SRI un comprobante RECIBIDA (autorización diferida).
func (uc *IssueBillUseCase) CheckStatus(ctx context.Context, restaurantID, billID string) (*dto.BillResponse, error) {
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
	if bill.SRIStatus == sri.EstadoAutorizado {
		resp := toBillResponse(bill)
		return &resp, nil
	}
	if bill.SRIStatus != sri.EstadoRecibida {
		return nil, fmt.Errorf("%w: solo se re-consulta un comprobante RECIBIDA (actual: %s)", domain.ErrConflict, bill.SRIStatus)
	}

	tracker := domainbilling.ResumeTracker(domainbilling.StatePending)
	if err := tracker.Advance(domainbilling.StateWaitingAuthorization); err != nil {
		return nil, err
	}

	result, err := uc.authorizer.CheckStatus(ctx, bill.AccessKey)
	if err != nil {
		// La re-consulta falló: el comprobante sigue RECIBIDA, se puede reintentar.
		return nil, err
	}

	bill.SRIMessages = result.Messages
	bill.UpdatedAt = time.Now()
	switch result.Estado {
	case sri.EstadoAutorizado:
		if err := tracker.Advance(domainbilling.StateAuthorized); err != nil {
			return nil, err
		}
		bill.SRIStatus = sri.EstadoAutorizado
		bill.AuthorizationNumber = result.AuthorizationNumber
		bill.AuthorizedAt = result.AuthorizedAt
		if bill.AuthorizedAt == nil {
			t := time.Now()
			bill.AuthorizedAt = &t
		}
		if err := uc.billRepo.UpdateSRIResult(ctx, bill); err != nil {
			return nil, err
		}
		uc.refreshConfig(ctx, restaurantID)
		log.Info().Str("comprobante", bill.Number).Msg("Re-consulta: factura AUTORIZADA")

	case sri.EstadoRecibida:
		// Sigue en cola del SRI: vuelve a PENDING sin tocar la DB.
		if err := tracker.Advance(domainbilling.StatePending); err != nil {
			return nil, err
		}
		log.Info().Str("comprobante", bill.Number).Msg("Re-consulta: sigue RECIBIDA")

	default:
		_ = tracker.Fail()
		bill.SRIStatus = result.Estado
		if err := uc.billRepo.UpdateSRIResult(ctx, bill); err != nil {
			return nil, err
		}
		// La orden vuelve a ser facturable.
		if err := uc.orderRepo.MarkBilled(ctx, bill.OrderID, false); err != nil {
			return nil, err
		}
		log.Warn().Str("comprobante", bill.Number).Str("estado", bill.SRIStatus).Msg("Re-consulta: factura rechazada")
	}

	resp := toBillResponse(bill)
	return &resp, nil
}

// GetBill devuelve un comprobante por ID.
func (uc *IssueBillUseCase) GetBill(ctx context.Context, restaurantID, billID string) (*dto.BillResponse, error) {
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
	resp := toBillResponse(bill)
	return &resp, nil
}

// GetStatus respuesta ligera para el polling del modal de emisión.
func (uc *IssueBillUseCase) GetStatus(ctx context.Context, restaurantID, billID string) (*dto.BillStatusResponse, error) {
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
	return &dto.BillStatusResponse{
		ID:          bill.ID,
		SRIStatus:   bill.SRIStatus,
		AccessKey:   bill.AccessKey,
		SRIMessages: bill.SRIMessages,
	}, nil
}

// List lista comprobantes con filtros por identificación y número.
func (uc *IssueBillUseCase) List(ctx context.Context, restaurantID string, in dto.BillListRequest) (*dto.BillListResponse, error) {
	in.DefaultPage()
	bills, total, err := uc.billRepo.List(ctx, restaurantID, repository.BillFilter{
		Identification: strings.TrimSpace(in.Identification),
		Number:         strings.TrimSpace(in.Number),
		Limit:          in.Limit,
		Offset:         in.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.BillResponse, len(bills))
	for i, b := range bills {
		items[i] = toBillResponse(b)
	}
	return &dto.BillListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

func (uc *IssueBillUseCase) acquire(orderID string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, busy := uc.inFlight[orderID]; busy {
		return false
	}
	uc.inFlight[orderID] = struct{}{}
	return true
}

func (uc *IssueBillUseCase) release(orderID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.inFlight, orderID)
}

func (uc *IssueBillUseCase) refreshConfig(ctx context.Context, restaurantID string) {
	if uc.refresher == nil {
		return
	}
	if err := uc.refresher.Refresh(ctx, restaurantID); err != nil {
		log.Warn().Err(err).Msg("No se pudo refrescar la configuración tras emitir")
	}
}

// validateBillingConfig exige una identidad fiscal completa antes de emitir.
func validateBillingConfig(cfg *entity.BillingConfig) error {
	if cfg.RUC == "" || cfg.RazonSocial == "" || cfg.Establishment == "" || cfg.EmissionPoint == "" {
		return fmt.Errorf("%w: configure la facturación (RUC, razón social, establecimiento y punto de emisión) antes de emitir", domain.ErrInvalidInput)
	}
	if err := sri.ValidateIdentification(cfg.RUC); err != nil {
		return fmt.Errorf("%w: RUC del emisor inválido: %s", domain.ErrInvalidInput, err)
	}
	if cfg.Environment != sri.EnvironmentPruebas && cfg.Environment != sri.EnvironmentProduccion {
		return fmt.Errorf("%w: ambiente SRI inválido %q", domain.ErrInvalidInput, cfg.Environment)
	}
	return nil
}

func derefItems(items []*entity.OrderItem) []entity.OrderItem {
	out := make([]entity.OrderItem, len(items))
	for i, it := range items {
		out[i] = *it
	}
	return out
}

// randomNumericCode genera los 8 dígitos del código numérico de la clave de acceso.
func randomNumericCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "00000001"
	}
	return fmt.Sprintf("%08d", n)
}

func toBillResponse(b *entity.Bill) dto.BillResponse {
	resp := dto.BillResponse{
		ID:                     b.ID,
		OrderID:                b.OrderID,
		Number:                 b.Number,
		CustomerIdentification: b.CustomerIdentification,
		CustomerName:           b.CustomerName,
		CustomerEmail:          b.CustomerEmail,
		Subtotal:               b.Subtotal,
		Tax:                    b.Tax,
		Total:                  b.Total,
		TaxRate:                b.TaxRate,
		SRIStatus:              b.SRIStatus,
		AccessKey:              b.AccessKey,
		AuthorizationNumber:    b.AuthorizationNumber,
		Environment:            b.Environment,
		HasCreditNote:          b.HasCreditNote,
		SRIMessages:            b.SRIMessages,
		CreatedAt:              b.CreatedAt.Format(time.RFC3339),
	}
	if b.AuthorizedAt != nil {
		resp.AuthorizedAt = b.AuthorizedAt.Format(time.RFC3339)
	}
	return resp
}
