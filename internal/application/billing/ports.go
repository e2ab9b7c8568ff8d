package billing

import (
	"context"
	"time"

	domainbilling "github.com/dcevallos/restopos-api/internal/domain/billing"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
)

// Progress notifica el avance del ciclo de emisión. El colaborador la invoca
// al entrar a cada etapa (GENERATING, SIGNING, SENDING, WAITING_AUTHORIZATION).
type Progress func(state domainbilling.State)

// InvoiceSubmission datos completos para que el colaborador genere, firme y
// envíe el comprobante al SRI.
type InvoiceSubmission struct {
	Bill       *entity.Bill
	Items      []*entity.OrderItem
	Restaurant *entity.Restaurant
}

// AuthorizationResult veredicto del ciclo SRI reportado por el colaborador.
type AuthorizationResult struct {
	Estado              string // RECIBIDA | AUTORIZADO | NO AUTORIZADO | DEVUELTA
	AccessKey           string
	AuthorizationNumber string
	AuthorizedAt        *time.Time
	// Messages trae los mensajes del SRI tal cual: pueden contener guía
	// normativa para el operador y se muestran sin reformular.
	Messages string
}

// SRIAuthorizer es el puerto de salida hacia el servicio de facturación
// externo, dueño de la firma XML y el diálogo con el SRI. La implementación
// concreta usa HTTP; para tests se inyecta un doble.
type SRIAuthorizer interface {
	// SubmitInvoice recorre el ciclo completo para una factura.
	// Puede tardar varios segundos (red + ida y vuelta gubernamental).
	SubmitInvoice(ctx context.Context, sub *InvoiceSubmission, progress Progress) (*AuthorizationResult, error)
	// SubmitCreditNote emite una nota de crédito contra un comprobante autorizado.
	SubmitCreditNote(ctx context.Context, note *entity.CreditNote, bill *entity.Bill, restaurant *entity.Restaurant) (*AuthorizationResult, error)
	// CheckStatus re-consulta al SRI el veredicto de una clave de acceso RECIBIDA.
	CheckStatus(ctx context.Context, accessKey string) (*AuthorizationResult, error)
}

// BillingTxRunner ejecuta una función dentro de una transacción con los repos
// de facturación atados a la tx.
type BillingTxRunner interface {
	// RunIssuance agrupa el avance de secuencial y la creación del comprobante:
	// es el punto de serialización que evita números duplicados.
	RunIssuance(ctx context.Context, fn func(
		billRepo repository.BillRepository,
		orderRepo repository.OrderRepository,
		restaurantRepo repository.RestaurantRepository,
	) error) error

	// RunReset agrupa la purga completa del sistema de facturación.
	RunReset(ctx context.Context, fn func(
		billRepo repository.BillRepository,
		noteRepo repository.CreditNoteRepository,
		orderRepo repository.OrderRepository,
		restaurantRepo repository.RestaurantRepository,
	) error) error
}

// ConfigRefresher invalida/recarga el snapshot de configuración tras una
// emisión exitosa, para que el "próximo secuencial" mostrado no quede obsoleto.
type ConfigRefresher interface {
	Refresh(ctx context.Context, restaurantID string) error
}

// RIDEGenerator genera la representación impresa (RIDE) de un comprobante autorizado.
type RIDEGenerator interface {
	GenerateRIDE(ctx context.Context, bill *entity.Bill, restaurant *entity.Restaurant, items []*entity.OrderItem) ([]byte, error)
}
