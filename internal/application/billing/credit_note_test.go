package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/dcevallos/restopos-api/internal/application/billing"
	"github.com/dcevallos/restopos-api/internal/application/dto"
	"github.com/dcevallos/restopos-api/internal/domain"
	"github.com/dcevallos/restopos-api/pkg/sri"
)

// issueAuthorizedBill deja una factura AUTORIZADA en el fixture y devuelve su ID.
func issueAuthorizedBill(t *testing.T, fx *billingFixture, orderID string) string {
	t.Helper()
	fx.seedOrder(orderID, decimal.RequireFromString("34.50"))
	fx.authorizer.result = authorizedResult()
	resp, _, err := fx.issueUseCase().Issue(context.Background(), testRestaurantID, issueRequest(orderID))
	require.NoError(t, err)
	require.Equal(t, "AUTORIZADO", resp.SRIStatus)
	return resp.ID
}

func TestCreditNote_AnulaFacturaAutorizada(t *testing.T) {
	fx := newBillingFixture()
	billID := issueAuthorizedBill(t, fx, "order-1")
	uc := fx.creditNoteUseCase()

	resp, err := uc.Issue(context.Background(), testRestaurantID, billID, dto.CreditNoteRequest{
		ReasonCode:        "01",
		CustomDescription: "plato equivocado",
		TaxRate:           decimal.NewFromInt(15),
	})

	require.NoError(t, err)
	assert.Equal(t, "001-001-000000001", resp.Number, "la nota usa su propio secuencial, no el de facturas")
	assert.Equal(t, "Devolución de producto - plato equivocado", resp.Reason,
		"la descripción libre se anexa a la etiqueta normativa")
	require.NoError(t, sri.ValidateAccessKey(resp.AccessKey))

	bill, _ := fx.billRepo.GetByID(context.Background(), billID)
	assert.Equal(t, "CANCELADA", bill.SRIStatus)
	assert.True(t, bill.HasCreditNote)
	assert.Equal(t, 1, fx.noteRepo.count())
}

func TestCreditNote_MotivoSinDescripcion(t *testing.T) {
	fx := newBillingFixture()
	billID := issueAuthorizedBill(t, fx, "order-1")
	uc := fx.creditNoteUseCase()

	resp, err := uc.Issue(context.Background(), testRestaurantID, billID, dto.CreditNoteRequest{
		ReasonCode: "04",
		TaxRate:    decimal.NewFromInt(15),
	})

	require.NoError(t, err)
	assert.Equal(t, "Anulación de la transacción", resp.Reason)
}

func TestCreditNote_MotivoInvalido(t *testing.T) {
	fx := newBillingFixture()
	billID := issueAuthorizedBill(t, fx, "order-1")
	uc := fx.creditNoteUseCase()
	callsBefore := fx.authorizer.noteCalls

	_, err := uc.Issue(context.Background(), testRestaurantID, billID, dto.CreditNoteRequest{
		ReasonCode: "99",
		TaxRate:    decimal.NewFromInt(15),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, callsBefore, fx.authorizer.noteCalls, "una precondición fallida no toca la red")
}

func TestCreditNote_ConsumidorFinal_Rechazada(t *testing.T) {
	fx := newBillingFixture()
	fx.seedOrder("order-1", decimal.RequireFromString("12.00"))
	fx.authorizer.result = authorizedResult()
	req := issueRequest("order-1")
	req.Client.Identification = sri.FinalConsumerID
	req.Client.Email = ""
	resp, _, err := fx.issueUseCase().Issue(context.Background(), testRestaurantID, req)
	require.NoError(t, err)
	uc := fx.creditNoteUseCase()

	_, err = uc.Issue(context.Background(), testRestaurantID, resp.ID, dto.CreditNoteRequest{
		ReasonCode: "01",
		TaxRate:    decimal.NewFromInt(15),
	})

	assert.ErrorIs(t, err, domain.ErrFinalConsumerCancel,
		"una venta a consumidor final no identifica al cliente, no hay a quién acreditar")
	assert.Equal(t, 0, fx.noteRepo.count())
}

func TestCreditNote_FacturaNoAutorizada(t *testing.T) {
	fx := newBillingFixture()
	fx.seedOrder("order-1", decimal.RequireFromString("12.00"))
	fx.authorizer.result = &appbilling.AuthorizationResult{Estado: "RECIBIDA"}
	resp, _, err := fx.issueUseCase().Issue(context.Background(), testRestaurantID, issueRequest("order-1"))
	require.NoError(t, err)
	uc := fx.creditNoteUseCase()

	_, err = uc.Issue(context.Background(), testRestaurantID, resp.ID, dto.CreditNoteRequest{
		ReasonCode: "01",
		TaxRate:    decimal.NewFromInt(15),
	})

	assert.ErrorIs(t, err, domain.ErrBillNotAuthorized)
}

func TestCreditNote_SegundaNota_Rechazada(t *testing.T) {
	fx := newBillingFixture()
	billID := issueAuthorizedBill(t, fx, "order-1")
	uc := fx.creditNoteUseCase()

	_, err := uc.Issue(context.Background(), testRestaurantID, billID, dto.CreditNoteRequest{
		ReasonCode: "01",
		TaxRate:    decimal.NewFromInt(15),
	})
	require.NoError(t, err)

	_, err = uc.Issue(context.Background(), testRestaurantID, billID, dto.CreditNoteRequest{
		ReasonCode: "03",
		TaxRate:    decimal.NewFromInt(15),
	})
	assert.ErrorIs(t, err, domain.ErrBillAlreadyCanceled)
	assert.Equal(t, 1, fx.noteRepo.count(), "solo puede existir una nota por comprobante")
}

func TestCreditNote_FalloDelSRI_NoPersisteNada(t *testing.T) {
	fx := newBillingFixture()
	billID := issueAuthorizedBill(t, fx, "order-1")
	fx.authorizer.err = errors.New("timeout del servicio de facturación")
	uc := fx.creditNoteUseCase()

	_, err := uc.Issue(context.Background(), testRestaurantID, billID, dto.CreditNoteRequest{
		ReasonCode: "01",
		TaxRate:    decimal.NewFromInt(15),
	})

	require.Error(t, err)
	assert.Equal(t, 0, fx.noteRepo.count())
	bill, _ := fx.billRepo.GetByID(context.Background(), billID)
	assert.Equal(t, "AUTORIZADO", bill.SRIStatus, "un fallo del ciclo no anula el comprobante")
	assert.False(t, bill.HasCreditNote)
}

func TestCreditNote_NotaRechazadaPorElSRI(t *testing.T) {
	fx := newBillingFixture()
	billID := issueAuthorizedBill(t, fx, "order-1")
	fx.authorizer.result = &appbilling.AuthorizationResult{
		Estado:   "NO AUTORIZADO",
		Messages: "ERROR 58: DOCUMENTO MODIFICADO NO EXISTE",
	}
	uc := fx.creditNoteUseCase()

	_, err := uc.Issue(context.Background(), testRestaurantID, billID, dto.CreditNoteRequest{
		ReasonCode: "01",
		TaxRate:    decimal.NewFromInt(15),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCUMENTO MODIFICADO NO EXISTE",
		"el mensaje del SRI llega textual al operador")
	assert.Equal(t, 0, fx.noteRepo.count())
}
