package sri

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appbilling "github.com/dcevallos/restopos-api/internal/application/billing"
	domainbilling "github.com/dcevallos/restopos-api/internal/domain/billing"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/pkg/config"
	pkgsri "github.com/dcevallos/restopos-api/pkg/sri"
)

var _ appbilling.SRIAuthorizer = (*Client)(nil)

// Client implementa el puerto SRIAuthorizer contra el servicio de
// facturación por HTTP. El servicio es quien firma y habla con el SRI;
// este cliente solo arma el payload y traduce la respuesta.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient construye el cliente con el timeout configurado (el ciclo
// recepción + autorización del SRI puede tardar varios segundos).
func NewClient(cfg config.SRIConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.BillingServiceURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SubmitInvoice envía la factura al ciclo completo y reporta el avance por
// etapas vía el callback de progreso.
func (c *Client) SubmitInvoice(ctx context.Context, sub *appbilling.InvoiceSubmission, progress appbilling.Progress) (*appbilling.AuthorizationResult, error) {
	progress(domainbilling.StateGenerating)
	payload := buildInvoicePayload(sub)

	progress(domainbilling.StateSigning)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sri: no se pudo serializar la factura: %w", err)
	}

	progress(domainbilling.StateSending)
	raw, err := c.post(ctx, "/api/v1/facturas", body)
	if err != nil {
		return nil, err
	}

	progress(domainbilling.StateWaitingAuthorization)
	return parseSRIResponse(raw)
}

// SubmitCreditNote envía una nota de crédito contra un comprobante autorizado.
func (c *Client) SubmitCreditNote(ctx context.Context, note *entity.CreditNote, bill *entity.Bill, restaurant *entity.Restaurant) (*appbilling.AuthorizationResult, error) {
	payload := buildCreditNotePayload(note, bill, restaurant)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sri: no se pudo serializar la nota de crédito: %w", err)
	}
	raw, err := c.post(ctx, "/api/v1/notas-credito", body)
	if err != nil {
		return nil, err
	}
	return parseSRIResponse(raw)
}

// CheckStatus re-consulta el veredicto de una clave de acceso.
func (c *Client) CheckStatus(ctx context.Context, accessKey string) (*appbilling.AuthorizationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/autorizacion/"+accessKey, nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return parseSRIResponse(raw)
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sri: el servicio de facturación no respondió: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("sri: respuesta truncada del servicio de facturación: %w", err)
	}
	// 4xx/5xx del servicio: el cuerpo trae el motivo, se pasa textual.
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("sri: el servicio de facturación respondió %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return raw, nil
}

func buildInvoicePayload(sub *appbilling.InvoiceSubmission) invoicePayload {
	b := sub.Bill
	r := sub.Restaurant
	detalles := make([]detallePayload, len(sub.Items))
	for i, it := range sub.Items {
		detalles[i] = detallePayload{
			Descripcion:    it.Name,
			Cantidad:       it.Quantity,
			PrecioUnitario: it.Price,
			Subtotal:       it.Subtotal(),
		}
	}
	return invoicePayload{
		ClaveAcceso: b.AccessKey,
		Ambiente:    b.Environment,
		Secuencial:  b.Number,
		Emisor: emisorPayload{
			RUC:             r.Billing.RUC,
			RazonSocial:     r.Billing.RazonSocial,
			NombreComercial: r.Billing.NombreComercial,
			Direccion:       r.Billing.Direccion,
			Regimen:         r.Billing.Regime,
			Establecimiento: b.Establishment,
			PuntoEmision:    b.EmissionPoint,
		},
		Comprador: compradorPayload{
			Identificacion: b.CustomerIdentification,
			RazonSocial:    b.CustomerName,
			Direccion:      b.CustomerAddress,
			Email:          b.CustomerEmail,
		},
		Detalles:  detalles,
		Subtotal:  b.Subtotal,
		IVA:       b.Tax,
		TarifaIVA: b.TaxRate,
		Total:     b.Total,
	}
}

func buildCreditNotePayload(note *entity.CreditNote, bill *entity.Bill, restaurant *entity.Restaurant) creditNotePayload {
	return creditNotePayload{
		ClaveAcceso:             note.AccessKey,
		Ambiente:                bill.Environment,
		Secuencial:              note.Number,
		Motivo:                  pkgsri.CreditNoteReasonText(note.ReasonCode, note.Description),
		DocumentoModificado:     bill.Number,
		FechaEmisionDocSustento: bill.CreatedAt.Format("02/01/2006"),
		Emisor: emisorPayload{
			RUC:             restaurant.Billing.RUC,
			RazonSocial:     restaurant.Billing.RazonSocial,
			NombreComercial: restaurant.Billing.NombreComercial,
			Direccion:       restaurant.Billing.Direccion,
			Regimen:         restaurant.Billing.Regime,
			Establecimiento: restaurant.Billing.Establishment,
			PuntoEmision:    restaurant.Billing.EmissionPoint,
		},
		Comprador: compradorPayload{
			Identificacion: bill.CustomerIdentification,
			RazonSocial:    bill.CustomerName,
			Direccion:      bill.CustomerAddress,
			Email:          bill.CustomerEmail,
		},
		Subtotal:  bill.Subtotal,
		IVA:       bill.Tax,
		TarifaIVA: note.TaxRate,
		Total:     bill.Total,
	}
}
