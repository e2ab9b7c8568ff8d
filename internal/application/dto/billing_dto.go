package dto

import "github.com/shopspring/decimal"

// ClientDataRequest datos del adquirente capturados al emitir.
type ClientDataRequest struct {
	Identification string `json:"identification"`
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	Email          string `json:"email,omitempty"`
}

// IssueBillRequest body para POST /api/bills.
// AcknowledgeWarnings: el operador ya vio las advertencias (consumidor final
// sobre el umbral, email ausente) y decide continuar.
type IssueBillRequest struct {
	OrderID             string            `json:"order_id"`
	Client              ClientDataRequest `json:"client"`
	TaxRate             decimal.Decimal   `json:"tax_rate"`
	AcknowledgeWarnings bool              `json:"acknowledge_warnings,omitempty"`
}

// BillResponse comprobante en respuestas.
type BillResponse struct {
	ID                     string          `json:"id"`
	OrderID                string          `json:"order_id"`
	Number                 string          `json:"number"`
	CustomerIdentification string          `json:"customer_identification"`
	CustomerName           string          `json:"customer_name"`
	CustomerEmail          string          `json:"customer_email,omitempty"`
	Subtotal               decimal.Decimal `json:"subtotal"`
	Tax                    decimal.Decimal `json:"tax"`
	Total                  decimal.Decimal `json:"total"`
	TaxRate                decimal.Decimal `json:"tax_rate"`
	SRIStatus              string          `json:"sri_status"`
	AccessKey              string          `json:"access_key,omitempty"`
	AuthorizationNumber    string          `json:"authorization_number,omitempty"`
	AuthorizedAt           string          `json:"authorized_at,omitempty"`
	Environment            string          `json:"environment"`
	HasCreditNote          bool            `json:"has_credit_note"`
	SRIMessages            string          `json:"sri_messages,omitempty"`
	CreatedAt              string          `json:"created_at"`
}

// BillListRequest filtros del listado (query params).
type BillListRequest struct {
	Identification string `query:"identification"`
	Number         string `query:"number"`
	PageRequest
}

// BillListResponse listado paginado de comprobantes.
type BillListResponse struct {
	Items []BillResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// BillStatusResponse respuesta ligera para el polling de estado.
// El front-end consulta este endpoint hasta que sri_status sea terminal.
type BillStatusResponse struct {
	ID          string `json:"id"`
	SRIStatus   string `json:"sri_status"`
	AccessKey   string `json:"access_key,omitempty"`
	SRIMessages string `json:"sri_messages,omitempty"`
}

// CreditNoteRequest body para POST /api/bills/:id/credit-note.
type CreditNoteRequest struct {
	ReasonCode        string          `json:"reason_code"` // "01".."07"
	CustomDescription string          `json:"custom_description,omitempty"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
}

// CreditNoteResponse nota de crédito emitida.
type CreditNoteResponse struct {
	ID         string `json:"id"`
	BillID     string `json:"bill_id"`
	Number     string `json:"number"`
	ReasonCode string `json:"reason_code"`
	Reason     string `json:"reason"` // etiqueta normativa + descripción libre
	AccessKey  string `json:"access_key,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ResetBillingRequest body para POST /api/settings/billing/reset.
// La frase debe ser exactamente "ELIMINAR TODO" (sensible a mayúsculas):
// la operación es irreversible y un sí/no no basta.
type ResetBillingRequest struct {
	Confirmation string `json:"confirmation"`
}
