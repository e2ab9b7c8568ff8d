package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill representa un comprobante electrónico (factura) emitido contra una orden.
// Una vez AUTORIZADO, sus campos fiscales son inmutables; la única mutación
// permitida es la anulación vía nota de crédito (HasCreditNote + CANCELADA).
type Bill struct {
	ID           string
	RestaurantID string
	OrderID      string

	// Número de comprobante: establecimiento-puntoEmisión-secuencial.
	// Único y monotónico por establecimiento + punto de emisión.
	Establishment string
	EmissionPoint string
	Sequence      int64
	Number        string // "001-001-000000123"

	// Datos del adquirente capturados al emitir
	CustomerIdentification string
	CustomerName           string
	CustomerAddress        string
	CustomerEmail          string

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	TaxRate  decimal.Decimal // porcentaje, ej. 15

	SRIStatus           string // RECIBIDA | AUTORIZADO | NO AUTORIZADO | DEVUELTA | CANCELADA
	AccessKey           string // clave de acceso de 49 dígitos asignada por la autoridad
	AuthorizationNumber string
	AuthorizedAt        *time.Time
	Environment         string // "1" producción, "2" pruebas
	HasCreditNote       bool
	SRIMessages         string // mensajes devueltos por el SRI (se muestran textuales al operador)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAuthorized indica si el comprobante fue autorizado y sigue vigente.
func (b *Bill) IsAuthorized() bool {
	return b.SRIStatus == "AUTORIZADO" && !b.HasCreditNote
}
