package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditNote anula un comprobante AUTORIZADO. Solo puede existir una por
// comprobante y nunca contra una venta a consumidor final.
type CreditNote struct {
	ID           string
	RestaurantID string
	BillID       string
	ReasonCode   string // catálogo del regulador: "01".."07"
	Description  string // texto libre anexado a la etiqueta del motivo
	TaxRate      decimal.Decimal
	Sequence     int64
	Number       string // "001-001-000000045"
	AccessKey    string
	CreatedAt    time.Time
}
