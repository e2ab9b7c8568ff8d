package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden. El ciclo es operado por el personal de sala:
// new → ready → completed → new (cíclico).
const (
	OrderStatusNew       = "new"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
)

// Tipos de orden.
const (
	OrderTypeDineIn   = "dine_in"
	OrderTypeDelivery = "delivery"
	OrderTypeTakeout  = "takeout"
)

// Order representa una orden del restaurante (comanda).
// La facturación nunca elimina órdenes: anular una venta afecta al
// comprobante (nota de crédito), no a la orden.
type Order struct {
	ID           string
	RestaurantID string
	CustomerName string
	Type         string // dine_in | delivery | takeout
	Status       string // new | ready | completed
	Number       int    // número de orden visible para el operador (opcional, 0 = sin asignar)
	Billed       bool   // marcada solo tras confirmación persistida de la emisión
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderItem es una línea de la orden.
type OrderItem struct {
	ID       string
	OrderID  string
	Name     string
	Quantity decimal.Decimal
	Price    decimal.Decimal // precio unitario, IVA incluido
	Prepared bool
}

// Subtotal devuelve price × quantity de la línea.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// NextStatus devuelve el siguiente estado del ciclo new→ready→completed→new.
func NextStatus(status string) string {
	switch status {
	case OrderStatusNew:
		return OrderStatusReady
	case OrderStatusReady:
		return OrderStatusCompleted
	default:
		return OrderStatusNew
	}
}

// ValidOrderType indica si el tipo de orden pertenece al catálogo.
func ValidOrderType(t string) bool {
	return t == OrderTypeDineIn || t == OrderTypeDelivery || t == OrderTypeTakeout
}
