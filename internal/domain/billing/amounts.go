package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dcevallos/restopos-api/internal/domain/entity"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// OrderTotal suma price × quantity sobre las líneas de la orden.
// Los precios del menú ya incluyen IVA, así que este es el total a pagar.
func OrderTotal(items []entity.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Breakdown descompone un total con IVA incluido en subtotal e impuesto:
//
//	subtotal = total / (1 + tasa/100)
//	iva      = total − subtotal
//
// Redondeo a 2 decimales sobre el subtotal; el IVA se obtiene por diferencia
// para que subtotal + iva == total siempre cuadre al centavo.
func Breakdown(total, ratePct decimal.Decimal) (subtotal, tax decimal.Decimal, err error) {
	if ratePct.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("billing: tasa de IVA negativa: %s", ratePct)
	}
	if total.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("billing: total negativo: %s", total)
	}
	divisor := one.Add(ratePct.Div(hundred))
	subtotal = total.DivRound(divisor, 2)
	tax = total.Sub(subtotal)
	return subtotal, tax, nil
}
