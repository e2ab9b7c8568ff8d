// Package sri contiene catálogos y validaciones alineados a la Ficha Técnica
// de Comprobantes Electrónicos del SRI (Ecuador) v2.21.
package sri

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Tabla 3 - Tipo de Comprobante
// =============================================================================

const (
	DocTypeFactura       = "01" // Factura
	DocTypeNotaCredito   = "04" // Nota de crédito
	DocTypeNotaDebito    = "05" // Nota de débito
	DocTypeGuiaRemision  = "06" // Guía de remisión
	DocTypeComprobanteRetencion = "07" // Comprobante de retención
)

// =============================================================================
// Tabla 4 - Ambiente
// =============================================================================

const (
	EnvironmentPruebas    = "2" // Ambiente de pruebas
	EnvironmentProduccion = "1" // Ambiente de producción
)

// =============================================================================
// Estados de autorización devueltos por el SRI
// =============================================================================

const (
	EstadoEnProceso    = "EN PROCESO"    // Creado localmente, aún sin veredicto del SRI
	EstadoRecibida     = "RECIBIDA"      // El SRI recibió el comprobante; autorización pendiente
	EstadoAutorizado   = "AUTORIZADO"    // Comprobante autorizado
	EstadoNoAutorizado = "NO AUTORIZADO" // Rechazado tras revisión
	EstadoDevuelta     = "DEVUELTA"      // Devuelto en recepción (error de estructura/firma)
	EstadoCancelada    = "CANCELADA"     // Anulado mediante nota de crédito
)

// =============================================================================
// Consumidor final (ventas anónimas de bajo valor)
// =============================================================================

// FinalConsumerID es la identificación sentinela de "CONSUMIDOR FINAL".
const FinalConsumerID = "9999999999999"

// FinalConsumerMaxTotal es el monto máximo permitido sin advertencia para
// ventas a consumidor final (USD). Por encima se exige confirmación del operador.
var FinalConsumerMaxTotal = decimal.NewFromInt(50)

// IsFinalConsumer indica si la identificación corresponde al consumidor final.
func IsFinalConsumer(identification string) bool {
	return strings.TrimSpace(identification) == FinalConsumerID
}

// =============================================================================
// Motivos de nota de crédito (códigos del regulador)
// =============================================================================

// CreditNoteReasons mapea el código de motivo a su etiqueta normativa.
// La descripción libre del operador se anexa a la etiqueta, nunca la reemplaza.
var CreditNoteReasons = map[string]string{
	"01": "Devolución de producto",
	"02": "Error en datos del cliente",
	"03": "Error en valores facturados",
	"04": "Anulación de la transacción",
	"05": "Descuento posterior a la emisión",
	"06": "Servicio no prestado",
	"07": "Otros",
}

// ValidateCreditNoteReason verifica que el código de motivo exista en el catálogo.
func ValidateCreditNoteReason(code string) error {
	if _, ok := CreditNoteReasons[code]; !ok {
		return fmt.Errorf("sri: motivo de nota de crédito inválido %q (usar 01..07)", code)
	}
	return nil
}

// CreditNoteReasonText devuelve la etiqueta normativa con la descripción libre
// anexada si existe: "Devolución de producto - plato equivocado".
func CreditNoteReasonText(code, customDescription string) string {
	label := CreditNoteReasons[code]
	desc := strings.TrimSpace(customDescription)
	if desc == "" {
		return label
	}
	return label + " - " + desc
}

// =============================================================================
// Número de documento: establecimiento-puntoEmisión-secuencial
// =============================================================================

// FormatDocumentNumber arma el número de comprobante "001-001-000000123".
func FormatDocumentNumber(establishment, emissionPoint string, sequence int64) string {
	return fmt.Sprintf("%03s-%03s-%09d", establishment, emissionPoint, sequence)
}

var docNumberRe = regexp.MustCompile(`^(\d{3})-(\d{3})-(\d{9})$`)

// ParseDocumentNumber descompone "001-001-000000123" en sus tres partes.
func ParseDocumentNumber(number string) (establishment, emissionPoint, sequence string, err error) {
	m := docNumberRe.FindStringSubmatch(strings.TrimSpace(number))
	if m == nil {
		return "", "", "", fmt.Errorf("sri: número de comprobante inválido %q (formato 001-001-000000123)", number)
	}
	return m[1], m[2], m[3], nil
}

// =============================================================================
// Email (advertencia de entrega del RIDE por correo)
// =============================================================================

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidEmail valida el formato mínimo de un correo para envío del comprobante.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}
