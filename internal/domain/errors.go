package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// Facturación
	ErrIssuanceInFlight    = errors.New("ya hay una emisión en curso para esta orden")
	ErrOrderAlreadyBilled  = errors.New("la orden ya fue facturada")
	ErrBillNotAuthorized   = errors.New("el comprobante no está autorizado por el SRI")
	ErrBillAlreadyCanceled = errors.New("el comprobante ya tiene nota de crédito")
	ErrFinalConsumerCancel = errors.New("no se puede anular una venta a consumidor final")
	ErrWrongConfirmation   = errors.New("frase de confirmación incorrecta")
)
