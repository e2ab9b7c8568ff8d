// Package sri implementa el cliente HTTP hacia el servicio de facturación
// electrónica, que es quien arma el XML del comprobante, lo firma y dialoga
// con los web services del SRI. Este paquete traduce entidades de dominio al
// payload del servicio y el XML de respuesta del SRI al veredicto de dominio.
package sri

import "github.com/shopspring/decimal"

// invoicePayload cuerpo JSON para POST /api/v1/facturas.
type invoicePayload struct {
	ClaveAcceso string          `json:"clave_acceso"`
	Ambiente    string          `json:"ambiente"`
	Secuencial  string          `json:"secuencial"` // "001-001-000000123"
	Emisor      emisorPayload   `json:"emisor"`
	Comprador   compradorPayload `json:"comprador"`
	Detalles    []detallePayload `json:"detalles"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	IVA         decimal.Decimal `json:"iva"`
	TarifaIVA   decimal.Decimal `json:"tarifa_iva"`
	Total       decimal.Decimal `json:"total"`
}

// creditNotePayload cuerpo JSON para POST /api/v1/notas-credito.
type creditNotePayload struct {
	ClaveAcceso          string          `json:"clave_acceso"`
	Ambiente             string          `json:"ambiente"`
	Secuencial           string          `json:"secuencial"`
	Motivo               string          `json:"motivo"` // etiqueta normativa + descripción libre
	DocumentoModificado  string          `json:"documento_modificado"`   // número de la factura anulada
	FechaEmisionDocSustento string       `json:"fecha_emision_doc_sustento"`
	Emisor               emisorPayload   `json:"emisor"`
	Comprador            compradorPayload `json:"comprador"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	IVA                  decimal.Decimal `json:"iva"`
	TarifaIVA            decimal.Decimal `json:"tarifa_iva"`
	Total                decimal.Decimal `json:"total"`
}

type emisorPayload struct {
	RUC             string `json:"ruc"`
	RazonSocial     string `json:"razon_social"`
	NombreComercial string `json:"nombre_comercial,omitempty"`
	Direccion       string `json:"direccion"`
	Regimen         string `json:"regimen,omitempty"`
	Establecimiento string `json:"establecimiento"`
	PuntoEmision    string `json:"punto_emision"`
}

type compradorPayload struct {
	Identificacion string `json:"identificacion"`
	RazonSocial    string `json:"razon_social"`
	Direccion      string `json:"direccion,omitempty"`
	Email          string `json:"email,omitempty"`
}

type detallePayload struct {
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}
