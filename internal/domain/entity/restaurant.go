package entity

import "time"

// Restaurant es el agregado de configuración del negocio: identidad fiscal,
// colores de marca y contadores de secuencia. Se muta solo a través de
// operaciones explícitas de actualización o reinicio; los contadores avanzan
// únicamente dentro de la transacción de emisión.
type Restaurant struct {
	ID        string
	Name      string
	Status    string // active, suspended, inactive
	Colors    BrandColors
	Billing   BillingConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BrandColors colores de marca usados por el front-end (se actualizan por merge parcial).
type BrandColors struct {
	Primary   string
	Secondary string
	Accent    string
}

// BillingConfig identidad fiscal y contadores de secuencia SRI.
type BillingConfig struct {
	RUC            string
	RazonSocial    string
	NombreComercial string
	Direccion      string
	Email          string // correo fiscal para notificaciones SRI
	Regime         string // ej. "RIMPE", "GENERAL"
	Environment    string // "1" producción, "2" pruebas
	Establishment  string // "001"
	EmissionPoint  string // "001"

	// Últimos secuenciales emitidos. El "próximo número" mostrado al operador
	// es solo una estimación (actual + 1); el avance real ocurre en la
	// transacción de emisión.
	InvoiceSequence    int64
	CreditNoteSequence int64
}
