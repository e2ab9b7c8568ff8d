package dto

// BrandColorsDTO colores de marca. Punteros para distinguir "no enviado" de
// "vacío" en el merge parcial.
type BrandColorsDTO struct {
	Primary   *string `json:"primary,omitempty"`
	Secondary *string `json:"secondary,omitempty"`
	Accent    *string `json:"accent,omitempty"`
}

// BillingConfigDTO configuración fiscal. Mismos semánticos de merge parcial.
type BillingConfigDTO struct {
	RUC             *string `json:"ruc,omitempty"`
	RazonSocial     *string `json:"razon_social,omitempty"`
	NombreComercial *string `json:"nombre_comercial,omitempty"`
	Direccion       *string `json:"direccion,omitempty"`
	Email           *string `json:"email,omitempty"`
	Regime          *string `json:"regime,omitempty"`
	Environment     *string `json:"environment,omitempty"`
	Establishment   *string `json:"establishment,omitempty"`
	EmissionPoint   *string `json:"emission_point,omitempty"`
}

// UpdateSettingsRequest body para PUT /api/settings.
// Los sub-objetos se fusionan campo a campo, nunca se reemplazan completos.
// Los secuenciales NO son actualizables por esta vía: avanzan solo en la
// transacción de emisión.
type UpdateSettingsRequest struct {
	Name    *string           `json:"name,omitempty"`
	Colors  *BrandColorsDTO   `json:"colors,omitempty"`
	Billing *BillingConfigDTO `json:"billing,omitempty"`
}

// SettingsResponse configuración completa del restaurante.
type SettingsResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Colors struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
		Accent    string `json:"accent"`
	} `json:"colors"`
	Billing struct {
		RUC             string `json:"ruc"`
		RazonSocial     string `json:"razon_social"`
		NombreComercial string `json:"nombre_comercial"`
		Direccion       string `json:"direccion"`
		Email           string `json:"email"`
		Regime          string `json:"regime"`
		Environment     string `json:"environment"`
		Establishment   string `json:"establishment"`
		EmissionPoint   string `json:"emission_point"`
		// NextInvoiceNumber es una estimación para mostrar (actual + 1);
		// el número real lo asigna la transacción de emisión.
		NextInvoiceNumber    string `json:"next_invoice_number"`
		NextCreditNoteNumber string `json:"next_credit_note_number"`
	} `json:"billing"`
	// Stale indica que la configuración proviene del último snapshot bueno
	// conocido porque la lectura fresca falló.
	Stale bool `json:"stale,omitempty"`
}
