package sri

import (
	"fmt"
	"time"
)

// La clave de acceso es el identificador único de 49 dígitos de todo
// comprobante electrónico SRI:
//
//	fecha emisión (8, ddmmaaaa) + tipo comprobante (2) + RUC (13) +
//	ambiente (1) + serie (6, estab+ptoEmi) + secuencial (9) +
//	código numérico (8) + tipo emisión (1) + dígito verificador (1, módulo 11)
//
// El SRI la devuelve en la autorización, pero el emisor debe poder validarla
// y reconstruirla para el RIDE y para consultas de estado.

// EmissionNormal es el único tipo de emisión soportado (emisión normal en línea).
const EmissionNormal = "1"

// AccessKeyParams parámetros para construir una clave de acceso.
type AccessKeyParams struct {
	IssuedAt      time.Time
	DocType       string // Tabla 3: "01" factura, "04" nota de crédito...
	RUC           string // 13 dígitos
	Environment   string // "1" producción, "2" pruebas
	Establishment string // 3 dígitos
	EmissionPoint string // 3 dígitos
	Sequence      int64  // secuencial 1..999999999
	NumericCode   string // 8 dígitos elegidos por el emisor
}

// BuildAccessKey arma la clave de 49 dígitos incluyendo el dígito verificador.
func BuildAccessKey(p AccessKeyParams) (string, error) {
	if p.RUC == "" || len(extractDigits(p.RUC)) != 13 {
		return "", fmt.Errorf("sri: RUC de 13 dígitos requerido para la clave de acceso")
	}
	if p.Environment != EnvironmentPruebas && p.Environment != EnvironmentProduccion {
		return "", fmt.Errorf("sri: ambiente inválido %q (usar \"1\" o \"2\")", p.Environment)
	}
	if p.Sequence < 1 || p.Sequence > 999_999_999 {
		return "", fmt.Errorf("sri: secuencial fuera de rango: %d", p.Sequence)
	}
	if len(p.NumericCode) != 8 {
		return "", fmt.Errorf("sri: código numérico debe tener 8 dígitos, se encontraron %d", len(p.NumericCode))
	}
	base := fmt.Sprintf("%s%s%s%s%03s%03s%09d%s%s",
		p.IssuedAt.Format("02012006"),
		p.DocType,
		string(extractDigits(p.RUC)),
		p.Environment,
		p.Establishment,
		p.EmissionPoint,
		p.Sequence,
		p.NumericCode,
		EmissionNormal,
	)
	if len(base) != 48 {
		return "", fmt.Errorf("sri: clave de acceso base con longitud %d, se esperaban 48 dígitos", len(base))
	}
	dv, err := ComputeAccessKeyCheckDigit(base)
	if err != nil {
		return "", err
	}
	return base + string(dv), nil
}

// ComputeAccessKeyCheckDigit calcula el dígito verificador módulo 11 sobre los
// 48 primeros dígitos: pesos 2..7 cíclicos de derecha a izquierda;
// 11 - (suma mod 11), con 11→0 y 10→1.
func ComputeAccessKeyCheckDigit(base string) (byte, error) {
	if len(base) != 48 {
		return 0, fmt.Errorf("sri: se requieren 48 dígitos para el verificador, se encontraron %d", len(base))
	}
	var sum, weight int
	weight = 2
	for i := len(base) - 1; i >= 0; i-- {
		c := base[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("sri: carácter no numérico %q en la clave de acceso", c)
		}
		sum += int(c-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}
	dv := 11 - (sum % 11)
	switch dv {
	case 11:
		dv = 0
	case 10:
		dv = 1
	}
	return byte('0' + dv), nil
}

// ValidateAccessKey valida longitud y dígito verificador de una clave de acceso.
func ValidateAccessKey(key string) error {
	if len(key) != 49 {
		return fmt.Errorf("sri: la clave de acceso debe tener 49 dígitos, se encontraron %d", len(key))
	}
	expected, err := ComputeAccessKeyCheckDigit(key[:48])
	if err != nil {
		return err
	}
	if key[48] != expected {
		return fmt.Errorf("sri: dígito verificador de la clave de acceso inválido: esperado %c, recibido %c", expected, key[48])
	}
	return nil
}
