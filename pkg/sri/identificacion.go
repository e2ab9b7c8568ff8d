package sri

import (
	"fmt"
	"strconv"
	"unicode"
)

// pesos para el dígito verificador del RUC de sociedades (módulo 11, SRI).
// Se aplican a los 9 primeros dígitos, de izquierda a derecha.
var rucSociedadWeights = [9]int{4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateIdentification valida una identificación de cliente ecuatoriana:
// cédula (10 dígitos, módulo 10), RUC (13 dígitos) o el sentinela de
// consumidor final. Se aceptan separadores tipo punto o guión.
func ValidateIdentification(identification string) error {
	digits := extractDigits(identification)
	if string(digits) == FinalConsumerID {
		return nil
	}
	switch len(digits) {
	case 10:
		return validateCedula(digits)
	case 13:
		if string(digits[10:]) != "001" {
			return fmt.Errorf("sri: RUC debe terminar en 001")
		}
		// El tercer dígito distingue persona natural (<6), pública (6) y sociedad (9)
		switch digits[2] {
		case '9':
			return validateRUCSociedad(digits)
		case '6':
			// Sector público: módulo 11 con otro juego de pesos; se acepta sin
			// verificar dígito (los emisores de este sistema son privados).
			return nil
		default:
			return validateCedula(digits[:10])
		}
	default:
		return fmt.Errorf("sri: identificación debe tener 10 (cédula) o 13 (RUC) dígitos, se encontraron %d", len(digits))
	}
}

// validateCedula aplica el algoritmo módulo 10 del Registro Civil:
// coeficientes 2,1,2,1... sobre los 9 primeros dígitos, restando 9 a los
// productos mayores a 9.
func validateCedula(digits []byte) error {
	province, _ := strconv.Atoi(string(digits[:2]))
	if province < 1 || province > 24 {
		return fmt.Errorf("sri: código de provincia inválido en la cédula: %02d", province)
	}
	var sum int
	for i := 0; i < 9; i++ {
		p := int(digits[i] - '0')
		if i%2 == 0 {
			p *= 2
			if p > 9 {
				p -= 9
			}
		}
		sum += p
	}
	expected := (10 - sum%10) % 10
	if int(digits[9]-'0') != expected {
		return fmt.Errorf("sri: dígito verificador de la cédula inválido: esperado %d, recibido %c", expected, digits[9])
	}
	return nil
}

// validateRUCSociedad valida el dígito verificador del RUC de sociedades
// privadas (módulo 11 sobre los 9 primeros dígitos, verificador en el décimo).
func validateRUCSociedad(digits []byte) error {
	var sum int
	for i, w := range rucSociedadWeights {
		sum += int(digits[i]-'0') * w
	}
	remainder := sum % 11
	expected := 0
	if remainder != 0 {
		expected = 11 - remainder
	}
	if expected == 10 {
		return fmt.Errorf("sri: RUC con dígito verificador imposible")
	}
	if int(digits[9]-'0') != expected {
		return fmt.Errorf("sri: dígito verificador del RUC inválido: esperado %d, recibido %c", expected, digits[9])
	}
	return nil
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
