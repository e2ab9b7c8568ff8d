package sri_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcevallos/restopos-api/pkg/sri"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestBuildAccessKey valida que la construcción de la clave de acceso produce
// exactamente los 49 dígitos esperados para parámetros conocidos.
//
// Este test es el "canario en la mina" de la integración SRI: si alguien
// modifica inadvertidamente el orden de concatenación, el formato de fecha o
// el algoritmo módulo 11, el test falla de inmediato.
//
// Vector de referencia calculado a mano:
//
//	base = "12072025" + "01" + "1790016919001" + "2" + "001" + "001" +
//	       "000000123" + "12345678" + "1"   (48 dígitos)
//	dv   = 7
// ──────────────────────────────────────────────────────────────────────────────

const (
	testRUC           = "1790016919001"
	testClaveEsperada = "1207202501179001691900120010010000001231234567817"
)

func buildTestParams() sri.AccessKeyParams {
	return sri.AccessKeyParams{
		IssuedAt:      time.Date(2025, time.July, 12, 10, 30, 0, 0, time.UTC),
		DocType:       sri.DocTypeFactura,
		RUC:           testRUC,
		Environment:   sri.EnvironmentPruebas,
		Establishment: "001",
		EmissionPoint: "001",
		Sequence:      123,
		NumericCode:   "12345678",
	}
}

func TestBuildAccessKey_VectorExacto(t *testing.T) {
	key, err := sri.BuildAccessKey(buildTestParams())
	require.NoError(t, err, "BuildAccessKey no debe retornar error con parámetros válidos")
	assert.Equal(t, testClaveEsperada, key,
		"la clave de acceso debe coincidir exactamente con el vector de referencia")
	assert.Len(t, key, 49, "la clave de acceso debe tener 49 dígitos")
}

// TestBuildAccessKey_AmbienteAfectaClave verifica que producción ("1") y
// pruebas ("2") producen claves distintas con dígito verificador propio.
func TestBuildAccessKey_AmbienteAfectaClave(t *testing.T) {
	pProd := buildTestParams()
	pProd.Environment = sri.EnvironmentProduccion

	keyPruebas, err := sri.BuildAccessKey(buildTestParams())
	require.NoError(t, err)
	keyProd, err := sri.BuildAccessKey(pProd)
	require.NoError(t, err)

	assert.NotEqual(t, keyPruebas, keyProd,
		"las claves de ambiente pruebas y producción deben ser distintas")
	assert.Equal(t, "1207202501179001691900110010010000001231234567819", keyProd)
}

// TestBuildAccessKey_NotaCredito valida el vector de una nota de crédito (tipo 04).
func TestBuildAccessKey_NotaCredito(t *testing.T) {
	p := sri.AccessKeyParams{
		IssuedAt:      time.Date(2025, time.August, 15, 9, 0, 0, 0, time.UTC),
		DocType:       sri.DocTypeNotaCredito,
		RUC:           testRUC,
		Environment:   sri.EnvironmentPruebas,
		Establishment: "001",
		EmissionPoint: "001",
		Sequence:      45,
		NumericCode:   "87654321",
	}
	key, err := sri.BuildAccessKey(p)
	require.NoError(t, err)
	assert.Equal(t, "1508202504179001691900120010010000000458765432118", key)
}

// TestBuildAccessKey_Determinista verifica que el mismo input siempre produce
// la misma clave (no hay aleatoriedad escondida).
func TestBuildAccessKey_Determinista(t *testing.T) {
	k1, err1 := sri.BuildAccessKey(buildTestParams())
	k2, err2 := sri.BuildAccessKey(buildTestParams())
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, k1, k2)
}

func TestValidateAccessKey_ClaveValida(t *testing.T) {
	assert.NoError(t, sri.ValidateAccessKey(testClaveEsperada))
}

// TestValidateAccessKey_DigitoAlterado verifica que mutar un solo dígito
// invalida la clave (sensibilidad del módulo 11).
func TestValidateAccessKey_DigitoAlterado(t *testing.T) {
	mutada := []byte(testClaveEsperada)
	if mutada[10] == '9' {
		mutada[10] = '0'
	} else {
		mutada[10]++
	}
	assert.Error(t, sri.ValidateAccessKey(string(mutada)),
		"una clave con un dígito alterado debe fallar la validación")
}

func TestValidateAccessKey_LongitudIncorrecta(t *testing.T) {
	assert.Error(t, sri.ValidateAccessKey(testClaveEsperada[:48]))
	assert.Error(t, sri.ValidateAccessKey(testClaveEsperada+"0"))
}

// ── Errores de construcción ───────────────────────────────────────────────────

func TestBuildAccessKey_ErrorSiRUCInvalido(t *testing.T) {
	p := buildTestParams()
	p.RUC = "123"
	_, err := sri.BuildAccessKey(p)
	assert.Error(t, err, "BuildAccessKey con RUC corto debe retornar error")
}

func TestBuildAccessKey_ErrorSiAmbienteInvalido(t *testing.T) {
	p := buildTestParams()
	p.Environment = "3"
	_, err := sri.BuildAccessKey(p)
	assert.Error(t, err)
}

func TestBuildAccessKey_ErrorSiSecuencialFueraDeRango(t *testing.T) {
	p := buildTestParams()
	p.Sequence = 0
	_, err := sri.BuildAccessKey(p)
	assert.Error(t, err)

	p.Sequence = 1_000_000_000
	_, err = sri.BuildAccessKey(p)
	assert.Error(t, err)
}

func TestBuildAccessKey_ErrorSiCodigoNumericoCorto(t *testing.T) {
	p := buildTestParams()
	p.NumericCode = "1234"
	_, err := sri.BuildAccessKey(p)
	assert.Error(t, err)
}
