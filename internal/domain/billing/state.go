// Package billing contiene las reglas de dominio de la emisión electrónica:
// la máquina de estados del ciclo de autorización SRI y la derivación de
// montos (subtotal/IVA) a partir del total de la orden.
package billing

import "fmt"

// State es el estado del ciclo de emisión de un comprobante.
//
// El ciclo avanza estrictamente hacia adelante:
//
//	IDLE → VALIDATING → GENERATING → SIGNING → SENDING → WAITING_AUTHORIZATION
//	                                                        ├─→ AUTHORIZED (terminal)
//	                                                        └─→ PENDING ──→ WAITING_AUTHORIZATION (re-consulta)
//
// Cualquier estado de procesamiento puede caer a ERROR. AUTHORIZED y ERROR son
// terminales sin salidas. La máquina nunca transiciona sola: cada avance lo
// provoca una respuesta externa (el timeout pertenece al transporte).
type State string

const (
	StateIdle                 State = "IDLE"
	StateValidating           State = "VALIDATING"
	StateGenerating           State = "GENERATING"
	StateSigning              State = "SIGNING"
	StateSending              State = "SENDING"
	StateWaitingAuthorization State = "WAITING_AUTHORIZATION"
	StateAuthorized           State = "AUTHORIZED" // terminal éxito
	StatePending              State = "PENDING"    // terminal recuperable: el SRI recibió pero no confirmó
	StateError                State = "ERROR"      // terminal fallo
)

// transitions define las aristas válidas de la máquina. Lo que no está aquí
// no existe: un avance fuera de tabla es un error de programación que se
// reporta, nunca se aplica.
var transitions = map[State][]State{
	StateIdle:                 {StateValidating},
	StateValidating:           {StateGenerating, StateError},
	StateGenerating:           {StateSigning, StateError},
	StateSigning:              {StateSending, StateError},
	StateSending:              {StateWaitingAuthorization, StateError},
	StateWaitingAuthorization: {StateAuthorized, StatePending, StateError},
	StatePending:              {StateWaitingAuthorization},
	StateAuthorized:           nil,
	StateError:                nil,
}

// IsProcessing indica si el estado pertenece a la cadena de procesamiento
// (entre VALIDATING y WAITING_AUTHORIZATION). El front-end bloquea el cierre
// del modal mientras IsProcessing sea verdadero.
func (s State) IsProcessing() bool {
	switch s {
	case StateValidating, StateGenerating, StateSigning, StateSending, StateWaitingAuthorization:
		return true
	}
	return false
}

// IsTerminal indica si el estado no admite más avances automáticos.
// PENDING cuenta como terminal: solo la re-consulta explícita lo reabre.
func (s State) IsTerminal() bool {
	return s == StateAuthorized || s == StateError || s == StatePending
}

// CanTransition consulta la tabla de transiciones.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Tracker guarda el estado de una emisión en curso y rechaza transiciones
// inválidas (ej. ERROR después de AUTHORIZED es inalcanzable).
type Tracker struct {
	state State
}

// NewTracker arranca en IDLE.
func NewTracker() *Tracker {
	return &Tracker{state: StateIdle}
}

// ResumeTracker retoma una máquina en un estado conocido (ej. PENDING al
// re-consultar una autorización diferida).
func ResumeTracker(s State) *Tracker {
	return &Tracker{state: s}
}

// State devuelve el estado actual.
func (t *Tracker) State() State {
	return t.state
}

// Advance mueve la máquina a `to` o retorna error si la arista no existe.
func (t *Tracker) Advance(to State) error {
	if !t.state.CanTransition(to) {
		return fmt.Errorf("billing: transición inválida %s → %s", t.state, to)
	}
	t.state = to
	return nil
}

// Fail lleva la máquina a ERROR desde cualquier estado de procesamiento.
func (t *Tracker) Fail() error {
	return t.Advance(StateError)
}
