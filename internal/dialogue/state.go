// Package dialogue implements the per-client conversation machinery: the
// conversation context, the intent-keyed state machine, and the engine that
// composes classification, entity extraction, and the fallback responder
// into one turn.
package dialogue

import "strings"

// State is a conversation state. The string value is the persisted form.
type State string

const (
	StateInitial        State = "initial"
	StateCollectingInfo State = "collecting_info"
	StateConfirming     State = "confirming"
	StateProcessing     State = "processing"
	StateResolved       State = "resolved"
	StateEscalated      State = "escalated"
)

var stateNames = map[string]State{
	// String values.
	"initial":         StateInitial,
	"collecting_info": StateCollectingInfo,
	"confirming":      StateConfirming,
	"processing":      StateProcessing,
	"resolved":        StateResolved,
	"escalated":       StateEscalated,
	// Declared constant names, accepted for forward compatibility with
	// stores written by other readers of the format.
	"INITIAL":         StateInitial,
	"COLLECTING_INFO": StateCollectingInfo,
	"CONFIRMING":      StateConfirming,
	"PROCESSING":      StateProcessing,
	"RESOLVED":        StateResolved,
	"ESCALATED":       StateEscalated,
}

// ParseState maps a persisted state string back to a State. Unknown or
// empty input defaults to StateInitial rather than failing the restore.
func ParseState(s string) State {
	if state, ok := stateNames[strings.TrimSpace(s)]; ok {
		return state
	}
	return StateInitial
}

func (s State) String() string { return string(s) }
