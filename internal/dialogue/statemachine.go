package dialogue

import (
	"strings"

	"github.com/smartsupport-ai/supportline/internal/catalogue"
)

// clarifyReply is the generic response for intents the catalogue does not
// know, which should not normally be reached: unknown classifications are
// routed to the fallback before the state machine runs.
const clarifyReply = "Hmm, I didn't quite get that. Could you rephrase your request?"

// StateMachine turns an intent and its extracted entities into the next
// reply and conversation state, driven by the catalogue's flow table.
type StateMachine struct {
	cat *catalogue.Catalogue
}

func NewStateMachine(cat *catalogue.Catalogue) *StateMachine {
	return &StateMachine{cat: cat}
}

// Advance applies the transition policy for one turn. Entity-sensitive
// flows resolve immediately when their required slot is present; otherwise
// the flow prompts for it and moves to collecting_info. Small-talk intents
// reply with their fixed line and their declared state.
func (m *StateMachine) Advance(intent string, entities map[string]string) (string, State) {
	spec, ok := m.cat.Spec(intent)
	if !ok {
		return clarifyReply, StateInitial
	}

	if spec.RequiredSlot != "" {
		if value, present := entities[spec.RequiredSlot]; present {
			return renderResolution(spec.Resolution, value), StateResolved
		}
	}
	return spec.Prompt, ParseState(spec.PromptState)
}

// Flow reports whether an intent counts toward a context's attempts.
func (m *StateMachine) Flow(intent string) bool {
	spec, ok := m.cat.Spec(intent)
	return ok && spec.Flow
}

func renderResolution(template, value string) string {
	return strings.ReplaceAll(template, "{value}", value)
}
