package nlu

import (
	"regexp"

	"github.com/smartsupport-ai/supportline/internal/catalogue"
)

// Entity patterns run against the raw message, never the normalized form,
// because emails and numeric ids must keep their original casing and shape.
var (
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	orderIDPattern = regexp.MustCompile(`\b\d{5,}\b`)
	phonePattern   = regexp.MustCompile(`\b\d{10}\b`)
)

// slotGates maps each slot to the intents it applies to.
var slotGates = map[string][]string{
	catalogue.SlotEmail:   {"password_reset", "account_update"},
	catalogue.SlotOrderID: {"order_tracking", "refund_request"},
	catalogue.SlotPhone:   {"account_update"},
}

var slotPatterns = map[string]*regexp.Regexp{
	catalogue.SlotEmail:   emailPattern,
	catalogue.SlotOrderID: orderIDPattern,
	catalogue.SlotPhone:   phonePattern,
}

// ExtractEntities applies the intent-gated patterns to the raw message.
// Each slot yields at most the first occurrence; an absent slot is simply
// omitted. Stateless and idempotent.
func ExtractEntities(raw, intent string) map[string]string {
	entities := make(map[string]string)
	for _, slot := range []string{catalogue.SlotEmail, catalogue.SlotOrderID, catalogue.SlotPhone} {
		if !intentGated(slot, intent) {
			continue
		}
		if match := slotPatterns[slot].FindString(raw); match != "" {
			entities[slot] = match
		}
	}
	return entities
}

func intentGated(slot, intent string) bool {
	for _, name := range slotGates[slot] {
		if name == intent {
			return true
		}
	}
	return false
}
