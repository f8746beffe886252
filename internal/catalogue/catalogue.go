// Package catalogue holds the immutable intent catalogue: the ordered intent
// specs, the synonym table, the lemma table, and the reply templates driving
// the conversation flows. It is loaded once at startup and never mutated.
package catalogue

import (
	"fmt"
	"strings"
)

// Slot names an entity kind an intent flow may require.
const (
	SlotEmail   = "email"
	SlotOrderID = "order_id"
	SlotPhone   = "phone"
)

// IntentSpec describes one intent: its keyword patterns (matched against
// normalized text, so they must be in canonical post-synonym, post-lemma
// form), the entity slot its flow needs, and the reply templates.
type IntentSpec struct {
	Name string `toml:"name"`

	// Keywords are whole-word or whole-phrase patterns. List order is
	// preserved; declaration order across intents breaks score ties.
	Keywords []string `toml:"keywords"`

	// RequiredSlot, when set, makes the flow entity-sensitive: a turn that
	// carries the slot resolves immediately, otherwise Prompt is sent and
	// the conversation moves to collecting_info.
	RequiredSlot string `toml:"required_slot,omitempty"`

	// Prompt is the reply when the required slot is missing, or the fixed
	// reply for intents with no slot.
	Prompt string `toml:"prompt"`

	// PromptState is the conversation state entered alongside Prompt.
	PromptState string `toml:"prompt_state"`

	// Resolution is the reply when the required slot is present; the
	// {value} placeholder is substituted with the extracted entity.
	Resolution string `toml:"resolution,omitempty"`

	// Flow marks intents that advance a support flow and therefore count
	// toward a context's attempts. Small talk leaves attempts untouched.
	Flow bool `toml:"flow"`
}

// Synonym rewrites a surface form to its canonical form during
// normalization. Table order matters and is preserved.
type Synonym struct {
	Surface   string `toml:"surface"`
	Canonical string `toml:"canonical"`
}

// Catalogue is an immutable bundle of intents, synonyms and lemmas.
type Catalogue struct {
	intents     []IntentSpec
	synonyms    []Synonym
	lemmas      map[string]string
	byName      map[string]IntentSpec
	maxPatterns int
}

// New validates and freezes a catalogue.
func New(intents []IntentSpec, synonyms []Synonym, lemmas map[string]string) (*Catalogue, error) {
	if len(intents) == 0 {
		return nil, fmt.Errorf("catalogue requires at least one intent")
	}

	byName := make(map[string]IntentSpec, len(intents))
	maxPatterns := 0
	for i, spec := range intents {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("intent %d: name is required", i)
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("intent %q declared twice", name)
		}
		if len(spec.Keywords) == 0 {
			return nil, fmt.Errorf("intent %q: keywords are required", name)
		}
		for _, kw := range spec.Keywords {
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("intent %q: empty keyword", name)
			}
		}
		if strings.TrimSpace(spec.Prompt) == "" {
			return nil, fmt.Errorf("intent %q: prompt is required", name)
		}
		switch spec.RequiredSlot {
		case "", SlotEmail, SlotOrderID, SlotPhone:
		default:
			return nil, fmt.Errorf("intent %q: unknown slot %q", name, spec.RequiredSlot)
		}
		if spec.RequiredSlot != "" && strings.TrimSpace(spec.Resolution) == "" {
			return nil, fmt.Errorf("intent %q: resolution is required when a slot is", name)
		}
		byName[name] = spec
		if len(spec.Keywords) > maxPatterns {
			maxPatterns = len(spec.Keywords)
		}
	}

	for i, syn := range synonyms {
		if strings.TrimSpace(syn.Surface) == "" || strings.TrimSpace(syn.Canonical) == "" {
			return nil, fmt.Errorf("synonym %d: surface and canonical are required", i)
		}
	}

	frozen := make(map[string]string, len(lemmas))
	for form, base := range lemmas {
		frozen[form] = base
	}

	return &Catalogue{
		intents:     append([]IntentSpec(nil), intents...),
		synonyms:    append([]Synonym(nil), synonyms...),
		lemmas:      frozen,
		byName:      byName,
		maxPatterns: maxPatterns,
	}, nil
}

// Intents returns the specs in declaration order.
func (c *Catalogue) Intents() []IntentSpec {
	return append([]IntentSpec(nil), c.intents...)
}

// Spec looks an intent up by name.
func (c *Catalogue) Spec(name string) (IntentSpec, bool) {
	spec, ok := c.byName[name]
	return spec, ok
}

// Synonyms returns the ordered synonym table.
func (c *Catalogue) Synonyms() []Synonym {
	return append([]Synonym(nil), c.synonyms...)
}

// Lemma returns the dictionary base form for a token, if one is declared.
func (c *Catalogue) Lemma(token string) (string, bool) {
	base, ok := c.lemmas[token]
	return base, ok
}

// MaxPatternCount is the longest keyword list across all intents. The
// classifier divides the best match count by it before applying the clarify
// threshold, so the constant is derived rather than hardcoded.
func (c *Catalogue) MaxPatternCount() int {
	return c.maxPatterns
}
