package catalogue

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type fileFormat struct {
	Intents  []IntentSpec      `toml:"intent"`
	Synonyms []Synonym         `toml:"synonym"`
	Lemmas   map[string]string `toml:"lemmas"`
}

// LoadFile reads a catalogue override from a TOML file. Sections that are
// omitted fall back to the built-in tables, so a file may override only the
// intents while keeping the default synonyms and lemmas.
func LoadFile(path string) (*Catalogue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue file: %w", err)
	}

	var ff fileFormat
	if err := toml.Unmarshal(raw, &ff); err != nil {
		return nil, fmt.Errorf("parse catalogue file %s: %w", path, err)
	}

	intents := ff.Intents
	if len(intents) == 0 {
		intents = defaultIntents()
	}
	synonyms := ff.Synonyms
	if len(synonyms) == 0 {
		synonyms = defaultSynonyms()
	}
	lemmas := ff.Lemmas
	if len(lemmas) == 0 {
		lemmas = defaultLemmas()
	}

	cat, err := New(intents, synonyms, lemmas)
	if err != nil {
		return nil, fmt.Errorf("invalid catalogue file %s: %w", path, err)
	}
	return cat, nil
}

// Load returns the catalogue from path when set, otherwise the built-in one.
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
