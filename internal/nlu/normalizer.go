// Package nlu implements the deterministic language layer: lexical
// normalization, keyword intent classification, and intent-gated entity
// extraction. Everything here is a pure function of the input text and the
// catalogue; there are no external calls.
package nlu

import (
	"regexp"
	"strings"

	"github.com/smartsupport-ai/supportline/internal/catalogue"
)

type synonymRule struct {
	pattern   *regexp.Regexp
	canonical string
}

// Normalizer lower-cases input, applies the ordered synonym table, and
// lemmatizes tokens to their dictionary base form.
type Normalizer struct {
	rules []synonymRule
	cat   *catalogue.Catalogue
}

func NewNormalizer(cat *catalogue.Catalogue) *Normalizer {
	syns := cat.Synonyms()
	rules := make([]synonymRule, 0, len(syns))
	for _, s := range syns {
		rules = append(rules, synonymRule{
			pattern:   wholeWordPattern(s.Surface),
			canonical: s.Canonical,
		})
	}
	return &Normalizer{rules: rules, cat: cat}
}

// Normalize is pure and idempotent on already-canonical text.
func (n *Normalizer) Normalize(raw string) string {
	text := strings.ToLower(raw)
	for _, rule := range n.rules {
		text = rule.pattern.ReplaceAllString(text, rule.canonical)
	}
	return n.lemmatize(text)
}

func (n *Normalizer) lemmatize(text string) string {
	fields := strings.Fields(text)
	for i, field := range fields {
		prefix, core, suffix := splitToken(field)
		if core == "" {
			continue
		}
		if base, ok := n.cat.Lemma(core); ok {
			fields[i] = prefix + base + suffix
			continue
		}
		if stripped, ok := stripPlural(core); ok {
			fields[i] = prefix + stripped + suffix
		}
	}
	return strings.Join(fields, " ")
}

// splitToken peels leading/trailing punctuation off a whitespace token so the
// lemma lookup sees the bare word.
func splitToken(tok string) (prefix, core, suffix string) {
	start := 0
	for start < len(tok) && !isWordByte(tok[start]) {
		start++
	}
	end := len(tok)
	for end > start && !isWordByte(tok[end-1]) {
		end--
	}
	return tok[:start], tok[start:end], tok[end:]
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// stripPlural removes a trailing "s" from plain plurals. Words ending in
// "ss" or "us" are left alone so forms like "address" and "status" survive.
func stripPlural(word string) (string, bool) {
	if len(word) <= 3 || !strings.HasSuffix(word, "s") {
		return word, false
	}
	if strings.HasSuffix(word, "ss") || strings.HasSuffix(word, "us") {
		return word, false
	}
	// Contractions and possessives ("what's", "client's") are not plurals.
	if !isWordByte(word[len(word)-2]) {
		return word, false
	}
	return word[:len(word)-1], true
}

func wholeWordPattern(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(phrase)) + `\b`)
}
