package nlu

import (
	"regexp"

	"github.com/smartsupport-ai/supportline/internal/catalogue"
)

// IntentUnknown is returned when no intent clears the clarify threshold.
const IntentUnknown = "unknown"

// Conversation action hints attached to a classification.
const (
	ActionClarify   = "clarify"
	ActionStartFlow = "start_flow"
)

// clarifyThreshold is applied to best-count / MaxPatternCount. Below it the
// match is considered noise and the turn is routed to clarification.
const clarifyThreshold = 0.3

// Result is the outcome of classifying one message.
type Result struct {
	Intent          string   `json:"intent"`
	Confidence      float64  `json:"confidence"`
	MatchedPatterns []string `json:"matched_patterns"`
	Action          string   `json:"conversation_action"`
}

type compiledIntent struct {
	spec     catalogue.IntentSpec
	patterns []*regexp.Regexp
}

// Classifier scores intents by keyword overlap on normalized text.
type Classifier struct {
	norm        *Normalizer
	intents     []compiledIntent
	maxPatterns int
}

func NewClassifier(cat *catalogue.Catalogue) *Classifier {
	specs := cat.Intents()
	intents := make([]compiledIntent, 0, len(specs))
	for _, spec := range specs {
		ci := compiledIntent{spec: spec}
		for _, kw := range spec.Keywords {
			ci.patterns = append(ci.patterns, wholeWordPattern(kw))
		}
		intents = append(intents, ci)
	}
	return &Classifier{
		norm:        NewNormalizer(cat),
		intents:     intents,
		maxPatterns: cat.MaxPatternCount(),
	}
}

// Normalize exposes the classifier's normalizer.
func (c *Classifier) Normalize(raw string) string {
	return c.norm.Normalize(raw)
}

// Classify picks the intent with the most whole-word keyword matches in the
// normalized text. Ties go to the intent declared first in the catalogue.
func (c *Classifier) Classify(raw string) Result {
	text := c.norm.Normalize(raw)

	bestCount := 0
	var best compiledIntent
	var bestMatched []string
	for _, ci := range c.intents {
		var matched []string
		for i, p := range ci.patterns {
			if p.MatchString(text) {
				matched = append(matched, ci.spec.Keywords[i])
			}
		}
		if len(matched) > bestCount {
			bestCount = len(matched)
			best = ci
			bestMatched = matched
		}
	}

	if bestCount == 0 || float64(bestCount)/float64(c.maxPatterns) < clarifyThreshold {
		return Result{
			Intent:          IntentUnknown,
			Confidence:      0.0,
			MatchedPatterns: []string{},
			Action:          ActionClarify,
		}
	}

	confidence := float64(bestCount) / float64(len(best.spec.Keywords))
	if confidence > 1.0 {
		confidence = 1.0
	}
	return Result{
		Intent:          best.spec.Name,
		Confidence:      confidence,
		MatchedPatterns: bestMatched,
		Action:          ActionStartFlow,
	}
}
