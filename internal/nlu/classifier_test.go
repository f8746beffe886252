package nlu

import (
	"testing"

	"github.com/smartsupport-ai/supportline/internal/catalogue"
)

func TestClassifyKnownIntents(t *testing.T) {
	c := NewClassifier(catalogue.Default())

	tests := []struct {
		message       string
		wantIntent    string
		minConfidence float64
	}{
		{"hi", "greeting", 0.9},
		{"good morning!", "greeting", 0.9},
		{"I forgot my password, my email is a@b.com", "password_reset", 0.25},
		{"please reset my password", "password_reset", 0.4},
		{"track my order", "order_tracking", 0.4},
		{"where is my order", "order_tracking", 0.4},
		{"my order hasn't been delivered", "order_tracking", 0.4},
		{"the app crashed with an error", "technical_support", 0.4},
		{"it's not working", "technical_support", 0.4},
		{"I want a refund", "refund_request", 0.4},
		{"cancel order 98765, refund please", "refund_request", 0.9},
		{"I'd like to update my account", "account_update", 0.9},
		{"change my profile", "account_update", 0.9},
		{"what are the specs of this product", "product_info", 0.9},
		{"thank you", "goodbye", 0.4},
	}
	for _, tt := range tests {
		got := c.Classify(tt.message)
		if got.Intent != tt.wantIntent {
			t.Fatalf("Classify(%q).Intent = %q (conf %.2f), want %q",
				tt.message, got.Intent, got.Confidence, tt.wantIntent)
		}
		if got.Confidence < tt.minConfidence {
			t.Fatalf("Classify(%q).Confidence = %.2f, want >= %.2f",
				tt.message, got.Confidence, tt.minConfidence)
		}
		if got.Confidence > 1.0 {
			t.Fatalf("Classify(%q).Confidence = %.2f, want <= 1.0", tt.message, got.Confidence)
		}
		if len(got.MatchedPatterns) == 0 {
			t.Fatalf("Classify(%q).MatchedPatterns is empty", tt.message)
		}
		if got.Action != ActionStartFlow {
			t.Fatalf("Classify(%q).Action = %q, want %q", tt.message, got.Action, ActionStartFlow)
		}
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := NewClassifier(catalogue.Default())

	for _, message := range []string{"asdkjasdj nonsense", "", "the weather is nice today"} {
		got := c.Classify(message)
		if got.Intent != IntentUnknown {
			t.Fatalf("Classify(%q).Intent = %q, want %q", message, got.Intent, IntentUnknown)
		}
		if got.Confidence != 0.0 {
			t.Fatalf("Classify(%q).Confidence = %.2f, want 0.0", message, got.Confidence)
		}
		if len(got.MatchedPatterns) != 0 {
			t.Fatalf("Classify(%q).MatchedPatterns = %v, want empty", message, got.MatchedPatterns)
		}
		if got.Action != ActionClarify {
			t.Fatalf("Classify(%q).Action = %q, want %q", message, got.Action, ActionClarify)
		}
	}
}

func TestClassifyTieGoesToFirstDeclaredIntent(t *testing.T) {
	c := NewClassifier(catalogue.Default())

	// One keyword each for technical_support and account_update;
	// technical_support is declared first in the catalogue.
	got := c.Classify("update error")
	if got.Intent != "technical_support" {
		t.Fatalf("tie broke to %q, want technical_support", got.Intent)
	}
}

func TestClassifyMatchesWholeWordsOnly(t *testing.T) {
	c := NewClassifier(catalogue.Default())

	// "nonsense" contains "sense", "password" patterns must not match
	// inside longer words.
	got := c.Classify("passwords4less dot com")
	if got.Intent == "password_reset" {
		t.Fatalf("substring match should not classify as password_reset: %+v", got)
	}
}
