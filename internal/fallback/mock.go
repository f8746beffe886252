package fallback

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartsupport-ai/supportline/internal/dialogue"
)

// MockResponder provides deterministic local replies when no external
// responder is configured. Useful in tests and key-less development.
type MockResponder struct{}

func NewMockResponder() *MockResponder { return &MockResponder{} }

func (r *MockResponder) Respond(ctx context.Context, message string, history []dialogue.TurnRecord) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	base := strings.TrimSpace(message)
	if base == "" {
		return "I'm listening. What can I help you with?", nil
	}
	if len(history) == 0 {
		return fmt.Sprintf("I heard you: %s. Could you tell me a bit more about what you need?", base), nil
	}
	return fmt.Sprintf("I heard you: %s. Let's keep going from where we left off.", base), nil
}
