// Package fallback provides the external best-effort responder consulted
// when local classification is not confident. Adapters are selected by
// mode; the engine treats every failure as non-fatal.
package fallback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smartsupport-ai/supportline/internal/dialogue"
)

// Config controls responder construction.
type Config struct {
	Mode   string
	APIKey string
	Model  string
}

// NewResponder builds the responder for the configured mode.
//
// "auto" picks OpenAI when an API key is configured and otherwise the
// deterministic mock, so local development works without credentials.
func NewResponder(cfg Config) (dialogue.Responder, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAIResponder(cfg.APIKey, cfg.Model), nil
		}
		return NewMockResponder(), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("an API key is required for openai fallback mode")
		}
		return NewOpenAIResponder(cfg.APIKey, cfg.Model), nil
	case "mock":
		return NewMockResponder(), nil
	default:
		return nil, fmt.Errorf("unsupported fallback mode %q", cfg.Mode)
	}
}
