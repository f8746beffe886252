// Package memory owns durable per-client conversation state: the in-process
// client map, the exit-command vocabulary, and the pluggable durable store
// behind it.
package memory

import "context"

// TimeLayout is the fixed serialization format for turn timestamps.
// Second precision keeps the format portable across readers.
const TimeLayout = "2006-01-02 15:04:05"

// TurnEntry is the persisted form of one conversation turn.
type TurnEntry struct {
	Timestamp      string            `json:"timestamp"`
	UserMessage    string            `json:"user_message"`
	AIReply        string            `json:"ai_reply"`
	DetectedIntent string            `json:"detected_intent"`
	Confidence     float64           `json:"confidence"`
	Entities       map[string]string `json:"entities,omitempty"`
	State          string            `json:"state"`
}

// IntentEntry is the persisted form of one classification outcome.
type IntentEntry struct {
	Timestamp       string   `json:"timestamp"`
	Intent          string   `json:"intent"`
	Confidence      float64  `json:"confidence"`
	MatchedPatterns []string `json:"matched_patterns"`
}

// ClientRecord is the durable snapshot of one client's context. The state
// is rendered as the enum's string value, not its constant name.
type ClientRecord struct {
	SessionID           string        `json:"session_id,omitempty"`
	ConversationHistory []TurnEntry   `json:"conversation_history"`
	CurrentState        string        `json:"current_state"`
	CurrentIntent       string        `json:"current_intent,omitempty"`
	Attempts            int           `json:"attempts"`
	IntentHistory       []IntentEntry `json:"intent_history"`
	LastUpdated         string        `json:"last_updated,omitempty"`
}

// Store reads and writes the durable record set keyed by client id.
// Save replaces the whole set; Load returns an empty map when no store
// exists yet.
type Store interface {
	Save(ctx context.Context, records map[string]ClientRecord) error
	Load(ctx context.Context) (map[string]ClientRecord, error)
	Close() error
}
