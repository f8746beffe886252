package dialogue

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// TurnRecord is one processed turn in a client's conversation history.
type TurnRecord struct {
	Timestamp      time.Time
	UserMessage    string
	AIReply        string
	DetectedIntent string
	Confidence     float64
	Entities       map[string]string
	State          State
}

// IntentRecord is one classification outcome, recorded for every turn that
// reaches the classifier, low-confidence ones included.
type IntentRecord struct {
	Timestamp       time.Time
	Intent          string
	Confidence      float64
	MatchedPatterns []string
}

// Snapshot is a point-in-time copy of a context, safe to serialize while
// the live context keeps taking turns.
type Snapshot struct {
	SessionID  string
	State      State
	Intent     string
	Confidence float64
	Attempts   int
	History    []TurnRecord
	Intents    []IntentRecord
}

// Context is the durable conversational state for one client. It is owned
// by the memory manager; the engine mutates it during a turn while holding
// that client's turn lock. The internal mutex exists so stats and persist
// snapshots can read concurrently with an in-flight turn.
type Context struct {
	mu            sync.RWMutex
	sessionID     string
	state         State
	intent        string
	confidence    float64
	collectedData map[string]string
	history       []TurnRecord
	intents       []IntentRecord
	attempts      int
	lastSeen      time.Time
}

// NewContext creates a fresh context in the initial state.
func NewContext() *Context {
	return &Context{
		sessionID:     newSessionID(),
		state:         StateInitial,
		collectedData: make(map[string]string),
	}
}

// Restore rebuilds a context from persisted fields.
func Restore(sessionID string, state State, intent string, attempts int, history []TurnRecord, intents []IntentRecord) *Context {
	if sessionID == "" {
		sessionID = newSessionID()
	}
	c := &Context{
		sessionID:     sessionID,
		state:         state,
		intent:        intent,
		attempts:      attempts,
		collectedData: make(map[string]string),
		history:       append([]TurnRecord(nil), history...),
		intents:       append([]IntentRecord(nil), intents...),
	}
	if len(c.history) > 0 {
		c.lastSeen = c.history[len(c.history)-1].Timestamp
	}
	return c
}

func newSessionID() string {
	id, err := gonanoid.New(10)
	if err != nil {
		id = uuid.NewString()[:8]
	}
	return id
}

func (c *Context) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Context) Intent() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.intent
}

func (c *Context) Confidence() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.confidence
}

func (c *Context) Attempts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attempts
}

func (c *Context) TurnCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history)
}

func (c *Context) IntentCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.intents)
}

func (c *Context) LastSeen() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeen
}

// SetState records a transition produced by the state machine, together
// with the intent that drove it.
func (c *Context) SetState(state State, intent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	if intent != "" {
		c.intent = intent
	}
}

// BumpAttempts increments the successful-flow counter.
func (c *Context) BumpAttempts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
}

// AddTurn appends a conversation-history entry. Callers must have already
// filtered exit-type commands; persistence re-validates regardless.
func (c *Context) AddTurn(userMsg, reply, intent string, confidence float64, entities map[string]string) {
	now := time.Now().UTC()
	var copied map[string]string
	if len(entities) > 0 {
		copied = make(map[string]string, len(entities))
		for k, v := range entities {
			copied[k] = v
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.confidence = confidence
	c.lastSeen = now
	c.history = append(c.history, TurnRecord{
		Timestamp:      now,
		UserMessage:    userMsg,
		AIReply:        reply,
		DetectedIntent: intent,
		Confidence:     confidence,
		Entities:       copied,
		State:          c.state,
	})
}

// AddIntent appends an intent-history entry.
func (c *Context) AddIntent(intent string, confidence float64, patterns []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents = append(c.intents, IntentRecord{
		Timestamp:       time.Now().UTC(),
		Intent:          intent,
		Confidence:      confidence,
		MatchedPatterns: append([]string(nil), patterns...),
	})
}

// RecentTurns returns up to n most recent history entries in chronological
// order, for grounding the fallback responder.
func (c *Context) RecentTurns(n int) []TurnRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 || len(c.history) == 0 {
		return nil
	}
	if n > len(c.history) {
		n = len(c.history)
	}
	out := make([]TurnRecord, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

// Snapshot copies the context for serialization. The live context is free
// to keep mutating afterwards.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		SessionID:  c.sessionID,
		State:      c.state,
		Intent:     c.intent,
		Confidence: c.confidence,
		Attempts:   c.attempts,
		History:    append([]TurnRecord(nil), c.history...),
		Intents:    append([]IntentRecord(nil), c.intents...),
	}
}
