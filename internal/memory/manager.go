package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smartsupport-ai/supportline/internal/dialogue"
	"github.com/smartsupport-ai/supportline/internal/observability"
)

// exitCommands is the closed vocabulary that ends a session. Matching is on
// the trimmed, lower-cased message.
var exitCommands = map[string]struct{}{
	"exit":    {},
	"quit":    {},
	"bye":     {},
	"goodbye": {},
}

// IsExitCommand reports whether text is an exit command. This predicate is
// shared by the engine's exit gate and the persistence filter.
func IsExitCommand(text string) bool {
	_, ok := exitCommands[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// ClientStats is the read-only stats projection for one client.
type ClientStats struct {
	MessageCount  int       `json:"message_count"`
	IntentCount   int       `json:"intent_count"`
	CurrentIntent string    `json:"current_intent,omitempty"`
	Attempts      int       `json:"attempts"`
	LastSeen      time.Time `json:"last_seen,omitempty"`
}

// ClientInfo is one row of the client listing.
type ClientInfo struct {
	ClientID      string `json:"client_id"`
	MessageCount  int    `json:"message_count"`
	IntentCount   int    `json:"intent_count"`
	CurrentIntent string `json:"current_intent,omitempty"`
}

// Manager owns the client-id to context mapping. Contexts are created
// lazily on first contact and survive process restarts through the durable
// store. Persistence is explicit: callers decide the save points.
type Manager struct {
	mu       sync.RWMutex
	contexts map[string]*dialogue.Context
	store    Store
	metrics  *observability.Metrics
}

func NewManager(store Store, metrics *observability.Metrics) *Manager {
	return &Manager{
		contexts: make(map[string]*dialogue.Context),
		store:    store,
		metrics:  metrics,
	}
}

// GetOrCreate returns the client's context, creating and registering a
// fresh one on first contact.
func (m *Manager) GetOrCreate(clientID string) *dialogue.Context {
	m.mu.RLock()
	c, ok := m.contexts[clientID]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contexts[clientID]; ok {
		return c
	}
	c = dialogue.NewContext()
	m.contexts[clientID] = c
	m.setActiveClients(len(m.contexts))
	log.Printf("created new memory for client %s", clientID)
	return c
}

// IsExitCommand exposes the shared exit predicate on the manager.
func (m *Manager) IsExitCommand(text string) bool {
	return IsExitCommand(text)
}

// ClientCount returns the number of tracked contexts.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contexts)
}

// PersistAll serializes every tracked context to the durable store. The
// snapshot is built under the map lock; the store write happens outside any
// lock. History entries whose user message is an exit command are filtered
// out defensively, even though they should never have been stored.
func (m *Manager) PersistAll(ctx context.Context) error {
	m.mu.RLock()
	snapshots := make(map[string]dialogue.Snapshot, len(m.contexts))
	for clientID, c := range m.contexts {
		snapshots[clientID] = c.Snapshot()
	}
	m.mu.RUnlock()

	records := make(map[string]ClientRecord, len(snapshots))
	for clientID, snap := range snapshots {
		records[clientID] = recordFromSnapshot(snap)
	}

	if err := m.store.Save(ctx, records); err != nil {
		m.observePersist("error")
		return fmt.Errorf("persist memories: %w", err)
	}
	m.observePersist("ok")
	return nil
}

// RestoreAll loads the durable store into the in-memory map. A missing
// store is an empty one; malformed content is reported and leaves the map
// empty rather than failing startup.
func (m *Manager) RestoreAll(ctx context.Context) error {
	records, err := m.store.Load(ctx)
	if err != nil {
		m.mu.Lock()
		m.contexts = make(map[string]*dialogue.Context)
		m.mu.Unlock()
		return fmt.Errorf("restore memories: %w", err)
	}

	contexts := make(map[string]*dialogue.Context, len(records))
	for clientID, record := range records {
		contexts[clientID] = contextFromRecord(record)
	}

	m.mu.Lock()
	m.contexts = contexts
	m.setActiveClients(len(m.contexts))
	m.mu.Unlock()

	if len(contexts) > 0 {
		log.Printf("restored memories for %d clients", len(contexts))
	}
	return nil
}

// Stats returns the per-client projection; ok is false for unknown ids.
func (m *Manager) Stats(clientID string) (ClientStats, bool) {
	m.mu.RLock()
	c, ok := m.contexts[clientID]
	m.mu.RUnlock()
	if !ok {
		return ClientStats{}, false
	}
	return ClientStats{
		MessageCount:  c.TurnCount(),
		IntentCount:   c.IntentCount(),
		CurrentIntent: c.Intent(),
		Attempts:      c.Attempts(),
		LastSeen:      c.LastSeen(),
	}, true
}

// ListClients returns the known clients sorted by id.
func (m *Manager) ListClients() []ClientInfo {
	m.mu.RLock()
	infos := make([]ClientInfo, 0, len(m.contexts))
	for clientID, c := range m.contexts {
		infos = append(infos, ClientInfo{
			ClientID:      clientID,
			MessageCount:  c.TurnCount(),
			IntentCount:   c.IntentCount(),
			CurrentIntent: c.Intent(),
		})
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ClientID < infos[j].ClientID })
	return infos
}

// Forget removes a client's context and immediately persists. It returns
// whether anything was removed.
func (m *Manager) Forget(ctx context.Context, clientID string) bool {
	m.mu.Lock()
	_, ok := m.contexts[clientID]
	if ok {
		delete(m.contexts, clientID)
		m.setActiveClients(len(m.contexts))
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	if err := m.PersistAll(ctx); err != nil {
		log.Printf("persist after forget failed: %v", err)
	}
	log.Printf("cleared memory for client %s", clientID)
	return true
}

func (m *Manager) observePersist(result string) {
	if m.metrics != nil {
		m.metrics.PersistEvents.WithLabelValues(result).Inc()
	}
}

func (m *Manager) setActiveClients(n int) {
	if m.metrics != nil {
		m.metrics.ActiveClients.Set(float64(n))
	}
}

func recordFromSnapshot(snap dialogue.Snapshot) ClientRecord {
	record := ClientRecord{
		SessionID:           snap.SessionID,
		ConversationHistory: make([]TurnEntry, 0, len(snap.History)),
		CurrentState:        snap.State.String(),
		CurrentIntent:       snap.Intent,
		Attempts:            snap.Attempts,
		IntentHistory:       make([]IntentEntry, 0, len(snap.Intents)),
		LastUpdated:         time.Now().UTC().Format(TimeLayout),
	}
	for _, turn := range snap.History {
		if IsExitCommand(turn.UserMessage) {
			continue
		}
		record.ConversationHistory = append(record.ConversationHistory, TurnEntry{
			Timestamp:      turn.Timestamp.UTC().Format(TimeLayout),
			UserMessage:    turn.UserMessage,
			AIReply:        turn.AIReply,
			DetectedIntent: turn.DetectedIntent,
			Confidence:     turn.Confidence,
			Entities:       turn.Entities,
			State:          turn.State.String(),
		})
	}
	for _, intent := range snap.Intents {
		record.IntentHistory = append(record.IntentHistory, IntentEntry{
			Timestamp:       intent.Timestamp.UTC().Format(TimeLayout),
			Intent:          intent.Intent,
			Confidence:      intent.Confidence,
			MatchedPatterns: intent.MatchedPatterns,
		})
	}
	return record
}

func contextFromRecord(record ClientRecord) *dialogue.Context {
	history := make([]dialogue.TurnRecord, 0, len(record.ConversationHistory))
	for _, entry := range record.ConversationHistory {
		if IsExitCommand(entry.UserMessage) {
			continue
		}
		history = append(history, dialogue.TurnRecord{
			Timestamp:      parseStoredTime(entry.Timestamp),
			UserMessage:    entry.UserMessage,
			AIReply:        entry.AIReply,
			DetectedIntent: entry.DetectedIntent,
			Confidence:     entry.Confidence,
			Entities:       entry.Entities,
			State:          dialogue.ParseState(entry.State),
		})
	}
	intents := make([]dialogue.IntentRecord, 0, len(record.IntentHistory))
	for _, entry := range record.IntentHistory {
		intents = append(intents, dialogue.IntentRecord{
			Timestamp:       parseStoredTime(entry.Timestamp),
			Intent:          entry.Intent,
			Confidence:      entry.Confidence,
			MatchedPatterns: entry.MatchedPatterns,
		})
	}
	return dialogue.Restore(
		record.SessionID,
		dialogue.ParseState(record.CurrentState),
		record.CurrentIntent,
		record.Attempts,
		history,
		intents,
	)
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
