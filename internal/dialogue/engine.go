package dialogue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smartsupport-ai/supportline/internal/catalogue"
	"github.com/smartsupport-ai/supportline/internal/nlu"
	"github.com/smartsupport-ai/supportline/internal/observability"
)

// minFlowConfidence is the engine's routing threshold: classifications
// below it are handed to the fallback responder instead of a flow.
const minFlowConfidence = 0.4

// generalChatIntent labels fallback turns in the recorded history.
const generalChatIntent = "general_chat"

// FarewellReply is returned for exit commands without touching history.
const FarewellReply = "Take care! If anything else comes up, just start a new chat."

const apologyFormat = "Sorry, I'm having a bit of trouble thinking right now. (%v)"

// Memory is the slice of the memory manager the engine depends on.
type Memory interface {
	GetOrCreate(clientID string) *Context
	IsExitCommand(text string) bool
}

// Responder is the external best-effort collaborator consulted when local
// classification is not confident. Failures never propagate past the
// engine.
type Responder interface {
	Respond(ctx context.Context, message string, history []TurnRecord) (string, error)
}

// TurnResult carries the reply plus the turn metadata surfaced by the API.
type TurnResult struct {
	Reply      string            `json:"reply"`
	Intent     string            `json:"intent,omitempty"`
	Confidence float64           `json:"confidence"`
	State      State             `json:"state,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Entities   map[string]string `json:"entities,omitempty"`
	Fallback   bool              `json:"fallback"`
	Exit       bool              `json:"exit,omitempty"`
}

// Options tune the engine; zero values get sensible defaults.
type Options struct {
	// HistoryTurns bounds the conversational grounding passed to the
	// fallback responder.
	HistoryTurns int
	// FallbackTimeout bounds a single fallback call so a stalled external
	// responder cannot hang a client's turn.
	FallbackTimeout time.Duration
}

// Engine orchestrates one conversational turn end to end.
type Engine struct {
	memory     Memory
	classifier *nlu.Classifier
	machine    *StateMachine
	responder  Responder
	metrics    *observability.Metrics

	historyTurns    int
	fallbackTimeout time.Duration

	lockMu    sync.Mutex
	turnLocks map[string]*sync.Mutex
}

func NewEngine(cat *catalogue.Catalogue, mem Memory, responder Responder, metrics *observability.Metrics, opts Options) *Engine {
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = 3
	}
	if opts.FallbackTimeout <= 0 {
		opts.FallbackTimeout = 15 * time.Second
	}
	return &Engine{
		memory:          mem,
		classifier:      nlu.NewClassifier(cat),
		machine:         NewStateMachine(cat),
		responder:       responder,
		metrics:         metrics,
		historyTurns:    opts.HistoryTurns,
		fallbackTimeout: opts.FallbackTimeout,
		turnLocks:       make(map[string]*sync.Mutex),
	}
}

// HandleTurn processes one message for one client. Turns for the same
// client id are serialized; turns for different clients never contend.
func (e *Engine) HandleTurn(ctx context.Context, clientID, message string) (TurnResult, error) {
	if e.memory.IsExitCommand(message) {
		// Exit commands never reach the classifier and leave no trace in
		// history.
		return TurnResult{Reply: FarewellReply, Exit: true}, nil
	}

	lock := e.clientLock(clientID)
	lock.Lock()
	defer lock.Unlock()

	c := e.memory.GetOrCreate(clientID)

	result := e.classifier.Classify(message)
	c.AddIntent(result.Intent, result.Confidence, result.MatchedPatterns)
	e.observeConfidence(result.Confidence)

	if result.Intent == nlu.IntentUnknown || result.Confidence < minFlowConfidence || len(result.MatchedPatterns) == 0 {
		reply := e.fallbackReply(ctx, message, c)
		c.SetState(StateInitial, generalChatIntent)
		c.AddTurn(message, reply, generalChatIntent, result.Confidence, nil)
		e.observeTurn(generalChatIntent)
		return TurnResult{
			Reply:      reply,
			Intent:     generalChatIntent,
			Confidence: result.Confidence,
			State:      StateInitial,
			SessionID:  c.SessionID(),
			Fallback:   true,
		}, nil
	}

	entities := nlu.ExtractEntities(message, result.Intent)
	reply, nextState := e.machine.Advance(result.Intent, entities)
	c.SetState(nextState, result.Intent)
	if e.machine.Flow(result.Intent) {
		c.BumpAttempts()
	}
	c.AddTurn(message, reply, result.Intent, result.Confidence, entities)
	e.observeTurn(result.Intent)

	return TurnResult{
		Reply:      reply,
		Intent:     result.Intent,
		Confidence: result.Confidence,
		State:      nextState,
		SessionID:  c.SessionID(),
		Entities:   entities,
	}, nil
}

// fallbackReply consults the external responder under a timeout. Any
// failure is converted into the fixed apology carrying the reason.
func (e *Engine) fallbackReply(ctx context.Context, message string, c *Context) string {
	history := c.RecentTurns(e.historyTurns)

	fbCtx, cancel := context.WithTimeout(ctx, e.fallbackTimeout)
	defer cancel()

	reply, err := e.responder.Respond(fbCtx, message, history)
	if err != nil {
		e.observeFallback("error")
		return fmt.Sprintf(apologyFormat, err)
	}
	e.observeFallback("ok")
	return reply
}

func (e *Engine) clientLock(clientID string) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	lock, ok := e.turnLocks[clientID]
	if !ok {
		lock = &sync.Mutex{}
		e.turnLocks[clientID] = lock
	}
	return lock
}

func (e *Engine) observeTurn(intent string) {
	if e.metrics != nil {
		e.metrics.TurnsTotal.WithLabelValues(intent).Inc()
	}
}

func (e *Engine) observeFallback(result string) {
	if e.metrics != nil {
		e.metrics.FallbackTotal.WithLabelValues(result).Inc()
	}
}

func (e *Engine) observeConfidence(confidence float64) {
	if e.metrics != nil {
		e.metrics.Confidence.Observe(confidence)
	}
}
