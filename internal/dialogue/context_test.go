package dialogue

import (
	"testing"
	"time"
)

func TestNewContextDefaults(t *testing.T) {
	c := NewContext()
	if c.SessionID() == "" {
		t.Fatalf("session id should not be empty")
	}
	if c.State() != StateInitial {
		t.Fatalf("state = %q, want %q", c.State(), StateInitial)
	}
	if c.TurnCount() != 0 || c.IntentCount() != 0 || c.Attempts() != 0 {
		t.Fatalf("fresh context should be empty")
	}
}

func TestContextSessionIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewContext().SessionID()
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}

func TestAddTurnRecordsStateAfterTransition(t *testing.T) {
	c := NewContext()
	c.SetState(StateResolved, "password_reset")
	c.AddTurn("reset please, a@b.com", "done", "password_reset", 0.67, map[string]string{"email": "a@b.com"})

	snap := c.Snapshot()
	if len(snap.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(snap.History))
	}
	turn := snap.History[0]
	if turn.State != StateResolved {
		t.Fatalf("turn state = %q, want %q", turn.State, StateResolved)
	}
	if turn.Entities["email"] != "a@b.com" {
		t.Fatalf("turn entities = %v", turn.Entities)
	}
	if turn.Timestamp.IsZero() {
		t.Fatalf("turn timestamp should be set")
	}
	if c.Intent() != "password_reset" {
		t.Fatalf("intent = %q, want password_reset", c.Intent())
	}
}

func TestRecentTurnsBoundsAndOrder(t *testing.T) {
	c := NewContext()
	for _, msg := range []string{"one", "two", "three", "four"} {
		c.AddTurn(msg, "reply to "+msg, "general_chat", 0.0, nil)
	}

	recent := c.RecentTurns(3)
	if len(recent) != 3 {
		t.Fatalf("RecentTurns(3) length = %d, want 3", len(recent))
	}
	if recent[0].UserMessage != "two" || recent[2].UserMessage != "four" {
		t.Fatalf("unexpected order: %q .. %q", recent[0].UserMessage, recent[2].UserMessage)
	}

	if got := c.RecentTurns(10); len(got) != 4 {
		t.Fatalf("RecentTurns(10) length = %d, want 4", len(got))
	}
	if got := c.RecentTurns(0); got != nil {
		t.Fatalf("RecentTurns(0) = %v, want nil", got)
	}
}

func TestSnapshotIsIsolatedFromLiveContext(t *testing.T) {
	c := NewContext()
	c.AddTurn("first", "r1", "greeting", 1.0, nil)
	snap := c.Snapshot()

	c.AddTurn("second", "r2", "greeting", 1.0, nil)
	c.BumpAttempts()

	if len(snap.History) != 1 {
		t.Fatalf("snapshot history grew with live context: %d", len(snap.History))
	}
	if snap.Attempts != 0 {
		t.Fatalf("snapshot attempts = %d, want 0", snap.Attempts)
	}
}

func TestRestoreRebuildsContext(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := []TurnRecord{{
		Timestamp:      at,
		UserMessage:    "track order 12345",
		AIReply:        "on it",
		DetectedIntent: "order_tracking",
		Confidence:     0.67,
		State:          StateResolved,
	}}
	intents := []IntentRecord{{Timestamp: at, Intent: "order_tracking", Confidence: 0.67}}

	c := Restore("sess-1", StateResolved, "order_tracking", 2, history, intents)
	if c.SessionID() != "sess-1" {
		t.Fatalf("session id = %q, want sess-1", c.SessionID())
	}
	if c.State() != StateResolved || c.Intent() != "order_tracking" || c.Attempts() != 2 {
		t.Fatalf("restored fields mismatch: %q %q %d", c.State(), c.Intent(), c.Attempts())
	}
	if !c.LastSeen().Equal(at) {
		t.Fatalf("last seen = %v, want %v", c.LastSeen(), at)
	}

	// A restored context without a session id gets a fresh one.
	if Restore("", StateInitial, "", 0, nil, nil).SessionID() == "" {
		t.Fatalf("expected generated session id")
	}
}
