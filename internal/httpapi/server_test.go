package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/smartsupport-ai/supportline/internal/config"
	"github.com/smartsupport-ai/supportline/internal/dialogue"
	"github.com/smartsupport-ai/supportline/internal/memory"
)

type stubEngine struct {
	lastClientID string
	lastMessage  string
	result       dialogue.TurnResult
	err          error
}

func (e *stubEngine) HandleTurn(_ context.Context, clientID, message string) (dialogue.TurnResult, error) {
	e.lastClientID = clientID
	e.lastMessage = message
	return e.result, e.err
}

type stubMemory struct {
	stats      map[string]memory.ClientStats
	clients    []memory.ClientInfo
	forgotten  []string
	persistErr error
}

func (m *stubMemory) Stats(clientID string) (memory.ClientStats, bool) {
	s, ok := m.stats[clientID]
	return s, ok
}

func (m *stubMemory) ListClients() []memory.ClientInfo { return m.clients }

func (m *stubMemory) Forget(_ context.Context, clientID string) bool {
	if _, ok := m.stats[clientID]; !ok {
		return false
	}
	m.forgotten = append(m.forgotten, clientID)
	return true
}

func (m *stubMemory) PersistAll(context.Context) error { return m.persistErr }

func (m *stubMemory) ClientCount() int { return len(m.stats) }

func newTestServer(engine Engine, mem Memory) http.Handler {
	return New(config.Config{}, engine, mem, nil).Router()
}

func TestHandleChatMessage(t *testing.T) {
	engine := &stubEngine{result: dialogue.TurnResult{
		Reply:      "Hey there! How can I help you today?",
		Intent:     "greeting",
		Confidence: 1.0,
		State:      dialogue.StateInitial,
		SessionID:  "sess-1",
	}}
	router := newTestServer(engine, &stubMemory{})

	body := bytes.NewBufferString(`{"client_id":"alice","message":"hi"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/message", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if engine.lastClientID != "alice" || engine.lastMessage != "hi" {
		t.Fatalf("engine saw %q / %q", engine.lastClientID, engine.lastMessage)
	}

	var result dialogue.TurnResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Intent != "greeting" || result.SessionID != "sess-1" {
		t.Fatalf("response = %+v", result)
	}
}

func TestHandleChatMessageDefaultsClientID(t *testing.T) {
	engine := &stubEngine{}
	router := newTestServer(engine, &stubMemory{})

	body := bytes.NewBufferString(`{"message":"hello"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/message", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if engine.lastClientID != "guest" {
		t.Fatalf("client id = %q, want guest", engine.lastClientID)
	}
}

func TestHandleChatMessageRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "{nope"},
		{"blank message", `{"client_id":"alice","message":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestServer(&stubEngine{}, &stubMemory{})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/message",
				bytes.NewBufferString(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleChatMessageEngineError(t *testing.T) {
	router := newTestServer(&stubEngine{err: errors.New("boom")}, &stubMemory{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/message",
		bytes.NewBufferString(`{"message":"hi"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleListClients(t *testing.T) {
	mem := &stubMemory{clients: []memory.ClientInfo{
		{ClientID: "alice", MessageCount: 3},
		{ClientID: "bob", MessageCount: 1},
	}}
	router := newTestServer(&stubEngine{}, mem)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/clients", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload struct {
		Clients []memory.ClientInfo `json:"clients"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Clients) != 2 || payload.Clients[0].ClientID != "alice" {
		t.Fatalf("clients = %+v", payload.Clients)
	}
}

func TestHandleClientStats(t *testing.T) {
	mem := &stubMemory{stats: map[string]memory.ClientStats{
		"alice": {MessageCount: 4, IntentCount: 4, CurrentIntent: "order_tracking", Attempts: 2},
	}}
	router := newTestServer(&stubEngine{}, mem)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/clients/alice/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats memory.ClientStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.MessageCount != 4 || stats.CurrentIntent != "order_tracking" {
		t.Fatalf("stats = %+v", stats)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/clients/ghost/stats", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown client status = %d, want 404", rec.Code)
	}
}

func TestHandleForgetClient(t *testing.T) {
	mem := &stubMemory{stats: map[string]memory.ClientStats{"alice": {}}}
	router := newTestServer(&stubEngine{}, mem)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/clients/alice", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(mem.forgotten) != 1 || mem.forgotten[0] != "alice" {
		t.Fatalf("forgotten = %v", mem.forgotten)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/clients/ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown client status = %d, want 404", rec.Code)
	}
}

func TestHandleSaveMemory(t *testing.T) {
	router := newTestServer(&stubEngine{}, &stubMemory{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/memory/save", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	failing := newTestServer(&stubEngine{}, &stubMemory{persistErr: errors.New("disk full")})
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/memory/save", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("persist failure status = %d, want 500", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestServer(&stubEngine{}, &stubMemory{stats: map[string]memory.ClientStats{"alice": {}}})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

type funcEngine func(clientID, message string) (dialogue.TurnResult, error)

func (f funcEngine) HandleTurn(_ context.Context, clientID, message string) (dialogue.TurnResult, error) {
	return f(clientID, message)
}

func TestWebsocketChat(t *testing.T) {
	engine := funcEngine(func(clientID, message string) (dialogue.TurnResult, error) {
		if message == "bye" {
			return dialogue.TurnResult{Reply: "farewell", Exit: true}, nil
		}
		return dialogue.TurnResult{Reply: "echo: " + message, Intent: "greeting", SessionID: clientID}, nil
	})
	srv := httptest.NewServer(newTestServer(engine, &stubMemory{}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/chat/ws?client_id=alice"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"message": "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out struct {
		Type string `json:"type"`
		dialogue.TurnResult
	}
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Type != "reply" || out.Reply != "echo: hi" || out.SessionID != "alice" {
		t.Fatalf("reply = %+v", out)
	}

	// An exit turn gets the farewell and then a normal close.
	if err := conn.WriteJSON(map[string]string{"message": "bye"}); err != nil {
		t.Fatalf("write exit: %v", err)
	}
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read exit reply: %v", err)
	}
	if !out.Exit || out.Reply != "farewell" {
		t.Fatalf("exit reply = %+v", out)
	}
	if err := conn.ReadJSON(&out); err == nil {
		t.Fatalf("expected the server to close the socket after exit")
	} else if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("close error = %v, want normal closure", err)
	}
}

func TestWebsocketOriginCheck(t *testing.T) {
	newReq := func(origin, host string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/v1/chat/ws", nil)
		r.Host = host
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	s := New(config.Config{}, &stubEngine{}, &stubMemory{}, nil)
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin", "", "app.local:8080", true},
		{"same origin", "http://app.local:8080", "app.local:8080", true},
		{"same origin https", "https://App.Local:8080", "app.local:8080", true},
		{"cross origin", "http://evil.example", "app.local:8080", false},
		{"bad scheme", "file:///tmp", "app.local:8080", false},
	}
	for _, tt := range tests {
		if got := s.upgrader.CheckOrigin(newReq(tt.origin, tt.host)); got != tt.want {
			t.Fatalf("%s: CheckOrigin = %v, want %v", tt.name, got, tt.want)
		}
	}

	open := New(config.Config{AllowAnyOrigin: true}, &stubEngine{}, &stubMemory{}, nil)
	if !open.upgrader.CheckOrigin(newReq("http://evil.example", "app.local:8080")) {
		t.Fatalf("AllowAnyOrigin should accept any origin")
	}
}
