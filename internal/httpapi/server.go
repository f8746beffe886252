// Package httpapi exposes the dialogue engine and memory store over HTTP
// and websocket.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/smartsupport-ai/supportline/internal/config"
	"github.com/smartsupport-ai/supportline/internal/dialogue"
	"github.com/smartsupport-ai/supportline/internal/memory"
	"github.com/smartsupport-ai/supportline/internal/observability"
)

// Engine handles one conversational turn.
type Engine interface {
	HandleTurn(ctx context.Context, clientID, message string) (dialogue.TurnResult, error)
}

// Memory is the slice of the memory manager the API serves.
type Memory interface {
	Stats(clientID string) (memory.ClientStats, bool)
	ListClients() []memory.ClientInfo
	Forget(ctx context.Context, clientID string) bool
	PersistAll(ctx context.Context) error
	ClientCount() int
}

type Server struct {
	cfg      config.Config
	engine   Engine
	memory   Memory
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, engine Engine, mem Memory, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		engine:  engine,
		memory:  mem,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. Non-browser clients
				// omit Origin and are allowed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/message", s.handleChatMessage)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/clients", s.handleListClients)
	r.Get("/v1/clients/{id}/stats", s.handleClientStats)
	r.Delete("/v1/clients/{id}", s.handleForgetClient)
	r.Post("/v1/memory/save", s.handleSaveMemory)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.memory.ClientCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type chatRequest struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.ClientID) == "" {
		req.ClientID = "guest"
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	result, err := s.engine.HandleTurn(r.Context(), req.ClientID, req.Message)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "turn_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type wsInbound struct {
	Message string `json:"message"`
}

type wsOutbound struct {
	Type string `json:"type"`
	dialogue.TurnResult
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		clientID = "guest"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("chat ws read error for %s: %v", clientID, err)
			}
			return
		}
		if strings.TrimSpace(in.Message) == "" {
			continue
		}

		result, err := s.engine.HandleTurn(r.Context(), clientID, in.Message)
		if err != nil {
			_ = conn.WriteJSON(wsOutbound{Type: "error", TurnResult: dialogue.TurnResult{Reply: err.Error()}})
			continue
		}
		if err := conn.WriteJSON(wsOutbound{Type: "reply", TurnResult: result}); err != nil {
			return
		}
		if result.Exit {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
			return
		}
	}
}

func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"clients": s.memory.ListClients()})
}

func (s *Server) handleClientStats(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	stats, ok := s.memory.Stats(clientID)
	if !ok {
		respondError(w, http.StatusNotFound, "client_not_found", "no memory for client "+clientID)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleForgetClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	if !s.memory.Forget(r.Context(), clientID) {
		respondError(w, http.StatusNotFound, "client_not_found", "no memory for client "+clientID)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"forgotten": clientID})
}

func (s *Server) handleSaveMemory(w http.ResponseWriter, r *http.Request) {
	if err := s.memory.PersistAll(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "persist_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"saved": s.memory.ClientCount()})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
