package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/whiteboard/internal/logging"
	"github.com/aretw0/whiteboard/pkg/board"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Builder creates a live session from its record. onChange must be
// registered as a board observer so subscribers see every mutation.
type Builder func(rec *domain.SessionRecord, onChange board.Observer) (*session.Session, error)

// Server exposes whiteboard sessions over HTTP.
type Server struct {
	Manager *session.Manager
	Build   Builder
	Streams *StreamManager
	Tools   []domain.ToolDefinition

	version string
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = strings.TrimSpace(v) }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithTools sets the catalog reported by /tools.
func WithTools(defs []domain.ToolDefinition) Option {
	return func(s *Server) { s.Tools = defs }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server backed by the manager.
func NewServer(manager *session.Manager, build Builder, opts ...Option) *Server {
	s := &Server{
		Manager: manager,
		Build:   build,
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/tools", s.GetTools)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/board", s.GetBoard)
			r.Post("/messages", s.PostMessage)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse reports the outcome of a submission.
type MessageResponse struct {
	Status     session.Status    `json:"status"`
	Error      string            `json:"error,omitempty"`
	Snapshot   domain.Snapshot   `json:"snapshot"`
	Transcript domain.Transcript `json:"transcript"`
}

func (s *Server) open(ctx context.Context, id string) (*session.Session, error) {
	return s.Manager.Open(ctx, id, func(rec *domain.SessionRecord) (*session.Session, error) {
		return s.Build(rec, s.Streams.Observer(rec.ID))
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "whiteboard-http",
		"version": s.version,
	})
}

// GetTools handles the GET /tools request.
func (s *Server) GetTools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Tools)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if live, ok := s.Manager.Live(id); ok {
		s.writeJSON(w, http.StatusOK, live.Record())
		return
	}
	rec, err := s.Manager.Load(r.Context(), id)
	if err != nil {
		s.fail(w, "GetSession", statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.Manager.Delete(r.Context(), id); err != nil {
		s.fail(w, "DeleteSession", http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBoard handles the GET /sessions/{id}/board request.
func (s *Server) GetBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if live, ok := s.Manager.Live(id); ok {
		s.writeJSON(w, http.StatusOK, live.Snapshot())
		return
	}
	rec, err := s.Manager.Load(r.Context(), id)
	if err != nil {
		s.fail(w, "GetBoard", statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec.Snapshot)
}

// PostMessage handles the POST /sessions/{id}/messages request.
// It blocks until the session is waiting for the user again.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "PostMessage", http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	id := chi.URLParam(r, "sessionID")
	sess, err := s.open(r.Context(), id)
	if err != nil {
		s.fail(w, "PostMessage", http.StatusInternalServerError, err)
		return
	}

	err = sess.Submit(r.Context(), body.Text)
	if err != nil && !errors.Is(err, domain.ErrTurnFailed) {
		s.fail(w, "PostMessage", statusFor(err), err)
		return
	}

	resp := MessageResponse{
		Status:     sess.Status(),
		Snapshot:   sess.Snapshot(),
		Transcript: sess.Transcript(),
	}
	code := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		code = http.StatusBadGateway
		s.logger.Warn("PostMessage: turn failed", "session_id", id, "error", err)
	}
	s.writeJSON(w, code, resp)
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// Each board mutation is pushed as a "board" event carrying the full snapshot.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "sessionID")
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if live, ok := s.Manager.Live(id); ok {
		if data, err := live.Snapshot().JSON(); err == nil {
			fmt.Fprintf(w, "event: board\ndata: %s\n\n", data)
		}
	}
	flusher.Flush()
	s.logger.Info("SSE: Subscribing to board updates", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: board\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	} else {
		s.logger.Warn(op+" rejected", "error", err)
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
