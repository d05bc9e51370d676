package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
	"ActivityAggregator/internal/usecase"
)

const (
	chatMinInterval = 3 * time.Second
	chatTimeout     = 30 * time.Second
	chatMaxMessages = 50
)

// Runner triggers one aggregation run.
type Runner interface {
	Run(ctx context.Context, opts usecase.RunOptions) (usecase.RunReport, error)
}

// Server exposes the aggregation trigger and the chat pass-through.
// The trigger is gated by a shared-secret bearer credential and rejects
// non-matching requests before any I/O happens.
type Server struct {
	pipeline   Runner
	chat       ports.ChatGenerator
	store      ports.ArtifactStore
	logger     *slog.Logger
	cronSecret string
	limiter    *IntervalLimiter
	addr       string
}

// ServerDeps wires the HTTP surface.
type ServerDeps struct {
	Pipeline   Runner
	Chat       ports.ChatGenerator
	Store      ports.ArtifactStore
	Logger     *slog.Logger
	CronSecret string
	Addr       string
}

// NewServer constructs the HTTP surface.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		pipeline:   deps.Pipeline,
		chat:       deps.Chat,
		store:      deps.Store,
		logger:     deps.Logger,
		cronSecret: deps.CronSecret,
		limiter:    NewIntervalLimiter(chatMinInterval),
		addr:       deps.Addr,
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.info("server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/aggregate", s.handleAggregate)
	r.Post("/api/chat", s.handleChat)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if s.cronSecret == "" || auth != "Bearer "+s.cronSecret {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.error("aggregation panicked", "panic", fmt.Sprint(rec))
			writeError(w, http.StatusInternalServerError, "aggregation failed")
		}
	}()

	opts := usecase.RunOptions{NoCache: r.URL.Query().Get("refresh") == "1"}

	report, err := s.pipeline.Run(r.Context(), opts)
	if err != nil {
		s.error("aggregation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"counts":  report,
	})
}

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusInternalServerError, "chat is not configured")
		return
	}

	if !s.limiter.Allow(time.Now()) {
		writeError(w, http.StatusTooManyRequests, "少し待ってからもう一度お試しください。")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "no messages")
		return
	}
	if len(req.Messages) > chatMaxMessages {
		writeError(w, http.StatusBadRequest, "too many messages")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	reply, err := s.chat.Chat(ctx, s.chatSystemPrompt(), req.Messages)
	if err != nil {
		s.error("chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// chatSystemPrompt grounds the chat on the static system prompt plus
// the persona profile document, when present.
func (s *Server) chatSystemPrompt() string {
	parts := make([]string, 0, 2)
	if system := strings.TrimSpace(s.store.LoadSystemPrompt()); system != "" {
		parts = append(parts, system)
	}
	if profile := strings.TrimSpace(s.store.LoadProfile()); profile != "" {
		parts = append(parts, profile)
	}
	return strings.Join(parts, "\n\n")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
