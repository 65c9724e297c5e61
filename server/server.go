// Package server exposes the support desk over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
	"github.com/tanawat-p/supportdesk/agent/conversation"
	"github.com/tanawat-p/supportdesk/agent/session"
)

const defaultSessionID = "default"

type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
}

type Server struct {
	manager *session.Manager
	mux     *http.ServeMux
}

func New(manager *session.Manager) (*Server, error) {
	if manager == nil {
		return nil, errors.New("session manager is required")
	}

	s := &Server{manager: manager, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /api/run", s.handleRun)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("DELETE /api/session", s.handleForget)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the API until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type runRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type runResponse struct {
	Response string               `json:"response"`
	Status   string               `json:"status"`
	Handler  contractx.HandlerName `json:"handler,omitempty"`
	Reason   contractx.RouteReason `json:"routing_reason,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "No message text provided")
		return
	}

	result, err := s.manager.Process(r.Context(), sessionOrDefault(req.SessionID), req.Message)
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) || errors.Is(err, conversation.ErrInvalidSession) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("run failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Response: result.Message,
		Status:   "success",
		Handler:  result.Handler,
		Reason:   result.Reason,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	router, err := s.manager.Router(r.Context(), sessionOrDefault(r.URL.Query().Get("session_id")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": router.HandlerStatuses(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	router, err := s.manager.Router(r.Context(), sessionOrDefault(r.URL.Query().Get("session_id")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history": router.RoutingHistory(),
	})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionOrDefault(r.URL.Query().Get("session_id"))
	if err := s.manager.Forget(r.Context(), sessionID); err != nil &&
		!errors.Is(err, conversation.ErrSnapshotNotFound) {
		log.Error().Err(err).Str("session_id", sessionID).Msg("forget failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "session_id": sessionID})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"sessions": s.manager.Sessions(),
	})
}

func sessionOrDefault(sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return defaultSessionID
	}
	return sessionID
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{
		"detail": detail,
		"status": fmt.Sprint(status),
	})
}
