// Package webhook exposes the dialog engine over HTTP. Contact-center
// recognizer integrations POST one recognized turn per request and receive
// the terminal fulfillment text to speak or display.
package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
)

// Options configures optional server behavior.
type Options struct {
	// Logger for request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server is the HTTP front end for a turn dispatcher. It implements
// http.Handler and can be mounted into a larger router.
type Server struct {
	dispatcher core.Dispatcher
	logger     logging.Logger
	router     chi.Router
}

// NewServer builds the HTTP surface around a dispatcher.
func NewServer(dispatcher core.Dispatcher, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{dispatcher: dispatcher, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/turns", s.handleTurn)

	s.router = r
	return s
}

// ServeHTTP dispatches to the underlying router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTurn decodes one recognized turn, runs it through the dispatcher and
// returns the terminal fulfillment text.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var input core.TurnInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.SessionID == "" || input.Action == "" {
		writeError(w, http.StatusBadRequest, "sessionId and action are required")
		return
	}

	result, err := s.dispatcher.HandleTurn(r.Context(), input)
	if err != nil {
		s.logger.Error("turn failed session_id=%s action=%s: %v", input.SessionID, input.Action, err)
		switch {
		case errors.Is(err, core.ErrNoHandler):
			writeError(w, http.StatusUnprocessableEntity, "no handler for action")
		case errors.Is(err, core.ErrDispatchLimit):
			writeError(w, http.StatusInternalServerError, "flow did not settle")
		default:
			writeError(w, http.StatusBadGateway, "turn processing failed")
		}
		return
	}

	s.logger.Info("turn completed session_id=%s action=%s sequence=%s",
		result.SessionID, input.Action, result.CurrentSequence)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
