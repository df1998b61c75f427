package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vm-provisioning-bot/internal/domain"
	"vm-provisioning-bot/internal/infra/logging"
	"vm-provisioning-bot/internal/infra/metrics"
	red "vm-provisioning-bot/internal/infra/redis"
	"vm-provisioning-bot/internal/usecase"
)

const maxBodyBytes = 64 << 10

// TurnLimiter caps how many turns a user may send per window.
type TurnLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Pinger reports whether the session store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the chat endpoint plus health and metrics.
type Server struct {
	turns          usecase.TurnUseCase
	tr             usecase.Translator
	limiter        TurnLimiter
	store          Pinger
	turnsPerMinute int
	log            *zerolog.Logger
}

// NewServer wires the chat endpoint. limiter may be nil or turnsPerMinute
// zero to disable rate limiting.
func NewServer(turns usecase.TurnUseCase, tr usecase.Translator, limiter TurnLimiter, store Pinger, turnsPerMinute int, logger *zerolog.Logger) *Server {
	return &Server{
		turns:          turns,
		tr:             tr,
		limiter:        limiter,
		store:          store,
		turnsPerMinute: turnsPerMinute,
		log:            logger,
	}
}

// Router builds the chi router. Callers may mount more routes on it.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Post("/api/messages", s.handleMessage)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	return r
}

// inboundMessage mirrors the chat channel payload: {"from":{"id":...},"text":...}.
type inboundMessage struct {
	From *struct {
		ID json.RawMessage `json:"id"`
	} `json:"from"`
	Text *string `json:"text"`
}

// userID accepts both string and numeric ids.
func (m *inboundMessage) userID() (string, bool) {
	if m.From == nil || len(m.From.ID) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(m.From.ID, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(m.From.ID, &n); err == nil && n != "" {
		return n.String(), true
	}
	return "", false
}

type replyBody struct {
	Message string `json:"message"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var in inboundMessage
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&in); err != nil {
		s.writeReply(w, http.StatusBadRequest, s.tr.T(usecase.ReplyInvalidRequest))
		return
	}
	userID, ok := in.userID()
	if !ok || in.Text == nil {
		s.writeReply(w, http.StatusBadRequest, s.tr.T(usecase.ReplyInvalidRequest))
		return
	}

	ctx := logging.WithUserID(r.Context(), userID)
	log := logging.With(ctx, s.log)

	if s.limiter != nil && s.turnsPerMinute > 0 {
		allowed, err := s.limiter.Allow(ctx, red.UserTurnKey(userID), s.turnsPerMinute, time.Minute)
		switch {
		case err != nil:
			// fail open, the limiter shares the session store
			log.Warn().Err(err).Msg("rate limiter unavailable")
		case !allowed:
			metrics.IncRateLimited()
			s.writeReply(w, http.StatusTooManyRequests, s.tr.T(usecase.ReplyRateLimited))
			return
		}
	}

	res, err := s.turns.Handle(ctx, usecase.Message{UserID: userID, Text: *in.Text})
	switch {
	case err == nil:
		s.writeReply(w, http.StatusOK, res.Reply)
	case errors.Is(err, domain.ErrRateLimited) && res != nil:
		s.writeReply(w, http.StatusTooManyRequests, res.Reply)
	case errors.Is(err, domain.ErrProvisioningFailed) && res != nil:
		log.Warn().Err(err).Msg("provisioning failed")
		s.writeReply(w, http.StatusInternalServerError, res.Reply)
	case errors.Is(err, domain.ErrInvalidArgument):
		s.writeReply(w, http.StatusBadRequest, s.tr.T(usecase.ReplyInvalidRequest))
	default:
		log.Error().Err(err).Msg("turn failed")
		s.writeReply(w, http.StatusInternalServerError, s.tr.T(usecase.ReplyInternalError))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("health check failed")
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) writeReply(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(replyBody{Message: msg}); err != nil {
		s.log.Warn().Err(err).Msg("write reply")
	}
}
