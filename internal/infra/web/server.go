package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"vm-provisioning-bot/internal/domain/ports/repository"
	"vm-provisioning-bot/internal/infra/logging"
)

const loginAttemptsPerMinute = 10

// Server is the operator API for inspecting and resetting conversations.
type Server struct {
	sessions repository.SessionRepository
	apiKey   string
	auth     *AuthManager
	log      *zerolog.Logger
}

// NewServer builds the admin API. auth may be nil, in which case only the
// bearer API key is accepted.
func NewServer(sessions repository.SessionRepository, apiKey string, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{
		sessions: sessions,
		apiKey:   apiKey,
		auth:     auth,
		log:      logger,
	}
}

// Routes returns the admin router, meant to be mounted under /admin/v1.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(loginRateLimit()).Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/sessions/{userID}", s.handleGetSession)
		r.Delete("/sessions/{userID}", s.handleDeleteSession)
	})
	return r
}

// loginRateLimit slows down guessing of the API key, per client IP.
func loginRateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		loginAttemptsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
		}),
	)
}

func (s *Server) keyMatches(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) == 1
}

// authMiddleware accepts the API key or an admin JWT as a bearer token, or
// the JWT from the session cookie.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		tok, present, err := bearerToken(r)
		if err != nil {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}
		if present {
			if s.keyMatches(tok) {
				next.ServeHTTP(w, r)
				return
			}
			if s.auth != nil {
				if _, err := s.auth.Parse(tok); err == nil {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if s.auth != nil {
			if _, err := s.auth.ParseFromRequest(r); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

type loginRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		http.NotFound(w, r)
		return
	}
	if s.apiKey == "" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.keyMatches(req.Key) {
		logging.With(r.Context(), s.log).Warn().Msg("admin login rejected")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		s.log.Error().Err(err).Msg("mint admin token")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		s.auth.Clear(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sess, err := s.sessions.Get(r.Context(), userID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if !sess.Exists() {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		s.log.Warn().Err(err).Msg("encode session")
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := s.sessions.Delete(r.Context(), userID); err != nil {
		s.storeError(w, r, err)
		return
	}
	logging.With(r.Context(), s.log).Info().Str("user_id", userID).Msg("session reset by admin")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.With(r.Context(), s.log).Error().Err(err).Msg("session store")
	http.Error(w, "Failed to access sessions", http.StatusInternalServerError)
}
