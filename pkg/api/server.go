package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/guichet-dev/guichet/pkg/config"
	"github.com/guichet-dev/guichet/pkg/favorites"
	"github.com/guichet-dev/guichet/pkg/log"
	"github.com/guichet-dev/guichet/pkg/realtime"
	"github.com/guichet-dev/guichet/pkg/storage"
)

var logger = log.ForService("api")

// DefaultUserID scopes favorites for requests that carry no X-User-ID header.
const DefaultUserID = "anonyme"

type Server struct {
	cfg      *config.Config
	manager  *storage.Manager
	hub      *realtime.Hub
	favStore favorites.Store
}

func NewServer(cfg *config.Config, manager *storage.Manager, hub *realtime.Hub, favStore favorites.Store) *Server {
	return &Server{
		cfg:      cfg,
		manager:  manager,
		hub:      hub,
		favStore: favStore,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// userID returns the favorites scope for a request.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return DefaultUserID
}

// requireToken guards mutating endpoints with a bearer token. When no token
// is configured every request passes, which keeps single-user local setups
// friction free.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.Server.APIToken
		if token == "" {
			next(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			s.writeError(w, http.StatusUnauthorized, "Unauthorized", "A valid bearer token is required")
			return
		}

		next(w, r)
	}
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
