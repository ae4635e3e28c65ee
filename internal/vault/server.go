package vault

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/logging"
)

// Server exposes the vault boundary:
//
//	POST   /keys
//	GET    /keys/{id}
//	DELETE /keys/{id}
//	GET    /health
//
// Every /keys call requires the shared bearer token. The daemon is kept on
// a deliberately small import surface because of what it custodies, so the
// HTTP layer is a plain net/http mux.
type Server struct {
	address string
	token   string
	store   *Store
	logger  logging.Logger
	mux     *http.ServeMux
}

func NewServer(address, token string, store *Store, logger logging.Logger) *Server {
	s := &Server{
		address: address,
		token:   token,
		store:   store,
		logger:  logger.With("component", "vaultd"),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/keys", s.authed(s.handleKeys))
	s.mux.HandleFunc("/keys/", s.authed(s.handleKeyByID))
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.address, Handler: s.mux}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping vault server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting vault server", "address", s.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := s.store.Health(); err != nil {
		s.logger.Warn(r.Context(), "health probe failed", "error", err.Error())
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	b := &PrivateKeyBundle{}
	if err := json.NewDecoder(r.Body).Decode(b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.store.Put(b); err != nil {
		if errors.Is(err, common.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error(r.Context(), "store bundle", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info(r.Context(), "bundle stored", "owner", refTag(b.EncryptedID), "opks", len(b.OPKsPrivate))
	writeJSON(w, http.StatusCreated, map[string]string{"status": "stored"})
}

func (s *Server) handleKeyByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/keys/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		b, err := s.store.Get(id)
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			s.logger.Error(r.Context(), "retrieve bundle", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, b)

	case http.MethodDelete:
		if err := s.store.Delete(id); err != nil {
			s.logger.Error(r.Context(), "delete bundle", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.logger.Info(r.Context(), "bundle deleted", "owner", refTag(id))
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// refTag is a stable, non-reversible log tag for a record name. Record
// names gate access to private key material and never land in logs raw.
func refTag(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:4])
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
