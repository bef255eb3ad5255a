package api

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/pdfdancer/internal/pdfinfo"
	"github.com/dgallion1/pdfdancer/internal/selection"
	"github.com/dgallion1/pdfdancer/internal/session"
	"github.com/dgallion1/pdfdancer/internal/transport"
)

// AuthMiddleware validates the inspector API key.
func AuthMiddleware(apiKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				jsonError(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(auth, "Bearer ")
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				log.Warn("rejected api key", "path", r.URL.Path, "remote", r.RemoteAddr)
				jsonError(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// sessionError maps a session error to a response. Caller mistakes become
// 400s; anything the remote service did wrong becomes a 502.
func (s *Server) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	var hetero *selection.HeterogeneousCollectionError
	switch {
	case errors.Is(err, session.ErrInvalidPageNumber),
		errors.Is(err, session.ErrPositionRequired),
		errors.Is(err, session.ErrNothingToRedact),
		errors.Is(err, pdfinfo.ErrNotPDF):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, session.ErrPageNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	case errors.As(err, &hetero):
		s.log.Error("unexpected element variant", "path", r.URL.Path, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusBadGateway
	if code := transport.StatusCode(err); code == http.StatusNotFound {
		status = http.StatusNotFound
	}
	s.log.Error("session call failed", "path", r.URL.Path, "status", transport.StatusCode(err), "error", err)
	jsonError(w, err.Error(), status)
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "document.pdf"
	}
	return name
}
