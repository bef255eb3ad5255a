package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/dgallion1/pdfdancer/internal/config"
	"github.com/dgallion1/pdfdancer/internal/session"
	"github.com/dgallion1/pdfdancer/internal/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server is the HTTP inspector for one PDFDancer session.
type Server struct {
	router chi.Router
	log    *slog.Logger
	cfg    config.Config
	opts   session.Options
	stats  *transport.Stats

	// mu serializes every call on sess; Session is not safe for concurrent use.
	mu    sync.Mutex
	sess  *session.Session
	title string
}

// NewServer serves sess. opts is used to open replacement sessions on
// upload; its Stats feed /api/stats/http.
func NewServer(sess *session.Session, title string, opts session.Options, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		log:   log,
		cfg:   cfg,
		opts:  opts,
		stats: opts.Stats,
		sess:  sess,
		title: title,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close closes the current session's connections.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil {
		s.sess.Close()
	}
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.InspectAPIKey, s.log))

		r.Get("/api/session", s.handleSession)
		r.Post("/api/upload", s.handleUpload)
		r.Get("/api/document", s.handleDocument)
		r.Get("/api/pages/{page}", s.handlePage)
		r.Get("/api/paragraphs", s.handleParagraphs)
		r.Get("/api/form-fields", s.handleFormFields)
		r.Post("/api/invalidate", s.handleInvalidate)

		r.Post("/api/paragraphs/markdown", s.handleAddMarkdown)
		r.Post("/api/redact", s.handleRedact)

		r.Get("/api/export/{format}", s.handleExport)
		r.Get("/api/pdf", s.handlePDF)
		r.Get("/api/text", s.handleText)

		r.Get("/api/stats/http", s.handleHTTPStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// withSession runs fn with the session lock held.
func (s *Server) withSession(fn func(sess *session.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.sess)
}
