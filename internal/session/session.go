// Package session is the client for one editing session on the PDFDancer
// service: reads go through a snapshot cache, mutations invalidate it.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/dgallion1/pdfdancer/internal/decode"
	"github.com/dgallion1/pdfdancer/internal/model"
	"github.com/dgallion1/pdfdancer/internal/pdfinfo"
	"github.com/dgallion1/pdfdancer/internal/snapshot"
	"github.com/dgallion1/pdfdancer/internal/transport"
)

var (
	ErrInvalidPageNumber = errors.New("page number must be >= 1")
	ErrPageNotFound      = errors.New("page not found")
	ErrNothingToRedact   = errors.New("at least one object is required")
	ErrPositionRequired  = errors.New("position is required")
	ErrNoSessionID       = errors.New("service returned no session id")
)

// Options configures how a session reaches the service.
type Options struct {
	BaseURL string
	// Token is the API token. When empty, an anonymous token is requested.
	Token   string
	Timeout time.Duration
	// Retry overrides transport.DefaultRetryPolicy when non-nil.
	Retry         *transport.RetryPolicy
	Stats         *transport.Stats
	HTTPClient    *http.Client
	ClientVersion string
	Logger        *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (o Options) client() *transport.Client {
	opts := []transport.Option{
		transport.WithLogger(o.logger()),
		transport.WithStats(o.Stats),
	}
	switch {
	case o.HTTPClient != nil:
		opts = append(opts, transport.WithHTTPClient(o.HTTPClient))
	case o.Timeout > 0:
		opts = append(opts, transport.WithHTTPClient(&http.Client{Timeout: o.Timeout}))
	}
	if o.Retry != nil {
		opts = append(opts, transport.WithRetry(*o.Retry))
	}
	if o.ClientVersion != "" {
		opts = append(opts, transport.WithClientVersion(o.ClientVersion))
	}
	return transport.New(o.BaseURL, o.Token, opts...)
}

// BlankOptions describes a new empty document.
type BlankOptions struct {
	PageSize         model.PageSize
	Orientation      model.Orientation
	InitialPageCount int
}

type createBlankRequest struct {
	PageSize         model.PageSize    `json:"pageSize"`
	Orientation      model.Orientation `json:"orientation"`
	InitialPageCount int               `json:"initialPageCount"`
}

type anonTokenResponse struct {
	Token string `json:"token"`
}

// Session is one server-side editing session. It is not safe for concurrent
// use.
type Session struct {
	id     string
	client *transport.Client
	cache  *snapshot.Cache
	log    *slog.Logger
}

func newSession(id string, client *transport.Client, log *slog.Logger) *Session {
	s := &Session{id: id, client: client, log: log.With("session_id", id)}
	s.cache = snapshot.New(&httpFetcher{client: client, sessionID: id})
	return s
}

// Open uploads pdf and starts a session on it.
func Open(ctx context.Context, opts Options, pdf []byte) (*Session, error) {
	info, err := pdfinfo.Inspect(pdf)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	client := opts.client()
	if err := ensureToken(ctx, client); err != nil {
		return nil, err
	}

	body, err := client.Upload(ctx, "/session/create", "pdf", "document.pdf", pdf)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, err := sessionID(body)
	if err != nil {
		return nil, err
	}

	log := opts.logger()
	log.Info("session opened", "session_id", id, "pages", info.Pages, "bytes", info.Size)
	return newSession(id, client, log), nil
}

// New starts a session on a blank document. Zero fields default to one A4
// portrait page.
func New(ctx context.Context, opts Options, blank BlankOptions) (*Session, error) {
	req := createBlankRequest{
		PageSize:         blank.PageSize,
		Orientation:      blank.Orientation,
		InitialPageCount: blank.InitialPageCount,
	}
	if req.PageSize.Width <= 0 || req.PageSize.Height <= 0 {
		req.PageSize = model.PageA4
	}
	if req.Orientation == "" {
		req.Orientation = model.Portrait
	}
	if req.InitialPageCount <= 0 {
		req.InitialPageCount = 1
	}

	client := opts.client()
	if err := ensureToken(ctx, client); err != nil {
		return nil, err
	}
	body, err := client.DoJSON(ctx, http.MethodPost, "/session/new", "", req)
	if err != nil {
		return nil, fmt.Errorf("create blank session: %w", err)
	}
	id, err := sessionID(body)
	if err != nil {
		return nil, err
	}

	log := opts.logger()
	log.Info("blank session created", "session_id", id, "pages", req.InitialPageCount, "page_size", req.PageSize.Name)
	return newSession(id, client, log), nil
}

// Resume attaches to an existing session without contacting the service.
func Resume(opts Options, sessionID string) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrNoSessionID
	}
	return newSession(sessionID, opts.client(), opts.logger()), nil
}

func (s *Session) ID() string { return s.id }

// Invalidate drops every cached snapshot.
func (s *Session) Invalidate() { s.cache.Invalidate() }

// CacheStats reports how many snapshots are cached.
func (s *Session) CacheStats() snapshot.Stats { return s.cache.Stats() }

func (s *Session) Close() { s.client.Close() }

func ensureToken(ctx context.Context, client *transport.Client) error {
	if client.HasToken() {
		return nil
	}
	header := http.Header{}
	header.Set("X-Fingerprint", fingerprint())
	body, err := client.PostHeaders(ctx, "/keys/anon", header)
	if err != nil {
		return fmt.Errorf("obtain anonymous token: %w", err)
	}
	var resp anonTokenResponse
	if err := decode.Value(body, &resp); err != nil {
		return fmt.Errorf("decode anonymous token: %w", err)
	}
	if resp.Token == "" {
		return errors.New("obtain anonymous token: empty token")
	}
	client.SetToken(resp.Token)
	return nil
}

// fingerprint identifies this machine and user without revealing either.
func fingerprint() string {
	host, _ := os.Hostname()
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		host, runtime.GOOS, runtime.GOARCH, runtime.Version(), name,
	}, "|")))
	return hex.EncodeToString(sum[:])
}

// sessionID accepts a bare or JSON-quoted id.
func sessionID(body []byte) (string, error) {
	id := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if id == "" {
		return "", ErrNoSessionID
	}
	return id, nil
}

// pageIndex converts a 1-based page number to the 0-based cache index.
func pageIndex(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidPageNumber, n)
	}
	return n - 1, nil
}
