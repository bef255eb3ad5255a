// Package transport talks HTTP to the PDFDancer service.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	apiVersion = "1"
	// maxResponseBytes is the default bound on successful bodies; PDFs come
	// back whole.
	maxResponseBytes = 512 << 20
	maxErrorBytes    = 64 << 10
)

// Client sends authenticated requests to the service, retrying transient
// failures according to its RetryPolicy.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
	retry      RetryPolicy
	stats      *Stats
	log        *slog.Logger
	maxBody    int64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithRetry(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithStats records the latency of every attempt into s.
func WithStats(s *Stats) Option {
	return func(c *Client) { c.stats = s }
}

func WithClientVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// WithMaxResponseBytes bounds successful response bodies. Larger bodies fail
// with ErrResponseTooLarge.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		version: "dev",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry:   DefaultRetryPolicy(),
		log:     slog.New(slog.DiscardHandler),
		maxBody: maxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token. It must not race with requests.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) HasToken() bool { return c.token != "" }

func (c *Client) BaseURL() string { return c.baseURL }

// call is one logical request, replayable across retries.
type call struct {
	method      string
	path        string
	sessionID   string
	body        []byte
	contentType string
	header      http.Header
}

// DoJSON sends body encoded as JSON (nil sends no body) and returns the raw
// response body.
func (c *Client) DoJSON(ctx context.Context, method, path, sessionID string, body any) ([]byte, error) {
	cl := call{method: method, path: path, sessionID: sessionID}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		cl.body = data
		cl.contentType = "application/json"
	}
	return c.do(ctx, cl)
}

func (c *Client) Get(ctx context.Context, path, sessionID string) ([]byte, error) {
	return c.do(ctx, call{method: http.MethodGet, path: path, sessionID: sessionID})
}

// Upload posts data as a single multipart file field.
func (c *Client) Upload(ctx context.Context, path, field, filename string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return c.do(ctx, call{
		method:      http.MethodPost,
		path:        path,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
}

// PostHeaders sends an empty POST carrying extra headers.
func (c *Client) PostHeaders(ctx context.Context, path string, header http.Header) ([]byte, error) {
	return c.do(ctx, call{method: http.MethodPost, path: path, header: header})
}

func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	reqID := requestID()
	attempts := max(c.retry.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := c.retry.wait(attempt-1, lastErr)
			c.log.Warn("retrying request",
				"method", cl.method, "path", cl.path, "attempt", attempt,
				"wait", wait.String(), "request_id", reqID, "error", lastErr)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		body, err := c.once(ctx, cl, reqID)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !c.retry.shouldRetry(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, cl call, reqID string) ([]byte, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range cl.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if cl.contentType != "" {
		httpReq.Header.Set("Content-Type", cl.contentType)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if cl.sessionID != "" {
		httpReq.Header.Set("X-Session-Id", cl.sessionID)
	}
	httpReq.Header.Set("X-API-VERSION", apiVersion)
	httpReq.Header.Set("X-PDFDancer-Client", "pdfdancer-go/"+c.version)
	httpReq.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.record(start, true)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Op: cl.method + " " + cl.path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(start, true)
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		c.log.Debug("request failed",
			"method", cl.method, "path", cl.path, "status", resp.StatusCode, "request_id", reqID)
		return nil, c.translate(resp, respBody)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	tooLarge := err == nil && int64(len(respBody)) > c.maxBody
	c.record(start, err != nil || tooLarge)
	if err != nil {
		return nil, &NetworkError{Op: "read " + cl.path, Err: err}
	}
	if tooLarge {
		return nil, fmt.Errorf("%w: %s %s exceeds %d bytes", ErrResponseTooLarge, cl.method, cl.path, c.maxBody)
	}
	c.log.Debug("request done",
		"method", cl.method, "path", cl.path, "status", resp.StatusCode,
		"bytes", len(respBody), "duration_ms", time.Since(start).Milliseconds(), "request_id", reqID)
	return respBody, nil
}

func (c *Client) record(start time.Time, failed bool) {
	if c.stats != nil {
		c.stats.Record(time.Since(start), failed)
	}
}

func (c *Client) translate(resp *http.Response, body []byte) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("unexpected HTTP status: %d", resp.StatusCode),
	}
	var er errorResponse
	if len(body) > 0 && json.Unmarshal(body, &er) == nil && (er.Error != "" || er.Message != "") {
		apiErr.Code = er.Error
		if er.Message != "" {
			apiErr.Message = er.Message
		}
	} else if len(body) > 0 {
		apiErr.Message = string(body)
	}

	if resp.StatusCode == http.StatusNotFound && apiErr.Code == "FontNotFoundException" {
		return &FontNotFoundError{Message: apiErr.Message}
	}
	if c.retry.retryableStatus(resp.StatusCode) {
		return &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    apiErr.Message,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			Err:        apiErr,
		}
	}
	return apiErr
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func requestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
