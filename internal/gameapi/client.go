package gameapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jalvarol/checkers/internal/board"
)

const (
	pathGame        = "/game"
	pathMove        = "/game/move"
	pathNewGame     = "/game/new"
	pathCheckWinner = "/game/check-winner"

	headerRequestID = "X-Request-Id"
)

// ErrUnreachable marks transport failures: no HTTP response was received.
var ErrUnreachable = errors.New("checkers server unreachable")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("checkers api error: %s %s status=%d body=%s", e.Method, e.Path, e.Status, e.Body)
}

// StatusCode extracts the HTTP status from err, if it carries one.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// MoveCommand is the body of POST /game/move.
type MoveCommand struct {
	Source      board.Position `json:"source"`
	Destination board.Position `json:"destination"`
}

// Outcome is the answer of GET /game/check-winner.
type Outcome struct {
	Status string
	Winner board.Color
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.http.MaxConnsPerHost = n
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets the number of attempts for idempotent requests.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDialer replaces the TCP dialer, e.g. with an in-memory listener.
func WithDialer(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 8},
		logger:         zap.NewNop(),
		defaultTimeout: 5 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// FetchGame reads the current snapshot. Transport errors and 5xx are retried.
func (c *Client) FetchGame(ctx context.Context) (board.Snapshot, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, pathGame, nil, true)
	if err != nil {
		return board.Snapshot{}, err
	}
	return decodeSnapshot(pathGame, body)
}

// SubmitMove posts a move. It is never retried: the server may have applied it.
func (c *Client) SubmitMove(ctx context.Context, cmd MoveCommand) (board.Snapshot, error) {
	body, err := c.do(ctx, fasthttp.MethodPost, pathMove, cmd, false)
	if err != nil {
		return board.Snapshot{}, err
	}
	return decodeSnapshot(pathMove, body)
}

// NewGame asks the server to reset the board.
func (c *Client) NewGame(ctx context.Context) (board.Snapshot, error) {
	body, err := c.do(ctx, fasthttp.MethodPost, pathNewGame, struct{}{}, false)
	if err != nil {
		return board.Snapshot{}, err
	}
	return decodeSnapshot(pathNewGame, body)
}

func (c *Client) CheckWinner(ctx context.Context) (Outcome, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, pathCheckWinner, nil, true)
	if err != nil {
		return Outcome{}, err
	}
	var w struct {
		Status string  `json:"status"`
		Winner *string `json:"winner"`
	}
	if err := json.Unmarshal(body, &w); err != nil {
		return Outcome{}, fmt.Errorf("decode %s: %w", pathCheckWinner, err)
	}
	out := Outcome{Status: w.Status}
	if w.Winner != nil && *w.Winner != "" {
		color, ok := board.ParseColor(*w.Winner)
		if !ok {
			return Outcome{}, fmt.Errorf("decode %s: winner %q", pathCheckWinner, *w.Winner)
		}
		out.Winner = color
	}
	return out, nil
}

func decodeSnapshot(path string, body []byte) (board.Snapshot, error) {
	s, err := board.ParseSnapshot(body)
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, retry bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	reqID := uuid.NewString()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	req.Header.Set(headerRequestID, reqID)

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrUnreachable, method, path, err)
		}
		started := time.Now()
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("%w: %s %s: %w", ErrUnreachable, method, path, err)
			c.logger.Warn("checkers_request_failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("request_id", reqID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt == attempts {
				return nil, lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		c.logger.Debug("checkers_request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(started)),
		)
		if status < 200 || status >= 300 {
			lastErr = &StatusError{Method: method, Path: path, Status: status, Body: truncate(string(resp.Body()), 512)}
			if attempt == attempts || !shouldRetryStatus(status) {
				return nil, lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}
		return append([]byte(nil), resp.Body()...), nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
