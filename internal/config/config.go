package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultServerURL = "http://localhost:6969"

type AppConfig struct {
	ServerURL      string
	RequestTimeout time.Duration
	FetchRetry     int
	MaxConns       int
	Headers        map[string]string

	RedisURL     string
	SessionID    string
	JournalLimit int
	JournalTTL   time.Duration

	MessagesDir string
}

// JournalEnabled reports whether snapshots are journaled to Redis.
func (c *AppConfig) JournalEnabled() bool { return c.RedisURL != "" }

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ServerURL:      defaultServerURL,
		RequestTimeout: 5 * time.Second,
		FetchRetry:     3,
		MaxConns:       8,
		Headers:        map[string]string{},
		JournalLimit:   200,
		JournalTTL:     24 * time.Hour,
	}

	if v := getenv("CHECKERS_SERVER_URL"); v != "" {
		cfg.ServerURL = strings.TrimRight(v, "/")
	}
	if n, ok := getenvPositiveInt("CHECKERS_REQUEST_TIMEOUT_MS"); ok {
		cfg.RequestTimeout = time.Duration(n) * time.Millisecond
	}
	if n, ok := getenvPositiveInt("CHECKERS_FETCH_RETRY"); ok {
		cfg.FetchRetry = n
	}
	if n, ok := getenvPositiveInt("CHECKERS_MAX_CONNS"); ok {
		cfg.MaxConns = n
	}
	if v := getenv("CHECKERS_HEADERS"); v != "" {
		h, err := parseHeaders(v)
		if err != nil {
			return nil, err
		}
		cfg.Headers = h
	}

	cfg.RedisURL = getenv("REDIS_URL")
	cfg.SessionID = getenv("CHECKERS_SESSION_ID")
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if n, ok := getenvPositiveInt("CHECKERS_JOURNAL_LIMIT"); ok {
		cfg.JournalLimit = n
	}
	if n, ok := getenvPositiveInt("CHECKERS_JOURNAL_TTL_SEC"); ok {
		cfg.JournalTTL = time.Duration(n) * time.Second
	}
	cfg.MessagesDir = getenv("CHECKERS_MESSAGES_DIR")

	if err := validateServerURL(cfg.ServerURL); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("CHECKERS_SERVER_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("CHECKERS_SERVER_URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("CHECKERS_SERVER_URL: host is required")
	}
	return nil
}

// parseHeaders reads "K=V,K2=V2".
func parseHeaders(v string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, val, ok := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("CHECKERS_HEADERS: malformed entry %q", part)
		}
		out[k] = strings.TrimSpace(val)
	}
	return out, nil
}

func getenv(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func getenvPositiveInt(k string) (int, bool) {
	v := getenv(k)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
