package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jalvarol/checkers/internal/board"
)

const (
	defaultLimit = 200
	defaultTTL   = 24 * time.Hour
	keyPrefix    = "checkers:journal:"
)

// ErrEmpty is returned by Latest when nothing was recorded yet.
var ErrEmpty = errors.New("journal is empty")

// Entry is one adopted snapshot.
type Entry struct {
	Seq      uint64
	Origin   string
	At       time.Time
	Snapshot board.Snapshot
}

type wireEntry struct {
	Seq      uint64          `json:"seq"`
	Origin   string          `json:"origin"`
	At       time.Time       `json:"at"`
	Snapshot json.RawMessage `json:"snapshot"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(e.Snapshot)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEntry{Seq: e.Seq, Origin: e.Origin, At: e.At, Snapshot: raw})
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var w wireEntry
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	s, err := board.ParseSnapshot(w.Snapshot)
	if err != nil {
		return err
	}
	*e = Entry{Seq: w.Seq, Origin: w.Origin, At: w.At, Snapshot: s}
	return nil
}

// Store keeps the most recent entries of one session in a Redis list, newest
// first.
type Store struct {
	rdb     *redis.Client
	session string
	limit   int64
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Store)

func WithLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = int64(n)
		}
	}
}

func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(rdb *redis.Client, session string, opts ...Option) *Store {
	s := &Store{
		rdb:     rdb,
		session: strings.TrimSpace(session),
		limit:   defaultLimit,
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to redisURL and checks the connection.
func Open(ctx context.Context, redisURL, session string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for the journal")
	}
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewStore(rdb, session, opts...), nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) Session() string { return s.session }

func (s *Store) key() string { return keyPrefix + s.session }

func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = s.now().UTC()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, s.key(), raw)
		p.LTrim(ctx, s.key(), 0, s.limit-1)
		p.Expire(ctx, s.key(), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal record: %w", err)
	}
	return nil
}

// RecordSnapshot lets the store act as the client's recorder.
func (s *Store) RecordSnapshot(ctx context.Context, seq uint64, origin string, snap board.Snapshot) error {
	return s.Record(ctx, Entry{Seq: seq, Origin: origin, Snapshot: snap})
}

// Recent returns up to n entries, newest first. n <= 0 means all kept entries.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n) - 1
	}
	raws, err := s.rdb.LRange(ctx, s.key(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("journal range: %w", err)
	}
	out := make([]Entry, 0, len(raws))
	for i, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("journal entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) Latest(ctx context.Context) (Entry, error) {
	entries, err := s.Recent(ctx, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return entries[0], nil
}

func (s *Store) Len(ctx context.Context) (int64, error) {
	return s.rdb.LLen(ctx, s.key()).Result()
}

func (s *Store) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key()).Err()
}
