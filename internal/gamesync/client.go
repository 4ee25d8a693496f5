package gamesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jalvarol/checkers/internal/board"
	"github.com/jalvarol/checkers/internal/gameapi"
	"github.com/jalvarol/checkers/pkg/checkersdto"
)

// API is the server contract. *gameapi.Client implements it.
type API interface {
	FetchGame(ctx context.Context) (board.Snapshot, error)
	SubmitMove(ctx context.Context, cmd gameapi.MoveCommand) (board.Snapshot, error)
	NewGame(ctx context.Context) (board.Snapshot, error)
}

// Recorder receives every adopted snapshot.
type Recorder interface {
	RecordSnapshot(ctx context.Context, seq uint64, origin string, s board.Snapshot) error
}

type ChangeCallback func(st Status)

type changeCallbackEntry struct {
	id       int
	callback ChangeCallback
}

const defaultRequestTimeout = 5 * time.Second

type Option func(*Client)

// WithRequestTimeout bounds every server call; expiry surfaces as ErrConnection.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// Client owns the single current snapshot and the drag in progress. Every
// change of the snapshot comes from a server response; nothing is predicted.
type Client struct {
	api      API
	logger   *zap.Logger
	recorder Recorder
	timeout  time.Duration

	mu          sync.Mutex
	state       State
	snapshot    board.Snapshot
	hasSnapshot bool
	dragFrom    board.Position
	lastErr     error
	seq         uint64 // last issued token
	appliedSeq  uint64
	inflight    uint64 // token of the request in flight, 0 when none
	resume      State  // state to fall back to when the request in flight fails
	discarded   uint64

	cbM      sync.RWMutex
	changeCb []changeCallbackEntry
	nextCbID int
}

func New(api API, opts ...Option) *Client {
	c := &Client{
		api:      api,
		logger:   zap.NewNop(),
		timeout:  defaultRequestTimeout,
		state:    StateIdle,
		dragFrom: board.NoPosition,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the held snapshot; false while Idle.
func (c *Client) Snapshot() (board.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.hasSnapshot
}

func (c *Client) DraggingFrom() (board.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragFrom, c.state == StateDragging
}

func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Client) statusLocked() Status {
	return Status{
		State:        c.state,
		Snapshot:     c.snapshot,
		HasSnapshot:  c.hasSnapshot,
		DraggingFrom: c.dragFrom,
		LastError:    c.lastErr,
		Seq:          c.appliedSeq,
		Discarded:    c.discarded,
	}
}

// Initialize fetches the current game. It is only meaningful while Idle; once
// a snapshot is held it returns it without a server call. On failure the client
// stays Idle and no board is fabricated.
func (c *Client) Initialize(ctx context.Context) (board.Snapshot, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return board.Snapshot{}, ErrBusy
	case StateIdle:
	default:
		s := c.snapshot
		c.mu.Unlock()
		return s, nil
	}
	token := c.beginLocked(StateIdle)
	c.mu.Unlock()
	c.notify()

	return c.complete(ctx, token, OriginInitialize, ErrRequestRejected, c.api.FetchGame)
}

// BeginDrag holds p as the source of the next move. Gestures that cannot start a
// drag leave the state untouched and report why.
func (c *Client) BeginDrag(p board.Position) error {
	c.mu.Lock()
	switch {
	case c.state == StateSubmitting:
		c.mu.Unlock()
		return ErrBusy
	case c.state != StateReady:
		c.mu.Unlock()
		return ErrNotReady
	case !p.Valid():
		c.mu.Unlock()
		return ErrInvalidPosition
	case !c.snapshot.IsMovableBy(p, c.snapshot.Turn):
		c.mu.Unlock()
		return ErrNotMovable
	}
	c.state = StateDragging
	c.dragFrom = p
	c.mu.Unlock()

	c.logger.Debug("drag_begin", zap.String("from", p.String()))
	c.notify()
	return nil
}

// CancelDrag drops the held source square without contacting the server.
func (c *Client) CancelDrag() error {
	c.mu.Lock()
	if c.state != StateDragging {
		c.mu.Unlock()
		return ErrNotDragging
	}
	c.state = StateReady
	c.dragFrom = board.NoPosition
	c.mu.Unlock()

	c.notify()
	return nil
}

// CompleteDrag submits the move from the held square to dest. The drag is
// cleared whatever the outcome; a rejected move leaves the snapshot untouched.
func (c *Client) CompleteDrag(ctx context.Context, dest board.Position) (board.Snapshot, error) {
	c.mu.Lock()
	switch {
	case c.state == StateSubmitting:
		c.mu.Unlock()
		return board.Snapshot{}, ErrBusy
	case c.state != StateDragging:
		c.mu.Unlock()
		return board.Snapshot{}, ErrNotDragging
	case !dest.Valid():
		c.mu.Unlock()
		return board.Snapshot{}, ErrInvalidPosition
	}
	cmd := gameapi.MoveCommand{Source: c.dragFrom, Destination: dest}
	token := c.beginLocked(StateReady)
	c.mu.Unlock()
	c.notify()

	c.logger.Info("move_submit",
		zap.Uint64("seq", token),
		zap.String("from", cmd.Source.String()),
		zap.String("to", cmd.Destination.String()),
	)
	return c.complete(ctx, token, OriginMove, ErrMoveRejected, func(ctx context.Context) (board.Snapshot, error) {
		return c.api.SubmitMove(ctx, cmd)
	})
}

// StartNewGame replaces the game from any state except Submitting. Any drag is
// dropped immediately; on failure the previous snapshot stays.
func (c *Client) StartNewGame(ctx context.Context) (board.Snapshot, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return board.Snapshot{}, ErrBusy
	}
	resume := StateIdle
	if c.hasSnapshot {
		resume = StateReady
	}
	token := c.beginLocked(resume)
	c.mu.Unlock()
	c.notify()

	c.logger.Info("new_game_submit", zap.Uint64("seq", token))
	return c.complete(ctx, token, OriginNewGame, ErrRequestRejected, c.api.NewGame)
}

// Refresh re-reads the server state, e.g. after an error.
func (c *Client) Refresh(ctx context.Context) (board.Snapshot, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return board.Snapshot{}, ErrBusy
	case StateReady:
	default:
		c.mu.Unlock()
		return board.Snapshot{}, ErrNotReady
	}
	token := c.beginLocked(StateReady)
	c.mu.Unlock()
	c.notify()

	return c.complete(ctx, token, OriginRefresh, ErrRequestRejected, c.api.FetchGame)
}

// beginLocked enters Submitting under a fresh token and clears any drag.
func (c *Client) beginLocked(resume State) uint64 {
	c.seq++
	c.inflight = c.seq
	c.resume = resume
	c.state = StateSubmitting
	c.dragFrom = board.NoPosition
	return c.seq
}

type result struct {
	snapshot board.Snapshot
	err      error
}

// complete runs call outside the lock, bounded by the request timeout. A call
// that outlives the timeout is answered with ErrConnection; whatever it returns
// later is discarded as stale.
func (c *Client) complete(ctx context.Context, token uint64, origin Origin, rejected checkersdto.DomainError, call func(context.Context) (board.Snapshot, error)) (board.Snapshot, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		s, err := call(reqCtx)
		done <- result{snapshot: s, err: err}
	}()

	select {
	case r := <-done:
		return c.apply(ctx, token, origin, rejected, r)
	case <-reqCtx.Done():
		err := c.fail(token, origin, ErrConnection.Wrap(reqCtx.Err()))
		go func() {
			late := <-done
			if _, lateErr := c.apply(context.Background(), token, origin, rejected, late); !errors.Is(lateErr, ErrStaleResponse) {
				c.logger.Warn("late_response_not_discarded", zap.Uint64("seq", token), zap.Error(lateErr))
			}
		}()
		return board.Snapshot{}, err
	}
}

// apply adopts r if token is still the request in flight.
func (c *Client) apply(ctx context.Context, token uint64, origin Origin, rejected checkersdto.DomainError, r result) (board.Snapshot, error) {
	if r.err != nil {
		return board.Snapshot{}, c.fail(token, origin, classify(r.err, rejected))
	}

	c.mu.Lock()
	if !c.currentLocked(token) {
		c.discarded++
		c.mu.Unlock()
		c.logger.Info("stale_response_discarded", zap.Uint64("seq", token), zap.String("origin", string(origin)))
		return board.Snapshot{}, ErrStaleResponse
	}
	c.snapshot = r.snapshot
	c.hasSnapshot = true
	c.appliedSeq = token
	c.inflight = 0
	c.state = StateReady
	c.dragFrom = board.NoPosition
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info("snapshot_applied",
		zap.Uint64("seq", token),
		zap.String("origin", string(origin)),
		zap.String("turn", string(r.snapshot.Turn)),
		zap.String("status", r.snapshot.Status),
		zap.String("effect", r.snapshot.Effect.String()),
	)
	c.record(ctx, token, origin, r.snapshot)
	c.notify()
	return r.snapshot, nil
}

// fail ends the request in flight with err and falls back to the state it
// started from. The held snapshot is never touched.
func (c *Client) fail(token uint64, origin Origin, err error) error {
	c.mu.Lock()
	if !c.currentLocked(token) {
		c.discarded++
		c.mu.Unlock()
		c.logger.Info("stale_failure_discarded", zap.Uint64("seq", token), zap.String("origin", string(origin)), zap.Error(err))
		return ErrStaleResponse.Wrap(err)
	}
	c.inflight = 0
	c.state = c.resume
	if c.state == StateReady && !c.hasSnapshot {
		c.state = StateIdle
	}
	c.dragFrom = board.NoPosition
	c.lastErr = err
	c.mu.Unlock()

	c.logger.Warn("request_failed", zap.Uint64("seq", token), zap.String("origin", string(origin)), zap.Error(err))
	c.notify()
	return err
}

func (c *Client) currentLocked(token uint64) bool {
	return token != 0 && token == c.inflight && c.state == StateSubmitting
}

func (c *Client) record(ctx context.Context, token uint64, origin Origin, s board.Snapshot) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordSnapshot(context.WithoutCancel(ctx), token, string(origin), s); err != nil {
		c.logger.Warn("journal_record_failed", zap.Uint64("seq", token), zap.Error(err))
	}
}

// OnChange registers cb to receive a Status after every transition.
func (c *Client) OnChange(cb ChangeCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	c.nextCbID++
	c.changeCb = append(c.changeCb, changeCallbackEntry{id: c.nextCbID, callback: cb})
	return c.nextCbID
}

func (c *Client) RemoveChangeCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, cb := range c.changeCb {
		if cb.id == id {
			c.changeCb = append(c.changeCb[:i], c.changeCb[i+1:]...)
			break
		}
	}
}

func (c *Client) notify() {
	st := c.Status()
	c.cbM.RLock()
	callbacks := make([]changeCallbackEntry, len(c.changeCb))
	copy(callbacks, c.changeCb)
	c.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(st)
		}
	}
}
