package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jalvarol/checkers/internal/adapter/boardpresenter"
	"github.com/jalvarol/checkers/internal/board"
	"github.com/jalvarol/checkers/internal/gamesync"
	"github.com/jalvarol/checkers/internal/journal"
)

const defaultHistory = 10

type historySource interface {
	Recent(ctx context.Context, n int) ([]journal.Entry, error)
}

// shell turns text commands into client gestures. Board output is driven by
// the client's change notifications; the shell itself only prints replies
// for gestures the client refused without a server round trip.
type shell struct {
	sync    *gamesync.Client
	history historySource // nil when journaling is off
	out     *boardpresenter.Presenter
	logger  *zap.Logger
	retryIn time.Duration
}

func newShell(sync *gamesync.Client, history historySource, out *boardpresenter.Presenter, logger *zap.Logger) *shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &shell{sync: sync, history: history, out: out, logger: logger, retryIn: time.Second}
}

// attach renders every settled state; Submitting only gets a short notice.
func (s *shell) attach() int {
	return s.sync.OnChange(func(st gamesync.Status) {
		if st.State == gamesync.StateSubmitting {
			return
		}
		if err := s.out.Board(st); err != nil {
			s.logger.Warn("render_failed", zap.Error(err))
		}
	})
}

// initialize fetches the first snapshot, retrying while the server is unreachable.
func (s *shell) initialize(ctx context.Context, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if _, err = s.sync.Initialize(ctx); err == nil || !errors.Is(err, gamesync.ErrConnection) {
			return err
		}
		if attempt == attempts {
			break
		}
		_ = s.out.Message(s.out.Formatter().Retry(attempt+1, attempts))
		t := time.NewTimer(s.retryIn)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}

// run reads commands until quit, EOF or ctx cancellation.
func (s *shell) run(ctx context.Context, in io.Reader) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = s.out.Message(s.out.Formatter().Bye())
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !s.exec(ctx, line) {
				_ = s.out.Message(s.out.Formatter().Bye())
				return
			}
		}
	}
}

// exec runs one command line and reports whether the shell should keep going.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	f := s.out.Formatter()

	switch cmd {
	case "drag":
		if len(args) != 1 {
			return s.say(f.Usage("drag <square>"))
		}
		p, ok := s.position(args[0])
		if ok {
			s.refused(s.sync.BeginDrag(p), args[0])
		}
	case "drop":
		if len(args) != 1 {
			return s.say(f.Usage("drop <square>"))
		}
		p, ok := s.position(args[0])
		if ok {
			_, err := s.sync.CompleteDrag(ctx, p)
			s.refused(err, args[0])
		}
	case "move":
		if len(args) != 2 {
			return s.say(f.Usage("move <from> <to>"))
		}
		from, ok := s.position(args[0])
		if !ok {
			return true
		}
		to, ok := s.position(args[1])
		if !ok {
			return true
		}
		if err := s.sync.BeginDrag(from); err != nil {
			s.refused(err, args[0])
			return true
		}
		_, err := s.sync.CompleteDrag(ctx, to)
		s.refused(err, args[1])
	case "cancel":
		s.refused(s.sync.CancelDrag(), "")
	case "new":
		_, err := s.sync.StartNewGame(ctx)
		s.refused(err, "")
	case "refresh":
		var err error
		if s.sync.State() == gamesync.StateIdle {
			_, err = s.sync.Initialize(ctx)
		} else {
			_, err = s.sync.Refresh(ctx)
		}
		s.refused(err, "")
	case "show":
		_ = s.out.Board(s.sync.Status())
	case "history":
		s.showHistory(ctx, args)
	case "help", "?":
		return s.say(f.Help())
	case "quit", "exit", "q":
		return false
	default:
		return s.say(f.Unknown(cmd))
	}
	return true
}

func (s *shell) say(text string) bool {
	_ = s.out.Message(text)
	return true
}

func (s *shell) position(arg string) (board.Position, bool) {
	p, err := board.ParsePosition(arg)
	if err != nil {
		s.refused(gamesync.ErrInvalidPosition.Wrap(err), arg)
		return board.NoPosition, false
	}
	return p, true
}

// refused prints errors the board view does not already show: gestures the
// client declined locally never become LastError.
func (s *shell) refused(err error, pos string) {
	if err == nil {
		return
	}
	for _, local := range []error{
		gamesync.ErrBusy, gamesync.ErrNotReady, gamesync.ErrNotDragging,
		gamesync.ErrNotMovable, gamesync.ErrInvalidPosition,
	} {
		if errors.Is(err, local) {
			_ = s.out.Message(s.out.Formatter().Error(boardpresenter.ToDTOError(err), strings.ToUpper(pos)))
			return
		}
	}
	s.logger.Debug("command_failed", zap.Error(err))
}

func (s *shell) showHistory(ctx context.Context, args []string) {
	n := defaultHistory
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	if s.history == nil {
		_ = s.out.History(nil, false)
		return
	}
	entries, err := s.history.Recent(ctx, n)
	if err != nil {
		s.logger.Warn("history_failed", zap.Error(err))
		_ = s.out.Message(s.out.Formatter().Error(boardpresenter.ToDTOError(err), ""))
		return
	}
	_ = s.out.History(entries, true)
}
