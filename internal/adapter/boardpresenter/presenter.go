package boardpresenter

import (
	"io"
	"strings"
	"sync"

	"github.com/jalvarol/checkers/internal/gamesync"
	"github.com/jalvarol/checkers/internal/journal"
)

// Presenter writes formatted output to a terminal without coupling to the command loop.
type Presenter struct {
	mu  sync.Mutex
	out io.Writer
	f   *Formatter
}

func NewPresenter(out io.Writer, f *Formatter) *Presenter {
	if f == nil {
		f = NewFormatter(nil)
	}
	return &Presenter{out: out, f: f}
}

func (p *Presenter) Formatter() *Formatter { return p.f }

// Board renders the client status.
func (p *Presenter) Board(st gamesync.Status) error {
	return p.Message(p.f.Board(ToView(st)))
}

func (p *Presenter) History(entries []journal.Entry, enabled bool) error {
	return p.Message(p.f.History(ToHistory(entries), enabled))
}

// Message writes text followed by a newline; blank text is skipped.
func (p *Presenter) Message(text string) error {
	if p == nil || p.out == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(p.out, text)
	return err
}
