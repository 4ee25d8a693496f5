package boardpresenter

import (
	"strings"

	"github.com/jalvarol/checkers/internal/msgcat"
	"github.com/jalvarol/checkers/pkg/checkersdto"
)

const (
	columnHeader = "    A B C D E F G H"
	timeLayout   = "15:04:05"
)

// Formatter renders views as plain text, taking every sentence from the catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	return &Formatter{cat: cat}
}

func (f *Formatter) Board(v *checkersdto.BoardView) string {
	if v == nil {
		return ""
	}
	var sb strings.Builder
	if len(v.Rows) == 0 {
		sb.WriteString(f.cat.RenderOr("board.idle", nil, "No game loaded yet."))
		sb.WriteString("\n")
		f.appendError(&sb, v.Error)
		return sb.String()
	}

	sb.WriteString(columnHeader)
	sb.WriteString("\n")
	for _, row := range v.Rows {
		if len(row) == 0 {
			continue
		}
		rank := row[0].Pos[1:]
		sb.WriteString(" " + rank + " ")
		for _, sq := range row {
			sb.WriteString(" ")
			sb.WriteString(squareGlyph(sq))
		}
		sb.WriteString("  " + rank + "\n")
	}
	sb.WriteString(columnHeader)
	sb.WriteString("\n\n")

	f.line(&sb, "board.turn", map[string]any{"Turn": v.Turn})
	if v.Status != "" {
		f.line(&sb, "board.status", map[string]any{"Status": v.Status})
	}
	if v.CapturedAt != "" {
		f.line(&sb, "board.captured", map[string]any{"Pos": v.CapturedAt})
	}
	if v.Promoted {
		f.line(&sb, "board.promoted", nil)
	}
	if v.Winner != "" {
		f.line(&sb, "board.winner", map[string]any{"Winner": v.Winner})
	}
	f.line(&sb, "board.pieces", map[string]any{"Red": v.RedPieces, "Black": v.BlackPieces})
	switch {
	case v.DraggingFrom != "":
		f.line(&sb, "board.dragging", map[string]any{"From": v.DraggingFrom})
	case v.State == "submitting":
		f.line(&sb, "board.submitting", nil)
	}
	f.appendError(&sb, v.Error)
	return sb.String()
}

func squareGlyph(sq checkersdto.Square) string {
	switch {
	case sq.Selected:
		return "*"
	case sq.Occupied:
		g := "r"
		if sq.Color == "black" {
			g = "b"
		}
		if sq.King {
			g = strings.ToUpper(g)
		}
		return g
	case sq.Dark:
		return "."
	default:
		return " "
	}
}

// Error renders a typed failure. pos fills the square placeholder of
// messages such as not_movable.
func (f *Formatter) Error(e *checkersdto.DomainError, pos string) string {
	if e == nil {
		return ""
	}
	data := map[string]any{"Pos": pos, "Detail": e.Error()}
	key := "error." + e.Code
	if !f.cat.Has(key) {
		key = "error.fallback"
	}
	return f.cat.RenderOr(key, data, e.Error())
}

func (f *Formatter) appendError(sb *strings.Builder, e *checkersdto.DomainError) {
	if e == nil {
		return
	}
	sb.WriteString("! ")
	sb.WriteString(f.Error(e, ""))
	sb.WriteString("\n")
}

func (f *Formatter) History(entries []checkersdto.HistoryEntry, enabled bool) string {
	if !enabled {
		return f.cat.RenderOr("history.disabled", nil, "History is off.")
	}
	if len(entries) == 0 {
		return f.cat.RenderOr("history.empty", nil, "Nothing recorded yet.")
	}
	var sb strings.Builder
	sb.WriteString(f.cat.RenderOr("history.header", map[string]any{"Count": len(entries)}, ""))
	for _, e := range entries {
		sb.WriteString("\n")
		sb.WriteString(f.cat.RenderOr("history.line", map[string]any{
			"Seq":    e.Seq,
			"At":     e.At.Local().Format(timeLayout),
			"Origin": e.Origin,
			"Turn":   e.Turn,
			"Red":    e.RedPieces,
			"Black":  e.BlackPieces,
			"Effect": e.Effect,
			"Winner": e.Winner,
		}, ""))
	}
	return sb.String()
}

func (f *Formatter) Help() string { return f.cat.RenderOr("cli.help", nil, "") }

func (f *Formatter) Bye() string { return f.cat.RenderOr("cli.bye", nil, "Bye.") }

func (f *Formatter) Welcome(server string) string {
	return f.cat.RenderOr("cli.welcome", map[string]any{"Server": server}, server)
}

func (f *Formatter) Retry(attempt, max int) string {
	return f.cat.RenderOr("cli.retry", map[string]any{"Attempt": attempt, "Max": max}, "retrying...")
}

func (f *Formatter) Unknown(command string) string {
	return f.cat.RenderOr("cli.unknown", map[string]any{"Command": command}, "unknown command")
}

func (f *Formatter) Usage(usage string) string {
	return f.cat.RenderOr("cli.usage", map[string]any{"Usage": usage}, usage)
}

func (f *Formatter) line(sb *strings.Builder, key string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	s, err := f.cat.Render(key, data)
	if err != nil {
		return
	}
	sb.WriteString(s)
	sb.WriteString("\n")
}
