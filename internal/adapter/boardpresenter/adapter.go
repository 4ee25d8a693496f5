package boardpresenter

import (
	"errors"

	"github.com/jalvarol/checkers/internal/board"
	"github.com/jalvarol/checkers/internal/gamesync"
	"github.com/jalvarol/checkers/internal/journal"
	"github.com/jalvarol/checkers/pkg/checkersdto"
)

// ToView copies a client status into a BoardView, rank 8 first.
func ToView(st gamesync.Status) *checkersdto.BoardView {
	v := &checkersdto.BoardView{
		State: st.State.String(),
		Error: ToDTOError(st.LastError),
	}
	if from, ok := st.Dragging(); ok {
		v.DraggingFrom = from.String()
	}
	if !st.HasSnapshot {
		return v
	}

	s := st.Snapshot
	v.Turn = string(s.Turn)
	v.Status = s.Status
	v.Winner = string(s.Winner)
	v.Promoted = s.Effect.Promoted()
	capturedAt, captured := s.Effect.Captured()
	if captured {
		v.CapturedAt = capturedAt.String()
	}
	v.RedPieces = s.Pieces(board.Red)
	v.BlackPieces = s.Pieces(board.Black)

	v.Rows = make([][]checkersdto.Square, 0, board.Size)
	for row := board.Size - 1; row >= 0; row-- {
		line := make([]checkersdto.Square, 0, board.Size)
		for col := 0; col < board.Size; col++ {
			p, _ := board.NewPosition(row, col)
			piece := s.Board.At(p)
			line = append(line, checkersdto.Square{
				Pos:       p.String(),
				Dark:      p.Dark(),
				Occupied:  piece.Occupied,
				King:      piece.King,
				Color:     string(piece.Color),
				Draggable: st.State == gamesync.StateReady && s.IsMovableBy(p, s.Turn),
				Selected:  v.DraggingFrom == p.String(),
				Captured:  captured && capturedAt == p,
			})
		}
		v.Rows = append(v.Rows, line)
	}
	return v
}

// ToDTOError returns the typed failure carried by err, nil for nil.
func ToDTOError(err error) *checkersdto.DomainError {
	if err == nil {
		return nil
	}
	var de checkersdto.DomainError
	if errors.As(err, &de) {
		return &de
	}
	return &checkersdto.DomainError{Code: "unknown", Message: err.Error(), Err: err}
}

func ToHistory(entries []journal.Entry) []checkersdto.HistoryEntry {
	out := make([]checkersdto.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		effect := ""
		if e.Snapshot.Effect.Kind() != board.EffectNone {
			effect = e.Snapshot.Effect.String()
		}
		out = append(out, checkersdto.HistoryEntry{
			Seq:         e.Seq,
			Origin:      e.Origin,
			At:          e.At,
			Turn:        string(e.Snapshot.Turn),
			Status:      e.Snapshot.Status,
			Winner:      string(e.Snapshot.Winner),
			Effect:      effect,
			RedPieces:   e.Snapshot.Pieces(board.Red),
			BlackPieces: e.Snapshot.Pieces(board.Black),
		})
	}
	return out
}
