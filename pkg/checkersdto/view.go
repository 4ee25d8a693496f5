package checkersdto

import "time"

// Square is one rendered cell.
type Square struct {
	Pos       string
	Dark      bool
	Occupied  bool
	King      bool
	Color     string
	Draggable bool
	Selected  bool
	Captured  bool
}

// BoardView is the presentation-ready copy of the client state. Rows run from
// the 8th rank at index 0 down to the 1st.
type BoardView struct {
	State        string
	Rows         [][]Square
	Turn         string
	Status       string
	Winner       string
	CapturedAt   string
	Promoted     bool
	DraggingFrom string
	RedPieces    int
	BlackPieces  int
	Error        *DomainError
}

// HistoryEntry is one journaled snapshot as shown by the history command.
type HistoryEntry struct {
	Seq         uint64
	Origin      string
	At          time.Time
	Turn        string
	Status      string
	Winner      string
	Effect      string
	RedPieces   int
	BlackPieces int
}
