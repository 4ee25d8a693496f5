package gamesync

import "github.com/jalvarol/checkers/internal/board"

// State is the client's position in the synchronization state machine.
type State int

const (
	StateIdle State = iota
	StateReady
	StateDragging
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateDragging:
		return "dragging"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Origin names the request that produced an adopted snapshot.
type Origin string

const (
	OriginInitialize Origin = "initialize"
	OriginMove       Origin = "move"
	OriginNewGame    Origin = "new_game"
	OriginRefresh    Origin = "refresh"
)

// Status is a consistent copy of everything the presentation layer reads.
type Status struct {
	State        State
	Snapshot     board.Snapshot
	HasSnapshot  bool
	DraggingFrom board.Position // NoPosition unless State is StateDragging
	LastError    error
	Seq          uint64 // token of the request that produced Snapshot
	Discarded    uint64
}

// Dragging reports the held source square, if any.
func (s Status) Dragging() (board.Position, bool) {
	return s.DraggingFrom, s.State == StateDragging && s.DraggingFrom.Valid()
}
