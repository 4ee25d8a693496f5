package board

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidPosition   = errors.New("position outside the 8x8 board")
	ErrMalformedSnapshot = errors.New("malformed game snapshot")
)

// EffectKind enumerates what the most recent move did besides moving a piece.
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectCaptured
	EffectPromoted
	EffectCapturedAndPromoted
)

func (k EffectKind) String() string {
	switch k {
	case EffectCaptured:
		return "captured"
	case EffectPromoted:
		return "promoted"
	case EffectCapturedAndPromoted:
		return "captured_and_promoted"
	default:
		return "none"
	}
}

// LastMoveEffect describes the transition that produced a snapshot. It is not
// board state: a later fetch of the same position carries no effect.
type LastMoveEffect struct {
	kind EffectKind
	at   Position
}

func NoEffect() LastMoveEffect                      { return LastMoveEffect{} }
func CapturedAt(p Position) LastMoveEffect          { return LastMoveEffect{kind: EffectCaptured, at: p} }
func Promoted() LastMoveEffect                      { return LastMoveEffect{kind: EffectPromoted} }
func CapturedAndPromoted(p Position) LastMoveEffect { return LastMoveEffect{kind: EffectCapturedAndPromoted, at: p} }

func (e LastMoveEffect) Kind() EffectKind { return e.kind }

// Captured returns the square of the captured piece, if any.
func (e LastMoveEffect) Captured() (Position, bool) {
	if e.kind == EffectCaptured || e.kind == EffectCapturedAndPromoted {
		return e.at, true
	}
	return NoPosition, false
}

func (e LastMoveEffect) Promoted() bool {
	return e.kind == EffectPromoted || e.kind == EffectCapturedAndPromoted
}

func (e LastMoveEffect) String() string {
	if p, ok := e.Captured(); ok {
		return fmt.Sprintf("%s(%s)", e.kind, p)
	}
	return e.kind.String()
}

// Snapshot is one complete game state as sent by the server. It is a value:
// copies share nothing.
type Snapshot struct {
	Board  Board
	Turn   Color
	Status string
	Winner Color // NoColor while the game is undecided
	Effect LastMoveEffect

	form wireForm
}

type winnerForm uint8

const (
	winnerAbsent winnerForm = iota
	winnerNull
	winnerBlank
)

// wireForm remembers which optional fields the payload carried and how, so
// MarshalJSON writes them back the way they arrived.
type wireForm struct {
	status         bool
	winner         winnerForm
	captured       bool
	capturedPos    string
	hasCapturedPos bool
	promoted       bool
}

// SquareAt returns the piece on p; unlisted squares are Empty.
func (s Snapshot) SquareAt(p Position) (Piece, error) {
	if !p.Valid() {
		return Empty, fmt.Errorf("%w: index %d", ErrInvalidPosition, uint8(p))
	}
	return s.Board.At(p), nil
}

// IsMovableBy is the only rule the client enforces: the square holds a piece of
// color c and it is c's turn. Paths and captures are the server's business.
func (s Snapshot) IsMovableBy(p Position, c Color) bool {
	piece, err := s.SquareAt(p)
	if err != nil {
		return false
	}
	return piece.Occupied && piece.Color == c && c == s.Turn
}

// Concluded reports whether the server declared a winner.
func (s Snapshot) Concluded() bool { return s.Winner.Valid() }

// Pieces counts occupied squares held by c.
func (s Snapshot) Pieces(c Color) int { return s.Board.Count(c) }

type wirePiece struct {
	IsOccupied *bool   `json:"isOccupied"`
	IsKing     *bool   `json:"isKing"`
	Color      *string `json:"color"`
}

type wireSnapshot struct {
	Board       map[string]*wirePiece `json:"board"`
	Turn        *string               `json:"turn"`
	Status      *string               `json:"status"`
	Winner      json.RawMessage       `json:"winner"`
	Captured    *bool                 `json:"captured"`
	CapturedPos *string               `json:"captured_pos"`
	Promoted    *bool                 `json:"promoted"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedSnapshot, fmt.Sprintf(format, args...))
}

// ParseSnapshot validates a GameState payload. Optional fields default to
// absent/false; missing or mistyped required fields yield ErrMalformedSnapshot.
// Board keys and captured_pos must be canonical ("A1".."H8") and colors must be
// spelled exactly "red" or "black".
func ParseSnapshot(raw []byte) (Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(raw, &w); err != nil {
		return Snapshot{}, malformed("%v", err)
	}
	if w.Board == nil {
		return Snapshot{}, malformed("missing board")
	}
	if w.Turn == nil {
		return Snapshot{}, malformed("missing turn")
	}

	var s Snapshot
	turn, ok := ParseColor(*w.Turn)
	if !ok {
		return Snapshot{}, malformed("turn %q", *w.Turn)
	}
	s.Turn = turn

	for key, wp := range w.Board {
		p, ok := positionFromWire(key)
		if !ok {
			return Snapshot{}, malformed("board key %q", key)
		}
		if s.Board.Listed(p) {
			return Snapshot{}, malformed("square %s listed twice", key)
		}
		piece, err := parsePiece(key, wp)
		if err != nil {
			return Snapshot{}, err
		}
		s.Board.Set(p, piece)
	}

	if w.Status != nil {
		s.Status = *w.Status
		s.form.status = true
	}
	winner, form, err := parseWinner(w.Winner)
	if err != nil {
		return Snapshot{}, err
	}
	s.Winner, s.form.winner = winner, form

	effect, err := parseEffect(w.Captured, w.CapturedPos, w.Promoted)
	if err != nil {
		return Snapshot{}, err
	}
	s.Effect = effect
	s.form.captured = w.Captured != nil
	s.form.promoted = w.Promoted != nil
	if w.CapturedPos != nil {
		s.form.capturedPos, s.form.hasCapturedPos = *w.CapturedPos, true
	}
	return s, nil
}

// parsePiece validates color only on occupied squares; whatever an empty
// square carries is kept for re-serialization and otherwise ignored.
func parsePiece(key string, wp *wirePiece) (Piece, error) {
	if wp == nil || wp.IsOccupied == nil {
		return Empty, malformed("square %s: missing isOccupied", key)
	}
	piece := Piece{Occupied: *wp.IsOccupied}
	if wp.IsKing != nil {
		piece.King = *wp.IsKing
	}
	raw := ""
	if wp.Color != nil {
		raw = *wp.Color
	}
	if !piece.Occupied {
		piece.Color = Color(raw)
		return piece, nil
	}
	c, ok := ParseColor(raw)
	if !ok {
		return Empty, malformed("square %s: color %q", key, raw)
	}
	piece.Color = c
	return piece, nil
}

func parseWinner(raw json.RawMessage) (Color, winnerForm, error) {
	switch {
	case len(raw) == 0:
		return NoColor, winnerAbsent, nil
	case string(raw) == "null":
		return NoColor, winnerNull, nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return NoColor, winnerAbsent, malformed("winner %s", raw)
	}
	if v == "" {
		return NoColor, winnerBlank, nil
	}
	c, ok := ParseColor(v)
	if !ok {
		return NoColor, winnerAbsent, malformed("winner %q", v)
	}
	return c, winnerAbsent, nil
}

func parseEffect(captured *bool, capturedPos *string, promoted *bool) (LastMoveEffect, error) {
	isCapture := captured != nil && *captured
	isPromotion := promoted != nil && *promoted

	at := NoPosition
	if capturedPos != nil && *capturedPos != "" {
		p, ok := positionFromWire(*capturedPos)
		if !ok {
			return NoEffect(), malformed("captured_pos %q", *capturedPos)
		}
		at = p
	}
	if isCapture && !at.Valid() {
		return NoEffect(), malformed("captured without captured_pos")
	}

	switch {
	case isCapture && isPromotion:
		return CapturedAndPromoted(at), nil
	case isCapture:
		return CapturedAt(at), nil
	case isPromotion:
		return Promoted(), nil
	default:
		return NoEffect(), nil
	}
}

type outPiece struct {
	IsOccupied bool   `json:"isOccupied"`
	IsKing     bool   `json:"isKing"`
	Color      string `json:"color"`
}

type outSnapshot struct {
	Board       map[string]outPiece `json:"board"`
	Turn        Color               `json:"turn"`
	Status      *string             `json:"status,omitempty"`
	Winner      json.RawMessage     `json:"winner,omitempty"`
	Captured    *bool               `json:"captured,omitempty"`
	CapturedPos *string             `json:"captured_pos,omitempty"`
	Promoted    *bool               `json:"promoted,omitempty"`
}

// MarshalJSON writes the same shape the server sends. Only listed squares and
// the optional fields the payload carried are emitted, so parse followed by
// marshal gives back every recognized field unchanged. Snapshots built in code
// emit the fields their values need.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := outSnapshot{
		Board: make(map[string]outPiece),
		Turn:  s.Turn,
	}
	for _, p := range s.ListedPositions() {
		c := s.Board[p.Row()][p.Col()].raw
		out.Board[p.String()] = outPiece{IsOccupied: c.Occupied, IsKing: c.King, Color: string(c.Color)}
	}

	if s.form.status || s.Status != "" {
		status := s.Status
		out.Status = &status
	}

	switch {
	case s.Winner.Valid():
		out.Winner = json.RawMessage(`"` + string(s.Winner) + `"`)
	case s.form.winner == winnerNull:
		out.Winner = json.RawMessage(`null`)
	case s.form.winner == winnerBlank:
		out.Winner = json.RawMessage(`""`)
	}

	at, captured := s.Effect.Captured()
	if s.form.captured || captured {
		out.Captured = &captured
	}
	switch {
	case captured:
		pos := at.String()
		out.CapturedPos = &pos
	case s.form.hasCapturedPos:
		pos := s.form.capturedPos
		out.CapturedPos = &pos
	}
	if promoted := s.Effect.Promoted(); s.form.promoted || promoted {
		out.Promoted = &promoted
	}
	return json.Marshal(out)
}

// ListedPositions returns the squares the server sent, in index order.
func (s Snapshot) ListedPositions() []Position {
	var out []Position
	for _, p := range AllPositions() {
		if s.Board.Listed(p) {
			out = append(out, p)
		}
	}
	return out
}
