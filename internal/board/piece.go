package board

// Color identifies a side.
type Color string

const (
	NoColor Color = ""
	Red     Color = "red"
	Black   Color = "black"
)

// ParseColor accepts exactly "red" or "black", as the server spells them.
func ParseColor(s string) (Color, bool) {
	switch c := Color(s); c {
	case Red, Black:
		return c, true
	default:
		return NoColor, false
	}
}

func (c Color) Valid() bool { return c == Red || c == Black }

// Opponent returns the other side; NoColor maps to itself.
func Opponent(c Color) Color {
	switch c {
	case Red:
		return Black
	case Black:
		return Red
	default:
		return NoColor
	}
}

// Piece is the content of one square. King and Color mean nothing unless Occupied.
type Piece struct {
	Occupied bool
	King     bool
	Color    Color
}

// Empty is the piece value of an unoccupied square.
var Empty = Piece{}

func (p Piece) normalized() Piece {
	if !p.Occupied {
		return Empty
	}
	return p
}

// cell keeps whether the server listed the square and the raw values it sent, so
// that re-serialization reproduces the same board object.
type cell struct {
	listed bool
	raw    Piece
}

// Board is the fixed 8x8 grid, indexed [row][col].
type Board [Size][Size]cell

// At returns the piece on p. Squares the server omitted read as Empty.
func (b *Board) At(p Position) Piece {
	if !p.Valid() {
		return Empty
	}
	return b[p.Row()][p.Col()].raw.normalized()
}

// Set lists p with the given piece.
func (b *Board) Set(p Position, piece Piece) {
	if !p.Valid() {
		return
	}
	b[p.Row()][p.Col()] = cell{listed: true, raw: piece}
}

// Listed reports whether the server sent an entry for p.
func (b *Board) Listed(p Position) bool {
	return p.Valid() && b[p.Row()][p.Col()].listed
}

// Count returns the number of occupied squares held by c.
func (b *Board) Count(c Color) int {
	n := 0
	for _, p := range AllPositions() {
		if piece := b.At(p); piece.Occupied && piece.Color == c {
			n++
		}
	}
	return n
}
