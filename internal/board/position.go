package board

import (
	"fmt"
	"strings"
)

const (
	// Size is the number of rows and columns on the board.
	Size = 8
	// NumPositions is the number of addressable squares.
	NumPositions = Size * Size

	columnLetters = "ABCDEFGH"
)

// Position addresses one square as row*Size+col, row 0 being "1" and col 0 being "A".
// Coordinate strings only exist at the serialization boundary.
type Position uint8

// NoPosition is the zero-like sentinel for "no square"; it is never Valid.
const NoPosition Position = 0xff

// NewPosition returns the square at (row, col), both zero based.
func NewPosition(row, col int) (Position, error) {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return NoPosition, fmt.Errorf("%w: row=%d col=%d", ErrInvalidPosition, row, col)
	}
	return Position(row*Size + col), nil
}

// MustPosition is ParsePosition for literals known to be on the board.
func MustPosition(s string) Position {
	p, err := ParsePosition(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePosition parses user input such as "A1", "h8" or " c3 ".
func ParsePosition(s string) (Position, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if len(v) != 2 {
		return NoPosition, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	col := strings.IndexByte(columnLetters, v[0])
	row := int(v[1]) - '1'
	if col < 0 || row < 0 || row >= Size {
		return NoPosition, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return Position(row*Size + col), nil
}

// positionFromWire accepts only the canonical form used as board keys:
// an uppercase column letter A-H followed by a rank digit 1-8.
func positionFromWire(s string) (Position, bool) {
	if len(s) != 2 || s[0] < 'A' || s[0] > 'H' || s[1] < '1' || s[1] > '8' {
		return NoPosition, false
	}
	return Position(int(s[1]-'1')*Size + int(s[0]-'A')), true
}

func (p Position) Valid() bool { return p < NumPositions }

// Row is zero based; row 0 is printed as "1".
func (p Position) Row() int { return int(p) / Size }

// Col is zero based; col 0 is printed as "A".
func (p Position) Col() int { return int(p) % Size }

// Dark reports whether the square is a dark one, using the same parity as the
// rendered board: (row+col) even is light.
func (p Position) Dark() bool { return (p.Row()+p.Col())%2 != 0 }

func (p Position) String() string {
	if !p.Valid() {
		return "??"
	}
	return string([]byte{columnLetters[p.Col()], byte('1' + p.Row())})
}

func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: index %d", ErrInvalidPosition, uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(b []byte) error {
	v, err := ParsePosition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// AllPositions lists the 64 squares in index order (A1, B1, ..., H8).
func AllPositions() []Position {
	out := make([]Position, 0, NumPositions)
	for i := 0; i < NumPositions; i++ {
		out = append(out, Position(i))
	}
	return out
}
