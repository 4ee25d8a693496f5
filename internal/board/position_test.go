package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("A1")
	require.NoError(t, err)
	assert.Equal(t, Position(0), p)

	p, err = ParsePosition(" h8 ")
	require.NoError(t, err)
	assert.Equal(t, Position(63), p)
	assert.Equal(t, 7, p.Row())
	assert.Equal(t, 7, p.Col())

	for _, bad := range []string{"", "A", "A0", "A9", "I1", "AA", "B22", "1A"} {
		_, err := ParsePosition(bad)
		assert.ErrorIs(t, err, ErrInvalidPosition, bad)
	}
}

func TestPositionStringRoundTrip(t *testing.T) {
	for _, p := range AllPositions() {
		back, err := ParsePosition(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, back)
	}
	assert.Equal(t, "??", NoPosition.String())
}

func TestPositionFromWireIsStrict(t *testing.T) {
	for _, p := range AllPositions() {
		back, ok := positionFromWire(p.String())
		require.True(t, ok, p.String())
		assert.Equal(t, p, back)
	}
	for _, bad := range []string{"a1", " A1", "A1 ", "h8", "I1", "A0", "A9", "", "A", "A10"} {
		_, ok := positionFromWire(bad)
		assert.False(t, ok, bad)
	}
}

func TestNewPosition(t *testing.T) {
	p, err := NewPosition(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "C2", p.String())

	_, err = NewPosition(8, 0)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = NewPosition(0, -1)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestPositionText(t *testing.T) {
	var p Position
	require.NoError(t, p.UnmarshalText([]byte("e5")))
	b, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "E5", string(b))

	_, err = NoPosition.MarshalText()
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestDarkSquares(t *testing.T) {
	assert.False(t, MustPosition("A1").Dark())
	assert.True(t, MustPosition("B1").Dark())
	assert.True(t, MustPosition("A2").Dark())
	n := 0
	for _, p := range AllPositions() {
		if p.Dark() {
			n++
		}
	}
	assert.Equal(t, 32, n)
}

func TestOpponent(t *testing.T) {
	assert.Equal(t, Black, Opponent(Red))
	assert.Equal(t, Red, Opponent(Black))
	assert.Equal(t, NoColor, Opponent(NoColor))
}

func TestParseColorIsExact(t *testing.T) {
	c, ok := ParseColor("black")
	require.True(t, ok)
	assert.Equal(t, Black, c)

	for _, bad := range []string{"Red", "BLACK", " red", "", "purple"} {
		_, ok := ParseColor(bad)
		assert.False(t, ok, bad)
	}
}
