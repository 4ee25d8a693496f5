package msgcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	s, err := c.Render("board.turn", map[string]any{"Turn": "red"})
	require.NoError(t, err)
	assert.Equal(t, "Current Turn: red", s)

	s, err = c.Render("board.captured", map[string]any{"Pos": "C3"})
	require.NoError(t, err)
	assert.Equal(t, "Captured a piece at C3!", s)

	assert.True(t, c.Has("error.move_rejected"))
	assert.True(t, c.Has("cli.help"))
}

func TestRenderMissing(t *testing.T) {
	c := MustDefault()
	_, err := c.Render("board.nope", nil)
	assert.Error(t, err)

	_, err = c.Render("board.turn", map[string]any{})
	assert.Error(t, err, "missing template field")

	assert.Equal(t, "fallback", c.RenderOr("board.turn", map[string]any{}, "fallback"))
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("board:\n  turn: \"Turn -> {{.Turn}}\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := New(dir)
	require.NoError(t, err)
	s, err := c.Render("board.turn", map[string]any{"Turn": "black"})
	require.NoError(t, err)
	assert.Equal(t, "Turn -> black", s)

	s, err = c.Render("board.winner", map[string]any{"Winner": "red"})
	require.NoError(t, err)
	assert.Equal(t, "Winner: red", s)
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("board:\n  turn: a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("board:\n  turn: b\n"), 0o644))

	_, err := New(dir)
	assert.ErrorContains(t, err, "duplicate override key")
}

func TestOverrideRejectsNonStrings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("board:\n  turn: 3\n"), 0o644))

	_, err := New(dir)
	assert.ErrorContains(t, err, `line 2: "board.turn" must be a string`)
}

func TestOverrideWithBrokenTemplateFailsAtLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("board:\n  turn: \"{{.Turn\"\n"), 0o644))

	_, err := New(dir)
	assert.ErrorContains(t, err, "compile board.turn")
}

func TestOverrideDirMustExist(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "messages dir")
}
