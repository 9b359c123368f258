package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess_architect/internal/game"
	"chess_architect/internal/shared"
)

func TestSVGStartingPosition(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, game.NewGame(nil), SquareSize(40)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "<?xml"))
	assert.Contains(t, out, `width="320"`)
	assert.Equal(t, 8, strings.Count(out, "♙"))
	assert.Equal(t, 8, strings.Count(out, "♟"))
	assert.Equal(t, 1, strings.Count(out, "♔"))
	assert.Contains(t, out, "white to move, active")
}

func TestSVGShowsOrdnanceAndMarks(t *testing.T) {
	s := game.NewGame(nil)
	s, res := game.Deploy(s, game.White, game.MineSpec(3), shared.MustPosition("d4"), false)
	require.True(t, res.OK)
	s.Board.At(shared.MustPosition("b8")).Hidden = true

	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, s,
		Perspective(game.Black),
		MarkSquares(shared.MustPosition("e3"), shared.MustPosition("e4")),
		SquareColors("#eee", "#777"),
	))
	out := buf.String()
	assert.Contains(t, out, "fill:#ffcdd2")
	assert.Contains(t, out, ">3</text>")
	assert.Contains(t, out, ">?</text>")
	assert.Contains(t, out, "fill:#777")
	assert.Equal(t, 2, strings.Count(out, "fill-opacity:0.2"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSVGReportsWriteErrors(t *testing.T) {
	assert.EqualError(t, SVG(failingWriter{}, game.NewGame(nil)), "disk full")
}
