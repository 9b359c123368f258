package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess_architect/internal/game"
	"chess_architect/internal/shared"
)

func newModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	m, err := NewModel(opts)
	require.NoError(t, err)
	return m
}

func run(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.execCommand(line)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func lastLog(m Model) string {
	if len(m.logLines) == 0 {
		return ""
	}
	return m.logLines[len(m.logLines)-1]
}

func TestMoveCommand(t *testing.T) {
	m := newModel(t, Options{})

	m, cmd := run(t, m, "e2e4")
	assert.Nil(t, cmd)
	assert.Equal(t, game.Black, m.state.CurrentPlayer)
	assert.Equal(t, "e2-e4", lastLog(m))

	m, _ = run(t, m, "e4e5")
	assert.Contains(t, lastLog(m), "not your turn")

	m, _ = run(t, m, "castle")
	assert.Equal(t, "unknown command: castle", lastLog(m))

	m, _ = run(t, m, "legal g8")
	assert.True(t, strings.HasPrefix(lastLog(m), "g8: "))
	assert.Contains(t, lastLog(m), "f6")
	assert.Contains(t, lastLog(m), "h6")
}

func TestDeployAndTickCommands(t *testing.T) {
	m := newModel(t, Options{})

	m, _ = run(t, m, "deploy mine d6 1")
	require.Len(t, m.state.Ordnance, 1)
	assert.Equal(t, "white armed mine at d6", lastLog(m))

	m, _ = run(t, m, "deploy mine d6")
	assert.Equal(t, "deploy rejected: duplicate-position", lastLog(m))

	m, _ = run(t, m, "deploy mine z9")
	assert.Equal(t, "deploy rejected: invalid-square", lastLog(m))

	m, _ = run(t, m, "deploy nuke d4")
	assert.Equal(t, "unknown ordnance: nuke", lastLog(m))

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	assert.Empty(t, m.state.Ordnance)
	assert.Nil(t, m.state.Board.At(shared.MustPosition("d7")))
	assert.Contains(t, strings.Join(m.logLines, "\n"), "Detonation at d6")
}

func TestComputerSearchGeneration(t *testing.T) {
	m := newModel(t, Options{AI: true, AIColor: game.Black, AILevel: "easy"})

	m, cmd := run(t, m, "e2e4")
	require.NotNil(t, cmd)
	assert.True(t, m.thinking)

	m, _ = run(t, m, "e7e5")
	assert.Equal(t, "the computer is to move", lastLog(m))

	msg := cmd()
	res, ok := msg.(searchMsg)
	require.True(t, ok)
	require.NoError(t, res.err)

	stale := res
	stale.gen--
	next, _ := m.Update(stale)
	m = next.(Model)
	assert.Equal(t, game.Black, m.state.CurrentPlayer)

	next, _ = m.Update(res)
	m = next.(Model)
	assert.False(t, m.thinking)
	assert.Equal(t, game.White, m.state.CurrentPlayer)
	require.Len(t, m.state.History, 2)
	assert.Equal(t, game.Black, m.state.History[1].Piece.Color)
	assert.Nil(t, m.state.History[1].DecisionMs)
	assert.NotNil(t, m.state.History[0].DecisionMs)
}

func TestAICommand(t *testing.T) {
	m := newModel(t, Options{})

	m, _ = run(t, m, "ai impossible")
	assert.Contains(t, lastLog(m), "impossible")
	assert.False(t, m.aiOn)

	m, cmd := run(t, m, "ai easy white")
	assert.True(t, m.aiOn)
	assert.Equal(t, game.White, m.aiColor)
	assert.Equal(t, "easy", m.search.Level)
	require.NotNil(t, cmd)
	gen := m.gen

	m, _ = run(t, m, "ai off")
	assert.False(t, m.thinking)
	assert.NotEqual(t, gen, m.gen)

	res, ok := cmd().(searchMsg)
	require.True(t, ok)
	next, _ := m.Update(res)
	m = next.(Model)
	assert.Empty(t, m.state.History)
}

func TestRulesResetAndDraw(t *testing.T) {
	rule := game.Rule{ID: "tempo", Name: "Tempo", Active: true, Effects: []game.Effect{game.NewEffect("extraMove", nil)}}
	m := newModel(t, Options{Rules: []game.Rule{rule}})

	m, _ = run(t, m, "rule tempo off")
	require.Len(t, m.state.Rules, 1)
	assert.False(t, m.state.Rules[0].Active)

	m, _ = run(t, m, "rule missing on")
	assert.Contains(t, lastLog(m), "unknown rule")

	m, _ = run(t, m, "d2d4")
	m, _ = run(t, m, "reset")
	assert.Empty(t, m.state.History)
	assert.True(t, m.state.Rules[0].Active)

	m, _ = run(t, m, "draw")
	assert.Equal(t, game.StatusDraw, m.state.Status)
	m, _ = run(t, m, "e2e4")
	assert.Contains(t, lastLog(m), "game is over")
}

func TestKeysAndView(t *testing.T) {
	m := newModel(t, Options{})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	m = next.(Model)
	assert.Equal(t, modeInput, m.mode)

	m.input.SetValue("e2e4")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Equal(t, game.Black, m.state.CurrentPlayer)
	assert.Empty(t, m.input.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Equal(t, modeNormal, m.mode)

	view := m.View()
	assert.Contains(t, view, "black to move")
	assert.Contains(t, view, "e2-e4")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderBoard(t *testing.T) {
	st := game.NewGame(nil)
	out := RenderBoard(st)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[1], "8"))
	assert.True(t, strings.HasPrefix(lines[8], "1"))
}
