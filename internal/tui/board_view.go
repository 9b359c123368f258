package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chess_architect/internal/game"
)

var (
	lightSquare = lipgloss.NewStyle().Background(lipgloss.Color("180"))
	darkSquare  = lipgloss.NewStyle().Background(lipgloss.Color("137"))
	lastMove    = lipgloss.NewStyle().Background(lipgloss.Color("143"))
	whitePiece  = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	blackPiece  = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Bold(true)
	frozenMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ordnance    = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
	markerMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
)

// RenderBoard draws the position with rank 8 on top. Each cell is three
// columns wide: an overlay mark, the piece letter, and a pad.
func RenderBoard(st game.GameState) string {
	frozen := make(map[game.Position]bool)
	for _, f := range st.Freezes {
		if f.Remaining > 0 {
			frozen[f.Position] = true
		}
	}
	armed := make(map[game.Position]game.Ordnance)
	for _, o := range st.Ordnance {
		armed[o.Position] = o
	}
	marked := make(map[game.Position]bool)
	for _, m := range st.Markers {
		marked[m.Position] = true
	}
	var from, to game.Position
	hasLast := len(st.History) > 0
	if hasLast {
		last := st.History[len(st.History)-1]
		from, to = last.From, last.To
	}

	var b strings.Builder
	b.WriteString("   a  b  c  d  e  f  g  h\n")
	for row := 0; row < 8; row++ {
		b.WriteByte(byte('8' - row))
		b.WriteString(" ")
		for col := 0; col < 8; col++ {
			p := game.Position{Row: row, Col: col}
			style := lightSquare
			if (row+col)%2 == 1 {
				style = darkSquare
			}
			if hasLast && (p == from || p == to) {
				style = lastMove
			}
			b.WriteString(style.Render(cell(st.Board.At(p), frozen[p], armed, marked[p], p)))
		}
		b.WriteString(" ")
		b.WriteByte(byte('8' - row))
		b.WriteString("\n")
	}
	b.WriteString("   a  b  c  d  e  f  g  h\n")
	return b.String()
}

func cell(pc *game.Piece, frozen bool, armed map[game.Position]game.Ordnance, marked bool, p game.Position) string {
	mark := " "
	switch o, ok := armed[p]; {
	case ok && o.Trigger == game.DetonateOnCountdown && o.Remaining < 10:
		mark = ordnance.Render(string(rune('0' + o.Remaining)))
	case ok:
		mark = ordnance.Render("*")
	case frozen:
		mark = frozenMark.Render("~")
	case marked:
		mark = markerMark.Render("'")
	}

	if pc == nil {
		return mark + "." + " "
	}
	letter := string(pc.Type.Letter())
	switch {
	case pc.Hidden:
		letter = "?"
	case pc.IsPlant():
		letter = "%"
	}
	if pc.Color == game.White {
		return mark + whitePiece.Render(strings.ToUpper(letter)) + " "
	}
	return mark + blackPiece.Render(strings.ToLower(letter)) + " "
}
