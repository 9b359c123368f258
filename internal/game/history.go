package game

import (
	"strings"

	"chess_architect/internal/shared"
)

// Notation renders a move as <from><x|-><to>[=P][ (roque|prise en passant)].
func Notation(m *Move) string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(m.From.String())
	if m.Captured != nil {
		sb.WriteByte('x')
	} else {
		sb.WriteByte('-')
	}
	sb.WriteString(m.To.String())
	if m.Promotion != nil {
		sb.WriteByte('=')
		sb.WriteByte(m.Promotion.Letter() - ('a' - 'A'))
	}
	switch {
	case m.IsCastling:
		sb.WriteString(" (roque)")
	case m.IsEnPassant:
		sb.WriteString(" (prise en passant)")
	}
	return sb.String()
}

// ParseNotation reads the squares back out of a notation string, or any
// "e2e4" / "e2-e4" style coordinate pair.
func ParseNotation(s string) (MoveRequest, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '='); i >= 0 {
		s = s[:i]
	}
	s = strings.NewReplacer("-", "", "x", "").Replace(strings.ToLower(s))
	if len(s) != 4 {
		return MoveRequest{}, false
	}
	from, ok := shared.ParsePosition(s[:2])
	if !ok {
		return MoveRequest{}, false
	}
	to, ok := shared.ParsePosition(s[2:])
	if !ok {
		return MoveRequest{}, false
	}
	return MoveRequest{From: from, To: to}, true
}

// Notations lists the notation of every move in history order.
func (s *GameState) Notations() []string {
	out := make([]string, len(s.History))
	for i, m := range s.History {
		out[i] = m.Notation
	}
	return out
}
