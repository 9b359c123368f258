// Package shared holds the board geometry and the enums every engine layer
// agrees on.
package shared

import (
	"fmt"
	"strings"
)

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Index() int { return int(c) }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(text []byte) error {
	parsed, ok := ParseColor(string(text))
	if !ok {
		return fmt.Errorf("invalid color %q", string(text))
	}
	*c = parsed
	return nil
}

func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return White, false
	}
}

// Colors lists both sides in move order.
var Colors = [2]Color{White, Black}

type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

var AllPieceTypes = []PieceType{Pawn, Knight, Bishop, Rook, Queen, King}

func (p PieceType) String() string {
	switch p {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return fmt.Sprintf("piece(%d)", p)
	}
}

// Letter is the lowercase standard letter for the piece type.
func (p PieceType) Letter() byte {
	switch p {
	case Pawn:
		return 'p'
	case Knight:
		return 'n'
	case Bishop:
		return 'b'
	case Rook:
		return 'r'
	case Queen:
		return 'q'
	case King:
		return 'k'
	default:
		return '?'
	}
}

func (p PieceType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PieceType) UnmarshalText(text []byte) error {
	parsed, ok := ParsePieceType(string(text))
	if !ok {
		return fmt.Errorf("invalid piece type %q", string(text))
	}
	*p = parsed
	return nil
}

func ParsePieceType(s string) (PieceType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pawn", "p":
		return Pawn, true
	case "knight", "n":
		return Knight, true
	case "bishop", "b":
		return Bishop, true
	case "rook", "r":
		return Rook, true
	case "queen", "q":
		return Queen, true
	case "king", "k":
		return King, true
	default:
		return Pawn, false
	}
}

// Position is a zero-indexed row/column pair. Row 0 is black's back rank,
// which is rank 8 in algebraic notation.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Pos(row, col int) Position { return Position{Row: row, Col: col} }

func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < 8 && p.Col >= 0 && p.Col < 8
}

func (p Position) Add(dr, dc int) Position { return Position{Row: p.Row + dr, Col: p.Col + dc} }

func (p Position) Step(d Direction) Position {
	dr, dc := d.Delta()
	return p.Add(dr, dc)
}

// Index is the row-major square index in [0,64).
func (p Position) Index() int { return p.Row*8 + p.Col }

func (p Position) File() byte { return byte('a' + p.Col) }

func (p Position) Rank() int { return 8 - p.Row }

func (p Position) String() string {
	if !p.InBounds() {
		return "??"
	}
	return fmt.Sprintf("%c%d", p.File(), p.Rank())
}

func ParsePosition(coord string) (Position, bool) {
	coord = strings.ToLower(strings.TrimSpace(coord))
	if len(coord) != 2 {
		return Position{}, false
	}
	file, rank := coord[0], coord[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Position{}, false
	}
	return Position{Row: 8 - int(rank-'0'), Col: int(file - 'a')}, true
}

// MustPosition parses an algebraic square and panics on malformed input.
// Intended for tables and tests.
func MustPosition(coord string) Position {
	p, ok := ParsePosition(coord)
	if !ok {
		panic(fmt.Sprintf("invalid square %q", coord))
	}
	return p
}

// Chebyshev is the king-move distance between two positions.
func Chebyshev(a, b Position) int {
	return Max(Abs(a.Row-b.Row), Abs(a.Col-b.Col))
}
