package game

import (
	"fmt"
	"sort"
	"strings"
)

// Board is an 8x8 grid of optional pieces.
type Board struct {
	cells [8][8]*Piece
}

var backRankOrder = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func NewEmptyBoard() *Board { return &Board{} }

// NewStandardBoard returns the standard starting position with white on rows
// 6-7 and black on rows 0-1.
func NewStandardBoard() *Board {
	b := &Board{}
	setup := func(color Color, backRow, pawnRow int) {
		for col, pt := range backRankOrder {
			b.Place(NewPiece(pt, color, Position{Row: backRow, Col: col}))
		}
		for col := 0; col < 8; col++ {
			b.Place(NewPiece(Pawn, color, Position{Row: pawnRow, Col: col}))
		}
	}
	setup(Black, 0, 1)
	setup(White, 7, 6)
	return b
}

func (b *Board) At(p Position) *Piece {
	if b == nil || !p.InBounds() {
		return nil
	}
	return b.cells[p.Row][p.Col]
}

// Place stores pc at its own position field.
func (b *Board) Place(pc *Piece) {
	if pc == nil || !pc.Position.InBounds() {
		return
	}
	b.cells[pc.Position.Row][pc.Position.Col] = pc
}

// Set stores pc at p, rewriting its position field so the grid and the
// piece always agree.
func (b *Board) Set(p Position, pc *Piece) {
	if !p.InBounds() {
		return
	}
	if pc != nil {
		pc.Position = p
	}
	b.cells[p.Row][p.Col] = pc
}

// Remove empties p and returns whatever stood there.
func (b *Board) Remove(p Position) *Piece {
	if !p.InBounds() {
		return nil
	}
	pc := b.cells[p.Row][p.Col]
	b.cells[p.Row][p.Col] = nil
	return pc
}

func (b *Board) Empty(p Position) bool { return p.InBounds() && b.At(p) == nil }

// Clone deep-copies the board and its pieces.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := &Board{}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			out.cells[r][c] = b.cells[r][c].Clone()
		}
	}
	return out
}

// Pieces returns the pieces of color in row-major order.
func (b *Board) Pieces(color Color) []*Piece {
	out := make([]*Piece, 0, 16)
	b.each(func(pc *Piece) {
		if pc.Color == color {
			out = append(out, pc)
		}
	})
	return out
}

// AllPieces returns every piece in row-major order.
func (b *Board) AllPieces() []*Piece {
	out := make([]*Piece, 0, 32)
	b.each(func(pc *Piece) { out = append(out, pc) })
	return out
}

func (b *Board) each(fn func(*Piece)) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if pc := b.cells[r][c]; pc != nil {
				fn(pc)
			}
		}
	}
}

func (b *Board) FindKing(color Color) (Position, bool) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if pc := b.cells[r][c]; pc != nil && pc.Color == color && pc.Type == King {
				return Position{Row: r, Col: c}, true
			}
		}
	}
	return Position{}, false
}

func (b *Board) Count(color Color) int {
	n := 0
	b.each(func(pc *Piece) {
		if pc.Color == color {
			n++
		}
	})
	return n
}

// Serialize renders one line per rank, white uppercase, black lowercase,
// '.' for empty squares, ranks joined by '/'.
func (b *Board) Serialize() string {
	rows := make([]string, 8)
	for r := 0; r < 8; r++ {
		var sb strings.Builder
		for c := 0; c < 8; c++ {
			sb.WriteByte(pieceChar(b.cells[r][c]))
		}
		rows[r] = sb.String()
	}
	return strings.Join(rows, "/")
}

func pieceChar(pc *Piece) byte {
	if pc == nil {
		return '.'
	}
	ch := pc.Type.Letter()
	if pc.Color == White {
		ch -= 'a' - 'A'
	}
	return ch
}

// Signature is an order-independent equality key for the occupied squares.
func (b *Board) Signature() string {
	entries := make([]string, 0, 32)
	b.each(func(pc *Piece) {
		entries = append(entries, fmt.Sprintf("%s:%s:%d,%d", pc.Color, pc.Type, pc.Position.Row, pc.Position.Col))
	})
	sort.Strings(entries)
	return strings.Join(entries, "|")
}

// String draws the board for logs and test failures.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		fmt.Fprintf(&sb, "%d ", 8-r)
		for c := 0; c < 8; c++ {
			sb.WriteByte(pieceChar(b.cells[r][c]))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h")
	return sb.String()
}
