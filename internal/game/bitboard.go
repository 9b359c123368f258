package game

import "math/bits"

// Bitboard is a 64-bit set of squares indexed row-major.
type Bitboard uint64

func BB(p Position) Bitboard { return 1 << uint(p.Index()) }

func (b Bitboard) Empty() bool { return b == 0 }

func (b Bitboard) Has(p Position) bool {
	return p.InBounds() && b&BB(p) != 0
}

func (b Bitboard) Add(p Position) Bitboard {
	if !p.InBounds() {
		return b
	}
	return b | BB(p)
}

func (b Bitboard) Remove(p Position) Bitboard {
	if !p.InBounds() {
		return b
	}
	return b &^ BB(p)
}

func (b Bitboard) Count() int { return bits.OnesCount64(uint64(b)) }

func (b Bitboard) Iter(fn func(Position)) {
	bb := uint64(b)
	for bb != 0 {
		idx := bits.TrailingZeros64(bb)
		fn(Position{Row: idx / 8, Col: idx % 8})
		bb &= bb - 1
	}
}

// dedupe keeps the first occurrence of every in-bounds position, preserving
// order.
func dedupe(moves []Position) []Position {
	var seen Bitboard
	out := make([]Position, 0, len(moves))
	for _, p := range moves {
		if !p.InBounds() || seen.Has(p) {
			continue
		}
		seen = seen.Add(p)
		out = append(out, p)
	}
	return out
}

func toBitboard(moves []Position) Bitboard {
	var b Bitboard
	for _, p := range moves {
		b = b.Add(p)
	}
	return b
}
