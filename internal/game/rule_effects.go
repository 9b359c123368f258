package game

import (
	"strings"

	"chess_architect/internal/shared"
)

// resolveDirections maps a direction keyword to a direction set. An empty
// or unknown keyword falls back to the piece's own directions.
func resolveDirections(keyword string, pc *Piece) []Direction {
	switch strings.ToLower(strings.TrimSpace(keyword)) {
	case "diagonal", "diagonals":
		return shared.DiagonalDirections
	case "orthogonal", "straight", "line":
		return shared.OrthogonalDirections
	case "all", "any":
		return shared.AllDirections
	case "forward":
		return []Direction{shared.Forward(pc.Color)}
	case "backward", "back":
		return []Direction{shared.Forward(pc.Color.Opposite())}
	case "":
		return pieceDirections(pc)
	}
	if d, ok := shared.ParseDirection(keyword); ok {
		return []Direction{d}
	}
	return pieceDirections(pc)
}

// furthestAlong follows d from origin while the next square is already a
// candidate and returns the last one reached, or origin.
func furthestAlong(moves []Position, origin Position, d Direction) Position {
	set := toBitboard(moves)
	cur := origin
	for {
		next := cur.Step(d)
		if !set.Has(next) {
			return cur
		}
		cur = next
	}
}

func extendFrom(moves []Position, pc *Piece, board *Board, d Direction, extra int, onlyReached bool) []Position {
	start := furthestAlong(moves, pc.Position, d)
	if start == pc.Position && onlyReached {
		return moves
	}
	if start != pc.Position && board.At(start) != nil {
		return moves
	}
	return append(moves, walk(board, pc, start, d, extra)...)
}

func extendRange(moves []Position, pc *Piece, board *Board, eff Effect) []Position {
	n := eff.Int("range", 1)
	if n <= 0 {
		return moves
	}
	for _, d := range resolveDirections(eff.Text("direction", ""), pc) {
		moves = extendFrom(moves, pc, board, d, n, false)
	}
	return moves
}

func bonusRange(moves []Position, pc *Piece, board *Board, eff Effect) []Position {
	n := eff.Int("bonus", 1)
	if n <= 0 {
		return moves
	}
	for _, d := range resolveDirections(eff.Text("direction", ""), pc) {
		moves = extendFrom(moves, pc, board, d, n, true)
	}
	return moves
}

func allowDoubleMove(moves []Position, pc *Piece, board *Board) []Position {
	if pc.Type != Pawn {
		return moves
	}
	dr, _ := shared.Forward(pc.Color).Delta()
	one, two := pc.Position.Add(dr, 0), pc.Position.Add(2*dr, 0)
	if board.Empty(one) && board.Empty(two) {
		moves = append(moves, one, two)
	}
	return moves
}

// jumpOverAlly lets a slider pass the first friendly blocker on each of its
// lines and continue beyond it.
func jumpOverAlly(moves []Position, pc *Piece, board *Board) []Position {
	dirs := pieceDirections(pc)
	if pc.Type == Pawn || pc.Type == Knight || pc.Type == King {
		dirs = shared.OrthogonalDirections
	}
	limit := 8
	if pc.Type == King {
		limit = 1
	}
	for _, d := range dirs {
		cur := pc.Position
		for i := 0; i < 8; i++ {
			cur = cur.Step(d)
			if !cur.InBounds() {
				break
			}
			occupant := board.At(cur)
			if occupant == nil {
				continue
			}
			if occupant.Color == pc.Color {
				moves = append(moves, walk(board, pc, cur, d, limit)...)
			}
			break
		}
	}
	return moves
}

func teleport(moves []Position, pc *Piece, state *GameState, board *Board, eff Effect) []Position {
	every := eff.Int("every", 3)
	if every <= 0 {
		every = 3
	}
	if state.Turn%every != 0 {
		return moves
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := Position{Row: r, Col: c}
			occupant := board.At(p)
			if occupant == nil || (occupant.Color != pc.Color && occupant.Type != King) {
				moves = append(moves, p)
			}
		}
	}
	return moves
}

func addMovementPattern(moves []Position, pc *Piece, board *Board, eff Effect) []Position {
	n := eff.Int("range", 2)
	if n <= 0 {
		n = 2
	}
	switch strings.ToLower(eff.Text("pattern", "straight")) {
	case "diagonal":
		return append(moves, slidingMoves(board, pc, shared.DiagonalDirections, n)...)
	case "knight":
		return append(moves, offsetMoves(board, pc, knightOffsets[:])...)
	case "king":
		return append(moves, offsetMoves(board, pc, kingOffsets[:])...)
	case "queen", "all":
		return append(moves, slidingMoves(board, pc, shared.AllDirections, n)...)
	default:
		return append(moves, slidingMoves(board, pc, shared.OrthogonalDirections, n)...)
	}
}

func lateralMove(moves []Position, pc *Piece, board *Board) []Position {
	if pc.Type != Pawn {
		return moves
	}
	for _, dc := range []int{-1, 1} {
		if p := pc.Position.Add(0, dc); board.Empty(p) {
			moves = append(moves, p)
		}
	}
	return moves
}

func pawnCapture(moves []Position, pc *Piece, board *Board, eff Effect) []Position {
	if pc.Type != Pawn {
		return moves
	}
	dr, _ := shared.Forward(pc.Color).Delta()
	var targets []Position
	switch strings.ToLower(eff.Text("directions", "both")) {
	case "forward":
		targets = []Position{pc.Position.Add(dr, 0)}
	case "lateral", "sideways":
		targets = []Position{pc.Position.Add(0, -1), pc.Position.Add(0, 1)}
	default:
		targets = []Position{pc.Position.Add(dr, 0), pc.Position.Add(0, -1), pc.Position.Add(0, 1)}
	}
	for _, p := range targets {
		if occupant := board.At(p); occupant != nil && occupant.Color != pc.Color {
			moves = append(moves, p)
		}
	}
	return moves
}

func retreat(moves []Position, pc *Piece, board *Board) []Position {
	if pc.Type != Pawn {
		return moves
	}
	dr, _ := shared.Forward(pc.Color).Delta()
	if p := pc.Position.Add(-dr, 0); board.Empty(p) {
		moves = append(moves, p)
	}
	return moves
}

func burstAdvance(moves []Position, pc *Piece, board *Board, eff Effect) []Position {
	if pc.Type != Pawn {
		return moves
	}
	dr, _ := shared.Forward(pc.Color).Delta()
	if eff.Bool("disableDiagonalCapture", false) {
		kept := moves[:0:0]
		for _, p := range moves {
			if p.Row == pc.Position.Row+dr && shared.Abs(p.Col-pc.Position.Col) == 1 {
				continue
			}
			kept = append(kept, p)
		}
		moves = kept
	}
	n := eff.Int("squares", 3)
	if n <= 0 {
		return moves
	}
	target := pc.Position.Add(n*dr, 0)
	if !target.InBounds() {
		return moves
	}
	if occupant := board.At(target); occupant == nil || (occupant.Color != pc.Color && occupant.Type != King) {
		moves = append(moves, target)
	}
	return moves
}

func kingKnightJump(moves []Position, pc *Piece, state *GameState, board *Board) []Position {
	if pc.Type != King || state.KnightJumpUsed[pc.Color.Index()] {
		return moves
	}
	return append(moves, offsetMoves(board, pc, knightOffsets[:])...)
}

func limitMoves(moves []Position, eff Effect) []Position {
	keep := eff.Int("max", 1)
	if keep < 0 {
		keep = 1
	}
	if len(moves) > keep {
		return moves[:keep:keep]
	}
	return moves
}

func extendedPawnCapture(moves []Position, pc *Piece, board *Board, eff Effect) []Position {
	if pc.Type != Pawn {
		return moves
	}
	n := eff.Int("range", 2)
	if n <= 0 {
		n = 2
	}
	fwd := shared.Forward(pc.Color)
	dirs := []Direction{shared.DirNE, shared.DirNW}
	if fwd == shared.DirS {
		dirs = []Direction{shared.DirSE, shared.DirSW}
	}
	for _, d := range dirs {
		cur := pc.Position
		for i := 0; i < n; i++ {
			cur = cur.Step(d)
			if !cur.InBounds() {
				break
			}
			occupant := board.At(cur)
			if occupant == nil {
				continue
			}
			if occupant.Color != pc.Color {
				moves = append(moves, cur)
			}
			break
		}
	}
	return moves
}

// isKnightJump reports whether a king move used the knight pattern.
func isKnightJump(from, to Position) bool {
	dr, dc := shared.Abs(to.Row-from.Row), shared.Abs(to.Col-from.Col)
	return (dr == 1 && dc == 2) || (dr == 2 && dc == 1)
}
