package game

// IsSquareAttacked reports whether any piece of color by attacks sq on
// board. Pawns attack both forward diagonals whether or not they are empty.
func IsSquareAttacked(board *Board, sq Position, by Color, state *GameState) bool {
	if board == nil {
		return false
	}
	for _, attacker := range board.Pieces(by) {
		for _, p := range attackSquares(board, attacker, state) {
			if p == sq {
				return true
			}
		}
	}
	return false
}

// IsInCheck degrades to false when color has no king.
func IsInCheck(board *Board, color Color, state *GameState) bool {
	kingSq, ok := board.FindKing(color)
	if !ok {
		return false
	}
	return IsSquareAttacked(board, kingSq, color.Opposite(), state)
}

// HasAnyLegalMoves stops at the first piece with a surviving move.
func HasAnyLegalMoves(board *Board, color Color, state *GameState) bool {
	for _, pc := range board.Pieces(color) {
		if !mirrorAllows(board, pc, state) {
			continue
		}
		if hasLegalMove(board, pc, state) {
			return true
		}
	}
	return false
}

// computeStatus classifies the position for the side to move. Draw and
// timeout are only ever set from outside.
func computeStatus(board *Board, toMove Color, state *GameState) Status {
	inCheck := IsInCheck(board, toMove, state)
	hasMove := HasAnyLegalMoves(board, toMove, state)
	switch {
	case inCheck && !hasMove:
		return StatusCheckmate
	case !hasMove:
		return StatusStalemate
	case inCheck:
		return StatusCheck
	default:
		return StatusActive
	}
}
