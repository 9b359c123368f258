package game

// PseudoLegalMoves is the rule-augmented candidate set before self-check
// filtering.
func PseudoLegalMoves(board *Board, pc *Piece, state *GameState) []Position {
	base := BaseMoves(board, pc, state, MoveOptions{IncludeCastling: true, Purpose: PurposeMovement})
	return applyRulesOn(board, base, pc, state, PurposeMovement)
}

func attackSquares(board *Board, pc *Piece, state *GameState) []Position {
	base := BaseMoves(board, pc, state, MoveOptions{Purpose: PurposeAttack})
	return applyRulesOn(board, base, pc, state, PurposeAttack)
}

// LegalMoves returns the destinations of pc that do not leave its own king
// attacked. Enemy kings are never destinations. A forced mirror response
// restricts its color to pawns on the mirrored file while one of them can
// move.
func LegalMoves(board *Board, pc *Piece, state *GameState) []Position {
	if pc == nil || board == nil {
		return nil
	}
	if !mirrorAllows(board, pc, state) {
		return nil
	}
	var out []Position
	for _, to := range PseudoLegalMoves(board, pc, state) {
		if legalDestination(board, pc, to, state) {
			out = append(out, to)
		}
	}
	return out
}

// IsLegalMove reports whether to is among the legal destinations of pc.
func IsLegalMove(board *Board, pc *Piece, to Position, state *GameState) bool {
	for _, p := range LegalMoves(board, pc, state) {
		if p == to {
			return true
		}
	}
	return false
}

func legalDestination(board *Board, pc *Piece, to Position, state *GameState) bool {
	if to == pc.Position {
		return false
	}
	if target := board.At(to); target != nil && (target.Color == pc.Color || target.Type == King) {
		return false
	}
	next := simulate(board, pc, to, state)
	return !IsInCheck(next, pc.Color, state)
}

func hasLegalMove(board *Board, pc *Piece, state *GameState) bool {
	for _, to := range PseudoLegalMoves(board, pc, state) {
		if legalDestination(board, pc, to, state) {
			return true
		}
	}
	return false
}

func mirrorAllows(board *Board, pc *Piece, state *GameState) bool {
	if state == nil || state.ForcedMirror == nil || state.ForcedMirror.Color != pc.Color {
		return true
	}
	if pc.Type == Pawn && pc.Position.Col == state.ForcedMirror.File {
		return true
	}
	return !mirrorSatisfiable(board, state.ForcedMirror, state)
}

func mirrorSatisfiable(board *Board, fm *MirrorConstraint, state *GameState) bool {
	for _, pc := range board.Pieces(fm.Color) {
		if pc.Type == Pawn && pc.Position.Col == fm.File && hasLegalMove(board, pc, state) {
			return true
		}
	}
	return false
}

// simulate plays pc to `to` on a copy of board, including en passant
// removal and the castling rook.
func simulate(board *Board, pc *Piece, to Position, state *GameState) *Board {
	next := board.Clone()
	from := pc.Position
	if isEnPassantMove(board, pc, from, to, state) {
		next.Remove(Position{Row: from.Row, Col: to.Col})
	}
	if isCastlingMove(pc, from, to) {
		rookFrom, rookTo := castlingRook(from, to)
		if rook := next.Remove(rookFrom); rook != nil {
			rook.HasMoved = true
			next.Set(rookTo, rook)
		}
	}
	moved := pc.Clone()
	moved.HasMoved = true
	next.Remove(from)
	next.Set(to, moved)
	return next
}
