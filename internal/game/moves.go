package game

import "chess_architect/internal/shared"

// MovePurpose tells the generator whether the caller wants moves to play or
// squares attacked. Attack queries skip castling and non-capturing pawn
// pushes, which keeps castling safety checks from recursing.
type MovePurpose uint8

const (
	PurposeMovement MovePurpose = iota
	PurposeAttack
)

type MoveOptions struct {
	IncludeCastling bool
	Purpose         MovePurpose
}

type moveDelta struct {
	dr int
	dc int
}

var (
	knightOffsets = [...]moveDelta{
		{dr: 2, dc: 1},
		{dr: 1, dc: 2},
		{dr: -1, dc: 2},
		{dr: -2, dc: 1},
		{dr: -2, dc: -1},
		{dr: -1, dc: -2},
		{dr: 1, dc: -2},
		{dr: 2, dc: -1},
	}
	kingOffsets = [...]moveDelta{
		{dr: 1, dc: 0}, {dr: 1, dc: 1}, {dr: 0, dc: 1}, {dr: -1, dc: 1},
		{dr: -1, dc: 0}, {dr: -1, dc: -1}, {dr: 0, dc: -1}, {dr: 1, dc: -1},
	}
)

// pieceDirections are the sliding (or stepping) directions a piece type
// moves along by default. Knights have none.
func pieceDirections(pc *Piece) []Direction {
	switch pc.Type {
	case Bishop:
		return shared.DiagonalDirections
	case Rook:
		return shared.OrthogonalDirections
	case Queen, King:
		return shared.AllDirections
	case Pawn:
		return []Direction{shared.Forward(pc.Color)}
	default:
		return nil
	}
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func promotionRow(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

func homeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

// BaseMoves generates the geometric candidate squares for pc without rules
// and without self-check filtering.
func BaseMoves(board *Board, pc *Piece, state *GameState, opts MoveOptions) []Position {
	if pc == nil {
		return nil
	}
	switch pc.Type {
	case Pawn:
		return pawnMoves(board, pc, state, opts.Purpose)
	case Knight:
		return offsetMoves(board, pc, knightOffsets[:])
	case Bishop:
		return slidingMoves(board, pc, shared.DiagonalDirections, 8)
	case Rook:
		return slidingMoves(board, pc, shared.OrthogonalDirections, 8)
	case Queen:
		return slidingMoves(board, pc, shared.AllDirections, 8)
	case King:
		moves := offsetMoves(board, pc, kingOffsets[:])
		if opts.IncludeCastling && opts.Purpose == PurposeMovement {
			moves = append(moves, castlingMoves(board, pc, state)...)
		}
		return moves
	default:
		return nil
	}
}

func pawnMoves(board *Board, pc *Piece, state *GameState, purpose MovePurpose) []Position {
	var moves []Position
	dr, _ := shared.Forward(pc.Color).Delta()
	from := pc.Position

	if purpose == PurposeMovement {
		one := from.Add(dr, 0)
		if board.Empty(one) {
			moves = append(moves, one)
			two := from.Add(2*dr, 0)
			if !pc.HasMoved && from.Row == pawnStartRow(pc.Color) && board.Empty(two) {
				moves = append(moves, two)
			}
		}
	}

	for _, dc := range []int{-1, 1} {
		target := from.Add(dr, dc)
		if !target.InBounds() {
			continue
		}
		if purpose == PurposeAttack {
			moves = append(moves, target)
			continue
		}
		if occupant := board.At(target); occupant != nil {
			if occupant.Color != pc.Color {
				moves = append(moves, target)
			}
			continue
		}
		if ep, ok := enPassantTarget(pc, state); ok && ep == target {
			moves = append(moves, target)
		}
	}
	return moves
}

// enPassantTarget inspects the most recent history entry for a two-square
// advance by an enemy pawn landing beside pc.
func enPassantTarget(pc *Piece, state *GameState) (Position, bool) {
	if state == nil || pc.Type != Pawn {
		return Position{}, false
	}
	last := state.lastHistory()
	if last == nil || last.Piece == nil || last.Piece.Type != Pawn || last.Piece.Color == pc.Color {
		return Position{}, false
	}
	if shared.Abs(last.To.Row-last.From.Row) != 2 || last.From.Col != last.To.Col {
		return Position{}, false
	}
	if last.To.Row != pc.Position.Row || shared.Abs(last.To.Col-pc.Position.Col) != 1 {
		return Position{}, false
	}
	dr, _ := shared.Forward(pc.Color).Delta()
	return Position{Row: pc.Position.Row + dr, Col: last.To.Col}, true
}

func offsetMoves(board *Board, pc *Piece, offsets []moveDelta) []Position {
	moves := make([]Position, 0, len(offsets))
	for _, d := range offsets {
		target := pc.Position.Add(d.dr, d.dc)
		if !target.InBounds() {
			continue
		}
		if occupant := board.At(target); occupant == nil || occupant.Color != pc.Color {
			moves = append(moves, target)
		}
	}
	return moves
}

// slidingMoves walks each direction up to limit squares, stopping at the
// first occupant (included when it is an enemy).
func slidingMoves(board *Board, pc *Piece, dirs []Direction, limit int) []Position {
	var moves []Position
	for _, d := range dirs {
		moves = append(moves, walk(board, pc, pc.Position, d, limit)...)
	}
	return moves
}

func walk(board *Board, pc *Piece, start Position, d Direction, limit int) []Position {
	var moves []Position
	cur := start
	for i := 0; i < limit; i++ {
		cur = cur.Step(d)
		if !cur.InBounds() {
			break
		}
		occupant := board.At(cur)
		if occupant == nil {
			moves = append(moves, cur)
			continue
		}
		if occupant.Color != pc.Color {
			moves = append(moves, cur)
		}
		break
	}
	return moves
}

func castlingMoves(board *Board, king *Piece, state *GameState) []Position {
	if king.HasMoved {
		return nil
	}
	var moves []Position
	for _, side := range []int{1, -1} {
		if dest, ok := castleDestination(board, king, state, side); ok {
			moves = append(moves, dest)
		}
	}
	return moves
}

// castleDestination checks one castling side: +1 is kingside, -1 queenside.
func castleDestination(board *Board, king *Piece, state *GameState, side int) (Position, bool) {
	row, col := king.Position.Row, king.Position.Col
	rookCol := 7
	if side < 0 {
		rookCol = 0
	}
	rook := board.At(Position{Row: row, Col: rookCol})
	if rook == nil || rook.Type != Rook || rook.Color != king.Color || rook.HasMoved {
		return Position{}, false
	}
	for c := col + side; c != rookCol; c += side {
		if !board.Empty(Position{Row: row, Col: c}) {
			return Position{}, false
		}
	}
	dest := Position{Row: row, Col: col + 2*side}
	if !dest.InBounds() || shared.Abs(rookCol-col) < 3 {
		return Position{}, false
	}

	enemy := king.Color.Opposite()
	for _, c := range []int{col, col + side, col + 2*side} {
		if IsSquareAttacked(board, Position{Row: row, Col: c}, enemy, state) {
			return Position{}, false
		}
	}
	return dest, true
}

// castlingRook returns the rook squares for a king move that castles.
func castlingRook(from, to Position) (Position, Position) {
	if to.Col > from.Col {
		return Position{Row: from.Row, Col: 7}, Position{Row: from.Row, Col: to.Col - 1}
	}
	return Position{Row: from.Row, Col: 0}, Position{Row: from.Row, Col: to.Col + 1}
}

func isCastlingMove(pc *Piece, from, to Position) bool {
	return pc != nil && pc.Type == King && from.Row == to.Row && shared.Abs(to.Col-from.Col) == 2
}

// isEnPassantMove reports whether a pawn step to `to` takes the pawn that
// just advanced two squares. Other diagonal steps onto empty squares, such
// as rule-granted ones, capture nothing.
func isEnPassantMove(board *Board, pc *Piece, from, to Position, state *GameState) bool {
	if pc == nil || pc.Type != Pawn || pc.Position != from || !board.Empty(to) {
		return false
	}
	ep, ok := enPassantTarget(pc, state)
	return ok && ep == to
}
