// Package ai implements the adversarial search opponent: a depth-limited
// minimax with alpha-beta pruning over fully resolved game states.
package ai

import (
	"context"
	"errors"
	"math/rand"
	"slices"

	"chess_architect/internal/game"
)

const (
	// MateScore is returned for a mated side, adjusted by the remaining depth
	// so that shorter mates score higher.
	MateScore = 1_000_000
	// CheckBonus rewards giving a non-terminal check.
	CheckBonus = 50

	infiniteScore = 1_000_000_000
)

var ErrNoMoves = errors.New("no legal moves")

// Candidate is one root-level option: the move and the state it resolves to.
type Candidate struct {
	Move     game.MoveRequest
	Piece    game.PieceType
	Captured bool
	State    game.GameState
	value    int
}

// GenerateMoves resolves every legal move of color's visible pieces into its
// resultant state. Captures are ordered first, most valuable victim first.
func GenerateMoves(state game.GameState, color game.Color) []Candidate {
	if state.CurrentPlayer != color || state.Status.Terminal() {
		return nil
	}
	var out []Candidate
	for _, pc := range state.Board.Pieces(color) {
		if pc.Hidden {
			continue
		}
		for _, dest := range game.LegalMoves(state.Board, pc, &state) {
			next, err := game.ResolveTurn(state, pc, dest, nil)
			if err != nil {
				continue
			}
			c := Candidate{
				Move:  game.MoveRequest{From: pc.Position, To: dest},
				Piece: pc.Type,
				State: next,
			}
			if victim := state.Board.At(dest); victim != nil && victim.Color != color {
				c.Captured = true
				c.value = game.PieceValues[victim.Type]
			}
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Candidate) int { return b.value - a.value })
	return out
}

// Evaluate scores state from root's point of view.
func Evaluate(state game.GameState, root game.Color) int {
	switch state.Status {
	case game.StatusCheckmate:
		if state.CurrentPlayer == root {
			return -MateScore
		}
		return MateScore
	case game.StatusStalemate, game.StatusDraw, game.StatusTimeout:
		return 0
	}

	score := 0
	for _, pc := range state.Board.AllPieces() {
		v := game.PieceValues[pc.Type]
		if pc.Color == root {
			score += v
		} else {
			score -= v
		}
	}
	if state.Status == game.StatusCheck {
		if state.CurrentPlayer == root {
			score -= CheckBonus
		} else {
			score += CheckBonus
		}
	}
	return score
}

// Minimax searches depth plies below state. The node maximizes when root is
// the side to move, which need not alternate under extra-move rules.
func Minimax(ctx context.Context, state game.GameState, depth int, root game.Color, alpha, beta int) int {
	if depth <= 0 || state.Status.Terminal() || ctx.Err() != nil {
		return leafScore(state, root, depth)
	}
	moves := GenerateMoves(state, state.CurrentPlayer)
	if len(moves) == 0 {
		return leafScore(state, root, depth)
	}

	if state.CurrentPlayer == root {
		best := -infiniteScore
		for _, mv := range moves {
			score := Minimax(ctx, mv.State, depth-1, root, alpha, beta)
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := infiniteScore
	for _, mv := range moves {
		score := Minimax(ctx, mv.State, depth-1, root, alpha, beta)
		if score < best {
			best = score
		}
		if best < beta {
			beta = best
		}
		if beta <= alpha {
			break
		}
	}
	return best
}

func leafScore(state game.GameState, root game.Color, depth int) int {
	score := Evaluate(state, root)
	switch {
	case score >= MateScore:
		return score + depth
	case score <= -MateScore:
		return score - depth
	}
	return score
}

// Scored is a root move with its search score.
type Scored struct {
	Move     game.MoveRequest `json:"move"`
	Notation string           `json:"notation"`
	Score    int              `json:"score"`
}

// FindBestMove scores every root move at cfg.Depth and picks uniformly among
// the cfg.SelectionRange best. rng may be nil for deterministic selection of
// the top move.
func FindBestMove(ctx context.Context, state game.GameState, cfg Config, rng *rand.Rand) (Scored, error) {
	root := state.CurrentPlayer
	moves := GenerateMoves(state, root)
	if len(moves) == 0 {
		return Scored{}, ErrNoMoves
	}
	depth := cfg.Depth
	if depth < 1 {
		depth = 1
	}

	scored := make([]Scored, 0, len(moves))
	for _, mv := range moves {
		if err := ctx.Err(); err != nil {
			return Scored{}, err
		}
		score := Minimax(ctx, mv.State, depth-1, root, -infiniteScore, infiniteScore)
		notation := ""
		if h := mv.State.History; len(h) > 0 {
			notation = h[len(h)-1].Notation
		}
		scored = append(scored, Scored{Move: mv.Move, Notation: notation, Score: score})
	}
	if err := ctx.Err(); err != nil {
		return Scored{}, err
	}

	slices.SortStableFunc(scored, func(a, b Scored) int { return b.Score - a.Score })
	k := cfg.SelectionRange
	if k < 1 {
		k = 1
	}
	if k > len(scored) {
		k = len(scored)
	}
	if rng == nil || k == 1 {
		return scored[0], nil
	}
	return scored[rng.Intn(k)], nil
}
