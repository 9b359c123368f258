package game

import (
	"fmt"
	"math/rand"
)

// ApplySecretSetup shuffles the non-king back-rank pieces of both sides.
// It runs once per game and only before the first move.
func ApplySecretSetup(state GameState, rng *rand.Rand) (GameState, error) {
	if state.SecretSetupApplied {
		return state, nil
	}
	if len(state.History) > 0 {
		return state, fmt.Errorf("%w: secret setup after %d moves", ErrInvalidSetup, len(state.History))
	}
	next := state.Clone()
	next.Events = nil
	for _, c := range []Color{White, Black} {
		row := homeRow(c)
		var squares []Position
		var pieces []*Piece
		for col := 0; col < 8; col++ {
			p := Position{Row: row, Col: col}
			pc := next.Board.At(p)
			if pc == nil || pc.Color != c || pc.Type == King {
				continue
			}
			squares = append(squares, p)
			pieces = append(pieces, next.Board.Remove(p))
		}
		rng.Shuffle(len(pieces), func(i, j int) { pieces[i], pieces[j] = pieces[j], pieces[i] })
		for i, pc := range pieces {
			next.Board.Set(squares[i], pc)
		}
	}
	next.SecretSetupApplied = true
	next.PositionCounts = map[string]int{next.Board.Signature(): 1}
	next.Status = computeStatus(next.Board, next.CurrentPlayer, &next)
	return next, nil
}

// SecretSetupEnabled reports whether an active rule asks for a shuffled
// back rank.
func (s *GameState) SecretSetupEnabled() bool {
	for _, rule := range s.Rules {
		if rule.Active && rule.HasEffect(EffectSecretSetup) {
			return true
		}
	}
	return false
}
