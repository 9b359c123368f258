// Package game implements the rule-programmable chess engine: board model,
// move generation, rule evaluation, legality, turn resolution and ordnance.
package game

import (
	"fmt"
	"time"
)

// now is replaced in tests that compare timestamps.
var now = time.Now

// ResolveTurn plays pc to dest and threads every rule side effect through a
// fixed pipeline, returning the next state. The input state is never
// modified. An illegal request returns the input state and an error wrapping
// ErrInvalidMove (or a more specific sentinel), which interactive callers
// may ignore.
func ResolveTurn(state GameState, pc *Piece, dest Position, decisionMs *int64) (GameState, error) {
	if state.Status.Terminal() {
		return state, fmt.Errorf("%w: status %s", ErrGameOver, state.Status)
	}
	if pc == nil {
		return state, fmt.Errorf("%w: nil piece", ErrNoPiece)
	}
	actual := state.Board.At(pc.Position)
	if actual == nil || actual.Color != pc.Color || actual.Type != pc.Type {
		return state, fmt.Errorf("%w: %s", ErrNoPiece, pc.Position)
	}
	if actual.Color != state.CurrentPlayer {
		return state, fmt.Errorf("%w: %s to move", ErrNotYourTurn, state.CurrentPlayer)
	}
	if !IsLegalMove(state.Board, actual, dest, &state) {
		return state, fmt.Errorf("%w: %s-%s", ErrInvalidMove, actual.Position, dest)
	}

	next := state.Clone()
	next.Events = nil
	t := &turn{
		prev:       &state,
		next:       &next,
		piece:      actual.Clone(),
		mover:      actual.Color,
		opp:        actual.Color.Opposite(),
		decisionMs: decisionMs,
	}

	t.buildMove(dest)    // 1
	t.execute()          // 2
	t.boardSideEffects() // 3
	t.capturePlants()    // 4
	t.recordCaptures()   // 5
	t.updateMirror()     // 6
	t.captureTempo()     // 7
	t.updateFreezes()    // 8
	t.clearReplay()      // 9
	t.pawnRefund()       // 10
	t.trackRepetition()  // 11
	t.revealOpening()    // 12
	t.opponentStatus()   // 13
	t.checkReplay()      // 14
	t.countExtraMoves()  // 15
	t.passOrContinue()   // 16
	t.finalize()         // 17
	return next, nil
}

// MoveRequest addresses a move by squares, for transports and the search.
type MoveRequest struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Play resolves a move given by squares against the current position.
func Play(state GameState, req MoveRequest, decisionMs *int64) (GameState, error) {
	pc := state.Board.At(req.From)
	if pc == nil {
		return state, fmt.Errorf("%w: %s", ErrNoPiece, req.From)
	}
	return ResolveTurn(state, pc, req.To, decisionMs)
}

// turn carries one ResolveTurn invocation through its pipeline steps.
// Rules are evaluated against prev and the pre-move piece.
type turn struct {
	prev       *GameState
	next       *GameState
	piece      *Piece
	moved      *Piece
	mover      Color
	opp        Color
	move       *Move
	oppStatus  Status
	decisionMs *int64
}

func (t *turn) effects(kind EffectKind) []ruleEffect {
	return activeEffects(t.prev, t.piece, kind)
}

func (t *turn) emit(kind string, at Position, ruleID string) {
	t.next.Events = append(t.next.Events, Event{Kind: kind, Position: at, RuleID: ruleID})
}
