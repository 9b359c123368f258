package game

import (
	"github.com/google/uuid"

	"chess_architect/internal/shared"
)

type DetonationTrigger string

const (
	DetonateOnCountdown DetonationTrigger = "countdown"
	DetonateOnContact   DetonationTrigger = "contact"
)

type DetonationEffect string

const (
	DetonationCapture DetonationEffect = "capture"
	DetonationFreeze  DetonationEffect = "freeze"
)

// OrdnanceSpec describes a deployable area device.
type OrdnanceSpec struct {
	Kind        string            `json:"kind"`
	Trigger     DetonationTrigger `json:"trigger"`
	Countdown   int               `json:"countdown,omitempty"`
	Radius      int               `json:"radius"`
	Effect      DetonationEffect  `json:"effect"`
	FreezeTurns int               `json:"freezeTurns,omitempty"`
	Animation   string            `json:"animation,omitempty"`
	Sound       string            `json:"sound,omitempty"`
}

func MineSpec(countdown int) OrdnanceSpec {
	return OrdnanceSpec{
		Kind:      "mine",
		Trigger:   DetonateOnCountdown,
		Countdown: countdown,
		Radius:    1,
		Effect:    DetonationCapture,
		Animation: "explosion",
		Sound:     "boom",
	}
}

func TrapSpec() OrdnanceSpec {
	return OrdnanceSpec{
		Kind:      "trap",
		Trigger:   DetonateOnContact,
		Radius:    0,
		Effect:    DetonationCapture,
		Animation: "snap",
		Sound:     "clack",
	}
}

func BombSpec() OrdnanceSpec {
	return OrdnanceSpec{
		Kind:      "bomb",
		Trigger:   DetonateOnCountdown,
		Countdown: 3,
		Radius:    2,
		Effect:    DetonationCapture,
		Animation: "explosion-large",
		Sound:     "boom",
	}
}

func FreezeBombSpec() OrdnanceSpec {
	return OrdnanceSpec{
		Kind:        "freeze-bomb",
		Trigger:     DetonateOnCountdown,
		Countdown:   2,
		Radius:      1,
		Effect:      DetonationFreeze,
		FreezeTurns: 2,
		Animation:   "frost",
		Sound:       "crackle",
	}
}

// SpecByKind returns the built-in spec for a kind name.
func SpecByKind(kind string) (OrdnanceSpec, bool) {
	switch kind {
	case "mine":
		return MineSpec(2), true
	case "trap":
		return TrapSpec(), true
	case "bomb":
		return BombSpec(), true
	case "freeze-bomb", "freeze":
		return FreezeBombSpec(), true
	default:
		return OrdnanceSpec{}, false
	}
}

// Ordnance is one armed instance. Instances leave the state when they
// detonate.
type Ordnance struct {
	ID        string   `json:"id"`
	Owner     Color    `json:"owner"`
	Position  Position `json:"position"`
	Remaining int      `json:"remaining"`
	OrdnanceSpec
}

type RejectReason string

const (
	RejectOccupied    RejectReason = "occupied"
	RejectDuplicate   RejectReason = "duplicate-position"
	RejectInvalid     RejectReason = "invalid-square"
	RejectWrongState  RejectReason = "wrong-game-state"
	RejectInvalidSpec RejectReason = "invalid-spec"
)

type DeployResult struct {
	OK       bool         `json:"ok"`
	Reason   RejectReason `json:"reason,omitempty"`
	Ordnance *Ordnance    `json:"ordnance,omitempty"`
}

// Deploy arms an ordnance instance at origin. Rejections leave the state
// unchanged and carry a reason instead of an error.
func Deploy(state GameState, owner Color, spec OrdnanceSpec, origin Position, allowOccupied bool) (GameState, DeployResult) {
	if state.Status.Terminal() {
		return state, DeployResult{Reason: RejectWrongState}
	}
	if !origin.InBounds() {
		return state, DeployResult{Reason: RejectInvalid}
	}
	if spec.Trigger != DetonateOnCountdown && spec.Trigger != DetonateOnContact {
		return state, DeployResult{Reason: RejectInvalidSpec}
	}
	for _, ord := range state.Ordnance {
		if ord.Position == origin {
			return state, DeployResult{Reason: RejectDuplicate}
		}
	}
	if !allowOccupied && state.Board.At(origin) != nil {
		return state, DeployResult{Reason: RejectOccupied}
	}

	if spec.Radius < 0 {
		spec.Radius = 0
	}
	remaining := 0
	if spec.Trigger == DetonateOnCountdown {
		remaining = spec.Countdown
		if remaining <= 0 {
			remaining = 1
		}
	}
	ord := Ordnance{
		ID:           uuid.NewString(),
		Owner:        owner,
		Position:     origin,
		Remaining:    remaining,
		OrdnanceSpec: spec,
	}
	next := state.Clone()
	next.Events = nil
	next.Ordnance = append(next.Ordnance, ord)
	return next, DeployResult{OK: true, Ordnance: &ord}
}

// Tick advances every countdown instance by one round and detonates those
// reaching zero. It is the only transition driven by the external clock.
func Tick(state GameState) GameState {
	if state.Status.Terminal() || len(state.Ordnance) == 0 {
		return state
	}
	next := state.Clone()
	next.Events = nil

	var fired []Ordnance
	kept := next.Ordnance[:0:0]
	for _, ord := range next.Ordnance {
		if ord.Trigger != DetonateOnCountdown {
			kept = append(kept, ord)
			continue
		}
		ord.Remaining--
		if ord.Remaining <= 0 {
			fired = append(fired, ord)
			continue
		}
		kept = append(kept, ord)
	}
	next.Ordnance = kept

	for _, ord := range fired {
		for _, sc := range detonate(&next, ord) {
			next.Captured = append(next.Captured, sc.Piece)
		}
	}
	if len(fired) > 0 {
		next.Freezes = pruneFreezes(next.Board, next.Freezes)
		next.Status = computeStatus(next.Board, next.CurrentPlayer, &next)
	}
	return next
}

// detonate applies ord to the board of s and returns the pieces it removed.
// Only enemies of the owner are affected and kings are never taken.
func detonate(s *GameState, ord Ordnance) []SpecialCapture {
	var captured []SpecialCapture
	for _, pc := range s.Board.AllPieces() {
		if pc.Color == ord.Owner || pc.Type == King {
			continue
		}
		if shared.Chebyshev(pc.Position, ord.Position) > ord.Radius {
			continue
		}
		switch ord.Effect {
		case DetonationFreeze:
			turns := ord.FreezeTurns
			if turns <= 0 {
				turns = 1
			}
			s.Freezes = append(s.Freezes, FreezeEffect{Color: pc.Color, Position: pc.Position, Remaining: turns})
		default:
			s.Board.Remove(pc.Position)
			captured = append(captured, SpecialCapture{Piece: pc, By: ord.Position, Cause: ord.Kind})
		}
	}
	s.Events = append(s.Events, Event{
		Kind:      EventDetonation,
		Position:  ord.Position,
		Animation: ord.Animation,
		Sound:     ord.Sound,
	})
	return captured
}
