package game

import (
	"strconv"
	"strings"

	"chess_architect/internal/shared"
)

// RuleApplies tests whether an active rule covers pc in the given state.
func RuleApplies(rule Rule, pc *Piece, state *GameState) bool {
	if !rule.Active || pc == nil {
		return false
	}
	if !affects(rule.AffectedPieces, pc.Type) {
		return false
	}
	for _, cond := range rule.Conditions {
		if !evalCondition(cond, pc, state) {
			return false
		}
	}
	return true
}

func affects(list []string, pt PieceType) bool {
	if len(list) == 0 {
		return true
	}
	for _, name := range list {
		if strings.EqualFold(name, AllPiecesSentinel) {
			return true
		}
		if parsed, ok := shared.ParsePieceType(name); ok && parsed == pt {
			return true
		}
	}
	return false
}

func evalCondition(cond Condition, pc *Piece, state *GameState) bool {
	switch cond.Type {
	case CondPieceType:
		return compareString(pc.Type.String(), cond.Operator, cond.Value)
	case CondPieceColor:
		return compareString(pc.Color.String(), cond.Operator, cond.Value)
	case CondHasMoved:
		return compareString(strconv.FormatBool(pc.HasMoved), cond.Operator, cond.Value)
	}
	if state == nil {
		return false
	}
	switch cond.Type {
	case CondTurnNumber:
		return compareInt(state.Turn, cond.Operator, cond.Value)
	case CondMovesThisTurn:
		return compareInt(state.MovesThisTurn, cond.Operator, cond.Value)
	case CondGamePhase:
		return compareString(state.GamePhase(), cond.Operator, cond.Value)
	case CondRepetitionCount:
		return compareInt(state.RepetitionCount(), cond.Operator, cond.Value)
	case CondPieceCount:
		return compareInt(state.Board.Count(pc.Color), cond.Operator, cond.Value)
	default:
		return false
	}
}

func compareString(actual string, op Operator, value any) bool {
	switch op {
	case OpEquals, "":
		return strings.EqualFold(actual, valueText(value))
	case OpNotEquals:
		return !strings.EqualFold(actual, valueText(value))
	case OpIn:
		for _, item := range toStrings(value) {
			if strings.EqualFold(actual, strings.TrimSpace(item)) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func valueText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		items := toStrings(value)
		if len(items) == 0 {
			return ""
		}
		return items[0]
	}
}

func compareInt(actual int, op Operator, value any) bool {
	if op == OpIn {
		for _, item := range toStrings(value) {
			if n, ok := toInt(item); ok && n == actual {
				return true
			}
		}
		return false
	}
	want, ok := toInt(value)
	if !ok {
		return false
	}
	switch op {
	case OpEquals, "":
		return actual == want
	case OpNotEquals:
		return actual != want
	case OpGreaterThan:
		return actual > want
	case OpGreaterOrEqual:
		return actual >= want
	case OpLessThan:
		return actual < want
	case OpLessOrEqual:
		return actual <= want
	default:
		return false
	}
}

// ApplyRules folds the movement effects of every applicable rule over the
// base candidates, in rule then effect declaration order. The result is
// deduplicated with first-occurrence order kept.
func ApplyRules(base []Position, pc *Piece, state *GameState) []Position {
	var board *Board
	if state != nil {
		board = state.Board
	}
	return applyRulesOn(board, base, pc, state, PurposeMovement)
}

// applyRulesOn folds the rules over base for the given purpose. Attack sets
// skip effects that only grant quiet pawn steps, since those never capture.
func applyRulesOn(board *Board, base []Position, pc *Piece, state *GameState, purpose MovePurpose) []Position {
	if pc == nil || pc.IsPlant() {
		return nil
	}
	if state == nil {
		return dedupe(base)
	}
	if state.frozenAt(pc) {
		return nil
	}
	if board == nil {
		board = state.Board
	}
	moves := dedupe(base)
	for _, rule := range state.Rules {
		if !RuleApplies(rule, pc, state) {
			continue
		}
		for _, eff := range rule.Effects {
			if purpose == PurposeAttack && quietPawnEffect(eff.Kind) {
				continue
			}
			moves = applyMovementEffect(eff, moves, pc, state, board)
		}
	}
	return dedupe(moves)
}

func quietPawnEffect(kind EffectKind) bool {
	switch kind {
	case EffectAllowDoubleMove, EffectLateralMove, EffectRetreat:
		return true
	}
	return false
}

// applyMovementEffect is the exhaustive dispatch over the effect catalogue.
// Side-effect kinds are read by ResolveTurn and leave the move set alone.
func applyMovementEffect(eff Effect, moves []Position, pc *Piece, state *GameState, board *Board) []Position {
	switch eff.Kind {
	case EffectExtendRange:
		return extendRange(moves, pc, board, eff)
	case EffectBonusRange:
		return bonusRange(moves, pc, board, eff)
	case EffectAllowDoubleMove:
		return allowDoubleMove(moves, pc, board)
	case EffectJumpOverAlly:
		return jumpOverAlly(moves, pc, board)
	case EffectTeleport:
		return teleport(moves, pc, state, board, eff)
	case EffectAddMovementPattern:
		return addMovementPattern(moves, pc, board, eff)
	case EffectLateralMove:
		return lateralMove(moves, pc, board)
	case EffectPawnCapture:
		return pawnCapture(moves, pc, board, eff)
	case EffectRetreat:
		return retreat(moves, pc, board)
	case EffectBurstAdvance:
		return burstAdvance(moves, pc, board, eff)
	case EffectKingKnightJump:
		return kingKnightJump(moves, pc, state, board)
	case EffectLimitMoves:
		return limitMoves(moves, eff)
	case EffectExtendedPawnCapture:
		return extendedPawnCapture(moves, pc, board, eff)
	case EffectExplodeOnCapture, EffectLeavePhantom, EffectProjectMarker,
		EffectCarnivorousPlant, EffectMirrorResponse, EffectCaptureGrantsTempo,
		EffectFreezeOnStrike, EffectPawnRefund, EffectRepetitionTransform,
		EffectBlindOpening, EffectCheckReplay, EffectExtraMove,
		EffectQuickStrike, EffectSecretSetup:
		return moves
	case EffectUnsupported:
		return moves
	default:
		return moves
	}
}

// activeEffects lists the effects of kind carried by rules that apply to pc.
func activeEffects(state *GameState, pc *Piece, kind EffectKind) []ruleEffect {
	var out []ruleEffect
	for _, rule := range state.Rules {
		if !rule.HasEffect(kind) || !RuleApplies(rule, pc, state) {
			continue
		}
		for _, eff := range rule.Effects {
			if eff.Kind == kind {
				out = append(out, ruleEffect{RuleID: rule.ID, Effect: eff})
			}
		}
	}
	return out
}

// colorEffects lists effects of kind from active rules scoped to color,
// ignoring piece-specific conditions.
func colorEffects(state *GameState, color Color, kind EffectKind) []ruleEffect {
	var out []ruleEffect
	for _, rule := range state.Rules {
		if !rule.Active || !rule.HasEffect(kind) || !coversColor(rule, color) {
			continue
		}
		for _, eff := range rule.Effects {
			if eff.Kind == kind {
				out = append(out, ruleEffect{RuleID: rule.ID, Effect: eff})
			}
		}
	}
	return out
}

func coversColor(rule Rule, color Color) bool {
	for _, c := range ruleColors(rule) {
		if c == color {
			return true
		}
	}
	return false
}

type ruleEffect struct {
	RuleID string
	Effect Effect
}
