package game

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"chess_architect/internal/shared"
)

// AllPiecesSentinel in Rule.AffectedPieces makes a rule apply to every type.
const AllPiecesSentinel = "all"

type TriggerKind string

const (
	TriggerPassive   TriggerKind = "passive"
	TriggerOnMove    TriggerKind = "onMove"
	TriggerOnCapture TriggerKind = "onCapture"
	TriggerOnCheck   TriggerKind = "onCheck"
	TriggerTurnStart TriggerKind = "onTurnStart"
)

type ConditionType string

const (
	CondPieceType       ConditionType = "pieceType"
	CondPieceColor      ConditionType = "pieceColor"
	CondTurnNumber      ConditionType = "turnNumber"
	CondMovesThisTurn   ConditionType = "movesThisTurn"
	CondHasMoved        ConditionType = "hasMoved"
	CondGamePhase       ConditionType = "gamePhase"
	CondRepetitionCount ConditionType = "repetitionCount"
	CondPieceCount      ConditionType = "pieceCount"
)

var conditionTypes = []ConditionType{
	CondPieceType, CondPieceColor, CondTurnNumber, CondMovesThisTurn,
	CondHasMoved, CondGamePhase, CondRepetitionCount, CondPieceCount,
}

func ParseConditionType(s string) (ConditionType, bool) {
	for _, ct := range conditionTypes {
		if strings.EqualFold(string(ct), strings.TrimSpace(s)) {
			return ct, true
		}
	}
	return "", false
}

type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "notEquals"
	OpGreaterThan    Operator = "greaterThan"
	OpGreaterOrEqual Operator = "greaterOrEqual"
	OpLessThan       Operator = "lessThan"
	OpLessOrEqual    Operator = "lessOrEqual"
	OpIn             Operator = "in"
)

// ParseOperator accepts both the named and the symbolic spelling.
func ParseOperator(s string) (Operator, bool) {
	switch strings.TrimSpace(s) {
	case "equals", "==", "=", "eq":
		return OpEquals, true
	case "notEquals", "!=", "neq":
		return OpNotEquals, true
	case "greaterThan", ">", "gt":
		return OpGreaterThan, true
	case "greaterOrEqual", ">=", "gte":
		return OpGreaterOrEqual, true
	case "lessThan", "<", "lt":
		return OpLessThan, true
	case "lessOrEqual", "<=", "lte":
		return OpLessOrEqual, true
	case "in":
		return OpIn, true
	default:
		return "", false
	}
}

// Condition is one applicability test of a rule. Value is a string, number,
// bool or list, as decoded from the rule document.
type Condition struct {
	Type     ConditionType `json:"type"`
	Operator Operator      `json:"operator"`
	Value    any           `json:"value"`
}

// EffectKind is the closed catalogue of effects the engine interprets.
type EffectKind uint8

const (
	EffectUnsupported EffectKind = iota

	// movement
	EffectExtendRange
	EffectBonusRange
	EffectAllowDoubleMove
	EffectJumpOverAlly
	EffectTeleport
	EffectAddMovementPattern
	EffectLateralMove
	EffectPawnCapture
	EffectRetreat
	EffectBurstAdvance
	EffectKingKnightJump
	EffectLimitMoves
	EffectExtendedPawnCapture

	// turn side effects
	EffectExplodeOnCapture
	EffectLeavePhantom
	EffectProjectMarker
	EffectCarnivorousPlant
	EffectMirrorResponse
	EffectCaptureGrantsTempo
	EffectFreezeOnStrike
	EffectPawnRefund
	EffectRepetitionTransform
	EffectBlindOpening
	EffectCheckReplay
	EffectExtraMove
	EffectQuickStrike
	EffectSecretSetup
)

var effectTags = map[EffectKind]string{
	EffectExtendRange:         "extendRange",
	EffectBonusRange:          "bonusRange",
	EffectAllowDoubleMove:     "allowDoubleMove",
	EffectJumpOverAlly:        "jumpOverAlly",
	EffectTeleport:            "teleport",
	EffectAddMovementPattern:  "addMovementPattern",
	EffectLateralMove:         "lateralMove",
	EffectPawnCapture:         "pawnCapture",
	EffectRetreat:             "retreat",
	EffectBurstAdvance:        "burstAdvance",
	EffectKingKnightJump:      "kingKnightJump",
	EffectLimitMoves:          "limitMoves",
	EffectExtendedPawnCapture: "extendedPawnCapture",
	EffectExplodeOnCapture:    "explodeOnCapture",
	EffectLeavePhantom:        "leavePhantom",
	EffectProjectMarker:       "projectMarker",
	EffectCarnivorousPlant:    "carnivorousPlant",
	EffectMirrorResponse:      "mirrorResponse",
	EffectCaptureGrantsTempo:  "captureGrantsTempo",
	EffectFreezeOnStrike:      "freezeOnStrike",
	EffectPawnRefund:          "pawnRefund",
	EffectRepetitionTransform: "repetitionTransform",
	EffectBlindOpening:        "blindOpening",
	EffectCheckReplay:         "checkReplay",
	EffectExtraMove:           "extraMove",
	EffectQuickStrike:         "quickStrike",
	EffectSecretSetup:         "secretSetup",
}

var effectKindsByTag = func() map[string]EffectKind {
	out := make(map[string]EffectKind, len(effectTags))
	for kind, tag := range effectTags {
		out[strings.ToLower(tag)] = kind
	}
	return out
}()

func (k EffectKind) String() string {
	if tag, ok := effectTags[k]; ok {
		return tag
	}
	return "unsupported"
}

// Movement reports whether the effect transforms move sets rather than the
// board after a move.
func (k EffectKind) Movement() bool {
	return k >= EffectExtendRange && k <= EffectExtendedPawnCapture
}

// ParseEffectKind maps an action tag to the catalogue. Unknown tags map to
// EffectUnsupported with ok=false.
func ParseEffectKind(tag string) (EffectKind, bool) {
	kind, ok := effectKindsByTag[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return EffectUnsupported, false
	}
	return kind, true
}

// Effect is one action of a rule. Tag keeps the original action string so
// unsupported effects can be reported.
type Effect struct {
	Kind   EffectKind     `json:"-"`
	Tag    string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	type plain Effect
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Effect(p)
	e.Kind, _ = ParseEffectKind(e.Tag)
	return nil
}

func NewEffect(tag string, params map[string]any) Effect {
	kind, _ := ParseEffectKind(tag)
	return Effect{Kind: kind, Tag: tag, Params: params}
}

// Rule is an immutable gameplay modifier. Only Active is ever flipped.
type Rule struct {
	ID             string      `json:"ruleId"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Category       string      `json:"category,omitempty"`
	AffectedPieces []string    `json:"affectedPieces,omitempty"`
	Trigger        TriggerKind `json:"trigger,omitempty"`
	Conditions     []Condition `json:"conditions,omitempty"`
	Effects        []Effect    `json:"effects"`
	Priority       int         `json:"priority,omitempty"`
	Active         bool        `json:"active"`
}

// Normalize resolves effect kinds from their tags, e.g. after JSON decoding.
func (r Rule) Normalize() Rule {
	effects := make([]Effect, len(r.Effects))
	for i, eff := range r.Effects {
		eff.Kind, _ = ParseEffectKind(eff.Tag)
		effects[i] = eff
	}
	r.Effects = effects
	return r
}

// WithActive returns a copy of the rule with the active flag set.
func (r Rule) WithActive(active bool) Rule {
	r.Active = active
	return r
}

func (r Rule) HasEffect(kind EffectKind) bool {
	for _, eff := range r.Effects {
		if eff.Kind == kind {
			return true
		}
	}
	return false
}

// Int reads a numeric parameter, falling back to def when it is missing or
// not a number.
func (e Effect) Int(key string, def int) int {
	v, ok := e.Params[key]
	if !ok {
		return def
	}
	n, ok := toInt(v)
	if !ok {
		return def
	}
	return n
}

func (e Effect) Text(key, def string) string {
	v, ok := e.Params[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

func (e Effect) Bool(key string, def bool) bool {
	v, ok := e.Params[key]
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

func (e Effect) PieceType(key string, def PieceType) PieceType {
	s := e.Text(key, "")
	if s == "" {
		return def
	}
	pt, ok := shared.ParsePieceType(s)
	if !ok {
		return def
	}
	return pt
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case string:
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}
