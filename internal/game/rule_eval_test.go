package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movementRule(id string, pieces []string, effects ...Effect) Rule {
	return Rule{ID: id, Name: id, AffectedPieces: pieces, Effects: effects, Active: true}
}

func TestBishopRangeExtension(t *testing.T) {
	limit := NewEffect("limitMoves", map[string]any{"max": 1})
	extend := NewEffect("extendRange", map[string]any{"direction": "diagonal", "range": 2})
	rules := []Rule{movementRule("long-bishop", []string{"bishop"}, limit, extend)}

	t.Run("two beyond furthest reach", func(t *testing.T) {
		b := layout(t, map[string]string{"c1": "B", "e1": "K", "e8": "k"})
		s := NewGameFromBoard(b, White, rules)
		bishop := s.Board.At(sq("c1"))

		// Limited to d2, then two further along each diagonal.
		assert.ElementsMatch(t, squares("d2", "e3", "f4", "b2", "a3"), LegalMoves(s.Board, bishop, &s))
	})

	t.Run("stops at first occupant", func(t *testing.T) {
		b := layout(t, map[string]string{"c1": "B", "e1": "K", "e8": "k", "e3": "p", "b2": "P"})
		s := NewGameFromBoard(b, White, rules)
		bishop := s.Board.At(sq("c1"))
		assert.ElementsMatch(t, squares("d2", "e3"), LegalMoves(s.Board, bishop, &s))
	})

	t.Run("inactive rule", func(t *testing.T) {
		b := layout(t, map[string]string{"c1": "B", "e1": "K", "e8": "k"})
		inactive := []Rule{rules[0].WithActive(false)}
		s := NewGameFromBoard(b, White, inactive)
		bishop := s.Board.At(sq("c1"))
		assert.Len(t, LegalMoves(s.Board, bishop, &s), 7)
	})
}

func TestMovementEffects(t *testing.T) {
	tests := []struct {
		name   string
		pieces map[string]string
		from   string
		effect Effect
		want   []string
	}{
		{
			name:   "bonus range extends a reached direction",
			pieces: map[string]string{"d3": "P", "h8": "k", "h1": "K"},
			from:   "d3",
			effect: NewEffect("bonusRange", map[string]any{"bonus": 1}),
			want:   []string{"d4", "d5"},
		},
		{
			name:   "bonus range skips a blocked direction",
			pieces: map[string]string{"d3": "P", "d4": "n", "h8": "k", "h1": "K"},
			from:   "d3",
			effect: NewEffect("bonusRange", map[string]any{"bonus": 2}),
			want:   []string{},
		},
		{
			name:   "jump over ally",
			pieces: map[string]string{"a1": "R", "a3": "P", "a6": "p", "h8": "k", "h2": "K"},
			from:   "a1",
			effect: NewEffect("jumpOverAlly", nil),
			want:   []string{"a2", "b1", "c1", "d1", "e1", "f1", "g1", "h1", "a4", "a5", "a6"},
		},
		{
			name:   "lateral pawn",
			pieces: map[string]string{"d4": "P", "e4": "p", "h8": "k", "h1": "K"},
			from:   "d4",
			effect: NewEffect("lateralMove", nil),
			want:   []string{"d5", "c4"},
		},
		{
			name:   "pawn captures sideways",
			pieces: map[string]string{"d4": "P", "e4": "p", "d5": "n", "h8": "k", "h1": "K"},
			from:   "d4",
			effect: NewEffect("pawnCapture", map[string]any{"directions": "both"}),
			want:   []string{"d5", "e4"},
		},
		{
			name:   "retreat",
			pieces: map[string]string{"d4": "P", "h8": "k", "h1": "K"},
			from:   "d4",
			effect: NewEffect("retreat", nil),
			want:   []string{"d5", "d3"},
		},
		{
			name:   "burst advance ignores blockers",
			pieces: map[string]string{"d2": "P", "d3": "p", "e3": "n", "h8": "k", "h1": "K"},
			from:   "d2",
			effect: NewEffect("burstAdvance", map[string]any{"squares": 3, "disableDiagonalCapture": true}),
			want:   []string{"d5"},
		},
		{
			name:   "extended pawn capture",
			pieces: map[string]string{"d2": "P", "f4": "b", "h8": "k", "h1": "K"},
			from:   "d2",
			effect: NewEffect("extendedPawnCapture", map[string]any{"range": 2}),
			want:   []string{"d3", "f4"},
		},
		{
			name:   "knight gains straight lines",
			pieces: map[string]string{"d4": "N", "h8": "k", "h1": "K"},
			from:   "d4",
			effect: NewEffect("addMovementPattern", map[string]any{"pattern": "straight", "range": 1}),
			want:   []string{"b3", "b5", "c2", "c6", "e2", "e6", "f3", "f5", "d5", "e4", "d3", "c4"},
		},
		{
			name:   "king knight jump",
			pieces: map[string]string{"a1": "K", "h8": "k"},
			from:   "a1",
			effect: NewEffect("kingKnightJump", nil),
			want:   []string{"a2", "b1", "b2", "b3", "c2"},
		},
		{
			name:   "double move after moving",
			pieces: map[string]string{"d3": "P", "h8": "k", "h1": "K"},
			from:   "d3",
			effect: NewEffect("allowDoubleMove", nil),
			want:   []string{"d4", "d5"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			b := layout(t, tt.pieces)
			if pc := b.At(sq(tt.from)); pc != nil && pc.Type == Pawn {
				pc.HasMoved = true
			}
			s := NewGameFromBoard(b, White, []Rule{movementRule("r", nil, tt.effect)})
			pc := s.Board.At(sq(tt.from))
			require.NotNil(t, pc)
			assert.ElementsMatch(t, squares(tt.want...), LegalMoves(s.Board, pc, &s))
		})
	}
}

func TestTeleportSkipsKingsAndAllies(t *testing.T) {
	b := layout(t, map[string]string{"a1": "N", "b1": "P", "e1": "K", "e8": "k", "c8": "r"})
	s := NewGameFromBoard(b, White, []Rule{movementRule("tp", []string{"knight"}, NewEffect("teleport", map[string]any{"every": 1}))})
	knight := s.Board.At(sq("a1"))
	moves := LegalMoves(s.Board, knight, &s)
	assert.Contains(t, moves, sq("c8"))
	assert.Contains(t, moves, sq("h4"))
	assert.NotContains(t, moves, sq("e8"))
	assert.NotContains(t, moves, sq("b1"))
	assert.NotContains(t, moves, sq("e1"))
	assert.Len(t, moves, 64-4)
}

func TestFrozenPieceHasNoMoves(t *testing.T) {
	b := layout(t, map[string]string{"d4": "Q", "e1": "K", "e8": "k"})
	s := NewGameFromBoard(b, White, nil)
	s.Freezes = []FreezeEffect{{Color: White, Position: sq("d4"), Remaining: 1}}
	assert.Empty(t, LegalMoves(s.Board, s.Board.At(sq("d4")), &s))

	s.Freezes[0].Remaining = 0
	assert.NotEmpty(t, LegalMoves(s.Board, s.Board.At(sq("d4")), &s))
}

func TestRuleApplies(t *testing.T) {
	pawn := NewPiece(Pawn, White, sq("e2"))
	s := NewGame(nil)

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{name: "inactive", rule: Rule{Active: false}, want: false},
		{name: "all pieces", rule: Rule{Active: true, AffectedPieces: []string{"all"}}, want: true},
		{name: "other piece", rule: Rule{Active: true, AffectedPieces: []string{"knight"}}, want: false},
		{
			name: "color matches",
			rule: Rule{Active: true, Conditions: []Condition{{Type: CondPieceColor, Operator: OpEquals, Value: "white"}}},
			want: true,
		},
		{
			name: "color in list",
			rule: Rule{Active: true, Conditions: []Condition{{Type: CondPieceColor, Operator: OpIn, Value: []any{"black"}}}},
			want: false,
		},
		{
			name: "turn number",
			rule: Rule{Active: true, Conditions: []Condition{{Type: CondTurnNumber, Operator: OpGreaterOrEqual, Value: 1.0}}},
			want: true,
		},
		{
			name: "has moved",
			rule: Rule{Active: true, Conditions: []Condition{{Type: CondHasMoved, Operator: OpEquals, Value: true}}},
			want: false,
		},
		{
			name: "game phase",
			rule: Rule{Active: true, Conditions: []Condition{{Type: CondGamePhase, Operator: OpEquals, Value: "opening"}}},
			want: true,
		},
		{
			name: "piece count",
			rule: Rule{Active: true, Conditions: []Condition{{Type: CondPieceCount, Operator: OpLessThan, Value: 16}}},
			want: false,
		},
		{
			name: "repetition count",
			rule: Rule{Active: true, Conditions: []Condition{{Type: CondRepetitionCount, Operator: OpEquals, Value: "1"}}},
			want: true,
		},
		{
			name: "malformed operand",
			rule: Rule{Active: true, Conditions: []Condition{{Type: CondTurnNumber, Operator: OpGreaterThan, Value: "soon"}}},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RuleApplies(tt.rule, pawn, &s))
		})
	}
}

func TestUnsupportedEffectIsDiagnosed(t *testing.T) {
	var rule Rule
	require.NoError(t, json.Unmarshal([]byte(`{
		"ruleId": "odd",
		"name": "Odd",
		"active": true,
		"effects": [{"action": "summonDragon", "params": {"size": 9}}]
	}`), &rule))
	assert.Equal(t, EffectUnsupported, rule.Effects[0].Kind)

	s := NewGame([]Rule{rule})
	require.Len(t, s.Diagnostics, 1)
	assert.Contains(t, s.Diagnostics[0], "summonDragon")
	assert.Equal(t, 20, countLegal(s))
}

func TestMalformedParamsUseDefaults(t *testing.T) {
	eff := NewEffect("extendRange", map[string]any{"range": "far", "direction": 42})
	assert.Equal(t, 1, eff.Int("range", 1))
	assert.Equal(t, "", eff.Text("direction", ""))
	assert.Equal(t, Queen, eff.PieceType("promoteTo", Queen))
}
