package ruledoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess_architect/internal/game"
)

const longBishop = `{
  "meta": {"ruleId": "long-bishop", "name": "Long Bishop", "category": "movement", "tags": ["range"]},
  "scope": {"affects": ["bishop"], "colors": ["white"]},
  "ui": {"actions": [{"id": "arm", "label": "Arm", "cooldown": 2}]},
  "state": {"namespace": "lb", "initial": {"uses": 0}},
  "parameters": {"direction": "diagonal"},
  "logic": {
    "effects": [{
      "id": "extend",
      "trigger": "lifecycle.onMove",
      "guards": ["turnNumber >= 2", "hasMoved == false"],
      "actions": [
        {"action": "extendRange", "params": {"range": 2}},
        "vfx.play",
        {"action": "tile.setTrap", "params": {"radius": 1}}
      ],
      "onFail": "skip",
      "message": "bishop cannot extend"
    }]
  }
}`

func TestReduceDocument(t *testing.T) {
	rule, warnings, err := Parse([]byte(longBishop))
	require.NoError(t, err)

	assert.Equal(t, "long-bishop", rule.ID)
	assert.Equal(t, "Long Bishop", rule.Name)
	assert.Equal(t, "movement", rule.Category)
	assert.True(t, rule.Active)
	assert.Equal(t, game.TriggerOnMove, rule.Trigger)
	assert.Equal(t, []string{"bishop"}, rule.AffectedPieces)

	require.Len(t, rule.Effects, 1)
	eff := rule.Effects[0]
	assert.Equal(t, game.EffectExtendRange, eff.Kind)
	assert.Equal(t, 2, eff.Int("range", 0))
	assert.Equal(t, "diagonal", eff.Text("direction", ""))

	require.Len(t, rule.Conditions, 3)
	assert.Equal(t, game.Condition{Type: game.CondPieceColor, Operator: game.OpIn, Value: []any{"white"}}, rule.Conditions[0])
	assert.Equal(t, game.Condition{Type: game.CondTurnNumber, Operator: game.OpGreaterOrEqual, Value: 2.0}, rule.Conditions[1])
	assert.Equal(t, game.Condition{Type: game.CondHasMoved, Operator: game.OpEquals, Value: false}, rule.Conditions[2])

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].String(), "vfx.play")
	assert.Equal(t, "extend", warnings[1].EffectID)
}

func TestReducedRuleDrivesEngine(t *testing.T) {
	rule, _, err := Parse([]byte(`{
	  "meta": {"ruleId": "sidestep", "name": "Sidestep"},
	  "scope": {"affects": ["pawn"]},
	  "logic": {"effects": [{"id": "e", "actions": ["lateralMove"]}]}
	}`))
	require.NoError(t, err)

	s := game.NewGame([]game.Rule{rule})
	req, ok := game.ParseNotation("e2e4")
	require.True(t, ok)
	s, err = game.Play(s, req, nil)
	require.NoError(t, err)
	req, _ = game.ParseNotation("a7a6")
	s, err = game.Play(s, req, nil)
	require.NoError(t, err)

	req, _ = game.ParseNotation("e4d4")
	_, err = game.Play(s, req, nil)
	assert.NoError(t, err)
}

func TestParseGuard(t *testing.T) {
	tests := []struct {
		expr    string
		want    game.Condition
		wantErr bool
	}{
		{expr: "turnNumber > 3", want: game.Condition{Type: game.CondTurnNumber, Operator: game.OpGreaterThan, Value: 3.0}},
		{expr: "pieceType in knight, bishop", want: game.Condition{Type: game.CondPieceType, Operator: game.OpIn, Value: []any{"knight", "bishop"}}},
		{expr: `gamePhase == "endgame"`, want: game.Condition{Type: game.CondGamePhase, Operator: game.OpEquals, Value: "endgame"}},
		{expr: "repetitionCount in [2, 3]", want: game.Condition{Type: game.CondRepetitionCount, Operator: game.OpIn, Value: []any{2.0, 3.0}}},
		{expr: "pieceColor equals black", want: game.Condition{Type: game.CondPieceColor, Operator: game.OpEquals, Value: "black"}},
		{expr: "mood == happy", wantErr: true},
		{expr: "turnNumber ~ 3", wantErr: true},
		{expr: "turnNumber", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseGuard(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode(t *testing.T) {
	input := `[
	  {"meta": {"ruleId": "a", "active": false}, "logic": {"effects": [{"actions": ["extraMove"]}]}},
	  {"ruleId": "b", "name": "B", "active": true, "effects": [{"action": "quickStrike"}, {"action": "summonDragon"}]}
	]`
	rules, warnings, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "a", rules[0].ID)
	assert.Equal(t, "a", rules[0].Name)
	assert.False(t, rules[0].Active)
	assert.True(t, rules[0].HasEffect(game.EffectExtraMove))

	assert.True(t, rules[1].HasEffect(game.EffectQuickStrike))
	require.Len(t, warnings, 1)
	assert.Equal(t, "b", warnings[0].RuleID)
	assert.Contains(t, warnings[0].Message, "summonDragon")
}

func TestInvalidDocuments(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: "  "},
		{name: "syntax", input: `{"meta": `},
		{name: "missing id", input: `{"meta": {"name": "x"}, "logic": {"effects": []}}`},
		{name: "engine rule without id", input: `{"ruleId": "", "effects": []}`},
		{name: "bad element in list", input: `[{"meta": {"ruleId": "ok"}}, {"meta": {}}]`},
		{name: "only unknown pieces", input: `{"meta": {"ruleId": "x"}, "scope": {"affects": ["dragon", "wizard"]}}`},
		{name: "only unknown colors", input: `{"meta": {"ruleId": "x"}, "scope": {"colors": ["green"]}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestScopeKeepsKnownPieces(t *testing.T) {
	rule, warnings, err := Parse([]byte(`{
		"meta": {"ruleId": "mixed"},
		"scope": {"affects": ["pawn", "dragon"]},
		"logic": {"effects": [{"id": "e", "actions": ["lateralMove"]}]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"pawn"}, rule.AffectedPieces)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "dragon")
}
