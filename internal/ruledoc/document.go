// Package ruledoc reduces externally authored rule documents to the
// condition/effect subset the engine interprets.
package ruledoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"chess_architect/internal/game"
	"chess_architect/internal/shared"
)

var ErrInvalidDocument = errors.New("invalid rule document")

// Document is the authoring format of a rule. Only meta, scope, parameters
// and logic reach the engine; ui and state belong to the interaction layer.
type Document struct {
	Meta       Meta           `json:"meta"`
	Scope      Scope          `json:"scope"`
	UI         *UI            `json:"ui,omitempty"`
	State      *Namespace     `json:"state,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Logic      Logic          `json:"logic"`
}

type Meta struct {
	RuleID      string   `json:"ruleId"`
	Name        string   `json:"name"`
	Active      *bool    `json:"active,omitempty"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Priority    int      `json:"priority,omitempty"`
}

type Scope struct {
	Affects []string `json:"affects,omitempty"`
	Colors  []string `json:"colors,omitempty"`
}

type UI struct {
	Actions []UIAction `json:"actions,omitempty"`
}

type UIAction struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Targeting string `json:"targeting,omitempty"`
	Cooldown  int    `json:"cooldown,omitempty"`
}

type Namespace struct {
	Namespace string         `json:"namespace"`
	Initial   map[string]any `json:"initial,omitempty"`
}

type Logic struct {
	Effects []LogicEffect `json:"effects"`
}

// LogicEffect is one trigger/guard/action block of a document.
type LogicEffect struct {
	ID      string   `json:"id"`
	Trigger string   `json:"trigger,omitempty"`
	Guards  []string `json:"guards,omitempty"`
	Actions []Action `json:"actions"`
	OnFail  string   `json:"onFail,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Action is an action tag with optional parameters. It decodes from either a
// bare tag string or an {"action", "params"} object.
type Action struct {
	Tag    string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		*a = Action{Tag: tag}
		return nil
	}
	type plain Action
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Action(p)
	return nil
}

// Warning reports a part of a document the engine does not interpret.
type Warning struct {
	RuleID   string `json:"ruleId"`
	EffectID string `json:"effectId,omitempty"`
	Message  string `json:"message"`
}

func (w Warning) String() string {
	if w.EffectID != "" {
		return fmt.Sprintf("%s/%s: %s", w.RuleID, w.EffectID, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.RuleID, w.Message)
}

// Decode reads one document, an array of documents, or the engine's own
// rule encoding (recognized by a top-level "ruleId").
func Decode(r io.Reader) ([]game.Rule, []Warning, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}

	var raws []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	} else {
		raws = []json.RawMessage{data}
	}

	var rules []game.Rule
	var warnings []Warning
	for i, raw := range raws {
		rule, ws, err := Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("document %d: %w", i, err)
		}
		rules = append(rules, rule)
		warnings = append(warnings, ws...)
	}
	return rules, warnings, nil
}

// Parse decodes and reduces a single document.
func Parse(data []byte) (game.Rule, []Warning, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return game.Rule{}, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if _, ok := probe["meta"]; !ok {
		if _, ok := probe["ruleId"]; ok {
			return parseEngineRule(data)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return game.Rule{}, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return Reduce(doc)
}

func parseEngineRule(data []byte) (game.Rule, []Warning, error) {
	var rule game.Rule
	if err := json.Unmarshal(data, &rule); err != nil {
		return game.Rule{}, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if strings.TrimSpace(rule.ID) == "" {
		return game.Rule{}, nil, fmt.Errorf("%w: ruleId is required", ErrInvalidDocument)
	}
	var warnings []Warning
	for _, eff := range rule.Effects {
		if eff.Kind == game.EffectUnsupported {
			warnings = append(warnings, Warning{RuleID: rule.ID, Message: fmt.Sprintf("unsupported effect %q", eff.Tag)})
		}
	}
	return rule, warnings, nil
}

// Reduce maps a document onto game.Rule. Unknown action tags, unknown piece
// names and unparseable guards become warnings. A missing identity, or a
// scope whose every entry is unknown, is an error.
func Reduce(doc Document) (game.Rule, []Warning, error) {
	id := strings.TrimSpace(doc.Meta.RuleID)
	if id == "" {
		return game.Rule{}, nil, fmt.Errorf("%w: meta.ruleId is required", ErrInvalidDocument)
	}
	rule := game.Rule{
		ID:          id,
		Name:        doc.Meta.Name,
		Description: doc.Meta.Description,
		Category:    doc.Meta.Category,
		Priority:    doc.Meta.Priority,
		Trigger:     game.TriggerPassive,
		Active:      doc.Meta.Active == nil || *doc.Meta.Active,
	}
	if rule.Name == "" {
		rule.Name = id
	}
	var warnings []Warning
	warn := func(effectID, format string, args ...any) {
		warnings = append(warnings, Warning{RuleID: id, EffectID: effectID, Message: fmt.Sprintf(format, args...)})
	}

	for _, name := range doc.Scope.Affects {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == game.AllPiecesSentinel {
			rule.AffectedPieces = nil
			break
		}
		if _, ok := shared.ParsePieceType(name); !ok {
			warn("", "unknown piece type %q in scope", name)
			continue
		}
		rule.AffectedPieces = append(rule.AffectedPieces, name)
	}
	if len(doc.Scope.Affects) > 0 && len(rule.AffectedPieces) == 0 && !scopesAll(doc.Scope.Affects) {
		return game.Rule{}, nil, fmt.Errorf("%w: rule %s: scope.affects names no known piece type", ErrInvalidDocument, id)
	}

	if len(doc.Scope.Colors) > 0 {
		var colors []any
		for _, name := range doc.Scope.Colors {
			c, ok := shared.ParseColor(name)
			if !ok {
				warn("", "unknown color %q in scope", name)
				continue
			}
			colors = append(colors, c.String())
		}
		if len(colors) == 0 {
			return game.Rule{}, nil, fmt.Errorf("%w: rule %s: scope.colors names no known color", ErrInvalidDocument, id)
		}
		if len(colors) < 2 {
			rule.Conditions = append(rule.Conditions, game.Condition{Type: game.CondPieceColor, Operator: game.OpIn, Value: colors})
		}
	}

	for i, block := range doc.Logic.Effects {
		effectID := block.ID
		if effectID == "" {
			effectID = fmt.Sprintf("effect-%d", i)
		}
		if i == 0 {
			rule.Trigger = parseTrigger(block.Trigger)
		}
		for _, guard := range block.Guards {
			cond, err := ParseGuard(guard)
			if err != nil {
				warn(effectID, "%v", err)
				continue
			}
			rule.Conditions = append(rule.Conditions, cond)
		}
		for _, action := range block.Actions {
			kind, ok := game.ParseEffectKind(action.Tag)
			if !ok {
				warn(effectID, "action %q is not interpreted by the engine", action.Tag)
				continue
			}
			rule.Effects = append(rule.Effects, game.Effect{
				Kind:   kind,
				Tag:    kind.String(),
				Params: mergeParams(doc.Parameters, action.Params),
			})
		}
	}
	if len(rule.Effects) == 0 {
		warn("", "no engine effects")
	}
	return rule, warnings, nil
}

func mergeParams(base, own map[string]any) map[string]any {
	if len(base) == 0 && len(own) == 0 {
		return nil
	}
	out := make(map[string]any, len(base)+len(own))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

func parseTrigger(expr string) game.TriggerKind {
	e := strings.ToLower(expr)
	switch {
	case strings.Contains(e, "capture"):
		return game.TriggerOnCapture
	case strings.Contains(e, "check"):
		return game.TriggerOnCheck
	case strings.Contains(e, "turnstart"), strings.Contains(e, "turn.start"):
		return game.TriggerTurnStart
	case strings.Contains(e, "move"):
		return game.TriggerOnMove
	default:
		return game.TriggerPassive
	}
}

// ParseGuard reads a guard of the form "<conditionType> <op> <value>".
// Values parse as JSON where possible, so numbers, booleans and lists keep
// their type; "in" also accepts a comma-separated list.
func ParseGuard(expr string) (game.Condition, error) {
	fields := strings.Fields(expr)
	if len(fields) < 3 {
		return game.Condition{}, fmt.Errorf("guard %q: want \"<condition> <op> <value>\"", expr)
	}
	ct, ok := game.ParseConditionType(fields[0])
	if !ok {
		return game.Condition{}, fmt.Errorf("guard %q: unknown condition %q", expr, fields[0])
	}
	op, ok := game.ParseOperator(fields[1])
	if !ok {
		return game.Condition{}, fmt.Errorf("guard %q: unknown operator %q", expr, fields[1])
	}
	raw := strings.Join(fields[2:], " ")

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	if s, isText := value.(string); isText && op == game.OpIn {
		var list []any
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		value = list
	}
	return game.Condition{Type: ct, Operator: op, Value: value}, nil
}

func scopesAll(names []string) bool {
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), game.AllPiecesSentinel) {
			return true
		}
	}
	return false
}
