package game

import (
	"fmt"

	"golang.org/x/exp/maps"
)

// GameState is the single aggregate produced once per ply. Transitions never
// mutate their input; they return a new value built from Clone.
type GameState struct {
	Board         *Board     `json:"-"`
	CurrentPlayer Color      `json:"currentPlayer"`
	Turn          int        `json:"turn"`
	MovesThisTurn int        `json:"movesThisTurn"`
	Selected      *Position  `json:"selected,omitempty"`
	LegalCache    []Position `json:"legalCache,omitempty"`
	Status        Status     `json:"status"`
	Captured      []*Piece   `json:"captured"`
	History       []*Move    `json:"history"`
	Rules         []Rule     `json:"rules"`

	ExtraMoves        [2]int `json:"extraMoves"`
	PendingExtraMoves [2]int `json:"pendingExtraMoves"`

	Freezes    []FreezeEffect `json:"freezes,omitempty"`
	FreezeUsed [2]bool        `json:"freezeUsed"`

	PositionCounts   map[string]int `json:"-"`
	PendingTransform [2]bool        `json:"pendingTransform"`
	LastMove         [2]*Move       `json:"-"`
	ReplayOffers     [2]bool        `json:"replayOffers"`
	VIPTokens        [2]int         `json:"vipTokens"`

	ForcedMirror       *MirrorConstraint `json:"forcedMirror,omitempty"`
	SecretSetupApplied bool              `json:"secretSetupApplied"`
	OpeningRevealed    [2]bool           `json:"openingRevealed"`

	Ordnance       []Ordnance `json:"ordnance,omitempty"`
	Events         []Event    `json:"events,omitempty"`
	Markers        []Marker   `json:"markers,omitempty"`
	KnightJumpUsed [2]bool    `json:"knightJumpUsed"`
	Diagnostics    []string   `json:"diagnostics,omitempty"`
}

// NewGame sets up the standard position with the given rules.
func NewGame(rules []Rule) GameState {
	return NewGameFromBoard(NewStandardBoard(), White, rules)
}

// NewGameFromBoard builds an initial state around an arbitrary position.
// The board is cloned.
func NewGameFromBoard(board *Board, toMove Color, rules []Rule) GameState {
	s := GameState{
		Board:          board.Clone(),
		CurrentPlayer:  toMove,
		Turn:           1,
		Status:         StatusActive,
		Rules:          normalizeRules(rules),
		PositionCounts: make(map[string]int),
	}
	s.PositionCounts[s.Board.Signature()] = 1
	s.collectRuleDiagnostics()
	s.initRuleState()
	s.Status = computeStatus(s.Board, s.CurrentPlayer, &s)
	return s
}

func normalizeRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r.Normalize()
	}
	return out
}

// collectRuleDiagnostics records every effect tag outside the catalogue.
func (s *GameState) collectRuleDiagnostics() {
	for _, rule := range s.Rules {
		for _, eff := range rule.Effects {
			if eff.Kind == EffectUnsupported {
				s.diagnose("rule %s: unsupported effect %q", rule.ID, eff.Tag)
			}
		}
	}
}

// initRuleState seeds token banks and the blind opening from the active rules.
func (s *GameState) initRuleState() {
	for _, rule := range s.Rules {
		if !rule.Active {
			continue
		}
		for _, eff := range rule.Effects {
			switch eff.Kind {
			case EffectPawnRefund:
				tokens := eff.Int("tokens", 1)
				for _, c := range ruleColors(rule) {
					s.VIPTokens[c.Index()] = tokens
				}
			case EffectBlindOpening:
				for _, c := range ruleColors(rule) {
					for _, pc := range s.Board.Pieces(c) {
						if pc.Type != King {
							pc.Hidden = true
						}
					}
				}
			}
		}
	}
}

// ruleColors extracts the colors a rule is scoped to through pieceColor
// conditions; a rule without one covers both sides.
func ruleColors(rule Rule) []Color {
	for _, cond := range rule.Conditions {
		if cond.Type != CondPieceColor {
			continue
		}
		var out []Color
		for _, c := range []Color{White, Black} {
			if compareString(c.String(), cond.Operator, cond.Value) {
				out = append(out, c)
			}
		}
		return out
	}
	return []Color{White, Black}
}

// Clone deep-copies everything a transition may modify.
func (s GameState) Clone() GameState {
	out := s
	out.Board = s.Board.Clone()
	out.Selected = nil
	out.LegalCache = nil
	out.Captured = append([]*Piece(nil), s.Captured...)
	out.History = append([]*Move(nil), s.History...)
	out.Rules = append([]Rule(nil), s.Rules...)
	out.Freezes = append([]FreezeEffect(nil), s.Freezes...)
	out.PositionCounts = maps.Clone(s.PositionCounts)
	if out.PositionCounts == nil {
		out.PositionCounts = make(map[string]int)
	}
	if s.ForcedMirror != nil {
		fm := *s.ForcedMirror
		out.ForcedMirror = &fm
	}
	out.Ordnance = append([]Ordnance(nil), s.Ordnance...)
	out.Events = append([]Event(nil), s.Events...)
	out.Markers = append([]Marker(nil), s.Markers...)
	out.Diagnostics = append([]string(nil), s.Diagnostics...)
	return out
}

// ActiveRules returns the rules whose active flag is set, in list order.
func (s *GameState) ActiveRules() []Rule {
	out := make([]Rule, 0, len(s.Rules))
	for _, r := range s.Rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

// SetRuleActive flips the active flag of the rule with the given ID.
func SetRuleActive(s GameState, ruleID string, active bool) (GameState, error) {
	for i, r := range s.Rules {
		if r.ID == ruleID {
			next := s.Clone()
			next.Rules[i] = r.WithActive(active)
			return next, nil
		}
	}
	return s, fmt.Errorf("%w: %s", ErrUnknownRule, ruleID)
}

// AddRule appends a rule, replacing any rule with the same ID.
func AddRule(s GameState, rule Rule) GameState {
	next := s.Clone()
	rule = rule.Normalize()
	for i, r := range next.Rules {
		if r.ID == rule.ID {
			next.Rules[i] = rule
			next.collectRuleDiagnostics()
			return next
		}
	}
	next.Rules = append(next.Rules, rule)
	next.collectRuleDiagnostics()
	return next
}

// DeclareDraw is used by external repetition or agreement policies.
func DeclareDraw(s GameState) GameState {
	next := s.Clone()
	next.Status = StatusDraw
	next.Events = nil
	return next
}

// DeclareTimeout is used by the external clock.
func DeclareTimeout(s GameState) GameState {
	next := s.Clone()
	next.Status = StatusTimeout
	next.Events = nil
	return next
}

// RepetitionCount is the occurrence count of the current board signature.
func (s *GameState) RepetitionCount() int {
	if s.PositionCounts == nil {
		return 0
	}
	return s.PositionCounts[s.Board.Signature()]
}

// GamePhase classifies the position as opening, middlegame or endgame.
func (s *GameState) GamePhase() string {
	total := s.Board.Count(White) + s.Board.Count(Black)
	switch {
	case total <= 12:
		return "endgame"
	case s.Turn <= 10:
		return "opening"
	default:
		return "middlegame"
	}
}

func (s *GameState) frozenAt(pc *Piece) bool {
	for _, f := range s.Freezes {
		if f.Color == pc.Color && f.Position == pc.Position && f.Remaining > 0 {
			return true
		}
	}
	return false
}

func (s *GameState) lastHistory() *Move {
	if len(s.History) == 0 {
		return nil
	}
	return s.History[len(s.History)-1]
}

func (s *GameState) diagnose(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	for _, d := range s.Diagnostics {
		if d == msg {
			return
		}
	}
	s.Diagnostics = append(s.Diagnostics, msg)
}
