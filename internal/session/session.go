// Package session owns one authoritative game. Every transition (moves,
// deploys, ticks, rule changes and search results) is applied by a single
// goroutine, so callers never share a mutable GameState.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"chess_architect/internal/ai"
	"chess_architect/internal/game"
)

var (
	ErrClosed    = errors.New("session closed")
	ErrAIToMove  = errors.New("computer to move")
	ErrBadConfig = errors.New("invalid session config")
)

// AISettings selects whether and how the computer plays one side.
type AISettings struct {
	Enabled bool       `json:"enabled"`
	Color   game.Color `json:"color"`
	Level   string     `json:"level"`
}

type Config struct {
	Rules []game.Rule
	AI    AISettings
	// Tick is the ordnance clock period. Zero disables the clock.
	Tick time.Duration
	Seed int64
}

// Session is the command interface to the owning goroutine started by Run.
type Session struct {
	ID string

	cmds    chan func(*owner)
	done    chan struct{}
	worker  *ai.Worker
	tick    time.Duration
	initial owner
}

// owner is only touched from the Run goroutine.
type owner struct {
	ctx         context.Context
	state       game.GameState
	rules       []game.Rule
	ai          AISettings
	search      ai.Config
	gen         uint64
	turnStarted time.Time
	rng         *rand.Rand
	worker      *ai.Worker
}

var now = time.Now

func New(cfg Config) (*Session, error) {
	search, err := searchConfig(cfg.AI)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = now().UnixNano()
	}
	s := &Session{
		ID:     uuid.NewString(),
		cmds:   make(chan func(*owner)),
		done:   make(chan struct{}),
		worker: ai.NewWorker(),
		tick:   cfg.Tick,
	}
	s.initial = owner{
		rules:  cfg.Rules,
		ai:     cfg.AI,
		search: search,
		rng:    rand.New(rand.NewSource(seed)),
		worker: s.worker,
	}
	s.initial.reset(cfg.Rules)
	return s, nil
}

func searchConfig(settings AISettings) (ai.Config, error) {
	level := settings.Level
	if level == "" {
		level = "medium"
	}
	cfg, err := ai.Preset(level)
	if err != nil {
		return ai.Config{}, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	return cfg, nil
}

// Run processes commands, clock ticks and search results until ctx ends.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	o := s.initial
	o.ctx = ctx
	o.turnStarted = now()
	o.maybeStartAI()

	var tick <-chan time.Time
	if s.tick > 0 {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.worker.Cancel()
			return ctx.Err()
		case cmd := <-s.cmds:
			cmd(&o)
		case <-tick:
			o.tick()
		case res := <-s.worker.Results():
			o.applySearch(res)
		}
	}
}

// do runs fn on the owning goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func(*owner)) error {
	finished := make(chan struct{})
	select {
	case s.cmds <- func(o *owner) { fn(o); close(finished) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *owner) reset(rules []game.Rule) {
	o.rules = rules
	o.state = game.NewGame(rules)
	if o.state.SecretSetupEnabled() {
		if next, err := game.ApplySecretSetup(o.state, o.rng); err == nil {
			o.state = next
		}
	}
	for _, d := range o.state.Diagnostics {
		log.Printf("rule diagnostic: %s", d)
	}
	o.turnStarted = now()
}

func (o *owner) tick() {
	before := len(o.state.Ordnance)
	o.state = game.Tick(o.state)
	if n := before - len(o.state.Ordnance); n > 0 {
		log.Printf("%d ordnance detonated, status %s", n, o.state.Status)
		o.maybeStartAI()
	}
}

// maybeStartAI starts a search when the computer is to move, and abandons
// any search that no longer matches the position.
func (o *owner) maybeStartAI() {
	if o.worker == nil || o.ctx == nil {
		return
	}
	if !o.ai.Enabled || o.state.Status.Terminal() || o.state.CurrentPlayer != o.ai.Color {
		if o.gen != 0 {
			o.worker.Cancel()
			o.gen = 0
		}
		return
	}
	o.gen = o.worker.Start(o.ctx, o.state, o.search)
}

func (o *owner) applySearch(res ai.Result) {
	if res.Generation != o.gen || !o.worker.Current(res.Generation) {
		return
	}
	o.gen = 0
	if res.Err != nil {
		log.Printf("search: %v", res.Err)
		return
	}
	if res.Color != o.state.CurrentPlayer {
		return
	}
	// Search moves carry no decision time, so they never earn quickStrike.
	next, err := game.Play(o.state, res.Move, nil)
	if err != nil {
		log.Printf("search move %s rejected: %v", res.Notation, err)
		return
	}
	log.Printf("computer plays %s (score %d)", res.Notation, res.Score)
	o.state = next
	o.turnStarted = now()
	o.maybeStartAI()
}

// State returns a snapshot of the current game.
func (s *Session) State(ctx context.Context) (game.GameState, error) {
	var out game.GameState
	err := s.do(ctx, func(o *owner) { out = o.state.Clone() })
	return out, err
}

// AI returns the current computer settings.
func (s *Session) AI(ctx context.Context) (AISettings, error) {
	var out AISettings
	err := s.do(ctx, func(o *owner) { out = o.ai })
	return out, err
}

// Move plays a human move. The decision time is measured from the start of
// the mover's turn.
func (s *Session) Move(ctx context.Context, req game.MoveRequest) (game.GameState, error) {
	var out game.GameState
	var moveErr error
	err := s.do(ctx, func(o *owner) {
		if o.ai.Enabled && o.state.CurrentPlayer == o.ai.Color && !o.state.Status.Terminal() {
			moveErr = ErrAIToMove
			out = o.state.Clone()
			return
		}
		ms := now().Sub(o.turnStarted).Milliseconds()
		next, err := game.Play(o.state, req, &ms)
		if err != nil {
			moveErr = err
			out = o.state.Clone()
			return
		}
		o.state = next
		o.turnStarted = now()
		o.maybeStartAI()
		out = o.state.Clone()
	})
	if err != nil {
		return game.GameState{}, err
	}
	return out, moveErr
}

// Legal lists the legal destinations of the piece on from.
func (s *Session) Legal(ctx context.Context, from game.Position) ([]game.Position, error) {
	var out []game.Position
	var legalErr error
	err := s.do(ctx, func(o *owner) {
		pc := o.state.Board.At(from)
		if pc == nil {
			legalErr = fmt.Errorf("%w: %s", game.ErrNoPiece, from)
			return
		}
		out = game.LegalMoves(o.state.Board, pc, &o.state)
	})
	if err != nil {
		return nil, err
	}
	return out, legalErr
}

// Deploy arms ordnance for side.
func (s *Session) Deploy(ctx context.Context, side game.Color, spec game.OrdnanceSpec, origin game.Position, allowOccupied bool) (game.DeployResult, game.GameState, error) {
	var res game.DeployResult
	var out game.GameState
	err := s.do(ctx, func(o *owner) {
		o.state, res = game.Deploy(o.state, side, spec, origin, allowOccupied)
		out = o.state.Clone()
	})
	return res, out, err
}

// SetRuleActive toggles an installed rule.
func (s *Session) SetRuleActive(ctx context.Context, ruleID string, active bool) (game.GameState, error) {
	var out game.GameState
	var ruleErr error
	err := s.do(ctx, func(o *owner) {
		next, err := game.SetRuleActive(o.state, ruleID, active)
		if err != nil {
			ruleErr = err
		} else {
			o.state = next
			o.maybeStartAI()
		}
		out = o.state.Clone()
	})
	if err != nil {
		return game.GameState{}, err
	}
	return out, ruleErr
}

// AddRules installs rules into the running game.
func (s *Session) AddRules(ctx context.Context, rules []game.Rule) (game.GameState, error) {
	var out game.GameState
	err := s.do(ctx, func(o *owner) {
		for _, r := range rules {
			o.state = game.AddRule(o.state, r)
		}
		o.rules = append(o.rules[:len(o.rules):len(o.rules)], rules...)
		out = o.state.Clone()
	})
	return out, err
}

// ConfigureAI changes the computer settings and starts or stops its search.
func (s *Session) ConfigureAI(ctx context.Context, settings AISettings) (game.GameState, error) {
	search, err := searchConfig(settings)
	if err != nil {
		return game.GameState{}, err
	}
	var out game.GameState
	err = s.do(ctx, func(o *owner) {
		o.ai = settings
		o.search = search
		o.gen = 0
		o.worker.Cancel()
		o.maybeStartAI()
		out = o.state.Clone()
	})
	return out, err
}

// Reset starts a new game. A nil rules slice keeps the current rules.
func (s *Session) Reset(ctx context.Context, rules []game.Rule) (game.GameState, error) {
	var out game.GameState
	err := s.do(ctx, func(o *owner) {
		if rules == nil {
			rules = o.rules
		}
		o.reset(rules)
		o.maybeStartAI()
		out = o.state.Clone()
	})
	return out, err
}

// DeclareDraw ends the game as a draw.
func (s *Session) DeclareDraw(ctx context.Context) (game.GameState, error) {
	var out game.GameState
	err := s.do(ctx, func(o *owner) {
		o.state = game.DeclareDraw(o.state)
		o.maybeStartAI()
		out = o.state.Clone()
	})
	return out, err
}

// Tick advances the ordnance clock by hand, independent of the ticker.
func (s *Session) Tick(ctx context.Context) (game.GameState, error) {
	var out game.GameState
	err := s.do(ctx, func(o *owner) {
		o.tick()
		out = o.state.Clone()
	})
	return out, err
}
