package tui

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chess_architect/internal/ai"
	"chess_architect/internal/game"
	"chess_architect/internal/ruledoc"
	"chess_architect/internal/shared"
)

type mode int

const (
	modeNormal mode = iota
	modeInput
)

const maxLogLines = 200

// Options configures a terminal game.
type Options struct {
	Rules   []game.Rule
	AI      bool
	AIColor game.Color
	AILevel string
	Tick    time.Duration
	Seed    int64
}

type tickMsg time.Time

type startMsg struct{}

type searchMsg struct {
	gen  uint64
	best ai.Scored
	err  error
}

type Model struct {
	opts  Options
	state game.GameState
	rules []game.Rule
	rng   *rand.Rand

	aiOn     bool
	aiColor  game.Color
	search   ai.Config
	gen      uint64
	thinking bool
	cancel   context.CancelFunc

	turnStarted time.Time

	mode     mode
	input    textinput.Model
	logLines []string

	width, height int
}

func NewModel(opts Options) (Model, error) {
	level := opts.AILevel
	if level == "" {
		level = "medium"
	}
	cfg, err := ai.Preset(level)
	if err != nil {
		return Model{}, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ti := textinput.New()
	ti.Placeholder = "e2e4, deploy mine d4, ai hard, help..."
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.Width = 60

	m := Model{
		opts:    opts,
		rng:     rand.New(rand.NewSource(seed)),
		aiOn:    opts.AI,
		aiColor: opts.AIColor,
		search:  cfg,
		input:   ti,
		mode:    modeNormal,
	}
	m.reset(opts.Rules)
	m.appendLog("Press i to enter a command, q to quit")
	return m, nil
}

func (m *Model) reset(rules []game.Rule) {
	m.abandonSearch()
	m.rules = rules
	m.state = game.NewGame(rules)
	if m.state.SecretSetupEnabled() {
		if next, err := game.ApplySecretSetup(m.state, m.rng); err == nil {
			m.state = next
			m.appendLog("Back ranks shuffled")
		}
	}
	for _, d := range m.state.Diagnostics {
		m.appendLog("rule: " + d)
	}
	m.turnStarted = time.Now()
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{func() tea.Msg { return startMsg{} }}
	if m.opts.Tick > 0 {
		cmds = append(cmds, tickCmd(m.opts.Tick))
	}
	return tea.Batch(cmds...)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case startMsg:
		cmd := m.maybeSearch()
		return m, cmd

	case tickMsg:
		cmd := m.tick()
		return m, tea.Batch(cmd, tickCmd(m.opts.Tick))

	case searchMsg:
		cmd := m.applySearch(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.mode == modeInput {
			switch msg.String() {
			case "esc":
				m.mode = modeNormal
				m.input.Blur()
				return m, nil
			case "enter":
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if line == "" {
					return m, nil
				}
				return m.execCommand(line)
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.abandonSearch()
			return m, tea.Quit
		case "i", ":":
			m.mode = modeInput
			m.input.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *Model) tick() tea.Cmd {
	before := len(m.state.Ordnance)
	m.state = game.Tick(m.state)
	for _, ev := range m.state.Events {
		if ev.Kind == game.EventDetonation {
			m.appendLog(fmt.Sprintf("Detonation at %s", ev.Position))
		}
	}
	if len(m.state.Ordnance) < before {
		m.logStatus()
		return m.maybeSearch()
	}
	return nil
}

// maybeSearch starts a search when the computer is to move. Stale searches
// are dropped by generation when they report.
func (m *Model) maybeSearch() tea.Cmd {
	if !m.aiOn || m.state.Status.Terminal() || m.state.CurrentPlayer != m.aiColor {
		m.abandonSearch()
		return nil
	}
	m.abandonSearch()
	m.gen++
	m.thinking = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return searchCmd(ctx, m.gen, m.state.Clone(), m.search, m.rng.Int63())
}

func (m *Model) abandonSearch() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.thinking {
		m.gen++
	}
	m.thinking = false
}

func searchCmd(ctx context.Context, gen uint64, st game.GameState, cfg ai.Config, seed int64) tea.Cmd {
	return func() tea.Msg {
		best, err := ai.FindBestMove(ctx, st, cfg, rand.New(rand.NewSource(seed)))
		return searchMsg{gen: gen, best: best, err: err}
	}
}

func (m *Model) applySearch(msg searchMsg) tea.Cmd {
	if msg.gen != m.gen || !m.thinking {
		return nil
	}
	m.thinking = false
	m.cancel = nil
	if msg.err != nil {
		m.appendLog("computer: " + msg.err.Error())
		return nil
	}
	if err := m.play(msg.best.Move, nil); err != nil {
		m.appendLog("computer: " + err.Error())
		return nil
	}
	return m.maybeSearch()
}

// play resolves req. Human moves pass their measured decision time; search
// moves pass nil so they never earn quickStrike.
func (m *Model) play(req game.MoveRequest, decisionMs *int64) error {
	next, err := game.Play(m.state, req, decisionMs)
	if err != nil {
		return err
	}
	m.state = next
	m.turnStarted = time.Now()
	if n := len(next.History); n > 0 {
		m.appendLog(next.History[n-1].Notation)
	}
	m.logStatus()
	return nil
}

func (m *Model) logStatus() {
	switch m.state.Status {
	case game.StatusCheck:
		m.appendLog(fmt.Sprintf("%s is in check", m.state.CurrentPlayer))
	case game.StatusCheckmate:
		m.appendLog(fmt.Sprintf("Checkmate, %s wins", m.state.CurrentPlayer.Opposite()))
	case game.StatusStalemate:
		m.appendLog("Stalemate")
	case game.StatusDraw:
		m.appendLog("Draw")
	}
}

func (m Model) execCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "help", "?":
		m.appendLog("<from><to>          move, e.g. e2e4")
		m.appendLog("legal <sq>          list destinations")
		m.appendLog("deploy <kind> <sq>  mine, trap, bomb or freeze")
		m.appendLog("tick                advance ordnance clocks")
		m.appendLog("ai <level>|off [color]")
		m.appendLog("rules | rule <id> on|off | load <file>")
		m.appendLog("reset | draw | q")
		return m, nil

	case "q", "quit", "exit":
		m.abandonSearch()
		return m, tea.Quit

	case "legal":
		if len(fields) != 2 {
			m.appendLog("usage: legal <square>")
			return m, nil
		}
		from, ok := shared.ParsePosition(fields[1])
		if !ok {
			m.appendLog("invalid square: " + fields[1])
			return m, nil
		}
		pc := m.state.Board.At(from)
		if pc == nil {
			m.appendLog("no piece on " + from.String())
			return m, nil
		}
		var dests []string
		for _, p := range game.LegalMoves(m.state.Board, pc, &m.state) {
			dests = append(dests, p.String())
		}
		m.appendLog(fmt.Sprintf("%s: %s", from, strings.Join(dests, " ")))
		return m, nil

	case "deploy":
		return m.deploy(fields[1:])

	case "tick":
		cmd := m.tick()
		return m, cmd

	case "ai":
		return m.configureAI(fields[1:])

	case "rules":
		if len(m.state.Rules) == 0 {
			m.appendLog("no rules loaded")
		}
		for _, r := range m.state.Rules {
			flag := "off"
			if r.Active {
				flag = "on"
			}
			m.appendLog(fmt.Sprintf("%-20s %-3s %s", r.ID, flag, r.Name))
		}
		return m, nil

	case "rule":
		if len(fields) != 3 || (fields[2] != "on" && fields[2] != "off") {
			m.appendLog("usage: rule <id> on|off")
			return m, nil
		}
		next, err := game.SetRuleActive(m.state, fields[1], fields[2] == "on")
		if err != nil {
			m.appendLog(err.Error())
			return m, nil
		}
		m.state = next
		m.appendLog(fmt.Sprintf("rule %s %s", fields[1], fields[2]))
		return m, nil

	case "load":
		if len(fields) != 2 {
			m.appendLog("usage: load <file>")
			return m, nil
		}
		rules, warnings, err := LoadRules(fields[1])
		if err != nil {
			m.appendLog(err.Error())
			return m, nil
		}
		for _, w := range warnings {
			m.appendLog("warning: " + w.String())
		}
		for _, r := range rules {
			m.state = game.AddRule(m.state, r)
		}
		m.rules = append(m.rules, rules...)
		m.appendLog(fmt.Sprintf("loaded %d rule(s)", len(rules)))
		return m, nil

	case "reset", "new":
		m.reset(m.rules)
		m.appendLog("New game")
		cmd := m.maybeSearch()
		return m, cmd

	case "draw":
		m.abandonSearch()
		m.state = game.DeclareDraw(m.state)
		m.logStatus()
		return m, nil
	}

	req, ok := game.ParseNotation(line)
	if !ok {
		m.appendLog("unknown command: " + fields[0])
		return m, nil
	}
	if m.thinking || (m.aiOn && m.state.CurrentPlayer == m.aiColor && !m.state.Status.Terminal()) {
		m.appendLog("the computer is to move")
		return m, nil
	}
	ms := time.Since(m.turnStarted).Milliseconds()
	if err := m.play(req, &ms); err != nil {
		m.appendLog(err.Error())
		return m, nil
	}
	cmd := m.maybeSearch()
	return m, cmd
}

func (m Model) deploy(args []string) (tea.Model, tea.Cmd) {
	if len(args) < 2 {
		m.appendLog("usage: deploy <kind> <square> [countdown]")
		return m, nil
	}
	spec, ok := game.SpecByKind(strings.ToLower(args[0]))
	if !ok {
		m.appendLog("unknown ordnance: " + args[0])
		return m, nil
	}
	origin, ok := shared.ParsePosition(args[1])
	if !ok {
		origin = game.Position{Row: -1, Col: -1}
	}
	if len(args) > 2 && spec.Trigger == game.DetonateOnCountdown {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			m.appendLog("invalid countdown: " + args[2])
			return m, nil
		}
		spec.Countdown = n
	}
	next, res := game.Deploy(m.state, m.state.CurrentPlayer, spec, origin, false)
	if !res.OK {
		m.appendLog(fmt.Sprintf("deploy rejected: %s", res.Reason))
		return m, nil
	}
	m.state = next
	m.appendLog(fmt.Sprintf("%s armed %s at %s", res.Ordnance.Owner, res.Ordnance.Kind, res.Ordnance.Position))
	return m, nil
}

func (m Model) configureAI(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		state := "off"
		if m.aiOn {
			state = fmt.Sprintf("%s plays %s", m.search.Level, m.aiColor)
		}
		m.appendLog("computer: " + state)
		return m, nil
	}
	if strings.EqualFold(args[0], "off") {
		m.aiOn = false
		m.abandonSearch()
		m.appendLog("computer off")
		return m, nil
	}
	cfg, err := ai.Preset(args[0])
	if err != nil {
		m.appendLog(err.Error())
		return m, nil
	}
	if len(args) > 1 {
		c, ok := shared.ParseColor(args[1])
		if !ok {
			m.appendLog("invalid color: " + args[1])
			return m, nil
		}
		m.aiColor = c
	}
	m.search = cfg
	m.aiOn = true
	m.appendLog(fmt.Sprintf("computer plays %s at %s", m.aiColor, cfg.Level))
	cmd := m.maybeSearch()
	return m, cmd
}

func (m *Model) appendLog(s string) {
	m.logLines = append(m.logLines, s)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

// LoadRules reads a rule document file.
func LoadRules(path string) ([]game.Rule, []ruledoc.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	rules, warnings, err := ruledoc.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, warnings, nil
}

func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	status := fmt.Sprintf("%s to move, %s, turn %d", m.state.CurrentPlayer, m.state.Status, m.state.Turn)
	if m.thinking {
		status += ", computer thinking"
	}
	if n := m.state.ExtraMoves[m.state.CurrentPlayer.Index()]; n > 0 {
		status += fmt.Sprintf(", %d extra move(s)", n)
	}
	header := titleStyle.Render("chess architect") + "  " + status

	board := boxStyle.Render(RenderBoard(m.state))

	logHeight := 18
	if m.height > 0 {
		logHeight = max(4, m.height-10)
	}
	lines := m.logLines
	if len(lines) > logHeight {
		lines = lines[len(lines)-logHeight:]
	}
	logWidth := 40
	if m.width > 0 {
		logWidth = max(20, m.width-lipgloss.Width(board)-6)
	}
	logBox := boxStyle.Width(logWidth).Render(strings.Join(lines, "\n"))

	var input string
	if m.mode == modeInput {
		input = boxStyle.Render(m.input.View())
	} else {
		input = boxStyle.Render("i: command   q: quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, board, logBox),
		input,
	)
}
