package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"chess_architect/internal/ai"
	"chess_architect/internal/game"
	"chess_architect/internal/render"
	"chess_architect/internal/ruledoc"
	"chess_architect/internal/session"
	"chess_architect/internal/shared"
)

// Server wires the HTTP layer to a game session.
type Server struct {
	sess  *session.Session
	tmpl  *template.Template
	srvMu sync.Mutex
	srv   *http.Server
}

const (
	maxJSONBodyBytes int64 = 1 << 20
	htmlCSP                = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'; frame-ancestors 'none'; base-uri 'none'; form-action 'self'"
	apiCSP                 = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
)

const indexHTML = `{{define "index"}}<!doctype html>
<html><head><meta charset="utf-8"><title>Chess Architect</title></head>
<body>
<p>{{.Turn}} to move, {{.Status}}. Session {{.Session}}.</p>
<img src="/api/board.svg" alt="board" width="480" height="480">
<ol>{{range .Notation}}<li>{{.}}</li>{{end}}</ol>
<script type="application/json" id="init">{{.Init}}</script>
</body></html>{{end}}`

// NewServer builds a Server over a running session.
func NewServer(sess *session.Session) *Server {
	return &Server{
		sess: sess,
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
	}
}

// Listen starts the HTTP server.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	log.Printf("HTTP listening on %s", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close attempts a graceful shutdown of the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)

	mux.HandleFunc("/api/state", s.withJSON(s.handleState))
	mux.HandleFunc("/api/move", s.withJSON(s.handleMove))
	mux.HandleFunc("/api/legal", s.withJSON(s.handleLegal))
	mux.HandleFunc("/api/deploy", s.withJSON(s.handleDeploy))
	mux.HandleFunc("/api/tick", s.withJSON(s.handleTick))
	mux.HandleFunc("/api/rules", s.withJSON(s.handleRules))
	mux.HandleFunc("/api/ai", s.withJSON(s.handleAI))
	mux.HandleFunc("/api/reset", s.withJSON(s.handleReset))
	mux.HandleFunc("/api/draw", s.withJSON(s.handleDraw))
	mux.HandleFunc("/api/board.svg", s.handleBoardSVG)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ---- views ----

type stateView struct {
	Session  string             `json:"session"`
	Board    string             `json:"board"`
	Pieces   []*game.Piece      `json:"pieces"`
	Notation []string           `json:"notation"`
	AI       session.AISettings `json:"ai"`
	game.GameState
}

func (s *Server) view(ctx context.Context, st game.GameState) stateView {
	settings, err := s.sess.AI(ctx)
	if err != nil {
		log.Printf("ai settings: %v", err)
	}
	return stateView{
		Session:   s.sess.ID,
		Board:     st.Board.Serialize(),
		Pieces:    st.Board.AllPieces(),
		Notation:  st.Notations(),
		AI:        settings,
		GameState: st,
	}
}

// ---- UI ----

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	applyHTMLSecurityHeaders(w.Header())
	st, err := s.sess.State(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	data := map[string]any{
		"Session":  s.sess.ID,
		"Turn":     st.CurrentPlayer,
		"Status":   st.Status,
		"Notation": st.Notations(),
		"Init":     mustJSON(s.view(r.Context(), st)),
	}
	if err := s.tmpl.ExecuteTemplate(w, "index", data); err != nil {
		log.Printf("template exec: %v", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
}

// ---- JSON helpers ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applyAPISecurityHeaders(w.Header())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": msg})
}

// writeEngineError maps engine and session sentinels onto status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrClosed), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrNotYourTurn), errors.Is(err, session.ErrAIToMove):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrUnknownRule):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func mustJSON(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return template.JS(b)
}

func applyHTMLSecurityHeaders(h http.Header) {
	h.Set("Content-Security-Policy", htmlCSP)
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
	h.Set("Cross-Origin-Embedder-Policy", "require-corp")
}

func applyAPISecurityHeaders(h http.Header) {
	h.Set("Content-Security-Policy", apiCSP)
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
	h.Set("Cross-Origin-Embedder-Policy", "require-corp")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// decodeBody reads a JSON body into v, answering the request itself on
// failure. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// ---- API: state ----

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st, err := s.sess.State(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"state": s.view(r.Context(), st)})
}

// ---- API: move ----

type moveBody struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Notation string `json:"notation"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body moveBody
	if !decodeBody(w, r, &body) {
		return
	}

	var req game.MoveRequest
	if n := strings.TrimSpace(body.Notation); n != "" {
		parsed, ok := game.ParseNotation(n)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid notation")
			return
		}
		req = parsed
	} else {
		from, ok := shared.ParsePosition(body.From)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid from square")
			return
		}
		to, ok := shared.ParsePosition(body.To)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid to square")
			return
		}
		req = game.MoveRequest{From: from, To: to}
	}

	st, err := s.sess.Move(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"state": s.view(r.Context(), st)})
}

// ---- API: legal ----

func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	from, ok := shared.ParsePosition(r.URL.Query().Get("from"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid from square")
		return
	}
	moves, err := s.sess.Legal(r.Context(), from)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	squares := make([]string, len(moves))
	for i, p := range moves {
		squares[i] = p.String()
	}
	writeJSON(w, map[string]any{"from": from.String(), "moves": squares})
}

// ---- API: deploy ----

type deployBody struct {
	Owner         string `json:"owner"`
	Kind          string `json:"kind"`
	Origin        string `json:"origin"`
	AllowOccupied bool   `json:"allowOccupied"`
	Countdown     *int   `json:"countdown"`
	Radius        *int   `json:"radius"`
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body deployBody
	if !decodeBody(w, r, &body) {
		return
	}
	owner, ok := shared.ParseColor(body.Owner)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner")
		return
	}
	spec, ok := game.SpecByKind(strings.ToLower(strings.TrimSpace(body.Kind)))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid ordnance kind %q", body.Kind))
		return
	}
	if body.Countdown != nil {
		spec.Countdown = *body.Countdown
	}
	if body.Radius != nil {
		spec.Radius = *body.Radius
	}
	// Off-board squares are rejected by the engine with a reason.
	origin, ok := shared.ParsePosition(body.Origin)
	if !ok {
		origin = game.Position{Row: -1, Col: -1}
	}

	res, st, err := s.sess.Deploy(r.Context(), owner, spec, origin, body.AllowOccupied)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !res.OK {
		w.WriteHeader(http.StatusConflict)
	}
	writeJSON(w, map[string]any{"result": res, "state": s.view(r.Context(), st)})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st, err := s.sess.Tick(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"state": s.view(r.Context(), st)})
}

// ---- API: rules ----

type rulesBody struct {
	RuleID    string          `json:"ruleId"`
	Active    *bool           `json:"active"`
	Documents json.RawMessage `json:"documents"`
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		st, err := s.sess.State(r.Context())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, map[string]any{"rules": st.Rules, "diagnostics": st.Diagnostics})
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body rulesBody
	if !decodeBody(w, r, &body) {
		return
	}

	var st game.GameState
	var warnings []ruledoc.Warning
	switch {
	case len(body.Documents) > 0:
		rules, ws, err := ruledoc.Decode(bytes.NewReader(body.Documents))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		warnings = ws
		st, err = s.sess.AddRules(r.Context(), rules)
		if err != nil {
			writeEngineError(w, err)
			return
		}
	case body.RuleID != "" && body.Active != nil:
		var err error
		st, err = s.sess.SetRuleActive(r.Context(), body.RuleID, *body.Active)
		if err != nil {
			writeEngineError(w, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "want documents or ruleId with active")
		return
	}
	writeJSON(w, map[string]any{"warnings": warnings, "state": s.view(r.Context(), st)})
}

// ---- API: ai ----

type aiBody struct {
	Enabled bool   `json:"enabled"`
	Color   string `json:"color"`
	Level   string `json:"level"`
}

func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body aiBody
	if !decodeBody(w, r, &body) {
		return
	}
	color := game.Black
	if body.Color != "" {
		c, ok := shared.ParseColor(body.Color)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid color")
			return
		}
		color = c
	}
	if body.Level != "" {
		if _, err := ai.Preset(body.Level); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%v; valid: %v", err, ai.Levels()))
			return
		}
	}
	st, err := s.sess.ConfigureAI(r.Context(), session.AISettings{Enabled: body.Enabled, Color: color, Level: body.Level})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"state": s.view(r.Context(), st)})
}

// ---- API: reset / draw ----

type resetBody struct {
	Documents json.RawMessage `json:"documents"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body resetBody
	if !decodeBody(w, r, &body) {
		return
	}
	var rules []game.Rule
	var warnings []ruledoc.Warning
	if len(body.Documents) > 0 {
		var err error
		rules, warnings, err = ruledoc.Decode(bytes.NewReader(body.Documents))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	st, err := s.sess.Reset(r.Context(), rules)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"warnings": warnings, "state": s.view(r.Context(), st)})
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st, err := s.sess.DeclareDraw(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"state": s.view(r.Context(), st)})
}

// ---- SVG ----

func (s *Server) handleBoardSVG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st, err := s.sess.State(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	var opts []render.Option
	if c, ok := shared.ParseColor(q.Get("perspective")); ok {
		opts = append(opts, render.Perspective(c))
	}
	if from, ok := shared.ParsePosition(q.Get("from")); ok {
		if pc := st.Board.At(from); pc != nil {
			opts = append(opts, render.MarkSquares(game.LegalMoves(st.Board, pc, &st)...))
		}
	}

	var buf bytes.Buffer
	if err := render.SVG(&buf, st, opts...); err != nil {
		log.Printf("render svg: %v", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
