package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chess_architect/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sess, err := session.New(session.Config{Seed: 1})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = sess.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return NewServer(sess)
}

type statePayload struct {
	State struct {
		Session       string   `json:"session"`
		Board         string   `json:"board"`
		CurrentPlayer string   `json:"currentPlayer"`
		Status        string   `json:"status"`
		Notation      []string `json:"notation"`
		Ordnance      []struct {
			Kind      string `json:"kind"`
			Remaining int    `json:"remaining"`
		} `json:"ordnance"`
		Rules []struct {
			ID     string `json:"ruleId"`
			Active bool   `json:"active"`
		} `json:"rules"`
	} `json:"state"`
	Warnings []struct {
		Message string `json:"message"`
	} `json:"warnings"`
	Error string `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, statePayload) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var payload statePayload
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s %s: decode body: %v\n%s", method, path, err, rr.Body.String())
		}
	}
	return rr, payload
}

func TestStateAndMove(t *testing.T) {
	h := newTestServer(t).routes()

	rr, payload := do(t, h, http.MethodGet, "/api/state", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d", rr.Code)
	}
	if payload.State.Session == "" {
		t.Fatalf("expected session id")
	}
	if payload.State.CurrentPlayer != "white" || payload.State.Status != "active" {
		t.Fatalf("unexpected initial state %+v", payload.State)
	}

	rr, payload = do(t, h, http.MethodPost, "/api/move", `{"from":"e2","to":"e4"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("move: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := payload.State.Notation; len(got) != 1 || got[0] != "e2-e4" {
		t.Fatalf("expected notation [e2-e4], got %v", got)
	}

	rr, _ = do(t, h, http.MethodPost, "/api/move", `{"notation":"e7e5"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("notation move: expected 200, got %d", rr.Code)
	}
}

func TestMoveRejections(t *testing.T) {
	h := newTestServer(t).routes()

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{name: "wrong method", method: http.MethodGet, status: http.StatusMethodNotAllowed},
		{name: "bad json", method: http.MethodPost, body: `{"from":`, status: http.StatusBadRequest},
		{name: "bad square", method: http.MethodPost, body: `{"from":"z9","to":"e4"}`, status: http.StatusBadRequest},
		{name: "illegal", method: http.MethodPost, body: `{"from":"e2","to":"e5"}`, status: http.StatusBadRequest},
		{name: "not your turn", method: http.MethodPost, body: `{"from":"e7","to":"e5"}`, status: http.StatusConflict},
		{name: "too large", method: http.MethodPost, body: `{"from":"` + strings.Repeat("a", 2<<20) + `"}`, status: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, payload := do(t, h, tt.method, "/api/move", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, rr.Code, payload.Error)
			}
			if payload.Error == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestLegal(t *testing.T) {
	h := newTestServer(t).routes()

	req := httptest.NewRequest(http.MethodGet, "/api/legal?from=g1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Moves []string `json:"moves"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Moves) != 2 {
		t.Fatalf("expected 2 knight moves, got %v", payload.Moves)
	}

	rr, _ = do(t, h, http.MethodGet, "/api/legal?from=e4", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty square: expected 400, got %d", rr.Code)
	}
}

func TestDeployAndTick(t *testing.T) {
	h := newTestServer(t).routes()

	rr, payload := do(t, h, http.MethodPost, "/api/deploy", `{"owner":"white","kind":"mine","origin":"d6","countdown":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("deploy: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(payload.State.Ordnance) != 1 || payload.State.Ordnance[0].Remaining != 1 {
		t.Fatalf("expected one armed mine, got %+v", payload.State.Ordnance)
	}

	rr, _ = do(t, h, http.MethodPost, "/api/deploy", `{"owner":"black","kind":"mine","origin":"d6"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rr.Code)
	}
	var rejected struct {
		Result struct {
			OK     bool   `json:"ok"`
			Reason string `json:"reason"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &rejected); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rejected.Result.OK || rejected.Result.Reason != "duplicate-position" {
		t.Fatalf("unexpected result %+v", rejected.Result)
	}

	rr, _ = do(t, h, http.MethodPost, "/api/deploy", `{"owner":"black","kind":"mine","origin":"j9"}`)
	if rr.Code != http.StatusConflict || !strings.Contains(rr.Body.String(), "invalid-square") {
		t.Fatalf("off board: expected invalid-square rejection, got %d %s", rr.Code, rr.Body.String())
	}

	rr, _ = do(t, h, http.MethodPost, "/api/deploy", `{"owner":"black","kind":"nuke","origin":"d4"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind: expected 400, got %d", rr.Code)
	}

	rr, payload = do(t, h, http.MethodPost, "/api/tick", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("tick: expected 200, got %d", rr.Code)
	}
	if len(payload.State.Ordnance) != 0 {
		t.Fatalf("expected mine to detonate")
	}
	if !strings.HasPrefix(payload.State.Board, "rnbqkbnr/pp...ppp/") {
		t.Fatalf("expected c7, d7, e7 cleared, got %s", payload.State.Board)
	}
}

func TestRules(t *testing.T) {
	h := newTestServer(t).routes()

	doc := `{"documents": [{
		"meta": {"ruleId": "tempo", "name": "Tempo"},
		"logic": {"effects": [{"id": "t", "actions": ["extraMove", "audio.play"]}]}
	}]}`
	rr, payload := do(t, h, http.MethodPost, "/api/rules", doc)
	if rr.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(payload.State.Rules) != 1 || !payload.State.Rules[0].Active {
		t.Fatalf("expected one active rule, got %+v", payload.State.Rules)
	}
	if len(payload.Warnings) != 1 || !strings.Contains(payload.Warnings[0].Message, "audio.play") {
		t.Fatalf("expected audio.play warning, got %+v", payload.Warnings)
	}

	rr, payload = do(t, h, http.MethodPost, "/api/rules", `{"ruleId":"tempo","active":false}`)
	if rr.Code != http.StatusOK || payload.State.Rules[0].Active {
		t.Fatalf("toggle: got %d %+v", rr.Code, payload.State.Rules)
	}

	rr, _ = do(t, h, http.MethodPost, "/api/rules", `{"ruleId":"nope","active":true}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown rule: expected 404, got %d", rr.Code)
	}

	rr, _ = do(t, h, http.MethodPost, "/api/rules", `{"documents": [{"meta": {}}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid document: expected 400, got %d", rr.Code)
	}
}

func TestResetDrawAndAI(t *testing.T) {
	h := newTestServer(t).routes()

	do(t, h, http.MethodPost, "/api/move", `{"from":"d2","to":"d4"}`)
	rr, payload := do(t, h, http.MethodPost, "/api/reset", "")
	if rr.Code != http.StatusOK || len(payload.State.Notation) != 0 {
		t.Fatalf("reset: got %d %v", rr.Code, payload.State.Notation)
	}

	rr, _ = do(t, h, http.MethodPost, "/api/ai", `{"enabled":true,"color":"black","level":"impossible"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad level: expected 400, got %d", rr.Code)
	}

	rr, payload = do(t, h, http.MethodPost, "/api/draw", "")
	if rr.Code != http.StatusOK || payload.State.Status != "draw" {
		t.Fatalf("draw: got %d %q", rr.Code, payload.State.Status)
	}
	rr, _ = do(t, h, http.MethodPost, "/api/move", `{"from":"e2","to":"e4"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("move after draw: expected 409, got %d", rr.Code)
	}
}

func TestBoardSVGAndIndex(t *testing.T) {
	h := newTestServer(t).routes()

	rr, _ := do(t, h, http.MethodGet, "/api/board.svg?perspective=black&from=e2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("svg: expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "<svg") {
		t.Fatalf("expected svg document")
	}

	rr, _ = do(t, h, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "white to move") {
		t.Fatalf("index: got %d %s", rr.Code, rr.Body.String())
	}

	rr, _ = do(t, h, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: got %d %q", rr.Code, rr.Body.String())
	}
}
