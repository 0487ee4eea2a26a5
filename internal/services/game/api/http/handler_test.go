package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/flatline/internal/services/game/domain/action"
	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	d, err := action.NewDecider(action.DefaultBalance(), action.NewRand(11))
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	eng, err := engine.New(engine.Config{Decider: d, Delay: -1, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := eng.Init(context.Background()); err != nil {
		t.Fatalf("init engine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Teardown(context.Background()) })
	return eng
}

func quietOptions(opts Options) Options {
	opts.Logger = log.New(io.Discard, "", 0)
	return opts
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthAndState(t *testing.T) {
	h := NewHandler(newTestEngine(t), quietOptions(Options{}))

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/state", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[struct {
		Status string       `json:"status"`
		Player player.State `json:"player"`
	}](t, rec)
	if body.Status != string(engine.StatusReady) || body.Player.Credits != player.Default().Credits {
		t.Fatalf("unexpected state body %+v", body)
	}
}

func TestHealthBeforeInit(t *testing.T) {
	eng, err := engine.New(engine.Config{Delay: -1, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	h := NewHandler(eng, quietOptions(Options{}))

	if rec := do(t, h, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/actions/reboot", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for action before init, got %d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Code != "NOT_READY" {
		t.Fatalf("expected NOT_READY, got %+v", body)
	}
}

func TestActionRoutes(t *testing.T) {
	eng := newTestEngine(t)
	h := NewHandler(eng, quietOptions(Options{}))

	rec := do(t, h, http.MethodPost, "/api/actions/craft-firewall", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decode[engine.Result](t, rec)
	if !result.Success || len(result.Entries) == 0 {
		t.Fatalf("expected successful craft, got %+v", result)
	}

	rec = do(t, h, http.MethodPost, "/api/actions/deploy-bot", `{"model":"scout-alpha"}`, nil)
	result = decode[engine.Result](t, rec)
	if !result.Success {
		t.Fatalf("expected deploy success, got %+v", result)
	}
	if got := eng.State().CountBots(player.BotDeployed); got != 1 {
		t.Fatalf("expected 1 deployed bot, got %d", got)
	}

	rec = do(t, h, http.MethodPost, "/api/actions/attack", `{"target":""}`, nil)
	result = decode[engine.Result](t, rec)
	if result.Success || result.Code != "TARGET_REQUIRED" {
		t.Fatalf("expected TARGET_REQUIRED, got %+v", result)
	}

	rec = do(t, h, http.MethodPost, "/api/actions/self-destruct", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/actions/attack", `{"target":`, nil)
	result = decode[engine.Result](t, rec)
	if result.Code != "COMMAND_PAYLOAD_INVALID" {
		t.Fatalf("expected COMMAND_PAYLOAD_INVALID, got %+v", result)
	}
}

func TestLogsFilterAndLimit(t *testing.T) {
	eng := newTestEngine(t)
	h := NewHandler(eng, quietOptions(Options{}))
	if _, err := eng.Attack(context.Background(), "ghost-node"); err != nil {
		t.Fatalf("attack: %v", err)
	}

	rec := do(t, h, http.MethodGet, `/api/logs?filter=level%20%3D%20%22warn%22`, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Entries []logfeed.Entry `json:"entries"`
	}](t, rec)
	if len(body.Entries) != 1 || body.Entries[0].Level != logfeed.LevelWarn {
		t.Fatalf("expected one warn entry, got %+v", body.Entries)
	}

	rec = do(t, h, http.MethodGet, "/api/logs?limit=3", "", nil)
	body = decode[struct {
		Entries []logfeed.Entry `json:"entries"`
	}](t, rec)
	if len(body.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(body.Entries))
	}

	if rec := do(t, h, http.MethodGet, "/api/logs?filter=%3D%3D", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad filter, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/logs?limit=-1", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestLoginIssuesToken(t *testing.T) {
	eng := newTestEngine(t)
	auth := NewAuth("test-secret", time.Hour, nil)
	h := NewHandler(eng, quietOptions(Options{Auth: auth}))

	rec := do(t, h, http.MethodPost, "/api/actions/craft-firewall", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/login", `{"username":"dixie"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	login := decode[loginResponse](t, rec)
	if login.Token == "" {
		t.Fatal("expected token")
	}
	if subject, err := auth.Verify(login.Token); err != nil || subject != "dixie" {
		t.Fatalf("expected subject dixie, got %q (%v)", subject, err)
	}

	header := http.Header{"Authorization": {"Bearer " + login.Token}}
	rec = do(t, h, http.MethodPost, "/api/actions/craft-firewall", "", header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
	if eng.State().Username != "dixie" {
		t.Fatalf("expected username dixie, got %q", eng.State().Username)
	}
}

func TestProfileRoutes(t *testing.T) {
	eng := newTestEngine(t)
	h := NewHandler(eng, quietOptions(Options{}))

	rec := do(t, h, http.MethodPut, "/api/profile", `{"nickname":"wintermute","gender":"other","bio":"AI"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if result := decode[engine.Result](t, rec); !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	rec = do(t, h, http.MethodGet, "/api/profile", "", nil)
	profile := decode[player.Profile](t, rec)
	if profile.Nickname != "wintermute" || profile.Bio != "AI" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	rec = do(t, h, http.MethodPut, "/api/profile", `{"nickname":"wintermute"}`, nil)
	if result := decode[engine.Result](t, rec); result.Code != "PROFILE_INVALID" {
		t.Fatalf("expected PROFILE_INVALID, got %+v", result)
	}
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(newTestEngine(t), quietOptions(Options{RateLimit: 0.001, RateBurst: 2}))

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/api/actions/virus-wave", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodPost, "/api/actions/virus-wave", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Code != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED, got %+v", body)
	}
	// Reads are not rate limited.
	if rec := do(t, h, http.MethodGet, "/api/state", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for state, got %d", rec.Code)
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := NewHandler(newTestEngine(t), quietOptions(Options{}))
	body := `{"nickname":"` + string(bytes.Repeat([]byte("a"), maxBodyBytes)) + `"}`

	rec := do(t, h, http.MethodPut, "/api/profile", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
