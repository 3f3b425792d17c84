package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/bootstrap"
	"pomodoro/internal/platform/clock"
	"pomodoro/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func testApp(t *testing.T) (*fiber.App, *bootstrap.App, *clock.Manual) {
	t.Helper()
	cfg, err := config.New(config.Config{
		DataDir:      t.TempDir(),
		HTTPAddr:     "127.0.0.1:0",
		AlertTimeout: time.Second,
		DedupWindow:  5 * time.Second,
		Locale:       "en",
		Timezone:     "UTC",
	})
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	app, err := bootstrap.New(cfg, zerolog.Nop(), bootstrap.Options{Clock: clk})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, app.Start(ctx))
	t.Cleanup(func() { _ = app.Close() })
	t.Cleanup(cancel)
	return app.Server().App(), app, clk
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode(t *testing.T, data []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestServer_Healthz(t *testing.T) {
	app, _, _ := testApp(t)

	resp, body := do(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestServer_StartAndStatus(t *testing.T) {
	app, _, clk := testApp(t)

	resp, body := do(t, app, http.MethodPost, "/api/v1/commands/start", `{"duration":25,"type":"work","project":"Acme"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, decode(t, body).Success)

	clk.Advance(90 * time.Second)
	resp, body = do(t, app, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		Phase            string `json:"phase"`
		RemainingSeconds int    `json:"remainingSeconds"`
		LastProject      string `json:"lastProject"`
		Badge            struct {
			Text string `json:"text"`
		} `json:"badge"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &status))
	assert.Equal(t, "running", status.Phase)
	assert.Equal(t, 1410, status.RemainingSeconds)
	assert.Equal(t, "Acme", status.LastProject)
	assert.Equal(t, "24", status.Badge.Text)
}

func TestServer_InvalidCommandIsBadRequest(t *testing.T) {
	app, _, _ := testApp(t)

	resp, body := do(t, app, http.MethodPost, "/api/v1/commands/start", `{"duration":0,"type":"work","project":"Acme"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decode(t, body)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "duration")

	resp, _ = do(t, app, http.MethodPost, "/api/v1/commands/start", `{"duration":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_UnknownActionIsNotFound(t *testing.T) {
	app, _, _ := testApp(t)

	resp, body := do(t, app, http.MethodPost, "/api/v1/commands/launchRocket", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, decode(t, body).Success)
}

func TestServer_CompletionShowsInHistoryAndExport(t *testing.T) {
	app, core, clk := testApp(t)

	resp, _ := do(t, app, http.MethodPost, "/api/v1/commands/start", `{"duration":1,"type":"work","project":"Acme"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	clk.Advance(61 * time.Second)
	core.Engine.Tick()

	resp, body := do(t, app, http.MethodGet, "/api/v1/history?period=today&project=Acme", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Total int `json:"total"`
		Days  []struct {
			Date string `json:"date"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &view))
	assert.Equal(t, 1, view.Total)
	require.Len(t, view.Days, 1)
	assert.Equal(t, "2026-03-02", view.Days[0].Date)

	resp, body = do(t, app, http.MethodGet, "/api/v1/export/csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "pomodoro-sessions-2026-03-02.csv")
	lines := strings.Split(string(body), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"Acme"`)

	// The finished work session chained straight into a break.
	resp, body = do(t, app, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		Phase         string `json:"phase"`
		ActiveSession struct {
			Type string `json:"type"`
		} `json:"activeSession"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &status))
	assert.Equal(t, "running", status.Phase)
	assert.Equal(t, "break", status.ActiveSession.Type)
}

func TestServer_UnknownExportFormat(t *testing.T) {
	app, _, _ := testApp(t)

	resp, body := do(t, app, http.MethodGet, "/api/v1/export/xml", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Unknown export format")
}

func TestServer_ActionsAndMetrics(t *testing.T) {
	app, _, _ := testApp(t)

	resp, body := do(t, app, http.MethodGet, "/api/v1/actions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var actions struct {
		Actions []string `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(body, &actions))
	assert.Contains(t, actions.Actions, "start")
	assert.Contains(t, actions.Actions, "getHistory")
	assert.Contains(t, actions.Actions, "testAlerts")

	do(t, app, http.MethodGet, "/api/v1/today", "")
	resp, body = do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pomodoro_")
}
