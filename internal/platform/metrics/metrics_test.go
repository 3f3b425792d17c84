package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New()
	m.RecordSession("work")
	m.RecordSession("work")
	m.RecordAlert("sound", "ok")
	m.RecordCommand("start", "ok")
	m.RecordPersistenceError("timer_state")
	m.SetPhase("running")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsCompleted.WithLabelValues("work")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsTotal.WithLabelValues("sound", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TimerPhase.WithLabelValues("running")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TimerPhase.WithLabelValues("idle")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordSession("work")
	m.RecordAlert("sound", "failed")
	m.SetPhase("idle")
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordSession("break")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pomodoro_sessions_completed_total")
}
