package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/engine"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
)

func newServer(t *testing.T) (*Server, *engine.Simulation) {
	t.Helper()
	cat, err := gamedata.DefaultCatalog()
	require.NoError(t, err)
	persona, _ := config.LookupPersona("balanced")
	cfg, err := config.Compile(9, persona, nil)
	require.NoError(t, err)
	sim, err := engine.NewSimulation(cfg, cat, nil)
	require.NoError(t, err)
	return &Server{Monitor: NewMonitor(), Diag: sim}, sim
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusBeforeAndAfterTicks(t *testing.T) {
	srv, sim := newServer(t)
	h := srv.Handler()

	rec := get(t, h, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"running": false`)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/v1/state").Code)

	for range 3 {
		srv.Monitor.Publish(sim.Tick())
	}
	rec = get(t, h, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.EqualValues(t, 3, status["ticks"])
	assert.EqualValues(t, 15, status["minute"])
	assert.EqualValues(t, 3, status["plots"])
	assert.Equal(t, true, status["running"])

	rec = get(t, h, "/api/v1/diagnose")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reasoning"`)
}

func TestEventsFilter(t *testing.T) {
	srv, _ := newServer(t)
	srv.Monitor.Publish(engine.TickResult{Events: []events.Event{
		{Minute: 5, Severity: events.Info, Category: events.CategoryFarm, Description: "a"},
		{Minute: 5, Severity: events.Medium, Category: events.CategoryAction, Description: "b"},
		{Minute: 10, Severity: events.High, Category: events.CategoryFault, Description: "c"},
	}})
	h := srv.Handler()

	var got []events.Event
	rec := get(t, h, "/api/v1/events?severity=medium")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Description)
	assert.Equal(t, "c", got[1].Description)

	rec = get(t, h, "/api/v1/events?limit=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].Description)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/events?severity=loud").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/events?limit=0").Code)
}

func TestStreamNeedsRelayKey(t *testing.T) {
	srv, _ := newServer(t)
	assert.Equal(t, http.StatusForbidden, get(t, srv.Handler(), "/api/v1/stream").Code)

	srv.RelayKey = "secret"
	assert.Equal(t, http.StatusUnauthorized, get(t, srv.Handler(), "/api/v1/stream").Code)
}

func TestMonitorSubscription(t *testing.T) {
	m := NewMonitor()
	id, ch := m.Subscribe()
	m.Publish(engine.TickResult{Events: []events.Event{{Description: "x"}}})
	select {
	case e := <-ch:
		assert.Equal(t, "x", e.Description)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	m.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 61, rl.RetryAfter("a"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientAddr(req))
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", clientAddr(req))
}
