// Package api provides a read-only HTTP view of a running simulation.
// Handlers never touch the live state; they read the snapshots the
// simulation publishes through a Monitor.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/farmsim/internal/decision"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/state"
)

const maxSSEConns = 2

// Diagnoser computes a side-effect-free diagnosis of a snapshot.
type Diagnoser interface {
	DiagnoseSnapshot(s *state.State) decision.Diagnosis
}

// Server serves the published run over HTTP.
type Server struct {
	Monitor  *Monitor
	Diag     Diagnoser
	Port     int
	RelayKey string // Bearer token for the SSE stream. Empty = streaming disabled.

	sseConns int32
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	diagLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/diagnose", RateLimitMiddleware(diagLimiter, s.handleDiagnose))
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)
	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "relay_auth", s.RelayKey != "")
	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res, ticks := s.Monitor.Latest()
	st := res.State
	if st == nil {
		writeJSON(w, map[string]any{"ticks": 0, "running": false})
		return
	}
	writeJSON(w, map[string]any{
		"ticks":       ticks,
		"time":        st.Clock.String(),
		"minute":      st.Clock.Total,
		"phase":       st.Derived.Phase,
		"farm_stage":  st.Derived.FarmStage,
		"plots":       st.Progression.Plots,
		"hero_level":  st.Progression.HeroLevel,
		"gold":        st.Resources.Gold,
		"energy":      st.Resources.Energy,
		"water":       st.Resources.Water,
		"seeds":       st.Resources.TotalSeeds(),
		"screen":      st.Location.Screen,
		"screens":     st.Derived.Screens,
		"is_complete": res.IsComplete,
		"is_stuck":    res.IsStuck,
		"running":     !res.IsComplete && !res.IsStuck,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.Monitor.State()
	if st == nil {
		http.Error(w, "no tick yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, recentEvents)
	}
	sev := events.Info
	if v := r.URL.Query().Get("severity"); v != "" {
		if err := sev.UnmarshalText([]byte(v)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	writeJSON(w, s.Monitor.Events(sev, limit))
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	st := s.Monitor.State()
	if st == nil || s.Diag == nil {
		http.Error(w, "no tick yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.Diag.DiagnoseSnapshot(st))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.RelayKey == "" {
		http.Error(w, "streaming disabled (no relay key)", http.StatusForbidden)
		return
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.RelayKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID, ch := s.Monitor.Subscribe()
	defer s.Monitor.Unsubscribe(subID)

	for _, e := range s.Monitor.Events(events.Low, 50) {
		writeSSEEvent(w, e)
	}
	flusher.Flush()
	slog.Info("SSE client connected", "sub_id", subID)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", subID)
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, e events.Event) {
	data, _ := json.Marshal(e)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Category, data)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
