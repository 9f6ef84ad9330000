// Command gardener watches a farmsim run through its HTTP API and reports
// when the run stalls, faults, or finishes.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/farmsim/internal/gardener"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	apiURL := envOrDefault("FARMSIM_API_URL", "http://localhost:8080")
	memoryPath := envOrDefault("GARDENER_MEMORY", "gardener_memory.json")
	intervalSec := envIntOrDefault("GARDENER_INTERVAL", 30)
	interval := time.Duration(intervalSec) * time.Second

	slog.Info("farmsim gardener starting", "api_url", apiURL, "interval", interval)

	observer := gardener.NewObserver(apiURL)
	mem := gardener.LoadMemory(memoryPath)

	slog.Info("waiting for farmsim API...")
	waitForAPI(observer)

	if runCycle(observer, mem, memoryPath) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if runCycle(observer, mem, memoryPath) {
				return
			}
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			fmt.Println("Gardener stopped.")
			return
		}
	}
}

// runCycle executes one observe → triage cycle. It reports whether the run
// has ended.
func runCycle(observer *gardener.Observer, mem *gardener.CycleMemory, memoryPath string) bool {
	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return false
	}
	h := gardener.Triage(snap, mem)
	mem.Record(snap, h)
	mem.Save(memoryPath)

	attrs := []any{
		"time", snap.Status.Time,
		"plots", snap.Status.Plots,
		"hero_level", snap.Status.HeroLevel,
		"gold", snap.Status.Gold,
		"faults", h.Faults,
		"failed_actions", h.Failures,
		"idle_cycles", h.IdleCycles,
		"level", h.Level,
	}
	switch h.Level {
	case gardener.Critical:
		slog.Error("run unhealthy", attrs...)
	case gardener.Warning:
		slog.Warn("run stalling", attrs...)
	default:
		slog.Info("run observed", attrs...)
	}
	return snap.Status.IsComplete || snap.Status.IsStuck
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(observer *gardener.Observer) {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for !observer.Ready() {
		if time.Now().After(deadline) {
			slog.Error("farmsim API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("farmsim not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
	slog.Info("farmsim API is ready")
}
