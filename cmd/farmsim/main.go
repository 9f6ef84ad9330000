// Command farmsim runs one autonomous farm playthrough to a terminal condition
// and records it in SQLite.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/talgya/farmsim/internal/api"
	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/engine"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/persistence"
)

func main() {
	slog.SetDefault(newLogger())

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cat, err := gamedata.DefaultCatalog()
	if err != nil {
		slog.Error("failed to compile static data", "error", err)
		os.Exit(1)
	}

	sim, err := engine.NewSimulation(cfg, cat, slog.Default())
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	budget, err := maxTicks()
	if err != nil {
		slog.Error("invalid tick budget", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	dbPath := envOr("FARMSIM_DB", "data/farmsim.db")
	var db *persistence.DB
	var runID string
	if dbPath != "-" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		db, err = persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		runID, err = db.BeginRun(persistence.RunMeta{Seed: cfg.Seed, Persona: cfg.Persona.Name, Overrides: cfg.Overrides})
		if err != nil {
			slog.Error("failed to record run", "error", err)
			os.Exit(1)
		}
		slog.Info("database opened", "path", dbPath, "run", runID)
	}

	runner := &engine.Runner{Sim: sim, MaxTicks: budget}

	// ── HTTP API (optional) ───────────────────────────────────────────
	var monitor *api.Monitor
	if port, err := strconv.Atoi(os.Getenv("FARMSIM_API_PORT")); err == nil && port > 0 {
		monitor = api.NewMonitor()
		srv := &api.Server{Monitor: monitor, Diag: sim, Port: port, RelayKey: os.Getenv("FARMSIM_RELAY_KEY")}
		srv.Start()
	}

	runner.OnTick = func(res engine.TickResult) {
		if monitor != nil {
			monitor.Publish(res)
		}
		if db != nil {
			if err := db.RecordTick(runID, res); err != nil {
				slog.Error("failed to record tick", "error", err)
			}
		}
	}
	if db != nil {
		runner.OnDay = func(day int, res engine.TickResult) {
			if err := db.SaveSnapshot(runID, res.State); err != nil {
				slog.Error("failed to save snapshot", "day", day, "error", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	sum, err := runner.Run(ctx)
	if err != nil {
		slog.Warn("run interrupted", "error", err)
	}

	if db != nil {
		if err := db.SaveSnapshot(runID, sum.Final); err != nil {
			slog.Error("failed to save final snapshot", "error", err)
		}
		if err := db.FinishRun(runID, sum); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
		if recent, err := db.RecentEvents(runID, events.High, 5); err == nil {
			for _, e := range recent {
				slog.Info("notable event", "minute", e.Minute, "category", e.Category, "description", e.Description)
			}
		}
	}

	printSummary(sum, time.Since(started))
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("FARMSIM_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if os.Getenv("FARMSIM_LOG_PRETTY") == "1" {
		h := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			Prefix:          "farmsim",
			Level:           charmlog.Level(level),
		})
		return slog.New(h)
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads FARMSIM_CONFIG if set; otherwise it compiles the defaults
// with FARMSIM_SEED and FARMSIM_PERSONA.
func loadConfig() (config.Config, error) {
	if path := os.Getenv("FARMSIM_CONFIG"); path != "" {
		return config.LoadFile(path)
	}
	seed, err := strconv.ParseUint(envOr("FARMSIM_SEED", "42"), 10, 64)
	if err != nil {
		return config.Config{}, fmt.Errorf("FARMSIM_SEED: %w", err)
	}
	name := envOr("FARMSIM_PERSONA", "balanced")
	persona, ok := config.LookupPersona(name)
	if !ok {
		return config.Config{}, fmt.Errorf("unknown persona %q", name)
	}
	return config.Compile(seed, persona, nil)
}

// maxTicks reads FARMSIM_MAX_TICKS; zero lifts the budget.
func maxTicks() (int, error) {
	n, err := strconv.Atoi(envOr("FARMSIM_MAX_TICKS", "200000"))
	if err != nil {
		return 0, fmt.Errorf("FARMSIM_MAX_TICKS: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("FARMSIM_MAX_TICKS: %d is negative", n)
	}
	return n, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printSummary(sum engine.Summary, wall time.Duration) {
	s := sum.Final
	fmt.Printf("outcome:     %s after %s ticks (%s)\n", sum.Outcome, humanize.Comma(int64(sum.Ticks)), s.Clock)
	fmt.Printf("simulated:   %s days, %s actions, %d faults\n",
		humanize.Comma(int64(sum.Duration/1440)), humanize.Comma(int64(sum.Actions)), sum.Faults)
	fmt.Printf("progress:    %d plots, hero level %d, phase %s\n", s.Progression.Plots, s.Progression.HeroLevel, s.Derived.Phase)
	fmt.Printf("gold:        %s (earned %s, spent %s)\n",
		humanize.Comma(int64(s.Resources.Gold)), humanize.Comma(int64(s.Stats.GoldEarned)), humanize.Comma(int64(s.Stats.GoldSpent)))
	fmt.Printf("farm:        %d harvests, %d withered, %d seeds caught\n", s.Stats.Harvests, s.Stats.Withered, s.Stats.SeedsCaught)
	fmt.Printf("adventures:  %d won, %d lost\n", s.Stats.AdventuresWon, s.Stats.AdventuresLost)
	fmt.Printf("wall time:   %s\n", wall.Round(time.Millisecond))
}
