package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAppliesOverrides(t *testing.T) {
	p, _ := LookupPersona("balanced")
	cfg, err := Compile(7, p, map[string]any{
		"decision.top_k":           1,
		"screens.priority.mine":    0.25,
		"checkin.night_start_hour": 22,
		"farm.seed_return_chance":  0,
		"start.seeds":              map[string]int{"potato": 4},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 1, cfg.Params.Decision.TopK)
	assert.Equal(t, 0.25, cfg.Params.Screens.Priority["mine"])
	assert.Equal(t, 1.0, cfg.Params.Screens.Priority["farm"])
	assert.Equal(t, 22, cfg.Params.CheckIn.NightStartHour)
	assert.Equal(t, 0.0, cfg.Params.Farm.SeedReturnChance)
	assert.Equal(t, map[string]int{"potato": 4}, cfg.Params.Start.Seeds)

	// Untouched fields keep their defaults.
	assert.Equal(t, Defaults().Forge, cfg.Params.Forge)
}

func TestCompileRejectsUnknownPath(t *testing.T) {
	p, _ := LookupPersona("casual")
	_, err := Compile(1, p, map[string]any{"decision.top_kk": 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownParameter))

	_, err = Compile(1, p, map[string]any{"decision.top_k.deeper": 2})
	assert.True(t, errors.Is(err, ErrUnknownParameter))
}

func TestCompileRejectsBadValues(t *testing.T) {
	p, _ := LookupPersona("balanced")
	cases := map[string]map[string]any{
		"wrong type":    {"decision.top_k": "many"},
		"scalar as map": {"screens.priority": 3},
		"zero top k":    {"decision.top_k": 0},
		"bad hour":      {"checkin.night_end_hour": 30},
		"negative seed": {"start.seeds": map[string]int{"carrot": -1}},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(1, p, overrides)
			assert.Error(t, err)
		})
	}
}

func TestPersonaValidate(t *testing.T) {
	for _, name := range PersonaNames() {
		p, ok := LookupPersona(name)
		require.True(t, ok)
		assert.NoError(t, p.Validate(), name)
	}
	bad := Persona{Name: "x", Efficiency: 1.2}
	assert.Error(t, bad.Validate())

	_, err := Compile(1, bad, nil)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	doc := `seed: 42
persona: optimizer
overrides:
  decision.top_k: 2
  tower.base_yield: 6
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "optimizer", cfg.Persona.Name)
	assert.Equal(t, 2, cfg.Params.Decision.TopK)
	assert.Equal(t, 6.0, cfg.Params.Tower.BaseYield)
}

func TestLoadInlinePersona(t *testing.T) {
	cfg, err := Load([]byte(`seed: 3
persona:
  efficiency: 0.1
  risk_tolerance: 0.2
  optimization: 0.3
  learning_rate: 0.4
`))
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Persona.Name)
	assert.Equal(t, 0.2, cfg.Persona.RiskTolerance)
}

func TestLoadSchemaFailures(t *testing.T) {
	cases := map[string]string{
		"unknown top-level key": "seed: 1\nspeed: 3\n",
		"trait out of range":    "persona: {efficiency: 2, risk_tolerance: 0, optimization: 0, learning_rate: 0}\n",
		"bad override path":     "overrides:\n  Decision.TopK: 1\n",
		"negative seed":         "seed: -4\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Load([]byte("persona: wizard\n"))
	assert.ErrorContains(t, err, "unknown persona")
}
