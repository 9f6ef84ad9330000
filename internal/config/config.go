package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrUnknownParameter is returned when an override path names no parameter.
var ErrUnknownParameter = errors.New("unknown parameter")

//go:embed schema.json
var schemaJSON string

// Config is a compiled run configuration. Params already has Overrides applied.
type Config struct {
	Seed      uint64
	Persona   Persona
	Params    Params
	Overrides map[string]any
}

// Compile merges dotted-path overrides onto the built-in defaults and
// validates the result. Overrides are applied in sorted path order.
func Compile(seed uint64, persona Persona, overrides map[string]any) (Config, error) {
	if err := persona.Validate(); err != nil {
		return Config{}, err
	}
	params, err := Apply(Defaults(), overrides)
	if err != nil {
		return Config{}, err
	}
	if err := params.Validate(); err != nil {
		return Config{}, err
	}
	return Config{Seed: seed, Persona: persona, Params: params, Overrides: overrides}, nil
}

// Apply returns a copy of base with each override path set to its value.
func Apply(base Params, overrides map[string]any) (Params, error) {
	if len(overrides) == 0 {
		return base, nil
	}
	var root yaml.Node
	if err := root.Encode(base); err != nil {
		return base, fmt.Errorf("encode parameters: %w", err)
	}

	paths := make([]string, 0, len(overrides))
	for p := range overrides {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		target, err := lookup(&root, path)
		if err != nil {
			return base, err
		}
		var repl yaml.Node
		if err := repl.Encode(overrides[path]); err != nil {
			return base, fmt.Errorf("override %s: %w", path, err)
		}
		if target.Kind != repl.Kind {
			return base, fmt.Errorf("override %s: cannot replace %s with %s", path, kindName(target.Kind), kindName(repl.Kind))
		}
		*target = repl
	}

	var out Params
	if err := root.Decode(&out); err != nil {
		return base, fmt.Errorf("decode overridden parameters: %w", err)
	}
	return out, nil
}

func lookup(root *yaml.Node, path string) (*yaml.Node, error) {
	node := root
	for _, seg := range strings.Split(path, ".") {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, path)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == seg {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, path)
		}
		node = next
	}
	return node, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "node"
	}
}

// Validate checks cross-field constraints that yaml decoding cannot.
func (p Params) Validate() error {
	switch {
	case p.Start.Speed <= 0:
		return fmt.Errorf("start.speed must be positive")
	case p.Start.Plots < 0 || p.Start.Gold < 0 || p.Start.Energy < 0 || p.Start.Water < 0:
		return fmt.Errorf("start resources must not be negative")
	case p.Start.Hour < 0 || p.Start.Hour > 23:
		return fmt.Errorf("start.hour %d outside 0..23", p.Start.Hour)
	case p.Decision.TopK < 1:
		return fmt.Errorf("decision.top_k must be at least 1")
	case p.Decision.Jitter < 0:
		return fmt.Errorf("decision.jitter must not be negative")
	case p.CheckIn.NightStartHour < 0 || p.CheckIn.NightStartHour > 23 ||
		p.CheckIn.NightEndHour < 0 || p.CheckIn.NightEndHour > 23:
		return fmt.Errorf("checkin night hours outside 0..23")
	case len(p.Storage.Caps) == 0:
		return fmt.Errorf("storage.caps must list at least one tier")
	case len(p.Tower.NetMultipliers) == 0:
		return fmt.Errorf("tower.net_multipliers must list at least one tier")
	case p.Stuck.Days < 1:
		return fmt.Errorf("stuck.days must be at least 1")
	case p.Mine.DepthTierSize < 1 || p.Mine.SampleEveryMinutes < 1:
		return fmt.Errorf("mine tier size and sample interval must be positive")
	case p.Gnomes.WaterCost <= 0 || p.Gnomes.HarvestCost <= 0 || p.Gnomes.MineCost <= 0:
		return fmt.Errorf("gnome job costs must be positive")
	case p.Forge.QueueCapacity < 1:
		return fmt.Errorf("forge.queue_capacity must be at least 1")
	}
	for name, v := range p.Start.Seeds {
		if v < 0 {
			return fmt.Errorf("start.seeds.%s must not be negative", name)
		}
	}
	for name, v := range p.Start.Materials {
		if v < 0 {
			return fmt.Errorf("start.materials.%s must not be negative", name)
		}
	}
	return nil
}

// File is the on-disk run configuration. Persona is either a built-in name
// or an inline trait mapping.
type File struct {
	Seed      uint64         `yaml:"seed"`
	Persona   yaml.Node      `yaml:"persona"`
	Overrides map[string]any `yaml:"overrides"`
}

// LoadFile reads, schema-validates and compiles a YAML run configuration.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Load(raw)
}

// Load is LoadFile over an in-memory document.
func Load(raw []byte) (Config, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Config{}, err
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	persona, err := resolvePersona(&f.Persona)
	if err != nil {
		return Config{}, err
	}
	return Compile(f.Seed, persona, f.Overrides)
}

func resolvePersona(n *yaml.Node) (Persona, error) {
	if n.Kind == 0 {
		p, _ := LookupPersona("balanced")
		return p, nil
	}
	if n.Kind == yaml.ScalarNode {
		p, ok := LookupPersona(n.Value)
		if !ok {
			return Persona{}, fmt.Errorf("unknown persona %q (have %s)", n.Value, strings.Join(PersonaNames(), ", "))
		}
		return p, nil
	}
	var p Persona
	if err := n.Decode(&p); err != nil {
		return Persona{}, fmt.Errorf("persona: %w", err)
	}
	if p.Name == "" {
		p.Name = "custom"
	}
	return p, nil
}

var schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile("config.schema.json")
})

// validateDocument checks a decoded YAML document against the embedded schema.
// The document is normalised through JSON first so numbers arrive as the
// validator expects them.
func validateDocument(doc any) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
