// Package config holds the simulation's tunable parameters, player personas,
// and the loading of run configuration files.
package config

import (
	"fmt"
	"sort"
)

// Persona is a named bundle of behavioural traits. Every trait is in [0,1].
type Persona struct {
	Name          string  `yaml:"name" json:"name"`
	Efficiency    float64 `yaml:"efficiency" json:"efficiency"`
	RiskTolerance float64 `yaml:"risk_tolerance" json:"risk_tolerance"`
	Optimization  float64 `yaml:"optimization" json:"optimization"`
	LearningRate  float64 `yaml:"learning_rate" json:"learning_rate"`
}

// Validate reports the first trait outside [0,1].
func (p Persona) Validate() error {
	traits := []struct {
		name string
		v    float64
	}{
		{"efficiency", p.Efficiency},
		{"risk_tolerance", p.RiskTolerance},
		{"optimization", p.Optimization},
		{"learning_rate", p.LearningRate},
	}
	for _, t := range traits {
		if t.v < 0 || t.v > 1 {
			return fmt.Errorf("persona %s: %s %.3f outside [0,1]", p.Name, t.name, t.v)
		}
	}
	return nil
}

var personas = map[string]Persona{
	"casual":    {Name: "casual", Efficiency: 0.3, RiskTolerance: 0.3, Optimization: 0.2, LearningRate: 0.4},
	"balanced":  {Name: "balanced", Efficiency: 0.5, RiskTolerance: 0.5, Optimization: 0.5, LearningRate: 0.5},
	"optimizer": {Name: "optimizer", Efficiency: 0.9, RiskTolerance: 0.4, Optimization: 0.9, LearningRate: 0.7},
	"daredevil": {Name: "daredevil", Efficiency: 0.6, RiskTolerance: 0.95, Optimization: 0.4, LearningRate: 0.6},
}

// LookupPersona returns a built-in persona by name.
func LookupPersona(name string) (Persona, bool) {
	p, ok := personas[name]
	return p, ok
}

// PersonaNames lists the built-in personas, sorted.
func PersonaNames() []string {
	names := make([]string, 0, len(personas))
	for n := range personas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
