// Package weather provides the wind that drives seed catching at the tower.
// Wind is a smooth noise field over simulated time, so it drifts across a day
// instead of jumping between ticks.
package weather

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	MinWind = 0.5
	MaxWind = 1.5

	// minutesPerCycle is the time scale of one noise unit.
	minutesPerCycle = 360.0
)

// WindField samples wind strength over simulated minutes.
type WindField struct {
	noise opensimplex.Noise
	gusts opensimplex.Noise
}

// NewWindField creates a field from a seed.
func NewWindField(seed int64) *WindField {
	return &WindField{
		noise: opensimplex.NewNormalized(seed),
		gusts: opensimplex.NewNormalized(seed + 1),
	}
}

// Level returns the wind multiplier at a minute, in [MinWind, MaxWind].
func (w *WindField) Level(minute int) float64 {
	t := float64(minute) / minutesPerCycle
	base := octaveNoise(w.noise, t, 0, 3, 1.0, 0.5)
	gust := w.gusts.Eval2(t*4, 7.3)
	v := 0.8*base + 0.2*gust
	return MinWind + (MaxWind-MinWind)*clamp01(v)
}

// Conditions is the wind at one moment mapped onto simulation terms.
type Conditions struct {
	Wind        float64
	Description string
	Gusty       bool
}

// At returns the conditions at a minute.
func (w *WindField) At(minute int) Conditions {
	lvl := w.Level(minute)
	c := Conditions{Wind: lvl}
	switch {
	case lvl >= 1.3:
		c.Description = "strong gusts"
		c.Gusty = true
	case lvl >= 1.1:
		c.Description = "steady breeze"
	case lvl >= 0.8:
		c.Description = "light breeze"
	default:
		c.Description = "still air"
	}
	return c
}

// octaveNoise sums several frequencies of normalized noise and renormalizes
// to [0,1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for range octaves {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
