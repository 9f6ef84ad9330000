package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindLevelBoundsAndDeterminism(t *testing.T) {
	a, b := NewWindField(11), NewWindField(11)
	for m := 0; m < 5000; m += 37 {
		lvl := a.Level(m)
		assert.GreaterOrEqual(t, lvl, MinWind)
		assert.LessOrEqual(t, lvl, MaxWind)
		assert.Equal(t, lvl, b.Level(m))
	}
}

func TestWindDriftsSmoothly(t *testing.T) {
	w := NewWindField(4)
	for m := 0; m < 2000; m += 5 {
		assert.InDelta(t, w.Level(m), w.Level(m+5), 0.2)
	}
}

func TestConditionsDescribeWind(t *testing.T) {
	w := NewWindField(2)
	c := w.At(120)
	assert.NotEmpty(t, c.Description)
	assert.Equal(t, w.Level(120), c.Wind)
	assert.Equal(t, c.Wind >= 1.3, c.Gusty)
}
