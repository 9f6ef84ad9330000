package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameSeedSameStream(t *testing.T) {
	a, b := New(99), New(99)
	for range 50 {
		assert.Equal(t, a.Float(), b.Float())
	}
}

func TestForkIgnoresParentDraws(t *testing.T) {
	a, b := New(5), New(5)
	a.Float()
	a.IntN(10)
	assert.Equal(t, a.Fork("combat").Uint64(), b.Fork("combat").Uint64())
	assert.NotEqual(t, a.Fork("combat").Uint64(), a.Fork("tower").Uint64())
}

func TestChanceBounds(t *testing.T) {
	s := New(1)
	for range 20 {
		assert.False(t, s.Chance(0))
		assert.True(t, s.Chance(1))
	}
}

func TestWeighted(t *testing.T) {
	s := New(3)
	assert.Equal(t, -1, s.Weighted(nil))
	assert.Equal(t, -1, s.Weighted([]float64{0, -1}))
	for range 20 {
		assert.Equal(t, 2, s.Weighted([]float64{0, 0, 4}))
	}

	counts := make([]int, 2)
	for range 2000 {
		counts[s.Weighted([]float64{3, 1})]++
	}
	assert.Greater(t, counts[0], counts[1])
}

func TestRange(t *testing.T) {
	s := New(8)
	for range 100 {
		v := s.Range(0.75, 1.25)
		assert.GreaterOrEqual(t, v, 0.75)
		assert.Less(t, v, 1.25)
	}
}
