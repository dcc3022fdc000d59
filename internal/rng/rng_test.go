package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeeded_Deterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
		assert.Equal(t, a.Float64(), b.Float64())
	}
	assert.Equal(t, uint64(42), a.Seed())
}

func TestSeeded_Ranges(t *testing.T) {
	s := NewSeeded(7)
	for i := 0; i < 1000; i++ {
		n := s.Intn(3)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 3)
		f := s.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}

func TestScripted_RepeatsLastValue(t *testing.T) {
	s := NewScripted([]int{1, 2}, []float64{0.25})
	assert.Equal(t, 1, s.Intn(4))
	assert.Equal(t, 2, s.Intn(4))
	assert.Equal(t, 2, s.Intn(4))
	assert.Equal(t, 0, s.Intn(2), "values wrap modulo n")
	assert.Equal(t, 0.25, s.Float64())
	assert.Equal(t, 0.25, s.Float64())
}
