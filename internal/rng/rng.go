// Package rng supplies the randomness consumed by the outcome engines.
package rng

import (
	"math/rand/v2"
	"sync"
)

// Source is a uniform random source. Intn returns a value in [0,n), Float64 in [0,1).
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Seeded is a deterministic PCG source. The same seed always replays the same sequence.
type Seeded struct {
	mu   sync.Mutex
	seed uint64
	r    *rand.Rand
}

// NewSeeded creates a deterministic source for the given seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{seed: seed, r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Seed returns the seed the source was created with.
func (s *Seeded) Seed() uint64 { return s.seed }

func (s *Seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Scripted replays fixed values and then repeats the last one. Intended for tests.
type Scripted struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

// NewScripted creates a source that yields ints for Intn and floats for Float64 in order.
func NewScripted(ints []int, floats []float64) *Scripted {
	return &Scripted{ints: ints, floats: floats}
}

func (s *Scripted) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	if len(s.ints) > 1 {
		s.ints = s.ints[1:]
	}
	return v % n
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	if len(s.floats) > 1 {
		s.floats = s.floats[1:]
	}
	return v
}
