package utils

import (
	"math/rand"
)

// RandomSource supplies uniformly distributed floats in [0, 1).
// *rand.Rand satisfies it, so does SequenceSource.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a seeded generator owned by the caller.
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// RandomInRange draws a uniform value in [lower, upper).
func RandomInRange(src RandomSource, lower, upper float64) float64 {
	return lower + src.Float64()*(upper-lower)
}

// RandomUpwardDirection returns a unit vector with x in [-1, 1) and y in [0.5, 1)
// before normalization, so the result always points up and to either side.
func RandomUpwardDirection(src RandomSource) Vector2 {
	return Normalize(Vec(
		RandomInRange(src, -1, 1),
		RandomInRange(src, 0.5, 1),
	))
}

// SequenceSource replays a fixed list of values, wrapping around at the end.
type SequenceSource struct {
	values []float64
	next   int
}

func NewSequenceSource(values ...float64) *SequenceSource {
	return &SequenceSource{values: values}
}

func (s *SequenceSource) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
