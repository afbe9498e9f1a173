package scenario

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// TickSampler draws a non-negative number of ticks (or units).
type TickSampler interface {
	Sample(rng *rand.Rand) int64
}

// ConstantSampler always returns the same value.
type ConstantSampler int64

func (s ConstantSampler) Sample(*rand.Rand) int64 { return int64(s) }

// UniformIntSampler draws integers uniformly from [lo, hi].
type UniformIntSampler struct {
	dist   distuv.Uniform
	lo, hi int64
}

// NewUniformIntSampler returns a sampler over the closed range [lo, hi].
func NewUniformIntSampler(lo, hi int64) *UniformIntSampler {
	return &UniformIntSampler{
		dist: distuv.Uniform{Min: float64(lo), Max: float64(hi + 1)},
		lo:   lo,
		hi:   hi,
	}
}

func (s *UniformIntSampler) Sample(rng *rand.Rand) int64 {
	if s.lo == s.hi {
		return s.lo
	}
	v := int64(math.Floor(s.dist.Quantile(rng.Float64())))
	return min(max(v, s.lo), s.hi)
}

// ExponentialSampler draws exponentially distributed tick counts, rounded to
// the nearest tick and clamped below at floor.
type ExponentialSampler struct {
	dist  distuv.Exponential
	floor int64
}

// NewExponentialSampler returns a sampler with the given mean.
func NewExponentialSampler(mean float64, floor int64) *ExponentialSampler {
	return &ExponentialSampler{
		dist:  distuv.Exponential{Rate: 1 / mean},
		floor: floor,
	}
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) int64 {
	val := s.dist.Quantile(rng.Float64())
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return s.floor
	}
	return max(int64(math.Round(val)), s.floor)
}

// Bernoulli reports whether a trial with success probability p succeeds.
func Bernoulli(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}
