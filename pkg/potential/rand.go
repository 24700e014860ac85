package potential

import "math/rand/v2"

// Rand is a deterministic, independently-seedable random source. Each
// walker goroutine gets its own Rand derived from the engine's master
// seed, so parallel walks never share or contend on RNG state.
type Rand struct {
	r *rand.Rand
}

// NewRand constructs a Rand seeded deterministically from a uint64. The
// same seed always produces the same stream, which is what makes the
// engine's energy trace reproducible (spec §4.3, invariant 4).
func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

// Float64 returns a pseudo-random float64 in [0, 1).
func (r *Rand) Float64() float64 {
	return r.r.Float64()
}

// Uniform returns a pseudo-random float64 in [lo, hi).
func (r *Rand) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.r.Float64()
}

// NormFloat64 returns a standard-normal pseudo-random sample.
func (r *Rand) NormFloat64() float64 {
	return r.r.NormFloat64()
}

// IntN returns a pseudo-random int in [0, n).
func (r *Rand) IntN(n int) int {
	return r.r.IntN(n)
}

// Uint64 returns a pseudo-random uint64, used to derive per-job seeds.
func (r *Rand) Uint64() uint64 {
	return r.r.Uint64()
}
