package potential

import "math"

// Harmonic is the isotropic harmonic oscillator potential
// E(x) = 0.5 * sum(x_i^2), used by scenarios S1-S3 in spec §8.
type Harmonic struct {
	ndof   int
	radius float64 // ball radius used for RandomConfiguration
}

// NewHarmonic constructs a Harmonic potential over ndof dimensions.
// Initial configurations are drawn uniformly from a ball of the given
// radius (radius <= 0 defaults to 10, matching scenario S2).
func NewHarmonic(ndof int, radius float64) *Harmonic {
	if radius <= 0 {
		radius = 10
	}
	return &Harmonic{ndof: ndof, radius: radius}
}

// Energy returns 0.5 * ||x||^2.
func (h *Harmonic) Energy(x []float64) (float64, error) {
	sum := 0.0
	for _, xi := range x {
		sum += xi * xi
	}
	return 0.5 * sum, nil
}

// Ndof returns the configured dimensionality.
func (h *Harmonic) Ndof() int { return h.ndof }

// RandomConfiguration draws a point uniformly from a ball of radius
// h.radius via Gaussian-then-normalize, scaled by a random radial factor.
func (h *Harmonic) RandomConfiguration(rng *Rand) []float64 {
	x := make([]float64, h.ndof)
	norm := 0.0
	for i := range x {
		x[i] = rng.NormFloat64()
		norm += x[i] * x[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return x
	}
	// Scale to a random radius in [0, h.radius] drawn so volume is uniform.
	u := rng.Float64()
	r := h.radius * math.Pow(u, 1.0/float64(h.ndof))
	scale := r / norm
	for i := range x {
		x[i] *= scale
	}
	return x
}

// UniformStep proposes x' = x + U(-stepsize, +stepsize) componentwise.
// It is symmetric by construction, as StepKernel requires.
type UniformStep struct{}

// Step implements StepKernel.
func (UniformStep) Step(x []float64, stepsize float64, rng *Rand) []float64 {
	xp := make([]float64, len(x))
	for i, xi := range x {
		xp[i] = xi + rng.Uniform(-stepsize, stepsize)
	}
	return xp
}

// BoxConstraint accepts configurations with infinity-norm strictly below
// a bound, used by scenario S3 ("constrained box").
type BoxConstraint struct {
	Bound float64
}

// Accept implements AcceptTest.
func (b BoxConstraint) Accept(x []float64) bool {
	for _, xi := range x {
		v := xi
		if v < 0 {
			v = -v
		}
		if v >= b.Bound {
			return false
		}
	}
	return true
}
