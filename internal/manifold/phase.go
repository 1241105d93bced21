package manifold

import "math"

// Phase is an angle in [0, 2π) used as a synchronization dimension
// independent of spatial position.
type Phase float64

// GoldenAngle is 2π/φ², the lattice step for assigning token phases.
// Successive lattice phases are maximally separated, so adjacent tokens
// never start phase-clustered.
var GoldenAngle = 2 * math.Pi / (math.Phi * math.Phi)

// Wrap reduces p into [0, 2π).
func (p Phase) Wrap() Phase {
	v := math.Mod(float64(p), 2*math.Pi)
	if v < 0 {
		v += 2 * math.Pi
	}
	return Phase(v)
}

// LatticePhase returns the i-th phase on the golden-angle lattice.
func LatticePhase(i int) Phase {
	return Phase(float64(i) * GoldenAngle).Wrap()
}

// Diff returns the shortest signed angular difference from a to b,
// in (-π, π].
func Diff(a, b Phase) float64 {
	d := math.Mod(float64(b)-float64(a), 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	} else if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}

// CircularMean returns the circular mean of phases via sine/cosine
// averages. ok is false for an empty group or a degenerate (balanced)
// one where the mean is undefined.
func CircularMean(phases []Phase) (Phase, bool) {
	if len(phases) == 0 {
		return 0, false
	}
	var sinSum, cosSum float64
	for _, p := range phases {
		sinSum += math.Sin(float64(p))
		cosSum += math.Cos(float64(p))
	}
	if math.Hypot(sinSum, cosSum) < epsNorm {
		return 0, false
	}
	return Phase(math.Atan2(sinSum, cosSum)).Wrap(), true
}
