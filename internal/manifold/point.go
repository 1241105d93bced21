// Package manifold implements the geometric substrate of noema's memory:
// points on the unit 3-sphere (unit quaternions) and phase angles on a
// golden-angle lattice. All geometry is closed-form; there is no learned
// component and no external numeric dependency.
package manifold

import (
	"math"
	"math/rand"
)

// epsNorm is the norm below which a point is considered degenerate.
const epsNorm = 1e-12

// Point is a position on the unit 3-sphere, stored as a quaternion.
// All operations return renormalized points; a degenerate result
// collapses to Identity rather than propagating NaN.
type Point struct {
	W, X, Y, Z float64
}

// Identity is the fallback point for degenerate results.
var Identity = Point{W: 1}

// Norm returns the Euclidean norm of p.
func (p Point) Norm() float64 {
	return math.Sqrt(p.W*p.W + p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Normalize returns p scaled to unit norm, or Identity when p is
// near-zero or non-finite.
func (p Point) Normalize() Point {
	n := p.Norm()
	if n < epsNorm || math.IsNaN(n) || math.IsInf(n, 0) {
		return Identity
	}
	return Point{p.W / n, p.X / n, p.Y / n, p.Z / n}
}

// Dot returns the 4-dimensional dot product of a and b.
func Dot(a, b Point) float64 {
	return a.W*b.W + a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Distance returns the geodesic distance between a and b on the sphere,
// treating antipodal points as identical (quaternion double cover).
func Distance(a, b Point) float64 {
	d := math.Abs(Dot(a, b))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// Mul returns the Hamilton product a*b.
func Mul(a, b Point) Point {
	return Point{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
	}
}

// Slerp interpolates from a toward b along the short arc. t=0 yields a,
// t=1 yields b (up to normalization). Near-identical endpoints fall back
// to linear interpolation, which is numerically stable there.
func Slerp(a, b Point, t float64) Point {
	dot := Dot(a, b)

	// Short-arc correction: interpolate toward the nearer of b and -b.
	if dot < 0 {
		b = Point{-b.W, -b.X, -b.Y, -b.Z}
		dot = -dot
	}
	if dot > 1 {
		dot = 1
	}

	theta := math.Acos(dot)
	if theta < 1e-6 {
		return Point{
			a.W + t*(b.W-a.W),
			a.X + t*(b.X-a.X),
			a.Y + t*(b.Y-a.Y),
			a.Z + t*(b.Z-a.Z),
		}.Normalize()
	}

	sin := math.Sin(theta)
	fa := math.Sin((1-t)*theta) / sin
	fb := math.Sin(t*theta) / sin
	return Point{
		fa*a.W + fb*b.W,
		fa*a.X + fb*b.X,
		fa*a.Y + fb*b.Y,
		fa*a.Z + fb*b.Z,
	}.Normalize()
}

// Random returns a point drawn uniformly from the 3-sphere using the
// closed-form subgroup construction (no rejection sampling).
func Random(rng *rand.Rand) Point {
	u1 := rng.Float64()
	u2 := rng.Float64()
	u3 := rng.Float64()
	return Point{
		W: math.Sqrt(1-u1) * math.Sin(2*math.Pi*u2),
		X: math.Sqrt(1-u1) * math.Cos(2*math.Pi*u2),
		Y: math.Sqrt(u1) * math.Sin(2*math.Pi*u3),
		Z: math.Sqrt(u1) * math.Cos(2*math.Pi*u3),
	}.Normalize()
}

// RandomNear returns a point within angular radius of center: center is
// rotated by a small-angle rotation about a Gaussian-distributed random
// axis, so the direction of displacement is uniform.
func RandomNear(center Point, radius float64, rng *rand.Rand) Point {
	ax := rng.NormFloat64()
	ay := rng.NormFloat64()
	az := rng.NormFloat64()
	n := math.Sqrt(ax*ax + ay*ay + az*az)
	if n < epsNorm {
		return center.Normalize()
	}

	angle := rng.Float64() * radius
	s := math.Sin(angle / 2)
	rot := Point{
		W: math.Cos(angle / 2),
		X: s * ax / n,
		Y: s * ay / n,
		Z: s * az / n,
	}
	return Mul(rot, center).Normalize()
}
