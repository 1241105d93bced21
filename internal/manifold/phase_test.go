package manifold

import (
	"math"
	"testing"
)

func TestWrap(t *testing.T) {
	cases := []struct {
		in   Phase
		want float64
	}{
		{0, 0},
		{Phase(2 * math.Pi), 0},
		{Phase(3 * math.Pi), math.Pi},
		{Phase(-math.Pi / 2), 3 * math.Pi / 2},
		{Phase(-4 * math.Pi), 0},
	}
	for _, tc := range cases {
		if got := float64(tc.in.Wrap()); math.Abs(got-tc.want) > tol {
			t.Errorf("Wrap(%v) = %v, want %v", float64(tc.in), got, tc.want)
		}
	}
}

func TestLatticePhaseInRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		p := float64(LatticePhase(i))
		if p < 0 || p >= 2*math.Pi {
			t.Fatalf("LatticePhase(%d) = %v out of [0,2π)", i, p)
		}
	}
}

func TestLatticePhaseSeparation(t *testing.T) {
	// Adjacent lattice phases differ by the golden angle.
	for i := 0; i < 100; i++ {
		d := math.Abs(Diff(LatticePhase(i), LatticePhase(i+1)))
		want := 2*math.Pi - GoldenAngle // golden angle reflected into (-π,π]
		if GoldenAngle <= math.Pi {
			want = GoldenAngle
		}
		if math.Abs(d-want) > tol {
			t.Fatalf("separation at %d = %v, want %v", i, d, want)
		}
	}
}

func TestDiffShortest(t *testing.T) {
	cases := []struct {
		a, b Phase
		want float64
	}{
		{0, Phase(math.Pi / 2), math.Pi / 2},
		{Phase(math.Pi / 2), 0, -math.Pi / 2},
		{Phase(0.1), Phase(2*math.Pi - 0.1), -0.2},
		{0, Phase(math.Pi), math.Pi},
	}
	for _, tc := range cases {
		if got := Diff(tc.a, tc.b); math.Abs(got-tc.want) > tol {
			t.Errorf("Diff(%v,%v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCircularMean(t *testing.T) {
	if _, ok := CircularMean(nil); ok {
		t.Error("CircularMean(nil) reported ok")
	}

	mean, ok := CircularMean([]Phase{Phase(2*math.Pi - 0.1), Phase(0.1)})
	if !ok {
		t.Fatal("CircularMean not ok on valid group")
	}
	if math.Abs(float64(mean)) > tol && math.Abs(float64(mean)-2*math.Pi) > tol {
		t.Errorf("mean across the 0 boundary = %v, want 0", mean)
	}

	// Perfectly balanced group has no defined mean.
	if _, ok := CircularMean([]Phase{0, Phase(math.Pi)}); ok {
		t.Error("CircularMean reported ok for balanced group")
	}
}
