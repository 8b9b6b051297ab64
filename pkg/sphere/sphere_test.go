package sphere

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPolarToCartesianKnownDirections(t *testing.T) {
	tests := []struct {
		name          string
		theta, phi, r float64
		want          r3.Vec
	}{
		{"north pole", 0, 0, 1, r3.Vec{Z: 1}},
		{"south pole", math.Pi, 0, 1, r3.Vec{Z: -1}},
		{"equator +x", math.Pi / 2, 0, 1, r3.Vec{X: 1}},
		{"equator +y", math.Pi / 2, math.Pi / 2, 1, r3.Vec{Y: 1}},
		{"scaled radius", math.Pi / 2, 0, 2.5, r3.Vec{X: 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PolarToCartesian(tt.theta, tt.phi, tt.r)
			if r3.Norm(r3.Sub(got, tt.want)) > 1e-14 {
				t.Errorf("got %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestCartesianPolarRoundTrip(t *testing.T) {
	vecs := []r3.Vec{
		{X: 1, Y: 2, Z: 3},
		{X: -0.3, Y: 0.4, Z: -0.5},
		{X: 0, Y: 0, Z: 2},
		{X: 1e-3, Y: -1e3, Z: 0.5},
	}
	for _, v := range vecs {
		theta, phi, r := CartesianToPolar(v)
		back := PolarToCartesian(theta, phi, r)
		if r3.Norm(r3.Sub(back, v)) > 1e-9*r3.Norm(v) {
			t.Errorf("round trip of %v gave %v", v, back)
		}
	}
}

func TestCartesianToPolarZeroVector(t *testing.T) {
	theta, phi, r := CartesianToPolar(r3.Vec{})
	if theta != 0 || phi != 0 || r != 0 {
		t.Errorf("zero vector gave (%v, %v, %v), expected zeros", theta, phi, r)
	}
}

func TestFibonacciLattice(t *testing.T) {
	for _, n := range []int{1, 2, 17, 200} {
		pts := FibonacciLattice(n)
		if len(pts) != n {
			t.Fatalf("n=%d returned %d points", n, len(pts))
		}
		for i, p := range pts {
			if math.Abs(r3.Norm(p)-1) > 1e-12 {
				t.Errorf("n=%d point %d has norm %v", n, i, r3.Norm(p))
			}
		}
	}

	// The z components are symmetric around zero by construction.
	pts := FibonacciLattice(200)
	sumZ := 0.0
	for _, p := range pts {
		sumZ += p.Z
	}
	if math.Abs(sumZ/200) > 1e-10 {
		t.Errorf("mean z = %v, expected 0", sumZ/200)
	}

	// Deterministic: two calls agree exactly.
	again := FibonacciLattice(200)
	for i := range pts {
		if pts[i] != again[i] {
			t.Fatalf("lattice not deterministic at point %d", i)
		}
	}

	if FibonacciLattice(0) != nil {
		t.Error("n=0 expected nil")
	}
}

func TestUniformSampling(t *testing.T) {
	s := NewSampler(rand.NewPCG(7, 11))
	pts := s.Uniform(2000)
	if len(pts) != 2000 {
		t.Fatalf("returned %d points, expected 2000", len(pts))
	}

	var mean r3.Vec
	for i, p := range pts {
		if math.Abs(r3.Norm(p)-1) > 1e-12 {
			t.Fatalf("point %d has norm %v", i, r3.Norm(p))
		}
		mean = r3.Add(mean, r3.Scale(1.0/2000, p))
	}
	// Uniform coverage keeps the sample mean near the origin.
	if r3.Norm(mean) > 0.1 {
		t.Errorf("sample mean %v too far from origin", mean)
	}

	if s.Uniform(0) != nil {
		t.Error("n=0 expected nil")
	}
}

func TestUniformSeedReproducibility(t *testing.T) {
	a := NewSampler(rand.NewPCG(3, 5)).Uniform(50)
	b := NewSampler(rand.NewPCG(3, 5)).Uniform(50)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at point %d", i)
		}
	}
}

func TestConeContainment(t *testing.T) {
	const na = 0.3
	s := NewSampler(rand.NewPCG(1, 2))
	pts, err := s.Cone(500, na, 1.1, 2.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 500 {
		t.Fatalf("returned %d points, expected 500", len(pts))
	}

	axis := ConeAxis(1.1, 2.2)
	limit := math.Asin(na) + 1e-9
	for i, p := range pts {
		if math.Abs(r3.Norm(p)-1) > 1e-12 {
			t.Fatalf("point %d has norm %v", i, r3.Norm(p))
		}
		angle := math.Acos(math.Max(-1, math.Min(1, r3.Cos(p, axis))))
		if angle > limit {
			t.Errorf("point %d at angle %v outside cone of half-angle %v", i, angle, math.Asin(na))
		}
	}
}

func TestConeZeroApertureIsAxis(t *testing.T) {
	s := NewSampler(rand.NewPCG(9, 9))
	pts, err := s.Cone(10, 0, 0.7, -1.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	axis := ConeAxis(0.7, -1.3)
	for i, p := range pts {
		if r3.Norm(r3.Sub(p, axis)) > 1e-12 {
			t.Errorf("point %d = %v, expected axis %v", i, p, axis)
		}
	}
}

func TestConeAxisDefault(t *testing.T) {
	axis := ConeAxis(0, 0)
	if r3.Norm(r3.Sub(axis, r3.Vec{Z: 1})) > 1e-14 {
		t.Errorf("axis = %v, expected +z", axis)
	}
}

func TestConeInvalidAperture(t *testing.T) {
	s := NewSampler(rand.NewPCG(1, 1))
	for _, na := range []float64{-0.1, 1.5} {
		if _, err := s.Cone(5, na, 0, 0); !errors.Is(err, ErrInvalidAperture) {
			t.Errorf("na=%v error = %v, expected ErrInvalidAperture", na, err)
		}
	}
	if pts, err := s.Cone(0, 0.5, 0, 0); err != nil || pts != nil {
		t.Errorf("n=0 gave (%v, %v), expected nil, nil", pts, err)
	}
}
