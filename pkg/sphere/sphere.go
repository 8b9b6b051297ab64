// Package sphere samples directions on the unit sphere and converts between
// polar and cartesian coordinates. Random samplers draw from an injected
// source so ensembles are reproducible.
package sphere

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidAperture reports a numerical aperture outside [0, 1].
var ErrInvalidAperture = errors.New("numerical aperture must be in [0, 1]")

// PolarToCartesian converts spherical coordinates to a cartesian vector.
// theta is the polar angle from the +z axis, phi the azimuth from +x.
func PolarToCartesian(theta, phi, r float64) r3.Vec {
	sinT, cosT := math.Sincos(theta)
	sinP, cosP := math.Sincos(phi)
	return r3.Vec{X: r * sinT * cosP, Y: r * sinT * sinP, Z: r * cosT}
}

// CartesianToPolar converts a vector to spherical coordinates with
// theta = acos(z/r) and phi = atan2(y, x). The zero vector maps to (0, 0, 0).
func CartesianToPolar(v r3.Vec) (theta, phi, r float64) {
	r = r3.Norm(v)
	if r == 0 {
		return 0, 0, 0
	}
	return math.Acos(v.Z / r), math.Atan2(v.Y, v.X), r
}

// FibonacciLattice returns n deterministic near-uniform unit vectors on the
// golden-angle spiral: theta_i = acos(1 - 2(i+0.5)/n), phi_i = pi(1+sqrt5)i.
func FibonacciLattice(n int) []r3.Vec {
	if n <= 0 {
		return nil
	}
	golden := math.Pi * (1 + math.Sqrt(5))
	out := make([]r3.Vec, 0, n)
	for i := 0; i < n; i++ {
		t := (float64(i) + 0.5) / float64(n)
		theta := math.Acos(1 - 2*t)
		phi := golden * float64(i)
		out = append(out, PolarToCartesian(theta, phi, 1))
	}
	return out
}

// Sampler draws random directions from an injected source. A Sampler is not
// safe for concurrent use; give each goroutine its own.
type Sampler struct {
	src rand.Source
}

// NewSampler returns a Sampler drawing from src.
func NewSampler(src rand.Source) *Sampler {
	return &Sampler{src: src}
}

// Uniform samples n directions uniformly over the unit sphere by inverting
// the cumulative distribution of cos(theta).
func (s *Sampler) Uniform(n int) []r3.Vec {
	if n <= 0 {
		return nil
	}
	unit := distuv.Uniform{Min: 0, Max: 1, Src: s.src}
	azimuth := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: s.src}
	out := make([]r3.Vec, 0, n)
	for i := 0; i < n; i++ {
		theta := math.Acos(1 - 2*unit.Rand())
		out = append(out, PolarToCartesian(theta, azimuth.Rand(), 1))
	}
	return out
}

// Cone samples n directions within the acceptance cone of half-angle
// asin(na) around the local +z axis, with the polar angle uniform in
// [-asin(na), asin(na)] and the azimuth uniform in [0, 2pi). Each direction
// is then rotated about x by thetaTarget and about z by phiTarget, pointing
// the cone along the rotated axis. The half-angle convention follows the
// numerical aperture of a collection lens.
func (s *Sampler) Cone(n int, na, thetaTarget, phiTarget float64) ([]r3.Vec, error) {
	if na < 0 || na > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAperture, na)
	}
	if n <= 0 {
		return nil, nil
	}

	half := math.Asin(na)
	polar := distuv.Uniform{Min: -half, Max: half, Src: s.src}
	azimuth := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: s.src}
	rotX := r3.NewRotation(thetaTarget, r3.Vec{X: 1})
	rotZ := r3.NewRotation(phiTarget, r3.Vec{Z: 1})

	out := make([]r3.Vec, 0, n)
	for i := 0; i < n; i++ {
		v := PolarToCartesian(polar.Rand(), azimuth.Rand(), 1)
		out = append(out, rotZ.Rotate(rotX.Rotate(v)))
	}
	return out, nil
}

// ConeAxis returns the direction the sampling cone of Cone points along for
// the given target angles.
func ConeAxis(thetaTarget, phiTarget float64) r3.Vec {
	rotX := r3.NewRotation(thetaTarget, r3.Vec{X: 1})
	rotZ := r3.NewRotation(phiTarget, r3.Vec{Z: 1})
	return rotZ.Rotate(rotX.Rotate(r3.Vec{Z: 1}))
}
