// Package atom builds quantum operators for multi-level atoms with hyperfine
// structure. States live in (2F+1)-dimensional manifolds ordered by descending
// magnetic quantum number, and multi-manifold operators act on the direct sum
// of the manifolds in the order they are listed.
package atom

import (
	"errors"
	"fmt"
	"math"

	"github.com/kimkyngt/decay-dynamics/pkg/hilbert"
)

var (
	// ErrSublevelOutOfRange reports a magnetic sublevel outside its manifold
	// or a malformed (F, m) pair.
	ErrSublevelOutOfRange = errors.New("sublevel outside manifold")

	// ErrInvalidPolarization reports a polarization index outside {-1, 0, 1}.
	ErrInvalidPolarization = errors.New("polarization index must be -1, 0, or 1")

	// ErrInvalidAtomIndex reports an atom label outside {1, 2}.
	ErrInvalidAtomIndex = errors.New("atom index must be 1 or 2")

	// ErrManifoldIndex reports an invalid manifold list or selection.
	ErrManifoldIndex = errors.New("invalid manifold selection")
)

// twice converts a quantum number to integer units of 1/2.
func twice(x float64) (int, bool) {
	t := math.Round(2 * x)
	if math.Abs(2*x-t) > 1e-9 {
		return 0, false
	}
	return int(t), true
}

// sublevelIndex validates an (f, m) pair and returns the manifold dimension
// together with the row index of m. Sublevels are ordered by descending m, so
// m = f sits at index 0 and m = -f at index 2f.
func sublevelIndex(f, m float64) (dim, index int, err error) {
	tf, okf := twice(f)
	if !okf || tf < 0 {
		return 0, 0, fmt.Errorf("%w: f = %v is not a non-negative half-integer", ErrSublevelOutOfRange, f)
	}
	tm, okm := twice(m)
	if !okm || (tf-tm)%2 != 0 || tm < -tf || tm > tf {
		return 0, 0, fmt.Errorf("%w: m = %v in the f = %v manifold", ErrSublevelOutOfRange, m, f)
	}
	return tf + 1, (tf - tm) / 2, nil
}

// SpinState returns the basis ket |f, m> in its (2f+1)-dimensional manifold.
func SpinState(f, m float64) (hilbert.Ket, error) {
	dim, idx, err := sublevelIndex(f, m)
	if err != nil {
		return hilbert.Ket{}, err
	}
	return hilbert.BasisKet(dim, idx), nil
}

// SphericalBasis returns the spherical unit polarization vector e_q in
// cartesian components: e_0 points along z, e_+1 and e_-1 are the circular
// components -(x + iy)/sqrt(2) and (x - iy)/sqrt(2).
func SphericalBasis(q int) ([3]complex128, error) {
	switch q {
	case 0:
		return [3]complex128{0, 0, 1}, nil
	case 1, -1:
		s := -float64(q) / math.Sqrt2
		return [3]complex128{complex(s, 0), complex(0, s*float64(q)), 0}, nil
	default:
		return [3]complex128{}, fmt.Errorf("%w: q = %d", ErrInvalidPolarization, q)
	}
}

// Coherence returns |f1 m1><f2 m2| on the direct sum of the two manifolds,
// with the f1 manifold occupying the first block.
func Coherence(f1, m1, f2, m2 float64) (*hilbert.Operator, error) {
	d1, _, err := sublevelIndex(f1, m1)
	if err != nil {
		return nil, err
	}
	d2, _, err := sublevelIndex(f2, m2)
	if err != nil {
		return nil, err
	}
	ketA, err := SpinState(f1, m1)
	if err != nil {
		return nil, err
	}
	ketB, err := SpinState(f2, m2)
	if err != nil {
		return nil, err
	}
	a := ketA.DirectSum(hilbert.ZeroKet(d2))
	b := hilbert.ZeroKet(d1).DirectSum(ketB)
	return hilbert.Outer(a, b), nil
}
