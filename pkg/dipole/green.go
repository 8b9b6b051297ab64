// Package dipole evaluates the electromagnetic dyadic Green tensor and the
// pairwise coupling rates it generates between identical dipole emitters.
package dipole

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// GreenTensor evaluates the dimensionless dyadic Green tensor at separation r
// for wavenumber k. Distances enter only through the phase x = k|r|:
//
//	G = exp(ix) * [ (1/x + i/x^2 - 1/x^3) I - (1/x + 3i/x^2 - 3/x^3) rr^T ]
//
// with r the unit separation vector. The tensor is symmetric and even in r.
//
// At zero separation the real part diverges and is dropped; the finite
// imaginary limit (2i/3) I is returned, which makes the coupling formulas
// reproduce the single-atom decay rate on the diagonal.
func GreenTensor(r r3.Vec, k float64) *mat.CDense {
	g := mat.NewCDense(3, 3, nil)

	n := r3.Norm(r)
	if n == 0 {
		for i := 0; i < 3; i++ {
			g.Set(i, i, complex(0, 2.0/3.0))
		}
		return g
	}

	x := k * n
	x2, x3 := x*x, x*x*x
	phase := cmplx.Exp(complex(0, x))
	diag := phase * complex(1/x-1/x3, 1/x2)
	dyad := phase * complex(1/x-3/x3, 3/x2)

	u := r3.Unit(r)
	uu := [3]float64{u.X, u.Y, u.Z}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := -dyad * complex(uu[i]*uu[j], 0)
			if i == j {
				v += diag
			}
			g.Set(i, j, v)
		}
	}
	return g
}
