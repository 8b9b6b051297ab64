package dipole

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// sandwich evaluates e^H G e for a polarization vector e.
func sandwich(g *mat.CDense, e [3]complex128) complex128 {
	var s complex128
	for i := 0; i < 3; i++ {
		if e[i] == 0 {
			continue
		}
		for j := 0; j < 3; j++ {
			s += cmplx.Conj(e[i]) * g.At(i, j) * e[j]
		}
	}
	return s
}

// Omega returns the coherent dipole-dipole shift between two atoms separated
// by r, for single-atom linewidth gamma and unit transition polarization e.
// Formula: -(3*gamma/4) * Re(e^H G e).
// The shift vanishes at zero separation.
func Omega(r r3.Vec, k, gamma float64, e [3]complex128) float64 {
	return -0.75 * gamma * real(sandwich(GreenTensor(r, k), e))
}

// Gamma returns the collective dissipative coupling rate between two atoms.
// Formula: (3*gamma/2) * Im(e^H G e).
// At zero separation this reduces to the single-atom rate gamma.
func Gamma(r r3.Vec, k, gamma float64, e [3]complex128) float64 {
	return 1.5 * gamma * imag(sandwich(GreenTensor(r, k), e))
}

// CouplingMatrices builds the coherent (shift) and dissipative (decay)
// coupling matrices for an ensemble of identical dipoles at the given
// positions. Both are real symmetric N x N matrices; the diagonal carries
// shift 0 and decay gamma.
func CouplingMatrices(positions []r3.Vec, k, gamma float64, e [3]complex128) (shift, decay *mat.SymDense) {
	n := len(positions)
	shift = mat.NewSymDense(n, nil)
	decay = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			g := GreenTensor(r3.Sub(positions[i], positions[j]), k)
			s := sandwich(g, e)
			shift.SetSym(i, j, -0.75*gamma*real(s))
			decay.SetSym(i, j, 1.5*gamma*imag(s))
		}
	}
	return shift, decay
}
