package atom

import (
	"fmt"

	"github.com/kimkyngt/decay-dynamics/pkg/hilbert"
	"github.com/kimkyngt/decay-dynamics/pkg/wigner"
)

// Builder assembles hyperfine transition operators from a Clebsch-Gordan
// coefficient source. Use NewBuilder unless tests need to substitute the
// coefficients.
type Builder struct {
	coupler wigner.Coupler
}

// NewBuilder returns a Builder backed by the closed-form coefficient
// evaluator.
func NewBuilder() *Builder {
	return &Builder{coupler: wigner.DefaultCoupler{}}
}

// NewBuilderWithCoupler returns a Builder using the given coefficient source.
func NewBuilderWithCoupler(c wigner.Coupler) *Builder {
	return &Builder{coupler: c}
}

// manifoldDims validates the manifold spins and returns their dimensions.
func manifoldDims(spins []float64) ([]int, error) {
	if len(spins) < 2 {
		return nil, fmt.Errorf("%w: need at least two manifolds, got %d", ErrManifoldIndex, len(spins))
	}
	dims := make([]int, len(spins))
	for i, f := range spins {
		tf, ok := twice(f)
		if !ok || tf < 0 {
			return nil, fmt.Errorf("%w: spin %v at manifold %d is not a non-negative half-integer", ErrManifoldIndex, f, i)
		}
		dims[i] = tf + 1
	}
	return dims, nil
}

// Lowering builds the lowering operator for polarization q on the direct sum
// of the given manifolds. spins lists the F quantum number of each manifold in
// basis order; upper and lower select the two manifolds the operator connects.
//
// Each term carries the upper sublevel |upper, m-q> to |lower, m> with weight
// (-1)^(2m-q) * <lower m, 1 -q | upper (m-q)>. Sublevels m whose partner m-q
// falls outside the upper manifold are skipped. Dipole-forbidden manifold
// pairs produce the zero operator, not an error.
func (b *Builder) Lowering(q int, spins []float64, upper, lower int) (*hilbert.Operator, error) {
	if q < -1 || q > 1 {
		return nil, fmt.Errorf("%w: q = %d", ErrInvalidPolarization, q)
	}
	dims, err := manifoldDims(spins)
	if err != nil {
		return nil, err
	}
	if upper < 0 || upper >= len(spins) {
		return nil, fmt.Errorf("%w: upper = %d with %d manifolds", ErrManifoldIndex, upper, len(spins))
	}
	if lower < 0 || lower >= len(spins) {
		return nil, fmt.Errorf("%w: lower = %d with %d manifolds", ErrManifoldIndex, lower, len(spins))
	}
	if upper == lower {
		return nil, fmt.Errorf("%w: upper and lower both %d", ErrManifoldIndex, upper)
	}

	fUpper, fLower := spins[upper], spins[lower]
	tUpper, _ := twice(fUpper)
	tLower, _ := twice(fLower)

	pair := hilbert.Zero(dims[upper] + dims[lower])
	for tm := -tLower; tm <= tLower; tm += 2 {
		if d := tm - 2*q; d < -tUpper || d > tUpper {
			continue
		}
		m := float64(tm) / 2
		weight := b.coupler.ClebschGordan(fLower, m, 1, -float64(q), fUpper)
		if weight == 0 {
			continue
		}
		if (tm-q)&1 != 0 {
			weight = -weight
		}
		coh, err := Coherence(fUpper, m-float64(q), fLower, m)
		if err != nil {
			return nil, err
		}
		pair = pair.Add(coh.Dagger().Scale(complex(weight, 0)))
	}

	return hilbert.EmbedAtSum(dims, []int{upper, lower}, pair)
}

// Raising returns the adjoint of Lowering for the same arguments.
func (b *Builder) Raising(q int, spins []float64, upper, lower int) (*hilbert.Operator, error) {
	low, err := b.Lowering(q, spins, upper, lower)
	if err != nil {
		return nil, err
	}
	return low.Dagger(), nil
}

// TwoAtomLowering embeds the single-atom lowering operator into the two-atom
// product space, acting as the identity on the other atom. Atoms are numbered
// 1 and 2, with atom 1 the slow tensor factor.
func (b *Builder) TwoAtomLowering(atomIndex, q int, spins []float64, upper, lower int) (*hilbert.Operator, error) {
	if atomIndex != 1 && atomIndex != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAtomIndex, atomIndex)
	}
	single, err := b.Lowering(q, spins, upper, lower)
	if err != nil {
		return nil, err
	}
	id := hilbert.Identity(single.Dim())
	if atomIndex == 1 {
		return hilbert.Kron(single, id), nil
	}
	return hilbert.Kron(id, single), nil
}

var defaultBuilder = NewBuilder()

// Lowering builds the lowering operator with the default coefficient source.
func Lowering(q int, spins []float64, upper, lower int) (*hilbert.Operator, error) {
	return defaultBuilder.Lowering(q, spins, upper, lower)
}

// Raising builds the raising operator with the default coefficient source.
func Raising(q int, spins []float64, upper, lower int) (*hilbert.Operator, error) {
	return defaultBuilder.Raising(q, spins, upper, lower)
}

// TwoAtomLowering builds the two-atom lowering operator with the default
// coefficient source.
func TwoAtomLowering(atomIndex, q int, spins []float64, upper, lower int) (*hilbert.Operator, error) {
	return defaultBuilder.TwoAtomLowering(atomIndex, q, spins, upper, lower)
}
