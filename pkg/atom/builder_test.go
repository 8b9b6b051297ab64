package atom

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/kimkyngt/decay-dynamics/pkg/hilbert"
)

func operatorsEqual(t *testing.T, got, want *hilbert.Operator, tol float64) {
	t.Helper()
	if got.Dim() != want.Dim() {
		t.Fatalf("dim = %d, expected %d", got.Dim(), want.Dim())
	}
	for i := 0; i < got.Dim(); i++ {
		for j := 0; j < got.Dim(); j++ {
			if cmplx.Abs(got.At(i, j)-want.At(i, j)) > tol {
				t.Fatalf("element (%d,%d) = %v, expected %v", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}

// checkEntries asserts the operator holds exactly the given nonzero elements.
func checkEntries(t *testing.T, op *hilbert.Operator, entries map[[2]int]complex128) {
	t.Helper()
	for i := 0; i < op.Dim(); i++ {
		for j := 0; j < op.Dim(); j++ {
			want := entries[[2]int{i, j}]
			if cmplx.Abs(op.At(i, j)-want) > 1e-12 {
				t.Errorf("element (%d,%d) = %v, expected %v", i, j, op.At(i, j), want)
			}
		}
	}
}

func TestLoweringTwoLevelPi(t *testing.T) {
	op, err := Lowering(0, []float64{0.5, 0.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Dim() != 4 {
		t.Fatalf("dim = %d, expected 4", op.Dim())
	}
	c := 1 / math.Sqrt(3)
	checkEntries(t, op, map[[2]int]complex128{
		{2, 0}: complex(-c, 0),
		{3, 1}: complex(c, 0),
	})
}

func TestLoweringTwoLevelSigma(t *testing.T) {
	c := math.Sqrt(2.0 / 3.0)

	plus, err := Lowering(1, []float64{0.5, 0.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkEntries(t, plus, map[[2]int]complex128{
		{2, 1}: complex(c, 0),
	})

	minus, err := Lowering(-1, []float64{0.5, 0.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkEntries(t, minus, map[[2]int]complex128{
		{3, 0}: complex(-c, 0),
	})
}

// With three manifolds the operator must land in the blocks selected by the
// upper and lower positions, leaving the bystander manifold untouched.
func TestLoweringThreeManifoldEmbedding(t *testing.T) {
	op, err := Lowering(0, []float64{0.5, 1, 1.5}, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Dim() != 9 {
		t.Fatalf("dim = %d, expected 9", op.Dim())
	}
	c := math.Sqrt(2.0 / 3.0)
	checkEntries(t, op, map[[2]int]complex128{
		{0, 6}: complex(-c, 0),
		{1, 7}: complex(-c, 0),
	})
}

// Summing sigma_q^dagger * sigma_q over the three polarizations projects onto
// the upper manifold: every upper sublevel decays with unit total weight.
func TestLoweringBranchingCompleteness(t *testing.T) {
	cases := []struct {
		name           string
		fUpper, fLower float64
	}{
		{"half to half", 0.5, 0.5},
		{"three-half to half", 1.5, 0.5},
		{"one to two", 1, 2},
		{"nine-half to seven-half", 4.5, 3.5},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			spins := []float64{tt.fUpper, tt.fLower}
			dims := []int{int(2*tt.fUpper) + 1, int(2*tt.fLower) + 1}

			sum := hilbert.Zero(dims[0] + dims[1])
			for q := -1; q <= 1; q++ {
				low, err := Lowering(q, spins, 0, 1)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				sum = sum.Add(low.Dagger().Mul(low))
			}

			proj, err := hilbert.EmbedAtSum(dims, []int{0}, hilbert.Identity(dims[0]))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			operatorsEqual(t, sum, proj, 1e-12)
		})
	}
}

// A manifold pair outside the dipole triangle has no allowed transitions and
// yields the zero operator rather than an error.
func TestLoweringForbiddenPairIsZero(t *testing.T) {
	op, err := Lowering(0, []float64{2.5, 0.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < op.Dim(); i++ {
		for j := 0; j < op.Dim(); j++ {
			if op.At(i, j) != 0 {
				t.Fatalf("element (%d,%d) = %v, expected 0", i, j, op.At(i, j))
			}
		}
	}
}

func TestRaisingIsAdjoint(t *testing.T) {
	low, err := Lowering(1, []float64{1.5, 0.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raise, err := Raising(1, []float64{1.5, 0.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	operatorsEqual(t, raise, low.Dagger(), 0)
}

func TestLoweringErrors(t *testing.T) {
	spins := []float64{0.5, 0.5}

	if _, err := Lowering(2, spins, 0, 1); !errors.Is(err, ErrInvalidPolarization) {
		t.Errorf("q=2 error = %v, expected ErrInvalidPolarization", err)
	}
	if _, err := Lowering(0, spins, 0, 0); !errors.Is(err, ErrManifoldIndex) {
		t.Errorf("upper==lower error = %v, expected ErrManifoldIndex", err)
	}
	if _, err := Lowering(0, spins, 0, 5); !errors.Is(err, ErrManifoldIndex) {
		t.Errorf("lower out of range error = %v, expected ErrManifoldIndex", err)
	}
	if _, err := Lowering(0, spins, -1, 1); !errors.Is(err, ErrManifoldIndex) {
		t.Errorf("negative upper error = %v, expected ErrManifoldIndex", err)
	}
	if _, err := Lowering(0, []float64{0.5}, 0, 1); !errors.Is(err, ErrManifoldIndex) {
		t.Errorf("single manifold error = %v, expected ErrManifoldIndex", err)
	}
	if _, err := Lowering(0, []float64{0.5, 0.3}, 0, 1); !errors.Is(err, ErrManifoldIndex) {
		t.Errorf("malformed spin error = %v, expected ErrManifoldIndex", err)
	}
}

func TestTwoAtomLoweringPlacement(t *testing.T) {
	spins := []float64{0.5, 0.5}
	c := 1 / math.Sqrt(3)

	first, err := TwoAtomLowering(1, 0, spins, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Dim() != 16 {
		t.Fatalf("dim = %d, expected 16", first.Dim())
	}
	// Atom 1 is the slow factor: the single-atom element (2,0) repeats along
	// the diagonal of the 4x4 sub-blocks.
	for p := 0; p < 4; p++ {
		if cmplx.Abs(first.At(8+p, p)-complex(-c, 0)) > 1e-12 {
			t.Errorf("element (%d,%d) = %v, expected %v", 8+p, p, first.At(8+p, p), -c)
		}
		if cmplx.Abs(first.At(12+p, 4+p)-complex(c, 0)) > 1e-12 {
			t.Errorf("element (%d,%d) = %v, expected %v", 12+p, 4+p, first.At(12+p, 4+p), c)
		}
	}

	second, err := TwoAtomLowering(2, 0, spins, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for r := 0; r < 4; r++ {
		if cmplx.Abs(second.At(4*r+2, 4*r)-complex(-c, 0)) > 1e-12 {
			t.Errorf("element (%d,%d) = %v, expected %v", 4*r+2, 4*r, second.At(4*r+2, 4*r), -c)
		}
	}
}

// Operators acting on different atoms commute.
func TestTwoAtomLoweringCommute(t *testing.T) {
	spins := []float64{1.5, 0.5}
	a1, err := TwoAtomLowering(1, 1, spins, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, err := TwoAtomLowering(2, -1, spins, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	operatorsEqual(t, a1.Mul(a2), a2.Mul(a1), 1e-12)
}

func TestTwoAtomLoweringInvalidAtom(t *testing.T) {
	for _, idx := range []int{0, 3, -1} {
		if _, err := TwoAtomLowering(idx, 0, []float64{0.5, 0.5}, 0, 1); !errors.Is(err, ErrInvalidAtomIndex) {
			t.Errorf("atom %d error = %v, expected ErrInvalidAtomIndex", idx, err)
		}
	}
}

// unitCoupler returns 1 for every coefficient, exposing the phase factor and
// sublevel windowing independent of the coefficient values.
type unitCoupler struct{}

func (unitCoupler) ClebschGordan(j1, m1, j2, m2, j3 float64) float64 { return 1 }

func TestBuilderCouplerInjection(t *testing.T) {
	b := NewBuilderWithCoupler(unitCoupler{})
	op, err := b.Lowering(0, []float64{0.5, 0.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The phase (-1)^(2m-q) is odd for both sublevels of a half-integer
	// manifold at q=0.
	checkEntries(t, op, map[[2]int]complex128{
		{2, 0}: -1,
		{3, 1}: -1,
	})
}

func TestPackageLevelMatchesBuilder(t *testing.T) {
	fromPkg, err := Lowering(1, []float64{4.5, 3.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromBuilder, err := NewBuilder().Lowering(1, []float64{4.5, 3.5}, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	operatorsEqual(t, fromPkg, fromBuilder, 0)
}
