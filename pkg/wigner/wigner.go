// Package wigner evaluates angular momentum coupling coefficients.
//
// Quantum numbers are passed as float64 and may be integer or half-integer
// (1, 1.5, 2, ...). Arguments that violate the selection rules are not an
// error: the coefficient is simply zero, matching how the coefficients are
// consumed in operator sums.
package wigner

import "math"

// factorials holds n! for n up to 170, the largest factorial representable in
// a float64. Hyperfine angular momenta keep every factorial argument far below
// this bound.
var factorials = buildFactorials()

func buildFactorials() []float64 {
	f := make([]float64, 171)
	f[0] = 1
	for i := 1; i < len(f); i++ {
		f[i] = f[i-1] * float64(i)
	}
	return f
}

func fact(n int) float64 {
	return factorials[n]
}

// twice converts a quantum number to integer units of 1/2.
// The second return is false when the value is not a half-integer.
func twice(x float64) (int, bool) {
	t := math.Round(2 * x)
	if math.Abs(2*x-t) > 1e-9 {
		return 0, false
	}
	return int(t), true
}

// ClebschGordan calculates <j1 m1, j2 m2 | j3 (m1+m2)> in the Condon-Shortley
// convention.
// Formula: Racah's closed-form factorial sum.
// Returns 0 when the selection rules are not met (triangle condition,
// |m| <= j, half-integer consistency).
func ClebschGordan(j1, m1, j2, m2, j3 float64) float64 {
	tj1, ok1 := twice(j1)
	tm1, ok2 := twice(m1)
	tj2, ok3 := twice(j2)
	tm2, ok4 := twice(m2)
	tj3, ok5 := twice(j3)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return 0
	}
	tm3 := tm1 + tm2

	if tj1 < 0 || tj2 < 0 || tj3 < 0 {
		return 0
	}
	// Each |m| <= j with j-m an integer.
	if tj1-tm1 < 0 || tj1+tm1 < 0 || (tj1-tm1)%2 != 0 {
		return 0
	}
	if tj2-tm2 < 0 || tj2+tm2 < 0 || (tj2-tm2)%2 != 0 {
		return 0
	}
	if tj3-tm3 < 0 || tj3+tm3 < 0 || (tj3-tm3)%2 != 0 {
		return 0
	}
	// Triangle condition with integer total spin.
	if tj3 < tj1-tj2 || tj3 < tj2-tj1 || tj3 > tj1+tj2 || (tj1+tj2+tj3)%2 != 0 {
		return 0
	}

	a := (tj1 + tj2 - tj3) / 2
	b := (tj1 - tj2 + tj3) / 2
	c := (-tj1 + tj2 + tj3) / 2
	d := (tj1+tj2+tj3)/2 + 1
	if d >= len(factorials) {
		return 0
	}

	j1mm1 := (tj1 - tm1) / 2
	j1pm1 := (tj1 + tm1) / 2
	j2mm2 := (tj2 - tm2) / 2
	j2pm2 := (tj2 + tm2) / 2
	j3mm3 := (tj3 - tm3) / 2
	j3pm3 := (tj3 + tm3) / 2
	e := (tj3 - tj2 + tm1) / 2
	f := (tj3 - tj1 - tm2) / 2

	pref := math.Sqrt(float64(tj3+1) * fact(a) * fact(b) * fact(c) / fact(d))
	norm := math.Sqrt(fact(j3pm3) * fact(j3mm3) * fact(j1mm1) * fact(j1pm1) * fact(j2mm2) * fact(j2pm2))

	kmin := max(0, max(-e, -f))
	kmax := min(a, min(j1mm1, j2pm2))

	sum := 0.0
	for k := kmin; k <= kmax; k++ {
		term := 1 / (fact(k) * fact(a-k) * fact(j1mm1-k) * fact(j2pm2-k) * fact(e+k) * fact(f+k))
		if k&1 == 1 {
			term = -term
		}
		sum += term
	}

	return pref * norm * sum
}

// ThreeJ calculates the Wigner 3-j symbol (j1 j2 j3; m1 m2 m3).
// Formula: (-1)^(j1-j2-m3) / sqrt(2*j3+1) * <j1 m1, j2 m2 | j3 -m3>.
// Returns 0 when m1+m2+m3 != 0 or any selection rule is violated.
func ThreeJ(j1, j2, j3, m1, m2, m3 float64) float64 {
	tm1, ok1 := twice(m1)
	tm2, ok2 := twice(m2)
	tm3, ok3 := twice(m3)
	if !ok1 || !ok2 || !ok3 || tm1+tm2+tm3 != 0 {
		return 0
	}
	cg := ClebschGordan(j1, m1, j2, m2, j3)
	if cg == 0 {
		return 0
	}
	tj1, _ := twice(j1)
	tj2, _ := twice(j2)
	// A nonzero coefficient guarantees j1-j2-m3 is an integer.
	p := (tj1 - tj2 - tm3) / 2
	sign := 1.0
	if p&1 != 0 {
		sign = -1
	}
	tj3, _ := twice(j3)
	return sign * cg / math.Sqrt(float64(tj3+1))
}

// Coupler evaluates Clebsch-Gordan coefficients. Operator builders take a
// Coupler so the coefficient source can be swapped out in tests.
type Coupler interface {
	ClebschGordan(j1, m1, j2, m2, j3 float64) float64
}

// DefaultCoupler evaluates coefficients with the closed-form Racah sum.
type DefaultCoupler struct{}

func (DefaultCoupler) ClebschGordan(j1, m1, j2, m2, j3 float64) float64 {
	return ClebschGordan(j1, m1, j2, m2, j3)
}
