// Package hilbert provides complex state vectors and operators for
// finite-dimensional Hilbert spaces built from direct sums and tensor
// products of atomic manifolds.
//
// Kets and Operators have value semantics: every method returns a new value
// and nothing mutates a receiver after construction. Dimension mismatches are
// programming errors and panic, mirroring gonum/mat.
package hilbert

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Ket is a complex column vector of state amplitudes.
type Ket struct {
	data []complex128
}

// NewKet builds a ket from a slice of amplitudes. The slice is copied.
func NewKet(amplitudes []complex128) Ket {
	data := make([]complex128, len(amplitudes))
	copy(data, amplitudes)
	return Ket{data: data}
}

// ZeroKet returns the zero vector of the given dimension.
func ZeroKet(dim int) Ket {
	return Ket{data: make([]complex128, dim)}
}

// BasisKet returns the standard basis vector with a single unit amplitude.
// Panics when index is outside [0, dim).
func BasisKet(dim, index int) Ket {
	if index < 0 || index >= dim {
		panic(fmt.Sprintf("hilbert: basis index %d outside dimension %d", index, dim))
	}
	k := ZeroKet(dim)
	k.data[index] = 1
	return k
}

// Dim returns the dimension of the ket.
func (k Ket) Dim() int { return len(k.data) }

// At returns the amplitude at index i.
func (k Ket) At(i int) complex128 { return k.data[i] }

// Amplitudes returns a copy of the amplitude slice.
func (k Ket) Amplitudes() []complex128 {
	out := make([]complex128, len(k.data))
	copy(out, k.data)
	return out
}

// DirectSum concatenates two kets into a vector on the combined space.
func (k Ket) DirectSum(other Ket) Ket {
	data := make([]complex128, 0, len(k.data)+len(other.data))
	data = append(data, k.data...)
	data = append(data, other.data...)
	return Ket{data: data}
}

// Norm returns the Euclidean norm of the ket.
func (k Ket) Norm() float64 {
	sum := 0.0
	for _, a := range k.data {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

// Operator is a square complex matrix on a finite-dimensional space.
type Operator struct {
	m   *mat.CDense
	dim int
}

// Zero returns the zero operator of the given dimension.
func Zero(dim int) *Operator {
	return &Operator{m: mat.NewCDense(dim, dim, nil), dim: dim}
}

// Identity returns the identity operator of the given dimension.
func Identity(dim int) *Operator {
	op := Zero(dim)
	for i := 0; i < dim; i++ {
		op.m.Set(i, i, 1)
	}
	return op
}

// Outer returns the outer product |a><b|. Panics when the kets live on spaces
// of different dimension.
func Outer(a, b Ket) *Operator {
	if a.Dim() != b.Dim() {
		panic(fmt.Sprintf("hilbert: outer product dimension mismatch %d != %d", a.Dim(), b.Dim()))
	}
	op := Zero(a.Dim())
	for i := 0; i < a.Dim(); i++ {
		if a.data[i] == 0 {
			continue
		}
		for j := 0; j < b.Dim(); j++ {
			op.m.Set(i, j, a.data[i]*cmplx.Conj(b.data[j]))
		}
	}
	return op
}

// Dim returns the operator dimension.
func (op *Operator) Dim() int { return op.dim }

// At returns the matrix element at row i, column j.
func (op *Operator) At(i, j int) complex128 { return op.m.At(i, j) }

// Add returns the element-wise sum of two operators.
func (op *Operator) Add(other *Operator) *Operator {
	if op.dim != other.dim {
		panic(fmt.Sprintf("hilbert: add dimension mismatch %d != %d", op.dim, other.dim))
	}
	out := Zero(op.dim)
	for i := 0; i < op.dim; i++ {
		for j := 0; j < op.dim; j++ {
			out.m.Set(i, j, op.m.At(i, j)+other.m.At(i, j))
		}
	}
	return out
}

// Scale returns the operator multiplied by a complex scalar.
func (op *Operator) Scale(c complex128) *Operator {
	out := Zero(op.dim)
	for i := 0; i < op.dim; i++ {
		for j := 0; j < op.dim; j++ {
			if v := op.m.At(i, j); v != 0 {
				out.m.Set(i, j, c*v)
			}
		}
	}
	return out
}

// Mul returns the matrix product op * other.
func (op *Operator) Mul(other *Operator) *Operator {
	if op.dim != other.dim {
		panic(fmt.Sprintf("hilbert: mul dimension mismatch %d != %d", op.dim, other.dim))
	}
	out := Zero(op.dim)
	for i := 0; i < op.dim; i++ {
		for j := 0; j < op.dim; j++ {
			var sum complex128
			for k := 0; k < op.dim; k++ {
				sum += op.m.At(i, k) * other.m.At(k, j)
			}
			out.m.Set(i, j, sum)
		}
	}
	return out
}

// Dagger returns the conjugate transpose.
func (op *Operator) Dagger() *Operator {
	out := Zero(op.dim)
	for i := 0; i < op.dim; i++ {
		for j := 0; j < op.dim; j++ {
			out.m.Set(j, i, cmplx.Conj(op.m.At(i, j)))
		}
	}
	return out
}

// Apply returns the ket op|k>.
func (op *Operator) Apply(k Ket) Ket {
	if op.dim != k.Dim() {
		panic(fmt.Sprintf("hilbert: apply dimension mismatch %d != %d", op.dim, k.Dim()))
	}
	out := ZeroKet(op.dim)
	for i := 0; i < op.dim; i++ {
		var sum complex128
		for j := 0; j < op.dim; j++ {
			sum += op.m.At(i, j) * k.data[j]
		}
		out.data[i] = sum
	}
	return out
}

// Matrix returns a copy of the operator as a gonum complex dense matrix.
func (op *Operator) Matrix() *mat.CDense {
	out := mat.NewCDense(op.dim, op.dim, nil)
	for i := 0; i < op.dim; i++ {
		for j := 0; j < op.dim; j++ {
			out.Set(i, j, op.m.At(i, j))
		}
	}
	return out
}

// Kron returns the Kronecker product a (x) b, with a indexing the slow
// (leftmost) factor.
func Kron(a, b *Operator) *Operator {
	out := Zero(a.dim * b.dim)
	for i := 0; i < a.dim; i++ {
		for j := 0; j < a.dim; j++ {
			av := a.m.At(i, j)
			if av == 0 {
				continue
			}
			for p := 0; p < b.dim; p++ {
				for q := 0; q < b.dim; q++ {
					if bv := b.m.At(p, q); bv != 0 {
						out.m.Set(i*b.dim+p, j*b.dim+q, av*bv)
					}
				}
			}
		}
	}
	return out
}

// EmbedAtSum places op, defined on the direct sum of selected manifolds, into
// the direct sum of all manifolds. dims lists every manifold dimension in
// order; positions selects the manifolds op acts on, in op's own block order.
// Blocks of the result outside the selected manifolds are zero.
func EmbedAtSum(dims []int, positions []int, op *Operator) (*Operator, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("embed: no manifold dimensions given")
	}
	offsets := make([]int, len(dims))
	total := 0
	for i, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("embed: manifold %d has dimension %d", i, d)
		}
		offsets[i] = total
		total += d
	}

	seen := make(map[int]bool, len(positions))
	selected := 0
	for _, p := range positions {
		if p < 0 || p >= len(dims) {
			return nil, fmt.Errorf("embed: position %d outside %d manifolds", p, len(dims))
		}
		if seen[p] {
			return nil, fmt.Errorf("embed: position %d selected twice", p)
		}
		seen[p] = true
		selected += dims[p]
	}
	if selected != op.Dim() {
		return nil, fmt.Errorf("embed: operator dimension %d does not match selected manifolds dimension %d", op.Dim(), selected)
	}

	// Map each local index of op to its index in the full space.
	global := make([]int, 0, selected)
	for _, p := range positions {
		for i := 0; i < dims[p]; i++ {
			global = append(global, offsets[p]+i)
		}
	}

	out := Zero(total)
	for r := 0; r < op.Dim(); r++ {
		for c := 0; c < op.Dim(); c++ {
			if v := op.At(r, c); v != 0 {
				out.m.Set(global[r], global[c], v)
			}
		}
	}
	return out, nil
}
