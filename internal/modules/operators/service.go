// Package operators exposes hyperfine operator construction to HTTP and CLI consumers.
package operators

import (
	"github.com/kimkyngt/decay-dynamics/pkg/atom"
	"github.com/kimkyngt/decay-dynamics/pkg/hilbert"
	"github.com/rs/zerolog"
)

// Matrix is a dense complex matrix split into real and imaginary planes
// for JSON transport.
type Matrix struct {
	Dim  int         `json:"dim"`
	Real [][]float64 `json:"real"`
	Imag [][]float64 `json:"imag"`
}

// Vector is a complex vector split into real and imaginary parts.
type Vector struct {
	Dim  int       `json:"dim"`
	Real []float64 `json:"real"`
	Imag []float64 `json:"imag"`
}

// NewMatrix splits an operator into real and imaginary planes.
func NewMatrix(op *hilbert.Operator) *Matrix {
	dim := op.Dim()
	re := make([][]float64, dim)
	im := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		re[i] = make([]float64, dim)
		im[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			v := op.At(i, j)
			re[i][j] = real(v)
			im[i][j] = imag(v)
		}
	}
	return &Matrix{Dim: dim, Real: re, Imag: im}
}

// NewVector splits a slice of amplitudes into real and imaginary parts.
func NewVector(amplitudes []complex128) *Vector {
	re := make([]float64, len(amplitudes))
	im := make([]float64, len(amplitudes))
	for i, v := range amplitudes {
		re[i] = real(v)
		im[i] = imag(v)
	}
	return &Vector{Dim: len(amplitudes), Real: re, Imag: im}
}

// Service builds operator matrices from atomic structure parameters
type Service struct {
	builder *atom.Builder
	log     zerolog.Logger
}

// NewService creates a new operators service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		builder: atom.NewBuilder(),
		log:     log.With().Str("service", "operators").Logger(),
	}
}

// Lowering builds the Clebsch-Gordan-weighted lowering operator for the
// polarization component q on the composite basis of all manifolds.
func (s *Service) Lowering(q int, spins []float64, upper, lower int) (*Matrix, error) {
	op, err := s.builder.Lowering(q, spins, upper, lower)
	if err != nil {
		return nil, err
	}
	return NewMatrix(op), nil
}

// Raising builds the adjoint of the lowering operator.
func (s *Service) Raising(q int, spins []float64, upper, lower int) (*Matrix, error) {
	op, err := s.builder.Raising(q, spins, upper, lower)
	if err != nil {
		return nil, err
	}
	return NewMatrix(op), nil
}

// TwoAtomLowering embeds a single-atom lowering operator into the two-atom
// tensor-product space at the given atom slot (1 or 2).
func (s *Service) TwoAtomLowering(atomIndex, q int, spins []float64, upper, lower int) (*Matrix, error) {
	op, err := s.builder.TwoAtomLowering(atomIndex, q, spins, upper, lower)
	if err != nil {
		return nil, err
	}
	return NewMatrix(op), nil
}

// Coherence builds |F1 m1><F2 m2| on the two-manifold direct-sum basis.
func (s *Service) Coherence(f1, m1, f2, m2 float64) (*Matrix, error) {
	op, err := atom.Coherence(f1, m1, f2, m2)
	if err != nil {
		return nil, err
	}
	return NewMatrix(op), nil
}

// SpinState returns the basis ket for the sublevel |F m>.
func (s *Service) SpinState(f, m float64) (*Vector, error) {
	ket, err := atom.SpinState(f, m)
	if err != nil {
		return nil, err
	}
	return NewVector(ket.Amplitudes()), nil
}

// SphericalBasis returns the spherical unit vector for polarization q.
func (s *Service) SphericalBasis(q int) (*Vector, error) {
	e, err := atom.SphericalBasis(q)
	if err != nil {
		return nil, err
	}
	return NewVector(e[:]), nil
}
