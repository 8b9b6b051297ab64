// Package geometry exposes sphere sampling and coordinate conversions.
package geometry

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kimkyngt/decay-dynamics/pkg/sphere"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sampling methods accepted by Sample.
const (
	MethodUniform   = "uniform"
	MethodFibonacci = "fibonacci"
	MethodCone      = "cone"
)

var (
	// ErrInvalidMethod reports an unknown sampling method.
	ErrInvalidMethod = errors.New("sampling method must be uniform, fibonacci, or cone")
	// ErrInvalidCount reports a non-positive sample count.
	ErrInvalidCount = errors.New("sample count must be positive")
)

// Point is a Cartesian position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func fromVec(v r3.Vec) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

// SampleRequest describes a direction-sampling job. Radius scales the unit
// directions; zero means the unit sphere. Seed nil means derive from time.
type SampleRequest struct {
	Method string
	Count  int
	Radius float64
	Seed   *uint64

	// Cone parameters, ignored for the other methods.
	NA          float64
	ThetaTarget float64
	PhiTarget   float64
}

// SampleResult carries the sampled points and the seed that produced them,
// so a run can be reproduced.
type SampleResult struct {
	Method string  `json:"method"`
	Seed   uint64  `json:"seed"`
	Points []Point `json:"points"`
	Axis   *Point  `json:"axis,omitempty"` // cone target axis
}

// Service samples positions on spheres
type Service struct {
	log zerolog.Logger
}

// NewService creates a new geometry service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "geometry").Logger(),
	}
}

// Sample draws Count points by the requested method. The Fibonacci lattice is
// deterministic; the returned seed is still filled in for a uniform record shape.
func (s *Service) Sample(req SampleRequest) (*SampleResult, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, req.Count)
	}

	seed := uint64(time.Now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}

	result := &SampleResult{Method: req.Method, Seed: seed}

	var points []r3.Vec
	switch req.Method {
	case MethodUniform:
		sampler := sphere.NewSampler(rand.NewPCG(seed, seed))
		points = sampler.Uniform(req.Count)

	case MethodFibonacci:
		points = sphere.FibonacciLattice(req.Count)

	case MethodCone:
		sampler := sphere.NewSampler(rand.NewPCG(seed, seed))
		cone, err := sampler.Cone(req.Count, req.NA, req.ThetaTarget, req.PhiTarget)
		if err != nil {
			return nil, err
		}
		points = cone
		axis := fromVec(sphere.ConeAxis(req.ThetaTarget, req.PhiTarget))
		result.Axis = &axis

	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMethod, req.Method)
	}

	radius := req.Radius
	if radius == 0 {
		radius = 1
	}

	result.Points = make([]Point, len(points))
	for i, p := range points {
		result.Points[i] = fromVec(r3.Scale(radius, p))
	}

	s.log.Debug().
		Str("method", req.Method).
		Int("count", req.Count).
		Uint64("seed", seed).
		Msg("Sampled sphere points")

	return result, nil
}

// Positions converts a sample result back to vectors for coupling assembly.
func (r *SampleResult) Positions() []r3.Vec {
	out := make([]r3.Vec, len(r.Points))
	for i, p := range r.Points {
		out[i] = r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

// PolarToCartesian converts spherical coordinates to a Cartesian point.
func (s *Service) PolarToCartesian(theta, phi, radius float64) Point {
	return fromVec(sphere.PolarToCartesian(theta, phi, radius))
}

// CartesianToPolar converts a Cartesian point to spherical coordinates.
func (s *Service) CartesianToPolar(p Point) (theta, phi, radius float64) {
	return sphere.CartesianToPolar(r3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}
