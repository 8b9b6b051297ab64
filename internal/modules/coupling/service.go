package coupling

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kimkyngt/decay-dynamics/internal/modules/geometry"
	"github.com/kimkyngt/decay-dynamics/pkg/atom"
	"github.com/kimkyngt/decay-dynamics/pkg/dipole"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoAtoms reports an empty position list.
	ErrNoAtoms = errors.New("at least one atom position is required")
	// ErrInvalidWavenumber reports a non-positive wavenumber.
	ErrInvalidWavenumber = errors.New("wavenumber must be positive")
	// ErrInvalidLinewidth reports a non-positive natural linewidth.
	ErrInvalidLinewidth = errors.New("linewidth must be positive")
	// ErrRunNotFound reports a run id with no stored row.
	ErrRunNotFound = errors.New("run not found")
)

// Matrices holds the real symmetric shift and decay coupling matrices.
type Matrices struct {
	Shift [][]float64 `json:"shift" msgpack:"shift"`
	Decay [][]float64 `json:"decay" msgpack:"decay"`
}

// ComputeRequest describes a coupling computation over explicit positions.
type ComputeRequest struct {
	Positions  [][3]float64
	Wavenumber float64
	Gamma      float64
	Q          int
}

// Result wraps computed matrices with cache provenance.
type Result struct {
	Matrices
	Key      string `json:"key"`
	CacheHit bool   `json:"cache_hit"`
}

// RunRequest couples geometry sampling with matrix assembly.
type RunRequest struct {
	Method      string
	Count       int
	Radius      float64
	Seed        *uint64
	NA          float64
	ThetaTarget float64
	PhiTarget   float64
	Wavenumber  float64
	Gamma       float64
	Q           int
}

// Service assembles coupling matrices, caching repeat computations and
// persisting sampled runs.
type Service struct {
	geometry *geometry.Service
	cache    *Cache
	runs     *RunRepository
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService creates a new coupling service
func NewService(
	geo *geometry.Service,
	cache *Cache,
	runs *RunRepository,
	ttl time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		geometry: geo,
		cache:    cache,
		runs:     runs,
		ttl:      ttl,
		log:      log.With().Str("service", "coupling").Logger(),
	}
}

// Compute builds the shift and decay matrices for the given positions,
// serving repeats from the cache.
func (s *Service) Compute(req ComputeRequest) (*Result, error) {
	if len(req.Positions) == 0 {
		return nil, ErrNoAtoms
	}
	if req.Wavenumber <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidWavenumber, req.Wavenumber)
	}
	if req.Gamma <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLinewidth, req.Gamma)
	}

	e, err := atom.SphericalBasis(req.Q)
	if err != nil {
		return nil, err
	}

	key := contentKey(req)

	var cached Matrices
	if err := s.cache.Get(key, &cached); err == nil {
		s.log.Debug().Str("key", key).Msg("Coupling cache hit")
		return &Result{Matrices: cached, Key: key, CacheHit: true}, nil
	}

	shift, decay := dipole.CouplingMatrices(toVecs(req.Positions), req.Wavenumber, req.Gamma, e)
	result := &Result{
		Matrices: Matrices{Shift: symRows(shift), Decay: symRows(decay)},
		Key:      key,
	}

	expiresAt := time.Now().Add(s.ttl).Unix()
	if err := s.cache.Set(key, result.Matrices, expiresAt); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache coupling matrices")
	}

	return result, nil
}

// Run samples an ensemble geometry, computes its coupling matrices, and
// persists the whole thing so it can be reproduced later.
func (s *Service) Run(req RunRequest) (*Run, error) {
	if req.Wavenumber <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidWavenumber, req.Wavenumber)
	}
	if req.Gamma <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLinewidth, req.Gamma)
	}

	e, err := atom.SphericalBasis(req.Q)
	if err != nil {
		return nil, err
	}

	sample, err := s.geometry.Sample(geometry.SampleRequest{
		Method:      req.Method,
		Count:       req.Count,
		Radius:      req.Radius,
		Seed:        req.Seed,
		NA:          req.NA,
		ThetaTarget: req.ThetaTarget,
		PhiTarget:   req.PhiTarget,
	})
	if err != nil {
		return nil, err
	}

	positions := sample.Positions()
	shift, decay := dipole.CouplingMatrices(positions, req.Wavenumber, req.Gamma, e)

	radius := req.Radius
	if radius == 0 {
		radius = 1
	}

	run := &Run{
		Method:     sample.Method,
		AtomCount:  len(positions),
		Radius:     radius,
		Wavenumber: req.Wavenumber,
		Gamma:      req.Gamma,
		Q:          req.Q,
		Seed:       sample.Seed,
		Positions:  toTriples(positions),
		Shift:      symRows(shift),
		Decay:      symRows(decay),
	}

	if _, err := s.runs.Save(run); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("id", run.ID).
		Str("method", run.Method).
		Int("atoms", run.AtomCount).
		Msg("Persisted coupling run")

	return run, nil
}

// GetRun retrieves a persisted run with its matrices.
func (s *Service) GetRun(id string) (*Run, error) {
	run, err := s.runs.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns recent run summaries.
func (s *Service) ListRuns(limit int) ([]RunSummary, error) {
	return s.runs.List(limit)
}

// DeleteRun removes a persisted run.
func (s *Service) DeleteRun(id string) error {
	return s.runs.Delete(id)
}

// CleanupCache drops expired cache entries. Wired to the maintenance schedule.
func (s *Service) CleanupCache() (int64, error) {
	return s.cache.Cleanup()
}

// PruneRuns removes runs older than maxAge.
func (s *Service) PruneRuns(maxAge time.Duration) (int64, error) {
	return s.runs.DeleteOlderThan(time.Now().Add(-maxAge))
}

// contentKey builds a deterministic cache key from the full request.
// Positions are not sorted: row order is part of the result.
func contentKey(req ComputeRequest) string {
	var b strings.Builder
	b.WriteString("k=")
	b.WriteString(strconv.FormatFloat(req.Wavenumber, 'g', -1, 64))
	b.WriteString(";g=")
	b.WriteString(strconv.FormatFloat(req.Gamma, 'g', -1, 64))
	b.WriteString(";q=")
	b.WriteString(strconv.Itoa(req.Q))
	for _, p := range req.Positions {
		b.WriteString(";")
		for i, c := range p {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "coupling:" + hex.EncodeToString(sum[:16])
}

func toVecs(positions [][3]float64) []r3.Vec {
	out := make([]r3.Vec, len(positions))
	for i, p := range positions {
		out[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}

func toTriples(positions []r3.Vec) [][3]float64 {
	out := make([][3]float64, len(positions))
	for i, p := range positions {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

func symRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
