package coupling

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Run is a persisted sampling-plus-coupling computation.
type Run struct {
	ID         string       `json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	Method     string       `json:"method"`
	AtomCount  int          `json:"atom_count"`
	Radius     float64      `json:"radius"`
	Wavenumber float64      `json:"wavenumber"`
	Gamma      float64      `json:"gamma"`
	Q          int          `json:"q"`
	Seed       uint64       `json:"seed"`
	Positions  [][3]float64 `json:"positions"`
	Shift      [][]float64  `json:"shift"`
	Decay      [][]float64  `json:"decay"`
}

// RunSummary is a run row without the matrix blobs.
type RunSummary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Method     string    `json:"method"`
	AtomCount  int       `json:"atom_count"`
	Radius     float64   `json:"radius"`
	Wavenumber float64   `json:"wavenumber"`
	Gamma      float64   `json:"gamma"`
	Q          int       `json:"q"`
	Seed       uint64    `json:"seed"`
}

// RunRepository handles CRUD operations for persisted runs
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Save persists a run, assigning it a UUID and creation time.
func (r *RunRepository) Save(run *Run) (string, error) {
	positions, err := msgpack.Marshal(run.Positions)
	if err != nil {
		return "", fmt.Errorf("failed to encode positions: %w", err)
	}
	shift, err := msgpack.Marshal(run.Shift)
	if err != nil {
		return "", fmt.Errorf("failed to encode shift matrix: %w", err)
	}
	decay, err := msgpack.Marshal(run.Decay)
	if err != nil {
		return "", fmt.Errorf("failed to encode decay matrix: %w", err)
	}

	run.ID = uuid.New().String()
	run.CreatedAt = time.Now()

	_, err = r.db.Exec(`
		INSERT INTO runs
		(id, created_at, method, atom_count, radius, wavenumber, gamma, q, seed,
		 positions, shift, decay)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.Unix(),
		run.Method,
		run.AtomCount,
		run.Radius,
		run.Wavenumber,
		run.Gamma,
		run.Q,
		int64(run.Seed),
		positions,
		shift,
		decay,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	return run.ID, nil
}

// Get retrieves a run with its matrices.
// Returns sql.ErrNoRows if no run has the given id.
func (r *RunRepository) Get(id string) (*Run, error) {
	var run Run
	var createdAt, seed int64
	var positions, shift, decay []byte

	err := r.db.QueryRow(`
		SELECT id, created_at, method, atom_count, radius, wavenumber, gamma, q, seed,
		       positions, shift, decay
		FROM runs WHERE id = ?
	`, id).Scan(
		&run.ID,
		&createdAt,
		&run.Method,
		&run.AtomCount,
		&run.Radius,
		&run.Wavenumber,
		&run.Gamma,
		&run.Q,
		&seed,
		&positions,
		&shift,
		&decay,
	)
	if err != nil {
		return nil, err
	}

	run.CreatedAt = time.Unix(createdAt, 0)
	run.Seed = uint64(seed)

	if err := msgpack.Unmarshal(positions, &run.Positions); err != nil {
		return nil, fmt.Errorf("failed to decode positions: %w", err)
	}
	if err := msgpack.Unmarshal(shift, &run.Shift); err != nil {
		return nil, fmt.Errorf("failed to decode shift matrix: %w", err)
	}
	if err := msgpack.Unmarshal(decay, &run.Decay); err != nil {
		return nil, fmt.Errorf("failed to decode decay matrix: %w", err)
	}

	return &run, nil
}

// List returns the most recent runs, newest first, without matrix blobs.
func (r *RunRepository) List(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, created_at, method, atom_count, radius, wavenumber, gamma, q, seed
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var createdAt, seed int64
		if err := rows.Scan(
			&s.ID,
			&createdAt,
			&s.Method,
			&s.AtomCount,
			&s.Radius,
			&s.Wavenumber,
			&s.Gamma,
			&s.Q,
			&seed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		s.Seed = uint64(seed)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// Delete removes a run. Deleting a missing run is not an error.
func (r *RunRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM runs WHERE id = ?", id)
	return err
}

// DeleteOlderThan removes runs created before the cutoff and reports how many
// were deleted. Used by the retention job.
func (r *RunRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM runs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	return result.RowsAffected()
}
