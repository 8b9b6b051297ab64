package scheduler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimkyngt/decay-dynamics/internal/database"
	"github.com/kimkyngt/decay-dynamics/internal/modules/coupling"
	"github.com/kimkyngt/decay-dynamics/internal/modules/geometry"
)

func setupCouplingService(t *testing.T) (*coupling.Service, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	service := coupling.NewService(
		geometry.NewService(log),
		coupling.NewCache(db),
		coupling.NewRunRepository(db, log),
		time.Hour,
		log,
	)

	return service, db
}

func TestCacheCleanupJob(t *testing.T) {
	service, db := setupCouplingService(t)

	// One expired entry, one live.
	now := time.Now().Unix()
	_, err := db.Exec(
		`INSERT INTO coupling_cache (key, value, created_at, expires_at) VALUES
			('coupling:old', X'01', ?, ?),
			('coupling:new', X'02', ?, ?)`,
		now-7200, now-3600, now, now+3600,
	)
	require.NoError(t, err)

	job := NewCacheCleanupJob(service, zerolog.New(nil).Level(zerolog.Disabled))
	assert.Equal(t, "cache_cleanup", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM coupling_cache`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPruneRunsJob(t *testing.T) {
	service, db := setupCouplingService(t)

	result, err := service.Run(coupling.RunRequest{
		Method:     geometry.MethodFibonacci,
		Count:      4,
		Radius:     1,
		Wavenumber: 1,
		Gamma:      1,
		Q:          0,
	})
	require.NoError(t, err)

	// Age the run past the retention window.
	_, err = db.Exec(
		`UPDATE runs SET created_at = ? WHERE id = ?`,
		time.Now().Add(-48*time.Hour).Unix(), result.ID,
	)
	require.NoError(t, err)

	job := NewPruneRunsJob(service, 24*time.Hour, zerolog.New(nil).Level(zerolog.Disabled))
	assert.Equal(t, "prune_runs", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestMaintenanceJob(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(database.Config{
		Path:    dataDir + "/results.db",
		Profile: database.ProfileStandard,
		Name:    "results",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(database.Schema))

	job := NewMaintenanceJob(db, dataDir, zerolog.New(nil).Level(zerolog.Disabled))
	assert.Equal(t, "maintenance", job.Name())
	assert.NoError(t, job.Run(context.Background()))
}
