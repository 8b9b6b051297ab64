package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimkyngt/decay-dynamics/internal/config"
	"github.com/kimkyngt/decay-dynamics/internal/database"
	"github.com/kimkyngt/decay-dynamics/internal/modules/coupling"
	"github.com/kimkyngt/decay-dynamics/internal/modules/geometry"
	"github.com/kimkyngt/decay-dynamics/internal/modules/operators"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "results.db"),
		Profile: database.ProfileCache,
		Name:    "results",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database.Schema))
	t.Cleanup(func() { db.Close() })

	logger := zerolog.New(nil).Level(zerolog.Disabled)
	geometryService := geometry.NewService(logger)
	couplingService := coupling.NewService(
		geometryService,
		coupling.NewCache(db.Conn()),
		coupling.NewRunRepository(db.Conn(), logger),
		time.Hour,
		logger,
	)

	return New(Config{
		Log:             logger,
		DB:              db,
		Config:          &config.Config{Port: 8080},
		Port:            8080,
		DevMode:         true,
		OperatorService: operators.NewService(logger),
		GeometryService: geometryService,
		CouplingService: couplingService,
	})
}

func serve(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestServer(t)

	w := serve(s, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "decay-dynamics", response["service"])
}

func TestSystemStatusEndpoint(t *testing.T) {
	s := setupTestServer(t)

	w := serve(s, "GET", "/api/system/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])
	assert.Contains(t, response, "uptime_seconds")
	assert.Contains(t, response, "cpu_percent")
	assert.Contains(t, response, "memory_percent")
}

func TestDatabaseStatsEndpoint(t *testing.T) {
	s := setupTestServer(t)

	w := serve(s, "GET", "/api/system/database/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "results", response["name"])
	assert.Equal(t, "cache", response["profile"])
	assert.Greater(t, response["page_size"].(float64), 0.0)
}

func TestOperatorRoutesMounted(t *testing.T) {
	s := setupTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"q":     0,
		"spins": []float64{0.5, 0.5},
		"upper": 0,
		"lower": 1,
	})
	w := serve(s, "POST", "/api/operators/lowering", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGeometryRoutesMounted(t *testing.T) {
	s := setupTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"method": "fibonacci",
		"count":  10,
	})
	w := serve(s, "POST", "/api/geometry/sample", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCouplingRoutesMounted(t *testing.T) {
	s := setupTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"positions":  [][]float64{{0, 0, 0}, {0, 0, 0.5}},
		"wavenumber": 2 * math.Pi,
		"gamma":      1,
		"q":          0,
	})
	w := serve(s, "POST", "/api/coupling/matrices", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaintenanceEndpoints(t *testing.T) {
	s := setupTestServer(t)

	w := serve(s, "POST", "/api/system/maintenance/cache-cleanup", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(0), response["deleted"])

	w = serve(s, "POST", "/api/system/maintenance/prune-runs", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(s, "POST", "/api/system/maintenance/prune-runs?days=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, "POST", "/api/system/maintenance/wal-checkpoint", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	s := setupTestServer(t)

	w := serve(s, "GET", "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
