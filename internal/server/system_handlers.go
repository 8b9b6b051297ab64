package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/kimkyngt/decay-dynamics/internal/database"
	"github.com/kimkyngt/decay-dynamics/internal/modules/coupling"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles monitoring and maintenance endpoints
type SystemHandlers struct {
	log             zerolog.Logger
	startupTime     time.Time
	db              *database.DB
	couplingService *coupling.Service
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, db *database.DB, couplingService *coupling.Service) *SystemHandlers {
	return &SystemHandlers{
		log:             log.With().Str("handler", "system").Logger(),
		startupTime:     time.Now(),
		db:              db,
		couplingService: couplingService,
	}
}

// HandleSystemStatus returns process and host status.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
		"goroutines":     runtime.NumGoroutine(),
		"timestamp":      time.Now().Format(time.RFC3339),
	}

	if stats, err := h.db.GetStats(); err == nil {
		response["database"] = map[string]interface{}{
			"size_bytes":     stats.SizeBytes,
			"wal_size_bytes": stats.WALSizeBytes,
		}
	} else {
		h.log.Warn().Err(err).Msg("Failed to collect database stats")
	}

	h.writeJSON(w, response)
}

// HandleDatabaseStats returns detailed database statistics.
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to collect database stats")
		http.Error(w, "Failed to collect database stats", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"name":           h.db.Name(),
		"path":           h.db.Path(),
		"profile":        string(h.db.Profile()),
		"size_bytes":     stats.SizeBytes,
		"wal_size_bytes": stats.WALSizeBytes,
		"page_count":     stats.PageCount,
		"page_size":      stats.PageSize,
		"freelist_count": stats.FreelistCount,
	})
}

// HandleCacheCleanup drops expired coupling cache entries.
// POST /api/system/maintenance/cache-cleanup
func (h *SystemHandlers) HandleCacheCleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.couplingService.CleanupCache()
	if err != nil {
		h.log.Error().Err(err).Msg("Cache cleanup failed")
		http.Error(w, "Cache cleanup failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"deleted": deleted,
	})
}

// HandlePruneRuns removes runs older than the given number of days (default 30).
// POST /api/system/maintenance/prune-runs?days=30
func (h *SystemHandlers) HandlePruneRuns(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid days parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	deleted, err := h.couplingService.PruneRuns(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		h.log.Error().Err(err).Msg("Run pruning failed")
		http.Error(w, "Run pruning failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"deleted": deleted,
		"days":    days,
	})
}

// HandleWALCheckpoint forces a WAL checkpoint.
// POST /api/system/maintenance/wal-checkpoint
func (h *SystemHandlers) HandleWALCheckpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.db.WALCheckpoint("TRUNCATE"); err != nil {
		h.log.Error().Err(err).Msg("WAL checkpoint failed")
		http.Error(w, "WAL checkpoint failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"status": "ok",
	})
}

// getSystemStats returns CPU and memory usage percentages.
// Uses a 100ms CPU sampling window to keep the endpoint fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
