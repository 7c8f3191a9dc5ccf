package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/skylease/watchtower/internal/database"
	"github.com/skylease/watchtower/internal/scheduler"
)

// SystemHandlers handles system-wide monitoring and operations endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	fleetDB     *database.DB
	portfolioDB *database.DB
	cacheDB     *database.DB

	// Jobs (set after registration in main.go)
	snapshotRefreshJob scheduler.Job
	fleetSyncJob       scheduler.Job
	backupJob          scheduler.Job
	sched              *scheduler.Scheduler
}

// NewSystemHandlers creates a new system handlers instance.
func NewSystemHandlers(log zerolog.Logger, dataDir string, fleetDB, portfolioDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		fleetDB:     fleetDB,
		portfolioDB: portfolioDB,
		cacheDB:     cacheDB,
	}
}

// SetJobs registers job references for manual triggering.
// Called after jobs are registered in main.go.
func (h *SystemHandlers) SetJobs(sched *scheduler.Scheduler, snapshotRefresh, fleetSync, backup scheduler.Job) {
	h.sched = sched
	h.snapshotRefreshJob = snapshotRefresh
	h.fleetSyncJob = fleetSync
	h.backupJob = backup
}

// HealthResponse reports liveness and per-database health.
type HealthResponse struct {
	Status      string            `json:"status"` // "healthy" or "unhealthy"
	UptimeHours float64           `json:"uptime_hours"`
	Databases   map[string]string `json:"databases"` // name -> "ok" or error text
	CheckedAt   string            `json:"checked_at"`
}

// ResourcesResponse reports process host resource usage and data dir size.
type ResourcesResponse struct {
	CPUPercent float64 `json:"cpu_percent"`
	RAMPercent float64 `json:"ram_percent"`
	DataDirMB  float64 `json:"data_dir_mb"`
}

// HandleHealth runs quick integrity checks against every database.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	databases := make(map[string]string, 3)

	for _, db := range []*database.DB{h.fleetDB, h.portfolioDB, h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(r.Context()); err != nil {
			databases[db.Name()] = err.Error()
			status = "unhealthy"
			continue
		}
		databases[db.Name()] = "ok"
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, HealthResponse{
		Status:      status,
		UptimeHours: time.Since(h.startupTime).Hours(),
		Databases:   databases,
		CheckedAt:   time.Now().Format(time.RFC3339),
	})
}

// HandleResources returns host CPU/RAM usage and data directory size.
func (h *SystemHandlers) HandleResources(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	h.writeJSON(w, http.StatusOK, ResourcesResponse{
		CPUPercent: cpuPercent,
		RAMPercent: ramPercent,
		DataDirMB:  h.getDirSize(h.dataDir),
	})
}

// HandleTriggerSnapshotRefresh runs the snapshot refresh job immediately.
// POST /api/jobs/snapshot-refresh
func (h *SystemHandlers) HandleTriggerSnapshotRefresh(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.snapshotRefreshJob, "Snapshot refresh")
}

// HandleTriggerFleetSync runs the fleet metadata sync job immediately.
// POST /api/jobs/fleet-sync
func (h *SystemHandlers) HandleTriggerFleetSync(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.fleetSyncJob, "Fleet sync")
}

// HandleTriggerBackup runs the backup job immediately.
// POST /api/jobs/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.backupJob, "Backup")
}

func (h *SystemHandlers) triggerJob(w http.ResponseWriter, job scheduler.Job, label string) {
	if job == nil || h.sched == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{
			"status":  "error",
			"message": label + " job not registered",
		})
		return
	}

	h.log.Info().Str("job", job.Name()).Msg("Manual job trigger")

	if err := h.sched.RunNow(job); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": label + " completed",
	})
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a short interval so monitoring polls stay responsive.
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

// getDirSize calculates total size of a directory in MB.
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
