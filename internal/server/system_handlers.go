package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fundamentals/internal/database"
	"github.com/aristath/fundamentals/internal/modules/statements"
	"github.com/aristath/fundamentals/internal/scheduler"
)

// StatusProvider reports the statement load state.
type StatusProvider interface {
	Status() statements.Status
}

// SystemHandlers handles system monitoring and job trigger endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	cacheDB     *database.DB
	statements  StatusProvider

	mu      sync.Mutex
	jobs    map[string]scheduler.Job
	running map[string]bool
}

// SystemStatusResponse is the payload of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	GoVersion     string            `json:"go_version"`
	Goroutines    int               `json:"goroutines"`
	CPUPercent    float64           `json:"cpu_percent"`
	RAMPercent    float64           `json:"ram_percent"`
	Statements    statements.Status `json:"statements"`
	LastChecked   string            `json:"last_checked"`
}

// DatabaseStatsResponse is the payload of GET /api/system/database.
type DatabaseStatsResponse struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Stats       *database.Stats `json:"stats"`
	LastChecked string          `json:"last_checked"`
}

// DiskUsageResponse is the payload of GET /api/system/disk.
type DiskUsageResponse struct {
	DataDirMB   float64 `json:"data_dir_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, cacheDB *database.DB, status StatusProvider) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		cacheDB:     cacheDB,
		statements:  status,
		jobs:        map[string]scheduler.Job{},
		running:     map[string]bool{},
	}
}

// SetJobs registers jobs for manual triggering, keyed by job name.
func (h *SystemHandlers) SetJobs(jobs ...scheduler.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, job := range jobs {
		if job != nil {
			h.jobs[job.Name()] = job
		}
	}
}

// HandleSystemStatus returns process, host and load status.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		LastChecked:   time.Now().Format(time.RFC3339),
	}
	if h.statements != nil {
		response.Statements = h.statements.Status()
		if response.Statements.LoadError != nil && !response.Statements.Loaded {
			response.Status = "degraded"
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns cache database statistics.
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	if h.cacheDB == nil {
		http.Error(w, "cache database not configured", http.StatusServiceUnavailable)
		return
	}

	stats, err := h.cacheDB.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:        h.cacheDB.Name(),
		Path:        h.cacheDB.Path(),
		Stats:       stats,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// HandleDiskUsage returns data directory usage.
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	response := DiskUsageResponse{DataDirMB: h.getDirSize(h.dataDir)}

	if usage, err := disk.Usage(h.dataDir); err == nil {
		response.FreeMB = float64(usage.Free) / 1024 / 1024
		response.UsedPercent = usage.UsedPercent
	} else {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTriggerJob runs a registered job in the background.
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request, name string) {
	h.mu.Lock()
	job, ok := h.jobs[name]
	if !ok {
		h.mu.Unlock()
		http.Error(w, "unknown job: "+name, http.StatusNotFound)
		return
	}
	if h.running[name] {
		h.mu.Unlock()
		h.writeJSON(w, http.StatusConflict, map[string]string{"status": "running", "message": "Job already running"})
		return
	}
	h.running[name] = true
	h.mu.Unlock()

	h.log.Info().Str("job", name).Msg("Manual job triggered")
	go h.runJob(job)

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok", "message": "Job started"})
}

// HandleListJobs lists the jobs that can be triggered.
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	type jobState struct {
		Name    string `json:"name"`
		Running bool   `json:"running"`
	}
	out := make([]jobState, 0, len(h.jobs))
	for name := range h.jobs {
		out = append(out, jobState{Name: name, Running: h.running[name]})
	}
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": out, "total": len(out)})
}

func (h *SystemHandlers) runJob(job scheduler.Job) {
	defer func() {
		h.mu.Lock()
		delete(h.running, job.Name())
		h.mu.Unlock()
	}()

	start := time.Now()
	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", job.Name()).Msg("Manual job failed")
		return
	}
	h.log.Info().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("Manual job completed")
}

// getDirSize calculates total size of a directory in MB
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

// getSystemStats returns CPU and RAM usage percentages. CPU is sampled
// over 100ms.
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

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
