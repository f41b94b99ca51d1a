package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/wheelhouse-labs/wheelhouse/internal/scheduler"
)

// SystemHandlers handles system monitoring and operations endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	scheduler *scheduler.Scheduler
	startedAt time.Time
}

// NewSystemHandlers creates system monitoring handlers.
func NewSystemHandlers(dataDir string, sched *scheduler.Scheduler, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		scheduler: sched,
		startedAt: time.Now(),
	}
}

// SystemStatusResponse reports process and host health.
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
	Goroutines    int     `json:"goroutines"`
}

// JobStatus reports one scheduled job's state.
type JobStatus struct {
	Name        string                `json:"name"`
	Schedule    string                `json:"schedule"`
	SuccessRate float64               `json:"success_rate"`
	LastRuns    []scheduler.JobResult `json:"last_runs"`
}

// DBInfo describes a single database file.
type DBInfo struct {
	Name   string  `json:"name"`
	SizeMB float64 `json:"size_mb"`
}

// DatabaseStatsResponse reports database file sizes.
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// HandleSystemStatus returns process uptime and host resource usage.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent, diskPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		DiskPercent:   diskPercent,
		Goroutines:    runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleJobsStatus returns scheduler job status with recent run history.
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := h.scheduler.Jobs()

	statuses := make([]JobStatus, 0, len(jobs))
	for name, job := range jobs {
		status := JobStatus{
			Name:     name,
			Schedule: job.Schedule(),
			LastRuns: []scheduler.JobResult{},
		}
		if history := h.scheduler.History(name); history != nil {
			status.SuccessRate = history.GetSuccessRate()
			status.LastRuns = history.GetLatestResults(5)
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"jobs": statuses})
}

// HandleTriggerJob runs a scheduled job immediately.
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.scheduler.RunJob(name); err != nil {
		h.log.Warn().Err(err).Str("job", name).Msg("Manual job trigger failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "triggered",
		"job":    name,
	})
}

// HandleDatabaseStats returns database file sizes.
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	dbPaths, err := filepath.Glob(filepath.Join(h.dataDir, "*.db"))
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to list database files")
	}
	sort.Strings(dbPaths)

	databases := make([]DBInfo, 0, len(dbPaths))
	totalSizeMB := 0.0
	for _, dbPath := range dbPaths {
		info, err := os.Stat(dbPath)
		if err != nil {
			continue
		}
		sizeMB := float64(info.Size()) / 1024 / 1024
		totalSizeMB += sizeMB
		databases = append(databases, DBInfo{
			Name:   filepath.Base(dbPath),
			SizeMB: sizeMB,
		})
	}

	response := DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// getSystemStats samples CPU, memory, and data-directory disk usage.
// CPU is sampled over 100ms to keep the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}
	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	memPercent := 0.0
	if memStat, err := mem.VirtualMemory(); err == nil {
		memPercent = memStat.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	diskPercent := 0.0
	if diskStat, err := disk.Usage(h.dataDir); err == nil {
		diskPercent = diskStat.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	return cpuAvg, memPercent, diskPercent
}
