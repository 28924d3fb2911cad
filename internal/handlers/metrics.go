package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/services"
	"gorm.io/gorm"
)

var startTime = time.Now()

type MetricsHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
}

func NewMetricsHandler(db *gorm.DB, queue services.TaskQueue) *MetricsHandler {
	return &MetricsHandler{db: db, queue: queue}
}

// Metrics returns Prometheus-compatible text format metrics.
// GET /api/admin/metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder

	// -- Runtime metrics --
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeGauge(&b, "taskhub_uptime_seconds", "Time since server start in seconds", time.Since(startTime).Seconds())
	writeGauge(&b, "taskhub_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "taskhub_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))
	writeGauge(&b, "taskhub_memory_sys_bytes", "Total memory obtained from OS in bytes", float64(m.Sys))
	writeGauge(&b, "taskhub_gc_runs_total", "Total number of GC runs", float64(m.NumGC))

	// -- Database metrics --
	if sqlDB, err := h.db.DB(); err == nil {
		stats := sqlDB.Stats()
		writeGauge(&b, "taskhub_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
		writeGauge(&b, "taskhub_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
		writeGauge(&b, "taskhub_db_idle_connections", "Number of idle DB connections", float64(stats.Idle))
	}

	// -- Queue metrics --
	queueAsync := 0.0
	if h.queue != nil && h.queue.IsAsync() {
		queueAsync = 1.0
	}
	writeGauge(&b, "taskhub_queue_async_enabled", "Whether async queue (Redis) is enabled (1=yes, 0=no)", queueAsync)

	// -- Domain metrics --
	var activeProjects, trashedProjects, totalTasks, doneTasks, users int64
	h.db.Model(&models.Project{}).Count(&activeProjects)
	h.db.Unscoped().Model(&models.Project{}).Where("deleted_at IS NOT NULL").Count(&trashedProjects)
	h.db.Model(&models.Task{}).Count(&totalTasks)
	h.db.Model(&models.Task{}).Where("is_done = ?", true).Count(&doneTasks)
	h.db.Model(&models.User{}).Count(&users)

	writeGauge(&b, "taskhub_projects_active", "Number of projects not in the trash", float64(activeProjects))
	writeGauge(&b, "taskhub_projects_trashed", "Number of projects in the trash", float64(trashedProjects))
	writeGauge(&b, "taskhub_tasks_total", "Total number of tasks", float64(totalTasks))
	writeGauge(&b, "taskhub_tasks_done", "Number of completed tasks", float64(doneTasks))
	writeGauge(&b, "taskhub_users_total", "Number of registered users", float64(users))

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}
