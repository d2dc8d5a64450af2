package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/engramkit/engram"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	client engram.GraphClient
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(client engram.GraphClient) *HealthHandler {
	return &HealthHandler{client: client}
}

// HealthCheck handles GET /health - basic liveness check.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "engram",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready - readiness probe. It exercises the
// graph through a cheap read so a wedged store surfaces here.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ready",
		"service":   "engram",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.client != nil {
		start := time.Now()
		stats, err := h.client.Stats(ctx)
		duration := time.Since(start)

		if err != nil || ctx.Err() != nil {
			checks["graph"] = gin.H{
				"status":   "unhealthy",
				"error":    "graph read failed",
				"duration": duration.String(),
			}
			allHealthy = false
		} else {
			checks["graph"] = gin.H{
				"status":    "healthy",
				"duration":  duration.String(),
				"entities":  stats.EntityCount,
				"relations": stats.RelationCount,
			}
		}
	} else {
		checks["graph"] = gin.H{
			"status": "unhealthy",
			"error":  "graph client not initialized",
		}
		allHealthy = false
	}

	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "engram",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck handles GET /health/detailed - build, runtime and
// graph information in one place.
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	response := gin.H{
		"status":  "healthy",
		"service": "engram",
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
		"checks": gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.client != nil {
		start := time.Now()
		stats, err := h.client.Stats(ctx)
		duration := time.Since(start)

		graphStatus := gin.H{
			"status":      "healthy",
			"duration_ms": duration.Milliseconds(),
		}
		if err != nil || ctx.Err() != nil {
			graphStatus["status"] = "unhealthy"
			graphStatus["error"] = "graph read failed"
			allHealthy = false
		} else {
			graphStatus["entities"] = stats.EntityCount
			graphStatus["relations"] = stats.RelationCount
			graphStatus["observations"] = stats.ObservationCount
		}
		checks["graph"] = graphStatus
	} else {
		checks["graph"] = gin.H{
			"status": "unhealthy",
			"error":  "graph client not initialized",
		}
		allHealthy = false
	}

	metrics := h.getSystemMetrics()
	checks["system"] = gin.H{
		"status":       "healthy",
		"memory_usage": metrics.MemoryUsage,
		"goroutines":   metrics.Goroutines,
		"gc_cycles":    metrics.GCCycles,
		"heap_objects": metrics.HeapObjects,
	}

	response["response_time_ms"] = time.Since(startTime).Milliseconds()

	if !allHealthy {
		response["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SystemMetrics holds system runtime metrics.
type SystemMetrics struct {
	MemoryUsage string `json:"memory_usage"`
	Goroutines  int    `json:"goroutines"`
	GCCycles    uint32 `json:"gc_cycles"`
	HeapObjects uint64 `json:"heap_objects"`
}

// getSystemMetrics collects current system runtime metrics.
func (h *HealthHandler) getSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		MemoryUsage: fmt.Sprintf("%.2f MB", float64(m.Alloc)/(1024*1024)),
		Goroutines:  runtime.NumGoroutine(),
		GCCycles:    m.NumGC,
		HeapObjects: m.HeapObjects,
	}
}
