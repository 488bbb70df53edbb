package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/tubescope/models"
)

// Version is reported by the health endpoint and the CLI.
const Version = "0.1.0"

// PoolReporter exposes browser pool utilisation. *scraper.Scraper implements it.
type PoolReporter interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /api/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are active.
func Health(pool PoolReporter, storeName string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Store:     storeName,
			Version:   Version,
		})
	}
}
