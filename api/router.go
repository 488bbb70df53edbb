package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/tubescope/api/handler"
	"github.com/use-agent/tubescope/api/middleware"
	"github.com/use-agent/tubescope/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → AccessLog
func NewRouter(cr handler.PlaylistCrawler, pool handler.PoolReporter, storeName string, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.AccessLog())

	api := r.Group("/api")
	api.GET("/health", handler.Health(pool, storeName, startTime))
	api.POST("/playlist", handler.Playlist(cr))

	return r
}
