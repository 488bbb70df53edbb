package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/tubescope/models"
)

// PlaylistCrawler runs one playlist crawl. *crawl.Crawler implements it.
type PlaylistCrawler interface {
	Run(ctx context.Context, rawURL string) (*models.PlaylistResult, error)
}

// Playlist returns a handler for POST /api/playlist.
//
// A body that is not valid JSON is treated like a body without a URL, so
// clients always get one of the documented error messages.
func Playlist(cr PlaylistCrawler) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.PlaylistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Debug("playlist: unreadable request body", "error", err)
			req = models.PlaylistRequest{}
		}

		// ── 2. Crawl ────────────────────────────────────────────────
		result, err := cr.Run(c.Request.Context(), req.PlaylistURL)
		if err != nil {
			respondError(c, err)
			return
		}

		slog.Info("playlist served",
			"videos", len(result.VideoList),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		c.JSON(http.StatusOK, result)
	}
}

// respondError writes the client-facing error body. Internal detail stays
// in the logs.
func respondError(c *gin.Context, err error) {
	kind := models.Classify(err)
	status := mapErrorToStatus(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("playlist request failed", "kind", kind, "error", err)
	}
	c.JSON(status, models.ToResponse(err))
}

// mapErrorToStatus translates public failure kinds to HTTP status codes.
func mapErrorToStatus(kind string) int {
	switch kind {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	default:
		return http.StatusInternalServerError // 500
	}
}
