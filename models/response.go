package models

// PlaylistResult is the response for POST /api/playlist.
// VideoList and GraphData have the same length and share positions.
type PlaylistResult struct {
	// VideoList holds one entry per playlist item, in playlist order.
	VideoList []VideoRecord `json:"videoList"`

	// GraphData is VideoList projected onto chart points.
	GraphData []GraphPoint `json:"graphData"`
}

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Store     string    `json:"store"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
