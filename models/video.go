package models

import "strconv"

// RawVideoRecord is one playlist item as read from the DOM, before the view
// text is parsed. Any field may be empty when the page omitted it.
type RawVideoRecord struct {
	Title        string `json:"title"`
	RawViewsText string `json:"raw_views_text"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// VideoRecord is a normalized playlist item.
type VideoRecord struct {
	Title        string `json:"title"`
	Views        int64  `json:"views"`
	ThumbnailURL string `json:"thumbnail"`
}

// GraphPoint is a chart point derived from a VideoRecord by position.
type GraphPoint struct {
	Label string `json:"name"`
	Views int64  `json:"views"`
}

// GraphLabel returns the chart label for the item at zero-based index i.
func GraphLabel(i int) string {
	return "Video " + strconv.Itoa(i+1)
}

// NewPlaylistResult builds the response from normalized records. The graph is
// derived from positions only, so both slices always line up.
func NewPlaylistResult(videos []VideoRecord) *PlaylistResult {
	if videos == nil {
		videos = []VideoRecord{}
	}
	graph := make([]GraphPoint, len(videos))
	for i, v := range videos {
		graph[i] = GraphPoint{Label: GraphLabel(i), Views: v.Views}
	}
	return &PlaylistResult{VideoList: videos, GraphData: graph}
}
