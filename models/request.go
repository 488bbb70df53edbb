package models

// PlaylistRequest is the payload for POST /api/playlist.
type PlaylistRequest struct {
	// PlaylistURL is a YouTube URL carrying a `list` query parameter,
	// e.g. https://www.youtube.com/playlist?list=PL123. Required.
	PlaylistURL string `json:"playlistUrl"`
}
