// Package playlist validates user-supplied playlist URLs.
package playlist

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// PlaylistURLParam is the query parameter carrying the playlist id.
const PlaylistURLParam = "list"

// TargetBaseURL is the page every crawl navigates to, with the id appended.
const TargetBaseURL = "https://www.youtube.com/playlist?list="

var (
	// ErrMissing is returned for empty input.
	ErrMissing = errors.New("playlist: url is required")
	// ErrInvalid is returned when no playlist id can be derived.
	ErrInvalid = errors.New("playlist: invalid playlist url")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Locator is a validated playlist reference.
type Locator struct {
	// ID is the playlist id, e.g. "PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf".
	ID string

	// Raw is the URL as supplied by the caller, trimmed.
	Raw string
}

// Parse derives a Locator from a user-supplied URL. It accepts any http(s)
// URL with a non-empty `list` parameter:
//   - https://www.youtube.com/playlist?list=PLAYLIST_ID
//   - https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID&index=2
//   - https://m.youtube.com/playlist?list=PLAYLIST_ID
func Parse(raw string) (Locator, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Locator{}, ErrMissing
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Locator{}, ErrInvalid
	}

	id := strings.TrimSpace(u.Query().Get(PlaylistURLParam))
	if id == "" || !idPattern.MatchString(id) {
		return Locator{}, ErrInvalid
	}

	return Locator{ID: id, Raw: raw}, nil
}

// TargetURL returns the canonical playlist page for this locator.
func (l Locator) TargetURL() string {
	return TargetBaseURL + url.QueryEscape(l.ID)
}

func (l Locator) String() string {
	return l.ID
}
