package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tubescope/models"
)

func callTool(t *testing.T, apiURL string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = "scrape_playlist"
	req.Params.Arguments = args

	res, err := handleScrapePlaylist(apiURL)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", c)
		return ""
	}
}

func fakeAPI(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/playlist", r.URL.Path)
		var req models.PlaylistRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://www.youtube.com/playlist?list=PL1", req.PlaylistURL)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScrapePlaylistTool_Table(t *testing.T) {
	srv := fakeAPI(t, http.StatusOK, models.NewPlaylistResult([]models.VideoRecord{
		{Title: "Intro", Views: 1500000, ThumbnailURL: "https://i.ytimg.com/vi/a/hq.jpg"},
		{Views: 12},
	}))

	res := callTool(t, srv.URL, map[string]any{"playlist_url": "https://www.youtube.com/playlist?list=PL1"})

	assert.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "1. Intro | 1.5M views | https://i.ytimg.com/vi/a/hq.jpg")
	assert.Contains(t, text, "2. (untitled) | 12 views")
	assert.Contains(t, text, "2 videos")
}

func TestScrapePlaylistTool_JSON(t *testing.T) {
	srv := fakeAPI(t, http.StatusOK, models.NewPlaylistResult([]models.VideoRecord{{Title: "a", Views: 1}}))

	res := callTool(t, srv.URL, map[string]any{
		"playlist_url": "https://www.youtube.com/playlist?list=PL1",
		"format":       "json",
	})

	assert.False(t, res.IsError)
	assert.JSONEq(t,
		`{"videoList":[{"title":"a","views":1,"thumbnail":""}],"graphData":[{"name":"Video 1","views":1}]}`,
		resultText(t, res))
}

func TestScrapePlaylistTool_APIError(t *testing.T) {
	srv := fakeAPI(t, http.StatusBadRequest, models.ErrorResponse{Error: models.MsgURLInvalid})

	res := callTool(t, srv.URL, map[string]any{"playlist_url": "https://www.youtube.com/playlist?list=PL1"})

	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Invalid playlist URL")
}

func TestScrapePlaylistTool_MissingArgument(t *testing.T) {
	res := callTool(t, "http://127.0.0.1:0", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "playlist_url is required")
}
