package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/tubescope/api/handler"
	"github.com/use-agent/tubescope/models"
	"github.com/use-agent/tubescope/viewcount"
)

func main() {
	apiURL := os.Getenv("TUBESCOPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"tubescope",
		handler.Version,
		server.WithToolCapabilities(false),
	)

	scrapePlaylistTool := mcp.NewTool("scrape_playlist",
		mcp.WithDescription("Scrape a YouTube playlist and list every video with its title, view count and thumbnail URL, in playlist order. Drives a headless browser, so large playlists can take a minute or more."),
		mcp.WithString("playlist_url",
			mcp.Required(),
			mcp.Description("A YouTube URL carrying a list= parameter, e.g. https://www.youtube.com/playlist?list=PL..."),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'table' (default, one line per video) or 'json' (the raw API response)"),
			mcp.Enum("table", "json"),
		),
	)
	s.AddTool(scrapePlaylistTool, handleScrapePlaylist(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the tubescope API and returns the status
// code and response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

func handleScrapePlaylist(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 11 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		playlistURL, err := request.RequireString("playlist_url")
		if err != nil {
			return mcp.NewToolResultError("playlist_url is required"), nil
		}
		format := request.GetString("format", "table")

		status, respBody, err := apiPost(ctx, client, apiURL, "/api/playlist",
			models.PlaylistRequest{PlaylistURL: playlistURL})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("playlist request failed: %v", err)), nil
		}

		if status != http.StatusOK {
			var errResp models.ErrorResponse
			if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error == "" {
				return mcp.NewToolResultError(fmt.Sprintf("API returned HTTP %d", status)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("[%d] %s", status, errResp.Error)), nil
		}

		if format == "json" {
			return mcp.NewToolResultText(string(respBody)), nil
		}

		var result models.PlaylistResult
		if err := json.Unmarshal(respBody, &result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		return mcp.NewToolResultText(formatPlaylist(&result)), nil
	}
}

// formatPlaylist renders one line per video followed by a totals line.
func formatPlaylist(res *models.PlaylistResult) string {
	var sb strings.Builder
	var total int64
	for i, v := range res.VideoList {
		title := v.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&sb, "%d. %s | %s views", i+1, title, viewcount.Format(v.Views))
		if v.ThumbnailURL != "" {
			fmt.Fprintf(&sb, " | %s", v.ThumbnailURL)
		}
		sb.WriteString("\n")
		total += v.Views
	}
	fmt.Fprintf(&sb, "\n%d videos, %s views in total\n", len(res.VideoList), viewcount.Format(total))
	return sb.String()
}
