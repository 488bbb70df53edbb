package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/use-agent/tubescope/config"
	"github.com/use-agent/tubescope/models"
	"github.com/use-agent/tubescope/viewcount"
)

var scrapeJSON bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape <playlist-url>",
	Short: "Crawl one playlist and print its videos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "print the API response JSON instead of a table")
}

func runScrape(ctx context.Context, playlistURL string, out io.Writer) error {
	cfg := config.Load()
	// Logs go to stderr so stdout stays clean for --json.
	initLogger(cfg.Log, os.Stderr)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.crawler.Run(ctx, playlistURL)
	if err != nil {
		return fmt.Errorf("%s: %w", models.ToResponse(err).Error, err)
	}

	if scrapeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeTable(out, res)
}

// writeTable prints one row per video with compact view counts.
func writeTable(w io.Writer, res *models.PlaylistResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tVIEWS\tTITLE\tTHUMBNAIL")
	var total int64
	for i, v := range res.VideoList {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, viewcount.Format(v.Views), v.Title, v.ThumbnailURL)
		total += v.Views
	}
	fmt.Fprintf(tw, "\t%s\t%d videos\t\n", viewcount.Format(total), len(res.VideoList))
	return tw.Flush()
}
