package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/tubescope/models"
)

// CLI flags
var (
	apiURL      = flag.String("api-url", "http://localhost:8080", "tubescope API base URL")
	runs        = flag.Int("runs", 3, "Number of runs per playlist for averaging")
	concurrency = flag.Int("concurrency", 1, "Concurrent requests per run")
	rps         = flag.Float64("rps", 0, "Max requests started per second (0 = unlimited)")
	output      = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Playlists of increasing length. Override with positional arguments.
var defaultPlaylists = []struct {
	Label string
	URL   string
}{
	{"Short", "https://www.youtube.com/playlist?list=PLQVvvaa0QuDfKTOs3Keq_kaG2P55YRn5v"},
	{"Medium", "https://www.youtube.com/playlist?list=PLWKjhJtqVAbnqBxcdjVGgT3uVR10bzTEB"},
	{"Long", "https://www.youtube.com/playlist?list=PL4cUxeGkcC9gcy9lrvMJ75z9maRw4byYp"},
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	TotalMs    int64  `json:"total_ms"`
	Videos     int    `json:"videos"`
	Titled     int    `json:"titled"`
	WithViews  int    `json:"with_views"`
	StatusCode int    `json:"status_code"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type playlistAverages struct {
	TotalMs float64 `json:"total_ms"`
	P95Ms   int64   `json:"p95_ms"`
	Videos  float64 `json:"videos"`
}

type playlistResult struct {
	URL      string            `json:"url"`
	Label    string            `json:"label"`
	Runs     []runResult       `json:"runs"`
	Averages *playlistAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp   string           `json:"timestamp"`
	APIURL      string           `json:"api_url"`
	RunsPerURL  int              `json:"runs_per_url"`
	Concurrency int              `json:"concurrency"`
	Results     []playlistResult `json:"results"`
}

func main() {
	flag.Parse()

	targets := defaultPlaylists
	if flag.NArg() > 0 {
		targets = targets[:0]
		for i, u := range flag.Args() {
			targets = append(targets, struct {
				Label string
				URL   string
			}{fmt.Sprintf("Arg %d", i+1), u})
		}
	}

	fmt.Println("=== tubescope Benchmark Suite ===")
	fmt.Printf("API URL:      %s\n", *apiURL)
	fmt.Printf("Runs/URL:     %d\n", *runs)
	fmt.Printf("Concurrency:  %d\n", *concurrency)
	fmt.Printf("Rate limit:   %s\n", rateLabel(*rps))
	fmt.Printf("Output:       %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure tubescope is running (e.g. tubescope serve)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerURL:  *runs,
		Concurrency: *concurrency,
	}

	client := &http.Client{Timeout: 11 * time.Minute}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if *rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rps), 1)
	}
	for _, t := range targets {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		pr := playlistResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			batch := runConcurrent(client, limiter, t.URL, i, *concurrency)
			for _, rr := range batch {
				if rr.Success {
					fmt.Printf("OK %dms %d videos  ", rr.TotalMs, rr.Videos)
				} else {
					fmt.Printf("FAILED: %s  ", rr.Error)
				}
			}
			fmt.Println()
			pr.Runs = append(pr.Runs, batch...)
		}

		pr.Averages = computeAverages(pr.Runs)
		report.Results = append(report.Results, pr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func rateLabel(rps float64) string {
	if rps <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%.2f req/s", rps)
}

// runConcurrent fires n requests, each started once limiter allows it.
func runConcurrent(client *http.Client, limiter *rate.Limiter, url string, run, n int) []runResult {
	n = max(n, 1)
	out := make([]runResult, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(context.Background()); err != nil {
				out[i] = runResult{Run: run, Error: fmt.Sprintf("rate limiter: %v", err)}
				return
			}
			out[i] = benchmarkPlaylist(client, url, run)
		}()
	}
	wg.Wait()
	return out
}

func benchmarkPlaylist(client *http.Client, url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(models.PlaylistRequest{PlaylistURL: url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/playlist", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	rr.TotalMs = time.Since(start).Milliseconds()
	rr.StatusCode = resp.StatusCode
	if err != nil {
		rr.Error = fmt.Sprintf("read error: %v", err)
		return rr
	}

	if resp.StatusCode != http.StatusOK {
		var er models.ErrorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			rr.Error = er.Error
		} else {
			rr.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return rr
	}

	var res models.PlaylistResult
	if err := json.Unmarshal(body, &res); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = true
	rr.Videos = len(res.VideoList)
	for _, v := range res.VideoList {
		if v.Title != "" {
			rr.Titled++
		}
		if v.Views > 0 {
			rr.WithViews++
		}
	}
	return rr
}

func computeAverages(runs []runResult) *playlistAverages {
	var avg playlistAverages
	var latencies []int64

	for _, r := range runs {
		if !r.Success {
			continue
		}
		latencies = append(latencies, r.TotalMs)
		avg.TotalMs += float64(r.TotalMs)
		avg.Videos += float64(r.Videos)
	}

	if len(latencies) == 0 {
		return nil
	}

	n := float64(len(latencies))
	avg.TotalMs /= n
	avg.Videos /= n
	avg.P95Ms = percentile(latencies, 0.95)
	return &avg
}

// percentile uses nearest-rank on a sorted copy.
func percentile(values []int64, p float64) int64 {
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(p*float64(len(sorted))+0.5) - 1
	idx = min(max(idx, 0), len(sorted)-1)
	return sorted[idx]
}

func printTable(results []playlistResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Playlist\tAvg Latency\tP95\tVideos\tFailures\n")
	fmt.Fprintf(w, "────────\t───────────\t───\t──────\t────────\n")

	for _, r := range results {
		failures := 0
		for _, rr := range r.Runs {
			if !rr.Success {
				failures++
			}
		}
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t%d\n", r.Label, failures)
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%dms\t%.0f\t%d\n",
			r.Label,
			int64(r.Averages.TotalMs),
			r.Averages.P95Ms,
			r.Averages.Videos,
			failures,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
