package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/senti/internal/formatter"
	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/shared"
)

// ScrapeOpts contains configuration for bulk scrapes.
type ScrapeOpts struct {
	Platform   string  // Platform hint sent with every URL, empty to let the server detect it
	Format     string  // Export format when OutputDir is set: csv, markdown, txt, json (default: csv)
	OutputDir  string  // Directory for per-URL exports and the manifest; empty skips writing
	NumWorkers int     // Concurrent workers (default: 3, max: 10)
	RateLimit  float64 // Requests per second (default: 2)
}

// ScrapeJobResult is the outcome for one URL.
type ScrapeJobResult struct {
	Index  int
	URL    string
	Result *models.ScrapeResult
	File   string
	Error  error
}

// BulkScrapeResult aggregates a bulk scrape. Results keep the order of the input URLs.
type BulkScrapeResult struct {
	TotalURLs       int
	Successful      int
	Failed          int
	Stats           models.Stats
	Results         []ScrapeJobResult
	OutputDirectory string
	ManifestPath    string
}

type scrapeJob struct {
	index int
	url   string
}

// BulkScrape scrapes and classifies comments from many URLs concurrently with rate limiting and progress tracking.
//
// A URL that fails is recorded in its result and does not stop the others.
func (e *Engine) BulkScrape(ctx context.Context, prog chan<- ProgressUpdate, urls []string, opts ScrapeOpts) (*BulkScrapeResult, error) {
	targets := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			targets = append(targets, u)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: at least one URL is required", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if opts.OutputDir != "" {
		if opts.Format == "" {
			opts.Format = formatter.FormatCSV
		}
		if _, err := formatter.Export(&formatter.Report{}, opts.Format); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	result := &BulkScrapeResult{
		TotalURLs:       len(targets),
		Stats:           models.Stats{},
		Results:         make([]ScrapeJobResult, 0, len(targets)),
		OutputDirectory: opts.OutputDir,
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan scrapeJob, len(targets))
	results := make(chan ScrapeJobResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.scrapeWorker(ctx, &wg, limiter, jobs, results, prog, len(targets), opts)
	}

	for i, u := range targets {
		jobs <- scrapeJob{index: i, url: u}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Error == nil {
			result.Successful++
			result.Stats.Add(res.Result.Stats)
			e.sendProgress(prog, scrapeCompletedUpdate(completed, len(targets), res.Result))
		} else {
			result.Failed++
			e.sendProgress(prog, scrapeFailedUpdate(completed, len(targets), res.URL, res.Error))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Index < result.Results[j].Index
	})

	if opts.OutputDir != "" {
		manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
		if err := formatter.WriteManifest(manifest(result, opts.Format), manifestPath); err != nil {
			return result, fmt.Errorf("scrape completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = manifestPath
		e.sendProgress(prog, exportWrittenUpdate(manifestPath))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// scrapeWorker scrapes URLs from the jobs channel until it is drained. Every job yields exactly one result.
func (e *Engine) scrapeWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan scrapeJob,
	results chan<- ScrapeJobResult,
	prog chan<- ProgressUpdate,
	total int,
	opts ScrapeOpts,
) {
	defer wg.Done()

	for job := range jobs {
		res := ScrapeJobResult{Index: job.index, URL: job.url}

		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
			results <- res
			continue
		}

		e.sendProgress(prog, scrapingUpdate(job.index+1, total, job.url))

		scraped, err := e.svc.Scrape(ctx, job.url, opts.Platform)
		if err != nil {
			res.Error = err
			results <- res
			continue
		}
		res.Result = scraped

		if opts.OutputDir != "" {
			name := fmt.Sprintf("%02d_%s%s", job.index+1, formatter.Slug(job.url), formatter.Extension(opts.Format))
			path, err := formatter.WriteExport(formatter.FromScrape(scraped), opts.Format, filepath.Join(opts.OutputDir, name))
			if err != nil {
				res.Error = fmt.Errorf("export failed: %w", err)
			} else {
				res.File = path
			}
		}

		results <- res
	}
}

func manifest(r *BulkScrapeResult, format string) formatter.Manifest {
	m := formatter.Manifest{
		Format:     format,
		Total:      r.TotalURLs,
		Successful: r.Successful,
		Failed:     r.Failed,
		Stats:      r.Stats,
		Entries:    make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{URL: res.URL, Status: "success", File: res.File}
		if res.Result != nil {
			entry.Total = res.Result.Total
		}
		if res.Error != nil {
			entry.Status = "failed"
			entry.Error = res.Error.Error()
		}
		m.Entries = append(m.Entries, entry)
	}
	return m
}
