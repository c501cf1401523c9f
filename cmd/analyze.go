package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/senti/internal/formatter"
	"github.com/desertthunder/senti/internal/shared"
	"github.com/desertthunder/senti/internal/tasks"
	"github.com/desertthunder/senti/internal/ui"
)

// Classify analyzes the text given as arguments. Blank text prints nothing.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")

	res, err := r.engine.Classify(ctx, text)
	if err != nil {
		return err
	}
	if res == nil {
		r.logger.Debug("nothing to classify")
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, false)
	}
	return r.term.Render(ui.ViewResult, res)
}

// Batch classifies every row of a file and optionally exports the results.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	progress := make(chan tasks.ProgressUpdate, 4)
	done := r.progressPrinter(progress)
	res, err := r.engine.Batch(ctx, filepath.Base(path), f, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}

	report := formatter.FromBatch(res)
	if err := r.term.Render(ui.ViewBatch, report); err != nil {
		return err
	}

	if out := cmd.String("output"); out != "" || cmd.IsSet("format") {
		written, err := formatter.WriteExport(report, cmd.String("format"), out)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Results saved to %s\n", written)
	}
	return nil
}

// Scrape classifies comments from one or more URLs.
//
// A single URL without --output-dir is shown in full. Anything else runs as a bulk scrape.
func (r *Runner) Scrape(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one URL", shared.ErrMissingArgument)
	}

	if len(urls) == 1 && cmd.String("output-dir") == "" {
		res, err := r.svc.Scrape(ctx, urls[0], cmd.String("platform"))
		if err != nil {
			return err
		}
		return r.term.Render(ui.ViewScrape, formatter.FromScrape(res))
	}

	opts := tasks.ScrapeOpts{
		Platform:   cmd.String("platform"),
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: r.config.Scrape.Workers,
		RateLimit:  r.config.Scrape.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	progress := make(chan tasks.ProgressUpdate, len(urls)*2+2)
	done := r.progressPrinter(progress)
	res, err := r.engine.BulkScrape(ctx, progress, urls, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if err := r.term.Render(ui.ViewBulk, res); err != nil {
		return err
	}
	if res.Successful == 0 {
		return fmt.Errorf("%w: no URL could be scraped", shared.ErrAPIRequest)
	}
	return nil
}

// HistoryList shows the server history when logged in and the local history otherwise.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	page, perPage := cmd.Int("page"), cmd.Int("per-page")
	if page < 1 || perPage < 1 {
		return fmt.Errorf("%w: --page and --per-page must be positive", shared.ErrInvalidArgument)
	}

	view, err := r.engine.History(ctx, page, perPage, nil)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(view, true)
	case cmd.Bool("tui"):
		return r.runHistoryTUI(view)
	default:
		return r.term.Render(ui.ViewHistory, view)
	}
}

// HistoryClear deletes the analyses kept on this device.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return fmt.Errorf("%w: no local database", shared.ErrServiceUnavailable)
	}

	n, err := r.engine.DiscardAnonymous(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %d local analyses\n", n)
}

// Feedback corrects the label of one of the user's analyses.
func (r *Runner) Feedback(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("%w: usage: senti feedback <id> <label>", shared.ErrMissingArgument)
	}

	id, err := strconv.Atoi(cmd.Args().Get(0))
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: id must be a positive number, got %q", shared.ErrInvalidArgument, cmd.Args().Get(0))
	}

	entry, err := r.engine.Feedback(ctx, id, cmd.Args().Get(1))
	if err != nil {
		return err
	}
	return r.term.Render(ui.ViewFeedback, entry)
}

// StatsDashboard shows the trend and word cloud together. Endpoints that fail are reported but do not fail the command.
func (r *Runner) StatsDashboard(ctx context.Context, cmd *cli.Command) error {
	progress := make(chan tasks.ProgressUpdate, 4)
	done := r.progressPrinter(progress)
	res, err := r.engine.Dashboard(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	if err := r.term.Render(ui.ViewDashboard, res); err != nil {
		return err
	}

	for _, e := range res.Errors {
		if errors.Is(e.Error, shared.ErrTokenExpired) {
			return e.Error
		}
	}
	return nil
}

// StatsTrend shows daily counts per label.
func (r *Runner) StatsTrend(ctx context.Context, cmd *cli.Command) error {
	trend, err := r.svc.Trend(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(trend, true)
	}
	return r.term.Render(ui.ViewTrend, trend)
}

// StatsWordCloud shows the most frequent words.
func (r *Runner) StatsWordCloud(ctx context.Context, cmd *cli.Command) error {
	words, err := r.svc.WordCloud(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(words, true)
	}
	return r.term.Render(ui.ViewWordCloud, words)
}
