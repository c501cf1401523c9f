package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/services"
	"github.com/desertthunder/senti/internal/shared"
	tu "github.com/desertthunder/senti/internal/testing"
)

const (
	tweetURL   = "https://x.com/someone/status/1"
	youtubeURL = "https://www.youtube.com/watch?v=abc"
	unknownURL = "https://example.com/nothing"
)

func seedScrapes(api *tu.FakeAPI) {
	api.SetScrape(tweetURL, models.ScrapeResult{
		Platform: "twitter",
		Results: []models.Classified{
			{Text: "bagus sekali", Sentiment: models.Positive, Confidence: 0.9},
			{Text: "buruk", Sentiment: models.Negative, Confidence: 0.7},
		},
		Stats: models.Stats{models.Positive: 1, models.Negative: 1},
		Total: 2,
	})
	api.SetScrape(youtubeURL, models.ScrapeResult{
		Platform: "youtube",
		Results: []models.Classified{
			{Text: "good video", Sentiment: models.Positive, Confidence: 0.8},
		},
		Stats: models.Stats{models.Positive: 1},
		Total: 1,
	})
}

func TestBulkScrape(t *testing.T) {
	ctx := context.Background()

	t.Run("AggregatesAndKeepsOrder", func(t *testing.T) {
		f := newFixture(t)
		seedScrapes(f.api)
		progress := make(chan ProgressUpdate, 32)

		res, err := f.engine.BulkScrape(ctx, progress, []string{tweetURL, " ", unknownURL, youtubeURL}, ScrapeOpts{RateLimit: 100})
		require.NoError(t, err)

		assert.Equal(t, 3, res.TotalURLs)
		assert.Equal(t, 2, res.Successful)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 2, res.Stats[models.Positive])
		assert.Equal(t, 1, res.Stats[models.Negative])
		assert.Empty(t, res.ManifestPath)

		require.Len(t, res.Results, 3)
		assert.Equal(t, tweetURL, res.Results[0].URL)
		assert.Equal(t, tweetURL, res.Results[0].Result.URL)
		assert.Equal(t, unknownURL, res.Results[1].URL)
		assert.Error(t, res.Results[1].Error)
		assert.Equal(t, youtubeURL, res.Results[2].URL)
		assert.Equal(t, 3, f.api.Hits(services.PathScrape))

		for _, u := range drain(progress) {
			assert.Equal(t, ScrapeURL, u.Phase)
		}
	})

	t.Run("WritesExportsAndManifest", func(t *testing.T) {
		f := newFixture(t)
		seedScrapes(f.api)
		dir := filepath.Join(t.TempDir(), "scrapes")

		res, err := f.engine.BulkScrape(ctx, nil, []string{tweetURL, unknownURL, youtubeURL}, ScrapeOpts{
			Format:     "markdown",
			OutputDir:  dir,
			NumWorkers: 2,
			RateLimit:  100,
		})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "manifest.json"), res.ManifestPath)
		tu.AssertFileExists(t, res.ManifestPath)

		assert.Equal(t, filepath.Join(dir, "01_x.com_someone_status_1.md"), res.Results[0].File)
		assert.Empty(t, res.Results[1].File)
		tu.AssertFileExists(t, res.Results[0].File)
		tu.AssertFileExists(t, res.Results[2].File)

		manifest := tu.MustReadFile(t, res.ManifestPath)
		assert.Contains(t, manifest, `"format": "markdown"`)
		assert.Contains(t, manifest, `"successful": 2`)
		assert.Contains(t, manifest, `"status": "failed"`)
		assert.Contains(t, manifest, "No comments found or invalid URL")
	})

	t.Run("NoURLs", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.BulkScrape(ctx, nil, []string{"", "  "}, ScrapeOpts{})
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
		assert.Zero(t, f.api.Total())
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		f := newFixture(t)
		dir := filepath.Join(t.TempDir(), "out")

		_, err := f.engine.BulkScrape(ctx, nil, []string{tweetURL}, ScrapeOpts{Format: "xml", OutputDir: dir})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		assert.Zero(t, f.api.Total())

		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("CancelledContext", func(t *testing.T) {
		f := newFixture(t)
		seedScrapes(f.api)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res, err := f.engine.BulkScrape(cctx, nil, []string{tweetURL, youtubeURL}, ScrapeOpts{})
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, res)
		assert.Equal(t, 2, res.Failed)
		assert.Zero(t, f.api.Hits(services.PathScrape))
	})
}
