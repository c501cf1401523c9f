package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/shared"
	tu "github.com/desertthunder/senti/internal/testing"
)

// staticAuth attaches a fixed bearer token.
type staticAuth struct {
	api   *APIService
	token string
}

func (a *staticAuth) AuthenticatedRequest(ctx context.Context, endpoint string, opts RequestOptions) (*APIResponse, error) {
	if a.token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	opts = opts.Clone()
	opts.Decorate = func(r *http.Request) { a.Authorize(ctx, r) }
	resp, err := a.api.Do(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		a.token = ""
		return nil, shared.ErrTokenExpired
	}
	return resp, nil
}

func (a *staticAuth) Authorize(_ context.Context, r *http.Request) {
	if a.token != "" {
		r.Header.Set("Authorization", "Bearer "+a.token)
	}
}

func newTestService(t *testing.T, token string) (*SentimentService, *tu.FakeAPI) {
	t.Helper()
	fake := tu.NewFakeAPI(t)
	api := NewAPIService(fake.URL(), nil)
	return NewSentimentService(api, &staticAuth{api: api, token: token}, nil), fake
}

func TestSentimentService(t *testing.T) {
	ctx := context.Background()

	t.Run("Classify", func(t *testing.T) {
		t.Run("Anonymous", func(t *testing.T) {
			svc, fake := newTestService(t, "")

			result, err := svc.Classify(ctx, "produk bagus sekali")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Sentiment != models.Positive {
				t.Errorf("expected Positif, got %s", result.Sentiment)
			}
			if len(result.Aspects) != 1 || result.Aspects[0].Aspect != "harga" {
				t.Errorf("expected one aspect, got %+v", result.Aspects)
			}
			if fake.Hits(PathClassify) != 1 {
				t.Errorf("expected 1 classify call, got %d", fake.Hits(PathClassify))
			}
		})

		t.Run("Server Message Is Surfaced", func(t *testing.T) {
			svc, _ := newTestService(t, "")

			_, err := svc.Classify(ctx, "   ")
			if err == nil || err.Error() != "Text input cannot be empty" {
				t.Errorf("expected server message, got %v", err)
			}
		})

		t.Run("Fallback Message", func(t *testing.T) {
			fake := tu.NewFakeAPI(t)
			svc := NewSentimentService(NewAPIService(fake.URL(), nil), nil, nil)

			fake.FailWith(PathClassify, http.StatusInternalServerError)
			_, err := svc.Classify(ctx, "x")

			var se *shared.ServerError
			if !errors.As(err, &se) {
				t.Fatalf("expected ServerError, got %v", err)
			}
			if se.Status != http.StatusInternalServerError {
				t.Errorf("expected status 500, got %d", se.Status)
			}
		})
	})

	t.Run("History", func(t *testing.T) {
		t.Run("Requires Session", func(t *testing.T) {
			svc, fake := newTestService(t, "")

			if _, err := svc.History(ctx, 1, 10); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if fake.Total() != 0 {
				t.Errorf("expected no requests, got %d", fake.Total())
			}
		})

		t.Run("With Session", func(t *testing.T) {
			svc, _ := newTestService(t, tu.FakeToken)

			page, err := svc.History(ctx, 3, 5)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if page.CurrentPage != 3 {
				t.Errorf("expected page 3, got %d", page.CurrentPage)
			}
			if len(page.History) != 2 {
				t.Errorf("expected 2 entries, got %d", len(page.History))
			}
		})

		t.Run("Rejected Token", func(t *testing.T) {
			svc, fake := newTestService(t, "stale")

			if _, err := svc.History(ctx, 0, 0); !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if fake.Hits(PathHistory) != 1 {
				t.Errorf("expected one history call, got %d", fake.Hits(PathHistory))
			}
		})
	})

	t.Run("BatchClassify", func(t *testing.T) {
		svc, _ := newTestService(t, "")

		csv := "text\nproduk bagus\npelayanan buruk\nbiasa saja\n"
		result, err := svc.BatchClassify(ctx, "reviews.csv", strings.NewReader(csv))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Total != 3 || result.Filename != "reviews.csv" {
			t.Errorf("unexpected result: total=%d filename=%s", result.Total, result.Filename)
		}
		if result.Stats[models.Positive] != 1 || result.Stats[models.Negative] != 1 || result.Stats[models.Neutral] != 1 {
			t.Errorf("unexpected stats: %+v", result.Stats)
		}
	})

	t.Run("UploadTrainData", func(t *testing.T) {
		svc, fake := newTestService(t, "")

		msg, err := svc.UploadTrainData(ctx, "train.csv", strings.NewReader("text,label\na,Positif\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if msg != "Training started in background" {
			t.Errorf("unexpected message %q", msg)
		}

		fake.FailWith(PathUploadTrain, http.StatusForbidden)
		if _, err := svc.UploadTrainData(ctx, "train.csv", strings.NewReader("x")); !shared.IsServerError(err) {
			t.Errorf("expected server error, got %v", err)
		}
	})

	t.Run("TrainingStatus", func(t *testing.T) {
		svc, fake := newTestService(t, "")
		fake.QueueTrainingStatus(models.TrainingStatus{IsTraining: true, Message: "Training..."})

		status, err := svc.TrainingStatus(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !status.IsTraining || status.Message != "Training..." {
			t.Errorf("unexpected status: %+v", status)
		}
	})

	t.Run("Scrape", func(t *testing.T) {
		svc, fake := newTestService(t, "")
		fake.SetScrape("https://youtube.com/watch?v=1", models.ScrapeResult{
			Platform: "youtube",
			Results:  []models.Classified{{Text: "bagus", Sentiment: models.Positive, Confidence: 0.9}},
			Stats:    models.Stats{models.Positive: 1},
			Total:    1,
		})

		result, err := svc.Scrape(ctx, "https://youtube.com/watch?v=1", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Platform != "youtube" || result.URL != "https://youtube.com/watch?v=1" {
			t.Errorf("unexpected result: %+v", result)
		}

		if _, err := svc.Scrape(ctx, "https://unknown.example", ""); err == nil || err.Error() != "No comments found or invalid URL" {
			t.Errorf("expected server message, got %v", err)
		}
	})

	t.Run("Dashboard Data", func(t *testing.T) {
		svc, _ := newTestService(t, tu.FakeToken)

		trend, err := svc.Trend(ctx)
		if err != nil {
			t.Fatalf("trend: expected no error, got %v", err)
		}
		if len(trend.Dates) != 2 || len(trend.Positive) != 2 {
			t.Errorf("unexpected trend: %+v", trend)
		}

		words, err := svc.WordCloud(ctx)
		if err != nil {
			t.Fatalf("wordcloud: expected no error, got %v", err)
		}
		if len(words) != 2 || words[0].Text != "produk" {
			t.Errorf("unexpected words: %+v", words)
		}
	})

	t.Run("Feedback", func(t *testing.T) {
		t.Run("Valid Correction", func(t *testing.T) {
			svc, fake := newTestService(t, tu.FakeToken)

			entry, err := svc.Feedback(ctx, 1, models.Negative)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if entry == nil || entry.Correction != models.Negative {
				t.Errorf("unexpected entry: %+v", entry)
			}
			if fake.Feedback(1) != models.Negative {
				t.Errorf("server did not record correction")
			}
		})

		t.Run("Invalid Label Sends Nothing", func(t *testing.T) {
			svc, fake := newTestService(t, tu.FakeToken)

			if _, err := svc.Feedback(ctx, 1, "Mixed"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if fake.Total() != 0 {
				t.Errorf("expected no requests, got %d", fake.Total())
			}
		})

		t.Run("Unknown Analysis", func(t *testing.T) {
			svc, _ := newTestService(t, tu.FakeToken)

			if _, err := svc.Feedback(ctx, 99, models.Neutral); err == nil || err.Error() != "Analysis not found" {
				t.Errorf("expected server message, got %v", err)
			}
		})
	})

	t.Run("Health And Me", func(t *testing.T) {
		svc, _ := newTestService(t, tu.FakeToken)

		health, err := svc.Health(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !health.ModelLoaded {
			t.Error("expected model to be loaded")
		}

		user, err := svc.Me(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.Username != tu.FakeUsername {
			t.Errorf("expected %s, got %s", tu.FakeUsername, user.Username)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		svc := NewSentimentService(NewAPIService("http://example.com", client), nil, nil)

		if _, err := svc.Health(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
