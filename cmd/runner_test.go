package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/repositories"
	"github.com/desertthunder/senti/internal/services"
	"github.com/desertthunder/senti/internal/session"
	"github.com/desertthunder/senti/internal/shared"
	tu "github.com/desertthunder/senti/internal/testing"
)

type harness struct {
	api    *tu.FakeAPI
	db     *sql.DB
	output *bytes.Buffer
	runner *Runner
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()

	api := tu.NewFakeAPI(t)
	db, err := shared.OpenMigrated(shared.DatabaseConfig{Path: shared.InMemoryDatabase})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config := shared.DefaultConfig()
	config.API.BaseURL = api.URL()

	h := &harness{api: api, db: db, output: &bytes.Buffer{}}
	h.runner = NewRunner(RunnerOpts{
		Config:     config,
		DB:         db,
		HTTPClient: api.Server.Client(),
		Logger:     shared.NewLogger(io.Discard),
		Output:     h.output,
		Input:      strings.NewReader(input),
	})
	return h
}

func (h *harness) run(args ...string) error {
	return h.runner.app().Run(context.Background(), append([]string{"senti"}, args...))
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	h.output.Reset()
	if err := h.run(args...); err != nil {
		t.Fatalf("senti %s: unexpected error: %v", strings.Join(args, " "), err)
	}
	return h.output.String()
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.mustRun(t, "auth", "login", "--username", tu.FakeUsername, "--password", tu.FakePassword)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api == nil || runner.svc == nil || runner.session == nil || runner.engine == nil || runner.term == nil {
				t.Error("expected services to be wired")
			}
			if runner.api.BaseURL() != config.API.BaseURL {
				t.Errorf("expected api base URL %q, got %q", config.API.BaseURL, runner.api.BaseURL())
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses config timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{
				Config:     config,
				HTTPClient: nil,
			})

			if runner.httpClient == nil {
				t.Fatal("expected httpClient to be created")
			}
			if runner.httpClient.Timeout != config.API.Timeout {
				t.Errorf("expected timeout %v, got %v", config.API.Timeout, runner.httpClient.Timeout)
			}
		})

		t.Run("session persists across runners sharing a database", func(t *testing.T) {
			h := newHarness(t, "")
			h.login(t)

			other := NewRunner(RunnerOpts{
				Config:     h.runner.config,
				DB:         h.db,
				HTTPClient: h.api.Server.Client(),
				Logger:     shared.NewLogger(io.Discard),
				Output:     &bytes.Buffer{},
			})

			if !other.session.IsAuthenticated(context.Background()) {
				t.Error("expected second runner to see the stored session")
			}
		})

		t.Run("without database keeps session in memory", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			config := shared.DefaultConfig()
			config.API.BaseURL = api.URL()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				HTTPClient: api.Server.Client(),
				Logger:     shared.NewLogger(io.Discard),
				Output:     &bytes.Buffer{},
			})

			if err := runner.session.Login(context.Background(), tu.FakeUsername, tu.FakePassword); err != nil {
				t.Fatalf("login failed: %v", err)
			}
			if !runner.session.IsAuthenticated(context.Background()) {
				t.Error("expected in-memory session")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "classify", "batch", "scrape", "history", "feedback", "stats", "train", "api"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

func TestAuthCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("login with flags stores the session", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "auth", "login", "-u", tu.FakeUsername, "-p", tu.FakePassword)

		if !strings.Contains(out, tu.FakeUsername) {
			t.Errorf("expected username in output, got %q", out)
		}
		if !h.runner.session.IsAuthenticated(ctx) {
			t.Error("expected session after login")
		}
	})

	t.Run("login prompts for missing values", func(t *testing.T) {
		h := newHarness(t, tu.FakeUsername+"\n"+tu.FakePassword+"\n")
		out := h.mustRun(t, "auth", "login")

		if !strings.Contains(out, "Username: ") || !strings.Contains(out, "Password: ") {
			t.Errorf("expected prompts in output, got %q", out)
		}
		if !h.runner.session.IsAuthenticated(ctx) {
			t.Error("expected session after prompted login")
		}
	})

	t.Run("login without input fails", func(t *testing.T) {
		h := newHarness(t, "")
		err := h.run("auth", "login")

		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if h.api.Hits(services.PathLogin) != 0 {
			t.Error("expected no login request")
		}
	})

	t.Run("failed login keeps the previous state", func(t *testing.T) {
		h := newHarness(t, "")
		err := h.run("auth", "login", "-u", tu.FakeUsername, "-p", "wrong")

		if err == nil {
			t.Fatal("expected login to fail")
		}
		if !strings.Contains(err.Error(), "Invalid username or password") {
			t.Errorf("expected server message, got %v", err)
		}
		if h.runner.session.IsAuthenticated(ctx) {
			t.Error("expected no session after failed login")
		}
	})

	t.Run("login discards the local history", func(t *testing.T) {
		h := newHarness(t, "")
		h.mustRun(t, "classify", "produk bagus")

		meta := repositories.NewMetadataRepository(h.db)
		scope, err := meta.AnonymousScope(ctx)
		if err != nil {
			t.Fatalf("failed to read scope: %v", err)
		}
		items, _ := repositories.NewAnalysisRepository(h.db).List(ctx, scope, 0)
		if len(items) != 1 {
			t.Fatalf("expected one local analysis before login, got %d", len(items))
		}

		h.login(t)

		items, _ = repositories.NewAnalysisRepository(h.db).List(ctx, scope, 0)
		if len(items) != 0 {
			t.Errorf("expected local history discarded, got %d entries", len(items))
		}
	})

	t.Run("register does not log in", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "auth", "register", "-u", "bob", "-e", "bob@example.com", "-p", "pw")

		if !strings.Contains(out, "created") {
			t.Errorf("expected confirmation, got %q", out)
		}
		if h.runner.session.IsAuthenticated(ctx) {
			t.Error("register must not create a session")
		}
	})

	t.Run("register existing user fails", func(t *testing.T) {
		h := newHarness(t, "")
		err := h.run("auth", "register", "-u", tu.FakeUsername, "-e", "a@example.com", "-p", "pw")

		if err == nil || !strings.Contains(err.Error(), "Username already exists") {
			t.Errorf("expected duplicate username error, got %v", err)
		}
	})

	t.Run("logout", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		if out := h.mustRun(t, "auth", "logout"); !strings.Contains(out, "Logged out") {
			t.Errorf("expected logout confirmation, got %q", out)
		}
		if h.runner.session.IsAuthenticated(ctx) {
			t.Error("expected session cleared")
		}
		if out := h.mustRun(t, "auth", "logout"); !strings.Contains(out, "Not logged in") {
			t.Errorf("expected second logout to be a no-op, got %q", out)
		}
	})

	t.Run("whoami", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("auth", "whoami"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		h.login(t)
		out := h.mustRun(t, "auth", "whoami", "--refresh")
		if !strings.Contains(out, tu.FakeUsername) {
			t.Errorf("expected username, got %q", out)
		}
		if h.api.Hits(services.PathMe) != 1 {
			t.Errorf("expected one profile request, got %d", h.api.Hits(services.PathMe))
		}
	})

	t.Run("status", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "auth", "status")

		if !strings.Contains(out, "healthy") || !strings.Contains(out, "not logged in") {
			t.Errorf("unexpected status output %q", out)
		}
	})
}

func TestClassifyCommand(t *testing.T) {
	t.Run("prints the result", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "classify", "produk", "ini", "bagus")

		if !strings.Contains(out, string(models.Positive)) || !strings.Contains(out, "90%") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("json output", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "classify", "--json", "pelayanan buruk")

		if !strings.Contains(out, `"sentiment":"Negatif"`) {
			t.Errorf("expected compact JSON, got %q", out)
		}
	})

	t.Run("blank text sends nothing", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "classify", "   ")

		if out != "" {
			t.Errorf("expected no output, got %q", out)
		}
		if h.api.Total() != 0 {
			t.Errorf("expected no requests, got %d", h.api.Total())
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	t.Run("local history when logged out", func(t *testing.T) {
		h := newHarness(t, "")
		h.mustRun(t, "classify", "produk bagus")
		h.mustRun(t, "classify", "biasa saja")

		out := h.mustRun(t, "history", "list")
		if !strings.Contains(out, "this device") || !strings.Contains(out, "produk bagus") || !strings.Contains(out, "biasa saja") {
			t.Errorf("unexpected local history %q", out)
		}
		if h.api.Hits(services.PathHistory) != 0 {
			t.Error("expected no remote history request while logged out")
		}
	})

	t.Run("clear", func(t *testing.T) {
		h := newHarness(t, "")
		h.mustRun(t, "classify", "produk bagus")

		if out := h.mustRun(t, "history", "clear"); !strings.Contains(out, "Removed 1") {
			t.Errorf("expected one entry removed, got %q", out)
		}
		if out := h.mustRun(t, "history", "list"); !strings.Contains(out, "No analyses yet") {
			t.Errorf("expected empty history, got %q", out)
		}
	})

	t.Run("remote history when logged in", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		out := h.mustRun(t, "history", "list", "--page", "1", "--per-page", "5")
		if !strings.Contains(out, "pelayanan buruk") || !strings.Contains(out, "page 1 of 1") {
			t.Errorf("unexpected remote history %q", out)
		}
	})

	t.Run("invalid page", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("history", "list", "--page", "0"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("rejected token ends the session", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)
		h.api.RevokeToken()
		h.output.Reset()

		err := h.run("history", "list")
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
		if h.runner.session.IsAuthenticated(context.Background()) {
			t.Error("expected session cleared after 401")
		}
		if h.runner.term.Route() != session.LoginRoute {
			t.Errorf("expected navigation to %s, got %q", session.LoginRoute, h.runner.term.Route())
		}
		if !strings.Contains(h.output.String(), "Session expired") {
			t.Errorf("expected expiry notice, got %q", h.output.String())
		}
	})
}

func TestFeedbackCommand(t *testing.T) {
	t.Run("saves correction", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		out := h.mustRun(t, "feedback", "1", "Negatif")
		if !strings.Contains(out, "Feedback saved") {
			t.Errorf("expected confirmation, got %q", out)
		}
		if got := h.api.Feedback(1); got != models.Negative {
			t.Errorf("expected server to record Negatif, got %q", got)
		}
	})

	t.Run("invalid arguments", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		if err := h.run("feedback", "1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := h.run("feedback", "abc", "Negatif"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for id, got %v", err)
		}
		if err := h.run("feedback", "1", "Bagus"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for label, got %v", err)
		}
	})

	t.Run("requires login", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("feedback", "1", "Negatif"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if h.api.Total() != 0 {
			t.Errorf("expected no requests, got %d", h.api.Total())
		}
	})
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "reviews.csv")
	if err := os.WriteFile(input, []byte("text\nproduk bagus\npelayanan buruk\n"), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	t.Run("renders and exports", func(t *testing.T) {
		h := newHarness(t, "")
		output := filepath.Join(dir, "out.md")

		out := h.mustRun(t, "batch", "--output", output, "--format", "markdown", input)
		if !strings.Contains(out, "Results saved to "+output) {
			t.Errorf("expected save confirmation, got %q", out)
		}

		content := tu.MustReadFile(t, output)
		if !strings.Contains(content, "| # | Text | Sentiment | Confidence |") || !strings.Contains(content, "produk bagus") {
			t.Errorf("unexpected export %q", content)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("batch", filepath.Join(dir, "missing.csv")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := h.run("batch"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestScrapeCommand(t *testing.T) {
	t.Run("single URL", func(t *testing.T) {
		h := newHarness(t, "")
		h.api.SetScrape("https://x.com/a/status/1", models.ScrapeResult{
			Platform: "twitter",
			Results:  []models.Classified{{Text: "produk bagus", Sentiment: models.Positive, Confidence: 0.9}},
			Stats:    models.Stats{models.Positive: 1},
			Total:    1,
		})

		out := h.mustRun(t, "scrape", "https://x.com/a/status/1")
		if !strings.Contains(out, "produk bagus") {
			t.Errorf("expected scraped comment, got %q", out)
		}
	})

	t.Run("bulk writes manifest", func(t *testing.T) {
		h := newHarness(t, "")
		for _, u := range []string{"https://x.com/a/status/1", "https://x.com/b/status/2"} {
			h.api.SetScrape(u, models.ScrapeResult{
				Results: []models.Classified{{Text: "oke", Sentiment: models.Neutral, Confidence: 0.6}},
				Stats:   models.Stats{models.Neutral: 1},
				Total:   1,
			})
		}
		dir := t.TempDir()

		h.mustRun(t, "scrape", "--output-dir", dir, "--format", "json", "--workers", "2", "--rate", "100",
			"https://x.com/a/status/1", "https://x.com/b/status/2")

		tu.AssertFileExists(t, filepath.Join(dir, "manifest.json"))
		if h.api.Hits(services.PathScrape) != 2 {
			t.Errorf("expected two scrape requests, got %d", h.api.Hits(services.PathScrape))
		}
	})

	t.Run("every URL failing is an error", func(t *testing.T) {
		h := newHarness(t, "")
		err := h.run("scrape", "--rate", "100", "https://unknown.example/1", "https://unknown.example/2")

		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestStatsCommands(t *testing.T) {
	t.Run("dashboard requires login", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("stats"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		out := h.mustRun(t, "stats")
		if !strings.Contains(out, "2025-01-02") || !strings.Contains(out, "produk") {
			t.Errorf("unexpected dashboard %q", out)
		}
	})

	t.Run("trend json", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		out := h.mustRun(t, "stats", "trend", "--json")
		if !strings.Contains(out, `"2025-01-01"`) {
			t.Errorf("expected trend JSON, got %q", out)
		}
	})
}

func TestTrainCommands(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "train.csv")
	if err := os.WriteFile(input, []byte("text,label\nbagus,Positif\n"), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	t.Run("upload waits for training", func(t *testing.T) {
		h := newHarness(t, "")
		h.api.QueueTrainingStatus(
			models.TrainingStatus{IsTraining: true, Message: "Training in progress"},
			models.TrainingStatus{IsTraining: false, Message: "Training complete"},
		)

		out := h.mustRun(t, "train", "upload", "--interval", "1ms", input)
		if !strings.Contains(out, "Training started in background") || !strings.Contains(out, "Training complete") {
			t.Errorf("unexpected output %q", out)
		}
		if got := h.api.Hits(services.PathTrainingStatus); got != 2 {
			t.Errorf("expected two status checks, got %d", got)
		}
	})

	t.Run("watch gives up after max attempts", func(t *testing.T) {
		h := newHarness(t, "")
		h.api.QueueTrainingStatus(models.TrainingStatus{IsTraining: true, Message: "Training in progress"})

		err := h.run("train", "watch", "--interval", "1ms", "--max-attempts", "3")
		if !errors.Is(err, shared.ErrPollLimit) {
			t.Errorf("expected ErrPollLimit, got %v", err)
		}
		if got := h.api.Hits(services.PathTrainingStatus); got != 3 {
			t.Errorf("expected three status checks, got %d", got)
		}
	})

	t.Run("status", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "train", "status")

		if !strings.Contains(out, "idle") || !strings.Contains(out, "Idle") {
			t.Errorf("unexpected status %q", out)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "api", "get", services.PathHealth)

		if !strings.Contains(out, `"status": "healthy"`) {
			t.Errorf("expected pretty JSON, got %q", out)
		}
	})

	t.Run("get protected path uses the session", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("api", "get", services.PathTrend); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest without session, got %v", err)
		}

		h.login(t)
		if out := h.mustRun(t, "api", "get", "--json", services.PathTrend); !strings.Contains(out, `"dates":["2025-01-01","2025-01-02"]`) {
			t.Errorf("unexpected trend %q", out)
		}
	})

	t.Run("post validates body", func(t *testing.T) {
		h := newHarness(t, "")
		err := h.run("api", "post", "--data", "{not json", services.PathClassify)

		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("post", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "api", "post", "--data", `{"text_input":"produk bagus"}`, services.PathClassify)

		if !strings.Contains(out, `"sentiment": "Positif"`) {
			t.Errorf("unexpected response %q", out)
		}
	})

	t.Run("dump skips protected endpoints when logged out", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "api", "dump")

		if !strings.Contains(out, `"health"`) || strings.Contains(out, `"trend"`) {
			t.Errorf("unexpected dump %q", out)
		}
		if h.api.Hits(services.PathTrend) != 0 {
			t.Error("expected no protected requests")
		}
	})
}

func TestGlobalFlags(t *testing.T) {
	t.Run("api-url overrides config", func(t *testing.T) {
		h := newHarness(t, "")
		target := h.api.URL()
		h.runner.config.API.BaseURL = "http://127.0.0.1:1"
		h.runner.wire()

		out := h.mustRun(t, "--api-url", target, "auth", "status")
		if !strings.Contains(out, "healthy") {
			t.Errorf("expected status from overridden URL, got %q", out)
		}
	})
}

func TestEphemeralFlag(t *testing.T) {
	h := newHarness(t, "")
	h.mustRun(t, "--ephemeral", "auth", "login", "-u", tu.FakeUsername, "-p", tu.FakePassword)

	stored, err := session.NewSQLiteStore(h.db).Get(context.Background())
	if err != nil {
		t.Fatalf("failed to read store: %v", err)
	}
	if stored != nil {
		t.Errorf("expected nothing persisted with --ephemeral, got %+v", stored)
	}
}

func TestSetupDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(shared.EnvDatabasePath, filepath.Join(dir, "senti.db"))
	configPath := filepath.Join(dir, "config.toml")

	h := newHarness(t, "")
	out := h.mustRun(t, "setup", "database", "--config", configPath)

	tu.AssertFileExists(t, configPath)
	tu.AssertFileExists(t, filepath.Join(dir, "senti.db"))
	if !strings.Contains(out, "Database ready") {
		t.Errorf("expected confirmation, got %q", out)
	}

	out = h.mustRun(t, "setup", "database", "--config", configPath, "--rollback")
	if !strings.Contains(out, "Rolled back") {
		t.Errorf("expected rollback confirmation, got %q", out)
	}
}
