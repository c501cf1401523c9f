package tasks

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/repositories"
	"github.com/desertthunder/senti/internal/services"
	"github.com/desertthunder/senti/internal/shared"
)

// Service is the part of the sentiment API the engine drives.
//
// Implemented by [services.SentimentService].
type Service interface {
	Classify(ctx context.Context, text string) (*models.ClassifyResult, error)
	History(ctx context.Context, page, perPage int) (*models.HistoryPage, error)
	BatchClassify(ctx context.Context, filename string, r io.Reader) (*models.BatchResult, error)
	UploadTrainData(ctx context.Context, filename string, r io.Reader) (string, error)
	TrainingStatus(ctx context.Context) (*models.TrainingStatus, error)
	Scrape(ctx context.Context, rawURL, platform string) (*models.ScrapeResult, error)
	Trend(ctx context.Context) (*models.Trend, error)
	WordCloud(ctx context.Context) ([]models.WordWeight, error)
	Feedback(ctx context.Context, id int, correction models.Label) (*models.HistoryEntry, error)
}

// SessionChecker reports whether a user is logged in.
type SessionChecker interface {
	IsAuthenticated(ctx context.Context) bool
}

// HistoryStore persists anonymous analyses.
//
// Implemented by [repositories.AnalysisRepository].
type HistoryStore interface {
	Create(ctx context.Context, scope string, a *models.Analysis) error
	List(ctx context.Context, scope string, limit int) ([]models.Analysis, error)
	Clear(ctx context.Context, scope string) (int64, error)
}

// ScopeStore hands out the anonymous history scope.
//
// Implemented by [repositories.MetadataRepository].
type ScopeStore interface {
	AnonymousScope(ctx context.Context) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

// EndpointResult records a failed fetch from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Error    error
}

// DashboardResult contains the logged-in user's statistics.
type DashboardResult struct {
	Trend  *models.Trend
	Words  []models.WordWeight
	Errors []EndpointResult // Failed endpoint fetches
}

// HistoryView is either a page of the server history or the local anonymous history.
type HistoryView struct {
	Remote  bool
	Page    *models.HistoryPage // nil for the local history
	Items   []models.Analysis
	Summary models.HistorySummary
}

type endpointOperation struct {
	path    string
	phase   Phase
	message string
	fetch   func(ctx context.Context) error
}

// Engine runs sentiment workflows against the API.
// Contains dependencies on the API service, the session and the optional local history.
type Engine struct {
	svc     Service
	session SessionChecker
	history HistoryStore
	scopes  ScopeStore
	logger  *log.Logger
}

// NewEngine creates an [Engine]. With a nil history or scopes, anonymous analyses are not kept.
func NewEngine(svc Service, session SessionChecker, history HistoryStore, scopes ScopeStore, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{svc: svc, session: session, history: history, scopes: scopes, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *Engine) keepsHistory() bool {
	return e.history != nil && e.scopes != nil
}

// Classify analyzes text. Blank text sends nothing and returns a nil result and nil error.
//
// When no one is logged in, the result is appended to the local history; failures to record it are only logged.
func (e *Engine) Classify(ctx context.Context, text string) (*models.ClassifyResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	res, err := e.svc.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	if !e.session.IsAuthenticated(ctx) {
		e.remember(ctx, text, res)
	}
	return res, nil
}

func (e *Engine) remember(ctx context.Context, text string, res *models.ClassifyResult) {
	if !e.keepsHistory() {
		return
	}

	scope, err := e.scopes.AnonymousScope(ctx)
	if err != nil {
		e.logger.Warn("failed to resolve anonymous scope", "error", err)
		return
	}

	a := &models.Analysis{Text: text, Sentiment: res.Sentiment, Confidence: res.Confidence}
	if err := e.history.Create(ctx, scope, a); err != nil {
		e.logger.Warn("failed to record analysis", "error", err)
		return
	}
	e.logger.Debug("recorded anonymous analysis", "id", a.ID, "sentiment", a.Sentiment)
}

// History returns the server history for the logged-in user, or the local anonymous history otherwise.
func (e *Engine) History(ctx context.Context, page, perPage int, progress chan<- ProgressUpdate) (*HistoryView, error) {
	e.sendProgress(progress, ProgressUpdate{Phase: FetchHistory, Step: 1, Total: 1, Message: "Fetching history..."})

	if e.session.IsAuthenticated(ctx) {
		p, err := e.svc.History(ctx, page, perPage)
		if err != nil {
			return nil, err
		}

		items := make([]models.Analysis, 0, len(p.History))
		for _, h := range p.History {
			items = append(items, h.Analysis())
		}
		return &HistoryView{Remote: true, Page: p, Items: items, Summary: models.Summarize(items)}, nil
	}

	view := &HistoryView{Items: []models.Analysis{}}
	if e.keepsHistory() {
		scope, err := e.scopes.AnonymousScope(ctx)
		if err != nil {
			return nil, err
		}
		items, err := e.history.List(ctx, scope, 0)
		if err != nil {
			return nil, err
		}
		view.Items = items
	}
	view.Summary = models.Summarize(view.Items)
	return view, nil
}

// DiscardAnonymous deletes the local history and rotates its scope, returning how many entries were removed.
func (e *Engine) DiscardAnonymous(ctx context.Context) (int64, error) {
	if !e.keepsHistory() {
		return 0, nil
	}

	scope, err := e.scopes.AnonymousScope(ctx)
	if err != nil {
		return 0, err
	}

	n, err := e.history.Clear(ctx, scope)
	if err != nil {
		return 0, err
	}

	if err := e.scopes.Delete(ctx, repositories.AnonymousScopeKey); err != nil {
		return n, err
	}
	e.logger.Debug("discarded anonymous history", "scope", scope, "removed", n)
	return n, nil
}

// Batch classifies every row of a CSV or text file.
func (e *Engine) Batch(ctx context.Context, filename string, r io.Reader, progress chan<- ProgressUpdate) (*models.BatchResult, error) {
	e.sendProgress(progress, ProgressUpdate{Phase: BatchClassify, Step: 1, Total: 1, Message: "Processing " + filename + "..."})
	return e.svc.BatchClassify(ctx, filename, r)
}

// Feedback submits a label correction for one of the user's analyses.
func (e *Engine) Feedback(ctx context.Context, id int, correction string) (*models.HistoryEntry, error) {
	return e.svc.Feedback(ctx, id, models.Label(correction))
}

// Dashboard fetches the trend and word cloud of the logged-in user.
//
// A failing endpoint is recorded in the result's Errors. A rejected token ends the fetch since the session is gone.
func (e *Engine) Dashboard(ctx context.Context, progress chan<- ProgressUpdate) (*DashboardResult, error) {
	if !e.session.IsAuthenticated(ctx) {
		return nil, shared.ErrNotAuthenticated
	}

	result := &DashboardResult{Errors: []EndpointResult{}}

	endpoints := []endpointOperation{
		{
			path: services.PathTrend, phase: FetchTrend, message: "Fetching sentiment trend...",
			fetch: func(ctx context.Context) error {
				t, err := e.svc.Trend(ctx)
				result.Trend = t
				return err
			},
		},
		{
			path: services.PathWordCloud, phase: FetchWordCloud, message: "Fetching word cloud...",
			fetch: func(ctx context.Context) error {
				w, err := e.svc.WordCloud(ctx)
				result.Words = w
				return err
			},
		},
	}

	for i, endpoint := range endpoints {
		e.sendProgress(progress, operationUpdate(endpoint, i+1, len(endpoints)))

		if err := endpoint.fetch(ctx); err != nil {
			e.logger.Warn("dashboard fetch failed", "path", endpoint.path, "error", err)
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoint.path, Error: err})
			if errors.Is(err, shared.ErrTokenExpired) {
				break
			}
		}
	}

	return result, nil
}
