package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/shared"
)

// SentimentService calls the analysis endpoints of the server.
type SentimentService struct {
	api    Requester
	auth   Authenticator
	logger *log.Logger
}

// NewSentimentService creates a [SentimentService]. auth may be nil, in which case every call is anonymous
// and endpoints that require a session fail with [shared.ErrNotAuthenticated].
func NewSentimentService(api Requester, auth Authenticator, logger *log.Logger) *SentimentService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SentimentService{api: api, auth: auth, logger: logger}
}

// optional sends opts with the session credential attached when one exists.
func (s *SentimentService) optional(ctx context.Context, path string, opts RequestOptions) (*APIResponse, error) {
	if s.auth != nil {
		opts.Decorate = func(r *http.Request) { s.auth.Authorize(ctx, r) }
	}
	return s.api.Do(ctx, path, opts)
}

// required sends opts through the [Authenticator].
func (s *SentimentService) required(ctx context.Context, path string, opts RequestOptions) (*APIResponse, error) {
	if s.auth == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.auth.AuthenticatedRequest(ctx, path, opts)
}

// decode checks resp and unmarshals it into v, turning a rejection into a server error with fallback.
func (s *SentimentService) decode(resp *APIResponse, fallback string, v any) error {
	if !resp.OK() || resp.Status() == "error" {
		err := resp.Failure(fallback)
		s.logger.Debug("server rejected request", "status", resp.StatusCode, "error", err)
		return err
	}
	if v == nil {
		return nil
	}
	return resp.Decode(v)
}

// Classify analyzes a single text. The text is sent as given.
func (s *SentimentService) Classify(ctx context.Context, text string) (*models.ClassifyResult, error) {
	data, err := json.Marshal(map[string]string{"text_input": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.optional(ctx, PathClassify, JSONOptions(http.MethodPost, data))
	if err != nil {
		return nil, err
	}

	var result models.ClassifyResult
	if err := s.decode(resp, MsgAnalysisFailed, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches one page of the logged-in user's analyses. Non-positive page values use the server defaults.
func (s *SentimentService) History(ctx context.Context, page, perPage int) (*models.HistoryPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}

	path := PathHistory
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	resp, err := s.required(ctx, path, RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var result models.HistoryPage
	if err := s.decode(resp, MsgFetchFailed, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchClassify uploads a CSV or Excel file and returns the per-row results.
func (s *SentimentService) BatchClassify(ctx context.Context, filename string, r io.Reader) (*models.BatchResult, error) {
	opts, err := MultipartOptions("file", filename, r)
	if err != nil {
		return nil, err
	}

	resp, err := s.optional(ctx, PathBatchClassify, opts)
	if err != nil {
		return nil, err
	}

	var result models.BatchResult
	if err := s.decode(resp, MsgFileFailed, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadTrainData uploads a labelled CSV and starts a training job, returning the server's message.
func (s *SentimentService) UploadTrainData(ctx context.Context, filename string, r io.Reader) (string, error) {
	opts, err := MultipartOptions("file", filename, r)
	if err != nil {
		return "", err
	}

	resp, err := s.optional(ctx, PathUploadTrain, opts)
	if err != nil {
		return "", err
	}

	if err := s.decode(resp, MsgTrainingFailed, nil); err != nil {
		return "", err
	}
	return resp.Message(), nil
}

// TrainingStatus reads the state of the server's training slot.
func (s *SentimentService) TrainingStatus(ctx context.Context) (*models.TrainingStatus, error) {
	resp, err := s.api.Do(ctx, PathTrainingStatus, RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var result models.TrainingStatus
	if err := s.decode(resp, MsgFetchFailed, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Scrape asks the server to collect and classify comments from a social media URL.
// An empty platform lets the server detect it.
func (s *SentimentService) Scrape(ctx context.Context, rawURL, platform string) (*models.ScrapeResult, error) {
	payload := map[string]string{"url": rawURL}
	if platform = strings.TrimSpace(platform); platform != "" {
		payload["platform"] = platform
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.api.Do(ctx, PathScrape, JSONOptions(http.MethodPost, data))
	if err != nil {
		return nil, err
	}

	var result models.ScrapeResult
	if err := s.decode(resp, MsgFetchFailed, &result); err != nil {
		return nil, err
	}
	result.URL = rawURL
	return &result, nil
}

// Trend fetches the daily per-label counts for the logged-in user.
func (s *SentimentService) Trend(ctx context.Context) (*models.Trend, error) {
	resp, err := s.required(ctx, PathTrend, RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var result models.Trend
	if err := s.decode(resp, MsgFetchFailed, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WordCloud fetches weighted words from the logged-in user's history.
func (s *SentimentService) WordCloud(ctx context.Context) ([]models.WordWeight, error) {
	resp, err := s.required(ctx, PathWordCloud, RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var result []models.WordWeight
	if err := s.decode(resp, MsgFetchFailed, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Feedback records a label correction for one of the user's analyses.
func (s *SentimentService) Feedback(ctx context.Context, id int, correction models.Label) (*models.HistoryEntry, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: analysis id must be positive", shared.ErrInvalidArgument)
	}
	label, err := models.ParseLabel(string(correction))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	data, err := json.Marshal(map[string]string{"correction": string(label)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.required(ctx, PathFeedback+strconv.Itoa(id), JSONOptions(http.MethodPost, data))
	if err != nil {
		return nil, err
	}

	var result struct {
		Analysis *models.HistoryEntry `json:"analysis"`
	}
	if err := s.decode(resp, MsgFeedbackFailed, &result); err != nil {
		return nil, err
	}
	return result.Analysis, nil
}

// Health reports whether the server is up and its model loaded.
func (s *SentimentService) Health(ctx context.Context) (*models.Health, error) {
	resp, err := s.api.Do(ctx, PathHealth, RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var result models.Health
	if err := s.decode(resp, MsgFetchFailed, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me fetches the logged-in user's profile from the server.
func (s *SentimentService) Me(ctx context.Context) (*models.User, error) {
	resp, err := s.required(ctx, PathMe, RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var result struct {
		User *models.User `json:"user"`
	}
	if err := s.decode(resp, MsgFetchFailed, &result); err != nil {
		return nil, err
	}
	if result.User == nil {
		return nil, fmt.Errorf("%w: response has no user", shared.ErrDecodeResponse)
	}
	return result.User, nil
}
