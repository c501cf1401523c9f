// package services defines the HTTP clients for the sentiment-analysis API
package services

import (
	"context"
	"net/http"
)

// API paths.
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathMe             = "/auth/me"
	PathClassify       = "/api/classify"
	PathHistory        = "/api/history"
	PathBatchClassify  = "/api/batch-classify"
	PathUploadTrain    = "/api/upload-train-data"
	PathTrainingStatus = "/api/training-status"
	PathScrape         = "/api/scrape"
	PathTrend          = "/api/stats/trend"
	PathWordCloud      = "/api/stats/wordcloud"
	PathFeedback       = "/api/feedback/"
	PathHealth         = "/api/health"
)

// Fallback messages used when the server rejects a request without saying why.
const (
	MsgLoginFailed    = "Login failed"
	MsgRegisterFailed = "Registration failed"
	MsgAnalysisFailed = "Analysis failed"
	MsgFileFailed     = "Failed to process file"
	MsgTrainingFailed = "Failed to start training"
	MsgFetchFailed    = "Failed to fetch data"
	MsgFeedbackFailed = "Failed to save feedback"
)

// Authenticator attaches the current session's credentials to requests.
//
// AuthenticatedRequest requires a session and invalidates it when the server rejects the token.
// Authorize adds the credential when one exists and never invalidates anything.
type Authenticator interface {
	AuthenticatedRequest(ctx context.Context, endpoint string, opts RequestOptions) (*APIResponse, error)
	Authorize(ctx context.Context, req *http.Request)
}

// Requester sends raw requests. Implemented by [APIService].
type Requester interface {
	Do(ctx context.Context, path string, opts RequestOptions) (*APIResponse, error)
}
