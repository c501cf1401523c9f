package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/senti/internal/jobs"
	"github.com/desertthunder/senti/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, zero when unbounded
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ClassifyText Phase = iota
	FetchHistory
	BatchClassify
	UploadFile
	PollTraining
	TrainingDone
	ScrapeURL
	WriteExport
	FetchTrend
	FetchWordCloud
)

func (p Phase) String() string {
	switch p {
	case ClassifyText:
		return "classify_text"
	case FetchHistory:
		return "fetch_history"
	case BatchClassify:
		return "batch_classify"
	case UploadFile:
		return "upload_file"
	case PollTraining:
		return "poll_training"
	case TrainingDone:
		return "training_done"
	case ScrapeURL:
		return "scrape_url"
	case WriteExport:
		return "write_export"
	case FetchTrend:
		return "fetch_trend"
	case FetchWordCloud:
		return "fetch_wordcloud"
	default:
		return ""
	}
}

func uploadUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Uploading %s...", name),
	}
}

func attemptUpdate(a jobs.Attempt, max int) ProgressUpdate {
	msg := a.Status.Message
	if a.Err != nil {
		msg = a.Err.Error()
	} else if msg == "" {
		msg = "Training in progress..."
	}
	return ProgressUpdate{
		Phase:   PollTraining,
		Step:    a.N,
		Total:   max,
		Message: fmt.Sprintf("[%d] %s (%s)", a.N, msg, a.Elapsed.Truncate(time.Second)),
		Data:    a,
	}
}

func trainingDoneUpdate(res jobs.Result) ProgressUpdate {
	msg := res.Message
	if res.Err != nil {
		msg = fmt.Sprintf("✗ %v", res.Err)
	} else if msg == "" {
		msg = "✓ Training finished"
	}
	return ProgressUpdate{
		Phase:   TrainingDone,
		Step:    res.Attempts,
		Total:   res.Attempts,
		Message: msg,
		Data:    res,
	}
}

func scrapingUpdate(step, total int, url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScrapeURL,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Scraping: %s...", step, total, url),
	}
}

func scrapeCompletedUpdate(step, total int, res *models.ScrapeResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScrapeURL,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d comments)", step, total, res.URL, res.Total),
		Data:    res,
	}
}

func scrapeFailedUpdate(step, total int, url string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScrapeURL,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, url, err),
	}
}

func exportWrittenUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %s", path),
	}
}

func operationUpdate(op endpointOperation, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   op.phase,
		Step:    step,
		Total:   total,
		Message: op.message,
	}
}
