// package models defines the data model for the sentiment-analysis client
package models

import (
	"fmt"
	"strings"
	"time"
)

// Label is a sentiment class as reported by the server.
type Label string

const (
	Positive Label = "Positif"
	Negative Label = "Negatif"
	Neutral  Label = "Netral"
)

// Labels lists every sentiment class in display order.
var Labels = []Label{Positive, Negative, Neutral}

// ParseLabel matches s case-insensitively against the known labels.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("invalid label %q (expected one of Positif, Negatif, Netral)", s)
}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	_, err := ParseLabel(string(l))
	return err == nil
}

// User is the account profile returned by the auth endpoints.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session pairs the access token with the cached profile of its owner.
//
// User is only meaningful while Token is set.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// Valid reports whether the session carries a token.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// Aspect is the sentiment of one aspect-bearing segment of a text.
type Aspect struct {
	Aspect    string `json:"aspect"`
	Sentiment Label  `json:"sentiment"`
	Text      string `json:"text,omitempty"`
}

// ClassifyResult is the response of /api/classify.
type ClassifyResult struct {
	Status     string   `json:"status"`
	Message    string   `json:"message,omitempty"`
	Sentiment  Label    `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Aspects    []Aspect `json:"aspects"`
	TextLength int      `json:"text_length"`
	Timestamp  string   `json:"timestamp"`
}

// Analysis is one classified text.
//
// Remote entries carry the server's integer id in RemoteID; entries kept in the
// anonymous history are identified by ID.
type Analysis struct {
	ID         string    `json:"id,omitempty"`
	RemoteID   int       `json:"remote_id,omitempty"`
	Text       string    `json:"text"`
	Sentiment  Label     `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Correction Label     `json:"correction,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Effective returns the corrected label when feedback exists.
func (a Analysis) Effective() Label {
	if a.Correction != "" {
		return a.Correction
	}
	return a.Sentiment
}

// HistoryEntry mirrors one item of the server's history list.
type HistoryEntry struct {
	ID         int     `json:"id"`
	Text       string  `json:"text"`
	Sentiment  Label   `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Correction Label   `json:"correction,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// Analysis converts the entry into an [Analysis], leaving CreatedAt zero when the timestamp is unparsable.
func (h HistoryEntry) Analysis() Analysis {
	a := Analysis{
		RemoteID:   h.ID,
		Text:       h.Text,
		Sentiment:  h.Sentiment,
		Confidence: h.Confidence,
		Correction: h.Correction,
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, h.CreatedAt); err == nil {
			a.CreatedAt = t
			break
		}
	}
	return a
}

// HistoryPage is the response of /api/history.
type HistoryPage struct {
	Status      string         `json:"status"`
	History     []HistoryEntry `json:"history"`
	Total       int            `json:"total"`
	Pages       int            `json:"pages"`
	CurrentPage int            `json:"current_page"`
}

// Classified is one row of a batch or scrape result.
type Classified struct {
	Text        string  `json:"text"`
	Sentiment   Label   `json:"sentiment"`
	Confidence  float64 `json:"confidence"`
	OriginalRow *int    `json:"original_row,omitempty"`
}

// Stats counts results per label.
type Stats map[Label]int

// Add accumulates other into s.
func (s Stats) Add(other Stats) {
	for l, n := range other {
		s[l] += n
	}
}

// BatchResult is the response of /api/batch-classify.
type BatchResult struct {
	Status   string       `json:"status"`
	Results  []Classified `json:"results"`
	Stats    Stats        `json:"stats"`
	Total    int          `json:"total"`
	Filename string       `json:"filename"`
}

// ScrapeResult is the response of /api/scrape.
//
// URL is filled in by the client.
type ScrapeResult struct {
	Status   string       `json:"status"`
	URL      string       `json:"url,omitempty"`
	Platform string       `json:"platform"`
	Results  []Classified `json:"results"`
	Stats    Stats        `json:"stats"`
	Total    int          `json:"total"`
}

// TrainingStatus is the response of /api/training-status.
type TrainingStatus struct {
	IsTraining bool   `json:"is_training"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// Trend holds daily per-label counts aligned with Dates.
type Trend struct {
	Dates    []string `json:"dates"`
	Positive []int    `json:"positive"`
	Negative []int    `json:"negative"`
	Neutral  []int    `json:"neutral"`
}

// WordWeight is one word cloud entry.
type WordWeight struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// Health is the response of /api/health.
type Health struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	ModelLoaded bool   `json:"model_loaded"`
}
