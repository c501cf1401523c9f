// package formatter provides functions to export classified texts to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/shared"
)

// Supported export formats.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Report is a titled list of classified texts.
type Report struct {
	Title    string              `json:"title"`
	Source   string              `json:"source,omitempty"`
	Platform string              `json:"platform,omitempty"`
	Results  []models.Classified `json:"results"`
	Stats    models.Stats        `json:"stats"`
	Total    int                 `json:"total"`
}

// FromBatch builds a [Report] from a batch classification.
func FromBatch(r *models.BatchResult) *Report {
	return &Report{
		Title:   "Batch analysis",
		Source:  r.Filename,
		Results: r.Results,
		Stats:   r.Stats,
		Total:   r.Total,
	}
}

// FromScrape builds a [Report] from a scrape.
func FromScrape(r *models.ScrapeResult) *Report {
	return &Report{
		Title:    "Social media analysis",
		Source:   r.URL,
		Platform: r.Platform,
		Results:  r.Results,
		Stats:    r.Stats,
		Total:    r.Total,
	}
}

// Confidence renders a 0-1 score as a rounded percentage.
func Confidence(c float64) string {
	return strconv.Itoa(int(c*100+0.5)) + "%"
}

// ExportToCSV converts a Report to CSV format with columns: Text, Sentiment, Confidence
func ExportToCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Text", "Sentiment", "Confidence"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range report.Results {
		record := []string{
			r.Text,
			string(r.Sentiment),
			strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Report to Markdown with a per-label summary and a results table
func ExportToMarkdown(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", report.Title))

	if report.Source != "" {
		buf.WriteString(fmt.Sprintf("**Source**: %s\n\n", report.Source))
	}
	if report.Platform != "" {
		buf.WriteString(fmt.Sprintf("**Platform**: %s\n\n", report.Platform))
	}

	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", report.Total))

	buf.WriteString("| Sentiment | Count |\n|---|---|\n")
	for _, l := range models.Labels {
		buf.WriteString(fmt.Sprintf("| %s | %d |\n", l, report.Stats[l]))
	}

	buf.WriteString("\n## Results\n\n")
	buf.WriteString("| # | Text | Sentiment | Confidence |\n|---|---|---|---|\n")
	for i, r := range report.Results {
		text := strings.ReplaceAll(shared.NormalizeText(r.Text), "|", `\|`)
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", i+1, text, r.Sentiment, Confidence(r.Confidence)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Report to plain text format
func ExportToText(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", report.Title))
	if report.Source != "" {
		buf.WriteString(fmt.Sprintf("Source: %s\n", report.Source))
	}
	buf.WriteString(fmt.Sprintf("Total: %d", report.Total))
	for _, l := range models.Labels {
		buf.WriteString(fmt.Sprintf("  %s: %d", l, report.Stats[l]))
	}
	buf.WriteString("\n\n")

	for i, r := range report.Results {
		buf.WriteString(fmt.Sprintf("%d. [%s %s] %s\n", i+1, r.Sentiment, Confidence(r.Confidence), shared.NormalizeText(r.Text)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Report to indented JSON
func ExportToJSON(report *Report) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// Export renders report in the given format.
func Export(report *Report, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(report)
	case FormatMarkdown, "md":
		return ExportToMarkdown(report)
	case FormatText, "text":
		return ExportToText(report)
	case FormatJSON:
		return ExportToJSON(report)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown, "md":
		return ".md"
	case FormatText, "text":
		return ".txt"
	case FormatJSON:
		return ".json"
	default:
		return ".csv"
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug turns s into a file-name friendly string.
func Slug(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	s = strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		s = "report"
	}
	return s
}

// WriteExport writes report to path in the given format.
//
// An empty path defaults to sentiment_{slug of source}{ext} in the working directory.
func WriteExport(report *Report, format, path string) (string, error) {
	if path == "" {
		path = "sentiment_" + Slug(report.Source) + Extension(format)
	}

	data, err := Export(report, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// ManifestEntry describes the outcome for one scraped URL.
type ManifestEntry struct {
	URL    string `json:"url"`
	Status string `json:"status"`
	Total  int    `json:"total,omitempty"`
	File   string `json:"file,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Manifest summarizes a bulk scrape written to disk.
type Manifest struct {
	Format     string          `json:"format"`
	Total      int             `json:"total_urls"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Stats      models.Stats    `json:"stats"`
	Entries    []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
