package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/senti/internal/formatter"
	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/shared"
	"github.com/desertthunder/senti/internal/tasks"
)

// Views understood by [Terminal.Render].
const (
	ViewResult    = "result"
	ViewHistory   = "history"
	ViewBatch     = "batch"
	ViewScrape    = "scrape"
	ViewBulk      = "bulk"
	ViewTrend     = "trend"
	ViewWordCloud = "wordcloud"
	ViewDashboard = "dashboard"
	ViewFeedback  = "feedback"
	ViewLogin     = "login"
	ViewHealth    = "health"
	ViewTraining  = "training"
)

// Renderer displays data for a named view.
type Renderer interface {
	Render(view string, data any) error
}

// Terminal renders views as styled text and reports navigation requests.
//
// It implements [Renderer] and session.Navigator.
type Terminal struct {
	w      io.Writer
	logger *log.Logger

	mu    sync.Mutex
	route string
}

// NewTerminal creates a [Terminal] writing to w, which defaults to [os.Stdout].
func NewTerminal(w io.Writer, logger *log.Logger) *Terminal {
	if w == nil {
		w = os.Stdout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Terminal{w: w, logger: logger}
}

// Navigate records route. Being sent to the login route means the session ended.
func (t *Terminal) Navigate(route string) {
	t.mu.Lock()
	t.route = route
	t.mu.Unlock()

	t.logger.Debug("navigate", "route", route)
	if route == "/login" {
		fmt.Fprintln(t.w, styles.warn.Render("Session expired. Log in again with: senti auth login"))
	}
}

// Route returns the last route passed to Navigate.
func (t *Terminal) Route() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.route
}

// Render writes data formatted for view.
func (t *Terminal) Render(view string, data any) error {
	out, err := Format(view, data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(t.w, out)
	return err
}

// Format returns the text [Terminal.Render] would write.
func Format(view string, data any) (string, error) {
	var out string
	ok := true

	switch view {
	case ViewResult:
		var r *models.ClassifyResult
		if r, ok = data.(*models.ClassifyResult); ok {
			out = formatResult(r)
		}
	case ViewHistory:
		var v *tasks.HistoryView
		if v, ok = data.(*tasks.HistoryView); ok {
			out = formatHistory(v)
		}
	case ViewBatch, ViewScrape:
		var r *formatter.Report
		if r, ok = data.(*formatter.Report); ok {
			out = formatReport(r)
		}
	case ViewBulk:
		var r *tasks.BulkScrapeResult
		if r, ok = data.(*tasks.BulkScrapeResult); ok {
			out = formatBulk(r)
		}
	case ViewTrend:
		var r *models.Trend
		if r, ok = data.(*models.Trend); ok {
			out = formatTrend(r)
		}
	case ViewWordCloud:
		var w []models.WordWeight
		if w, ok = data.([]models.WordWeight); ok {
			out = formatWordCloud(w)
		}
	case ViewDashboard:
		var r *tasks.DashboardResult
		if r, ok = data.(*tasks.DashboardResult); ok {
			out = formatDashboard(r)
		}
	case ViewFeedback:
		var e *models.HistoryEntry
		if e, ok = data.(*models.HistoryEntry); ok {
			out = formatFeedback(e)
		}
	case ViewLogin:
		var u *models.User
		if u, ok = data.(*models.User); ok {
			out = formatUser(u)
		}
	case ViewHealth:
		var h *models.Health
		if h, ok = data.(*models.Health); ok {
			out = formatHealth(h)
		}
	case ViewTraining:
		var r *tasks.TrainResult
		if r, ok = data.(*tasks.TrainResult); ok {
			out = formatTraining(r)
		}
	default:
		return "", fmt.Errorf("%w: unknown view %q", shared.ErrInvalidArgument, view)
	}

	if !ok {
		return "", fmt.Errorf("%w: view %q cannot render %T", shared.ErrInvalidArgument, view, data)
	}
	return out, nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.help).
		Headers(headers...)
}

func truncate(s string, n int) string {
	s = shared.NormalizeText(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatResult(r *models.ClassifyResult) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Analysis"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Sentiment:  %s\n", styles.Label(r.Sentiment))
	fmt.Fprintf(&b, "Confidence: %s\n", formatter.Confidence(r.Confidence))
	if r.TextLength > 0 {
		fmt.Fprintf(&b, "Length:     %d characters\n", r.TextLength)
	}

	if len(r.Aspects) > 0 {
		t := newTable("Aspect", "Sentiment", "Text")
		for _, a := range r.Aspects {
			t.Row(a.Aspect, string(a.Sentiment), truncate(a.Text, 60))
		}
		b.WriteString("\n")
		b.WriteString(t.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSummary(s models.HistorySummary) string {
	parts := make([]string, 0, len(models.Labels))
	for _, l := range models.Labels {
		parts = append(parts, fmt.Sprintf("%s %d (%d%%)", styles.Label(l), s.Counts[l], s.Percent[l]))
	}
	return fmt.Sprintf("Total %d  •  %s", s.Total, strings.Join(parts, "  •  "))
}

func formatHistory(v *tasks.HistoryView) string {
	var b strings.Builder

	title := "History (this device)"
	if v.Remote {
		title = "History"
		if v.Page != nil && v.Page.Pages > 0 {
			title = fmt.Sprintf("History (page %d of %d, %d total)", v.Page.CurrentPage, v.Page.Pages, v.Page.Total)
		}
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	if len(v.Items) == 0 {
		b.WriteString(styles.help.Render("No analyses yet."))
		return b.String()
	}

	t := newTable("#", "Text", "Sentiment", "Confidence", "Date")
	for i, a := range v.Items {
		id := strconv.Itoa(i + 1)
		if a.RemoteID > 0 {
			id = strconv.Itoa(a.RemoteID)
		}
		label := string(a.Sentiment)
		if a.Correction != "" && a.Correction != a.Sentiment {
			label = fmt.Sprintf("%s → %s", a.Sentiment, a.Correction)
		}
		date := ""
		if !a.CreatedAt.IsZero() {
			date = a.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		t.Row(id, truncate(a.Text, 50), label, formatter.Confidence(a.Confidence), date)
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(formatSummary(v.Summary))
	return b.String()
}

func formatReport(r *formatter.Report) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(r.Title))
	b.WriteString("\n")
	if r.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", r.Source)
	}
	if r.Platform != "" {
		fmt.Fprintf(&b, "Platform: %s\n", r.Platform)
	}

	t := newTable("#", "Text", "Sentiment", "Confidence")
	for i, c := range r.Results {
		t.Row(strconv.Itoa(i+1), truncate(c.Text, 60), string(c.Sentiment), formatter.Confidence(c.Confidence))
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(formatStats(r.Total, r.Stats))
	return b.String()
}

func formatStats(total int, stats models.Stats) string {
	parts := make([]string, 0, len(models.Labels))
	for _, l := range models.Labels {
		parts = append(parts, fmt.Sprintf("%s %d", styles.Label(l), stats[l]))
	}
	return fmt.Sprintf("Total %d  •  %s", total, strings.Join(parts, "  •  "))
}

func formatBulk(r *tasks.BulkScrapeResult) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Scraped %d of %d URLs", r.Successful, r.TotalURLs)))
	b.WriteString("\n")

	for _, res := range r.Results {
		if res.Error != nil {
			fmt.Fprintf(&b, "%s %s: %v\n", styles.err.Render("✗"), res.URL, res.Error)
			continue
		}
		line := fmt.Sprintf("%s %s (%d comments, %s)", styles.ok.Render("✓"), res.URL, res.Result.Total, res.Result.Platform)
		if res.File != "" {
			line += " → " + res.File
		}
		b.WriteString(line + "\n")
	}

	total := 0
	for _, n := range r.Stats {
		total += n
	}
	b.WriteString(formatStats(total, r.Stats))
	if r.ManifestPath != "" {
		fmt.Fprintf(&b, "\nManifest: %s", r.ManifestPath)
	}
	return b.String()
}

func formatTrend(r *models.Trend) string {
	if len(r.Dates) == 0 {
		return styles.help.Render("No trend data yet.")
	}

	at := func(s []int, i int) string {
		if i < len(s) {
			return strconv.Itoa(s[i])
		}
		return "0"
	}

	t := newTable("Date", string(models.Positive), string(models.Negative), string(models.Neutral))
	for i, d := range r.Dates {
		t.Row(d, at(r.Positive, i), at(r.Negative, i), at(r.Neutral, i))
	}
	return styles.title.Render("Sentiment trend") + "\n" + t.String()
}

func formatWordCloud(words []models.WordWeight) string {
	if len(words) == 0 {
		return styles.help.Render("No words yet.")
	}

	sorted := make([]models.WordWeight, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	if len(sorted) > 20 {
		sorted = sorted[:20]
	}

	width := 0
	for _, w := range sorted {
		width = max(width, len([]rune(w.Text)))
	}

	top := sorted[0].Weight
	var b strings.Builder
	b.WriteString(styles.title.Render("Top words"))
	b.WriteString("\n")
	for _, w := range sorted {
		bar := 1
		if top > 0 {
			bar = max(1, int(w.Weight/top*30+0.5))
		}
		fmt.Fprintf(&b, "%-*s %s %g\n", width, w.Text, styles.ok.Render(strings.Repeat("█", bar)), w.Weight)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDashboard(r *tasks.DashboardResult) string {
	var parts []string
	if r.Trend != nil {
		parts = append(parts, formatTrend(r.Trend))
	}
	if r.Words != nil {
		parts = append(parts, formatWordCloud(r.Words))
	}
	for _, e := range r.Errors {
		parts = append(parts, styles.warn.Render(fmt.Sprintf("%s: %v", e.Endpoint, e.Error)))
	}
	return strings.Join(parts, "\n\n")
}

func formatFeedback(e *models.HistoryEntry) string {
	if e == nil {
		return styles.ok.Render("✓ Feedback saved")
	}
	return fmt.Sprintf("%s #%d %s → %s", styles.ok.Render("✓ Feedback saved:"), e.ID, e.Sentiment, styles.Label(e.Correction))
}

func formatUser(u *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", styles.ok.Render("Logged in as"), u.Username)
	if u.Email != "" {
		fmt.Fprintf(&b, " <%s>", u.Email)
	}
	if u.CreatedAt != "" {
		fmt.Fprintf(&b, "\nMember since %s", u.CreatedAt)
	}
	return b.String()
}

func formatHealth(h *models.Health) string {
	status := styles.ok.Render(h.Status)
	if h.Status != "healthy" {
		status = styles.err.Render(h.Status)
	}
	model := styles.ok.Render("loaded")
	if !h.ModelLoaded {
		model = styles.warn.Render("not loaded")
	}
	return fmt.Sprintf("Server: %s\nModel:  %s", status, model)
}

func formatTraining(r *tasks.TrainResult) string {
	var b strings.Builder
	if r.Started != "" {
		fmt.Fprintf(&b, "%s\n", r.Started)
	}
	switch {
	case r.Poll.Err != nil:
		fmt.Fprintf(&b, "%s %v (after %d checks)", styles.err.Render("✗"), r.Poll.Err, r.Poll.Attempts)
	case r.Poll.Message != "":
		fmt.Fprintf(&b, "%s %s (after %d checks)", styles.ok.Render("✓"), r.Poll.Message, r.Poll.Attempts)
	default:
		fmt.Fprintf(&b, "%s Training finished (after %d checks)", styles.ok.Render("✓"), r.Poll.Attempts)
	}
	return b.String()
}
