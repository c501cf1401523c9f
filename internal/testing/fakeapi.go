package testing

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/desertthunder/senti/internal/models"
)

// Default credentials accepted by [FakeAPI].
const (
	FakeUsername = "alice"
	FakePassword = "secret"
	FakeToken    = "abc123"
)

// FakeAPI is an in-process sentiment server for tests.
//
// It accepts [FakeUsername]/[FakePassword], issues [FakeToken], and counts every request by path.
type FakeAPI struct {
	Server *httptest.Server
	User   models.User

	mu        sync.Mutex
	hits      map[string]int
	token     string
	statuses  []models.TrainingStatus
	failCodes map[string]int
	feedback  map[int]models.Label
	scrape    map[string]models.ScrapeResult
}

// NewFakeAPI starts a [FakeAPI] that is closed when t finishes.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		User:      models.User{ID: 1, Username: FakeUsername, Email: "alice@example.com", CreatedAt: "2025-01-01T00:00:00"},
		hits:      make(map[string]int),
		token:     FakeToken,
		failCodes: make(map[string]int),
		feedback:  make(map[int]models.Label),
		scrape:    make(map[string]models.ScrapeResult),
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// Hits returns how many requests reached path.
func (f *FakeAPI) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// Total returns how many requests reached the server.
func (f *FakeAPI) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.hits {
		n += c
	}
	return n
}

// RevokeToken makes every bearer token fail with 401.
func (f *FakeAPI) RevokeToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
}

// FailWith makes requests to path answer with code and a JSON error message.
func (f *FakeAPI) FailWith(path string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCodes[path] = code
}

// QueueTrainingStatus sets the responses of /api/training-status in order.
// The last one repeats once the queue is drained.
func (f *FakeAPI) QueueTrainingStatus(statuses ...models.TrainingStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statuses...)
}

// SetScrape registers the result returned for url.
func (f *FakeAPI) SetScrape(url string, result models.ScrapeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrape[url] = result
}

// Feedback returns the correction recorded for id.
func (f *FakeAPI) Feedback(id int) models.Label {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feedback[id]
}

func (f *FakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(f.count)

	r.Route("/auth", func(auth chi.Router) {
		auth.Post("/login", f.login)
		auth.Post("/register", f.register)
		auth.With(f.requireToken).Get("/me", f.me)
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/classify", f.classify)
		api.Post("/batch-classify", f.batch)
		api.Post("/upload-train-data", f.uploadTrain)
		api.Get("/training-status", f.trainingStatus)
		api.Post("/scrape", f.scrapeURL)
		api.Get("/health", f.health)

		api.Group(func(protected chi.Router) {
			protected.Use(f.requireToken)
			protected.Get("/history", f.history)
			protected.Get("/stats/trend", f.trend)
			protected.Get("/stats/wordcloud", f.wordcloud)
			protected.Post("/feedback/{id}", f.submitFeedback)
		})
	})

	return r
}

func (f *FakeAPI) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		code, fail := f.failCodes[r.URL.Path]
		f.mu.Unlock()

		if fail {
			writeJSON(w, code, map[string]string{"status": "error", "message": "forced failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		token := f.token
		f.mu.Unlock()

		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || got != token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token has expired"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Missing username or password"})
		return
	}
	if req.Username != FakeUsername || req.Password != FakePassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "Invalid username or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"message":      "Login successful",
		"access_token": FakeToken,
		"user":         f.User,
	})
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	switch {
	case req.Username == "" || req.Email == "" || req.Password == "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Missing required fields"})
	case req.Username == FakeUsername:
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Username already exists"})
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"status": "success", "message": "User registered successfully"})
	}
}

func (f *FakeAPI) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "user": f.User})
}

// labelFor gives a deterministic label from the text.
func labelFor(text string) models.Label {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "bagus"), strings.Contains(lower, "good"):
		return models.Positive
	case strings.Contains(lower, "buruk"), strings.Contains(lower, "bad"):
		return models.Negative
	default:
		return models.Neutral
	}
}

func (f *FakeAPI) classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TextInput string `json:"text_input"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	text := strings.TrimSpace(req.TextInput)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Text input cannot be empty"})
		return
	}

	writeJSON(w, http.StatusOK, models.ClassifyResult{
		Status:     "success",
		Sentiment:  labelFor(text),
		Confidence: 0.9,
		Aspects:    []models.Aspect{{Aspect: "harga", Sentiment: labelFor(text), Text: text}},
		TextLength: len(text),
		Timestamp:  "2025-01-01T00:00:00",
	})
}

func (f *FakeAPI) batch(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "No file part"})
		return
	}
	defer file.Close()

	data, _ := io.ReadAll(file)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	result := models.BatchResult{
		Status:   "success",
		Stats:    models.Stats{models.Positive: 0, models.Negative: 0, models.Neutral: 0},
		Filename: header.Filename,
	}
	for i, line := range lines {
		if i == 0 || len(strings.TrimSpace(line)) < 3 {
			continue
		}
		row := i - 1
		l := labelFor(line)
		result.Results = append(result.Results, models.Classified{Text: line, Sentiment: l, Confidence: 0.8, OriginalRow: &row})
		result.Stats[l]++
	}
	result.Total = len(result.Results)
	writeJSON(w, http.StatusOK, result)
}

func (f *FakeAPI) uploadTrain(w http.ResponseWriter, r *http.Request) {
	if _, _, err := r.FormFile("file"); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "No file part"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Training started in background"})
}

func (f *FakeAPI) trainingStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := models.TrainingStatus{Message: "Idle"}
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		if len(f.statuses) > 1 {
			f.statuses = f.statuses[1:]
		}
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, status)
}

func (f *FakeAPI) scrapeURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL      string `json:"url"`
		Platform string `json:"platform"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "URL is required"})
		return
	}

	f.mu.Lock()
	result, ok := f.scrape[req.URL]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "No comments found or invalid URL"})
		return
	}
	result.Status = "success"
	writeJSON(w, http.StatusOK, result)
}

func (f *FakeAPI) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Health{Status: "healthy", Timestamp: "2025-01-01T00:00:00", ModelLoaded: true})
}

func (f *FakeAPI) history(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}

	writeJSON(w, http.StatusOK, models.HistoryPage{
		Status: "success",
		History: []models.HistoryEntry{
			{ID: 2, Text: "pelayanan buruk", Sentiment: models.Negative, Confidence: 0.7, CreatedAt: "2025-01-02T09:00:00"},
			{ID: 1, Text: "produk bagus", Sentiment: models.Positive, Confidence: 0.95, CreatedAt: "2025-01-01T09:00:00"},
		},
		Total:       2,
		Pages:       1,
		CurrentPage: page,
	})
}

func (f *FakeAPI) trend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Trend{
		Dates:    []string{"2025-01-01", "2025-01-02"},
		Positive: []int{1, 0},
		Negative: []int{0, 1},
		Neutral:  []int{0, 0},
	})
}

func (f *FakeAPI) wordcloud(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []models.WordWeight{{Text: "produk", Weight: 3}, {Text: "bagus", Weight: 2}})
}

func (f *FakeAPI) submitFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 || id > 2 {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "Analysis not found"})
		return
	}

	var req struct {
		Correction string `json:"correction"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	l := models.Label(req.Correction)
	if !l.Valid() || string(l) != req.Correction {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Invalid correction label"})
		return
	}

	f.mu.Lock()
	f.feedback[id] = l
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"message":  "Feedback saved",
		"analysis": models.HistoryEntry{ID: id, Text: "produk bagus", Sentiment: models.Positive, Correction: l},
	})
}
