// API service for making raw HTTP requests to the sentiment-analysis server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/desertthunder/senti/internal/shared"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://127.0.0.1:5000"

// APIService provides methods for making raw HTTP requests to the sentiment-analysis server.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the server root requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// RequestOptions describes one request.
//
// Method defaults to GET. Decorate runs on the built request just before it is sent.
type RequestOptions struct {
	Method   string
	Header   http.Header
	Body     []byte
	Decorate func(*http.Request)
}

// Clone returns a copy of o whose header and body can be modified independently.
func (o RequestOptions) Clone() RequestOptions {
	c := o
	c.Header = o.Header.Clone()
	if o.Body != nil {
		c.Body = append([]byte(nil), o.Body...)
	}
	return c
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// field returns a string member of a JSON object body.
func (r *APIResponse) field(name string) string {
	obj, ok := r.JSONData.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[name].(string)
	return s
}

// Status returns the "status" member of a JSON object body.
func (r *APIResponse) Status() string {
	return r.field("status")
}

// Message returns the "message" member of a JSON object body.
func (r *APIResponse) Message() string {
	return r.field("message")
}

// Failure builds the error for a response the server rejected, preferring its message over fallback.
func (r *APIResponse) Failure(fallback string) error {
	msg := strings.TrimSpace(r.Message())
	if msg == "" {
		msg = fallback
	}
	return &shared.ServerError{Status: r.StatusCode, Message: msg}
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDecodeResponse, err)
	}
	return nil
}

// Do sends a request to path and returns the raw response. Non-2xx statuses are not errors.
func (a *APIService) Do(ctx context.Context, path string, opts RequestOptions) (*APIResponse, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if opts.Decorate != nil {
		opts.Decorate(req)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, path, RequestOptions{Method: http.MethodGet})
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, path, JSONOptions(http.MethodPost, data))
}

// PostJSON marshals v and posts it to path.
func (a *APIService) PostJSON(ctx context.Context, path string, v any) (*APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.Post(ctx, path, data)
}

// JSONOptions builds [RequestOptions] carrying a JSON body.
func JSONOptions(method string, data []byte) RequestOptions {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return RequestOptions{Method: method, Header: h, Body: data}
}

// MultipartOptions builds POST [RequestOptions] uploading r as the form file field.
func MultipartOptions(field, filename string, r io.Reader) (RequestOptions, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return RequestOptions{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return RequestOptions{}, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return RequestOptions{}, fmt.Errorf("failed to finish form: %w", err)
	}

	h := http.Header{}
	h.Set("Content-Type", w.FormDataContentType())
	return RequestOptions{Method: http.MethodPost, Header: h, Body: buf.Bytes()}, nil
}
