package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/services"
	"github.com/desertthunder/senti/internal/shared"
)

// LoginRoute is where the user is sent when the session ends.
const LoginRoute = "/login"

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Manager implements login, logout and authenticated requests on top of a [Store].
type Manager struct {
	api    services.Requester
	store  Store
	nav    Navigator
	logger *log.Logger
}

// NewManager creates a [Manager]. A nil nav discards navigation requests.
func NewManager(api services.Requester, store Store, nav Navigator, logger *log.Logger) *Manager {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{api: api, store: store, nav: nav, logger: logger}
}

type loginResponse struct {
	Status      string       `json:"status"`
	Message     string       `json:"message"`
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// Login exchanges credentials for a session, replacing any existing one.
//
// On failure the stored session is left as it was.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	resp, err := m.post(ctx, services.PathLogin, map[string]string{"username": username, "password": password})
	if err != nil {
		m.logger.Error("login request failed", "error", err)
		return err
	}

	if !resp.OK() || resp.Status() != "success" {
		return resp.Failure(services.MsgLoginFailed)
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		return err
	}
	if body.AccessToken == "" {
		return &shared.ServerError{Status: resp.StatusCode, Message: services.MsgLoginFailed}
	}

	if err := m.store.Set(ctx, models.Session{Token: body.AccessToken, User: body.User}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Debug("logged in", "username", username)
	return nil
}

// Register creates an account. It never changes the current session.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	resp, err := m.post(ctx, services.PathRegister, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		m.logger.Error("register request failed", "error", err)
		return err
	}

	if !resp.OK() || resp.Status() != "success" {
		return resp.Failure(services.MsgRegisterFailed)
	}
	return nil
}

func (m *Manager) post(ctx context.Context, path string, payload any) (*services.APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := m.api.Do(ctx, path, services.JSONOptions(http.MethodPost, data))
	if err != nil {
		return nil, err
	}
	if !resp.IsJSON {
		return nil, fmt.Errorf("%w: %s returned %d with a non-JSON body", shared.ErrDecodeResponse, path, resp.StatusCode)
	}
	return resp, nil
}

// Logout clears the session and navigates to the login route. It cannot fail.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("failed to clear session", "error", err)
	}
	m.nav.Navigate(LoginRoute)
}

func (m *Manager) session(ctx context.Context) *models.Session {
	s, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Error("failed to read session", "error", err)
		return nil
	}
	if !s.Valid() {
		return nil
	}
	return s
}

// IsAuthenticated reports whether a token is stored. It does not contact the server.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.session(ctx) != nil
}

// CurrentUser returns the cached profile, or nil without a session.
func (m *Manager) CurrentUser(ctx context.Context) *models.User {
	if s := m.session(ctx); s != nil {
		return s.User
	}
	return nil
}

// Token returns the stored credential as a bearer [oauth2.Token].
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, bool) {
	s := m.session(ctx)
	if s == nil {
		return nil, false
	}

	tok := &oauth2.Token{AccessToken: s.Token, TokenType: "Bearer"}
	if exp, ok := parseExpiry(s.Token); ok {
		tok.Expiry = exp
	}
	return tok, true
}

// AuthenticatedRequest sends opts to endpoint with the bearer credential.
//
// Without a session it returns [shared.ErrNotAuthenticated] and sends nothing. A 401 ends the session
// as [Manager.Logout] does and returns [shared.ErrTokenExpired]. Any other response is returned as is.
func (m *Manager) AuthenticatedRequest(ctx context.Context, endpoint string, opts services.RequestOptions) (*services.APIResponse, error) {
	tok, ok := m.Token(ctx)
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}

	o := opts.Clone()
	prev := o.Decorate
	o.Decorate = func(r *http.Request) {
		if prev != nil {
			prev(r)
		}
		tok.SetAuthHeader(r)
	}

	resp, err := m.api.Do(ctx, endpoint, o)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		m.logger.Warn("session rejected by server", "endpoint", endpoint)
		m.Logout(ctx)
		return nil, shared.ErrTokenExpired
	}
	return resp, nil
}

// Authorize adds the bearer credential to req when a session exists.
func (m *Manager) Authorize(ctx context.Context, req *http.Request) {
	if tok, ok := m.Token(ctx); ok {
		tok.SetAuthHeader(req)
	}
}

// TokenExpiry reads the exp claim of the stored token without verifying its signature.
//
// It is informational: an expired claim does not end the session.
func (m *Manager) TokenExpiry(ctx context.Context) (time.Time, bool) {
	s := m.session(ctx)
	if s == nil {
		return time.Time{}, false
	}
	return parseExpiry(s.Token)
}

// Refresh replaces the cached profile with the one the server reports.
func (m *Manager) Refresh(ctx context.Context) (*models.User, error) {
	resp, err := m.AuthenticatedRequest(ctx, services.PathMe, services.RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, resp.Failure(services.MsgFetchFailed)
	}

	var body struct {
		User *models.User `json:"user"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.User == nil {
		return nil, fmt.Errorf("%w: response has no user", shared.ErrDecodeResponse)
	}

	s := m.session(ctx)
	if s == nil {
		return nil, shared.ErrNotAuthenticated
	}
	s.User = body.User
	if err := m.store.Set(ctx, *s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return body.User, nil
}

func parseExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
