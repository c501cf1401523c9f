// Package services implements the HTTP clients for the sentiment-analysis server.
//
// # Raw Requests
//
// [APIService] sends requests relative to a base URL and returns an [APIResponse] regardless of status code.
// [RequestOptions] carries the method, headers and body; its Decorate hook lets callers attach credentials.
//
// # Analysis Endpoints
//
// [SentimentService] maps each endpoint onto a typed call. Credentials come from an [Authenticator]:
//   - Required auth (history, stats, feedback, profile) goes through AuthenticatedRequest, which
//     refuses to send anything without a session and invalidates the session on 401.
//   - Optional auth (classify, batch, training upload) only adds the bearer header when a session exists.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : No session for an endpoint that needs one
//   - [shared.ErrTokenExpired] : The server rejected the token; the session is gone
//   - [shared.ServerError] : The server rejected the request; carries its message or a per-call fallback
//   - [shared.ErrServiceUnavailable] : Transport failure
//   - [shared.ErrDecodeResponse] : Response body did not match the expected shape
package services
