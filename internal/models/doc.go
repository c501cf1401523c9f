// Package models defines the data exchanged with the sentiment-analysis API and the client-side records derived from it.
//
// The package contains two categories of types:
//
// 1. Wire types: structs decoded from API responses
//   - [User] : Account profile returned by login and /auth/me
//   - [ClassifyResult] : Sentiment and aspect breakdown for a single text
//   - [HistoryPage] : One page of server-side analysis history
//   - [BatchResult] / [ScrapeResult] : Many classified texts with per-label stats
//   - [TrainingStatus] : State of the server's single training slot
//   - [Trend] / [WordWeight] / [Health] : Dashboard and service status data
//
// 2. Client records: state the CLI keeps locally
//   - [Session] : Access token paired with the cached [User]
//   - [Analysis] : A classified text, remote or kept in the anonymous history
//   - [HistorySummary] : Per-label counts and rounded percentages
//
// Sentiment labels are fixed to [Positive], [Negative] and [Neutral], spelled as the server spells them.
package models
