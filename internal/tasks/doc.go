// Package tasks orchestrates sentiment-analysis workflows with real-time progress reporting.
//
// # Core Operations
//
// [Engine] combines the API service, the session and the local history:
//
//  1. [Engine.Classify] : Classify one text
//     - Blank input is a silent no-op
//     - Anonymous results are kept in the local history
//
//  2. [Engine.History] : Server history when logged in, local history otherwise
//     - Includes per-label counts and rounded percentages
//
//  3. [Engine.Train] / [Engine.Monitor] : Upload training data and poll until the server is idle
//     - Polling is driven by [jobs.Poller]
//
//  4. [Engine.BulkScrape] : Scrape and classify many URLs
//     - Bounded worker pool with a token-bucket rate limiter
//     - Optional per-URL exports and a manifest
//
//  5. [Engine.Dashboard] : Trend and word cloud
//     - A failing endpoint is recorded, not fatal
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
