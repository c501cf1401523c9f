// Package jobs polls a long-running server job until it reports that it is done.
//
// A [Poller] moves Idle → Polling → Idle. While polling it asks a [StatusFunc] once per interval,
// starting one interval after [Poller.Start]. Polling ends on the first of:
//   - a status that is no longer running
//   - any error from the status query
//   - the attempt or duration cap, when configured
//   - [Poller.Stop] or cancellation of the start context
//
// The completion callback runs exactly once per Start, after the ticker has been stopped, and no
// status query is issued after it.
package jobs
