// Package session owns the client's authentication state.
//
// A session is the access token plus the cached profile of the user it belongs to. Both halves are
// written and removed together through a [Store]:
//   - [SQLiteStore] : survives restarts, keeps the pair under the sentiment_jwt_token and
//     sentiment_user_info metadata keys, and writes both inside one transaction
//   - [MemoryStore] : process-local, for tests and ephemeral runs
//
// [Manager] drives the session against the server. Any 401 from an authenticated call ends the session
// exactly like [Manager.Logout] and sends the user to the login route through a [Navigator].
package session
