// Package repositories implements SQLite persistence for the client's durable state.
//
// Key Implementations:
//   - [SessionRepository] : the single session slot the token lives in, satisfying [session.Slot]
//   - [PlaybackRepository] : history of every podcast the user played
//
// History entries carry a sequence number (play #1, #2, ...) from [NextSequence], which atomically increments
// a per-table counter in a dedicated sequence table.
package repositories
