// Package models defines the value types shared by the session layer, the CLI and the TUI.
//
//   - [Preferences] : the (country, topic) pair, validated against [Countries] and [Topics]
//   - [UserProfile] : identity plus stored preferences returned by the "me" query
//   - [PodcastResult] : one generated episode (date + audio URL)
//   - [PlaybackSelection] : the "now playing" snapshot, built by [NewPlaybackSelection]
//   - [PlaybackRecord] : a persisted selection from the local play history
//
// Country and topic codes outside the supported lists can be held (the server may return them) but never pass [Preferences.Validate].
package models
