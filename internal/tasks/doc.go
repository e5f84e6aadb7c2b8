// Package tasks implements the client's session state machines.
//
// # Components
//
// Each component guards its own fields with a mutex and never holds it across a network call:
//
//  1. [ProfileLoader] : fetches the current user once per session start and seeds the preferences
//  2. [PreferenceController] : Idle → Applying → Applied | Rejected
//     - local edits only touch the draft
//     - apply is refused while another one is pending or when the draft is outside the supported values
//     - the acknowledged value only changes to what the server returned
//  3. [PodcastFetcher] : last-issued-wins podcast fetch, ordered by sequence number rather than arrival
//  4. [PlaybackState] : a "now playing" snapshot that never follows later podcast changes
//
// # Orchestration
//
// [SessionOrchestrator] composes the components and exposes a [State] copy. Subscribers get state
// over buffered channels; sends never block and a slow reader only misses intermediate states.
//
// A forced logout (the gateway saw an auth rejection) resets every component, whichever intent triggered it.
//
// # Playback History
//
// The optional [PlaybackRecorder] (repositories.PlaybackRepository) stores each played selection.
// Recording errors are logged and ignored so they never block playback.
package tasks
