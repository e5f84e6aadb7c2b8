// package tasks implements the session state machines that sit between the podcast API and the UI layers.
package tasks

import (
	"context"
	"errors"

	"github.com/desertthunder/dailycast/internal/models"
)

// ErrSuperseded is returned when a result arrives after the session it belonged to has ended.
var ErrSuperseded = errors.New("result superseded by a newer session")

// AuthClient exchanges credentials for session tokens.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, email, password string) (string, error)
}

// ProfileClient fetches the authenticated user.
type ProfileClient interface {
	Me(ctx context.Context) (*models.UserProfile, error)
}

// PreferenceClient stores preferences and returns the acknowledged value.
type PreferenceClient interface {
	UpdatePreferences(ctx context.Context, prefs models.Preferences) (models.Preferences, error)
}

// PodcastClient fetches the episode generated for a date. A nil result means nothing has been generated.
type PodcastClient interface {
	Podcast(ctx context.Context, date string) (*models.PodcastResult, error)
}

// API is every remote operation the orchestrator needs. [services.PodcastService] implements it.
type API interface {
	AuthClient
	ProfileClient
	PreferenceClient
	PodcastClient
}

// PlaybackRecorder persists played selections, e.g. [repositories.PlaybackRepository].
type PlaybackRecorder interface {
	Record(sel models.PlaybackSelection) (*models.PlaybackRecord, error)
}

// AuthNotifier reports forced logouts. [services.Gateway] implements it.
type AuthNotifier interface {
	OnAuthRejected(fn func())
}

// TokenWriter is the writable session. Only the orchestrator's explicit intents use it.
type TokenWriter interface {
	Get() (string, bool)
	Set(token string)
	Clear()
}
