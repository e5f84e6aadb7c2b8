package tasks

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/session"
	"github.com/desertthunder/dailycast/internal/shared"
	"golang.org/x/sync/singleflight"
)

// PreferenceSeeder receives the server's stored preferences when a profile loads.
type PreferenceSeeder interface {
	Seed(prefs models.Preferences)
}

// ProfileLoader fetches the current user once per session start.
type ProfileLoader struct {
	client ProfileClient
	tokens session.TokenReader
	seeder PreferenceSeeder
	logger *log.Logger

	loads singleflight.Group

	mu      sync.Mutex
	profile *models.UserProfile
	gen     uint64
}

// NewProfileLoader creates a loader. seeder may be nil.
func NewProfileLoader(client ProfileClient, tokens session.TokenReader, seeder PreferenceSeeder, logger *log.Logger) *ProfileLoader {
	if logger == nil {
		logger = log.Default()
	}
	return &ProfileLoader{client: client, tokens: tokens, seeder: seeder, logger: logger}
}

// Load returns the session's profile, fetching it on the first call.
// Concurrent first calls within one session share a single fetch.
//
// It fails with [shared.ErrUnauthenticated] when no token is held. On any fetch failure the
// previously held profile (if any) is kept.
func (l *ProfileLoader) Load(ctx context.Context) (*models.UserProfile, error) {
	if p, ok := l.Profile(); ok {
		return p, nil
	}

	l.mu.Lock()
	key := strconv.FormatUint(l.gen, 10)
	l.mu.Unlock()

	v, err, _ := l.loads.Do(key, func() (any, error) {
		if p, ok := l.Profile(); ok {
			return p, nil
		}
		return l.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*models.UserProfile)
	return &p, nil
}

// Reload fetches the profile again even if one is held.
func (l *ProfileLoader) Reload(ctx context.Context) (*models.UserProfile, error) {
	return l.fetch(ctx)
}

// Profile returns the held profile.
func (l *ProfileLoader) Profile() (*models.UserProfile, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.profile == nil {
		return nil, false
	}
	p := *l.profile
	return &p, true
}

// Reset forgets the profile and discards any fetch still in flight.
func (l *ProfileLoader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profile = nil
	l.gen++
}

func (l *ProfileLoader) fetch(ctx context.Context) (*models.UserProfile, error) {
	if _, ok := l.tokens.Get(); !ok {
		return nil, fmt.Errorf("%w: cannot load profile", shared.ErrUnauthenticated)
	}

	l.mu.Lock()
	gen := l.gen
	l.mu.Unlock()

	profile, err := l.client.Me(ctx)
	if err != nil {
		l.logger.Error("failed to load user profile", "err", err)
		return nil, err
	}

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		return nil, fmt.Errorf("profile for %s: %w", profile.Email, ErrSuperseded)
	}
	held := *profile
	l.profile = &held
	if l.seeder != nil {
		l.seeder.Seed(profile.Preferences)
	}
	l.mu.Unlock()

	l.logger.Debug("profile loaded", "user", profile.ID, "prefs", profile.Preferences)
	p := held
	return &p, nil
}
