package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/session"
)

// fakeAPI is a programmable [API]. Function fields take precedence over fixed values.
type fakeAPI struct {
	mu sync.Mutex

	loginToken string
	loginErr   error

	me      *models.UserProfile
	meErr   error
	meFn    func(context.Context) (*models.UserProfile, error)
	meCalls int

	updateFn    func(context.Context, models.Preferences) (models.Preferences, error)
	updateCalls []models.Preferences

	podcastFn    func(context.Context, string) (*models.PodcastResult, error)
	podcastCalls []string
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (string, error) {
	return f.loginToken, f.loginErr
}

func (f *fakeAPI) Signup(ctx context.Context, email, password string) (string, error) {
	return f.loginToken, f.loginErr
}

func (f *fakeAPI) Me(ctx context.Context) (*models.UserProfile, error) {
	f.mu.Lock()
	f.meCalls++
	fn, me, err := f.meFn, f.me, f.meErr
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	if err != nil {
		return nil, err
	}
	p := *me
	return &p, nil
}

func (f *fakeAPI) UpdatePreferences(ctx context.Context, prefs models.Preferences) (models.Preferences, error) {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, prefs)
	fn := f.updateFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, prefs)
	}
	return prefs, nil
}

func (f *fakeAPI) Podcast(ctx context.Context, date string) (*models.PodcastResult, error) {
	f.mu.Lock()
	f.podcastCalls = append(f.podcastCalls, date)
	fn := f.podcastFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, date)
	}
	return nil, nil
}

func (f *fakeAPI) updates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updateCalls)
}

func (f *fakeAPI) podcasts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.podcastCalls...)
}

func (f *fakeAPI) meCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls
}

func tokenStore(t *testing.T, token string) *session.TokenStore {
	t.Helper()
	store := session.NewTokenStore(&session.MemorySlot{}, nil)
	if token != "" {
		store.Set(token)
	}
	return store
}

func fixedClock(date string) func() time.Time {
	ts, err := time.ParseInLocation(models.DateLayout, date, time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts.Add(9 * time.Hour) }
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

var errBoom = errors.New("boom")

var (
	usSports   = models.Preferences{Country: "us", Topic: "sports"}
	ukScience  = models.Preferences{Country: "uk", Topic: "science"}
	deBusiness = models.Preferences{Country: "de", Topic: "business"}
)
