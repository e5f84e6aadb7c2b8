package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
)

// FetchResult is the outcome of one [PodcastFetcher.FetchFor] call.
type FetchResult struct {
	Sequence    uint64
	Preferences models.Preferences
	Date        string
	// Podcast is nil when nothing has been generated for the date yet.
	Podcast *models.PodcastResult
	// Stale is set when a newer fetch had already been applied, so this result was discarded.
	Stale     bool
	FetchedAt time.Time
}

// PodcastFetcher retrieves the daily podcast. The last fetch to be issued wins, whatever order replies arrive in.
type PodcastFetcher struct {
	client PodcastClient
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	issued  uint64
	applied uint64
	current *FetchResult
}

// NewPodcastFetcher creates a fetcher using the local clock for "today".
func NewPodcastFetcher(client PodcastClient, logger *log.Logger) *PodcastFetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &PodcastFetcher{client: client, logger: logger, now: time.Now}
}

// Today returns the local calendar date in [models.DateLayout].
func (f *PodcastFetcher) Today() string {
	return f.now().Format(models.DateLayout)
}

// FetchFor fetches the podcast for prefs on date (YYYY-MM-DD, empty for today).
//
// The result becomes current only if no later-issued fetch has been applied already;
// otherwise it is returned with Stale set. Failures are never retried. A failure keeps the
// current result but still supersedes every earlier fetch, and is itself Stale when a later
// fetch already settled.
func (f *PodcastFetcher) FetchFor(ctx context.Context, prefs models.Preferences, date string) (FetchResult, error) {
	if date == "" {
		date = f.Today()
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return FetchResult{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", shared.ErrInvalidInput, date)
	}

	f.mu.Lock()
	f.issued++
	seq := f.issued
	f.mu.Unlock()

	podcast, err := f.client.Podcast(ctx, date)
	if err != nil {
		result := FetchResult{Sequence: seq, Preferences: prefs, Date: date}
		f.mu.Lock()
		if seq <= f.applied {
			result.Stale = true
		} else {
			f.applied = seq
		}
		f.mu.Unlock()
		f.logger.Warn("failed to fetch podcast", "seq", seq, "date", date, "prefs", prefs, "stale", result.Stale, "err", err)
		return result, err
	}

	result := FetchResult{
		Sequence:    seq,
		Preferences: prefs,
		Date:        date,
		Podcast:     podcast,
		FetchedAt:   f.now(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if seq <= f.applied {
		result.Stale = true
		f.logger.Debug("discarding stale podcast", "seq", seq, "applied", f.applied)
		return result, nil
	}

	f.applied = seq
	held := result
	if podcast != nil {
		p := *podcast
		held.Podcast = &p
	}
	f.current = &held
	return result, nil
}

// Current returns the last applied result.
func (f *PodcastFetcher) Current() (FetchResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return FetchResult{}, false
	}
	result := *f.current
	if result.Podcast != nil {
		p := *result.Podcast
		result.Podcast = &p
	}
	return result, true
}

// Podcast returns the current podcast, or nil.
func (f *PodcastFetcher) Podcast() *models.PodcastResult {
	result, ok := f.Current()
	if !ok {
		return nil
	}
	return result.Podcast
}

// Reset drops the current result and marks every fetch still in flight as stale.
func (f *PodcastFetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	f.applied = f.issued
}
