package tasks

import (
	"sync"
	"time"

	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
)

// PlaybackState holds the "now playing" snapshot. Only Select and Clear change it.
type PlaybackState struct {
	now func() time.Time

	mu      sync.Mutex
	current *models.PlaybackSelection
}

func NewPlaybackState() *PlaybackState {
	return &PlaybackState{now: time.Now}
}

// Select snapshots podcast for prefs. With no podcast it returns [shared.ErrNothingToPlay] and keeps the current selection.
func (p *PlaybackState) Select(podcast *models.PodcastResult, prefs models.Preferences) (models.PlaybackSelection, error) {
	if podcast == nil || podcast.URL == "" {
		return models.PlaybackSelection{}, shared.ErrNothingToPlay
	}

	sel := models.NewPlaybackSelection(*podcast, prefs, p.now())

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = &sel
	return sel, nil
}

// Current returns the selection, if any.
func (p *PlaybackState) Current() (models.PlaybackSelection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return models.PlaybackSelection{}, false
	}
	return *p.current, true
}

// Clear stops playback.
func (p *PlaybackState) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
}
