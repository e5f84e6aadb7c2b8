// package models defines the data model for the daily podcast client
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/dailycast/internal/shared"
)

// DateLayout is the calendar date format the podcast service keys episodes by.
const DateLayout = "2006-01-02"

// Country is a supported country code (lowercase ISO-ish, e.g. "us", "uk").
type Country string

// Topic is a supported news topic code.
type Topic string

// Option pairs a code with its display label.
type Option struct {
	Code  string
	Label string
}

var countries = []Option{
	{"ca", "Canada"},
	{"us", "United States"},
	{"uk", "United Kingdom"},
	{"au", "Australia"},
	{"de", "Germany"},
	{"fr", "France"},
	{"jp", "Japan"},
}

var topics = []Option{
	{"sports", "Sports"},
	{"technology", "Technology"},
	{"business", "Business"},
	{"science", "Science"},
	{"entertainment", "Entertainment"},
	{"health", "Health & Wellness"},
	{"politics", "Politics"},
	{"education", "Education"},
}

// Countries returns the supported countries in display order.
func Countries() []Option { return append([]Option(nil), countries...) }

// Topics returns the supported topics in display order.
func Topics() []Option { return append([]Option(nil), topics...) }

func lookup(options []Option, code string) (Option, bool) {
	for _, o := range options {
		if o.Code == code {
			return o, true
		}
	}
	return Option{}, false
}

// ParseCountry normalizes s and returns it as a Country. Unsupported codes are still returned, with ok false.
func ParseCountry(s string) (c Country, ok bool) {
	c = Country(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// ParseTopic normalizes s and returns it as a Topic. Unsupported codes are still returned, with ok false.
func ParseTopic(s string) (t Topic, ok bool) {
	t = Topic(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid reports whether c is one of [Countries].
func (c Country) Valid() bool {
	_, ok := lookup(countries, string(c))
	return ok
}

// Valid reports whether t is one of [Topics].
func (t Topic) Valid() bool {
	_, ok := lookup(topics, string(t))
	return ok
}

// Label returns the display name, or the upper-cased code for unsupported values.
func (c Country) Label() string {
	if o, ok := lookup(countries, string(c)); ok {
		return o.Label
	}
	return strings.ToUpper(string(c))
}

// Label returns the display name, or the raw code for unsupported values.
func (t Topic) Label() string {
	if o, ok := lookup(topics, string(t)); ok {
		return o.Label
	}
	return string(t)
}

// Preferences is the (country, topic) pair a podcast is generated for.
type Preferences struct {
	Country Country `json:"country"`
	Topic   Topic   `json:"topic"`
}

// Validate reports [shared.ErrInvalidPreferences] naming every field outside the supported enums.
func (p Preferences) Validate() error {
	var bad []string
	if !p.Country.Valid() {
		bad = append(bad, fmt.Sprintf("country %q", p.Country))
	}
	if !p.Topic.Valid() {
		bad = append(bad, fmt.Sprintf("topic %q", p.Topic))
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: unsupported %s", shared.ErrInvalidPreferences, strings.Join(bad, " and "))
	}
	return nil
}

func (p Preferences) String() string {
	return fmt.Sprintf("%s/%s", p.Country, p.Topic)
}

// UserProfile is the authenticated user's identity and stored preferences.
type UserProfile struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Preferences Preferences `json:"preferences"`
}

// PodcastResult is one generated episode. A nil *PodcastResult means nothing has been generated yet.
type PodcastResult struct {
	Date string `json:"date"`
	URL  string `json:"url"`
}

// PlaybackSelection is the "now playing" snapshot taken when the user asks to play.
//
// It's a copy: later podcast or preference changes never alter it.
type PlaybackSelection struct {
	Title         string    `json:"title"`
	DurationLabel string    `json:"duration_label"`
	AudioURL      string    `json:"audio_url"`
	Country       Country   `json:"country"`
	Topic         Topic     `json:"topic"`
	Date          string    `json:"date"`
	SelectedAt    time.Time `json:"selected_at"`
}

// UnknownDuration is shown because the service doesn't report episode length.
const UnknownDuration = "Unknown"

// NewPlaybackSelection builds a snapshot of podcast for prefs at time now.
func NewPlaybackSelection(podcast PodcastResult, prefs Preferences, now time.Time) PlaybackSelection {
	return PlaybackSelection{
		Title:         fmt.Sprintf("AI Podcast for %s in %s", prefs.Topic.Label(), prefs.Country.Label()),
		DurationLabel: UnknownDuration,
		AudioURL:      podcast.URL,
		Country:       prefs.Country,
		Topic:         prefs.Topic,
		Date:          podcast.Date,
		SelectedAt:    now,
	}
}

// PlaybackRecord is a persisted [PlaybackSelection] with its history position.
type PlaybackRecord struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
	PlaybackSelection
}
