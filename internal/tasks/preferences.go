package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
)

// PreferenceStatus is the state of the preference apply cycle.
type PreferenceStatus int

const (
	PreferencesIdle PreferenceStatus = iota
	PreferencesApplying
	PreferencesApplied
	PreferencesRejected
)

func (s PreferenceStatus) String() string {
	switch s {
	case PreferencesIdle:
		return "idle"
	case PreferencesApplying:
		return "applying"
	case PreferencesApplied:
		return "applied"
	case PreferencesRejected:
		return "rejected"
	default:
		return ""
	}
}

func (s PreferenceStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PreferenceSnapshot is a copy of the controller's state.
type PreferenceSnapshot struct {
	// Acknowledged is the last value the server returned, either from the profile or an apply.
	Acknowledged models.Preferences
	// Draft holds local edits not yet sent.
	Draft     models.Preferences
	Status    PreferenceStatus
	LastError error
}

// Dirty reports whether the draft differs from the acknowledged value.
func (s PreferenceSnapshot) Dirty() bool {
	return s.Draft != s.Acknowledged
}

// AppliedFunc runs once after every acknowledged apply.
type AppliedFunc func(ctx context.Context, prefs models.Preferences)

// PreferenceController owns the country/topic selection and applies it to the server.
//
// The acknowledged value only ever changes to something the server returned.
// At most one apply is in flight.
type PreferenceController struct {
	client PreferenceClient
	logger *log.Logger

	mu        sync.Mutex
	acked     models.Preferences
	draft     models.Preferences
	status    PreferenceStatus
	lastErr   error
	onApplied AppliedFunc
	onStatus  func(PreferenceStatus)
	gen       uint64
}

// NewPreferenceController creates a controller in the Idle state with empty preferences.
func NewPreferenceController(client PreferenceClient, logger *log.Logger) *PreferenceController {
	if logger == nil {
		logger = log.Default()
	}
	return &PreferenceController{client: client, logger: logger}
}

// OnApplied sets the function run after a successful apply.
func (c *PreferenceController) OnApplied(fn AppliedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onApplied = fn
}

// OnTransition sets a function run after every status change caused by Apply.
func (c *PreferenceController) OnTransition(fn func(PreferenceStatus)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStatus = fn
}

// Seed replaces both the acknowledged value and the draft with the server's stored preferences.
//
// While an apply is pending only the acknowledged value changes; the apply's reply settles the rest.
func (c *PreferenceController) Seed(prefs models.Preferences) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == PreferencesApplying {
		c.acked = prefs
		return
	}
	c.acked, c.draft = prefs, prefs
	c.status, c.lastErr = PreferencesIdle, nil
}

// SetCountry edits the draft country.
func (c *PreferenceController) SetCountry(country models.Country) {
	c.edit(func(p *models.Preferences) { p.Country = country })
}

// SetTopic edits the draft topic.
func (c *PreferenceController) SetTopic(topic models.Topic) {
	c.edit(func(p *models.Preferences) { p.Topic = topic })
}

func (c *PreferenceController) edit(fn func(*models.Preferences)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft)
	if c.status != PreferencesApplying {
		c.status = PreferencesIdle
	}
}

// Apply sends the draft to the server.
//
// It fails locally, without changing state, with [shared.ErrApplyInFlight] while another apply
// is pending and with [shared.ErrInvalidPreferences] when the draft is outside the supported values.
// A server rejection moves to Rejected and keeps the acknowledged value.
func (c *PreferenceController) Apply(ctx context.Context) (models.Preferences, error) {
	c.mu.Lock()
	if c.status == PreferencesApplying {
		c.mu.Unlock()
		return models.Preferences{}, shared.ErrApplyInFlight
	}
	draft := c.draft
	if err := draft.Validate(); err != nil {
		c.mu.Unlock()
		return models.Preferences{}, err
	}
	c.status, c.lastErr = PreferencesApplying, nil
	gen, notify := c.gen, c.onStatus
	c.mu.Unlock()

	if notify != nil {
		notify(PreferencesApplying)
	}

	c.logger.Debug("applying preferences", "prefs", draft)
	acked, err := c.client.UpdatePreferences(ctx, draft)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if err != nil {
			return models.Preferences{}, err
		}
		return models.Preferences{}, fmt.Errorf("preferences %s: %w", draft, ErrSuperseded)
	}
	if err != nil {
		c.status, c.lastErr = PreferencesRejected, err
		c.mu.Unlock()
		c.logger.Warn("failed to save preferences", "prefs", draft, "err", err)
		if notify != nil {
			notify(PreferencesRejected)
		}
		return models.Preferences{}, err
	}
	c.acked, c.draft = acked, acked
	c.status = PreferencesApplied
	trigger := c.onApplied
	c.mu.Unlock()

	c.logger.Info("preferences saved", "prefs", acked)
	if notify != nil {
		notify(PreferencesApplied)
	}
	if trigger != nil {
		trigger(ctx, acked)
	}
	return acked, nil
}

// Snapshot returns a copy of the current state.
func (c *PreferenceController) Snapshot() PreferenceSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PreferenceSnapshot{Acknowledged: c.acked, Draft: c.draft, Status: c.status, LastError: c.lastErr}
}

// Acknowledged returns the last server-acknowledged preferences.
func (c *PreferenceController) Acknowledged() models.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acked
}

// Reset returns to the initial empty state and discards any apply still in flight.
func (c *PreferenceController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked, c.draft = models.Preferences{}, models.Preferences{}
	c.status, c.lastErr = PreferencesIdle, nil
	c.gen++
}
