package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/services"
	"github.com/desertthunder/dailycast/internal/shared"
)

// NoticeLevel is the severity of a [Notice].
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeInfo:
		return "info"
	case NoticeWarn:
		return "warn"
	case NoticeError:
		return "error"
	default:
		return ""
	}
}

func (l NoticeLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Notice is a user-facing message about the last intent.
type Notice struct {
	Level   NoticeLevel       `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	// Retryable is set for transport failures the user can simply try again.
	Retryable bool `json:"retryable,omitempty"`
}

// State is a point-in-time copy of everything a UI renders.
type State struct {
	Authenticated    bool                      `json:"authenticated"`
	Profile          *models.UserProfile       `json:"profile,omitempty"`
	Preferences      models.Preferences        `json:"preferences"`
	Draft            models.Preferences        `json:"draft"`
	PreferenceStatus PreferenceStatus          `json:"preference_status"`
	Podcast          *models.PodcastResult     `json:"podcast,omitempty"`
	PodcastDate      string                    `json:"podcast_date,omitempty"`
	Playback         *models.PlaybackSelection `json:"playback,omitempty"`
	Notice           *Notice                   `json:"notice,omitempty"`
}

// Options wires a [SessionOrchestrator]. API, Tokens and Notifier are required.
type Options struct {
	API      API
	Tokens   TokenWriter
	Notifier AuthNotifier
	// Recorder, when set, receives every played selection. Its errors are logged and ignored.
	Recorder PlaybackRecorder
	Logger   *log.Logger
}

// SessionOrchestrator composes the session components into one observable state machine.
//
// Intents may be called from any goroutine. Every change is pushed to subscribers as a [State] copy.
type SessionOrchestrator struct {
	tokens   TokenWriter
	api      API
	recorder PlaybackRecorder
	logger   *log.Logger

	Profile     *ProfileLoader
	Preferences *PreferenceController
	Fetcher     *PodcastFetcher
	Playback    *PlaybackState

	mu            sync.Mutex
	authenticated bool
	notice        *Notice

	pubMu       sync.Mutex
	subscribers map[int]chan State
	nextSub     int
}

// NewSessionOrchestrator builds the components and registers for forced logouts.
func NewSessionOrchestrator(opts Options) *SessionOrchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	prefs := NewPreferenceController(opts.API, logger)
	o := &SessionOrchestrator{
		tokens:      opts.Tokens,
		api:         opts.API,
		recorder:    opts.Recorder,
		logger:      logger,
		Preferences: prefs,
		Profile:     NewProfileLoader(opts.API, opts.Tokens, prefs, logger),
		Fetcher:     NewPodcastFetcher(opts.API, logger),
		Playback:    NewPlaybackState(),
		subscribers: make(map[int]chan State),
	}

	prefs.OnApplied(o.preferencesApplied)
	prefs.OnTransition(func(PreferenceStatus) { o.publish() })
	if opts.Notifier != nil {
		opts.Notifier.OnAuthRejected(o.forcedLogout)
	}
	return o
}

// State returns the current composed state.
func (o *SessionOrchestrator) State() State {
	o.mu.Lock()
	s := State{Authenticated: o.authenticated}
	if o.notice != nil {
		n := *o.notice
		s.Notice = &n
	}
	o.mu.Unlock()

	if profile, ok := o.Profile.Profile(); ok {
		s.Profile = profile
	}

	snap := o.Preferences.Snapshot()
	s.Preferences, s.Draft, s.PreferenceStatus = snap.Acknowledged, snap.Draft, snap.Status

	if result, ok := o.Fetcher.Current(); ok {
		s.Podcast, s.PodcastDate = result.Podcast, result.Date
	}

	if sel, ok := o.Playback.Current(); ok {
		s.Playback = &sel
	}
	return s
}

// Subscribe returns a channel that receives the latest state after every change, and a function to stop.
//
// Slow subscribers only ever miss intermediate states, never the latest one.
func (o *SessionOrchestrator) Subscribe() (<-chan State, func()) {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()

	id := o.nextSub
	o.nextSub++
	ch := make(chan State, 1)
	o.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.pubMu.Lock()
			defer o.pubMu.Unlock()
			delete(o.subscribers, id)
			close(ch)
		})
	}
}

// publish sends the current state to every subscriber without blocking.
func (o *SessionOrchestrator) publish() {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()

	if len(o.subscribers) == 0 {
		return
	}

	s := o.State()
	for _, ch := range o.subscribers {
		select {
		case ch <- s:
		default:
			// replace the unread state with the newer one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Start restores a persisted session. Without a token it leaves the orchestrator unauthenticated.
func (o *SessionOrchestrator) Start(ctx context.Context) error {
	if _, ok := o.tokens.Get(); !ok {
		o.setAuthenticated(false)
		o.publish()
		return nil
	}

	o.setAuthenticated(true)
	o.publish()
	return o.loadProfile(ctx, false)
}

// Login authenticates with credentials and loads the profile.
func (o *SessionOrchestrator) Login(ctx context.Context, email, password string) error {
	return o.authenticate(ctx, "Login", email, password, o.api.Login)
}

// Signup creates an account and starts its session.
func (o *SessionOrchestrator) Signup(ctx context.Context, email, password string) error {
	return o.authenticate(ctx, "Signup", email, password, o.api.Signup)
}

func (o *SessionOrchestrator) authenticate(
	ctx context.Context, intent, email, password string,
	fn func(context.Context, string, string) (string, error),
) error {
	token, err := fn(ctx, email, password)
	if err != nil {
		o.fail(intent+" failed", err)
		return err
	}

	o.resetComponents()
	o.tokens.Set(token)
	o.setAuthenticated(true)
	o.setNotice(&Notice{Level: NoticeInfo, Title: "Welcome", Message: strings.TrimSpace(email)})
	o.logger.Info("session started", "intent", strings.ToLower(intent))
	o.publish()

	return o.loadProfile(ctx, false)
}

// Logout ends the session at the user's request.
func (o *SessionOrchestrator) Logout() {
	o.tokens.Clear()
	o.endSession(&Notice{Level: NoticeInfo, Title: "Logged out"})
	o.logger.Info("session ended", "reason", "logout")
}

// forcedLogout runs after the gateway has already cleared the token.
func (o *SessionOrchestrator) forcedLogout() {
	o.endSession(&Notice{Level: NoticeWarn, Title: "Session expired", Message: "Please log in again."})
	o.logger.Warn("session ended", "reason", "rejected by server")
}

func (o *SessionOrchestrator) endSession(n *Notice) {
	o.resetComponents()
	o.mu.Lock()
	o.authenticated = false
	o.notice = n
	o.mu.Unlock()
	o.publish()
}

func (o *SessionOrchestrator) resetComponents() {
	o.Profile.Reset()
	o.Preferences.Reset()
	o.Fetcher.Reset()
	o.Playback.Clear()
}

// ReloadProfile fetches the profile again and reseeds the preferences.
func (o *SessionOrchestrator) ReloadProfile(ctx context.Context) error {
	if err := o.requireSession(); err != nil {
		return err
	}
	return o.loadProfile(ctx, true)
}

func (o *SessionOrchestrator) loadProfile(ctx context.Context, force bool) error {
	var err error
	if force {
		_, err = o.Profile.Reload(ctx)
	} else {
		_, err = o.Profile.Load(ctx)
	}
	if err != nil {
		o.fail("Failed to load user profile", err)
		return err
	}
	o.publish()
	return nil
}

// SetCountry edits the draft country.
func (o *SessionOrchestrator) SetCountry(country models.Country) {
	o.Preferences.SetCountry(country)
	o.publish()
}

// SetTopic edits the draft topic.
func (o *SessionOrchestrator) SetTopic(topic models.Topic) {
	o.Preferences.SetTopic(topic)
	o.publish()
}

// ApplyPreferences saves the draft. On success today's podcast is fetched for the saved value before returning.
func (o *SessionOrchestrator) ApplyPreferences(ctx context.Context) error {
	if err := o.requireSession(); err != nil {
		return err
	}

	_, err := o.Preferences.Apply(ctx)
	if err != nil {
		o.fail("Failed to save preferences", err)
		return err
	}
	o.publish()
	return nil
}

func (o *SessionOrchestrator) preferencesApplied(ctx context.Context, prefs models.Preferences) {
	o.setNotice(&Notice{
		Level:   NoticeInfo,
		Title:   "Preferences Saved",
		Message: fmt.Sprintf("Now showing podcasts about %s in %s", prefs.Topic.Label(), prefs.Country.Label()),
	})
	o.publish()
	o.fetch(ctx, prefs, "")
}

// FetchPodcast fetches the podcast for the acknowledged preferences on date (empty for today).
// Retrying after a failure is the caller's decision.
func (o *SessionOrchestrator) FetchPodcast(ctx context.Context, date string) (FetchResult, error) {
	if err := o.requireSession(); err != nil {
		return FetchResult{}, err
	}
	return o.fetch(ctx, o.Preferences.Acknowledged(), date)
}

func (o *SessionOrchestrator) fetch(ctx context.Context, prefs models.Preferences, date string) (FetchResult, error) {
	result, err := o.Fetcher.FetchFor(ctx, prefs, date)
	if err != nil {
		if result.Stale {
			o.logger.Debug("ignoring superseded fetch failure", "seq", result.Sequence, "err", err)
			return result, err
		}
		o.fail("Failed to fetch podcast", err)
		return result, err
	}
	if !result.Stale && result.Podcast == nil {
		o.setNotice(&Notice{
			Level:   NoticeInfo,
			Title:   "No podcast available",
			Message: "Try again later or adjust preferences.",
		})
	}
	o.publish()
	return result, nil
}

// Play snapshots the current podcast with the acknowledged preferences.
func (o *SessionOrchestrator) Play() (models.PlaybackSelection, error) {
	sel, err := o.Playback.Select(o.Fetcher.Podcast(), o.Preferences.Acknowledged())
	if err != nil {
		o.setNotice(&Notice{Level: NoticeInfo, Title: "No podcast available", Message: "Try again later or adjust preferences."})
		o.publish()
		return sel, err
	}

	if o.recorder != nil {
		if _, err := o.recorder.Record(sel); err != nil {
			o.logger.Warn("failed to record playback", "url", sel.AudioURL, "err", err)
		}
	}

	o.setNotice(&Notice{Level: NoticeInfo, Title: "Now Playing", Message: sel.Title})
	o.publish()
	return sel, nil
}

// StopPlayback clears the now playing selection.
func (o *SessionOrchestrator) StopPlayback() {
	o.Playback.Clear()
	o.publish()
}

// DismissNotice clears the current notice.
func (o *SessionOrchestrator) DismissNotice() {
	o.setNotice(nil)
	o.publish()
}

func (o *SessionOrchestrator) requireSession() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.authenticated {
		return shared.ErrUnauthenticated
	}
	return nil
}

func (o *SessionOrchestrator) setAuthenticated(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.authenticated = v
}

func (o *SessionOrchestrator) setNotice(n *Notice) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notice = n
}

// fail turns err into a notice. Auth rejections already produced the forced logout notice.
func (o *SessionOrchestrator) fail(title string, err error) {
	if n := noticeFor(title, err); n != nil {
		o.setNotice(n)
	}
	o.publish()
}

func noticeFor(title string, err error) *Notice {
	switch {
	case errors.Is(err, ErrSuperseded):
		return nil
	case errors.Is(err, shared.ErrApplyInFlight),
		errors.Is(err, shared.ErrInvalidPreferences),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrUnauthenticated):
		return &Notice{Level: NoticeWarn, Title: title, Message: err.Error()}
	}

	switch services.OutcomeOf(err) {
	case services.AuthRejected:
		return nil
	case services.ValidationRejected:
		msg := err.Error()
		var gwErr *services.GatewayError
		if errors.As(err, &gwErr) && gwErr.Message() != "" {
			msg = gwErr.Message()
		}
		return &Notice{Level: NoticeError, Title: title, Message: msg, Fields: services.FieldErrors(err)}
	default:
		return &Notice{Level: NoticeError, Title: title, Message: "The podcast service is unreachable. Try again.", Retryable: true}
	}
}
