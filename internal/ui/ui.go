package ui

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dailycast/internal/formatter"
	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	DashboardView
	CountryView
	TopicView
)

// Session is the set of intents the dashboard drives.
type Session interface {
	State() tasks.State
	Subscribe() (<-chan tasks.State, func())
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, email, password string) error
	Logout()
	ReloadProfile(ctx context.Context) error
	SetCountry(country models.Country)
	SetTopic(topic models.Topic)
	ApplyPreferences(ctx context.Context) error
	FetchPodcast(ctx context.Context, date string) (tasks.FetchResult, error)
	Play() (models.PlaybackSelection, error)
	StopPlayback()
	DismissNotice()
}

var _ Session = (*tasks.SessionOrchestrator)(nil)

// OpenFunc hands a podcast URL to an external player.
type OpenFunc func(url string) error

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	session     Session
	open        OpenFunc
	states      <-chan tasks.State
	unsubscribe func()
	state       tasks.State
	email       textinput.Model
	password    textinput.Model
	countryList list.Model
	topicList   list.Model
	busy        string
	err         error
	width       int
	height      int
	help        help.Model
	keys        keyMap
}

// NewModel creates a dashboard over session. open may be nil, in which case play only selects the podcast.
func NewModel(ctx context.Context, session Session, open OpenFunc) *Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m := &Model{
		ctx:      ctx,
		session:  session,
		open:     open,
		email:    email,
		password: password,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.setState(session.State())
	return m
}

// Init subscribes to session state changes.
func (m *Model) Init() tea.Cmd {
	m.states, m.unsubscribe = m.session.Subscribe()
	return tea.Batch(m.waitForState(), textinput.Blink)
}

// Close stops the state subscription. Safe to call more than once.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// pickers are built on demand; a zero list has no delegate to size
		switch m.view {
		case CountryView:
			m.countryList.SetSize(msg.Width-4, msg.Height-8)
		case TopicView:
			m.topicList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case CountryView, TopicView:
			return m.handlePickerKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStateChanged:
		m.setState(msg.data.(tasks.State))
		return m, m.waitForState()

	case MsgSubscriptionClosed:
		m.states = nil
		return m, nil

	case MsgIntentDone:
		result := msg.data.(intentResult)
		if result.intent == m.busy {
			m.busy = ""
		}
		if result.intent == "login" || result.intent == "signup" {
			m.password.SetValue("")
		}
		m.setState(m.session.State())
		return m, nil

	case MsgPlaybackStarted:
		result := msg.data.(playbackResult)
		m.busy = ""
		m.err = result.err
		m.setState(m.session.State())
		return m, nil
	}
	return m, nil
}

// setState applies a session snapshot and follows session transitions between login and dashboard.
func (m *Model) setState(s tasks.State) {
	m.state = s
	switch {
	case !s.Authenticated && m.view != LoginView:
		m.view = LoginView
		m.busy = ""
		m.err = nil
		m.password.Blur()
		m.email.Focus()
	case s.Authenticated && m.view == LoginView:
		m.view = DashboardView
		m.email.Blur()
		m.password.Blur()
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case DashboardView:
		return m.renderDashboard()
	case CountryView:
		return m.renderPicker(m.countryList)
	case TopicView:
		return m.renderPicker(m.topicList)
	default:
		return ""
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exit), key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		return m, m.toggleFocus()
	case key.Matches(msg, m.keys.signup):
		return m, m.submit("signup")
	case key.Matches(msg, m.keys.enter):
		if m.email.Focused() {
			return m, m.toggleFocus()
		}
		return m, m.submit("login")
	}
	return m.updateInputs(msg)
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.email.Focused() {
		m.email.Blur()
		return m.password.Focus()
	}
	m.password.Blur()
	return m.email.Focus()
}

func (m *Model) submit(intent string) tea.Cmd {
	if m.busy != "" {
		return nil
	}
	email, password := strings.TrimSpace(m.email.Value()), m.password.Value()
	m.busy = intent

	fn := m.session.Login
	if intent == "signup" {
		fn = m.session.Signup
	}
	return func() tea.Msg {
		return intentDoneMsg(intent, fn(m.ctx, email, password))
	}
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.country):
		m.countryList = newOptionList("Country", models.Countries(), string(m.state.Draft.Country), m.width-4, m.height-8)
		m.view = CountryView
	case key.Matches(msg, m.keys.topic):
		m.topicList = newOptionList("Topic", models.Topics(), string(m.state.Draft.Topic), m.width-4, m.height-8)
		m.view = TopicView
	case key.Matches(msg, m.keys.apply):
		return m, m.run("apply", m.session.ApplyPreferences)
	case key.Matches(msg, m.keys.fetch):
		return m, m.run("fetch", func(ctx context.Context) error {
			_, err := m.session.FetchPodcast(ctx, "")
			return err
		})
	case key.Matches(msg, m.keys.reload):
		return m, m.run("reload", m.session.ReloadProfile)
	case key.Matches(msg, m.keys.play):
		return m, m.play()
	case key.Matches(msg, m.keys.stop):
		m.session.StopPlayback()
		m.err = nil
	case key.Matches(msg, m.keys.dismiss):
		m.session.DismissNotice()
		m.err = nil
	case key.Matches(msg, m.keys.logout):
		m.session.Logout()
	}
	m.setState(m.session.State())
	return m, nil
}

func (m *Model) run(intent string, fn func(context.Context) error) tea.Cmd {
	m.busy = intent
	return func() tea.Msg {
		return intentDoneMsg(intent, fn(m.ctx))
	}
}

func (m *Model) play() tea.Cmd {
	m.busy = "play"
	open := m.open
	return func() tea.Msg {
		sel, err := m.session.Play()
		if err == nil && open != nil {
			err = open(sel.AudioURL)
		}
		return playbackStartedMsg(sel, err)
	}
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	picker := &m.countryList
	if m.view == TopicView {
		picker = &m.topicList
	}

	if picker.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.exit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = DashboardView
			return m, nil
		case key.Matches(msg, m.keys.enter):
			if item, ok := picker.SelectedItem().(optionItem); ok {
				if m.view == CountryView {
					m.session.SetCountry(models.Country(item.option.Code))
				} else {
					m.session.SetTopic(models.Topic(item.option.Code))
				}
			}
			m.view = DashboardView
			m.setState(m.session.State())
			return m, nil
		}
	}

	var cmd tea.Cmd
	*picker, cmd = picker.Update(msg)
	return m, cmd
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		var emailCmd, passwordCmd tea.Cmd
		m.email, emailCmd = m.email.Update(msg)
		m.password, passwordCmd = m.password.Update(msg)
		cmd = tea.Batch(emailCmd, passwordCmd)
	case CountryView:
		m.countryList, cmd = m.countryList.Update(msg)
	case TopicView:
		m.topicList, cmd = m.topicList.Update(msg)
	}
	return m, cmd
}

// waitForState blocks on the subscription and turns the next state into a message.
func (m *Model) waitForState() tea.Cmd {
	states := m.states
	if states == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-states
		if !ok {
			return subscriptionClosedMsg()
		}
		return stateChangedMsg(s)
	}
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Daily Podcast")

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n")
	if m.busy != "" {
		b.WriteString("\n" + styles.help.Render(fmt.Sprintf("Working: %s...", m.busy)) + "\n")
	}
	b.WriteString(m.renderNotice())

	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "log in"))
	helpKeys := []key.Binding{submit, m.keys.next, m.keys.signup, m.keys.back}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderDashboard() string {
	s := m.state

	var b strings.Builder
	b.WriteString(styles.title.Render("Daily Podcast") + "\n")

	if s.Profile != nil {
		b.WriteString(m.line("User", s.Profile.Email))
	} else {
		b.WriteString(m.line("User", "loading..."))
	}
	b.WriteString(m.line("Preferences", formatter.PreferencesLabel(s.Preferences)))
	if s.Draft != s.Preferences {
		b.WriteString(m.line("Draft", fmt.Sprintf("%s (%s)", formatter.PreferencesLabel(s.Draft), s.PreferenceStatus)))
	} else if s.PreferenceStatus == tasks.PreferencesApplying {
		b.WriteString(m.line("Draft", "saving..."))
	}

	switch {
	case s.Podcast != nil:
		b.WriteString(m.line("Podcast", fmt.Sprintf("%s %s", s.Podcast.Date, s.Podcast.URL)))
	case s.PodcastDate != "":
		b.WriteString(m.line("Podcast", fmt.Sprintf("%s not generated yet", s.PodcastDate)))
	default:
		b.WriteString(m.line("Podcast", "apply preferences or press f to fetch"))
	}

	if s.Playback != nil {
		b.WriteString(m.line("Now playing", styles.ok.Render(fmt.Sprintf("%s [%s]", s.Playback.Title, s.Playback.DurationLabel))))
	}

	if m.busy != "" {
		b.WriteString("\n" + styles.help.Render(fmt.Sprintf("Working: %s...", m.busy)) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}
	b.WriteString(m.renderNotice())

	helpKeys := []key.Binding{
		m.keys.country, m.keys.topic, m.keys.apply, m.keys.fetch, m.keys.play,
		m.keys.stop, m.keys.reload, m.keys.dismiss, m.keys.logout, m.keys.quit,
	}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) line(label, value string) string {
	return fmt.Sprintf("%s %s\n", styles.label.Render(label+":"), value)
}

func (m *Model) renderNotice() string {
	n := m.state.Notice
	if n == nil {
		return ""
	}

	style := styles.notice(n.Level)
	var b strings.Builder
	b.WriteString("\n" + style.Render(n.Title))
	if n.Message != "" {
		b.WriteString(": " + n.Message)
	}
	b.WriteString("\n")
	for _, field := range slices.Sorted(maps.Keys(n.Fields)) {
		b.WriteString(styles.warn.Render(fmt.Sprintf("  %s: %s", field, n.Fields[field])) + "\n")
	}
	if n.Retryable {
		b.WriteString(styles.help.Render("  Press the same key to retry.") + "\n")
	}
	return b.String()
}

func (m *Model) renderPicker(l list.Model) string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.exit}
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(helpKeys))
}
