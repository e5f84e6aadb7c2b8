package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateChanged MsgKind = iota
	MsgSubscriptionClosed
	MsgIntentDone
	MsgPlaybackStarted
)

type intentResult struct {
	intent string
	err    error
}

type playbackResult struct {
	selection models.PlaybackSelection
	err       error
}

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg(s tasks.State) Msg {
	return Msg{kind: MsgStateChanged, data: s}
}

// subscriptionClosedMsg is the constructor for [MsgSubscriptionClosed]
func subscriptionClosedMsg() Msg {
	return Msg{kind: MsgSubscriptionClosed}
}

// intentDoneMsg is the constructor for [MsgIntentDone]
func intentDoneMsg(intent string, err error) Msg {
	return Msg{kind: MsgIntentDone, data: intentResult{intent, err}}
}

// playbackStartedMsg is the constructor for [MsgPlaybackStarted]
func playbackStartedMsg(sel models.PlaybackSelection, err error) Msg {
	return Msg{kind: MsgPlaybackStarted, data: playbackResult{sel, err}}
}
