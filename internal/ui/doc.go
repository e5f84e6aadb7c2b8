// Package ui implements the interactive dashboard using bubbletea's Elm architecture.
//
// The TUI mirrors the web dashboard in a terminal:
//  1. [LoginView] : Log in or sign up with email and password
//  2. [DashboardView] : Profile, preferences, today's podcast and now playing
//  3. [CountryView] / [TopicView] : Pick a new draft country or topic
//
// The [Model] never owns session state. It subscribes to a [Session] (normally a tasks.SessionOrchestrator)
// and re-renders whatever [tasks.State] arrives, so forced logouts and late fetch results show up without polling.
// Intents run as [tea.Cmd] goroutines and report back with a Msg.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
