package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dailycast/internal/shared"
	"github.com/desertthunder/dailycast/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive dashboard over the same session the CLI uses.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(shared.ExpandHome(config.Log.File))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if err := shared.SetLogLevel(fileLogger, config.Log.Level); err != nil {
		return err
	}
	r.SetLogger(fileLogger)

	if err := r.connect(ctx); err != nil {
		return err
	}

	var open ui.OpenFunc
	if config.Playback.OpenBrowser {
		open = r.open
	}

	model := ui.NewModel(ctx, r.orchestrator, open)
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
