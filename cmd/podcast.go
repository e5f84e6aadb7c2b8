package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/dailycast/internal/formatter"
	"github.com/urfave/cli/v3"
)

// PodcastToday fetches the podcast for the saved preferences. No podcast yet is reported, not an error.
func (r *Runner) PodcastToday(ctx context.Context, cmd *cli.Command) error {
	o, err := r.session(ctx)
	if err != nil {
		return err
	}

	result, err := o.FetchPodcast(ctx, cmd.String("date"))
	if err != nil {
		return r.reportFailure(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePlain("%s", formatter.PodcastToText(result))
}

// PodcastPlay fetches the podcast, selects it for playback and records it in the history.
func (r *Runner) PodcastPlay(ctx context.Context, cmd *cli.Command) error {
	o, err := r.session(ctx)
	if err != nil {
		return err
	}

	result, err := o.FetchPodcast(ctx, cmd.String("date"))
	if err != nil {
		return r.reportFailure(err)
	}

	sel, err := o.Play()
	if err != nil {
		if werr := r.writePlain("%s", formatter.PodcastToText(result)); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}

	r.writePlain("%s", formatter.PlaybackToMarkdown(sel))

	if cmd.Bool("no-open") || !r.config.Playback.OpenBrowser {
		return nil
	}
	if err := r.open(sel.AudioURL); err != nil {
		return fmt.Errorf("failed to open player: %w", err)
	}
	r.logger.Info("opened podcast", "url", sel.AudioURL)
	return nil
}

// PodcastHistory lists, exports or clears the local play history. It does not require a session.
func (r *Runner) PodcastHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		r.logger.Warn("session not restored", "error", err)
		if r.history == nil {
			return err
		}
	}

	if cmd.Bool("clear") {
		if err := r.history.Clear(); err != nil {
			return err
		}
		return r.writePlain("✓ Play history cleared\n")
	}

	records, err := r.history.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if format := cmd.String("format"); format != "" {
		path, err := formatter.WriteHistoryExport(records, format, cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("history exported", "path", path, "entries", len(records))
		return r.writePlain("✓ Exported %d entries to %s\n", len(records), path)
	}

	if len(records) == 0 {
		return r.writePlain("No podcasts played yet\n")
	}
	return r.writePlain("%s\n", formatter.HistoryTable(records))
}
