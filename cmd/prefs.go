package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dailycast/internal/formatter"
	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
	"github.com/urfave/cli/v3"
)

// PrefsShow prints the profile with its saved preferences.
func (r *Runner) PrefsShow(ctx context.Context, cmd *cli.Command) error {
	o, err := r.session(ctx)
	if err != nil {
		return err
	}

	state := o.State()
	if state.Profile == nil {
		return fmt.Errorf("%w: profile not loaded", shared.ErrTransportFailure)
	}
	if cmd.Bool("json") {
		return r.writeJSON(state.Profile, true)
	}
	return r.writePlain("%s", formatter.ProfileToText(*state.Profile))
}

// PrefsSet edits the draft with the given flags and applies it. A successful save also fetches today's podcast.
func (r *Runner) PrefsSet(ctx context.Context, cmd *cli.Command) error {
	rawCountry, rawTopic := cmd.String("country"), cmd.String("topic")
	if rawCountry == "" && rawTopic == "" {
		return fmt.Errorf("%w: --country or --topic", shared.ErrMissingArgument)
	}

	o, err := r.session(ctx)
	if err != nil {
		return err
	}

	if rawCountry != "" {
		country, ok := models.ParseCountry(rawCountry)
		if !ok {
			return fmt.Errorf("%w: unknown country %q, see 'dailycast prefs options'", shared.ErrInvalidInput, rawCountry)
		}
		o.SetCountry(country)
	}
	if rawTopic != "" {
		topic, ok := models.ParseTopic(rawTopic)
		if !ok {
			return fmt.Errorf("%w: unknown topic %q, see 'dailycast prefs options'", shared.ErrInvalidInput, rawTopic)
		}
		o.SetTopic(topic)
	}

	if err := o.ApplyPreferences(ctx); err != nil {
		return r.reportFailure(err)
	}

	prefs := o.Preferences.Acknowledged()
	r.logger.Info("preferences saved", "country", prefs.Country, "topic", prefs.Topic)
	r.writePlain("✓ Preferences Saved\n")
	r.writePlain("Now showing podcasts about %s in %s\n\n", prefs.Topic.Label(), prefs.Country.Label())

	if result, ok := o.Fetcher.Current(); ok {
		return r.writePlain("%s", formatter.PodcastToText(result))
	}
	if n := o.State().Notice; n != nil {
		return r.writePlain("%s", formatter.NoticeToText(n))
	}
	return nil
}

// PrefsOptions lists the supported countries and topics.
func (r *Runner) PrefsOptions(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("%s\n", formatter.OptionsTable("Country", models.Countries(), ""))
	return r.writePlain("%s\n", formatter.OptionsTable("Topic", models.Topics(), ""))
}
