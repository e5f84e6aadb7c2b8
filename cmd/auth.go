package main

import (
	"context"
	"errors"

	"github.com/desertthunder/dailycast/internal/formatter"
	"github.com/desertthunder/dailycast/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for a session token and loads the profile.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("logging in", "email", email)

	if err := r.orchestrator.Login(ctx, email, cmd.String("password")); err != nil {
		return r.reportFailure(err)
	}
	return r.writeSession("✓ Logged in")
}

// AuthSignup creates an account, then behaves like a login.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("signing up", "email", email)

	if err := r.orchestrator.Signup(ctx, email, cmd.String("password")); err != nil {
		return r.reportFailure(err)
	}
	return r.writeSession("✓ Account created")
}

// AuthLogout clears the stored token. Logging out without a session is not an error.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	if !r.orchestrator.State().Authenticated {
		return r.writePlain("Not logged in\n")
	}
	r.orchestrator.Logout()
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus restores the stored session, if any, and reports it.
//
// An expired token is dropped while restoring, so status also cleans up stale sessions.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	// a rejected stored token has already been cleared; report the logged out state
	if err := r.connect(ctx); err != nil && (r.orchestrator == nil || !errors.Is(err, shared.ErrAuthRejected)) {
		return r.reportFailure(err)
	}

	state := r.orchestrator.State()
	if cmd.Bool("json") {
		return r.writeJSON(state, true)
	}
	return r.writePlain("%s", formatter.StateToText(state))
}

func (r *Runner) writeSession(title string) error {
	r.writePlain("%s\n", title)
	return r.writePlain("%s", formatter.StateToText(r.orchestrator.State()))
}
