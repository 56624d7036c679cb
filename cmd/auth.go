package main

import (
	"context"
	"fmt"

	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the popup sign-in flow against the chosen identity
// provider and caches the resulting profile for offline lookups.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.String("provider")

	if err := r.ensureEnv(); err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	state := r.bootstrap(ctx)
	if state.Authenticated() {
		r.logger.Info("already signed in, re-authorizing", "account", state.User.CanonicalName)
	}

	r.logger.Infof("starting %v sign-in", provider)

	if err := r.session.Authorize(ctx, provider); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	state = r.session.State()
	if state.User == nil {
		return fmt.Errorf("%w: no profile after sign-in", shared.ErrAuthorizeFailed)
	}

	r.cacheProfile(*state.User)

	r.writePlain("✓ Signed in as %s\n", state.User.DisplayName)
	return nil
}

// AuthLogout drops the local session. The platform session cookie, if
// any, is untouched.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.Logout()
	return r.writePlain("✓ Signed out\n")
}

// AuthWhoami shows the signed-in account, falling back to the most
// recently cached profile when the identity service is unreachable.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	asJSON := cmd.Bool("json")

	state := r.bootstrap(ctx)
	if state.Authenticated() {
		return r.printProfile(*state.User, false, asJSON)
	}

	db, profiles, err := r.openProfileCache()
	if err != nil {
		r.logger.Debug("profile cache unavailable", "error", err)
		return fmt.Errorf("%w: run 'inkwell auth login' to sign in", shared.ErrNotAuthenticated)
	}
	defer db.Close()

	cached, err := profiles.List(nil)
	if err != nil || len(cached) == 0 {
		return fmt.Errorf("%w: run 'inkwell auth login' to sign in", shared.ErrNotAuthenticated)
	}

	return r.printProfile(cached[0].Profile, true, asJSON)
}

// AuthToken prints the live access token for scripting against the API.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	state := r.bootstrap(ctx)
	if !state.Authenticated() {
		return fmt.Errorf("%w: run 'inkwell auth login' to sign in", shared.ErrNotAuthenticated)
	}

	r.writePlain("%s\n", state.Token.Value)
	return nil
}

func (r *Runner) printProfile(profile models.UserProfile, offline, asJSON bool) error {
	if asJSON {
		return r.writeJSON(profile, true)
	}

	if offline {
		r.writePlain("(offline, showing cached profile)\n")
	}
	r.writePlain("Account: %s\n", profile.CanonicalName)
	r.writePlain("Name: %s\n", profile.DisplayName)
	if profile.Locale != "" {
		r.writePlain("Locale: %s\n", profile.Locale)
	}
	r.writePlain("Status: %s\n", profile.Status)
	return nil
}

// cacheProfile stores the profile snapshot locally, best-effort.
func (r *Runner) cacheProfile(profile models.UserProfile) {
	db, profiles, err := r.openProfileCache()
	if err != nil {
		r.logger.Debug("skipping profile cache", "error", err)
		return
	}
	defer db.Close()

	if _, err := profiles.Upsert(profile); err != nil {
		r.logger.Warn("failed to cache profile", "error", err)
	}
}
