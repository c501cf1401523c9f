package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/desertthunder/senti/internal/shared"
	"github.com/desertthunder/senti/internal/ui"
)

// AuthLogin exchanges credentials for a session and stores it locally.
//
// Analyses made while logged out are discarded once the login succeeds.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username, err := r.promptValue(cmd.String("username"), "Username: ", false)
	if err != nil {
		return err
	}
	password, err := r.promptValue(cmd.String("password"), "Password: ", true)
	if err != nil {
		return err
	}

	r.logger.Info("logging in", "username", username)
	if err := r.session.Login(ctx, username, password); err != nil {
		return err
	}

	if n, err := r.engine.DiscardAnonymous(ctx); err != nil {
		r.logger.Warn("failed to discard local history", "error", err)
	} else if n > 0 {
		r.logger.Info("discarded local history", "entries", n)
	}

	if u := r.session.CurrentUser(ctx); u != nil {
		return r.term.Render(ui.ViewLogin, u)
	}
	return r.writePlain("✓ Logged in as %s\n", username)
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username, err := r.promptValue(cmd.String("username"), "Username: ", false)
	if err != nil {
		return err
	}
	email, err := r.promptValue(cmd.String("email"), "Email: ", false)
	if err != nil {
		return err
	}
	password, err := r.promptValue(cmd.String("password"), "Password: ", true)
	if err != nil {
		return err
	}

	if err := r.session.Register(ctx, username, email, password); err != nil {
		return err
	}
	return r.writePlain("✓ Account %s created. Log in with: senti auth login -u %s\n", username, username)
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if !r.session.IsAuthenticated(ctx) {
		return r.writePlain("Not logged in\n")
	}
	r.session.Logout(ctx)
	return r.writePlain("✓ Logged out\n")
}

// AuthWhoami shows the cached profile, or the server's copy with --refresh.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if !r.session.IsAuthenticated(ctx) {
		return shared.ErrNotAuthenticated
	}

	user := r.session.CurrentUser(ctx)
	if cmd.Bool("refresh") {
		refreshed, err := r.session.Refresh(ctx)
		if err != nil {
			return err
		}
		user = refreshed
	}

	if user == nil {
		if err := r.writePlain("Logged in (profile not cached, use --refresh)\n"); err != nil {
			return err
		}
	} else if err := r.term.Render(ui.ViewLogin, user); err != nil {
		return err
	}

	if exp, ok := r.session.TokenExpiry(ctx); ok {
		if time.Now().After(exp) {
			return r.writePlain("Token expired at %s\n", exp.Local().Format(time.RFC1123))
		}
		return r.writePlain("Token valid until %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

// AuthStatus checks the server health and reports whether a session is stored.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking service status", "api", r.api.BaseURL())

	health, err := r.svc.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if err := r.term.Render(ui.ViewHealth, health); err != nil {
		return err
	}

	if u := r.session.CurrentUser(ctx); u != nil {
		return r.writePlain("Session: logged in as %s\n", u.Username)
	}
	if r.session.IsAuthenticated(ctx) {
		return r.writePlain("Session: logged in\n")
	}
	return r.writePlain("Session: not logged in\n")
}

// promptValue returns value, or asks for it when empty. Secrets are read without echo on a terminal.
func (r *Runner) promptValue(value, prompt string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}

	if err := r.writePlain("%s", prompt); err != nil {
		return "", err
	}

	var line string
	if secret && r.inputFile != nil && term.IsTerminal(int(r.inputFile.Fd())) {
		b, err := term.ReadPassword(int(r.inputFile.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		line = string(b)
	} else {
		s, err := r.input.ReadString('\n')
		if err != nil && s == "" {
			return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.TrimSuffix(strings.ToLower(prompt), ": "))
		}
		line = s
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.TrimSuffix(strings.ToLower(prompt), ": "))
	}
	return line, nil
}
