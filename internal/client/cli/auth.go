package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) readCredentials() (string, string, error) {
	email, err := promptLine(a.reader, a.out, "Email")
	if err != nil {
		return "", "", err
	}

	pw, err := promptPassword(a.reader, a.out)
	if err != nil {
		return "", "", err
	}
	defer wipe(pw)

	return email, string(pw), nil
}

// Signup prompts for credentials and creates an account.
func (a *App) Signup(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.client.Signup(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id=%d)\n", user.Email, user.ID)
	return nil
}

// Login prompts for credentials and keeps the issued tokens in the client.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.userName = resp.Email
	fmt.Fprintf(a.out, "Logged in as %s, access token valid for %ds\n", resp.Email, resp.AccessTokenExpiresIn)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id=%d email=%s roles=%s\n", user.ID, user.Email, strings.Join(user.Roles, ","))
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.client.Refresh(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Access token refreshed, valid for %ds\n", resp.AccessTokenExpiresIn)
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server is up")
	return nil
}

func (a *App) Logout() {
	a.client.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
}
