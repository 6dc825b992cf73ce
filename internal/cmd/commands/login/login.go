package login

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/pkg/auth"
)

type Command struct {
	*base.Command

	flagNoBrowser bool
	flagTimeout   time.Duration
}

func (c *Command) Synopsis() string {
	return "Sign in with the identity provider"
}

func (c *Command) Help() string {
	return `Usage: fragments login [options]

  Sign in through the identity provider's hosted page. A local listener on
  the configured redirect URL receives the provider's response, so the
  redirect URL must point at this machine (http://localhost:1234 by default).` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("login", flag.ContinueOnError))
	c.AddGlobalFlags(f)

	f.BoolVar(
		&c.flagNoBrowser, "no-browser", false,
		"Print the sign-in URL instead of opening a browser",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 5*time.Minute,
		"How long to wait for sign-in to complete",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	ctx, cancel := c.Context()
	defer cancel()

	a, err := c.App(ctx)
	if err != nil {
		return c.Fail(err)
	}

	client, err := a.Auth(ctx)
	if err != nil {
		return c.Fail(err)
	}

	srv, err := auth.NewCallbackServer(client, a.Config.Auth.RedirectURI, c.Log)
	if err != nil {
		return c.Fail(err)
	}
	if err := srv.Start(); err != nil {
		return c.Fail(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.Log.Warn("error shutting down callback server", "error", err)
		}
	}()

	if err := c.begin(ctx, client); err != nil {
		return c.Fail(err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, c.flagTimeout)
	defer waitCancel()

	c.UI.Info("Waiting for sign-in to complete...")
	session, err := srv.Wait(waitCtx)
	if err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			c.UI.Error(fmt.Sprintf("Timed out after %s waiting for sign-in", c.flagTimeout))
			return 1
		}
		return c.Fail(err)
	}
	c.UI.Output(fmt.Sprintf("Signed in as %s", session.Username))

	// Confirm the service accepts the new session.
	if _, err := a.Fragments.GetFragments(ctx, false); err != nil {
		c.UI.Warn(fmt.Sprintf("Unable to list fragments with the new session: %s",
			base.ErrorMessage(err)))
	}

	return 0
}

// begin sends the user to the provider, or prints the URL when a browser
// can't be used.
func (c *Command) begin(ctx context.Context, client *auth.Client) error {
	if !c.flagNoBrowser {
		err := client.SignIn(ctx)
		if err == nil {
			c.UI.Info("Opened the sign-in page in your browser.")
			return nil
		}
		if !auth.IsAuthError(err, auth.CodeNavigationFailed) {
			return err
		}
		c.Log.Debug("could not open browser", "error", err)
	}

	loginURL, err := client.BeginLogin()
	if err != nil {
		return err
	}
	c.UI.Output(fmt.Sprintf("Open this URL to sign in:\n\n    %s\n", loginURL))
	return nil
}
