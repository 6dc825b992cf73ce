package logout

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/pkg/auth"
)

type Command struct {
	*base.Command

	flagNoBrowser bool
}

func (c *Command) Synopsis() string {
	return "Sign out"
}

func (c *Command) Help() string {
	return `Usage: fragments logout [options]

  Remove the local session and end the session with the identity provider.
  When no provider is configured only the local session is removed.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("logout", flag.ContinueOnError))
	c.AddGlobalFlags(f)

	f.BoolVar(
		&c.flagNoBrowser, "no-browser", false,
		"Print the provider logout URL instead of opening a browser",
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

	if err := a.Config.RequireProvider(); err != nil {
		c.Log.Debug("identity provider not configured, clearing local session", "error", err)
		return c.clearLocal(a.Store)
	}

	client, err := a.Auth(ctx)
	if err != nil {
		// Without the provider the local session can still be removed.
		c.UI.Warn(fmt.Sprintf("Could not reach the identity provider: %s", base.ErrorMessage(err)))
		return c.clearLocal(a.Store)
	}

	if c.flagNoBrowser {
		if code := c.clearLocal(a.Store); code != 0 {
			return code
		}
		if u := client.LogoutURL(); u != "" {
			c.UI.Output(fmt.Sprintf("Open this URL to finish signing out:\n\n    %s\n", u))
		}
		return 0
	}

	err = client.SignOut(ctx)
	switch {
	case err == nil:
	case auth.IsAuthError(err, auth.CodeNavigationFailed):
		c.UI.Output(fmt.Sprintf("Open this URL to finish signing out:\n\n    %s\n", client.LogoutURL()))
	default:
		return c.Fail(err)
	}

	c.UI.Output("Signed out")
	return 0
}

func (c *Command) clearLocal(store auth.SessionStore) int {
	if err := store.Clear(); err != nil {
		return c.Fail(auth.WrapError(auth.CodeSignOutFailed, "failed to clear session", err))
	}
	c.UI.Output("Signed out")
	return 0
}
