package whoami

import (
	"flag"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
)

type Command struct {
	*base.Command

	flagFormat string
}

// identity is the whoami output.
type identity struct {
	Username string    `json:"username" yaml:"username"`
	Email    string    `json:"email" yaml:"email"`
	Expires  time.Time `json:"expires" yaml:"expires"`
}

func (c *Command) Synopsis() string {
	return "Show the signed-in user"
}

func (c *Command) Help() string {
	return `Usage: fragments whoami [options]

  Show the user of the current session and when the session expires.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("whoami", flag.ContinueOnError))
	c.AddGlobalFlags(f)

	f.StringVar(
		&c.flagFormat, "format", base.FormatTable,
		"Output format (table, json, yaml)",
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

	session, err := a.Store.Get()
	if err != nil {
		return c.Fail(err)
	}
	if !session.Valid(time.Now()) {
		c.UI.Output("Not signed in")
		return 1
	}

	user := session.User()
	if c.flagFormat != base.FormatTable {
		out := identity{Username: user.Username, Email: user.Email, Expires: session.Expiry}
		if err := c.Print(c.flagFormat, out); err != nil {
			return c.Fail(err)
		}
		return 0
	}

	t := &base.Table{}
	t.Append("Username", user.Username)
	t.Append("Email", user.Email)
	t.Append("Expires", humanize.Time(session.Expiry))
	if err := c.Print(base.FormatTable, t); err != nil {
		return c.Fail(err)
	}
	return 0
}
