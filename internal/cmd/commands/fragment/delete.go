package fragment

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
)

type DeleteCommand struct {
	*base.Command
}

func (c *DeleteCommand) Synopsis() string {
	return "Delete a fragment"
}

func (c *DeleteCommand) Help() string {
	return `Usage: fragments delete [options] <id>

  Delete a fragment and its content.` + c.Flags().Help()
}

func (c *DeleteCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("delete", flag.ContinueOnError))
	c.AddGlobalFlags(f)
	return f
}

func (c *DeleteCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("a fragment id is required")
		return 1
	}
	id := f.Arg(0)

	ctx, cancel := c.Context()
	defer cancel()

	a, err := c.App(ctx)
	if err != nil {
		return c.Fail(err)
	}

	if _, err := a.Fragments.DeleteFragment(ctx, id); err != nil {
		return c.Fail(err)
	}

	c.Log.Info("fragment deleted", "id", id)
	c.UI.Output(fmt.Sprintf("Deleted fragment %s", id))
	return 0
}
