package fragment

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
)

type CreateCommand struct {
	*base.Command

	flagType   string
	flagFile   string
	flagFormat string
}

func (c *CreateCommand) Synopsis() string {
	return "Create a fragment"
}

func (c *CreateCommand) Help() string {
	return `Usage: fragments create [options] [text...]

  Create a fragment from the given text, a file (-file) or stdin. The type
  defaults to text/plain, or is guessed from the file extension.` + c.Flags().Help()
}

func (c *CreateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("create", flag.ContinueOnError))
	c.AddGlobalFlags(f)

	f.StringVar(
		&c.flagType, "type", "",
		"Content type of the fragment (e.g. text/markdown, application/json)",
	)
	f.StringVar(
		&c.flagFile, "file", "",
		"Read the fragment content from this file",
	)
	f.StringVar(
		&c.flagFormat, "format", base.FormatTable,
		"Output format (table, json, yaml)",
	)

	return f
}

func (c *CreateCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	data, err := readContent(c.Fs, c.flagFile, f.Args(), c.Stdin)
	if err != nil {
		c.UI.Error(contentError(err))
		return 1
	}

	ctx, cancel := c.Context()
	defer cancel()

	a, err := c.App(ctx)
	if err != nil {
		return c.Fail(err)
	}

	frag, err := a.Fragments.CreateFragment(ctx, data, contentType(c.flagType, c.flagFile))
	if err != nil {
		return c.Fail(err)
	}
	if frag == nil {
		c.UI.Output("Fragment created")
		return 0
	}

	c.Log.Info("fragment created", "id", frag.ID, "type", frag.Type)
	if err := printFragment(c.Command, c.flagFormat, frag); err != nil {
		return c.Fail(err)
	}
	return 0
}
