package fragment

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
)

type UpdateCommand struct {
	*base.Command

	flagType   string
	flagFile   string
	flagFormat string
}

func (c *UpdateCommand) Synopsis() string {
	return "Replace the content of a fragment"
}

func (c *UpdateCommand) Help() string {
	return `Usage: fragments update [options] <id> [text...]

  Replace the content of a fragment. The service does not allow the type of
  a fragment to change, so -type must match the stored type.` + c.Flags().Help()
}

func (c *UpdateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("update", flag.ContinueOnError))
	c.AddGlobalFlags(f)

	f.StringVar(
		&c.flagType, "type", "",
		"Content type of the new content (defaults to the stored type)",
	)
	f.StringVar(
		&c.flagFile, "file", "",
		"Read the new content from this file",
	)
	f.StringVar(
		&c.flagFormat, "format", base.FormatTable,
		"Output format (table, json, yaml)",
	)

	return f
}

func (c *UpdateCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() < 1 {
		c.UI.Error("a fragment id is required")
		return 1
	}
	id := f.Arg(0)

	data, err := readContent(c.Fs, c.flagFile, f.Args()[1:], c.Stdin)
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

	ct := c.flagType
	if ct == "" && c.flagFile == "" {
		// Keep the stored type so the update is accepted.
		meta, err := a.Fragments.GetFragmentMetadata(ctx, id)
		if err != nil {
			return c.Fail(err)
		}
		if meta != nil {
			ct = meta.Type
		}
	}
	if ct == "" {
		ct = contentType("", c.flagFile)
	}

	frag, err := a.Fragments.UpdateFragment(ctx, id, data, ct)
	if err != nil {
		return c.Fail(err)
	}
	if frag == nil {
		c.UI.Output("Fragment updated")
		return 0
	}

	if err := printFragment(c.Command, c.flagFormat, frag); err != nil {
		return c.Fail(err)
	}
	return 0
}
