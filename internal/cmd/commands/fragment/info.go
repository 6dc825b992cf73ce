package fragment

import (
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/pkg/fragments"
)

type InfoCommand struct {
	*base.Command

	flagFormat string
}

func (c *InfoCommand) Synopsis() string {
	return "Show fragment metadata"
}

func (c *InfoCommand) Help() string {
	return `Usage: fragments info [options] <id>

  Show the metadata the service keeps for a fragment.` + c.Flags().Help()
}

func (c *InfoCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("info", flag.ContinueOnError))
	c.AddGlobalFlags(f)

	f.StringVar(
		&c.flagFormat, "format", base.FormatTable,
		"Output format (table, json, yaml)",
	)

	return f
}

func (c *InfoCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("a fragment id is required")
		return 1
	}

	ctx, cancel := c.Context()
	defer cancel()

	a, err := c.App(ctx)
	if err != nil {
		return c.Fail(err)
	}

	frag, err := a.Fragments.GetFragmentMetadata(ctx, f.Arg(0))
	if err != nil {
		return c.Fail(err)
	}
	if frag == nil {
		c.UI.Output("No metadata returned")
		return 0
	}

	if err := printFragment(c.Command, c.flagFormat, frag); err != nil {
		return c.Fail(err)
	}
	return 0
}

// printFragment writes fragment metadata as a key/value table or in format.
func printFragment(c *base.Command, format string, frag *fragments.Fragment) error {
	if format != base.FormatTable {
		return c.Print(format, frag)
	}

	t := &base.Table{}
	t.Append("ID", frag.ID)
	t.Append("Type", frag.Type)
	t.Append("Size", fmt.Sprintf("%s (%d bytes)", humanize.Bytes(uint64(frag.Size)), frag.Size))
	t.Append("Created", frag.Created.Format("2006-01-02 15:04:05 MST"))
	t.Append("Updated", fmt.Sprintf("%s (%s)",
		frag.Updated.Format("2006-01-02 15:04:05 MST"), humanize.Time(frag.Updated)))
	t.Append("Owner", frag.OwnerID)
	return c.Print(base.FormatTable, t)
}
