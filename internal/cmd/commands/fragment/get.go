package fragment

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
)

type GetCommand struct {
	*base.Command

	flagEnvelope bool
	flagFormat   string
	flagOut      string
}

// envelope is the normalized response shown by get -envelope.
type envelope struct {
	Status      int    `json:"status" yaml:"status"`
	ContentType string `json:"contentType" yaml:"contentType"`
	JSON        any    `json:"json,omitempty" yaml:"json,omitempty"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
}

func (c *GetCommand) Synopsis() string {
	return "Print the content of a fragment"
}

func (c *GetCommand) Help() string {
	return `Usage: fragments get [options] <id>

  Print the content of a fragment exactly as stored, or write it to a file
  with -out. With -envelope, print the response status, content type and
  body instead.` + c.Flags().Help()
}

func (c *GetCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("get", flag.ContinueOnError))
	c.AddGlobalFlags(f)

	f.BoolVar(
		&c.flagEnvelope, "envelope", false,
		"Show the normalized response instead of the raw content",
	)
	f.StringVar(
		&c.flagFormat, "format", base.FormatJSON,
		"Output format for -envelope (json, yaml)",
	)
	f.StringVar(
		&c.flagOut, "out", "",
		"Write the content to this file instead of stdout",
	)

	return f
}

func (c *GetCommand) Run(args []string) int {
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

	if !c.flagEnvelope {
		data, err := a.Fragments.GetFragmentData(ctx, id)
		if err != nil {
			return c.Fail(err)
		}
		if err := c.writeRaw(data); err != nil {
			return c.Fail(err)
		}
		return 0
	}

	p, err := a.Fragments.GetFragment(ctx, id)
	if err != nil {
		return c.Fail(err)
	}
	if p == nil {
		c.UI.Output("No content")
		return 0
	}

	out := envelope{Status: p.Status, ContentType: p.ContentType}
	if p.IsJSON() {
		out.JSON = p.JSON
	} else {
		out.Text = p.Text()
	}
	if err := c.Print(c.flagFormat, out); err != nil {
		return c.Fail(err)
	}
	return 0
}

// writeRaw writes data exactly as stored, to -out when set.
func (c *GetCommand) writeRaw(data []byte) error {
	if c.flagOut != "" {
		if err := afero.WriteFile(c.Fs, c.flagOut, data, 0o644); err != nil {
			return fmt.Errorf("error writing %s: %w", c.flagOut, err)
		}
		c.UI.Info(fmt.Sprintf("Wrote %d bytes to %s", len(data), c.flagOut))
		return nil
	}

	w := c.Stdout
	if w == nil {
		w = os.Stdout
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("error writing content: %w", err)
	}
	return nil
}
