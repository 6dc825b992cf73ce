package configcmd

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Show the effective configuration"
}

func (c *Command) Help() string {
	return `Usage: fragments config [options]

  Print the configuration after the config file, environment and defaults
  have been applied, in HCL. The output can be saved and passed back with
  -config.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("config", flag.ContinueOnError))
	c.AddGlobalFlags(f)
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

	cfg, err := c.LoadConfig(ctx)
	if err != nil {
		return c.Fail(err)
	}

	c.UI.Output(strings.TrimRight(string(cfg.Encode()), "\n"))
	return 0
}
