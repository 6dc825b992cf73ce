package version

import (
	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: fragments version

  Print the fragments CLI version.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.String())
	return 0
}
