package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/internal/cmd/commands/configcmd"
	"github.com/hashicorp-forge/fragments/internal/cmd/commands/fragment"
	"github.com/hashicorp-forge/fragments/internal/cmd/commands/login"
	"github.com/hashicorp-forge/fragments/internal/cmd/commands/logout"
	"github.com/hashicorp-forge/fragments/internal/cmd/commands/version"
	"github.com/hashicorp-forge/fragments/internal/cmd/commands/whoami"
)

// Commands is the mapping of all available fragments commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"config": func() (cli.Command, error) {
			return &configcmd.Command{Command: b}, nil
		},
		"create": func() (cli.Command, error) {
			return &fragment.CreateCommand{Command: b}, nil
		},
		"delete": func() (cli.Command, error) {
			return &fragment.DeleteCommand{Command: b}, nil
		},
		"get": func() (cli.Command, error) {
			return &fragment.GetCommand{Command: b}, nil
		},
		"info": func() (cli.Command, error) {
			return &fragment.InfoCommand{Command: b}, nil
		},
		"list": func() (cli.Command, error) {
			return &fragment.ListCommand{Command: b}, nil
		},
		"login": func() (cli.Command, error) {
			return &login.Command{Command: b}, nil
		},
		"logout": func() (cli.Command, error) {
			return &logout.Command{Command: b}, nil
		},
		"update": func() (cli.Command, error) {
			return &fragment.UpdateCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
		"whoami": func() (cli.Command, error) {
			return &whoami.Command{Command: b}, nil
		},
	}
}
