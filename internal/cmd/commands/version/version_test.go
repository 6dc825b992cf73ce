package version

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/internal/version"
)

func TestVersionCommand(t *testing.T) {
	ui := cli.NewMockUi()
	c := &Command{Command: base.NewCommand(hclog.NewNullLogger(), ui)}

	assert.Equal(t, 0, c.Run(nil))
	assert.True(t, strings.HasPrefix(ui.OutputWriter.String(), "fragments v"+version.Version))
}
