package configcmd

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/internal/config"
)

func newCommand(env map[string]string) (*Command, *cli.MockUi) {
	fs := afero.NewMemMapFs()
	ui := cli.NewMockUi()
	b := base.NewCommand(hclog.NewNullLogger(), ui)
	b.Fs = fs
	b.Loader = &config.Loader{
		Fs: fs,
		LookupEnv: func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		},
	}
	return &Command{Command: b}, ui
}

func TestConfigCommand(t *testing.T) {
	c, ui := newCommand(map[string]string{
		"FRAGMENTS_API_URL":      "https://fragments.example.com",
		"FRAGMENTS_SESSION_FILE": "/tmp/session.json",
		"OIDC_AUTHORITY":         "https://idp.example.com",
		"AWS_COGNITO_CLIENT_ID":  "cli-client",
	})

	require.Equal(t, 0, c.Run(nil), ui.ErrorWriter.String())
	out := ui.OutputWriter.String()
	assert.Contains(t, out, `"https://fragments.example.com"`)
	assert.Contains(t, out, `"cli-client"`)
	assert.Contains(t, out, `"/tmp/session.json"`)
	assert.Contains(t, out, "api {")
	assert.Contains(t, out, "auth {")
}

func TestConfigCommand_Invalid(t *testing.T) {
	c, ui := newCommand(map[string]string{
		"FRAGMENTS_SESSION_FILE": "/tmp/session.json",
		"FRAGMENTS_API_TIMEOUT":  "soon",
	})

	assert.Equal(t, 1, c.Run(nil))
	assert.Contains(t, ui.ErrorWriter.String(), "timeout")
}

func TestConfigCommand_MissingFile(t *testing.T) {
	c, ui := newCommand(map[string]string{
		"FRAGMENTS_CONFIG": "/etc/fragments/missing.hcl",
	})

	assert.Equal(t, 1, c.Run(nil))
	assert.NotEmpty(t, ui.ErrorWriter.String())
}
