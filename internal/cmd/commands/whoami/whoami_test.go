package whoami

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/internal/config"
)

const testSessionFile = "/home/test/.config/fragments/session.json"

func newCommand(t *testing.T, exp time.Time) (*Command, *cli.MockUi, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	if !exp.IsZero() {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
			"exp": exp.Unix(),
		}).SignedString([]byte("test-key"))
		require.NoError(t, err)
		session := fmt.Sprintf(`{"username":"ada","email":"ada@example.com","idToken":%q}`, token)
		require.NoError(t, afero.WriteFile(fs, testSessionFile, []byte(session), 0o600))
	}

	ui := cli.NewMockUi()
	b := base.NewCommand(hclog.NewNullLogger(), ui)
	b.Fs = fs
	b.Loader = &config.Loader{
		Fs: fs,
		LookupEnv: func(name string) (string, bool) {
			if name == "FRAGMENTS_SESSION_FILE" {
				return testSessionFile, true
			}
			return "", false
		},
	}
	return &Command{Command: b}, ui, fs
}

func TestWhoami(t *testing.T) {
	c, ui, _ := newCommand(t, time.Now().Add(time.Hour))

	require.Equal(t, 0, c.Run(nil), ui.ErrorWriter.String())
	out := ui.OutputWriter.String()
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "from now")
}

func TestWhoami_JSON(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	c, ui, _ := newCommand(t, exp)

	require.Equal(t, 0, c.Run([]string{"-format", "json"}), ui.ErrorWriter.String())

	var out identity
	require.NoError(t, json.Unmarshal([]byte(ui.OutputWriter.String()), &out))
	assert.Equal(t, "ada", out.Username)
	assert.Equal(t, "ada@example.com", out.Email)
	assert.True(t, exp.Equal(out.Expires))
	assert.NotContains(t, ui.OutputWriter.String(), "idToken")
}

func TestWhoami_NotSignedIn(t *testing.T) {
	c, ui, _ := newCommand(t, time.Time{})

	assert.Equal(t, 1, c.Run(nil))
	assert.Equal(t, "Not signed in\n", ui.OutputWriter.String())
}

func TestWhoami_ExpiredSessionRemoved(t *testing.T) {
	c, ui, fs := newCommand(t, time.Now().Add(-time.Minute))

	assert.Equal(t, 1, c.Run(nil))
	assert.Equal(t, "Not signed in\n", ui.OutputWriter.String())

	exists, err := afero.Exists(fs, testSessionFile)
	require.NoError(t, err)
	assert.False(t, exists)
}
