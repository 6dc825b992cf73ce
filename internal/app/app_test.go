package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/fragments/internal/config"
	"github.com/hashicorp-forge/fragments/pkg/auth"
	"github.com/hashicorp-forge/fragments/pkg/fragments"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	l := &config.Loader{
		Fs: afero.NewMemMapFs(),
		LookupEnv: func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		},
	}
	cfg, err := l.Load(context.Background(), "")
	require.NoError(t, err)
	return cfg
}

func TestNew_FragmentsUseStoredSession(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	var gotAuth atomic.Value
	gotAuth.Store("")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","fragments":["a","b"]}`))
	}))
	defer server.Close()

	cfg := testConfig(t, map[string]string{
		"FRAGMENTS_API_URL":      server.URL,
		"FRAGMENTS_SESSION_FILE": "/home/test/session.json",
	})

	fs := afero.NewMemMapFs()
	a, err := New(cfg, hclog.NewNullLogger(), WithFs(fs))
	require.NoError(t, err)

	_, err = a.Fragments.GetFragments(context.Background(), false)
	assert.True(t, fragments.IsAuthentication(err))
	assert.Empty(t, gotAuth.Load())

	require.NoError(t, a.Store.Set(&auth.Session{Username: "ada", IDToken: token}))
	exists, err := afero.Exists(fs, "/home/test/session.json")
	require.NoError(t, err)
	require.True(t, exists)

	entries, err := a.Fragments.GetFragments(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, fragments.IDs(entries))
	assert.Equal(t, "Bearer "+token, gotAuth.Load())
}

func TestAuth_RequiresProvider(t *testing.T) {
	cfg := testConfig(t, map[string]string{"FRAGMENTS_SESSION_FILE": "/tmp/session.json"})

	a, err := New(cfg, nil, WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)

	_, err = a.Auth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authority")
}

func TestAuth_DiscoveryFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	cfg := testConfig(t, map[string]string{
		"FRAGMENTS_SESSION_FILE": "/tmp/session.json",
		"OIDC_AUTHORITY":         server.URL,
		"AWS_COGNITO_CLIENT_ID":  "cli-client",
	})

	a, err := New(cfg, nil,
		WithFs(afero.NewMemMapFs()),
		WithAuthOptions(auth.WithBackOff(&backoff.StopBackOff{})),
	)
	require.NoError(t, err)

	_, err = a.Auth(context.Background())
	assert.True(t, auth.IsAuthError(err, auth.CodeDiscoveryFailed), "got %v", err)
}
