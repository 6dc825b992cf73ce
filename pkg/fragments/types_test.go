package fragments

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_UnmarshalJSON(t *testing.T) {
	var entries []Entry
	err := json.Unmarshal([]byte(`[
		"abc",
		{"id":"def","ownerId":"o","created":"2025-01-02T03:04:05.000Z","updated":"2025-01-02T03:04:06.000Z","type":"text/plain","size":5}
	]`), &entries)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "abc", entries[0].ID)
	assert.Nil(t, entries[0].Fragment)

	assert.Equal(t, "def", entries[1].ID)
	require.NotNil(t, entries[1].Fragment)
	assert.Equal(t, int64(5), entries[1].Fragment.Size)
	assert.True(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Equal(entries[1].Fragment.Created))

	var bad Entry
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))

	var null Entry
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.True(t, null.isZero())
}

func TestFragment_MediaType(t *testing.T) {
	tests := []struct {
		contentType string
		mediaType   string
		text        bool
		json        bool
	}{
		{"text/plain", "text/plain", true, false},
		{"text/plain; charset=utf-8", "text/plain", true, false},
		{"text/markdown", "text/markdown", true, false},
		{"application/json", "application/json", false, true},
		{"application/ld+json; charset=utf-8", "application/ld+json", false, true},
		{"image/png", "image/png", false, false},
		{"", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			f := &Fragment{Type: tt.contentType}
			assert.Equal(t, tt.mediaType, f.MediaType())
			assert.Equal(t, tt.text, f.IsText())
			assert.Equal(t, tt.json, f.IsJSON())
		})
	}
}

func TestErrors_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "authentication without status",
			err:      &AuthenticationError{Op: "GetFragments", Err: ErrNoToken},
			expected: "GetFragments: no identity token available",
		},
		{
			name:     "authentication with message",
			err:      &AuthenticationError{Op: "GetFragments", Status: 401, Message: "Unauthorized", Err: ErrSessionInvalid},
			expected: "GetFragments: Unauthorized: session is no longer valid",
		},
		{
			name:     "network",
			err:      &NetworkError{Op: "DeleteFragment", Err: errors.New("connection refused")},
			expected: "DeleteFragment: network error: connection refused",
		},
		{
			name:     "api",
			err:      &APIError{Op: "GetFragmentMetadata", Status: 404, Message: "fragment not found"},
			expected: "GetFragmentMetadata: API error (status 404): fragment not found",
		},
		{
			name:     "validation",
			err:      &ValidationError{Op: "DeleteFragment", Field: "id", Message: "fragment id is required"},
			expected: "DeleteFragment: invalid id: fragment id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrors_Kinds(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	netErr := &NetworkError{Op: "GetFragments", Err: cause}
	assert.ErrorIs(t, netErr, cause)
	assert.True(t, IsNetwork(netErr))
	assert.False(t, IsAuthentication(netErr))
	assert.False(t, IsValidation(netErr))

	wrapped := errors.Join(errors.New("context"), &ValidationError{Op: "x", Field: "id"})
	assert.True(t, IsValidation(wrapped))

	assert.Equal(t, 500, StatusCode(&APIError{Status: 500}))
	assert.Equal(t, 401, StatusCode(&AuthenticationError{Status: 401, Err: ErrSessionInvalid}))
	assert.Zero(t, StatusCode(cause))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid config",
			config: &Config{BaseURL: "https://fragments.example.com"},
		},
		{
			name:      "missing base URL",
			config:    &Config{},
			wantError: true,
			errorMsg:  "base_url",
		},
		{
			name:      "invalid URL scheme",
			config:    &Config{BaseURL: "ftp://fragments.example.com"},
			wantError: true,
			errorMsg:  "scheme",
		},
		{
			name:      "missing host",
			config:    &Config{BaseURL: "http://"},
			wantError: true,
			errorMsg:  "host",
		},
		{
			name:      "negative timeout",
			config:    &Config{BaseURL: "http://localhost:8080", Timeout: -time.Second},
			wantError: true,
			errorMsg:  "timeout",
		},
		{
			name:      "negative concurrency",
			config:    &Config{BaseURL: "http://localhost:8080", Concurrency: -1},
			wantError: true,
			errorMsg:  "concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{BaseURL: "http://localhost:8080"}
	cfg.applyDefaults()

	require.NotNil(t, cfg.TLSVerify)
	assert.True(t, *cfg.TLSVerify)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.Concurrency)

	insecure := false
	cfg = &Config{BaseURL: "https://localhost", TLSVerify: &insecure, Timeout: time.Second}
	hc := cfg.NewHTTPClient()
	assert.Equal(t, time.Second, hc.Timeout)
}
