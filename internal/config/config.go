package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/fragments/pkg/auth"
	"github.com/hashicorp-forge/fragments/pkg/fragments"
)

const (
	DefaultBaseURL     = "http://localhost:8080"
	DefaultRedirectURI = "http://localhost:1234"
	DefaultTimeout     = "30s"
	DefaultLogLevel    = "warn"
)

// Config contains the fragments CLI configuration.
type Config struct {
	// API configures the fragments service.
	API *API `hcl:"api,block" json:"api"`

	// Auth configures the identity provider.
	Auth *Auth `hcl:"auth,block" json:"auth"`

	// SessionFile is where the signed-in session is kept.
	SessionFile string `hcl:"session_file,optional" json:"session_file"`

	// LogLevel is the log level (trace, debug, info, warn, error, off).
	LogLevel string `hcl:"log_level,optional" json:"log_level"`
}

// API configures the fragments service.
type API struct {
	BaseURL     string `hcl:"base_url,optional" json:"base_url"`
	Timeout     string `hcl:"timeout,optional" json:"timeout"`
	TLSVerify   *bool  `hcl:"tls_verify,optional" json:"tls_verify"`
	Concurrency int    `hcl:"concurrency,optional" json:"concurrency"`
}

// Auth configures the OIDC provider. Authority may be left empty for an
// Amazon Cognito user pool, in which case it is derived from Region and
// UserPoolID.
type Auth struct {
	Authority         string   `hcl:"authority,optional" json:"authority"`
	Region            string   `hcl:"region,optional" json:"region"`
	UserPoolID        string   `hcl:"user_pool_id,optional" json:"user_pool_id"`
	ClientID          string   `hcl:"client_id,optional" json:"client_id"`
	ClientSecret      string   `hcl:"client_secret,optional" json:"client_secret"`
	RedirectURI       string   `hcl:"redirect_uri,optional" json:"redirect_uri"`
	LogoutURL         string   `hcl:"logout_url,optional" json:"logout_url"`
	LogoutRedirectURI string   `hcl:"logout_redirect_uri,optional" json:"logout_redirect_uri"`
	Scopes            []string `hcl:"scopes,optional" json:"scopes"`
}

// envOverrides maps environment variables onto configuration fields. Later
// entries for the same field win.
var envOverrides = []struct {
	name  string
	apply func(c *Config, v string)
}{
	{"API_URL", func(c *Config, v string) { c.API.BaseURL = v }},
	{"FRAGMENTS_API_URL", func(c *Config, v string) { c.API.BaseURL = v }},
	{"FRAGMENTS_API_TIMEOUT", func(c *Config, v string) { c.API.Timeout = v }},
	{"OIDC_AUTHORITY", func(c *Config, v string) { c.Auth.Authority = v }},
	{"AWS_REGION", func(c *Config, v string) { c.Auth.Region = v }},
	{"AWS_COGNITO_POOL_ID", func(c *Config, v string) { c.Auth.UserPoolID = v }},
	{"AWS_COGNITO_CLIENT_ID", func(c *Config, v string) { c.Auth.ClientID = v }},
	{"OAUTH_SIGN_IN_REDIRECT_URL", func(c *Config, v string) { c.Auth.RedirectURI = v }},
	{"OAUTH_SIGN_OUT_REDIRECT_URL", func(c *Config, v string) { c.Auth.LogoutRedirectURI = v }},
	{"AWS_COGNITO_LOGOUT_URL", func(c *Config, v string) { c.Auth.LogoutURL = v }},
	{"FRAGMENTS_SESSION_FILE", func(c *Config, v string) { c.SessionFile = v }},
	{"FRAGMENTS_LOG_LEVEL", func(c *Config, v string) { c.LogLevel = v }},
}

// Loader reads configuration from an optional HCL file and the environment.
type Loader struct {
	// Fs is the filesystem the configuration file is read from.
	Fs afero.Fs

	// LookupEnv reads environment variables.
	LookupEnv func(string) (string, bool)

	// ResolveRegion returns the AWS region from the shared configuration
	// chain. It is only called when a Cognito pool has no region.
	ResolveRegion func(context.Context) (string, error)
}

// NewLoader returns a loader backed by the OS filesystem, process
// environment and AWS shared configuration.
func NewLoader() *Loader {
	return &Loader{
		Fs:            afero.NewOsFs(),
		LookupEnv:     os.LookupEnv,
		ResolveRegion: awsRegion,
	}
}

// Load is NewLoader().Load.
func Load(ctx context.Context, path string) (*Config, error) {
	return NewLoader().Load(ctx, path)
}

// Load decodes the file at path (if not empty), applies environment
// overrides and defaults, and validates the result.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		src, err := afero.ReadFile(l.Fs, path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := hclsimple.Decode(filepath.Base(path), src, nil, cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}
	if cfg.API == nil {
		cfg.API = &API{}
	}
	if cfg.Auth == nil {
		cfg.Auth = &Auth{}
	}

	for _, o := range envOverrides {
		if v, ok := l.LookupEnv(o.name); ok && v != "" {
			o.apply(cfg, v)
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.deriveAuthority(ctx, l.ResolveRegion); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultTimeout
	}
	if c.Auth.RedirectURI == "" {
		c.Auth.RedirectURI = DefaultRedirectURI
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.SessionFile == "" {
		path, err := DefaultSessionFile()
		if err != nil {
			return err
		}
		c.SessionFile = path
	}
	return nil
}

// deriveAuthority fills in the Cognito issuer when only a user pool is
// configured. Pool IDs carry their region as a prefix ("us-east-1_AbC").
func (c *Config) deriveAuthority(ctx context.Context, resolve func(context.Context) (string, error)) error {
	a := c.Auth
	if a.Authority != "" || a.UserPoolID == "" {
		return nil
	}

	if a.Region == "" {
		if region, _, ok := strings.Cut(a.UserPoolID, "_"); ok && region != "" {
			a.Region = region
		}
	}
	if a.Region == "" && resolve != nil {
		region, err := resolve(ctx)
		if err != nil {
			return fmt.Errorf("error resolving AWS region: %w", err)
		}
		a.Region = region
	}
	if a.Region == "" {
		return errors.New("auth.region is required to derive the authority from a user pool")
	}

	a.Authority = fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", a.Region, a.UserPoolID)
	return nil
}

// Validate validates the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.API, validation.Required),
		validation.Field(&c.Auth, validation.Required),
		validation.Field(&c.SessionFile, validation.Required),
		validation.Field(&c.LogLevel,
			validation.In("trace", "debug", "info", "warn", "error", "off")),
	)
}

// Validate validates the API configuration.
func (a API) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.BaseURL, validation.Required, is.URL),
		validation.Field(&a.Timeout, validation.By(isDuration)),
		validation.Field(&a.Concurrency, validation.Min(0)),
	)
}

// Validate validates the auth configuration. Provider settings are only
// required by commands that talk to the provider, see RequireProvider.
func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Authority, is.URL),
		validation.Field(&a.RedirectURI, validation.Required, is.URL),
		validation.Field(&a.LogoutURL, is.URL),
		validation.Field(&a.LogoutRedirectURI, is.URL),
	)
}

// RequireProvider checks that the identity provider is configured.
func (c *Config) RequireProvider() error {
	a := c.Auth
	if a == nil {
		a = &Auth{}
	}
	err := validation.ValidateStruct(a,
		validation.Field(&a.Authority,
			validation.Required.Error("is required (set authority or user_pool_id)")),
		validation.Field(&a.ClientID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

func isDuration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 30s")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// FragmentsConfig returns the fragments client configuration.
func (c *Config) FragmentsConfig() (*fragments.Config, error) {
	timeout, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return nil, fmt.Errorf("error parsing api.timeout: %w", err)
	}
	return &fragments.Config{
		BaseURL:     c.API.BaseURL,
		TLSVerify:   c.API.TLSVerify,
		Timeout:     timeout,
		Concurrency: c.API.Concurrency,
	}, nil
}

// AuthConfig returns the identity provider configuration.
func (c *Config) AuthConfig() *auth.Config {
	return &auth.Config{
		Authority:             c.Auth.Authority,
		ClientID:              c.Auth.ClientID,
		ClientSecret:          c.Auth.ClientSecret,
		RedirectURL:           c.Auth.RedirectURI,
		LogoutURL:             c.Auth.LogoutURL,
		PostLogoutRedirectURL: c.Auth.LogoutRedirectURI,
		Scopes:                append([]string(nil), c.Auth.Scopes...),
	}
}

// Encode renders the effective configuration as HCL. The client secret is
// redacted.
func (c *Config) Encode() []byte {
	redacted := *c
	if c.API != nil {
		api := *c.API
		if api.TLSVerify == nil {
			verify := true
			api.TLSVerify = &verify
		}
		redacted.API = &api
	}
	if c.Auth != nil {
		a := *c.Auth
		if a.ClientSecret != "" {
			a.ClientSecret = "REDACTED"
		}
		if len(a.Scopes) == 0 {
			a.Scopes = append([]string(nil), auth.DefaultScopes...)
		}
		redacted.Auth = &a
	}

	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(&redacted, f.Body())
	return f.Bytes()
}

// DefaultSessionFile returns the session file location under the user
// configuration directory.
func DefaultSessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error finding user config directory: %w", err)
	}
	return filepath.Join(dir, "fragments", "session.json"), nil
}

func awsRegion(ctx context.Context) (string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	return awsCfg.Region, nil
}
