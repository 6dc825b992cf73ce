package auth

import (
	"fmt"
	"net/url"
)

// DefaultScopes are requested when Config.Scopes is empty.
var DefaultScopes = []string{"openid", "email", "phone"}

// DefaultDiscoveryRetries is the number of discovery retries after the first
// failed attempt.
const DefaultDiscoveryRetries = 3

// Config holds the identity provider settings.
type Config struct {
	// Authority is the OIDC issuer URL. Discovery is performed against
	// <Authority>/.well-known/openid-configuration.
	Authority string

	// ClientID is the OAuth2 client identifier registered with the provider.
	ClientID string

	// ClientSecret is optional. Public clients rely on PKCE alone.
	ClientSecret string

	// RedirectURL receives the authorization code after sign-in.
	RedirectURL string

	// LogoutURL is the provider's logout endpoint. Sign-out only clears local
	// state when it is empty.
	LogoutURL string

	// PostLogoutRedirectURL is where the provider returns the user after
	// logout. Defaults to the origin of RedirectURL.
	PostLogoutRedirectURL string

	// Scopes requested at sign-in.
	Scopes []string

	// DiscoveryRetries bounds retries of provider discovery. Zero uses
	// DefaultDiscoveryRetries, negative disables retries.
	DiscoveryRetries int
}

func (c *Config) applyDefaults() {
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string(nil), DefaultScopes...)
	}
	if c.PostLogoutRedirectURL == "" && c.RedirectURL != "" {
		if u, err := url.Parse(c.RedirectURL); err == nil && u.Host != "" {
			c.PostLogoutRedirectURL = u.Scheme + "://" + u.Host
		}
	}
	if c.DiscoveryRetries == 0 {
		c.DiscoveryRetries = DefaultDiscoveryRetries
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Authority == "" {
		return NewError(CodeConfigInvalid, "authority is required")
	}
	if err := validateURL("authority", c.Authority); err != nil {
		return err
	}
	if c.ClientID == "" {
		return NewError(CodeConfigInvalid, "client_id is required")
	}
	if c.RedirectURL == "" {
		return NewError(CodeConfigInvalid, "redirect_url is required")
	}
	if err := validateURL("redirect_url", c.RedirectURL); err != nil {
		return err
	}
	if c.LogoutURL != "" {
		if err := validateURL("logout_url", c.LogoutURL); err != nil {
			return err
		}
	}
	if c.PostLogoutRedirectURL != "" {
		if err := validateURL("post_logout_redirect_url", c.PostLogoutRedirectURL); err != nil {
			return err
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return WrapError(CodeConfigInvalid, fmt.Sprintf("invalid %s", field), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewError(CodeConfigInvalid,
			fmt.Sprintf("%s must use http or https scheme, got %q", field, u.Scheme))
	}
	if u.Host == "" {
		return NewError(CodeConfigInvalid, fmt.Sprintf("%s must include a host", field))
	}
	return nil
}
