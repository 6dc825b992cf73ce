package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// callbackParams are removed from the address after a completed sign-in.
var callbackParams = []string{"code", "state", "session_state", "error", "error_description"}

// Client signs the user in against an OIDC provider using the authorization
// code flow with PKCE and keeps the resulting session in a SessionStore.
//
// A Client is safe for concurrent use.
type Client struct {
	config     *Config
	oauth2     *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	store      SessionStore
	navigator  Navigator
	httpClient *http.Client
	backOff    backoff.BackOff
	logger     hclog.Logger
	now        func() time.Time
	pending    *pendingLogins

	// current is the session from the last sign-in in this process. It holds
	// fields a store may not persist, such as the access token.
	mu      sync.Mutex
	current *Session
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithNavigator sets how the user is sent to the provider. Defaults to
// BrowserNavigator.
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithHTTPClient sets the HTTP client used for discovery, key retrieval and
// token exchange.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithBackOff overrides the discovery retry policy.
func WithBackOff(b backoff.BackOff) Option {
	return func(c *Client) {
		c.backOff = b
	}
}

// NewClient discovers the provider described by cfg and returns a client
// storing sessions in store. Discovery is retried with exponential backoff.
func NewClient(ctx context.Context, cfg *Config, store SessionStore, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, NewError(CodeConfigInvalid, "config is required")
	}
	if store == nil {
		return nil, NewError(CodeConfigInvalid, "session store is required")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:    cfg,
		store:     store,
		navigator: BrowserNavigator{},
		logger:    hclog.NewNullLogger(),
		now:       time.Now,
		pending:   newPendingLogins(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("auth")

	if c.backOff == nil {
		b := backoff.NewExponentialBackOff()
		if cfg.DiscoveryRetries > 0 {
			c.backOff = backoff.WithMaxRetries(b, uint64(cfg.DiscoveryRetries))
		} else {
			c.backOff = &backoff.StopBackOff{}
		}
	}

	// The provider keeps this context for fetching signing keys, so it must
	// outlive the caller's.
	discoveryCtx := c.httpContext(context.WithoutCancel(ctx))

	var provider *oidc.Provider
	discover := func() error {
		p, err := oidc.NewProvider(discoveryCtx, cfg.Authority)
		if err != nil {
			return err
		}
		provider = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("provider discovery failed, retrying",
			"authority", cfg.Authority,
			"error", err,
			"wait", wait,
		)
	}
	if err := backoff.RetryNotify(discover, backoff.WithContext(c.backOff, ctx), notify); err != nil {
		return nil, WrapError(CodeDiscoveryFailed,
			fmt.Sprintf("failed to discover OIDC provider at %s", cfg.Authority), err)
	}

	endpoint := provider.Endpoint()
	if cfg.ClientSecret == "" {
		// Public clients identify themselves in the request body.
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	c.oauth2 = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       cfg.Scopes,
	}
	c.verifier = provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
		Now:      c.now,
	})

	c.logger.Debug("provider discovered",
		"authority", cfg.Authority,
		"authorization_endpoint", c.oauth2.Endpoint.AuthURL,
	)

	return c, nil
}

// httpContext attaches the configured HTTP client for go-oidc and oauth2.
func (c *Client) httpContext(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	ctx = oidc.ClientContext(ctx, c.httpClient)
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// BeginLogin records a new pending sign-in and returns the provider URL the
// user must visit.
func (c *Client) BeginLogin() (string, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	c.pending.add(state, verifier, c.now())

	return c.oauth2.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// SignIn starts a sign-in and navigates the user to the provider.
func (c *Client) SignIn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	loginURL, err := c.BeginLogin()
	if err != nil {
		return err
	}

	c.logger.Info("redirecting to identity provider")
	if err := c.navigator.Navigate(loginURL); err != nil {
		return WrapError(CodeNavigationFailed, "failed to open sign-in page", err)
	}
	return nil
}

// CompleteLoginIfPending finishes a sign-in when currentURL carries an
// authorization code. It returns nil without error when there is nothing to
// complete.
func (c *Client) CompleteLoginIfPending(ctx context.Context, currentURL string) (*Session, error) {
	u, err := url.Parse(currentURL)
	if err != nil {
		return nil, WrapError(CodeCallbackInvalid, "invalid callback URL", err)
	}
	q := u.Query()

	if e := q.Get("error"); e != "" {
		msg := e
		if desc := q.Get("error_description"); desc != "" {
			msg = fmt.Sprintf("%s: %s", e, desc)
		}
		c.pending.take(q.Get("state"), c.now())
		return nil, NewError(CodeLoginRejected, msg)
	}

	code := q.Get("code")
	if code == "" {
		return nil, nil
	}

	verifier, ok := c.pending.take(q.Get("state"), c.now())
	if !ok {
		return nil, NewError(CodeStateMismatch, "callback state does not match a pending sign-in")
	}

	httpCtx := c.httpContext(ctx)
	token, err := c.oauth2.Exchange(httpCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, WrapError(CodeTokenExchangeFailed, "failed to exchange authorization code", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, NewError(CodeIDTokenInvalid, "token response has no id_token")
	}

	idToken, err := c.verifier.Verify(httpCtx, rawIDToken)
	if err != nil {
		return nil, WrapError(CodeIDTokenInvalid, "failed to verify ID token", err)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, WrapError(CodeIDTokenInvalid, "failed to parse ID token claims", err)
	}

	session := &Session{
		Username:    claims.username(),
		Email:       claims.Email,
		IDToken:     rawIDToken,
		AccessToken: token.AccessToken,
		Expiry:      idToken.Expiry,
	}
	if err := c.store.Set(session); err != nil {
		return nil, WrapError(CodeStoreFailed, "failed to store session", err)
	}
	c.setCurrent(session)

	c.logger.Info("user authenticated",
		"username", session.Username,
		"expires", session.Expiry,
	)

	return session, nil
}

// GetUser completes a pending sign-in carried by currentURL, if any, and
// returns the signed-in user. It returns nil without error when nobody is
// signed in.
func (c *Client) GetUser(ctx context.Context, currentURL string) (*User, error) {
	if currentURL != "" {
		session, err := c.CompleteLoginIfPending(ctx, currentURL)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session.User(), nil
		}
	}

	session, err := c.session()
	if err != nil {
		return nil, err
	}
	return session.User(), nil
}

// session returns the current session if it is still valid. The store is the
// source of truth; the in-process session only fills in what the store did
// not keep, and only while both carry the same ID token.
func (c *Client) session() (*Session, error) {
	s, err := c.store.Get()
	if err != nil {
		return nil, WrapError(CodeStoreFailed, "failed to read session", err)
	}
	now := c.now()
	if !s.Valid(now) {
		c.setCurrent(nil)
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.IDToken != s.IDToken {
		c.current = nil
		return s, nil
	}
	merged := *s
	if merged.AccessToken == "" {
		merged.AccessToken = c.current.AccessToken
	}
	return &merged, nil
}

func (c *Client) setCurrent(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.current = nil
		return
	}
	cp := *s
	c.current = &cp
}

// IDToken returns the ID token of the current session.
func (c *Client) IDToken() (string, bool) {
	s, err := c.session()
	if err != nil {
		c.logger.Debug("error reading session", "error", err)
		return "", false
	}
	if s == nil {
		return "", false
	}
	return s.IDToken, true
}

// AccessToken returns the access token of the current session.
func (c *Client) AccessToken() (string, bool) {
	s, err := c.session()
	if err != nil {
		c.logger.Debug("error reading session", "error", err)
		return "", false
	}
	if s == nil || s.AccessToken == "" {
		return "", false
	}
	return s.AccessToken, true
}

// Token implements oauth2.TokenSource. The bearer credential is the ID
// token, which is what the fragments service verifies.
func (c *Client) Token() (*oauth2.Token, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	return sessionToken(s)
}

// SignOut clears the local session and sends the user to the provider's
// logout endpoint. If the session cannot be cleared no navigation happens;
// the caller may still use LogoutURL.
func (c *Client) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.store.Clear(); err != nil {
		return WrapError(CodeSignOutFailed, "failed to clear session", err)
	}
	c.setCurrent(nil)
	c.pending.clear()
	c.logger.Info("session cleared")

	logoutURL := c.LogoutURL()
	if logoutURL == "" {
		return nil
	}
	if err := c.navigator.Navigate(logoutURL); err != nil {
		return WrapError(CodeNavigationFailed, "failed to open logout page", err)
	}
	return nil
}

// LogoutURL returns the provider logout address for this client, or an empty
// string when no logout endpoint is configured.
func (c *Client) LogoutURL() string {
	if c.config.LogoutURL == "" {
		return ""
	}
	u, err := url.Parse(c.config.LogoutURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("client_id", c.config.ClientID)
	if c.config.PostLogoutRedirectURL != "" {
		q.Set("logout_uri", c.config.PostLogoutRedirectURL)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// StripCallbackParams removes sign-in callback parameters from rawURL so the
// address can be shown or bookmarked without them.
func StripCallbackParams(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for _, p := range callbackParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// HasCallbackParams reports whether rawURL carries a sign-in response.
func HasCallbackParams(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	q := u.Query()
	return q.Get("code") != "" || q.Get("error") != ""
}
