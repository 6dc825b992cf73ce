package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/fragments/internal/config"
	"github.com/hashicorp-forge/fragments/pkg/auth"
	"github.com/hashicorp-forge/fragments/pkg/fragments"
)

// App holds the clients a command works with.
type App struct {
	Config    *config.Config
	Logger    hclog.Logger
	Store     auth.SessionStore
	Fragments *fragments.Client

	fs         afero.Fs
	navigator  auth.Navigator
	httpClient *http.Client
	authOpts   []auth.Option
}

// Option configures an App.
type Option func(*App)

// WithFs sets the filesystem holding the session file.
func WithFs(fs afero.Fs) Option {
	return func(a *App) {
		a.fs = fs
	}
}

// WithNavigator sets how the user is sent to the identity provider.
func WithNavigator(n auth.Navigator) Option {
	return func(a *App) {
		a.navigator = n
	}
}

// WithHTTPClient sets the HTTP client used for the fragments service.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}

// WithAuthOptions appends options for the identity provider client.
func WithAuthOptions(opts ...auth.Option) Option {
	return func(a *App) {
		a.authOpts = append(a.authOpts, opts...)
	}
}

// New wires the session store and the fragments client. The fragments
// client authorizes with the stored session and needs no provider.
func New(cfg *config.Config, logger hclog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	a := &App{
		Config: cfg,
		Logger: logger,
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Store = auth.NewFileStore(a.fs, cfg.SessionFile)

	fcfg, err := cfg.FragmentsConfig()
	if err != nil {
		return nil, err
	}
	fopts := []fragments.Option{fragments.WithLogger(logger)}
	if a.httpClient != nil {
		fopts = append(fopts, fragments.WithHTTPClient(a.httpClient))
	}
	a.Fragments, err = fragments.NewClient(fcfg, &auth.StoreTokenSource{Store: a.Store}, fopts...)
	if err != nil {
		return nil, fmt.Errorf("error creating fragments client: %w", err)
	}

	return a, nil
}

// Auth discovers the identity provider and returns a client sharing the
// app's session store.
func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	if err := a.Config.RequireProvider(); err != nil {
		return nil, err
	}

	opts := []auth.Option{auth.WithLogger(a.Logger)}
	if a.navigator != nil {
		opts = append(opts, auth.WithNavigator(a.navigator))
	}
	opts = append(opts, a.authOpts...)

	return auth.NewClient(ctx, a.Config.AuthConfig(), a.Store, opts...)
}
