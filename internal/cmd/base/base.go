package base

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/fragments/internal/app"
	"github.com/hashicorp-forge/fragments/internal/config"
)

// Command is embedded by every fragments subcommand.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	// Loader reads configuration. Defaults to config.NewLoader().
	Loader *config.Loader

	// Fs holds the session file and content files named on the command line.
	Fs afero.Fs

	// Stdin is read when content is piped to a command.
	Stdin io.Reader

	// Stdout receives raw fragment content, written without a trailing
	// newline.
	Stdout io.Writer

	// AppOptions are passed to app.New.
	AppOptions []app.Option

	flagConfig   string
	flagLogLevel string
}

// NewCommand returns a base command writing logs to log and output to ui.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log:    log,
		UI:     ui,
		Loader: config.NewLoader(),
		Fs:     afero.NewOsFs(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
}

// AddGlobalFlags registers the flags shared by all commands.
func (c *Command) AddGlobalFlags(f *FlagSet) {
	f.StringVar(
		&c.flagConfig, "config", "",
		"[FRAGMENTS_CONFIG] Path to an HCL configuration file",
	)
	f.StringVar(
		&c.flagLogLevel, "log-level", "",
		"[FRAGMENTS_LOG_LEVEL] Log level (trace, debug, info, warn, error)",
	)
}

// LoadConfig loads configuration and applies the configured log level.
func (c *Command) LoadConfig(ctx context.Context) (*config.Config, error) {
	loader := c.Loader
	if loader == nil {
		loader = config.NewLoader()
	}

	path := c.flagConfig
	if path == "" {
		if v, ok := loader.LookupEnv("FRAGMENTS_CONFIG"); ok {
			path = v
		}
	}

	cfg, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if c.flagLogLevel != "" {
		cfg.LogLevel = c.flagLogLevel
	}
	c.Log.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	return cfg, nil
}

// App loads configuration and wires the application.
func (c *Command) App(ctx context.Context) (*app.App, error) {
	cfg, err := c.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	opts := c.AppOptions
	if c.Fs != nil {
		opts = append([]app.Option{app.WithFs(c.Fs)}, opts...)
	}
	return app.New(cfg, c.Log, opts...)
}

// Context returns a context canceled on interrupt.
func (c *Command) Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
