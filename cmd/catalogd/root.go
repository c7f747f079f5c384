package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/catalogops/app"
	"github.com/jonwraymond/catalogops/config"
	"github.com/jonwraymond/catalogops/execctx"
	"github.com/jonwraymond/catalogops/observe"
	"github.com/jonwraymond/catalogops/secret"
)

// cli carries flags shared by every command.
type cli struct {
	configPath string
	logLevel   string

	// lookup reads the environment for execution-context resolution.
	lookup execctx.LookupFunc
}

func newRootCmd() *cobra.Command {
	c := &cli{lookup: os.LookupEnv}

	root := &cobra.Command{
		Use:   "catalogd",
		Short: "Marketplace catalog access layer",
		Long: `catalogd reads and writes marketplace catalog items.

A trusted process (no CATALOG_PROXY_URL) talks to the store directly and can
serve the authenticated /v1/items proxy API. A proxied process sends every
call to that API and never holds store credentials.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override observe.logLevel (debug|info|warn|error)")

	root.AddCommand(
		c.serveCmd(),
		c.queryCmd(),
		c.getCmd(),
		c.createCmd(),
		c.updateCmd(),
		c.statusCmd(),
		c.deleteCmd(),
	)
	return root
}

// bootstrap loads configuration, decides the execution context, resolves
// only the secrets that context may hold, then assembles the process.
func (c *cli) bootstrap(ctx context.Context) (*app.App, *config.Config, error) {
	cfg, err := config.Load(config.Options{Path: c.configPath})
	if err != nil {
		return nil, nil, err
	}
	if c.logLevel != "" {
		cfg.Observe.LogLevel = c.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	obs, err := observe.NewObserver(ctx, cfg.Telemetry())
	if err != nil {
		return nil, nil, err
	}
	logger := obs.Logger()

	ec := execctx.NewResolver(
		execctx.WithLookup(c.contextLookup(cfg)),
		execctx.WithOnResolve(func(ec execctx.Context, reason string) {
			logger.Info(ctx, "execution context resolved",
				observe.F("context", ec.String()),
				observe.F("reason", reason),
			)
		}),
	).Resolve()

	if err := c.resolveSecrets(ctx, cfg, ec); err != nil {
		_ = obs.Shutdown(ctx)
		return nil, nil, err
	}

	a, err := app.New(ctx, cfg, ec, app.WithObserver(obs))
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, nil, err
	}
	return a, cfg, nil
}

func (c *cli) resolveSecrets(ctx context.Context, cfg *config.Config, ec execctx.Context) error {
	resolver, err := secret.DefaultRegistry.NewResolver(true, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resolver.Close() }()
	return cfg.ResolveSecrets(ctx, resolver, ec)
}

// contextLookup lets the config file decide the execution context the same
// way the environment would.
func (c *cli) contextLookup(cfg *config.Config) execctx.LookupFunc {
	return func(key string) (string, bool) {
		switch {
		case key == execctx.EnvOverride && cfg.ExecutionContext != "":
			return cfg.ExecutionContext, true
		case key == execctx.EnvProxyURL && cfg.Proxy.URL != "":
			return cfg.Proxy.URL, true
		}
		return c.lookup(key)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
