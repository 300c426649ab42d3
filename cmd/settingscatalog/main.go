// Command settingscatalog builds the settings catalog from a provider table
// and serves or queries it.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"settingscatalog/internal/config"
	"settingscatalog/internal/service"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// app carries what every subcommand needs after flags are parsed
type app struct {
	cfgFile   string
	providers string
	logLevel  string

	cfg     *config.Config
	cfgPath string
	logger  *log.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "settingscatalog",
		Short: "Settings page catalog with path-to-root lookups",
		Long: `settingscatalog builds a catalog of settings pages and entries from a
provider table and answers where any entry sits in the page hierarchy.

Examples:
  settingscatalog pages                      List every page reachable from a root
  settingscatalog path <entry-id>            Show the path from an entry to its root
  settingscatalog path <entry-id> --title X  Same, using page titles
  settingscatalog export --format yaml       Dump the whole catalog
  settingscatalog serve --watch              Serve the HTTP API and reload on edits`,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: search $"+config.EnvConfigPath+", ./"+config.ConfigFileName+", XDG, /etc)")
	root.PersistentFlags().StringVarP(&a.providers, "providers", "p", "", "provider table file (overrides catalog.providers)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")

	root.AddCommand(
		newServeCmd(a),
		newPathCmd(a),
		newPagesCmd(a),
		newExportCmd(a),
		newSnapshotCmd(a),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nRun '%s --help' for usage", err, cmd.CommandPath())
	})

	return root
}

// setup loads config, applies flag overrides and builds the logger
func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.cfgFile != "" {
		a.cfg, a.cfgPath, err = config.LoadFromPath(a.cfgFile)
	} else {
		a.cfg, a.cfgPath, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.providers != "" {
		a.cfg.Catalog.Providers = a.providers
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger, err = a.cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if a.cfgPath != "" {
		a.logger.Debug("config loaded", "path", a.cfgPath)
	}
	return nil
}

// openCatalog builds the catalog service from the configured provider table
func (a *app) openCatalog(opts service.Options) (*service.CatalogService, error) {
	opts.Logger = a.logger
	opts.MaxEntries = a.cfg.Catalog.MaxEntries
	opts.MaxDepth = a.cfg.Catalog.MaxDepth

	svc, err := service.NewCatalogService(a.cfg.Catalog.Providers, opts)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w (set catalog.providers or pass --providers)", err)
		}
		return nil, err
	}
	return svc, nil
}
