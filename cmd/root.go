// Package cmd implements the market-classifier command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/config"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	debug      bool
	locale     string
}

// env is the loaded configuration and logger for one command run.
type env struct {
	cfg *config.Config
	log logger.Logger
}

func (g *globalFlags) load() (*env, error) {
	cfg, err := bootstrap.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.debug {
		cfg.Service.Debug = true
	}
	if g.locale != "" {
		cfg.Classification.LabelLocale = g.locale
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

// components wires the service for a command. Callers must Close the result.
func (e *env) components(ctx context.Context, opts bootstrap.Options) (*bootstrap.Components, error) {
	c, err := bootstrap.New(ctx, e.cfg, e.log, opts)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return c, nil
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "market-classifier",
		Short:         "Classify market news into geography and domain categories",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"config file (default $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flags.locale, "locale", "", "category label locale: en or ko")

	root.AddCommand(
		newHTTPDCommand(flags),
		newClassifyCommand(flags),
		newSimulateCommand(flags),
		newFillCommand(flags),
		newMasterCommand(flags),
		newNewsCommand(flags),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "market-classifier %s\n", Version)
		},
	}
}
