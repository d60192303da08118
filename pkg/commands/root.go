// Package commands is the portfolio command line: the HTTP server and
// contact inspection tools.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/navarrastar/portfolio/pkg/config"
	"github.com/navarrastar/portfolio/pkg/logger"
)

// app is the state shared by subcommands once the root has loaded config.
type app struct {
	configPath string
	logLevel   string

	cfg  *config.Config
	lggr logger.Logger
}

// NewRootCmd returns the portfolio command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Portfolio website and contact form backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.lggr != nil {
				_ = a.lggr.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		a.newServeCmd(),
		a.newContactsCmd(),
	)

	return root
}

func (a *app) load() error {
	if a.configPath == "" {
		a.configPath = os.Getenv("CONFIG_FILE")
	}
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lggr, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.lggr = lggr

	return nil
}
