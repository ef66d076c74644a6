// Package cli implements fleetctl, the operator command line for the fleet service.
package cli

import (
	"fmt"
	"io"

	"github.com/richxcame/fleet/pkg/config"
	"github.com/richxcame/fleet/pkg/logger"
	"github.com/spf13/cobra"
)

const serviceName = "fleetctl"

type app struct {
	logLevel string
	stdout   io.Writer
	stderr   io.Writer
}

// NewRootCommand assembles fleetctl and its subcommands
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Manage fleet vehicles and their documents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSubmitCommand(a),
		newShowCommand(a),
		newMigrateCommand(a),
		newWatchCommand(a),
	)
	return root
}

// setup loads configuration and initializes the global logger
func (a *app) setup() (*config.Config, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Config{
		Environment: cfg.Server.Environment,
		Level:       a.logLevel,
		ServiceName: serviceName,
	}); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, nil
}
