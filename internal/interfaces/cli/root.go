// Package cli implements the hexatopo command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/HexaTopo/internal/application/query"
	"github.com/turtacn/HexaTopo/internal/config"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = config.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ServiceFactory builds the query service for a command invocation and
// returns a cleanup function.  The production factory wires the full stack
// through bootstrap; tests inject a stub.
type ServiceFactory func(ctx context.Context, cfg *config.Config, log logging.Logger) (query.Service, func(), error)

// RootOptions holds the global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Output     string
}

// NewRootCommand creates the root command with global flags and all
// subcommands mounted.
func NewRootCommand(factory ServiceFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "hexatopo",
		Short:   "HexaTopo CLI for topology predicate queries over hexagonal cell hierarchies",
		Long:    "HexaTopo evaluates topological predicates (intersects, within, contains,\nintersection) between feature sets addressed by attribute predicates, over\nmulti-resolution hexagonal cell tessellations.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment only)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "text", "output format (text, json)")

	cmd.AddCommand(NewQueryCmd(opts, factory))
	return cmd
}

// loadConfig resolves the effective configuration for a command: the
// explicit file when given, environment variables otherwise.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	return config.LoadFromEnv()
}

// newLogger builds a CLI logger honoring --log-level; CLI output itself
// goes to stdout, logs to stderr.
func newLogger(opts *RootOptions) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:       opts.LogLevel,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}

// Execute runs the root command and exits non-zero on error.
func Execute(factory ServiceFactory) {
	if err := NewRootCommand(factory).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
