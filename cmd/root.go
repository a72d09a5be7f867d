// =============================================================================
// Shop Payment Reports - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reports)
//   ├── reportCmd   (reports report)
//   ├── validateCmd (reports validate)
//   └── versionCmd  (reports version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration (shared by all subcommands)
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/shop-payment-reports/internal/config"
	"github.com/ginjaninja78/shop-payment-reports/internal/pipeline"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is used when --config is not given. It may be absent.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reports",
	Short: "Shop Payment Reports - Aggregate shop payments into CSV reports",
	Long: `Shop Payment Reports reads a customer file and a payment file exported by
the shops, validates every record and writes three reports:

  report01.csv  total paid per customer, in customer file order
  top.csv       the customers with the largest totals
  report02.csv  card and transfer totals per shop

Invalid records are logged and skipped; they never stop a run.

Example Usage:
  reports report                          # Use config.yaml if present
  reports report --config ./my.yaml       # Use a custom configuration file
  reports report --top 5 --xlsx           # Top five and an XLSX workbook
  reports validate                        # Check the inputs only`,

	// Errors are printed once by Execute.
	SilenceErrors: true,
	SilenceUsage:  true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
// An interrupt cancels the run between phases.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the configuration. A missing file is only an error when
// --config was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config")

	cfg, err := config.Load(cfgFile, !explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

// newLogger builds the logger for a run, tagged with the run id.
func newLogger(cfg *config.Config, runID string) (*log.Logger, error) {
	logger, err := pipeline.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return logger.With("run", runID), nil
}
