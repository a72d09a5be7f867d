// =============================================================================
// Shop Payment Reports - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads and validates both
// sources exactly like 'report' does, prints every rejected record and writes
// nothing.
//
// COMMAND USAGE:
//   reports validate [--customers path] [--payments path] [--fail-on-reject]
//
// EXIT STATUS:
//   0 when the sources could be read. With --fail-on-reject, 1 when any
//   record was rejected.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/shop-payment-reports/internal/pipeline"
)

// errRejectedRecords is returned by --fail-on-reject.
var errRejectedRecords = errors.New("rejected records found")

// failOnReject turns rejected records into a failing exit status.
var failOnReject bool

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the sources without writing reports",
	Long: `The validate command reads the customer and payment sources configured in
the configuration file, validates every record and lists the rejected ones.
No report is written.

--customers and --payments check other files without editing the
configuration.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		applySourceFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		runner := pipeline.NewRunner(cfg)
		logger, err := newLogger(cfg, runner.RunID())
		if err != nil {
			return err
		}
		runner.SetLogger(logger)

		result, err := runner.Load(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		rejections := result.Rejections()

		fmt.Fprintf(out, "Customers: %d lines, %d accepted, %d rejected\n",
			result.CustomerLineCount, len(result.Customers), len(result.CustomerRejections))
		fmt.Fprintf(out, "Payments:  %d lines, %d accepted, %d rejected\n",
			result.PaymentLineCount, len(result.Payments), len(result.PaymentRejections))

		for _, rej := range rejections {
			fmt.Fprintf(out, "  ✗ %s %s\n", rej.Source, rej.Error())
		}

		if failOnReject && len(rejections) > 0 {
			return fmt.Errorf("%w: %d", errRejectedRecords, len(rejections))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&customersFile, "customers", "", "Path to the customer source")
	validateCmd.Flags().StringVar(&paymentsFile, "payments", "", "Path to the payment source")
	validateCmd.Flags().BoolVar(&failOnReject, "fail-on-reject", false, "Exit with status 1 when any record is rejected")
}
