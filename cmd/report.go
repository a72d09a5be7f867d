// =============================================================================
// Shop Payment Reports - Report Command
// =============================================================================
//
// This file defines the 'report' command, which runs the full pipeline and
// writes the reports.
//
// COMMAND USAGE:
//   reports report [flags]
//
// FLAGS:
//   --customers   : Customer source (overrides customers_file)
//   --payments    : Payment source (overrides payments_file)
//   --output-dir  : Report directory (overrides output_dir)
//   --top         : Size of the top report (overrides top_n)
//   --xlsx        : Also write the XLSX workbook
//   --dry-run     : Process the sources without writing any file
//   --progress    : Show a progress bar while validating records
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/shop-payment-reports/internal/config"
	"github.com/ginjaninja78/shop-payment-reports/internal/pipeline"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	customersFile string
	paymentsFile  string
	outputDir     string
	topN          int
	xlsxReport    bool
	dryRun        bool
	showProgress  bool
)

// =============================================================================
// REPORT COMMAND DEFINITION
// =============================================================================

// reportCmd represents the 'report' command.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Validate the sources and write the reports",
	Long: `The report command reads the customer and payment sources, validates every
record and writes the customer totals, top customers and shop totals reports.

Rejected records are logged at error level and skipped. The run fails only
when a source cannot be read (unless lenient_sources is set) or a report
cannot be written.

Reports are replaced atomically: a reader never sees a partial file.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyReportFlags(cmd, cfg); err != nil {
			return err
		}
		return runReport(cmd, cfg)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&customersFile, "customers", "", "Path to the customer source")
	reportCmd.Flags().StringVar(&paymentsFile, "payments", "", "Path to the payment source")
	reportCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory the reports are written to")
	reportCmd.Flags().IntVar(&topN, "top", config.DefaultTopN, "Number of customers in the top report (below 1 disables it)")
	reportCmd.Flags().BoolVar(&xlsxReport, "xlsx", false, "Also write all reports into an XLSX workbook")
	reportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Process the sources without writing any file")
	reportCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar while validating records")
}

// applySourceFlags overrides the source paths with explicitly set flags.
// Shared by 'report' and 'validate'.
func applySourceFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("customers") {
		cfg.CustomersFile = customersFile
	}
	if flags.Changed("payments") {
		cfg.PaymentsFile = paymentsFile
	}
}

// applyReportFlags overrides configuration values with explicitly set flags.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	applySourceFlags(cmd, cfg)

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("top") {
		cfg.SetTopCount(topN)
	}
	if flags.Changed("xlsx") {
		cfg.XLSXReport = xlsxReport
	}

	return cfg.Validate()
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runReport executes one reporting run and prints its outcome.
func runReport(cmd *cobra.Command, cfg *config.Config) error {
	runner := pipeline.NewRunner(cfg)

	logger, err := newLogger(cfg, runner.RunID())
	if err != nil {
		return err
	}
	runner.SetLogger(logger)
	runner.SetDryRun(dryRun)
	if showProgress {
		runner.SetProgress(newProgressBar)
	}

	rr, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res := rr.Result

	fmt.Fprintln(out, "=== Shop Payment Reports ===")
	fmt.Fprintf(out, "Run ID:          %s\n", rr.RunID)
	fmt.Fprintf(out, "Customers:       %d accepted, %d rejected\n", len(res.Customers), len(res.CustomerRejections))
	fmt.Fprintf(out, "Payments:        %d accepted, %d rejected\n", len(res.Payments), len(res.PaymentRejections))

	if dryRun {
		fmt.Fprintln(out, "Dry run:         no files written")
		return nil
	}

	for _, path := range rr.Written {
		fmt.Fprintf(out, "  ✓ %s\n", path)
	}
	for _, path := range rr.Skipped {
		fmt.Fprintf(out, "  - %s (empty, not written)\n", path)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", rr.EndTime.Sub(rr.StartTime))

	return nil
}

// newProgressBar renders validation progress on stderr.
func newProgressBar(source string, total int) pipeline.Tracker {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("Validating %s", source)),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
