// =============================================================================
// Shop Payment Reports - Runner
// =============================================================================
//
// The Runner wraps the Processor with file handling. It reads both sources,
// processes them and writes the reports and auxiliary files.
//
// RUN STEPS:
//   1. Read the customer and payment sources
//   2. Process them (validation, aggregation, rendering)
//   3. Write report01.csv, top.csv and report02.csv atomically
//   4. Optionally write reports.xlsx, rejections.log and run_summary.txt
//   5. Optionally copy both sources into the archive
//
// FAILURES:
//   - An unreadable source stops the run with an error wrapping
//     utils.ErrSourceUnreadable, unless lenient_sources is set. In lenient
//     mode the source is logged and treated as empty.
//   - Any write failure stops the run.
//   - Rejected records never stop the run.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/shop-payment-reports/internal/config"
	"github.com/ginjaninja78/shop-payment-reports/internal/report"
	"github.com/ginjaninja78/shop-payment-reports/internal/validation"
	"github.com/ginjaninja78/shop-payment-reports/pkg/utils"
)

// =============================================================================
// RUN REPORT
// =============================================================================

// RunReport describes what a run produced.
type RunReport struct {
	// RunID identifies the run in logs and in the summary.
	RunID string

	// Result is the processing outcome.
	Result *Result

	// Written lists the paths of the files written, in write order.
	Written []string

	// Skipped lists report paths that were not written because they were empty.
	Skipped []string

	// Archived lists the archived copies of the sources.
	Archived []string

	// StartTime and EndTime bound the run.
	StartTime time.Time
	EndTime   time.Time
}

// =============================================================================
// RUNNER STRUCTURE
// =============================================================================

// Runner executes a complete reporting run.
type Runner struct {
	cfg       *config.Config
	runID     string
	dryRun    bool
	processor *Processor
	logger    Logger
	files     *utils.FileManager
	now       func() time.Time
}

// NewRunner creates a Runner for the configuration. Every Runner gets a
// fresh run id.
func NewRunner(cfg *config.Config) *Runner {
	processor := NewProcessor(Options{
		Delimiter:    cfg.Delimiter,
		DateLayout:   cfg.DateLayout,
		ValidShopIDs: cfg.ValidShopIDs,
		TopN:         cfg.TopCount(),
	})

	return &Runner{
		cfg:       cfg,
		runID:     uuid.NewString(),
		processor: processor,
		logger:    NopLogger(),
		files:     utils.NewFileManager(cfg.OutputDir, cfg.ArchiveDir),
		now:       time.Now,
	}
}

// RunID returns the id of the run.
func (r *Runner) RunID() string {
	return r.runID
}

// SetLogger replaces the logger of the runner and its processor.
func (r *Runner) SetLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger()
	}
	r.logger = logger
	r.processor.SetLogger(logger)
}

// SetProgress installs a progress hook on the processor.
func (r *Runner) SetProgress(progress ProgressFunc) {
	r.processor.SetProgress(progress)
}

// SetDryRun makes Run process the sources without writing anything.
func (r *Runner) SetDryRun(dryRun bool) {
	r.dryRun = dryRun
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads and processes both sources without writing anything.
func (r *Runner) Load(ctx context.Context) (*Result, error) {
	customerLines, err := r.readSource(SourceCustomers, r.cfg.CustomersFile, validation.CustomerFieldCount)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paymentLines, err := r.readSource(SourcePayments, r.cfg.PaymentsFile, validation.PaymentFieldCount)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.processor.Process(customerLines, paymentLines), nil
}

// readSource reads one source, applying the lenient_sources policy.
func (r *Runner) readSource(source, path string, columns int) ([]string, error) {
	lines, err := utils.ReadSourceLines(path, r.cfg.Delimiter, columns)
	if err == nil {
		r.logger.Debug("source read", "source", source, "path", path, "lines", len(lines))
		return lines, nil
	}

	if r.cfg.LenientSources && errors.Is(err, utils.ErrSourceUnreadable) {
		r.logger.Error("source unreadable, treating it as empty", "source", source, "path", path, "err", err)
		return nil, nil
	}

	return nil, fmt.Errorf("failed to read %s: %w", source, err)
}

// =============================================================================
// MAIN RUN FUNCTION
// =============================================================================

// Run executes the full reporting run.
//
// RETURNS:
//   - A RunReport describing the outcome. It is returned even on failure,
//     with the files written up to that point.
//   - An error if a source is unreadable or an output cannot be written.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	rr := &RunReport{
		RunID:     r.runID,
		StartTime: r.now(),
	}

	r.logger.Info("run started",
		"customers_file", r.cfg.CustomersFile,
		"payments_file", r.cfg.PaymentsFile,
		"output_dir", r.cfg.OutputDir)

	result, err := r.Load(ctx)
	if err != nil {
		return rr, err
	}
	rr.Result = result

	if r.dryRun {
		rr.EndTime = r.now()
		r.logger.Info("dry run, no files written")
		return rr, nil
	}

	if err := ctx.Err(); err != nil {
		return rr, err
	}

	if err := r.files.EnsureOutputDir(); err != nil {
		return rr, err
	}

	// =========================================================================
	// REPORTS
	// =========================================================================

	if err := r.write(rr, r.cfg.CustomerReport, report.Render(result.CustomerLines)); err != nil {
		return rr, err
	}

	if len(result.TopLines) > 0 {
		if err := r.write(rr, r.cfg.TopReport, report.Render(result.TopLines)); err != nil {
			return rr, err
		}
	} else {
		path := r.files.OutputPath(r.cfg.TopReport)
		rr.Skipped = append(rr.Skipped, path)
		r.logger.Warn("top report is empty, not written", "path", path, "top_n", r.cfg.TopCount())
	}

	if err := r.write(rr, r.cfg.ShopReport, report.Render(result.ShopLines)); err != nil {
		return rr, err
	}

	if r.cfg.XLSXReport {
		data, err := report.Workbook(result.CustomerTotals, result.Top, result.ShopTotals)
		if err != nil {
			return rr, fmt.Errorf("failed to build workbook: %w", err)
		}
		if err := r.write(rr, r.cfg.XLSXFile, data); err != nil {
			return rr, err
		}
	}

	// =========================================================================
	// AUXILIARY FILES
	// =========================================================================

	if r.cfg.RejectionLog {
		path, err := r.files.WriteRejectionLog(rejectionEntries(result.Rejections()))
		if err != nil {
			return rr, err
		}
		rr.Written = append(rr.Written, path)
		r.logger.Info("rejection log written", "path", path, "rejections", len(result.Rejections()))
	}

	if r.cfg.ArchiveDir != "" {
		for _, src := range []string{r.cfg.CustomersFile, r.cfg.PaymentsFile} {
			if !utils.FileExists(src) {
				continue
			}
			archived, err := r.files.ArchiveInputFile(src)
			if err != nil {
				return rr, fmt.Errorf("failed to archive %s: %w", src, err)
			}
			rr.Archived = append(rr.Archived, archived)
			r.logger.Debug("source archived", "source", src, "archive", archived)
		}
	}

	rr.EndTime = r.now()

	if r.cfg.SummaryLog {
		path, err := r.files.WriteSummaryLog(r.summary(rr))
		if err != nil {
			return rr, err
		}
		rr.Written = append(rr.Written, path)
	}

	r.logger.Info("run finished",
		"written", len(rr.Written),
		"rejections", len(result.Rejections()),
		"duration", rr.EndTime.Sub(rr.StartTime))

	return rr, nil
}

// write atomically writes one output file.
func (r *Runner) write(rr *RunReport, name string, data []byte) error {
	path := r.files.OutputPath(name)
	if err := utils.WriteFileAtomic(path, data); err != nil {
		return err
	}
	rr.Written = append(rr.Written, path)
	r.logger.Info("report written", "path", path, "bytes", len(data))
	return nil
}

// summary builds the summary log content of a run.
func (r *Runner) summary(rr *RunReport) utils.RunSummary {
	res := rr.Result
	return utils.RunSummary{
		RunID:     rr.RunID,
		StartTime: rr.StartTime,
		EndTime:   rr.EndTime,
		Sources: []utils.SourceSummary{
			{
				Name:     SourceCustomers,
				Path:     r.cfg.CustomersFile,
				Lines:    res.CustomerLineCount,
				Accepted: len(res.Customers),
				Rejected: len(res.CustomerRejections),
			},
			{
				Name:     SourcePayments,
				Path:     r.cfg.PaymentsFile,
				Lines:    res.PaymentLineCount,
				Accepted: len(res.Payments),
				Rejected: len(res.PaymentRejections),
			},
		},
		Reports:  rr.Written,
		Skipped:  rr.Skipped,
		Archived: rr.Archived,
	}
}

// rejectionEntries converts rejections for the rejection log.
func rejectionEntries(rejections []Rejection) []utils.RejectionEntry {
	entries := make([]utils.RejectionEntry, 0, len(rejections))
	for _, rej := range rejections {
		entries = append(entries, utils.RejectionEntry{
			Source:     rej.Source,
			LineNumber: rej.LineNumber,
			Kind:       rej.Kind.String(),
			Rule:       rej.Rule,
			Field:      rej.Field,
			Value:      rej.Value,
			Message:    rej.Message,
			Raw:        rej.Raw,
		})
	}
	return entries
}
