package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/shop-payment-reports/internal/config"
	"github.com/ginjaninja78/shop-payment-reports/internal/report"
	"github.com/ginjaninja78/shop-payment-reports/pkg/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.CustomersFile = filepath.Join("testdata", "customer.csv")
	cfg.PaymentsFile = filepath.Join("testdata", "payments.csv")
	cfg.OutputDir = filepath.Join(t.TempDir(), "reports")
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunWritesReports(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg)

	rr, err := runner.Run(context.Background())
	require.NoError(t, err)

	customerReport := filepath.Join(cfg.OutputDir, "report01.csv")
	topReport := filepath.Join(cfg.OutputDir, "top.csv")
	shopReport := filepath.Join(cfg.OutputDir, "report02.csv")

	assert.Equal(t, []string{customerReport, topReport, shopReport}, rr.Written)
	assert.Empty(t, rr.Skipped)
	assert.Equal(t, runner.RunID(), rr.RunID)
	assert.NotEmpty(t, rr.RunID)

	assert.Equal(t, readFile(t, "testdata/expected/report01.csv"), readFile(t, customerReport))
	assert.Equal(t, readFile(t, "testdata/expected/top.csv"), readFile(t, topReport))
	assert.Equal(t, readFile(t, "testdata/expected/report02.csv"), readFile(t, shopReport))

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	_, err := NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	first := map[string]string{}
	for _, name := range []string{"report01.csv", "top.csv", "report02.csv"} {
		first[name] = readFile(t, filepath.Join(cfg.OutputDir, name))
	}

	_, err = NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	for name, content := range first {
		assert.Equal(t, content, readFile(t, filepath.Join(cfg.OutputDir, name)), name)
	}
}

func TestRunTopDisabledSkipsTopReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.SetTopCount(0)

	logger := &recordingLogger{}
	runner := NewRunner(cfg)
	runner.SetLogger(logger)

	rr, err := runner.Run(context.Background())
	require.NoError(t, err)

	topReport := filepath.Join(cfg.OutputDir, "top.csv")
	assert.NoFileExists(t, topReport)
	assert.Equal(t, []string{topReport}, rr.Skipped)
	assert.Len(t, rr.Written, 2)
	assert.Len(t, logger.byLevel("warn"), 1)
}

func TestRunTopReportReplacedByEmptyRunIsKept(t *testing.T) {
	cfg := testConfig(t)

	_, err := NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)

	cfg.SetTopCount(0)
	_, err = NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)

	// An empty top report is never written, so the previous one stays.
	assert.Equal(t, readFile(t, "testdata/expected/top.csv"), readFile(t, filepath.Join(cfg.OutputDir, "top.csv")))
}

func TestRunUnreadableSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.PaymentsFile = filepath.Join(t.TempDir(), "missing.csv")

	rr, err := NewRunner(cfg).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrSourceUnreadable)
	assert.Empty(t, rr.Written)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunLenientSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.CustomersFile = filepath.Join(t.TempDir(), "missing.csv")
	cfg.LenientSources = true

	logger := &recordingLogger{}
	runner := NewRunner(cfg)
	runner.SetLogger(logger)

	rr, err := runner.Run(context.Background())
	require.NoError(t, err)

	// Without customers every payment is rejected and all reports are empty.
	assert.Equal(t, "", readFile(t, filepath.Join(cfg.OutputDir, "report01.csv")))
	assert.Equal(t, "", readFile(t, filepath.Join(cfg.OutputDir, "report02.csv")))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "top.csv"))
	assert.Len(t, rr.Result.PaymentRejections, 15)

	var unreadable int
	for _, e := range logger.byLevel("error") {
		if e.value("source") == SourceCustomers && e.value("path") == cfg.CustomersFile {
			unreadable++
		}
	}
	assert.Equal(t, 1, unreadable)
}

func TestRunDryRun(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg)
	runner.SetDryRun(true)

	rr, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, rr.Written)
	assert.Len(t, rr.Result.CustomerLines, 7)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(cfg).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunAuxiliaryOutputs(t *testing.T) {
	cfg := testConfig(t)
	cfg.XLSXReport = true
	cfg.RejectionLog = true
	cfg.SummaryLog = true

	// Archive copies of the sources are taken from a private directory.
	srcDir := t.TempDir()
	for _, name := range []string{"customer.csv", "payments.csv"} {
		data, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, name), data, 0644))
	}
	cfg.CustomersFile = filepath.Join(srcDir, "customer.csv")
	cfg.PaymentsFile = filepath.Join(srcDir, "payments.csv")
	cfg.ArchiveDir = filepath.Join(t.TempDir(), "archive")

	runner := NewRunner(cfg)
	rr, err := runner.Run(context.Background())
	require.NoError(t, err)

	xlsxPath := filepath.Join(cfg.OutputDir, "reports.xlsx")
	rejectionPath := filepath.Join(cfg.OutputDir, utils.RejectionLogName)
	summaryPath := filepath.Join(cfg.OutputDir, utils.SummaryLogName)

	assert.Contains(t, rr.Written, xlsxPath)
	assert.Contains(t, rr.Written, rejectionPath)
	assert.Contains(t, rr.Written, summaryPath)
	require.Len(t, rr.Archived, 2)
	for _, archived := range rr.Archived {
		assert.FileExists(t, archived)
	}

	// Workbook.
	data, err := os.ReadFile(xlsxPath)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(report.SheetShopTotals)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Shop", "Card Total", "Transfer Total"},
		{"WS01", "65520", "3186"},
		{"WS02", "12240", "0"},
	}, rows)

	// Rejection log.
	rejections := readFile(t, rejectionPath)
	assert.Contains(t, rejections, "Total Rejections: 10")
	assert.Contains(t, rejections, "  Rule:     unique_customer\n")
	assert.Contains(t, rejections, "  Raw:      WS01;A01;cash;100;;;2021.02.05\n")

	// Summary.
	summary := readFile(t, summaryPath)
	assert.Contains(t, summary, "  Run ID:         "+runner.RunID()+"\n")
	assert.Contains(t, summary, "    Lines:    15\n    Accepted: 8\n    Rejected: 7\n")
	assert.Contains(t, summary, xlsxPath)
	assert.Contains(t, summary, "Archived Inputs:")
}

func TestLoadDoesNotWrite(t *testing.T) {
	cfg := testConfig(t)

	result, err := NewRunner(cfg).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Rejections(), 10)
	assert.NoDirExists(t, cfg.OutputDir)
}
