// =============================================================================
// Shop Payment Reports - File Manager Utility
// =============================================================================
//
// This module provides the file handling used by a reporting run:
//   - Reading a line source, delimited or XLSX (with the unreadable-source
//     sentinel)
//   - Atomic report writes (temp file + rename)
//   - Input archival (copying processed sources)
//   - Rejection log and run summary generation
//
// WRITE STRATEGY:
//   - Every output is first written to a temporary file in the target
//     directory, synced, closed and then renamed over the destination.
//   - A reader therefore sees either the previous file or the complete new
//     one, never a truncated report.
//
// ARCHIVAL STRATEGY:
//   - Input files are copied (not moved) so a rerun sees the same sources.
//   - With timestamp subdirectories enabled the copies land in
//     <archive_dir>/YYYY/MM/DD/HHMMSS/.
//
// =============================================================================

package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/shop-payment-reports/internal/csvparser"
	"github.com/ginjaninja78/shop-payment-reports/internal/xlsxparser"
)

// ErrSourceUnreadable is wrapped when a source file cannot be opened or read.
var ErrSourceUnreadable = errors.New("source unreadable")

// Fixed file names written next to the reports.
const (
	RejectionLogName = "rejections.log"
	SummaryLogName   = "run_summary.txt"
)

const separator = "================================================================================\n"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a reporting run.
type FileManager struct {
	// OutputDir is the directory where reports and logs are placed.
	OutputDir string

	// ArchiveDir receives copies of the input files. Empty disables archival.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/143022/customer.csv
	UseTimestampSubdirs bool

	// Now returns the current time. Tests replace it.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with timestamped archival.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:           outputDir,
		ArchiveDir:          archiveDir,
		UseTimestampSubdirs: true,
		Now:                 time.Now,
	}
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureOutputDir() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// OutputPath joins a file name onto the output directory.
func (fm *FileManager) OutputPath(name string) string {
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// SOURCE READING
// =============================================================================

// ReadSourceLines reads every line of a source file. Workbooks (.xlsx) are
// converted row by row into delimited lines.
//
// PARAMETERS:
//   - path: The source file.
//   - delimiter: The field delimiter, used to join workbook cells.
//   - columns: The field count of a record, used to pad workbook rows.
//
// RETURNS:
//   - The lines of the file (BOM stripped, terminators removed).
//   - An error wrapping ErrSourceUnreadable if the file cannot be opened or read.
func ReadSourceLines(path, delimiter string, columns int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, path, err)
	}
	defer file.Close()

	var lines []string
	if xlsxparser.IsWorkbook(path) {
		lines, err = xlsxparser.ReadLines(file, delimiter, columns)
	} else {
		lines, err = csvparser.ReadLines(file)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, path, err)
	}

	return lines, nil
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic replaces path with data.
//
// PARAMETERS:
//   - path: The destination file. Its directory must exist.
//   - data: The complete file content.
//
// RETURNS:
//   - An error if any step fails. The destination is left untouched then.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	// Removing after a successful rename fails harmlessly.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set mode of %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile copies an input file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived copy, or "" if archival is disabled.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return "", nil
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.now()
		subDir := filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			now.Format("150405"),
		)
		return filepath.Join(subDir, fileName)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

// =============================================================================
// REJECTION LOG GENERATION
// =============================================================================

// RejectionEntry represents a single rejected record.
type RejectionEntry struct {
	Source     string
	LineNumber int
	Kind       string
	Rule       string
	Field      string
	Value      string
	Message    string
	Raw        string
}

// WriteRejectionLog writes rejection entries to rejections.log in the output
// directory. The file is written even without entries so a stale log from an
// earlier run never survives.
//
// RETURNS:
//   - The path to the rejection log.
//   - An error if writing fails.
func (fm *FileManager) WriteRejectionLog(entries []RejectionEntry) (string, error) {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Shop Payment Reports - Rejection Log\n"+
		"Generated: %s\n"+
		"Total Rejections: %d\n"+
		separator+"\n",
		fm.now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(&b, "Rejection #%d\n"+
			"  Source:   %s\n"+
			"  Line:     %d\n"+
			"  Kind:     %s\n"+
			"  Rule:     %s\n",
			i+1,
			entry.Source,
			entry.LineNumber,
			entry.Kind,
			entry.Rule)

		if entry.Field != "" {
			fmt.Fprintf(&b, "  Field:    %s\n", entry.Field)
		}
		if entry.Value != "" {
			fmt.Fprintf(&b, "  Value:    %s\n", entry.Value)
		}
		if entry.Message != "" {
			fmt.Fprintf(&b, "  Message:  %s\n", entry.Message)
		}
		fmt.Fprintf(&b, "  Raw:      %s\n\n", entry.Raw)
	}

	b.WriteString(separator + "End of Rejection Log\n")

	logPath := fm.OutputPath(RejectionLogName)
	if err := WriteFileAtomic(logPath, b.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write rejection log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a reporting run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Sources   []SourceSummary
	Reports   []string
	Skipped   []string
	Archived  []string
}

// SourceSummary holds the record counts of one source.
type SourceSummary struct {
	Name     string
	Path     string
	Lines    int
	Accepted int
	Rejected int
}

// WriteSummaryLog writes a run summary to run_summary.txt in the output
// directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary RunSummary) (string, error) {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Shop Payment Reports - Run Summary\n"+
		separator+"\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String())

	if len(summary.Sources) > 0 {
		b.WriteString("Sources:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, s := range summary.Sources {
			fmt.Fprintf(&b, "  %s: %s\n", s.Name, s.Path)
			fmt.Fprintf(&b, "    Lines:    %d\n", s.Lines)
			fmt.Fprintf(&b, "    Accepted: %d\n", s.Accepted)
			fmt.Fprintf(&b, "    Rejected: %d\n", s.Rejected)
		}
		b.WriteString("\n")
	}

	if len(summary.Reports) > 0 {
		b.WriteString("Reports Written:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, r := range summary.Reports {
			fmt.Fprintf(&b, "  %s\n", r)
		}
		b.WriteString("\n")
	}

	if len(summary.Skipped) > 0 {
		b.WriteString("Reports Skipped:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, r := range summary.Skipped {
			fmt.Fprintf(&b, "  %s\n", r)
		}
		b.WriteString("\n")
	}

	if len(summary.Archived) > 0 {
		b.WriteString("Archived Inputs:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, a := range summary.Archived {
			fmt.Fprintf(&b, "  %s\n", a)
		}
		b.WriteString("\n")
	}

	b.WriteString(separator + "End of Summary\n")

	summaryPath := fm.OutputPath(SummaryLogName)
	if err := WriteFileAtomic(summaryPath, b.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists reports whether path can be stat'ed. Any stat error, not only
// a missing file, counts as absent.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
