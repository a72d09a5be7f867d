// =============================================================================
// Shop Payment Reports - Line Parser Module
// =============================================================================
//
// This module turns a line-oriented source into raw records. It does not know
// anything about customers or payments: it only reads lines and splits them
// into fields on the configured delimiter.
//
// FORMAT:
//   - One record per line, no header row.
//   - Fields are separated by a single delimiter (";" by default).
//   - No quoting: a delimiter inside a field is not supported, exactly like
//     the upstream export that produces these files.
//   - "\n" and "\r\n" line endings are both accepted.
//   - A UTF-8 byte order mark at the start of the source is dropped.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is the byte order mark some spreadsheet exports prepend.
const utf8BOM = "\uFEFF"

// maxLineSize bounds a single line. Longer lines fail the whole read.
const maxLineSize = 1024 * 1024

// =============================================================================
// RECORD STRUCTURE
// =============================================================================

// Record is one raw line of a source.
type Record struct {
	// LineNumber is the 1-indexed position of the line in its source.
	LineNumber int

	// Raw is the line exactly as read, without the line terminator.
	Raw string

	// Fields is Raw split on the delimiter. An empty Raw has no fields.
	Fields []string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadLines reads every line from r.
//
// RETURNS:
//   - The lines without terminators. A trailing newline does not produce an
//     extra empty line.
//   - An error if reading fails or a line exceeds the size limit.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, utf8BOM)
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read line %d: %w", len(lines)+1, err)
	}

	return lines, nil
}

// Parse reads r and splits every line into a Record.
func Parse(r io.Reader, delimiter string) ([]Record, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	return ParseLines(lines, delimiter), nil
}

// ParseLines splits already read lines into Records, numbering them from 1.
func ParseLines(lines []string, delimiter string) []Record {
	records := make([]Record, len(lines))
	for i, line := range lines {
		records[i] = Record{
			LineNumber: i + 1,
			Raw:        line,
			Fields:     SplitFields(line, delimiter),
		}
	}
	return records
}

// SplitFields splits a line on the delimiter. Empty fields are kept, so
// "a;;b" has three fields. An empty line has no fields at all.
func SplitFields(line, delimiter string) []string {
	if line == "" {
		return nil
	}
	return strings.Split(line, delimiter)
}
