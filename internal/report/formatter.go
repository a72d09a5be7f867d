// =============================================================================
// Shop Payment Reports - Report Formatter
// =============================================================================
//
// This module renders aggregated totals as line-oriented CSV text.
//
// OUTPUT FORMAT:
//   Customer totals and top-N:  name;address;total
//   Shop totals:                shopId;cardTotal;transferTotal
//
//   - No header row.
//   - Every line, including the last one, ends with "\n".
//   - Amounts use the canonical decimal form (an exact zero renders as "0").
//
// =============================================================================

package report

import (
	"strings"

	"github.com/ginjaninja78/shop-payment-reports/internal/types"
)

// DefaultDelimiter separates fields in report lines.
const DefaultDelimiter = ";"

// CustomerTotalLines renders one line per customer total.
func CustomerTotalLines(totals []types.CustomerTotal, delimiter string) []string {
	lines := make([]string, 0, len(totals))
	for _, t := range totals {
		lines = append(lines, strings.Join([]string{t.Name, t.Address, t.Total.String()}, delimiter))
	}
	return lines
}

// ShopTotalLines renders one line per shop total.
func ShopTotalLines(totals []types.ShopTotal, delimiter string) []string {
	lines := make([]string, 0, len(totals))
	for _, t := range totals {
		lines = append(lines, strings.Join([]string{t.ShopID, t.CardTotal.String(), t.TransferTotal.String()}, delimiter))
	}
	return lines
}

// Render joins lines into file content, terminating each with a newline.
// No lines render as empty content.
func Render(lines []string) []byte {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
