package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/shop-payment-reports/internal/validation"
	"github.com/ginjaninja78/shop-payment-reports/pkg/utils"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type logEntry struct {
	level   string
	msg     string
	keyvals []interface{}
}

// value returns the value logged for key.
func (e logEntry) value(key string) interface{} {
	for i := 0; i+1 < len(e.keyvals); i += 2 {
		if e.keyvals[i] == key {
			return e.keyvals[i+1]
		}
	}
	return nil
}

type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) record(level string, msg interface{}, keyvals []interface{}) {
	l.entries = append(l.entries, logEntry{level: level, msg: fmt.Sprint(msg), keyvals: keyvals})
}

func (l *recordingLogger) Debug(msg interface{}, keyvals ...interface{}) { l.record("debug", msg, keyvals) }
func (l *recordingLogger) Info(msg interface{}, keyvals ...interface{})  { l.record("info", msg, keyvals) }
func (l *recordingLogger) Warn(msg interface{}, keyvals ...interface{})  { l.record("warn", msg, keyvals) }
func (l *recordingLogger) Error(msg interface{}, keyvals ...interface{}) { l.record("error", msg, keyvals) }

func (l *recordingLogger) byLevel(level string) []logEntry {
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

type countingTracker struct {
	added    int
	finished bool
}

func (t *countingTracker) Add(n int) error {
	t.added += n
	return nil
}

func (t *countingTracker) Finish() error {
	t.finished = true
	return nil
}

func readTestdata(t *testing.T, name string) []string {
	t.Helper()
	lines, err := utils.ReadSourceLines(filepath.Join("testdata", name), ";", 0)
	require.NoError(t, err)
	return lines
}

func defaultOptions() Options {
	return Options{
		Delimiter:    ";",
		DateLayout:   validation.DefaultDateLayout,
		ValidShopIDs: []string{"WS01", "WS02"},
		TopN:         2,
	}
}

type rejectionSummary struct {
	Line int
	Rule string
}

func summarize(rejections []Rejection) []rejectionSummary {
	out := make([]rejectionSummary, len(rejections))
	for i, r := range rejections {
		out[i] = rejectionSummary{Line: r.LineNumber, Rule: r.Rule}
	}
	return out
}

// =============================================================================
// PROCESSOR TESTS
// =============================================================================

func TestProcessReferenceScenario(t *testing.T) {
	p := NewProcessor(defaultOptions())

	result := p.Process(readTestdata(t, "customer.csv"), readTestdata(t, "payments.csv"))

	assert.Equal(t, readTestdata(t, "expected/report01.csv"), result.CustomerLines)
	assert.Equal(t, readTestdata(t, "expected/top.csv"), result.TopLines)
	assert.Equal(t, readTestdata(t, "expected/report02.csv"), result.ShopLines)

	require.Len(t, result.Top, 2)
	assert.Equal(t, "Kovács János", result.Top[0].Name)
	assert.Equal(t, "Kiss István", result.Top[1].Name)

	assert.Equal(t, 10, result.CustomerLineCount)
	assert.Equal(t, 15, result.PaymentLineCount)
	assert.Len(t, result.Customers, 7)
	assert.Len(t, result.Payments, 8)

	assert.Equal(t, []rejectionSummary{
		{Line: 3, Rule: validation.RuleValidShop},
		{Line: 6, Rule: validation.RuleUniqueCustomer},
		{Line: 9, Rule: validation.RuleFieldCount},
	}, summarize(result.CustomerRejections))

	assert.Equal(t, []rejectionSummary{
		{Line: 9, Rule: validation.RuleEmptyLine},
		{Line: 10, Rule: validation.RuleKnownCustomer},
		{Line: 11, Rule: validation.RulePaymentMethod},
		{Line: 12, Rule: validation.RuleCardNumberRequired},
		{Line: 13, Rule: validation.RuleAmountFormat},
		{Line: 14, Rule: validation.RuleDateFormat},
		{Line: 15, Rule: validation.RuleKnownCustomer},
	}, summarize(result.PaymentRejections))

	all := result.Rejections()
	require.Len(t, all, 10)
	assert.Equal(t, SourceCustomers, all[0].Source)
	assert.Equal(t, SourcePayments, all[9].Source)
}

func TestProcessIsDeterministic(t *testing.T) {
	customers := readTestdata(t, "customer.csv")
	payments := readTestdata(t, "payments.csv")

	first := NewProcessor(defaultOptions()).Process(customers, payments)
	second := NewProcessor(defaultOptions()).Process(customers, payments)

	assert.Equal(t, first.CustomerLines, second.CustomerLines)
	assert.Equal(t, first.TopLines, second.TopLines)
	assert.Equal(t, first.ShopLines, second.ShopLines)
}

func TestProcessRejectionIsolation(t *testing.T) {
	customers := []string{
		"WS01;A01;a;addr",
		"WS01;A02;b;addr",
		"WS01;A03;c;addr",
	}
	valid := []string{
		"WS01;A01;card;10;;1111;2021.01.01",
		"WS01;A02;transfer;20;HU12;;2021.01.02",
		"WS01;A03;card;30;;3333;2021.01.03",
	}

	tests := []struct {
		name string
		bad  string
	}{
		{name: "field count", bad: "WS01;A01;card;10"},
		{name: "unknown customer", bad: "WS02;A01;card;10;;1111;2021.01.01"},
		{name: "bad method", bad: "WS01;A01;cheque;10;;1111;2021.01.01"},
		{name: "bad amount", bad: "WS01;A01;card;1,5;;1111;2021.01.01"},
		{name: "bad date", bad: "WS01;A01;card;10;;1111;2021-01-01"},
		{name: "empty line", bad: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := []string{valid[0], tt.bad, valid[1], valid[2]}

			result := NewProcessor(defaultOptions()).Process(customers, payments)

			assert.Len(t, result.Payments, len(valid))
			require.Len(t, result.PaymentRejections, 1)
			assert.Equal(t, 2, result.PaymentRejections[0].LineNumber)
			assert.Equal(t, []string{"a;addr;10", "b;addr;20", "c;addr;30"}, result.CustomerLines)
		})
	}
}

func TestProcessTopDisabled(t *testing.T) {
	for _, n := range []int{0, -3} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			opts := defaultOptions()
			opts.TopN = n

			result := NewProcessor(opts).Process(readTestdata(t, "customer.csv"), readTestdata(t, "payments.csv"))

			assert.Empty(t, result.Top)
			assert.Empty(t, result.TopLines)
			assert.Len(t, result.CustomerLines, 7)
		})
	}
}

func TestProcessEmptySources(t *testing.T) {
	result := NewProcessor(defaultOptions()).Process(nil, nil)

	assert.Empty(t, result.CustomerLines)
	assert.Empty(t, result.TopLines)
	assert.Empty(t, result.ShopLines)
	assert.Empty(t, result.Rejections())
}

func TestProcessDefaultsOptions(t *testing.T) {
	p := NewProcessor(Options{ValidShopIDs: []string{"WS01"}, TopN: 1})

	result := p.Process(
		[]string{"WS01;A01;a;addr"},
		[]string{"WS01;A01;card;5.50;;1111;2021.01.01"},
	)

	assert.Equal(t, []string{"a;addr;5.50"}, result.CustomerLines)
	assert.Equal(t, []string{"WS01;5.50;0"}, result.ShopLines)
}

func TestProcessLogsRejections(t *testing.T) {
	logger := &recordingLogger{}
	p := NewProcessor(defaultOptions())
	p.SetLogger(logger)

	p.Process([]string{"WS01;A01;a;addr", "WS09;A02;b;addr"}, []string{"WS01;A01;card;10;;1111;2021.13.01"})

	errs := logger.byLevel("error")
	require.Len(t, errs, 2)

	assert.Equal(t, "record rejected", errs[0].msg)
	assert.Equal(t, SourceCustomers, errs[0].value("source"))
	assert.Equal(t, 2, errs[0].value("line"))
	assert.Equal(t, "UnsupportedDomainValue", errs[0].value("kind"))
	assert.Equal(t, validation.RuleValidShop, errs[0].value("rule"))
	assert.Equal(t, "WS09", errs[0].value("value"))
	assert.Equal(t, "WS09;A02;b;addr", errs[0].value("raw"))

	assert.Equal(t, SourcePayments, errs[1].value("source"))
	assert.Equal(t, validation.RuleDateFormat, errs[1].value("rule"))
	assert.True(t, strings.HasSuffix(errs[1].value("raw").(string), "2021.13.01"))
}

func TestProcessProgress(t *testing.T) {
	trackers := map[string]*countingTracker{}
	totals := map[string]int{}

	p := NewProcessor(defaultOptions())
	p.SetProgress(func(source string, total int) Tracker {
		tr := &countingTracker{}
		trackers[source] = tr
		totals[source] = total
		return tr
	})

	p.Process(readTestdata(t, "customer.csv"), readTestdata(t, "payments.csv"))

	require.Contains(t, trackers, SourceCustomers)
	require.Contains(t, trackers, SourcePayments)
	assert.Equal(t, 10, totals[SourceCustomers])
	assert.Equal(t, 15, totals[SourcePayments])
	assert.Equal(t, 10, trackers[SourceCustomers].added)
	assert.Equal(t, 15, trackers[SourcePayments].added)
	assert.True(t, trackers[SourceCustomers].finished)
	assert.True(t, trackers[SourcePayments].finished)
}

func TestProcessProgressSkipsEmptySources(t *testing.T) {
	calls := 0
	p := NewProcessor(defaultOptions())
	p.SetProgress(func(string, int) Tracker {
		calls++
		return &countingTracker{}
	})

	p.Process(nil, nil)

	assert.Zero(t, calls)
}

func TestProcessCountsClampedMonthEndDates(t *testing.T) {
	result := NewProcessor(defaultOptions()).Process(
		[]string{"WS01;A01;a;addr"},
		[]string{
			"WS01;A01;card;10;;1111;2021.02.30",
			"WS01;A01;transfer;5;HU12;;2021.04.31",
			"WS01;A01;card;99;;1111;2021.02.32",
		},
	)

	require.Len(t, result.Payments, 2)
	assert.Equal(t, []string{"a;addr;15"}, result.CustomerLines)
	assert.Equal(t, []string{"WS01;10;5"}, result.ShopLines)
	assert.Equal(t, []rejectionSummary{{Line: 3, Rule: validation.RuleDateFormat}}, summarize(result.PaymentRejections))
}
