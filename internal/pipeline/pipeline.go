// =============================================================================
// Shop Payment Reports - Processing Pipeline
// =============================================================================
//
// This module contains the core reporting logic. It takes the lines of the
// two sources and produces the three reports, without touching the file
// system. File handling lives in runner.go.
//
// PROCESSING PIPELINE:
//   1. Split the customer lines into records and validate them in order
//   2. Split the payment lines into records and validate them against the
//      accepted customers
//   3. Aggregate per-customer and per-shop totals
//   4. Rank the customer totals for the top report
//   5. Render the report lines
//
// REJECTIONS:
//   A record that fails validation is logged at error level and collected in
//   the Result. It never stops the batch.
//
// =============================================================================

package pipeline

import (
	"github.com/ginjaninja78/shop-payment-reports/internal/aggregate"
	"github.com/ginjaninja78/shop-payment-reports/internal/csvparser"
	"github.com/ginjaninja78/shop-payment-reports/internal/report"
	"github.com/ginjaninja78/shop-payment-reports/internal/types"
	"github.com/ginjaninja78/shop-payment-reports/internal/validation"
)

// Source names used in logs and rejection entries.
const (
	SourceCustomers = "customers"
	SourcePayments  = "payments"
)

// =============================================================================
// OPTIONS AND HOOKS
// =============================================================================

// Options holds the processing settings.
type Options struct {
	// Delimiter separates fields in the sources and the reports.
	Delimiter string

	// DateLayout is the Go time layout of payment dates.
	DateLayout string

	// ValidShopIDs is the shop whitelist for customers.
	ValidShopIDs []string

	// TopN is the size of the top report. Below 1 yields an empty report.
	TopN int
}

// Tracker receives one Add(1) per processed record.
// *progressbar.ProgressBar satisfies it.
type Tracker interface {
	Add(num int) error
	Finish() error
}

// ProgressFunc creates a Tracker for a source with total records.
type ProgressFunc func(source string, total int) Tracker

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Rejection is a rejected record together with its source.
type Rejection struct {
	Source string
	*validation.ValidationError
}

// Result represents the outcome of processing both sources.
type Result struct {
	// Customers are the accepted customers in load order.
	Customers []types.Customer

	// Payments are the accepted payments in load order.
	Payments []types.Payment

	// CustomerLineCount and PaymentLineCount are the numbers of source lines.
	CustomerLineCount int
	PaymentLineCount  int

	// CustomerRejections and PaymentRejections list the rejected records.
	CustomerRejections []Rejection
	PaymentRejections  []Rejection

	// CustomerTotals, Top and ShopTotals are the aggregated reports.
	CustomerTotals []types.CustomerTotal
	Top            []types.CustomerTotal
	ShopTotals     []types.ShopTotal

	// CustomerLines, TopLines and ShopLines are the rendered report lines.
	CustomerLines []string
	TopLines      []string
	ShopLines     []string
}

// Rejections returns all rejections, customers first.
func (r *Result) Rejections() []Rejection {
	out := make([]Rejection, 0, len(r.CustomerRejections)+len(r.PaymentRejections))
	out = append(out, r.CustomerRejections...)
	return append(out, r.PaymentRejections...)
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor validates and aggregates the sources.
type Processor struct {
	opts     Options
	logger   Logger
	progress ProgressFunc
}

// NewProcessor creates a Processor. Empty options fall back to the defaults
// of the source format.
func NewProcessor(opts Options) *Processor {
	if opts.Delimiter == "" {
		opts.Delimiter = report.DefaultDelimiter
	}
	if opts.DateLayout == "" {
		opts.DateLayout = validation.DefaultDateLayout
	}
	return &Processor{
		opts:   opts,
		logger: NopLogger(),
	}
}

// SetLogger replaces the logger.
func (p *Processor) SetLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger()
	}
	p.logger = logger
}

// SetProgress installs a progress hook. nil disables progress reporting.
func (p *Processor) SetProgress(progress ProgressFunc) {
	p.progress = progress
}

// Process runs the pipeline on the lines of both sources.
func (p *Processor) Process(customerLines, paymentLines []string) *Result {
	result := &Result{
		CustomerLineCount: len(customerLines),
		PaymentLineCount:  len(paymentLines),
	}

	index := validation.NewCustomerIndex()
	result.Customers, result.CustomerRejections = p.LoadCustomers(customerLines, index)
	result.Payments, result.PaymentRejections = p.LoadPayments(paymentLines, index)

	p.logger.Info("sources loaded",
		"customers", len(result.Customers),
		"customer_rejections", len(result.CustomerRejections),
		"payments", len(result.Payments),
		"payment_rejections", len(result.PaymentRejections))

	result.CustomerTotals = aggregate.CustomerTotals(result.Customers, result.Payments)
	result.ShopTotals = aggregate.ShopTotals(result.Customers, result.Payments)
	result.Top = aggregate.TopN(result.CustomerTotals, p.opts.TopN)

	result.CustomerLines = report.CustomerTotalLines(result.CustomerTotals, p.opts.Delimiter)
	result.TopLines = report.CustomerTotalLines(result.Top, p.opts.Delimiter)
	result.ShopLines = report.ShopTotalLines(result.ShopTotals, p.opts.Delimiter)

	p.logger.Debug("reports aggregated",
		"customer_totals", len(result.CustomerTotals),
		"top", len(result.Top),
		"shop_totals", len(result.ShopTotals))

	return result
}

// LoadCustomers validates customer lines in order. Accepted keys are added to
// index, so the first occurrence of a duplicated key wins.
func (p *Processor) LoadCustomers(lines []string, index validation.CustomerIndex) ([]types.Customer, []Rejection) {
	rules := validation.NewCustomerRules(p.opts.ValidShopIDs)
	tracker := p.track(SourceCustomers, len(lines))
	defer finish(tracker)

	var customers []types.Customer
	var rejections []Rejection
	for _, rec := range csvparser.ParseLines(lines, p.opts.Delimiter) {
		customer, verr := validation.ValidateCustomer(rec, rules, index)
		advance(tracker)
		if verr != nil {
			rejections = append(rejections, p.reject(SourceCustomers, verr))
			continue
		}
		customers = append(customers, customer)
	}

	return customers, rejections
}

// LoadPayments validates payment lines against the accepted customers.
func (p *Processor) LoadPayments(lines []string, customers validation.CustomerIndex) ([]types.Payment, []Rejection) {
	rules := validation.PaymentRules{DateLayout: p.opts.DateLayout}
	tracker := p.track(SourcePayments, len(lines))
	defer finish(tracker)

	var payments []types.Payment
	var rejections []Rejection
	for _, rec := range csvparser.ParseLines(lines, p.opts.Delimiter) {
		payment, verr := validation.ValidatePayment(rec, rules, customers)
		advance(tracker)
		if verr != nil {
			rejections = append(rejections, p.reject(SourcePayments, verr))
			continue
		}
		payments = append(payments, payment)
	}

	return payments, rejections
}

// reject logs a rejected record and wraps it.
func (p *Processor) reject(source string, verr *validation.ValidationError) Rejection {
	p.logger.Error("record rejected",
		"source", source,
		"line", verr.LineNumber,
		"kind", verr.Kind.String(),
		"rule", verr.Rule,
		"field", verr.Field,
		"value", verr.Value,
		"reason", verr.Message,
		"raw", verr.Raw)
	return Rejection{Source: source, ValidationError: verr}
}

// =============================================================================
// PROGRESS HELPERS
// =============================================================================

func (p *Processor) track(source string, total int) Tracker {
	if p.progress == nil || total == 0 {
		return nil
	}
	return p.progress(source, total)
}

// Progress display errors never affect the run.
func advance(t Tracker) {
	if t != nil {
		_ = t.Add(1)
	}
}

func finish(t Tracker) {
	if t != nil {
		_ = t.Finish()
	}
}
