// =============================================================================
// Shop Payment Reports - Validation Engine
// =============================================================================
//
// This module validates raw customer and payment records and builds the typed
// domain records from them. Validation is pure: it performs no I/O and never
// panics. A rejected record is reported as a *ValidationError value, not as a
// failure of the batch.
//
// VALIDATION STRATEGY:
//   1. Record shape: the line is not empty and has the expected field count.
//   2. Required fields: required fields are not blank.
//   3. Domain rules: shop whitelist, uniqueness, referential integrity,
//      payment method, method-specific account data, amount, date.
//   The first failing rule is reported. Rules are checked in this order so
//   that the reported reason is stable for a given line.
//
// ACCUMULATOR STATE:
//   Uniqueness and referential checks need to know which customers were
//   accepted so far. That state is a CustomerIndex owned by the caller and
//   passed in explicitly; there is no package-level state.
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/shop-payment-reports/internal/csvparser"
	"github.com/ginjaninja78/shop-payment-reports/internal/money"
	"github.com/ginjaninja78/shop-payment-reports/internal/types"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Kind classifies why a record was rejected.
type Kind int

const (
	// MalformedRecord: wrong field count, blank required field, or an
	// unparseable amount, date or method token.
	MalformedRecord Kind = iota + 1

	// ReferentialViolation: a payment references an unknown customer.
	ReferentialViolation

	// DuplicateKey: a customer key was already accepted earlier.
	DuplicateKey

	// UnsupportedDomainValue: the shop id is not whitelisted.
	UnsupportedDomainValue
)

// String returns the name of the kind as it appears in logs.
func (k Kind) String() string {
	switch k {
	case MalformedRecord:
		return "MalformedRecord"
	case ReferentialViolation:
		return "ReferentialViolation"
	case DuplicateKey:
		return "DuplicateKey"
	case UnsupportedDomainValue:
		return "UnsupportedDomainValue"
	default:
		return "Unknown"
	}
}

// Rule names reported in ValidationError.Rule.
const (
	RuleEmptyLine           = "empty_line"
	RuleFieldCount          = "field_count"
	RuleRequired            = "required"
	RuleValidShop           = "valid_shop"
	RuleUniqueCustomer      = "unique_customer"
	RuleKnownCustomer       = "known_customer"
	RulePaymentMethod       = "payment_method"
	RuleCardNumberRequired  = "card_number_required"
	RuleBankAccountRequired = "bank_account_required"
	RuleAmountFormat        = "amount_format"
	RuleDateFormat          = "date_format"
)

// Field names reported in ValidationError.Field.
const (
	FieldShopID      = "shop_id"
	FieldCustomerID  = "customer_id"
	FieldName        = "name"
	FieldAddress     = "address"
	FieldMethod      = "method"
	FieldAmount      = "amount"
	FieldBankAccount = "bank_account"
	FieldCardNumber  = "card_number"
	FieldDate        = "date"
)

// Expected field counts of the two sources.
const (
	CustomerFieldCount = 4
	PaymentFieldCount  = 7
)

// ValidationError describes a single rejected record.
type ValidationError struct {
	// Kind is the error class.
	Kind Kind

	// Rule is the name of the violated rule.
	Rule string

	// Field is the name of the offending field. Empty for record-level rules.
	Field string

	// Value is the offending field value.
	Value string

	// Message is a human-readable explanation.
	Message string

	// LineNumber is the 1-indexed line of the record in its source.
	LineNumber int

	// Raw is the full line content.
	Raw string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s (%s): %s", e.LineNumber, e.Kind, e.Rule, e.Message)
	}
	return fmt.Sprintf("line %d: %s (%s) field '%s': %s (value: '%s')",
		e.LineNumber, e.Kind, e.Rule, e.Field, e.Message, e.Value)
}

func reject(rec csvparser.Record, kind Kind, rule, field, value, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:       kind,
		Rule:       rule,
		Field:      field,
		Value:      value,
		Message:    fmt.Sprintf(format, args...),
		LineNumber: rec.LineNumber,
		Raw:        rec.Raw,
	}
}

// =============================================================================
// CUSTOMER INDEX
// =============================================================================

// CustomerIndex is the set of accepted customer keys.
type CustomerIndex map[types.CustomerKey]struct{}

// NewCustomerIndex builds an index over already accepted customers.
func NewCustomerIndex(customers ...types.Customer) CustomerIndex {
	idx := make(CustomerIndex, len(customers))
	for _, c := range customers {
		idx.Add(c.Key())
	}
	return idx
}

// Add records a key.
func (idx CustomerIndex) Add(key types.CustomerKey) {
	idx[key] = struct{}{}
}

// Contains reports whether the key was recorded.
func (idx CustomerIndex) Contains(key types.CustomerKey) bool {
	_, ok := idx[key]
	return ok
}

// =============================================================================
// CUSTOMER VALIDATION
// =============================================================================

// CustomerRules holds the configurable parts of customer validation.
type CustomerRules struct {
	validShops map[string]struct{}
	shopList   string
}

// NewCustomerRules creates rules accepting the given shop identifiers.
func NewCustomerRules(validShopIDs []string) CustomerRules {
	shops := make(map[string]struct{}, len(validShopIDs))
	for _, id := range validShopIDs {
		shops[id] = struct{}{}
	}
	return CustomerRules{validShops: shops, shopList: strings.Join(validShopIDs, ", ")}
}

// ValidateCustomer checks one customer record and builds the Customer.
//
// PARAMETERS:
//   - rec: The raw record.
//   - rules: The customer rules.
//   - seen: Keys accepted so far. On success the new key is added, so the
//     first occurrence of a key wins.
//
// RETURNS:
//   - The Customer and nil on success.
//   - A zero Customer and the rejection otherwise.
func ValidateCustomer(rec csvparser.Record, rules CustomerRules, seen CustomerIndex) (types.Customer, *ValidationError) {
	if rec.Raw == "" {
		return types.Customer{}, reject(rec, MalformedRecord, RuleEmptyLine, "", "",
			"the customer line is empty")
	}

	f := rec.Fields
	if len(f) != CustomerFieldCount {
		return types.Customer{}, reject(rec, MalformedRecord, RuleFieldCount, "", "",
			"the customer line has %d fields, %d required", len(f), CustomerFieldCount)
	}

	required := []struct {
		field string
		value string
	}{
		{FieldShopID, f[0]},
		{FieldCustomerID, f[1]},
		{FieldName, f[2]},
		{FieldAddress, f[3]},
	}
	for _, r := range required {
		if isBlank(r.value) {
			return types.Customer{}, reject(rec, MalformedRecord, RuleRequired, r.field, r.value,
				"the %s must not be empty", r.field)
		}
	}

	if _, ok := rules.validShops[f[0]]; !ok {
		return types.Customer{}, reject(rec, UnsupportedDomainValue, RuleValidShop, FieldShopID, f[0],
			"the shop identifier is none of the allowed ones (%s)", rules.shopList)
	}

	customer := types.Customer{
		ShopID:     f[0],
		CustomerID: f[1],
		Name:       f[2],
		Address:    f[3],
	}

	if seen.Contains(customer.Key()) {
		return types.Customer{}, reject(rec, DuplicateKey, RuleUniqueCustomer, FieldCustomerID, f[1],
			"the customer id is not unique for shop %s", f[0])
	}
	seen.Add(customer.Key())

	return customer, nil
}

// =============================================================================
// PAYMENT VALIDATION
// =============================================================================

// PaymentRules holds the configurable parts of payment validation.
type PaymentRules struct {
	// DateLayout is the Go time layout of the date field.
	DateLayout string
}

// DefaultDateLayout is yyyy.MM.dd.
const DefaultDateLayout = "2006.01.02"

// ValidatePayment checks one payment record against the accepted customers
// and builds the Payment.
func ValidatePayment(rec csvparser.Record, rules PaymentRules, customers CustomerIndex) (types.Payment, *ValidationError) {
	if rec.Raw == "" {
		return types.Payment{}, reject(rec, MalformedRecord, RuleEmptyLine, "", "",
			"the payment line is empty")
	}

	f := rec.Fields
	if len(f) != PaymentFieldCount {
		return types.Payment{}, reject(rec, MalformedRecord, RuleFieldCount, "", "",
			"the payment line has %d fields, %d required", len(f), PaymentFieldCount)
	}

	shopID, customerID, token, rawAmount, bankAccount, cardNumber, rawDate :=
		f[0], f[1], f[2], f[3], f[4], f[5], f[6]

	// Account fields are checked against the method further down.
	required := []struct {
		field string
		value string
	}{
		{FieldShopID, shopID},
		{FieldCustomerID, customerID},
		{FieldMethod, token},
		{FieldAmount, rawAmount},
		{FieldDate, rawDate},
	}
	for _, r := range required {
		if isBlank(r.value) {
			return types.Payment{}, reject(rec, MalformedRecord, RuleRequired, r.field, r.value,
				"the %s must not be empty", r.field)
		}
	}

	key := types.CustomerKey{ShopID: shopID, CustomerID: customerID}
	if !customers.Contains(key) {
		return types.Payment{}, reject(rec, ReferentialViolation, RuleKnownCustomer, FieldCustomerID, customerID,
			"no customer exists with shop id %s and customer id %s", shopID, customerID)
	}

	method, ok := types.ParsePaymentMethod(token)
	if !ok {
		return types.Payment{}, reject(rec, MalformedRecord, RulePaymentMethod, FieldMethod, token,
			"the payment method is invalid")
	}

	switch method {
	case types.Card:
		if isBlank(cardNumber) {
			return types.Payment{}, reject(rec, MalformedRecord, RuleCardNumberRequired, FieldCardNumber, cardNumber,
				"no card number present for a payment by card")
		}
	case types.Transfer:
		if isBlank(bankAccount) {
			return types.Payment{}, reject(rec, MalformedRecord, RuleBankAccountRequired, FieldBankAccount, bankAccount,
				"no account number present for a payment by transfer")
		}
	}

	amount, err := money.Parse(rawAmount)
	if err != nil {
		return types.Payment{}, reject(rec, MalformedRecord, RuleAmountFormat, FieldAmount, rawAmount,
			"the amount is not a valid decimal")
	}

	layout := rules.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	date, err := parseDate(layout, rawDate)
	if err != nil {
		return types.Payment{}, reject(rec, MalformedRecord, RuleDateFormat, FieldDate, rawDate,
			"the date does not match layout %s", layout)
	}

	return types.Payment{
		ShopID:      shopID,
		CustomerID:  customerID,
		Method:      method,
		Amount:      amount,
		BankAccount: bankAccount,
		CardNumber:  cardNumber,
		Date:        date,
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// parseDate parses value under layout. A day between 29 and 31 that does not
// exist in its month is clamped to the month's last day, so 2021.02.30 reads
// as 2021.02.28. Days outside 01-31 are still rejected.
//
// Clamping needs a numeric layout with a single zero-padded day ("02") and a
// value of the same length. Other layouts parse strictly.
func parseDate(layout, value string) (time.Time, error) {
	date, err := time.Parse(layout, value)
	if err == nil {
		return date, nil
	}

	at := strings.Index(layout, "02")
	if at < 0 || strings.Count(layout, "02") != 1 || len(value) != len(layout) {
		return time.Time{}, err
	}

	day, convErr := strconv.Atoi(value[at : at+2])
	if convErr != nil || day < 29 || day > 31 {
		return time.Time{}, err
	}

	first, retryErr := time.Parse(layout, value[:at]+"01"+value[at+2:])
	if retryErr != nil {
		return time.Time{}, err
	}

	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1), nil
}

// isBlank reports whether s is empty or only whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
