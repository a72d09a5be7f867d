// =============================================================================
// Shop Payment Reports - Shared Types
// =============================================================================
//
// This package contains the domain types shared by the validation, pipeline,
// aggregate and report packages. Keeping them here avoids import cycles.
//
// All records are immutable values: they are only constructed after every
// field has been validated, so a partially filled record is never observable.
//
// =============================================================================

package types

import (
	"time"

	"github.com/ginjaninja78/shop-payment-reports/internal/money"
)

// =============================================================================
// CUSTOMER TYPES
// =============================================================================

// CustomerKey identifies a customer. It is unique across the whole customer set.
type CustomerKey struct {
	ShopID     string
	CustomerID string
}

// Customer is a single accepted row of the customer source.
type Customer struct {
	ShopID     string
	CustomerID string
	Name       string
	Address    string
}

// Key returns the identity key of the customer.
func (c Customer) Key() CustomerKey {
	return CustomerKey{ShopID: c.ShopID, CustomerID: c.CustomerID}
}

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// PaymentMethod is the closed set of supported payment methods.
type PaymentMethod int

const (
	// Card is a payment by card. Requires a card number.
	Card PaymentMethod = iota + 1

	// Transfer is a payment by bank transfer. Requires a bank account.
	Transfer
)

// paymentMethodTokens maps each method to its external token.
var paymentMethodTokens = map[PaymentMethod]string{
	Card:     "card",
	Transfer: "transfer",
}

// paymentMethodsByToken is the reverse of paymentMethodTokens.
var paymentMethodsByToken = map[string]PaymentMethod{
	"card":     Card,
	"transfer": Transfer,
}

// ParsePaymentMethod looks up a method by its external token.
// Matching is exact and case-sensitive. Unknown tokens return false.
func ParsePaymentMethod(token string) (PaymentMethod, bool) {
	m, ok := paymentMethodsByToken[token]
	return m, ok
}

// String returns the external token of the method.
func (m PaymentMethod) String() string {
	if token, ok := paymentMethodTokens[m]; ok {
		return token
	}
	return "unknown"
}

// Payment is a single accepted row of the payment source.
type Payment struct {
	ShopID      string
	CustomerID  string
	Method      PaymentMethod
	Amount      money.Amount
	BankAccount string
	CardNumber  string
	Date        time.Time
}

// CustomerKey returns the key of the customer the payment belongs to.
func (p Payment) CustomerKey() CustomerKey {
	return CustomerKey{ShopID: p.ShopID, CustomerID: p.CustomerID}
}

// =============================================================================
// DERIVED TYPES
// =============================================================================

// CustomerTotal is the sum of all payments of one customer.
type CustomerTotal struct {
	Name    string
	Address string
	Total   money.Amount
}

// ShopTotal is the sum of all payments of one shop, split by method.
type ShopTotal struct {
	ShopID        string
	CardTotal     money.Amount
	TransferTotal money.Amount
}
