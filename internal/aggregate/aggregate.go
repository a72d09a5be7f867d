// =============================================================================
// Shop Payment Reports - Aggregation Module
// =============================================================================
//
// This module computes the derived totals the reports are built from:
//   - CustomerTotals: one total per customer, in customer load order
//   - ShopTotals: card and transfer totals per shop, ascending shop id
//   - TopN: the customers with the largest totals
//
// All sums start from an exact zero and use exact decimal addition, so the
// result does not depend on the order in which payments are added.
//
// =============================================================================

package aggregate

import (
	"slices"

	"github.com/ginjaninja78/shop-payment-reports/internal/money"
	"github.com/ginjaninja78/shop-payment-reports/internal/types"
)

// CustomerTotals sums the payments of every customer.
//
// RETURNS:
//   - One CustomerTotal per customer, in the order of customers. A customer
//     without payments gets a zero total.
func CustomerTotals(customers []types.Customer, payments []types.Payment) []types.CustomerTotal {
	byCustomer := make(map[types.CustomerKey][]types.Payment)
	for _, p := range payments {
		key := p.CustomerKey()
		byCustomer[key] = append(byCustomer[key], p)
	}

	totals := make([]types.CustomerTotal, 0, len(customers))
	for _, c := range customers {
		sum := money.Zero()
		for _, p := range byCustomer[c.Key()] {
			sum = sum.Add(p.Amount)
		}
		totals = append(totals, types.CustomerTotal{
			Name:    c.Name,
			Address: c.Address,
			Total:   sum,
		})
	}

	return totals
}

// ShopTotals sums payments per shop and method.
//
// The shops reported are the distinct shop ids of the customers, sorted
// ascending. Payments are matched on shop id alone.
func ShopTotals(customers []types.Customer, payments []types.Payment) []types.ShopTotal {
	shops := make([]string, 0)
	seen := make(map[string]struct{})
	for _, c := range customers {
		if _, ok := seen[c.ShopID]; ok {
			continue
		}
		seen[c.ShopID] = struct{}{}
		shops = append(shops, c.ShopID)
	}
	slices.Sort(shops)

	index := make(map[string]int, len(shops))
	totals := make([]types.ShopTotal, len(shops))
	for i, shop := range shops {
		index[shop] = i
		totals[i] = types.ShopTotal{
			ShopID:        shop,
			CardTotal:     money.Zero(),
			TransferTotal: money.Zero(),
		}
	}

	for _, p := range payments {
		i, ok := index[p.ShopID]
		if !ok {
			continue
		}
		switch p.Method {
		case types.Card:
			totals[i].CardTotal = totals[i].CardTotal.Add(p.Amount)
		default:
			totals[i].TransferTotal = totals[i].TransferTotal.Add(p.Amount)
		}
	}

	return totals
}

// TopN returns the n customers with the largest totals, largest first.
// Equal totals keep their input order. The input slice is not modified.
// If n < 1 or totals is empty the result is empty.
func TopN(totals []types.CustomerTotal, n int) []types.CustomerTotal {
	if n < 1 || len(totals) == 0 {
		return []types.CustomerTotal{}
	}

	ranked := slices.Clone(totals)
	slices.SortStableFunc(ranked, func(a, b types.CustomerTotal) int {
		return b.Total.Cmp(a.Total)
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
