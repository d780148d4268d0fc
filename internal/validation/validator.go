// =============================================================================
// Invoicing - Order Checks
// =============================================================================
//
// Checks run on the orders after they are read and transformed, before any
// document is rendered. Every finding is a warning: it is logged and listed
// in the run summary, and the order is still rendered.
//
// CHECKS:
//   no_lines           : the order has neither items nor consignments
//   promotion_range    : the promotion percent is outside 0..100
//   duplicate_order_id : two orders share an id (their documents collide)
//
// =============================================================================

package validation

import (
	"fmt"

	"github.com/ginjaninja78/invoicing/internal/orders"
)

// Rule names.
const (
	RuleNoLines        = "no_lines"
	RulePromotionRange = "promotion_range"
	RuleDuplicateID    = "duplicate_order_id"
)

// Warning is a single finding.
type Warning struct {
	// OrderID identifies the order.
	OrderID string

	// Index is the position of the order in the sheet, 0-based.
	Index int

	// Rule is the check that fired.
	Rule string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (w *Warning) Error() string {
	return fmt.Sprintf("[WARNING] Order %s: %s (%s)", w.OrderID, w.Message, w.Rule)
}

// Result contains the findings of a validation pass.
type Result struct {
	Warnings        []*Warning
	OrdersValidated int
}

// Messages returns the warnings as strings, for the run summary.
func (r Result) Messages() []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.Error()
	}
	return out
}

// Validate checks every order.
func Validate(list []orders.Order) Result {
	var result Result
	seen := make(map[string]int)

	for i := range list {
		o := &list[i]
		result.OrdersValidated++

		add := func(rule, msg string) {
			result.Warnings = append(result.Warnings, &Warning{
				OrderID: o.OrderID,
				Index:   i,
				Rule:    rule,
				Message: msg,
			})
		}

		if len(o.Items) == 0 && len(o.Consigns) == 0 {
			add(RuleNoLines, "no items and no consignments")
		}

		if p := o.Promotion; p != nil && (p.Percent < 0 || p.Percent > 100) {
			add(RulePromotionRange, fmt.Sprintf("promotion percent %d is outside 0..100", p.Percent))
		}

		if first, dup := seen[o.OrderID]; dup {
			add(RuleDuplicateID, fmt.Sprintf("same id as order at position %d", first+1))
		} else {
			seen[o.OrderID] = i
		}
	}

	return result
}
