// =============================================================================
// Invoicing - Domain Model
// =============================================================================
//
// Orders, items and promotions as read from the spreadsheet. An Order is a
// passive record: the only behavior is aggregation of its lines, recomputed
// on every call and never cached.
//
// All amounts are exact decimals. Nothing here rounds.
//
// =============================================================================

package orders

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Item is a single priced line of an order. Amount is fixed at construction.
type Item struct {
	Name   string
	Qty    decimal.Decimal
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// NewItem builds an Item with Amount = qty * price.
func NewItem(name string, qty, price decimal.Decimal) Item {
	return Item{
		Name:   name,
		Qty:    qty,
		Price:  price,
		Amount: qty.Mul(price),
	}
}

// Promotion is a percentage discount on the sales total. Percent is not
// range checked: values below 0 or above 100 apply as plain arithmetic.
type Promotion struct {
	Name    string
	Percent int
}

func (p Promotion) String() string {
	return fmt.Sprintf("%s: %d%%", p.Name, p.Percent)
}

// Order is one invoice worth of sales and consignments for one client.
type Order struct {
	OrderID       string
	Client        string
	DeliveryPoint string
	Date          string

	// Items are the sellable goods, subject to the promotion.
	Items []Item

	// Consigns are returnable deposit lines, never discounted.
	Consigns []Item

	Promotion *Promotion
}

// TotalPrice is the sum of the item amounts.
func (o *Order) TotalPrice() decimal.Decimal {
	return sum(o.Items)
}

// ToPay is the sales total after the promotion, if any.
func (o *Order) ToPay() decimal.Decimal {
	total := o.TotalPrice()
	if o.Promotion == nil {
		return total
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(o.Promotion.Percent)))
	return total.Mul(factor).Div(hundred)
}

// TotalConsigns is the sum of the consignment amounts.
func (o *Order) TotalConsigns() decimal.Decimal {
	return sum(o.Consigns)
}

// TotalAll is what the client owes: discounted sales plus consignments.
func (o *Order) TotalAll() decimal.Decimal {
	return o.ToPay().Add(o.TotalConsigns())
}

func sum(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
