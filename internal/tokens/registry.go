package tokens

import (
	"strings"

	"github.com/ginjaninja78/invoicing/internal/orders"
)

// Constants known at process start.
var (
	AppName = Plain("APP_NAME")
	Version = Plain("VERSION")
	RunID   = Plain("RUN_ID")
)

// Structural markers, filled with pre-rendered blocks.
var (
	ModelFolder = Plain("MODEL_FOLDER")
	Items       = Plain("ITEMS")
	Consigns    = Plain("CONSIGNS")
	Promotion   = Plain("PROMOTION")

	// BaseName is the output base name in path templates. It shares its
	// label with the Item NAME token used in line models.
	BaseName = Plain("NAME")
)

// Run clock.
var (
	Today    = Time("TODAY")
	Clock    = Time("TIME")
	DateTime = Time("DATETIME")
)

// Order fields.
var (
	Client        = OrderField("CLIENT", func(o *orders.Order) string { return o.Client })
	DeliveryPoint = OrderField("DELIVERY_POINT", func(o *orders.Order) string { return o.DeliveryPoint })
	// Date is the order date as written in documents.
	Date          = OrderField("DATE", func(o *orders.Order) string { return o.Date })
	OrderDate     = OrderField("ORDER_DATE", func(o *orders.Order) string { return o.Date })
	OrderID       = OrderField("ORDER_ID", func(o *orders.Order) string { return o.OrderID })
	TotalSales    = OrderField("TOTAL_SALES", func(o *orders.Order) string { return o.TotalPrice().String() })
	ToPay         = OrderField("TO_PAY", func(o *orders.Order) string { return o.ToPay().String() })
	TotalConsigns = OrderField("TOTAL_CONSIGNS", func(o *orders.Order) string { return o.TotalConsigns().String() })
	Total         = OrderField("TOTAL", func(o *orders.Order) string { return o.TotalAll().String() })
)

// Item fields.
var (
	Name   = ItemField("NAME", func(i *orders.Item) string { return i.Name })
	Qty    = ItemField("QTY", func(i *orders.Item) string { return i.Qty.String() })
	Price  = ItemField("PRICE", func(i *orders.Item) string { return i.Price.String() })
	Amount = ItemField("AMOUNT", func(i *orders.Item) string { return i.Amount.String() })
)

// ItemTokens is the substitution order of a line model.
var ItemTokens = []Token{Name, Qty, Price, Amount}

// All lists every registered token, used by the validate command to report
// which labels a template references.
var All = []Token{
	AppName, Version, RunID,
	ModelFolder, Items, Consigns, Promotion,
	Today, Clock, DateTime,
	Client, DeliveryPoint, Date, OrderDate, OrderID,
	TotalSales, ToPay, TotalConsigns, Total,
	Name, Qty, Price, Amount,
}

// Referenced returns the names of registered tokens whose label occurs in
// text, without duplicates, in registry order.
func (s Syntax) Referenced(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tok := range All {
		if seen[tok.Name] {
			continue
		}
		if strings.Contains(text, s.Label(tok)) {
			seen[tok.Name] = true
			names = append(names, tok.Name)
		}
	}
	return names
}
