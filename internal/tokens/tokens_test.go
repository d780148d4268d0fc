package tokens

import (
	"reflect"
	"testing"
	"time"

	"github.com/ginjaninja78/invoicing/internal/orders"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func widget() *orders.Item {
	item := orders.NewItem("Widget", decimal.RequireFromString("2"), decimal.RequireFromString("10.5"))
	return &item
}

func TestLabel(t *testing.T) {
	if got := DefaultSyntax.Label(Client); got != "<<CLIENT>>" {
		t.Errorf("Label = %q, want <<CLIENT>>", got)
	}
	custom := Syntax{Open: "{{", Close: "}}"}
	if got := custom.Label(Client); got != "{{CLIENT}}" {
		t.Errorf("custom Label = %q, want {{CLIENT}}", got)
	}
}

func TestReplaceItem_HelloWidget(t *testing.T) {
	got := DefaultSyntax.ReplaceItem("Hello <<NAME>>", Name, widget())
	if got != "Hello Widget" {
		t.Errorf("got %q, want %q", got, "Hello Widget")
	}
}

func TestReplace_NoLabelIsIdentity(t *testing.T) {
	texts := []string{
		"",
		"plain text",
		"<<UNKNOWN>> stays <<>>",
		"<CLIENT> and <<CLIENT> are not labels",
	}
	order := &orders.Order{Client: "ACME"}
	for _, text := range texts {
		if got := DefaultSyntax.ReplaceOrder(text, Client, order); got != text {
			t.Errorf("ReplaceOrder(%q) = %q, want unchanged", text, got)
		}
	}
}

func TestReplace_IsGlobalAndLiteral(t *testing.T) {
	text := "<<CLIENT>>|<<CLIENT>>|<<CLIENT>>"
	got := DefaultSyntax.ReplaceOrder(text, Client, &orders.Order{Client: "$1 (a.*)"})
	want := "$1 (a.*)|$1 (a.*)|$1 (a.*)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolve_ByKind(t *testing.T) {
	order := &orders.Order{
		OrderID: "42",
		Client:  "ACME",
		Date:    "05/03/2024",
		Items:   []orders.Item{*widget()},
	}
	tests := []struct {
		name string
		tok  Token
		in   Input
		want string
	}{
		{"plain", Items, Input{Content: "a\nb"}, "a\nb"},
		{"time date", Today, Input{Format: "20060102", Now: fixedNow}, "20240305"},
		{"time datetime", DateTime, Input{Format: "20060102_150405", Now: fixedNow}, "20240305_140709"},
		{"time empty format", Clock, Input{Now: fixedNow}, ""},
		{"order id", OrderID, Input{Order: order}, "42"},
		{"order date", Date, Input{Order: order}, "05/03/2024"},
		{"order total", TotalSales, Input{Order: order}, "21"},
		{"order missing", Client, Input{}, ""},
		{"item qty", Qty, Input{Item: widget()}, "2"},
		{"item price", Price, Input{Item: widget()}, "10.5"},
		{"item amount", Amount, Input{Item: widget()}, "21"},
		{"item missing", Amount, Input{Order: order}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.tok, tt.in); got != tt.want {
				t.Errorf("Resolve(%s) = %q, want %q", tt.tok.Name, got, tt.want)
			}
		})
	}
}

func TestReplaceOrder_NilOrderEmptiesLabel(t *testing.T) {
	got := DefaultSyntax.ReplaceOrder("to pay: <<TO_PAY>>", ToPay, nil)
	if got != "to pay: " {
		t.Errorf("got %q", got)
	}
}

func TestReplaceItemLine(t *testing.T) {
	line := `<<NAME>>&<<QTY>>&<<PRICE>>&<<AMOUNT>>\\`
	got := DefaultSyntax.ReplaceItemLine(line, widget())
	want := `Widget&2&10.5&21\\`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReplace_OrderOfPassesMatters(t *testing.T) {
	// A value carrying a later label is substituted by the later pass.
	order := &orders.Order{Client: "<<ORDER_ID>>", OrderID: "7"}
	text := "<<CLIENT>>"
	text = DefaultSyntax.ReplaceOrder(text, Client, order)
	text = DefaultSyntax.ReplaceOrder(text, OrderID, order)
	if text != "7" {
		t.Errorf("got %q, want 7", text)
	}
}

func TestReferenced(t *testing.T) {
	text := "<<CLIENT>> <<NAME>> <<ITEMS>> <<CLIENT>> <<NOPE>>"
	got := DefaultSyntax.Referenced(text)
	want := []string{"ITEMS", "CLIENT", "NAME"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Referenced = %v, want %v", got, want)
	}
}

func TestKindString(t *testing.T) {
	if KindOrder.String() != "order" || Kind(99).String() != "unknown" {
		t.Errorf("unexpected Kind strings")
	}
}
