package validation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/invoicing/internal/orders"
)

func TestValidate(t *testing.T) {
	line := []orders.Item{orders.NewItem("A", decimal.NewFromInt(1), decimal.NewFromInt(1))}

	tests := []struct {
		name  string
		list  []orders.Order
		rules []string
	}{
		{
			name: "clean",
			list: []orders.Order{{OrderID: "1", Items: line}, {OrderID: "2", Consigns: line}},
		},
		{
			name:  "no lines",
			list:  []orders.Order{{OrderID: "1"}},
			rules: []string{RuleNoLines},
		},
		{
			name: "promotion out of range",
			list: []orders.Order{
				{OrderID: "1", Items: line, Promotion: &orders.Promotion{Name: "x", Percent: 150}},
				{OrderID: "2", Items: line, Promotion: &orders.Promotion{Name: "x", Percent: -5}},
				{OrderID: "3", Items: line, Promotion: &orders.Promotion{Name: "x", Percent: 100}},
			},
			rules: []string{RulePromotionRange, RulePromotionRange},
		},
		{
			name:  "duplicate id",
			list:  []orders.Order{{OrderID: "7", Items: line}, {OrderID: "8", Items: line}, {OrderID: "7", Items: line}},
			rules: []string{RuleDuplicateID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.list)
			if res.OrdersValidated != len(tt.list) {
				t.Errorf("OrdersValidated = %d", res.OrdersValidated)
			}
			if len(res.Warnings) != len(tt.rules) {
				t.Fatalf("got %d warnings, want %d: %v", len(res.Warnings), len(tt.rules), res.Messages())
			}
			for i, w := range res.Warnings {
				if w.Index < 0 || w.Index >= len(tt.list) || tt.list[w.Index].OrderID != w.OrderID {
					t.Errorf("warning %d index %d does not point at order %s", i, w.Index, w.OrderID)
				}
				if w.Rule != tt.rules[i] {
					t.Errorf("warning %d rule = %s, want %s", i, w.Rule, tt.rules[i])
				}
			}
		})
	}
}

func TestValidate_NeverMutates(t *testing.T) {
	list := []orders.Order{{OrderID: "1", Promotion: &orders.Promotion{Name: "x", Percent: 150}}}
	Validate(list)
	if list[0].Promotion.Percent != 150 {
		t.Error("promotion changed")
	}
}

func TestWarningMessage(t *testing.T) {
	res := Validate([]orders.Order{{OrderID: "9"}, {OrderID: "9"}})
	msgs := res.Messages()
	if len(msgs) != 3 {
		t.Fatalf("messages = %v", msgs)
	}
	if !strings.HasPrefix(msgs[0], "[WARNING] Order 9:") || !strings.Contains(msgs[2], "position 1") {
		t.Errorf("messages = %v", msgs)
	}
}
