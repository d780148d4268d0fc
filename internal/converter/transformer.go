// =============================================================================
// Invoicing - Field Transformations
// =============================================================================
//
// Optional rewrite chains applied to every order after it is read and before
// it is rendered. A rule names one field and a list of actions applied in
// sequence.
//
// FIELDS:
//   order_id, client, delivery_point, date : the order header
//   item_name                              : every item and consignment name
//
// ACTIONS:
//   - trim, uppercase, lowercase
//   - prepend_string, append_string  : Value is the affix
//   - pad_zeros_to_length            : Value is the target length
//   - replace                        : Find is replaced by Value
//   - regex_replace                  : regexp Find is replaced by Value
//   - lookup                         : whole value mapped via LookupTable
//   - latex_escape                   : escapes TeX special characters
//
// EXAMPLE (config.yaml):
//
//   transformations:
//     - field: order_id
//       actions:
//         - type: pad_zeros_to_length
//           value: "5"
//         - type: prepend_string
//           value: "INV-"
//     - field: client
//       actions:
//         - type: latex_escape
//
// Rules are checked when the Transformer is built, so applying them cannot
// fail halfway through a run.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/errs"
	"github.com/ginjaninja78/invoicing/internal/orders"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies the configured rules.
type Transformer struct {
	rules []config.TransformationRule

	// compiled holds the regexp of each regex_replace action, keyed by
	// its pattern.
	compiled map[string]*regexp.Regexp
}

// NewTransformer checks the rules and compiles their patterns.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{rules: rules, compiled: make(map[string]*regexp.Regexp)}

	for i, rule := range rules {
		for j, action := range rule.Actions {
			key := fmt.Sprintf("transformations[%d].actions[%d]", i, j)
			switch action.Type {
			case "trim", "uppercase", "lowercase", "latex_escape",
				"prepend_string", "append_string", "replace", "lookup":
			case "pad_zeros_to_length":
				if n, err := strconv.Atoi(action.Value); err != nil || n <= 0 {
					return nil, &errs.ConfigError{Key: key + ".value", Msg: fmt.Sprintf("invalid length %q", action.Value)}
				}
			case "regex_replace":
				re, err := regexp.Compile(action.Find)
				if err != nil {
					return nil, &errs.ConfigError{Key: key + ".find", Msg: fmt.Sprintf("invalid regex pattern: %v", err)}
				}
				t.compiled[action.Find] = re
			default:
				return nil, &errs.ConfigError{Key: key + ".type", Msg: fmt.Sprintf("unknown transformation type %q", action.Type)}
			}
		}
	}

	return t, nil
}

// Empty reports whether there is nothing to apply.
func (t *Transformer) Empty() bool {
	return len(t.rules) == 0
}

// Transform applies every rule to order in place.
func (t *Transformer) Transform(order *orders.Order) {
	for _, rule := range t.rules {
		switch rule.Field {
		case config.FieldOrderID:
			order.OrderID = t.apply(order.OrderID, rule.Actions)
		case config.FieldClient:
			order.Client = t.apply(order.Client, rule.Actions)
		case config.FieldDeliveryPoint:
			order.DeliveryPoint = t.apply(order.DeliveryPoint, rule.Actions)
		case config.FieldDate:
			order.Date = t.apply(order.Date, rule.Actions)
		case config.FieldItemName:
			for i := range order.Items {
				order.Items[i].Name = t.apply(order.Items[i].Name, rule.Actions)
			}
			for i := range order.Consigns {
				order.Consigns[i].Name = t.apply(order.Consigns[i].Name, rule.Actions)
			}
		}
	}
}

func (t *Transformer) apply(value string, actions []config.TransformationAction) string {
	for _, action := range actions {
		value = t.applyAction(value, action)
	}
	return value
}

// applyAction applies a single transformation action.
func (t *Transformer) applyAction(value string, action config.TransformationAction) string {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value

	case "append_string":
		return value + action.Value

	case "trim":
		return strings.TrimSpace(value)

	case "uppercase":
		return strings.ToUpper(value)

	case "lowercase":
		return strings.ToLower(value)

	case "replace":
		// EXAMPLE: "hello-world" with find "-" and value "_" -> "hello_world"
		if action.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, action.Find, action.Value)

	case "regex_replace":
		// EXAMPLE: "ABC-123-DEF" with find "[A-Z]+" and value "X" -> "X-123-X"
		if action.Find == "" {
			return value
		}
		return t.compiled[action.Find].ReplaceAllString(value, action.Value)

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		// EXAMPLE: "123" with value "5" -> "00123"
		n, _ := strconv.Atoi(action.Value)
		return PadLeft(value, n, '0')

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		// Unknown values are kept.
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement
		}
		return value

	// =========================================================================
	// DOCUMENT SAFETY
	// =========================================================================

	case "latex_escape":
		// EXAMPLE: "Smith & Sons" -> "Smith \& Sons"
		return LatexEscape(value)

	default:
		return value
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target
// length, counted in runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// LatexEscape escapes the characters TeX treats specially.
func LatexEscape(s string) string {
	return latexReplacer.Replace(s)
}
