// =============================================================================
// Invoicing - Token Language
// =============================================================================
//
// A token is a named placeholder written between a delimiter pair, by default
// "<<NAME>>". Each token belongs to exactly one of four kinds, and the kind
// decides where its replacement text comes from:
//
//   KindPlain : content supplied by the caller (pre-rendered blocks, constants)
//   KindTime  : the run clock formatted with a caller supplied Go layout
//   KindOrder : a fixed extraction from an orders.Order
//   KindItem  : a fixed extraction from an orders.Item
//
// Substitution is a literal, global, non-overlapping replacement of the label.
// There is no escaping: a replacement value that happens to contain another
// token label will be substituted by a later pass.
//
// =============================================================================

package tokens

import (
	"strings"
	"time"

	"github.com/ginjaninja78/invoicing/internal/orders"
)

// =============================================================================
// SYNTAX
// =============================================================================

const (
	DefaultOpen  = "<<"
	DefaultClose = ">>"
)

// Syntax is the delimiter pair surrounding token names.
type Syntax struct {
	Open  string
	Close string
}

// DefaultSyntax is "<<" / ">>".
var DefaultSyntax = Syntax{Open: DefaultOpen, Close: DefaultClose}

// Label returns the text that stands for tok in a template.
func (s Syntax) Label(tok Token) string {
	return s.Open + tok.Name + s.Close
}

// =============================================================================
// TOKENS
// =============================================================================

// Kind tags the resolution strategy of a Token.
type Kind int

const (
	KindPlain Kind = iota
	KindTime
	KindOrder
	KindItem
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindTime:
		return "time"
	case KindOrder:
		return "order"
	case KindItem:
		return "item"
	default:
		return "unknown"
	}
}

// Token is a named placeholder with one resolution strategy.
type Token struct {
	Name string
	Kind Kind

	order func(*orders.Order) string
	item  func(*orders.Item) string
}

// Plain declares a token whose content is given at substitution time.
func Plain(name string) Token {
	return Token{Name: name, Kind: KindPlain}
}

// Time declares a token rendering the clock with a layout.
func Time(name string) Token {
	return Token{Name: name, Kind: KindTime}
}

// OrderField declares a token extracted from an Order.
func OrderField(name string, fn func(*orders.Order) string) Token {
	return Token{Name: name, Kind: KindOrder, order: fn}
}

// ItemField declares a token extracted from an Item.
func ItemField(name string, fn func(*orders.Item) string) Token {
	return Token{Name: name, Kind: KindItem, item: fn}
}

// Input carries everything a token may resolve against. Only the fields
// matching the token kind are read.
type Input struct {
	// Content is the replacement of a KindPlain token.
	Content string

	// Format is the Go time layout of a KindTime token. Empty yields "".
	Format string

	// Now is the instant a KindTime token renders.
	Now time.Time

	Order *orders.Order
	Item  *orders.Item
}

// Resolve computes the replacement text of tok.
func Resolve(tok Token, in Input) string {
	switch tok.Kind {
	case KindPlain:
		return in.Content
	case KindTime:
		if in.Format == "" {
			return ""
		}
		return in.Now.Format(in.Format)
	case KindOrder:
		if in.Order == nil || tok.order == nil {
			return ""
		}
		return tok.order(in.Order)
	case KindItem:
		if in.Item == nil || tok.item == nil {
			return ""
		}
		return tok.item(in.Item)
	default:
		return ""
	}
}

// =============================================================================
// SUBSTITUTION
// =============================================================================

// Replace substitutes every occurrence of tok's label in text.
func (s Syntax) Replace(text string, tok Token, in Input) string {
	return strings.ReplaceAll(text, s.Label(tok), Resolve(tok, in))
}

// ReplacePlain substitutes tok with content.
func (s Syntax) ReplacePlain(text string, tok Token, content string) string {
	return s.Replace(text, tok, Input{Content: content})
}

// ReplaceTime substitutes tok with now formatted by layout.
func (s Syntax) ReplaceTime(text string, tok Token, layout string, now time.Time) string {
	return s.Replace(text, tok, Input{Format: layout, Now: now})
}

// ReplaceOrder substitutes tok with its extraction from order.
func (s Syntax) ReplaceOrder(text string, tok Token, order *orders.Order) string {
	return s.Replace(text, tok, Input{Order: order})
}

// ReplaceItem substitutes tok with its extraction from item.
func (s Syntax) ReplaceItem(text string, tok Token, item *orders.Item) string {
	return s.Replace(text, tok, Input{Item: item})
}

// ReplaceItemLine fills every Item token of a line model with item.
func (s Syntax) ReplaceItemLine(line string, item *orders.Item) string {
	for _, tok := range ItemTokens {
		line = s.ReplaceItem(line, tok, item)
	}
	return line
}
