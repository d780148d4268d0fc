// =============================================================================
// Invoicing - Path/Filename Resolver
// =============================================================================
//
// Output file names, output folders and the log file name are path templates
// written in the token language. The resolver applies a fixed sequence of
// substitutions:
//
//   <<ORDER_DATE>>  order date as read from the sheet
//   <<NAME>>        base name handed to the output (the order id by default)
//   <<ORDER_ID>>    order id
//   <<TODAY>>       run clock, date layout
//   <<TIME>>        run clock, time layout
//   <<DATETIME>>    run clock, datetime layout
//   <<APP_NAME>>, <<VERSION>>, <<RUN_ID>>
//
// An empty template means "no template configured" and returns the base
// unchanged. A template that resolves to "" is returned as "" and left to the
// caller to reject.
//
// =============================================================================

package naming

import (
	"path/filepath"
	"time"

	"github.com/ginjaninja78/invoicing/internal/orders"
	"github.com/ginjaninja78/invoicing/internal/tokens"
)

// Default layouts, used when a Formats field is empty.
const (
	DefaultDateFormat     = "20060102"
	DefaultTimeFormat     = "150405"
	DefaultDateTimeFormat = "20060102_150405"
)

// Formats are Go time layouts for the three clock tokens.
type Formats struct {
	Date     string
	Time     string
	DateTime string
}

// Constants are the process-wide values known at start.
type Constants struct {
	AppName string
	Version string
	RunID   string
}

// Resolver turns path templates into names.
type Resolver struct {
	Syntax    tokens.Syntax
	Formats   Formats
	Now       time.Time
	Constants Constants
}

// New returns a Resolver with the default syntax.
func New(formats Formats, now time.Time, constants Constants) *Resolver {
	return &Resolver{
		Syntax:    tokens.DefaultSyntax,
		Formats:   formats,
		Now:       now,
		Constants: constants,
	}
}

// FileName resolves a file name template. order may be nil.
func (r *Resolver) FileName(template, base string, order *orders.Order) string {
	if template == "" {
		return base
	}
	return r.Apply(template, base, order)
}

// Folder resolves a folder template. A relative result is placed under base.
func (r *Resolver) Folder(template, base string, order *orders.Order) string {
	if template == "" {
		return base
	}
	resolved := r.Apply(template, base, order)
	if filepath.IsAbs(resolved) {
		return filepath.Clean(resolved)
	}
	return filepath.Join(base, resolved)
}

// Apply runs the substitution sequence on template, unconditionally.
func (r *Resolver) Apply(template, name string, order *orders.Order) string {
	s := r.Syntax
	out := template
	out = s.ReplaceOrder(out, tokens.OrderDate, order)
	out = s.ReplacePlain(out, tokens.BaseName, name)
	out = s.ReplaceOrder(out, tokens.OrderID, order)
	out = s.ReplaceTime(out, tokens.Today, orDefault(r.Formats.Date, DefaultDateFormat), r.Now)
	out = s.ReplaceTime(out, tokens.Clock, orDefault(r.Formats.Time, DefaultTimeFormat), r.Now)
	out = s.ReplaceTime(out, tokens.DateTime, orDefault(r.Formats.DateTime, DefaultDateTimeFormat), r.Now)
	out = s.ReplacePlain(out, tokens.AppName, r.Constants.AppName)
	out = s.ReplacePlain(out, tokens.Version, r.Constants.Version)
	out = s.ReplacePlain(out, tokens.RunID, r.Constants.RunID)
	return out
}

// Layout returns the effective layout of a clock token.
func (r *Resolver) Layout(tok tokens.Token) string {
	switch tok.Name {
	case tokens.Today.Name:
		return orDefault(r.Formats.Date, DefaultDateFormat)
	case tokens.Clock.Name:
		return orDefault(r.Formats.Time, DefaultTimeFormat)
	case tokens.DateTime.Name:
		return orDefault(r.Formats.DateTime, DefaultDateTimeFormat)
	default:
		return ""
	}
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
