// Package output holds the output collaborators: each one turns an order
// into a document on disk.
package output

import (
	"context"

	"github.com/ginjaninja78/invoicing/internal/appctx"
	"github.com/ginjaninja78/invoicing/internal/orders"
)

// Writer saves one document per order.
type Writer interface {
	// Name is the configuration section of the writer, e.g. "output.latex".
	Name() string

	// Save renders order as name inside folder. name and folder are the
	// defaults the configured path templates are resolved against.
	Save(ctx context.Context, order *orders.Order, name, folder string) error
}

// Open builds every configured writer.
func Open(run *appctx.Run, dryRun bool) ([]Writer, error) {
	if err := run.Config.RequireOutputs(); err != nil {
		return nil, err
	}

	var writers []Writer
	if lx := run.Config.Output.Latex; lx != nil {
		writers = append(writers, NewLatexPDF(run, lx, dryRun))
	}
	return writers, nil
}
