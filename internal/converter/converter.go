// =============================================================================
// Invoicing - Converter Module
// =============================================================================
//
// This module orchestrates one run, from the spreadsheet to the documents.
//
// CONVERSION PIPELINE:
//   1. Read the orders from the input collaborator
//   2. Apply the field transformations
//   3. Validate the orders (warnings only)
//   4. Save every order through every output collaborator
//
// ERROR HANDLING:
//   An input failure aborts the run: there is nothing to render. A failure
//   while saving one order is logged and recorded, and the run moves on to
//   the next order. The Result lists every failure.
//
// CONCURRENCY:
//   None. Orders are saved one after the other; the compiler runs blocking.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/invoicing/internal/appctx"
	"github.com/ginjaninja78/invoicing/internal/input"
	"github.com/ginjaninja78/invoicing/internal/orders"
	"github.com/ginjaninja78/invoicing/internal/output"
	"github.com/ginjaninja78/invoicing/internal/validation"
	"github.com/ginjaninja78/invoicing/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of a run.
type Result struct {
	// Orders is the number of orders read.
	Orders int

	// Validated is the number of orders checked by the validator.
	Validated int

	// Saved is the number of documents written (or, in a dry run, that
	// would have been written).
	Saved int

	// Failures lists every order/output pair that failed.
	Failures []utils.FailedOrderInfo

	// Warnings lists the validation findings.
	Warnings []string

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// Success is true when every document was saved.
func (r *Result) Success() bool {
	return len(r.Failures) == 0
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline for one spreadsheet.
type Converter struct {
	run         *appctx.Run
	reader      input.Reader
	writers     []output.Writer
	transformer *Transformer
}

// New creates a Converter. The transformation rules of the run
// configuration are checked here.
//
// PARAMETERS:
//   - run: The run context.
//   - reader: The input collaborator.
//   - writers: The output collaborators, at least one.
//
// RETURNS:
//   - A new Converter.
//   - A ConfigError if a transformation rule is invalid.
func New(run *appctx.Run, reader input.Reader, writers []output.Writer) (*Converter, error) {
	t, err := NewTransformer(run.Config.Transformations)
	if err != nil {
		return nil, err
	}
	return &Converter{
		run:         run,
		reader:      reader,
		writers:     writers,
		transformer: t,
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline.
//
// RETURNS:
//   - The Result, also when some documents failed.
//   - An error only if the orders could not be read.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := c.run.Log
	result := &Result{}

	// =========================================================================
	// STEP 1: READ ORDERS
	// =========================================================================

	list, err := c.reader.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	result.Orders = len(list)

	// =========================================================================
	// STEP 2: APPLY TRANSFORMATION RULES
	// =========================================================================

	if !c.transformer.Empty() {
		for i := range list {
			c.transformer.Transform(&list[i])
		}
		log.Debugf("applied transformation rules to %d orders", len(list))
	}

	// =========================================================================
	// STEP 3: VALIDATE
	// =========================================================================

	check := validation.Validate(list)
	for _, w := range check.Warnings {
		log.WithFields(logrus.Fields{
			"order_id": w.OrderID,
			"position": w.Index + 1,
		}).Warn(w.Message)
	}
	result.Validated = check.OrdersValidated
	result.Warnings = check.Messages()

	// =========================================================================
	// STEP 4: SAVE DOCUMENTS
	// =========================================================================

	for i := range list {
		order := &list[i]
		for _, w := range c.writers {
			if err := c.save(ctx, w, order); err != nil {
				log.WithFields(logrus.Fields{
					"order_id": order.OrderID,
					"output":   w.Name(),
				}).WithError(err).Error("document not saved")

				result.Failures = append(result.Failures, utils.FailedOrderInfo{
					OrderID:      order.OrderID,
					Output:       w.Name(),
					ErrorMessage: err.Error(),
				})
				continue
			}
			result.Saved++
		}
	}

	result.ProcessingTime = time.Since(start)
	log.Infof("%d orders, %d documents saved, %d failures", result.Orders, result.Saved, len(result.Failures))
	return result, nil
}

// save hands one order to one writer. The name defaults to the order id and
// the folder to the workspace output folder.
func (c *Converter) save(ctx context.Context, w output.Writer, order *orders.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.Save(ctx, order, order.OrderID, c.run.Workspace.Output)
}

// Summary builds the run summary written to the logs folder.
func (c *Converter) Summary(source string, r *Result) utils.ProcessingSummary {
	return utils.ProcessingSummary{
		RunID:          c.run.ID,
		Input:          source,
		StartTime:      c.run.Started,
		EndTime:        time.Now(),
		TotalOrders:    r.Orders,
		DocumentsSaved: r.Saved,
		Failures:       r.Failures,
		Warnings:       r.Warnings,
	}
}
