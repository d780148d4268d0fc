// =============================================================================
// Invoicing - LaTeX Document Renderer
// =============================================================================
//
// Fills a LaTeX model with an order and compiles it to PDF.
//
// SAVE SEQUENCE:
//   1. Load      : read the model (model folder + model_path)
//   2. Resolve   : output name and folder from the path templates; the
//                  folder is created; an existing <name>.pdf or <name>.tex
//                  stops here with nothing modified
//   3. Substitute: document tokens, in this order:
//                    MODEL_FOLDER, CLIENT, DELIVERY_POINT, DATE, ORDER_ID,
//                    PROMOTION, TOTAL_SALES, TO_PAY, TOTAL_CONSIGNS, TOTAL,
//                    ITEMS, CONSIGNS, ORDER_DATE, TODAY, TIME, DATETIME,
//                    APP_NAME, VERSION, RUN_ID
//   4. Hand off  : write <name>.tex, run the compiler, clean up
//
// On a compiler failure .aux and .out are removed and the .tex and .log are
// kept for inspection. On success .log, .aux, .out and .tex are removed
// unless keep_intermediate is set.
//
// In dry-run mode steps 1 to 3 run and nothing is written.
//
// =============================================================================

package output

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/invoicing/internal/appctx"
	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/errs"
	"github.com/ginjaninja78/invoicing/internal/naming"
	"github.com/ginjaninja78/invoicing/internal/orders"
	"github.com/ginjaninja78/invoicing/internal/tokens"
	"github.com/ginjaninja78/invoicing/pkg/utils"
)

// LatexSection is the configuration section of the renderer.
const LatexSection = "output.latex"

// promotionTokens fill a line model with the promotion. They share the
// labels of the item tokens but take plain content.
var promotionTokens = struct {
	name, qty, price, amount tokens.Token
}{
	name:   tokens.Plain(tokens.Name.Name),
	qty:    tokens.Plain(tokens.Qty.Name),
	price:  tokens.Plain(tokens.Price.Name),
	amount: tokens.Plain(tokens.Amount.Name),
}

// LatexPDF renders orders through a LaTeX model.
type LatexPDF struct {
	Config   *config.LatexConfig
	ModelDir string
	Syntax   tokens.Syntax
	Names    *naming.Resolver
	Compiler Compiler
	DryRun   bool
	Log      *logrus.Entry
}

// NewLatexPDF wires the renderer to the run.
func NewLatexPDF(run *appctx.Run, cfg *config.LatexConfig, dryRun bool) *LatexPDF {
	log := run.Log.WithField("output", LatexSection)
	return &LatexPDF{
		Config:   cfg,
		ModelDir: run.Workspace.Model,
		Syntax:   run.Syntax(),
		Names:    run.Names(),
		Compiler: &ExecCompiler{Command: cfg.Compiler, Args: cfg.CompilerArgs, Log: log},
		DryRun:   dryRun,
		Log:      log,
	}
}

// Name implements Writer.
func (l *LatexPDF) Name() string { return LatexSection }

// ModelPath is the model file in use.
func (l *LatexPDF) ModelPath() string {
	if filepath.IsAbs(l.Config.ModelPath) {
		return l.Config.ModelPath
	}
	return filepath.Join(l.ModelDir, l.Config.ModelPath)
}

// LoadModel reads the model file.
func (l *LatexPDF) LoadModel() (string, error) {
	path := l.ModelPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &errs.NotFoundError{What: "model", Path: path}
		}
		return "", fmt.Errorf("failed to read model: %w", err)
	}
	return string(data), nil
}

// Target resolves the output folder and base name of order.
func (l *LatexPDF) Target(order *orders.Order, name, folder string) (dir, base string, err error) {
	if l.Config.FileName == "" && name == "" {
		return "", "", fmt.Errorf("no file name for order: empty order id")
	}
	base = l.Names.FileName(l.Config.FileName, name, order)
	if base == "" {
		return "", "", &errs.ConfigError{Key: LatexSection + ".filename", Msg: "resolves to an empty name"}
	}
	dir = l.Names.Folder(l.Config.Folder, folder, order)
	return dir, base, nil
}

// Save implements Writer.
func (l *LatexPDF) Save(ctx context.Context, order *orders.Order, name, folder string) error {
	model, err := l.LoadModel()
	if err != nil {
		return err
	}

	dir, base, err := l.Target(order, name, folder)
	if err != nil {
		return err
	}
	texFile := filepath.Join(dir, base+".tex")
	pdfFile := filepath.Join(dir, base+".pdf")
	log := l.Log.WithFields(logrus.Fields{"order_id": order.OrderID, "file": pdfFile})

	if !l.DryRun {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}
	for _, p := range []string{pdfFile, texFile} {
		if utils.FileExists(p) {
			return &errs.AlreadyExistsError{Path: p}
		}
	}

	data := l.Fill(model, order)

	if l.DryRun {
		log.Infof("dry run: would write %s (%d bytes) and compile it", texFile, len(data))
		return nil
	}

	if err := os.WriteFile(texFile, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", texFile, err)
	}

	aux := filepath.Join(dir, base+".aux")
	out := filepath.Join(dir, base+".out")

	if err := l.Compiler.Compile(ctx, dir, texFile); err != nil {
		n := utils.RemoveQuietly(aux, out)
		log.Debugf("removed %d intermediate files", n)
		return err
	}

	if !l.Config.KeepIntermediate {
		n := utils.RemoveQuietly(filepath.Join(dir, base+".log"), aux, out, texFile)
		log.Debugf("removed %d intermediate files", n)
	}
	log.Info("document saved")
	return nil
}

// Fill substitutes every document token of model.
func (l *LatexPDF) Fill(model string, order *orders.Order) string {
	s := l.Syntax
	names := l.Names
	data := model

	data = s.ReplacePlain(data, tokens.ModelFolder, l.modelFolder())
	data = s.ReplaceOrder(data, tokens.Client, order)
	data = s.ReplaceOrder(data, tokens.DeliveryPoint, order)
	data = s.ReplaceOrder(data, tokens.Date, order)
	data = s.ReplaceOrder(data, tokens.OrderID, order)
	data = s.ReplacePlain(data, tokens.Promotion, l.PromotionLine(order))
	data = s.ReplaceOrder(data, tokens.TotalSales, order)
	data = s.ReplaceOrder(data, tokens.ToPay, order)
	data = s.ReplaceOrder(data, tokens.TotalConsigns, order)
	data = s.ReplaceOrder(data, tokens.Total, order)
	data = s.ReplacePlain(data, tokens.Items, l.ItemLines(order.Items))
	data = s.ReplacePlain(data, tokens.Consigns, l.ItemLines(order.Consigns))

	data = s.ReplaceOrder(data, tokens.OrderDate, order)
	data = s.ReplaceTime(data, tokens.Today, names.Layout(tokens.Today), names.Now)
	data = s.ReplaceTime(data, tokens.Clock, names.Layout(tokens.Clock), names.Now)
	data = s.ReplaceTime(data, tokens.DateTime, names.Layout(tokens.DateTime), names.Now)
	data = s.ReplacePlain(data, tokens.AppName, names.Constants.AppName)
	data = s.ReplacePlain(data, tokens.Version, names.Constants.Version)
	data = s.ReplacePlain(data, tokens.RunID, names.Constants.RunID)

	return data
}

// ItemLines renders the line model once per item, joined with newlines.
func (l *LatexPDF) ItemLines(items []orders.Item) string {
	lines := make([]string, 0, len(items))
	for i := range items {
		lines = append(lines, l.Syntax.ReplaceItemLine(l.Config.LineModel, &items[i]))
	}
	return strings.Join(lines, "\n")
}

// PromotionLine renders the promotion through the line model with empty
// quantity and price; "" without a promotion.
func (l *LatexPDF) PromotionLine(order *orders.Order) string {
	p := order.Promotion
	if p == nil {
		return ""
	}
	s := l.Syntax
	line := l.Config.LineModel
	line = s.ReplacePlain(line, promotionTokens.name, p.Name)
	line = s.ReplacePlain(line, promotionTokens.qty, "")
	line = s.ReplacePlain(line, promotionTokens.price, "")
	line = s.ReplacePlain(line, promotionTokens.amount, strconv.Itoa(p.Percent)+l.Config.PercentSuffix)
	return line
}

// modelFolder is the absolute folder of the model with forward slashes, as
// TeX expects in \input and \includegraphics paths.
func (l *LatexPDF) modelFolder() string {
	dir := filepath.Dir(l.ModelPath())
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return strings.ReplaceAll(dir, "\\", "/")
}
