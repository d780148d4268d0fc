package output

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/invoicing/internal/appctx"
	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/errs"
	"github.com/ginjaninja78/invoicing/internal/naming"
	"github.com/ginjaninja78/invoicing/internal/orders"
	"github.com/ginjaninja78/invoicing/internal/tokens"
)

// fakeCompiler mimics pdflatex: it reads the source and leaves the PDF and
// the usual side files next to it.
type fakeCompiler struct {
	fail   bool
	calls  int
	source string
}

func (f *fakeCompiler) Compile(_ context.Context, folder, source string) error {
	f.calls++
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	f.source = string(data)

	base := strings.TrimSuffix(filepath.Base(source), ".tex")
	exts := []string{".log", ".aux", ".out"}
	if !f.fail {
		exts = append(exts, ".pdf")
	}
	for _, ext := range exts {
		if err := os.WriteFile(filepath.Join(folder, base+ext), []byte(ext), 0o644); err != nil {
			return err
		}
	}
	if f.fail {
		return &errs.RenderError{ExitCode: 1, Command: "pdflatex " + source}
	}
	return nil
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newRenderer(t *testing.T, model string) (*LatexPDF, *fakeCompiler) {
	t.Helper()
	modelDir := t.TempDir()
	if model != "" {
		if err := os.WriteFile(filepath.Join(modelDir, "invoice.tex.template"), []byte(model), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fc := &fakeCompiler{}
	return &LatexPDF{
		Config: &config.LatexConfig{
			ModelPath:     "invoice.tex.template",
			LineModel:     config.DefaultLineModel(config.SyntaxConfig{Open: "<<", Close: ">>"}),
			PercentSuffix: config.DefaultPercentSuffix,
		},
		ModelDir: modelDir,
		Syntax:   tokens.DefaultSyntax,
		Names: naming.New(naming.Formats{}, time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
			naming.Constants{AppName: "invoicing", Version: "1.2.0", RunID: "run-1"}),
		Compiler: fc,
		Log:      quietLog(),
	}, fc
}

func testOrder() *orders.Order {
	return &orders.Order{
		OrderID:       "42",
		Client:        "ACME",
		DeliveryPoint: "Dock 4",
		Date:          "2024-03-05",
		Items: []orders.Item{
			orders.NewItem("Apple", decimal.NewFromInt(2), decimal.NewFromInt(10)),
			orders.NewItem("Pear", decimal.NewFromInt(1), decimal.NewFromInt(5)),
		},
		Consigns: []orders.Item{
			orders.NewItem("Crate", decimal.NewFromInt(2), decimal.RequireFromString("1.5")),
		},
		Promotion: &orders.Promotion{Name: "Spring", Percent: 10},
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestLatexPDF_Save(t *testing.T) {
	model := "<<CLIENT>>|<<DELIVERY_POINT>>|<<DATE>>|<<ORDER_ID>>\n" +
		"<<ITEMS>>\n<<PROMOTION>>\n<<CONSIGNS>>\n" +
		"<<TOTAL_SALES>>|<<TO_PAY>>|<<TOTAL_CONSIGNS>>|<<TOTAL>>\n" +
		"<<TODAY>>|<<VERSION>>|<<RUN_ID>>|<<UNKNOWN>>"
	r, fc := newRenderer(t, model)
	out := t.TempDir()

	if err := r.Save(context.Background(), testOrder(), "42", out); err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := "ACME|Dock 4|2024-03-05|42\n" +
		"Apple&2&10&20\\\\\nPear&1&5&5\\\\\n" +
		"Spring&&&10\\%\\\\\n" +
		"Crate&2&1.5&3\\\\\n" +
		"25|22.5|3|25.5\n" +
		"20240305|1.2.0|run-1|<<UNKNOWN>>"
	if fc.source != want {
		t.Errorf("document =\n%s\nwant\n%s", fc.source, want)
	}

	if !exists(filepath.Join(out, "42.pdf")) {
		t.Error("pdf missing")
	}
	for _, ext := range []string{".tex", ".log", ".aux", ".out"} {
		if exists(filepath.Join(out, "42"+ext)) {
			t.Errorf("%s not cleaned up", ext)
		}
	}
}

func TestLatexPDF_ModelFolder(t *testing.T) {
	r, fc := newRenderer(t, `\input{<<MODEL_FOLDER>>/header}`)
	if err := r.Save(context.Background(), testOrder(), "42", t.TempDir()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	abs, _ := filepath.Abs(r.ModelDir)
	if want := `\input{` + filepath.ToSlash(abs) + `/header}`; fc.source != want {
		t.Errorf("document = %q, want %q", fc.source, want)
	}
}

func TestLatexPDF_NoPromotion(t *testing.T) {
	r, fc := newRenderer(t, "[<<PROMOTION>>]")
	order := testOrder()
	order.Promotion = nil
	if err := r.Save(context.Background(), order, "42", t.TempDir()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fc.source != "[]" {
		t.Errorf("document = %q, want []", fc.source)
	}
}

func TestLatexPDF_AlreadyExists(t *testing.T) {
	for _, ext := range []string{".pdf", ".tex"} {
		r, fc := newRenderer(t, "<<CLIENT>>")
		out := t.TempDir()
		existing := filepath.Join(out, "42"+ext)
		if err := os.WriteFile(existing, []byte("previous"), 0o644); err != nil {
			t.Fatal(err)
		}

		err := r.Save(context.Background(), testOrder(), "42", out)
		var ae *errs.AlreadyExistsError
		if !errors.As(err, &ae) || ae.Path != existing {
			t.Fatalf("%s: expected AlreadyExistsError, got %v", ext, err)
		}
		if fc.calls != 0 {
			t.Errorf("%s: compiler ran", ext)
		}
		data, _ := os.ReadFile(existing)
		if string(data) != "previous" {
			t.Errorf("%s: existing file modified", ext)
		}
		entries, _ := os.ReadDir(out)
		if len(entries) != 1 {
			t.Errorf("%s: folder has %d entries, want 1", ext, len(entries))
		}
	}
}

func TestLatexPDF_CompileFailure(t *testing.T) {
	r, fc := newRenderer(t, "<<CLIENT>>")
	fc.fail = true
	out := t.TempDir()

	err := r.Save(context.Background(), testOrder(), "42", out)
	var re *errs.RenderError
	if !errors.As(err, &re) || re.ExitCode != 1 {
		t.Fatalf("expected RenderError, got %v", err)
	}
	for _, ext := range []string{".aux", ".out"} {
		if exists(filepath.Join(out, "42"+ext)) {
			t.Errorf("%s not removed after failure", ext)
		}
	}
	for _, ext := range []string{".tex", ".log"} {
		if !exists(filepath.Join(out, "42"+ext)) {
			t.Errorf("%s should be kept after failure", ext)
		}
	}
}

func TestLatexPDF_KeepIntermediate(t *testing.T) {
	r, _ := newRenderer(t, "<<CLIENT>>")
	r.Config.KeepIntermediate = true
	out := t.TempDir()
	if err := r.Save(context.Background(), testOrder(), "42", out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, ext := range []string{".pdf", ".tex", ".log"} {
		if !exists(filepath.Join(out, "42"+ext)) {
			t.Errorf("%s missing", ext)
		}
	}
}

func TestLatexPDF_MissingModel(t *testing.T) {
	r, fc := newRenderer(t, "")
	err := r.Save(context.Background(), testOrder(), "42", t.TempDir())
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) || nf.What != "model" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if fc.calls != 0 {
		t.Error("compiler ran")
	}
}

func TestLatexPDF_PathTemplates(t *testing.T) {
	r, _ := newRenderer(t, "<<CLIENT>>")
	r.Config.FileName = "invoice_<<NAME>>_<<TODAY>>"
	r.Config.Folder = "<<ORDER_DATE>>"
	out := t.TempDir()

	if err := r.Save(context.Background(), testOrder(), "42", out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := filepath.Join(out, "2024-03-05", "invoice_42_20240305.pdf"); !exists(want) {
		t.Errorf("%s missing", want)
	}
}

func TestLatexPDF_EmptyFileName(t *testing.T) {
	r, fc := newRenderer(t, "<<CLIENT>>")
	r.Config.FileName = "<<ORDER_DATE>>"
	order := testOrder()
	order.Date = ""

	err := r.Save(context.Background(), order, "42", t.TempDir())
	var cfgErr *errs.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if fc.calls != 0 {
		t.Error("compiler ran")
	}
}

func TestLatexPDF_EmptyOrderID(t *testing.T) {
	r, fc := newRenderer(t, "<<CLIENT>>")
	order := testOrder()
	order.OrderID = ""

	err := r.Save(context.Background(), order, "", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "empty order id") {
		t.Fatalf("expected empty order id error, got %v", err)
	}
	var cfgErr *errs.ConfigError
	if errors.As(err, &cfgErr) {
		t.Errorf("reported as configuration error: %v", err)
	}
	if fc.calls != 0 {
		t.Error("compiler ran")
	}
}

func TestLatexPDF_CustomSyntaxDefaults(t *testing.T) {
	t.Setenv("INVOICING_WORKSPACE", "")
	cfg, err := config.Parse([]byte("syntax:\n  open: \"{{\"\n  close: \"}}\"\noutput:\n  latex: {}\n"))
	if err != nil {
		t.Fatal(err)
	}
	r := NewLatexPDF(appctx.New(cfg, "dev", time.Now()), cfg.Output.Latex, true)
	order := testOrder()

	if got, want := r.ItemLines(order.Items), "Apple&2&10&20\\\\\nPear&1&5&5\\\\"; got != want {
		t.Errorf("ItemLines = %q, want %q", got, want)
	}
	if got, want := r.PromotionLine(order), "Spring&&&10\\%\\\\"; got != want {
		t.Errorf("PromotionLine = %q, want %q", got, want)
	}
}

func TestLatexPDF_FolderIsAFile(t *testing.T) {
	r, _ := newRenderer(t, "<<CLIENT>>")
	file := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Save(context.Background(), testOrder(), "42", file); err == nil {
		t.Fatal("expected an error when the folder is a file")
	}
}

func TestLatexPDF_DryRun(t *testing.T) {
	r, fc := newRenderer(t, "<<CLIENT>>")
	r.DryRun = true
	out := filepath.Join(t.TempDir(), "new")

	if err := r.Save(context.Background(), testOrder(), "42", out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fc.calls != 0 {
		t.Error("compiler ran in dry run")
	}
	if exists(out) {
		t.Error("dry run created the output folder")
	}
}

func TestExecCompiler(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ctx := context.Background()

	ok := &ExecCompiler{Command: "sh", Args: []string{"-c", "exit 0"}, Log: quietLog()}
	if err := ok.Compile(ctx, t.TempDir(), "doc.tex"); err != nil {
		t.Errorf("Compile: %v", err)
	}

	bad := &ExecCompiler{Command: "sh", Args: []string{"-c", "exit 3"}, Log: quietLog()}
	err := bad.Compile(ctx, "out", "doc.tex")
	var re *errs.RenderError
	if !errors.As(err, &re) || re.ExitCode != 3 {
		t.Fatalf("expected RenderError with code 3, got %v", err)
	}
	if want := "sh -c exit 3 -output-directory out doc.tex"; re.Command != want {
		t.Errorf("Command = %q, want %q", re.Command, want)
	}

	missing := &ExecCompiler{Command: "no-such-latex-engine", Log: quietLog()}
	if err := missing.Compile(ctx, "out", "doc.tex"); !errors.As(err, &re) || re.ExitCode != -1 {
		t.Fatalf("expected RenderError with code -1, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	cfg, err := config.Parse([]byte("workspace:\n  root: ws\n"))
	if err != nil {
		t.Fatal(err)
	}
	run := appctx.New(cfg, "dev", time.Now())

	_, err = Open(run, false)
	var cfgErr *errs.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError without outputs, got %v", err)
	}

	cfg.Output.Latex = &config.LatexConfig{Compiler: "pdflatex"}
	writers, err := Open(run, true)
	if err != nil || len(writers) != 1 || writers[0].Name() != LatexSection {
		t.Fatalf("Open = %v, %v", writers, err)
	}
}
