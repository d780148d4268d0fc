package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/invoicing/internal/errs"
)

const fullConfig = `
workspace:
  root: /srv/invoicing
logging:
  console_level: info
input:
  source: google
  spreadsheet_id: sheet-123
  cells:
    date: B1
    promotion_name: B2
    promotion_value: C2
  columns:
    order_id: A
    client: B
    delivery_point: C
    consigns: D
    sales: F
    last: K
  lines:
    names: 3
    prices: 4
    orders: 5
    last: 40
output:
  latex:
    filename: "<<ORDER_ID>>_<<TODAY>>"
transformations:
  - field: client
    actions:
      - type: trim
`

func TestParse_Defaults(t *testing.T) {
	t.Setenv("INVOICING_WORKSPACE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	cfg, err := Parse([]byte(fullConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Workspace.Output != filepath.Join("/srv/invoicing", "output") {
		t.Errorf("Workspace.Output = %q", cfg.Workspace.Output)
	}
	if cfg.Workspace.Key != filepath.Join("/srv/invoicing", "key") {
		t.Errorf("Workspace.Key = %q", cfg.Workspace.Key)
	}
	if cfg.Logging.ConsoleLevel != "info" || cfg.Logging.FileLevel != DefaultFileLevel {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Formats.Date != DefaultDateFormat || cfg.Formats.DateTime != DefaultDateTimeFormat {
		t.Errorf("Formats = %+v", cfg.Formats)
	}
	if cfg.Syntax.Open != "<<" || cfg.Syntax.Close != ">>" {
		t.Errorf("Syntax = %+v", cfg.Syntax)
	}
	if cfg.Input.CredentialsPath != filepath.Join("/srv/invoicing", "key", DefaultCredentials) {
		t.Errorf("CredentialsPath = %q", cfg.Input.CredentialsPath)
	}

	lx := cfg.Output.Latex
	if lx == nil {
		t.Fatal("expected latex output")
	}
	if lx.ModelPath != DefaultModelPath || lx.LineModel != `<<NAME>>&<<QTY>>&<<PRICE>>&<<AMOUNT>>\\` || lx.Compiler != DefaultCompiler {
		t.Errorf("Latex defaults not applied: %+v", lx)
	}
	if lx.FileName != "<<ORDER_ID>>_<<TODAY>>" {
		t.Errorf("FileName = %q", lx.FileName)
	}
}

func TestParse_DefaultsFollowSyntax(t *testing.T) {
	t.Setenv("INVOICING_WORKSPACE", "")

	cfg, err := Parse([]byte("syntax:\n  open: \"{{\"\n  close: \"}}\"\noutput:\n  latex: {}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := "{{TODAY}}.log"; cfg.Logging.FileName != want {
		t.Errorf("Logging.FileName = %q, want %q", cfg.Logging.FileName, want)
	}
	if want := `{{NAME}}&{{QTY}}&{{PRICE}}&{{AMOUNT}}\\`; cfg.Output.Latex.LineModel != want {
		t.Errorf("LineModel = %q, want %q", cfg.Output.Latex.LineModel, want)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("INVOICING_SPREADSHEET_ID", "from-env")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")

	cfg, err := Parse([]byte(fullConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Input.SpreadsheetID != "from-env" {
		t.Errorf("SpreadsheetID = %q", cfg.Input.SpreadsheetID)
	}
	if cfg.Input.CredentialsPath != "/secrets/sa.json" {
		t.Errorf("CredentialsPath = %q", cfg.Input.CredentialsPath)
	}
}

func TestParse_RejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		key  string
	}{
		{"log format", "logging:\n  format: xml\n", "logging.format"},
		{"source", "input:\n  source: ftp\n", "input.source"},
		{"transformation field", "transformations:\n  - field: price\n", "transformations[0].field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var cfgErr *errs.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Key != tt.key {
				t.Errorf("Key = %q, want %q", cfgErr.Key, tt.key)
			}
		})
	}
}

func TestRequireInput_ListsMissingKeys(t *testing.T) {
	cfg, err := Parse([]byte("input:\n  cells:\n    date: B1\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = cfg.RequireInput()
	var cfgErr *errs.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if strings.Contains(cfgErr.Key, "input.cells.date") {
		t.Errorf("date is set and must not be reported: %q", cfgErr.Key)
	}
	for _, key := range []string{"input.cells.promotion_name", "input.columns.last", "input.lines.last"} {
		if !strings.Contains(cfgErr.Key, key) {
			t.Errorf("missing key %q not reported in %q", key, cfgErr.Key)
		}
	}
}

func TestRequireInput_NoSection(t *testing.T) {
	cfg, err := Parse([]byte("output:\n  latex: {}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := cfg.RequireInput(); err == nil {
		t.Fatal("expected error without input section")
	}
	if err := cfg.RequireOutputs(); err != nil {
		t.Errorf("RequireOutputs: %v", err)
	}
}

func TestRequireInput_Complete(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in, err := cfg.RequireInput()
	if err != nil {
		t.Fatalf("RequireInput: %v", err)
	}
	if in.Lines.Orders != 5 || in.Columns.Sales != "F" {
		t.Errorf("unexpected input %+v", in)
	}
}

func TestRequireOutputs_None(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.RequireOutputs(); err == nil {
		t.Fatal("expected ConfigError without outputs")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(fullConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Input.SpreadsheetID != "sheet-123" {
		t.Errorf("SpreadsheetID = %q", cfg.Input.SpreadsheetID)
	}
}
