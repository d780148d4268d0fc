// =============================================================================
// Invoicing - Configuration Module
// =============================================================================
//
// This module loads and validates the single YAML configuration file that
// drives a run. It covers:
//   1. Workspace folders (input, output, model, logs, key)
//   2. Logging levels and log file naming
//   3. Date/time formats used by the time tokens
//   4. The spreadsheet layout read by the input collaborators
//   5. The LaTeX output collaborator
//   6. Optional field transformation rules
//
// Loading order: read YAML -> environment overrides -> defaults -> validate.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/invoicing/internal/errs"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultConfigPath     = "workspace/conf/config.yaml"
	DefaultWorkspace      = "workspace"
	DefaultDateFormat     = "20060102"
	DefaultTimeFormat     = "150405"
	DefaultDateTimeFormat = "20060102_150405"
	DefaultOpen           = "<<"
	DefaultClose          = ">>"
	DefaultConsoleLevel   = "warn"
	DefaultFileLevel      = "info"
	DefaultModelPath      = "invoice.tex.template"
	DefaultPercentSuffix  = `\%`
	DefaultCompiler       = "pdflatex"
	DefaultCredentials    = "key.json"
	DefaultToken          = "token.json"
)

// DefaultLogFileName is the log file template written with the delimiters
// of s.
func DefaultLogFileName(s SyntaxConfig) string {
	return s.Open + "TODAY" + s.Close + ".log"
}

// DefaultLineModel is the item row template written with the delimiters of s.
func DefaultLineModel(s SyntaxConfig) string {
	label := func(name string) string { return s.Open + name + s.Close }
	return label("NAME") + "&" + label("QTY") + "&" + label("PRICE") + "&" + label("AMOUNT") + `\\`
}

// Input sources.
const (
	SourceGoogle = "google"
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config is the whole run configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Logging   LoggingConfig   `yaml:"logging"`
	Formats   Formats         `yaml:"formats"`

	// Syntax overrides the token delimiters. Default "<<" / ">>".
	Syntax SyntaxConfig `yaml:"syntax"`

	// Input is nil when the file has no input section.
	Input *InputConfig `yaml:"input"`

	Output OutputConfig `yaml:"output"`

	// Transformations are optional per-field rewrite chains applied to every
	// order before rendering.
	Transformations []TransformationRule `yaml:"transformations"`
}

// WorkspaceConfig lists the working folders. Empty sub-folders default to
// <root>/<name>.
type WorkspaceConfig struct {
	Root   string `yaml:"root"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Model  string `yaml:"model"`
	Logs   string `yaml:"logs"`
	Key    string `yaml:"key"`
}

// LoggingConfig controls the console and file sinks.
type LoggingConfig struct {
	// ConsoleLevel is one of logrus' level names. Default "warn".
	ConsoleLevel string `yaml:"console_level"`

	// FileLevel is the level of the log file. Default "info". "off" disables
	// the file.
	FileLevel string `yaml:"file_level"`

	// FileName is a path template resolved in the logs folder.
	// Default "<<TODAY>>.log", written with the configured delimiters.
	FileName string `yaml:"file_name"`

	// Format is "text" or "json". Default "text".
	Format string `yaml:"format"`
}

// Formats are Go time layouts used by TODAY, TIME and DATETIME.
type Formats struct {
	Date     string `yaml:"date"`
	Time     string `yaml:"time"`
	DateTime string `yaml:"datetime"`
}

// SyntaxConfig is the token delimiter pair.
type SyntaxConfig struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// =============================================================================
// INPUT SETTINGS
// =============================================================================

// InputConfig describes where the orders sheet lives and how it is laid out.
type InputConfig struct {
	// Source is "google", "xlsx" or "csv". Default "google".
	Source string `yaml:"source"`

	// SpreadsheetID is the Google spreadsheet id, or the workbook/CSV path
	// for local sources. The --input flag overrides it.
	SpreadsheetID string `yaml:"spreadsheet_id"`

	// Sheet selects a worksheet. Google: prefixed to every range.
	// XLSX: defaults to the first sheet.
	Sheet string `yaml:"sheet"`

	// CredentialsPath defaults to <key folder>/key.json.
	CredentialsPath string `yaml:"credentials_path"`

	// TokenPath defaults to <key folder>/token.json.
	TokenPath string `yaml:"token_path"`

	// CSVDelimiter for the csv source. Default ",".
	CSVDelimiter string `yaml:"csv_delimiter"`

	Cells   CellsConfig   `yaml:"cells"`
	Columns ColumnsConfig `yaml:"columns"`
	Lines   LinesConfig   `yaml:"lines"`
}

// CellsConfig holds single-cell A1 references.
type CellsConfig struct {
	Date           string `yaml:"date"`
	PromotionName  string `yaml:"promotion_name"`
	PromotionValue string `yaml:"promotion_value"`
}

// ColumnsConfig holds column letters.
type ColumnsConfig struct {
	OrderID       string `yaml:"order_id"`
	Client        string `yaml:"client"`
	DeliveryPoint string `yaml:"delivery_point"`

	// Consigns is the first consignment column.
	Consigns string `yaml:"consigns"`

	// Sales is the first sales column. Columns before it are consignments.
	Sales string `yaml:"sales"`

	// Last is the last column read, inclusive.
	Last string `yaml:"last"`
}

// LinesConfig holds 1-based row numbers.
type LinesConfig struct {
	Names  int `yaml:"names"`
	Prices int `yaml:"prices"`
	Orders int `yaml:"orders"`
	Last   int `yaml:"last"`
}

// =============================================================================
// OUTPUT SETTINGS
// =============================================================================

// OutputConfig lists the output collaborators. A nil entry is disabled.
type OutputConfig struct {
	Latex *LatexConfig `yaml:"latex"`
}

// LatexConfig configures the LaTeX to PDF renderer.
type LatexConfig struct {
	// ModelPath is the template document, relative to the model folder.
	ModelPath string `yaml:"model_path"`

	// LineModel is the template of one item row.
	LineModel string `yaml:"line_model"`

	// PercentSuffix follows the promotion percent. Default `\%`.
	PercentSuffix string `yaml:"percent_suffix"`

	// FileName and Folder are path templates. Empty keeps the order id and
	// the workspace output folder.
	FileName string `yaml:"filename"`
	Folder   string `yaml:"folder"`

	// Compiler and CompilerArgs form the command line; the output folder and
	// the source file are appended.
	Compiler     string   `yaml:"compiler"`
	CompilerArgs []string `yaml:"compiler_args"`

	// KeepIntermediate keeps .tex/.log/.aux/.out after a successful build.
	KeepIntermediate bool `yaml:"keep_intermediate"`
}

// =============================================================================
// TRANSFORMATION RULES
// =============================================================================

// Fields a transformation rule may target.
const (
	FieldOrderID       = "order_id"
	FieldClient        = "client"
	FieldDeliveryPoint = "delivery_point"
	FieldDate          = "date"
	FieldItemName      = "item_name"
)

// TransformationRule rewrites one order field through a chain of actions.
type TransformationRule struct {
	Field   string                 `yaml:"field"`
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction is a single rewrite step.
//
// Supported types:
//   - "trim", "uppercase", "lowercase", "latex_escape"
//   - "prepend_string", "append_string" : Value is the affix
//   - "pad_zeros_to_length"             : Value is the target length
//   - "replace", "regex_replace"        : Find is replaced by Value
//   - "lookup"                          : LookupTable maps whole values
type TransformationAction struct {
	Type        string            `yaml:"type"`
	Value       string            `yaml:"value"`
	Find        string            `yaml:"find,omitempty"`
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads, completes and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errs.NotFoundError{What: "configuration", Path: path}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies environment overrides and defaults, and
// validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets the environment (or a .env file) take precedence
// over file values for deployment-specific settings.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INVOICING_WORKSPACE"); v != "" {
		cfg.Workspace.Root = v
	}
	if cfg.Input == nil {
		return
	}
	if v := os.Getenv("INVOICING_SPREADSHEET_ID"); v != "" {
		cfg.Input.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.Input.CredentialsPath = v
	}
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	ws := &cfg.Workspace
	if ws.Root == "" {
		ws.Root = DefaultWorkspace
	}
	ws.Input = orJoin(ws.Input, ws.Root, "input")
	ws.Output = orJoin(ws.Output, ws.Root, "output")
	ws.Model = orJoin(ws.Model, ws.Root, "model")
	ws.Logs = orJoin(ws.Logs, ws.Root, "logs")
	ws.Key = orJoin(ws.Key, ws.Root, "key")

	if cfg.Syntax.Open == "" {
		cfg.Syntax.Open = DefaultOpen
	}
	if cfg.Syntax.Close == "" {
		cfg.Syntax.Close = DefaultClose
	}

	if cfg.Logging.ConsoleLevel == "" {
		cfg.Logging.ConsoleLevel = DefaultConsoleLevel
	}
	if cfg.Logging.FileLevel == "" {
		cfg.Logging.FileLevel = DefaultFileLevel
	}
	if cfg.Logging.FileName == "" {
		cfg.Logging.FileName = DefaultLogFileName(cfg.Syntax)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Formats.Date == "" {
		cfg.Formats.Date = DefaultDateFormat
	}
	if cfg.Formats.Time == "" {
		cfg.Formats.Time = DefaultTimeFormat
	}
	if cfg.Formats.DateTime == "" {
		cfg.Formats.DateTime = DefaultDateTimeFormat
	}

	if in := cfg.Input; in != nil {
		if in.Source == "" {
			in.Source = SourceGoogle
		}
		if in.CredentialsPath == "" {
			in.CredentialsPath = filepath.Join(ws.Key, DefaultCredentials)
		}
		if in.TokenPath == "" {
			in.TokenPath = filepath.Join(ws.Key, DefaultToken)
		}
		if in.CSVDelimiter == "" {
			in.CSVDelimiter = ","
		}
	}

	if lx := cfg.Output.Latex; lx != nil {
		if lx.ModelPath == "" {
			lx.ModelPath = DefaultModelPath
		}
		if lx.LineModel == "" {
			lx.LineModel = DefaultLineModel(cfg.Syntax)
		}
		if lx.PercentSuffix == "" {
			lx.PercentSuffix = DefaultPercentSuffix
		}
		if lx.Compiler == "" {
			lx.Compiler = DefaultCompiler
		}
		if lx.CompilerArgs == nil {
			lx.CompilerArgs = []string{"-interaction", "nonstopmode"}
		}
	}
}

func orJoin(value, root, name string) string {
	if value != "" {
		return value
	}
	return filepath.Join(root, name)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the settings that do not depend on the chosen input.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &errs.ConfigError{Key: "logging.format", Msg: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}

	if c.Input != nil {
		switch c.Input.Source {
		case SourceGoogle, SourceXLSX, SourceCSV:
		default:
			return &errs.ConfigError{Key: "input.source", Msg: fmt.Sprintf("unknown source %q", c.Input.Source)}
		}
	}

	for i, rule := range c.Transformations {
		switch rule.Field {
		case FieldOrderID, FieldClient, FieldDeliveryPoint, FieldDate, FieldItemName:
		default:
			return &errs.ConfigError{
				Key: fmt.Sprintf("transformations[%d].field", i),
				Msg: fmt.Sprintf("unknown field %q", rule.Field),
			}
		}
	}
	return nil
}

// RequireInput returns the input section after checking that every layout
// key is set. Nothing is requested from the spreadsheet before this passes.
func (c *Config) RequireInput() (*InputConfig, error) {
	if c.Input == nil {
		return nil, &errs.ConfigError{Key: "input", Msg: "no input configuration present"}
	}
	in := c.Input

	required := []struct {
		key string
		set bool
	}{
		{"input.cells.date", in.Cells.Date != ""},
		{"input.cells.promotion_name", in.Cells.PromotionName != ""},
		{"input.cells.promotion_value", in.Cells.PromotionValue != ""},
		{"input.columns.order_id", in.Columns.OrderID != ""},
		{"input.columns.client", in.Columns.Client != ""},
		{"input.columns.delivery_point", in.Columns.DeliveryPoint != ""},
		{"input.columns.consigns", in.Columns.Consigns != ""},
		{"input.columns.sales", in.Columns.Sales != ""},
		{"input.columns.last", in.Columns.Last != ""},
		{"input.lines.names", in.Lines.Names > 0},
		{"input.lines.prices", in.Lines.Prices > 0},
		{"input.lines.orders", in.Lines.Orders > 0},
		{"input.lines.last", in.Lines.Last > 0},
	}

	var missing []string
	for _, r := range required {
		if !r.set {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return nil, errs.MissingKeys(missing)
	}
	if in.Lines.Last < in.Lines.Orders {
		return nil, &errs.ConfigError{Key: "input.lines.last", Msg: "must not be before input.lines.orders"}
	}
	return in, nil
}

// RequireOutputs fails when no output collaborator is configured.
func (c *Config) RequireOutputs() error {
	if c.Output.Latex == nil {
		return &errs.ConfigError{Key: "output", Msg: "no output configuration present"}
	}
	return nil
}
