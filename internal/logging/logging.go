// =============================================================================
// Invoicing - Logging
// =============================================================================
//
// One logrus logger per run with two sinks, each with its own level:
//   - console (stderr), default "warn", "debug" with --verbose
//   - a log file in the logs folder, default "info", named from a path
//     template (default "<<TODAY>>.log")
//
// The logger itself writes nowhere; each sink is a hook that filters on its
// own level set.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/errs"
	"github.com/ginjaninja78/invoicing/internal/naming"
)

// Off disables a sink.
const Off = "off"

// Options configures New.
type Options struct {
	Config  config.LoggingConfig
	LogsDir string

	// Console receives console output. Defaults to os.Stderr.
	Console io.Writer

	// Verbose forces the console to debug.
	Verbose bool

	// Names resolves the log file name template.
	Names *naming.Resolver
}

// Logger wraps the run logger and the file it may own.
type Logger struct {
	*logrus.Logger

	// Path is the log file in use, empty when the file sink is off.
	Path string

	file *os.File
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New builds the run logger.
func New(opts Options) (*Logger, error) {
	consoleLevel, err := parseLevel("logging.console_level", opts.Config.ConsoleLevel)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		consoleLevel = logrus.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(&sinkHook{
		out:       console,
		formatter: formatter(opts.Config.Format),
		levels:    levelsUpTo(consoleLevel),
	})
	maxLevel := consoleLevel

	result := &Logger{Logger: logger}

	if opts.Config.FileLevel != Off {
		fileLevel, err := parseLevel("logging.file_level", opts.Config.FileLevel)
		if err != nil {
			return nil, err
		}

		name := opts.Config.FileName
		if opts.Names != nil {
			name = opts.Names.FileName(name, name, nil)
		}
		if name == "" {
			return nil, &errs.ConfigError{Key: "logging.file_name", Msg: "resolves to an empty name"}
		}
		path := filepath.Join(opts.LogsDir, name)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.AddHook(&sinkHook{
			out:       f,
			formatter: formatter(opts.Config.Format),
			levels:    levelsUpTo(fileLevel),
		})
		if fileLevel > maxLevel {
			maxLevel = fileLevel
		}
		result.Path = path
		result.file = f
	}

	logger.SetLevel(maxLevel)
	return result, nil
}

func parseLevel(key, value string) (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(value)
	if err != nil {
		return 0, &errs.ConfigError{Key: key, Msg: err.Error()}
	}
	return lvl, nil
}

func formatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	}
}

// levelsUpTo returns every level at least as severe as lvl.
func levelsUpTo(lvl logrus.Level) []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= lvl {
			levels = append(levels, l)
		}
	}
	return levels
}

// sinkHook writes formatted entries of its levels to out.
type sinkHook struct {
	out       io.Writer
	formatter logrus.Formatter
	levels    []logrus.Level
}

func (h *sinkHook) Levels() []logrus.Level { return h.levels }

func (h *sinkHook) Fire(entry *logrus.Entry) error {
	b, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.out.Write(b)
	return err
}
