// =============================================================================
// Invoicing - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (invoicing)
//   ├── processCmd  (invoicing process --input <spreadsheet>)
//   ├── validateCmd (invoicing validate)
//   ├── authCmd     (invoicing auth)
//   └── versionCmd  (invoicing version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --env)
//   2. Loading the .env file before any command runs
//   3. Building the run context and its logger (startRun)
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoicing/internal/appctx"
	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/logging"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug output on the console.
var verbose bool

// envFile is loaded into the environment before the configuration.
var envFile string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "invoicing",
	Short: "Invoicing - Generate PDF invoices from a spreadsheet of orders",
	Long: `Invoicing reads the orders of a spreadsheet (Google Sheets, an XLSX
workbook or a CSV export), computes line totals, promotions and
consignments, fills a LaTeX model for every order and compiles it to PDF.

Example Usage:
  invoicing process --input <spreadsheet id>   # Generate one PDF per order
  invoicing process --input orders.xlsx --dry-run
  invoicing validate                           # Check the configuration
  invoicing auth                               # Authorize Google Sheets access`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(envFile)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. An interrupt cancels the running command, which
// stops the compiler subprocess.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&cfgFile,
		"config",
		"c",
		config.DefaultConfigPath,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug output on the console",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env",
		".env",
		"Environment file loaded before the configuration (ignored if missing)",
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadEnv loads path into the environment. Variables already set win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// startRun loads the configuration and builds the run context.
//
// PARAMETERS:
//   - cmd: The running command; console output goes to its stderr.
//   - fileLog: Create the workspace folders and log to the daily file.
//
// RETURNS:
//   - The run context, its logger (to be closed by the caller), or an error.
func startRun(cmd *cobra.Command, fileLog bool) (*appctx.Run, *logging.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	run := appctx.New(cfg, Version, time.Now())

	logCfg := cfg.Logging
	if fileLog {
		if err := run.Workspace.EnsureDirectories(); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare workspace: %w", err)
		}
	} else {
		logCfg.FileLevel = logging.Off
	}

	logger, err := logging.New(logging.Options{
		Config:  logCfg,
		LogsDir: run.Workspace.Logs,
		Console: cmd.ErrOrStderr(),
		Verbose: verbose,
		Names:   run.Names(),
	})
	if err != nil {
		return nil, nil, err
	}
	run.UseLogger(logger.Logger)

	run.Log.WithField("config", cfgFile).Debug("configuration loaded")
	return run, logger, nil
}
