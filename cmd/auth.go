package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoicing/internal/errs"
	"github.com/ginjaninja78/invoicing/internal/input"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize read access to Google Sheets",
	Long: `The auth command runs the OAuth consent flow for the client stored in the
credentials file and saves the resulting token, so that 'process' can read
the spreadsheet without a browser. Service account keys need no
authorization.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		run, logger, err := startRun(cmd, false)
		if err != nil {
			return err
		}
		defer logger.Close()

		in := run.Config.Input
		if in == nil {
			return &errs.ConfigError{Key: "input", Msg: "no input configuration present"}
		}
		return input.Authorize(cmd.Context(), in, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
