package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/converter"
	"github.com/ginjaninja78/invoicing/internal/output"
	"github.com/ginjaninja78/invoicing/internal/sheet"
	"github.com/ginjaninja78/invoicing/pkg/utils"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration without reading the spreadsheet",
	Long: `The validate command loads the configuration and checks the input layout,
the transformation rules, the credentials file and the LaTeX model. It lists
the tokens the model uses. Nothing is requested and nothing is written.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	run, logger, err := startRun(cmd, false)
	if err != nil {
		return err
	}
	defer logger.Close()
	out := cmd.OutOrStdout()

	in, err := run.Config.RequireInput()
	if err != nil {
		return err
	}
	if _, err := sheet.NewLayout(in.Columns); err != nil {
		return err
	}
	fmt.Fprintf(out, "Input:    %s\n", in.Source)
	if in.Source == config.SourceGoogle && !utils.FileExists(in.CredentialsPath) {
		fmt.Fprintf(out, "  warning: credentials file %s not found\n", in.CredentialsPath)
	}

	if _, err := converter.NewTransformer(run.Config.Transformations); err != nil {
		return err
	}
	fmt.Fprintf(out, "Rules:    %d transformation(s)\n", len(run.Config.Transformations))

	if err := run.Config.RequireOutputs(); err != nil {
		return err
	}
	if lx := run.Config.Output.Latex; lx != nil {
		r := output.NewLatexPDF(run, lx, true)
		model, err := r.LoadModel()
		if err != nil {
			return err
		}
		syntax := run.Syntax()
		fmt.Fprintf(out, "Model:    %s\n", r.ModelPath())
		fmt.Fprintf(out, "  tokens: %s\n", strings.Join(syntax.Referenced(model), ", "))
		fmt.Fprintf(out, "  line:   %s\n", strings.Join(syntax.Referenced(lx.LineModel), ", "))
	}

	fmt.Fprintln(out, "Configuration OK")
	return nil
}
