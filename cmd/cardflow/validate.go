package main

import (
	"errors"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flow-file]",
	Short: "Check the flow for consistency",
	Long: `Crawls the flow from its initial cards and reports broken connections,
unreachable cards and cycles. Exits with status 1 when errors are found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		editor, _, release, err := openEditor(ctx, cmd)
		if err != nil {
			return err
		}
		defer release()

		input := ""
		if len(args) > 0 {
			input = args[0]
		}
		if err := cli.LoadInto(ctx, editor, input); err != nil {
			return err
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		_, err = cli.Validate(cmd.OutOrStdout(), editor.Snapshot(ctx), jsonMode)
		if errors.Is(err, cli.ErrInvalid) {
			cmd.SilenceErrors = jsonMode
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("json", false, "Print the report as JSON")
}
