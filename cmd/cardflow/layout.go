package main

import (
	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/pkg/exchange"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <flow-file>",
	Short: "Place unpositioned cards on the canvas",
	Long: `Distributes every card without a meaningful position into its column
(initial cards left, services fanned out, end cards right) and writes the flow back.
Cards that already have a position keep it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		editor, logger, release, err := openEditor(ctx, cmd)
		if err != nil {
			return err
		}
		defer release()

		input := args[0]
		if err := cli.LoadInto(ctx, editor, input); err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = input
		}
		format, err := exchange.FormatFromPath(input)
		if output != "-" {
			format, err = exchange.FormatFromPath(output)
		}
		if err != nil {
			return err
		}

		data, err := editor.Export(ctx, format)
		if err != nil {
			return err
		}
		if err := cli.WriteOutput(cmd.OutOrStdout(), output, data); err != nil {
			return err
		}
		logger.Info("flow laid out", "cards", len(editor.Graph().Nodes), "output", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)

	layoutCmd.Flags().StringP("output", "o", "", "Destination file (\"-\" for stdout); defaults to overwriting the input")
}
