package main

import (
	"fmt"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/internal/presentation/graph"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [flow-file]",
	Short: "Export the flow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the flow, or the positioned canvas graph as JSON.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		editor, _, release, err := openEditor(ctx, cmd)
		if err != nil {
			return err
		}
		defer release()

		input, _ := cmd.Flags().GetString("input")
		if input == "" && len(args) > 0 {
			input = args[0]
		}
		if err := cli.LoadInto(ctx, editor, input); err != nil {
			return err
		}

		var out []byte
		switch format, _ := cmd.Flags().GetString("format"); format {
		case "mermaid":
			out = []byte(graph.GenerateMermaid(editor.Snapshot(ctx), nil))
		case "json":
			out, err = json.MarshalIndent(editor.Graph(), "", "  ")
			if err != nil {
				return err
			}
			out = append(out, '\n')
		default:
			return fmt.Errorf("unknown graph format %q (mermaid, json)", format)
		}

		output, _ := cmd.Flags().GetString("output")
		return cli.WriteOutput(cmd.OutOrStdout(), output, out)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("input", "i", "", "Flow file (.json, .yaml); defaults to the stored flow")
	graphCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or json")
}
