package main

import (
	"os"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate [flow-file]",
	Short: "Chat through the flow in the terminal",
	Long: `Plays the flow as a conversation. Each reply is matched against the labels of
the current card's connections; type "exit" to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		editor, _, release, err := openEditor(sc, cmd)
		if err != nil {
			return err
		}
		defer release()

		opts := cli.SimulateOptions{}
		if len(args) > 0 {
			opts.Input = args[0]
		}
		opts.StartAt, _ = cmd.Flags().GetString("start")
		opts.Render = tui.IsTerminal()
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			opts.Render = false
		}

		if opts.Render {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		return cli.RunSimulate(sc, editor, opts, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().String("start", "", "Card to start from (defaults to the first initial card)")
	simulateCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}
