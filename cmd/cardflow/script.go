package main

import (
	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script [flow-file]",
	Short: "Generate the conversation script of a flow",
	Long: `Walks the flow from its initial cards and prints the conversation script, headed
by the assistant profile. Without a flow file the stored flow is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		editor, logger, release, err := openEditor(sc, cmd)
		if err != nil {
			return err
		}
		defer release()

		opts := cli.ScriptOptions{}
		opts.Input, _ = cmd.Flags().GetString("input")
		if opts.Input == "" && len(args) > 0 {
			opts.Input = args[0]
		}
		opts.Output, _ = cmd.Flags().GetString("output")
		opts.Save, _ = cmd.Flags().GetBool("save")
		opts.Render, _ = cmd.Flags().GetBool("render")
		if !cmd.Flags().Changed("render") {
			opts.Render = tui.IsTerminal()
		}

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return cli.RunWatch(sc, editor, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
		}
		_, err = cli.GenerateScript(sc, editor, opts, cmd.OutOrStdout(), logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)

	scriptCmd.Flags().StringP("input", "i", "", "Flow file (.json, .yaml); defaults to the stored flow")
	scriptCmd.Flags().StringP("output", "o", "", "Write the script to a file instead of stdout")
	scriptCmd.Flags().BoolP("watch", "w", false, "Regenerate the script whenever the flow changes")
	scriptCmd.Flags().Bool("render", false, "Render markdown for the terminal (default when stdout is a terminal)")
	scriptCmd.Flags().Bool("save", false, "Store the imported flow before generating")
}
