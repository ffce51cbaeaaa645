package main

import (
	"fmt"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/pkg/exchange"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a flow file between JSON and YAML",
	Long:  `Reads a flow file and writes it in the format given by the output extension (or --to when writing to stdout).`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := cli.ReadFlow(args[0])
		if err != nil {
			return err
		}

		var format exchange.Format
		if args[1] == "-" {
			to, _ := cmd.Flags().GetString("to")
			format = exchange.Format(to)
			if format != exchange.FormatJSON && format != exchange.FormatYAML {
				return fmt.Errorf("unknown format %q (json, yaml)", to)
			}
		} else if format, err = exchange.FormatFromPath(args[1]); err != nil {
			return err
		}

		data, err := exchange.Encode(flow, format)
		if err != nil {
			return err
		}
		return cli.WriteOutput(cmd.OutOrStdout(), args[1], data)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("to", string(exchange.FormatYAML), "Format when writing to stdout: json or yaml")
}
