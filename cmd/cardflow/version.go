package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/cardflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cardflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cardflow version %s\n", strings.TrimSpace(cardflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
