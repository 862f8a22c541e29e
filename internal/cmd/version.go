package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the release build; the default marks dev builds.
var Version = "0.3.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the telclaude version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("telclaude " + Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
