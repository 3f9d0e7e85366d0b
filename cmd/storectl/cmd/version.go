package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/catalinamedinaleal/store/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("storectl", version.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
