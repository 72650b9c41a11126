package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vesselctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vesselctl v%s\n", Version)
		fmt.Println("Parametric process vessel configurator")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
