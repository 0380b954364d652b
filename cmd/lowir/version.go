package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lowir/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lowir version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lowir %s\n", version.Version)
	},
}
