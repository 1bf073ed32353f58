package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "securectl",
	Short: "Two-factor login service controller",
	Long:  `securectl manages the two-factor login service: run the server, migrate the database, generate secrets and unlock accounts.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
