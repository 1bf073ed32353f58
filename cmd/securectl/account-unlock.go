package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jayeshrk/securelogin/pkg/audit"
	"github.com/jayeshrk/securelogin/pkg/authn"
	"github.com/jayeshrk/securelogin/pkg/config"
	"github.com/jayeshrk/securelogin/pkg/db"
	gormstore "github.com/jayeshrk/securelogin/pkg/store/gorm"
)

// accountUnlockCmd represents the account unlock command
var accountUnlockCmd = &cobra.Command{
	Use:   "unlock [username]",
	Short: "Unlock a locked account",
	Long: `Unlock a locked account.

An account locks itself after repeated failed password attempts and has no
self-serve exit. This command clears the lock and the failure counter.

Example:
  securectl account unlock alice`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]

		cfg := config.Get()
		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, LogLevel: cfg.LogLevel})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		checker := authn.NewChecker(gormstore.NewUsersStore(database))
		if err := checker.Unlock(username); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to unlock '%s': %v\n", username, err)
			os.Exit(1)
		}

		audit.Log(audit.UnlockEvent{Username: username})
		fmt.Printf("Account '%s' unlocked\n", username)
	},
}

func init() {
	accountCmd.AddCommand(accountUnlockCmd)
}
