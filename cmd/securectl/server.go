package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jayeshrk/securelogin/pkg/config"
	"github.com/jayeshrk/securelogin/pkg/db"
	"github.com/jayeshrk/securelogin/pkg/notify"
	"github.com/jayeshrk/securelogin/pkg/server"
	"github.com/jayeshrk/securelogin/pkg/server/endpoints"
	gormstore "github.com/jayeshrk/securelogin/pkg/store/gorm"
	"github.com/jayeshrk/securelogin/pkg/vault"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the login service",
	Long: `Run the login service.

Requires the DATABASE_URL environment variable. KEY_ENC_SECRET should hold
the passphrase (at least 16 characters) protecting signing keys at rest;
without it the server still runs, but signing and envelope encryption are
refused.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		if cfg.DatabaseURL == "" && os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		v := vault.New(cfg.KeyEncSecret)
		if !v.Ready() {
			log.Println("WARNING: KEY_ENC_SECRET is missing or shorter than 16 characters; signing and encryption endpoints will be refused")
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, LogLevel: cfg.LogLevel})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		var mailer notify.Mailer = notify.LogMailer{}
		if cfg.MailEnabled() {
			mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		} else {
			log.Println("SMTP not configured; one-time codes are written to the log")
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(
			gormstore.NewUsersStore(database),
			gormstore.NewSessionsStore(database),
			gormstore.NewKeysStore(database),
			gormstore.NewBlobsStore(database),
			v,
			mailer,
			database,
			host,
			port,
		)

		endpoints.RegisterAll(s)

		// Pick up config file edits while running. Values read at
		// startup (listen address, database) need a restart; the watch
		// gives operators early feedback that an edited file is well
		// formed before they bounce the process.
		watcher, err := config.Watch(cfg.ConfigFilePath(), func(reloaded *config.Config, err error) {
			if err == nil {
				err = reloaded.Validate()
			}
			if err != nil {
				log.Printf("Config file change rejected, keeping current settings: %v", err)
				return
			}
			log.Printf("Configuration reloaded from %s", reloaded.ConfigFilePath())
		})
		if err != nil {
			log.Printf("Config file watch unavailable: %v", err)
		} else {
			defer func() { _ = watcher.Close() }()
		}

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	cfg := config.Get()
	serverCmd.Flags().StringP("port", "p", strconv.Itoa(cfg.Port), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", cfg.BindAddress, "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
