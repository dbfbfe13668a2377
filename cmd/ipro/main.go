// ipro is the InvoicePro command line: a local-first invoicing store with
// background sync against a shared Postgres backend.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoicepro/invoicepro/internal/bus"
	"github.com/invoicepro/invoicepro/internal/config"
	"github.com/invoicepro/invoicepro/internal/remote"
	"github.com/invoicepro/invoicepro/internal/store"
)

var (
	configFile string
	dbPath     string
	identity   string
)

var rootCmd = &cobra.Command{
	Use:   "ipro",
	Short: "Local-first invoicing with offline sync",
	Long: `InvoicePro keeps all invoicing data in a local SQLite database and
syncs it in the background with a shared Postgres backend when one is
configured. Every command works offline; sync commands need a remote DSN
and an identity.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.invoicepro/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Local database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&identity, "identity", os.Getenv("INVOICEPRO_IDENTITY"), "Identity that owns remote rows")
}

// loadConfig applies command line overrides on top of the file/env config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config, notifier *bus.Bus) *store.Store {
	st, err := store.Open(cfg.Store.Path, notifier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return st
}

func openRemote(ctx context.Context, cfg *config.Config) *remote.Postgres {
	if cfg.Remote.DSN == "" {
		fmt.Fprintf(os.Stderr, "Error: no remote configured (set remote.dsn or INVOICEPRO_REMOTE_DSN)\n")
		os.Exit(1)
	}
	rm, err := remote.OpenPostgres(ctx, cfg.Remote.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to remote: %v\n", err)
		os.Exit(1)
	}
	return rm
}

func requireIdentity() string {
	if identity == "" {
		fmt.Fprintf(os.Stderr, "Error: identity required (use --identity or INVOICEPRO_IDENTITY)\n")
		os.Exit(1)
	}
	return identity
}
