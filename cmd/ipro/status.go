package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoicepro/invoicepro/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local database status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		st := openStore(cfg, nil)
		defer st.Close()

		ctx := cmd.Context()
		fmt.Printf("Database: %s\n\n", st.Path())
		for _, table := range model.AllTables {
			rows, err := st.List(ctx, table)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", table, err)
				os.Exit(1)
			}
			fmt.Printf("%-10s %d\n", table, len(rows))
		}

		tombstones, err := st.ListTombstones(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading tombstones: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nPending deletes: %d\n", len(tombstones))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
