package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoicepro/invoicepro/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo data",
	Long: `Populate the local database with demo customers, items, purchases
and invoices. Existing data is kept; demo records are appended.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		st := openStore(cfg, nil)
		defer st.Close()

		counts := seed.DefaultCounts()
		if err := seed.Demo(cmd.Context(), st, counts); err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %d items, %d customers, %d purchases, %d invoices\n",
			counts.Items, counts.Customers, counts.Purchases, counts.Invoices)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
