package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoicepro/invoicepro/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export and import full database backups",
}

var backupExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write all tables and pending deletes to a JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		st := openStore(cfg, nil)
		defer st.Close()

		f, err := os.Create(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating backup file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := backup.Export(cmd.Context(), st, f); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Backup written to %s\n", args[0])
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a backup file",
	Long: `Restore a backup file written by 'ipro backup export'.

By default rows merge over existing data. With --replace every table is
cleared first so the database ends up exactly as the backup describes.
The file is fully parsed before anything is touched; a malformed backup
leaves the database unchanged.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		replace, _ := cmd.Flags().GetBool("replace")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		st := openStore(cfg, nil)
		defer st.Close()

		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening backup file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := backup.Import(cmd.Context(), st, f, backup.Options{Replace: replace}); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Backup restored from %s\n", args[0])
	},
}

func init() {
	backupImportCmd.Flags().Bool("replace", false, "Clear each table before loading")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}
