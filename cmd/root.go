package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taxdoc/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "taxdoc",
	Short: "taxdoc - extract validated data from tax and financial documents",
	Long: `taxdoc reads scanned or photographed invoices, receipts and other tax
documents (PNG, JPG, TIFF or PDF), recognizes their text, asks a vision model
for a structured description and validates the result: dates are normalized,
amounts are cross-checked and tax IDs are matched against country rules.

Records can be written as JSON, rendered as a PDF report, read aloud or
appended to a Google Sheet, optionally translated first.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("taxdoc executed")

		fmt.Println("Welcome to taxdoc!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
