// Package main provides the entry point for the bidflow CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bidflow",
	Short: "Bid document extraction and pricing service",
	Long:  "Bidflow extracts demolition line items from uploaded bid documents (PDF, image, or text), reconciles them against a price catalog, and computes bid-level pricing via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
