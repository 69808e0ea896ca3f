package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmarsh/bidflow/internal/config"
	"github.com/dmarsh/bidflow/internal/db"
	"github.com/dmarsh/bidflow/internal/extraction"
	"github.com/dmarsh/bidflow/internal/llm"
	"github.com/dmarsh/bidflow/internal/observability"
	"github.com/dmarsh/bidflow/internal/schemas"
	"github.com/dmarsh/bidflow/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract demolition items and pricing from a bid document",
	Long: `Runs the full extraction pipeline against one document: metadata extraction -> item identification -> measurement extraction -> price resolution.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runExtract,
}

var (
	extractConfigPath  string
	extractDocument    string
	extractOwnerID     string
	extractAPIKey      string
	extractDatabaseURL string
	extractOutput      string
	extractVerbose     bool
)

func init() {
	// Config file flag (processed first)
	extractCmd.Flags().StringVar(&extractConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	extractCmd.Flags().StringVarP(&extractDocument, "document", "d", "", "Path to the bid document (PDF, image, or text)")
	extractCmd.Flags().StringVarP(&extractOwnerID, "owner-id", "u", "", "Owner whose price catalog scopes matching (defaults to \"local\")")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Path to write the extraction result JSON (defaults to stdout)")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print detailed extraction progress")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	extractCmd.Flags().StringVar(&extractAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for catalog lookup and result persistence
	extractCmd.Flags().StringVar(&extractDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(cmd, extractConfigPath)
	if err != nil {
		return err
	}

	if cfg.Document == "" {
		return fmt.Errorf("--document is required (or set \"document\" in the config file)")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required: pass --api-key or set GEMINI_API_KEY")
	}

	doc, err := readDocument(cfg.Document)
	if err != nil {
		return err
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	opts := []extraction.Option{}
	if extractVerbose {
		opts = append(opts, extraction.WithLogOutput(os.Stderr))
	}

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
		opts = append(opts, extraction.WithCatalogSource(database))
	}

	orchestrator := extraction.NewOrchestrator(client, opts...)
	result := orchestrator.Extract(ctx, doc, cfg.OwnerID)

	if err := schemas.ValidateExtractionResult(&result); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: result failed schema validation: %v\n", err)
	}

	if extractVerbose {
		printer := observability.NewPrinter(os.Stderr)
		printer.PrintDocumentOverview(&result)
		printer.PrintDemolitionItems(result.DemolitionItems)
		printer.PrintPricingSummary(&result.PricingSummary)
		printer.PrintPhaseStatus(&result)
	}

	if database != nil {
		bidID, err := database.CreateBid(ctx, cfg.OwnerID, doc.Filename, doc.MimeType)
		if err != nil {
			return fmt.Errorf("failed to create bid record: %w", err)
		}
		if err := database.SaveExtraction(ctx, bidID, &result); err != nil {
			return fmt.Errorf("failed to save extraction: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved bid %s\n", bidID)
	}

	return writeResult(cfg.Output, &result)
}

// loadMergedConfig loads an optional config file and applies CLI flag
// overrides. Flags that were explicitly set take priority over file values;
// environment variables fill anything still empty.
func loadMergedConfig(cmd *cobra.Command, path string) (config.Config, error) {
	var cfg config.Config

	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	if cmd.Flags().Changed("document") {
		cfg.Document = extractDocument
	}
	if cmd.Flags().Changed("owner-id") {
		cfg.OwnerID = extractOwnerID
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = extractAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = extractDatabaseURL
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = extractOutput
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		OwnerID:     "local",
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	})

	return cfg, nil
}

// readDocument loads a document from disk and tags it with a MIME type
// derived from its extension.
func readDocument(path string) (types.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RawDocument{}, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	return types.RawDocument{
		Bytes:    data,
		Filename: filepath.Base(path),
		MimeType: detectMimeType(path),
	}, nil
}

// detectMimeType maps a file extension to the document types the pipeline
// understands. Unknown extensions are treated as plain text.
func detectMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "text/plain"
	}
}

// writeResult writes the extraction result as indented JSON to the given
// path, or to stdout when the path is empty.
func writeResult(path string, result *types.BidExtractionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result to %s: %w", path, err)
	}
	return nil
}
