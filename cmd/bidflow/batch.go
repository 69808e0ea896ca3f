package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmarsh/bidflow/internal/db"
	"github.com/dmarsh/bidflow/internal/extraction"
	"github.com/dmarsh/bidflow/internal/llm"
)

var batchCmd = &cobra.Command{
	Use:   "batch [documents...]",
	Short: "Extract multiple bid documents concurrently",
	Long: `Runs the extraction pipeline over every given document with bounded concurrency. Each result is written next to its source as <name>.result.json, or into --out-dir when set.

A document that fails extraction still produces a result file (with a failure envelope); only I/O errors stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchConfigPath  string
	batchOwnerID     string
	batchAPIKey      string
	batchDatabaseURL string
	batchOutDir      string
	batchConcurrency int
)

func init() {
	batchCmd.Flags().StringVar(&batchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	batchCmd.Flags().StringVarP(&batchOwnerID, "owner-id", "u", "local", "Owner whose price catalog scopes matching")
	batchCmd.Flags().StringVar(&batchAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	batchCmd.Flags().StringVar(&batchDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Directory for result files (defaults to each document's directory)")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 3, "Number of documents processed in parallel")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	apiKey := batchAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required: pass --api-key or set GEMINI_API_KEY")
	}
	if batchConcurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", batchConcurrency)
	}

	databaseURL := batchDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	opts := []extraction.Option{}
	var database *db.DB
	if databaseURL != "" {
		database, err = db.Connect(ctx, databaseURL)
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

	var mu sync.Mutex
	succeeded, degraded := 0, 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for _, path := range args {
		g.Go(func() error {
			doc, err := readDocument(path)
			if err != nil {
				return err
			}

			result := orchestrator.Extract(gctx, doc, batchOwnerID)

			if database != nil {
				bidID, err := database.CreateBid(gctx, batchOwnerID, doc.Filename, doc.MimeType)
				if err != nil {
					return fmt.Errorf("failed to create bid record for %s: %w", path, err)
				}
				if err := database.SaveExtraction(gctx, bidID, &result); err != nil {
					return fmt.Errorf("failed to save extraction for %s: %w", path, err)
				}
			}

			if err := writeResult(resultPath(path, batchOutDir), &result); err != nil {
				return err
			}

			mu.Lock()
			if result.Success {
				succeeded++
			} else {
				degraded++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Processed %d documents: %d succeeded, %d need review\n",
		len(args), succeeded, degraded)
	return nil
}

// resultPath derives the output file for a document. "plans.pdf" becomes
// "plans.result.json".
func resultPath(docPath, outDir string) string {
	base := filepath.Base(docPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".result.json"
	if outDir != "" {
		return filepath.Join(outDir, name)
	}
	return filepath.Join(filepath.Dir(docPath), name)
}
