package admin

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/codeshield-ai/codeshield/internal/config"
	"github.com/codeshield-ai/codeshield/internal/database"
	"github.com/codeshield-ai/codeshield/internal/extract"
	"github.com/codeshield-ai/codeshield/internal/openai"
	"github.com/codeshield-ai/codeshield/internal/repository"
	"github.com/codeshield-ai/codeshield/internal/service"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a policy document into the knowledge store",
		Long:  "Extract text from a policy document (PDF, Markdown or plain text) and store its embedded chunks",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("language", "", "Language the document applies to (defaults to classification)")
	cmd.Flags().String("category", "", "Security category override (defaults to classification)")
	cmd.Flags().String("source", "", "Source name stored with the chunks (defaults to the file name)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasDatabase() {
		return fmt.Errorf("ingest requires CODESHIELD_DATABASE_URL to be set")
	}

	filePath := args[0]
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	text, err := extract.Text(data, "", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %w", filePath, err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var openaiClient *openai.Client
	if cfg.HasOpenAI() {
		openaiClient = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
	} else {
		log.Println("no OpenAI API key configured, chunks will be stored with fallback embeddings")
	}
	gateway := openai.NewGateway(openaiClient, cfg.EmbeddingDimensions)

	chunkRepo := repository.NewChunkRepository(pool, cfg.EmbeddingDimensions)

	ingestCfg := service.DefaultIngestConfig()
	if cfg.IngestConcurrency > 0 {
		ingestCfg.Concurrency = cfg.IngestConcurrency
	}
	ingestSvc := service.NewIngestServiceWithConfig(gateway, chunkRepo, ingestCfg)

	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = filepath.Base(filePath)
	}
	language, _ := cmd.Flags().GetString("language")
	category, _ := cmd.Flags().GetString("category")

	result, err := ingestSvc.Ingest(ctx, service.IngestInput{
		Content:  text,
		Source:   source,
		Language: language,
		Category: category,
	})
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", filePath, err)
	}

	fmt.Printf("Ingested %s: %d chunks stored, %d skipped\n", result.Source, result.ChunksProcessed, result.ChunksSkipped)
	if result.Degraded {
		fmt.Println("Warning: some chunks were stored with fallback embeddings and will be repaired when the provider is available")
	}
	return nil
}
