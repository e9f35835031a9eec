package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeshield-ai/codeshield/internal/api/handlers"
	"github.com/codeshield-ai/codeshield/internal/config"
	"github.com/codeshield-ai/codeshield/internal/database"
	"github.com/codeshield-ai/codeshield/internal/github"
	"github.com/codeshield-ai/codeshield/internal/jobs"
	"github.com/codeshield-ai/codeshield/internal/knowledge"
	"github.com/codeshield-ai/codeshield/internal/openai"
	"github.com/codeshield-ai/codeshield/internal/repository"
	"github.com/codeshield-ai/codeshield/internal/server"
	"github.com/codeshield-ai/codeshield/internal/service"
	"github.com/codeshield-ai/codeshield/internal/storage"
	"github.com/codeshield-ai/codeshield/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the codeshield API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if a DSN is configured
	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	var openaiClient *openai.Client
	if cfg.HasOpenAI() {
		openaiClient = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
	} else {
		log.Println("no OpenAI API key configured, running with fallback embeddings")
	}

	gateway := openai.NewGateway(openaiClient, cfg.EmbeddingDimensions)

	var completions service.CompletionClient
	if openaiClient != nil {
		completions = openaiClient
	}

	var inserter service.ChunkInserter
	var searcher service.ChunkSearcher
	var chunkRepo *repository.ChunkRepository
	var reembedWorker *jobs.Worker

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Println("connected to database")

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		chunkRepo = repository.NewChunkRepository(pool, cfg.EmbeddingDimensions)
		inserter = chunkRepo
		searcher = chunkRepo

		if openaiClient != nil {
			processor := jobs.NewReembedWorker(chunkRepo, openaiClient)
			reembedWorker = jobs.NewWorker("re-embed", processor, 30*time.Second)
			go reembedWorker.Start(ctx)
			log.Println("re-embed worker started")
		}
	} else {
		log.Println("no database configured, using in-process knowledge store")
		memStore := knowledge.NewMemoryStore(cfg.EmbeddingDimensions)
		inserter = memStore
		searcher = memStore
	}

	var archiver handlers.Archiver
	if cfg.HasS3() {
		archive, err := storage.NewArchive(ctx, storage.ArchiveConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create archive client: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
		log.Printf("archive bucket '%s' ready", cfg.S3Bucket)
		archiver = archive
	}

	ingestCfg := service.DefaultIngestConfig()
	if cfg.IngestConcurrency > 0 {
		ingestCfg.Concurrency = cfg.IngestConcurrency
	}

	ingestSvc := service.NewIngestServiceWithConfig(gateway, inserter, ingestCfg)
	answerSvc := service.NewAnswerService(gateway, searcher, completions)
	complianceSvc := service.NewComplianceService(gateway, searcher, completions)

	routerCfg := server.RouterConfig{
		UploadHandler:  handlers.NewUploadHandler(ingestSvc, archiver),
		QueryHandler:   handlers.NewQueryHandler(answerSvc),
		AnalyzeHandler: handlers.NewAnalyzeHandler(complianceSvc),
	}

	if cfg.HasGitHub() {
		githubClient := github.NewClient(cfg.GitHubToken)
		routerCfg.GitHubHandler = handlers.NewGitHubHandler(githubClient, ingestSvc, complianceSvc)
	}

	if chunkRepo != nil {
		routerCfg.ChunkHandler = handlers.NewChunkHandler(chunkRepo)
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if reembedWorker != nil {
		reembedWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate needs a database/sql connection
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
