// Package bootstrap assembles the application from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/ai"
	"docflow-backend/internal/ai/gemini"
	"docflow-backend/internal/documents"
	"docflow-backend/internal/events"
	"docflow-backend/internal/extract"
	"docflow-backend/internal/notify"
	"docflow-backend/internal/pipeline"
	"docflow-backend/internal/shared/config"
	"docflow-backend/internal/shared/server"
	"docflow-backend/internal/shared/storage/db"
	"docflow-backend/internal/shared/storage/object"
	localstore "docflow-backend/internal/shared/storage/object/local"
	s3store "docflow-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Hub              *events.Hub
	Repo             documents.Repo
	Providers        ai.Providers
	Orchestrator     *pipeline.Orchestrator
	Notifier         notify.Notifier
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo documents.Repo
	if sqlDB != nil {
		repo = &documents.PGRepo{DB: sqlDB}
	} else {
		repo = documents.NewMemoryRepo()
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}

	var ocr extract.ImageOCR
	if strings.TrimSpace(cfg.OCRAPIKey) != "" {
		ocr, err = extract.NewSpaceOCR(cfg.OCRAPIKey, cfg.OCREndpoint)
		if err != nil {
			return nil, err
		}
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return nil, err
	}

	hub := events.NewHub()
	orch := pipeline.New(repo, store, extract.New(ocr), providers, hub, notifier)

	docSvc := &documents.Service{
		Store:      store,
		Repo:       repo,
		Hub:        hub,
		Pipe:       orch,
		Summarizer: providers.Summarizer,
		Answerer:   providers.Answerer,
	}
	docHandler := documents.NewHandler(docSvc)

	app := &App{
		Config:           cfg,
		DB:               sqlDB,
		Store:            store,
		Hub:              hub,
		Repo:             repo,
		Providers:        providers,
		Orchestrator:     orch,
		Notifier:         notifier,
		DocumentsService: docSvc,
		DocumentsHandler: docHandler,
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DocumentsHandler: docHandler,
		Hub:              hub,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repository")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repository: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildProviders(cfg config.Config) (ai.Providers, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		if !isDevLike(cfg.Env) {
			return ai.Providers{}, fmt.Errorf("GEMINI_API_KEY is required")
		}
		log.Printf("bootstrap: GEMINI_API_KEY empty; ai providers disabled")
		return ai.PlaceholderProviders(), nil
	}

	client, err := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	if err != nil {
		return ai.Providers{}, err
	}
	return ai.Providers{
		Classifier: client,
		Structured: client,
		Sentiment:  client,
		Summarizer: client,
		Comparator: client,
		Answerer:   client,
	}, nil
}

func buildNotifier(cfg config.Config) (notify.Notifier, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return notify.Noop{}, nil
	}
	port := 587
	if parsed, err := strconv.Atoi(strings.TrimSpace(cfg.SMTPPort)); err == nil && parsed > 0 {
		port = parsed
	}
	return notify.NewSMTPNotifier(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPTo)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
