// Package server initializes and runs the main application server.
// It wires storage backends, the enrichment pipeline and the HTTP API,
// and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openmool/openmool/internal/logging"
	"github.com/openmool/openmool/internal/server/ai"
	"github.com/openmool/openmool/internal/server/ai/openai"
	"github.com/openmool/openmool/internal/server/api"
	"github.com/openmool/openmool/internal/server/config"
	"github.com/openmool/openmool/internal/server/objectstore"
	"github.com/openmool/openmool/internal/server/refinery"
	"github.com/openmool/openmool/internal/server/repositories/repomanager"
	"github.com/openmool/openmool/internal/server/services"
	"github.com/openmool/openmool/internal/server/vector"
)

// shutdownGrace bounds in-flight HTTP requests and enrichment runs during
// shutdown.
const shutdownGrace = 30 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *refinery.Dispatcher
	handler    http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
		AccessKey:    cfg.S3RootUser,
		SecretKey:    cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	aiCfg := &ai.Config{
		APIToken:         cfg.AIToken,
		EmbeddingHost:    cfg.EmbeddingHost,
		EmbeddingModel:   cfg.EmbeddingModel,
		ExtractorHost:    cfg.ExtractorHost,
		ExtractorModel:   cfg.ExtractorModel,
		TranscriberHost:  cfg.TranscriberHost,
		TranscriberModel: cfg.TranscriberModel,
	}
	if err := aiCfg.Validate(); err != nil {
		return nil, fmt.Errorf("ai config error: %w", err)
	}

	// Unconfigured backends stay nil; the pipeline skips their stages.
	var transcriber ai.Transcriber
	if aiCfg.TranscriberConfigured() {
		t, err := openai.NewTranscriber(aiCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("transcriber init error: %w", err)
		}
		transcriber = t
	}

	var extractor ai.EntityExtractor
	if aiCfg.ExtractorConfigured() {
		e, err := openai.NewEntityExtractor(aiCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("extractor init error: %w", err)
		}
		extractor = e
	}

	var embedder ai.Embedder
	var index vector.Index
	if aiCfg.EmbeddingConfigured() {
		e, err := openai.NewEmbedder(aiCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("embedder init error: %w", err)
		}
		embedder = e
		index = vector.NewSQLIndex(rm.Vectors(db))
	}

	mediaRepo := rm.Media(db)
	pipeline := refinery.NewPipeline(store, mediaRepo, transcriber, extractor, embedder, index, logger)

	dispatcher, err := refinery.NewDispatcher(pipeline, cfg.PipelineWorkers, cfg.JobTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("dispatcher init error: %w", err)
	}

	uploads := services.NewUploadService(store, logger)
	media := services.NewMediaService(mediaRepo, dispatcher, embedder, index, logger)

	handler := api.NewServer(uploads, media, []byte(cfg.SecretKey), logger).Router()

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
		handler:    handler,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the HTTP API until the context is cancelled or a signal
// arrives, then drains in-flight requests and enrichment runs.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown error", "err", err)
	}

	app.dispatcher.Close(shutdownGrace)

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "err", err)
	}

	return nil
}
