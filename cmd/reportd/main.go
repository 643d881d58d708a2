package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"civic-watch/incident-reports-backend/internal/audit"
	"civic-watch/incident-reports-backend/internal/blob"
	"civic-watch/incident-reports-backend/internal/config"
	"civic-watch/incident-reports-backend/internal/document"
	"civic-watch/incident-reports-backend/internal/incidents"
	"civic-watch/incident-reports-backend/internal/pipeline"
	"civic-watch/incident-reports-backend/internal/settings"
	"civic-watch/incident-reports-backend/internal/templates"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.DBName))
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	err = db.AutoMigrate(
		&incidents.Record{},
		&templates.Template{},
		&settings.ScheduleConfig{},
		&settings.AiProviderConfig{},
		&settings.EmailProviderConfig{},
		&pipeline.GeneratedReport{},
		&pipeline.RunMarker{},
		&audit.Entry{},
	)
	if err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	store, err := blob.NewStore(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize artifact storage", zap.Error(err))
	}

	auditSink := audit.NewGormSink(db, logger)
	settingsService := settings.NewService(settings.NewGormRepository(db), auditSink, logger)
	renderer := document.NewRenderer(store, logger)

	orchestrator := pipeline.NewOrchestrator(
		pipeline.NewGormRepository(db),
		incidents.NewGormSource(db),
		templates.NewGormRepository(db),
		settingsService,
		renderer,
		auditSink,
		cfg.Pipeline,
		logger,
	)

	scheduler := pipeline.NewScheduler(orchestrator, settingsService, pipeline.NewGormRepository(db), logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	logger.Info("Report service started",
		zap.String("storage_backend", cfg.Storage.Backend))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	scheduler.Stop()
	logger.Info("Report service exiting")
}

func newLogger(level string) *zap.Logger {
	zapLevel := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		zapLevel = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
