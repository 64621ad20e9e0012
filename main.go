package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"puzzle2profit/api"
	"puzzle2profit/config"
	"puzzle2profit/models"
	"puzzle2profit/providers"
	"puzzle2profit/providers/brevo"
	"puzzle2profit/providers/gemini"
	"puzzle2profit/providers/xai"
	"puzzle2profit/services"
	"puzzle2profit/storage"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// scheduledResearchTimeout begrenzt einen Cron-Lauf über beide Tracks.
const scheduledResearchTimeout = 10 * time.Minute

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	// Auto-Migration
	if gin.Mode() == gin.DebugMode {
		logging.Info("Debug mode detected. Dropping tables for fresh start.")
		db.Migrator().DropTable(models.All()...)
	}
	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Seeding
	seedDefaultPaths(db, logging)

	// Setup Providers
	ctx := context.Background()
	provider := newLLMProvider(ctx, cfg, logging)
	var sender services.EmailSender
	if cfg.BrevoAPIKey != "" {
		sender = brevo.NewClient(cfg, logging)
	} else {
		logging.Warn("BREVO_API_KEY not set, newsletter routes will report missing credentials")
	}
	var archive services.ArchiveStore
	if cfg.ArchiveEnabled() {
		a, err := storage.NewArchive(ctx, cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		archive = a
		logging.Info("Export archive enabled", zap.String("bucket", cfg.S3Bucket))
	}

	// Setup Services
	researchService := services.NewResearchService(cfg, db, provider, logging)
	svc := api.Services{
		Research:   researchService,
		Copy:       services.NewCopyService(cfg, provider, logging),
		Contracts:  services.NewContractService(cfg, db, provider, logging),
		Export:     services.NewExportService(cfg, db, archive, logging),
		Populator:  services.NewPopulatorService(db, logging),
		Newsletter: services.NewNewsletterService(cfg, db, sender, logging),
		Verifier:   services.NewJWTVerifier(cfg.JWTSecret),
	}

	// Setup Router
	router := api.NewRouter(cfg, db, svc, logging)

	// Setup Cron
	if cfg.ResearchCronEnabled {
		cronScheduler := cron.New()
		_, err := cronScheduler.AddFunc(cfg.CronSchedule, func() {
			logging.Info("Running scheduled research job...")
			jobCtx, cancel := context.WithTimeout(context.Background(), scheduledResearchTimeout)
			defer cancel()
			run, err := researchService.Run(jobCtx, services.ResearchRequest{})
			if err != nil {
				logging.Error("Cron job failed", zap.Error(err))
				return
			}
			logging.Info("Cron job completed",
				zap.Bool("success", run.Success), zap.Bool("partial", run.Partial), zap.Int("units", len(run.Results)))
		})
		if err != nil {
			logging.Fatal("Invalid CRON_SCHEDULE", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
		}
		cronScheduler.Start()
		logging.Info("Scheduled research enabled", zap.String("schedule", cfg.CronSchedule))
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + 60*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// newLLMProvider wählt den Provider nach LLM_PROVIDER. Ohne Key bleibt er nil,
// die Handler melden dann die fehlenden Credentials.
func newLLMProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) providers.Provider {
	var p providers.Provider
	switch strings.ToLower(cfg.LLMProvider) {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY not set")
			return nil
		}
		client, err := gemini.NewClient(ctx, cfg, log)
		if err != nil {
			log.Fatal("Gemini client creation failed", zap.Error(err))
		}
		p = client
	case "xai", "":
		if cfg.XAIAPIKey == "" {
			log.Warn("XAI_API_KEY not set")
			return nil
		}
		p = xai.NewClient(cfg, log)
	default:
		log.Fatal("Unknown LLM_PROVIDER", zap.String("provider", cfg.LLMProvider))
	}
	log.Info("LLM provider loaded", zap.String("provider", p.Name()), zap.Int("max_attempts", cfg.LLMMaxAttempts))
	return providers.WithRetry(p, providers.RetryPolicy{
		MaxAttempts:    cfg.LLMMaxAttempts,
		InitialBackoff: cfg.LLMBackoffInitial,
		MaxBackoff:     cfg.LLMBackoffMax,
	}, log)
}

func seedDefaultPaths(db *gorm.DB, log *zap.Logger) {
	var count int64
	db.Model(&models.Path{}).Count(&count)
	if count > 0 {
		log.Info("Paths already exist, skipping seed.", zap.Int64("count", count))
		return
	}

	paths := make([]models.Path, len(services.DefaultPaths))
	copy(paths, services.DefaultPaths)
	if err := db.Create(&paths).Error; err != nil {
		log.Warn("Failed to seed default paths", zap.Error(err))
		return
	}
	log.Info("Seeded default paths", zap.Int("count", len(paths)))
}
