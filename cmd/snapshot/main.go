package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"puzzle2profit/config"
	"puzzle2profit/services"
	"puzzle2profit/storage"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const snapshotPrefix = "snapshots/"

// SnapshotConfig ergänzt die Service-Konfiguration um die Rotation.
type SnapshotConfig struct {
	KeepSnapshots int           `envconfig:"KEEP_SNAPSHOTS" default:"4"`
	Timeout       time.Duration `envconfig:"SNAPSHOT_TIMEOUT" default:"5m"`
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	logging.Info("Starte Snapshot-Prozess...")

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	var snapCfg SnapshotConfig
	if err := envconfig.Process("", &snapCfg); err != nil {
		logging.Fatal("Fehler beim Laden der Snapshot-Konfiguration", zap.Error(err))
	}
	if !cfg.ArchiveEnabled() {
		details, _ := cfg.CredentialStatus(config.CredentialArchive)
		logging.Fatal("S3 ist nicht konfiguriert", zap.Any("details", details))
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapCfg.Timeout)
	defer cancel()

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}

	archive, err := storage.NewArchive(ctx, cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	// 1. Alle Trends als JSON rendern
	exporter := services.NewExportService(cfg, db, archive, logging)
	trends, err := exporter.LoadTrends(ctx, nil)
	if err != nil {
		logging.Fatal("Fehler beim Laden der Trends", zap.Error(err))
	}
	now := time.Now().UTC()
	doc, err := services.Render(services.FormatJSON, trends, now)
	if err != nil {
		logging.Fatal("Fehler beim Rendern des Snapshots", zap.Error(err))
	}

	// 2. Hochladen
	key := fmt.Sprintf("%sresearch-%s.json", snapshotPrefix, now.Format("2006-01-02T15-04-05Z"))
	link, err := archive.Upload(ctx, key, doc.ContentType, doc.Body)
	if err != nil {
		logging.Fatal("Fehler beim Hochladen nach S3", zap.String("key", key), zap.Error(err))
	}
	logging.Info("Snapshot hochgeladen", zap.String("url", link), zap.Int("entries", doc.Entries))

	// 3. Alte Snapshots rotieren
	deleted, err := archive.Rotate(ctx, snapshotPrefix, snapCfg.KeepSnapshots)
	for _, k := range deleted {
		logging.Info("Alter Snapshot gelöscht", zap.String("key", k))
	}
	if err != nil {
		logging.Fatal("Fehler bei der Rotation alter Snapshots", zap.Error(err))
	}

	logging.Info("Snapshot-Prozess erfolgreich abgeschlossen.", zap.Int("rotated", len(deleted)))
}
