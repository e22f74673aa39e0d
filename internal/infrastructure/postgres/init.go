package postgres

import (
	"log"

	"github.com/LavaJover/shvark-genealogy-service/internal/config"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.GenealogyConfig) *gorm.DB {
	dsn := cfg.GenealogyDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if path := cfg.GenealogyDB.MigrationsPath; path != "" {
		if err := migrate.RunMigrations(db, path); err != nil {
			log.Fatalf("failed to run migrations: %v\n", err)
		}
		return db
	}

	if err := db.AutoMigrate(&models.MemberModel{}, &models.VolumeEntryModel{}, &models.ReconciliationRunModel{}, &logger.AuditEventModel{}); err != nil {
		log.Fatalf("failed to migrate db: %v\n", err)
	}
	return db
}
