package setup

import (
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-genealogy-service/internal/config"
	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config          *config.GenealogyConfig
	Logger          *slog.Logger
	DB              *gorm.DB
	Store           domain.Store
	KafkaPublisher  *kafka.DefaultKafkaPublisher
	LedgerPublisher domain.LedgerPublisher
	// Subscriber is nil when no broker is configured.
	Subscriber domain.SubscriberPort
	Audit      domain.AuditLogger
	Registry   *prometheus.Registry
	Metrics    *metrics.GenealogyMetrics
}

func InitializeDependencies(cfg *config.GenealogyConfig, log *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   log,
		Registry: prometheus.NewRegistry(),
	}
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.NewGenealogyMetrics(deps.Registry)

	switch cfg.GenealogyDB.Driver {
	case "postgres":
		deps.DB = postgres.MustInitDB(cfg)
		deps.Store = postgres.NewStore(deps.DB)
		deps.Audit = logger.NewPGAuditLogger(deps.DB)
	case "memory":
		log.Warn("using in-memory store, state is lost on restart")
		deps.Store = memory.NewStore()
		deps.Audit = logger.NewSlogAuditLogger(log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.GenealogyDB.Driver)
	}

	brokers := cfg.KafkaService.Brokers()
	if len(brokers) == 0 {
		log.Warn("kafka is not configured, events are neither consumed nor published")
		deps.LedgerPublisher = kafka.NoopLedgerPublisher{}
		return deps, nil
	}
	deps.KafkaPublisher = kafka.NewDefaultKafkaPublisher(brokers)
	deps.LedgerPublisher = kafka.NewLedgerPublisher(deps.KafkaPublisher, cfg.KafkaService.LedgerTopic, log)
	deps.Subscriber = kafka.NewDefaultKafkaSubscriber(brokers, log)
	return deps, nil
}

func (d *Dependencies) Close() {
	if d.KafkaPublisher != nil {
		if err := d.KafkaPublisher.Close(); err != nil {
			d.Logger.Error("failed to close kafka writer", "error", err)
		}
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
