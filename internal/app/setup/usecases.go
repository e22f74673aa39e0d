package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/config"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase/genealogy"
)

type UseCases struct {
	PlacementUsecase      usecase.PlacementUsecase
	ReconciliationUsecase usecase.ReconciliationUsecase
	VolumeUsecase         usecase.VolumeUsecase
	GenealogyUsecase      usecase.GenealogyUsecase
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	options, err := GenealogyOptions(deps.Config)
	if err != nil {
		return nil, err
	}

	placementUsecase, err := usecase.NewDefaultPlacementUsecase(deps.Store, deps.LedgerPublisher, deps.Audit, deps.Metrics, deps.Logger, options)
	if err != nil {
		return nil, fmt.Errorf("placement usecase: %w", err)
	}

	return &UseCases{
		PlacementUsecase:      placementUsecase,
		ReconciliationUsecase: usecase.NewDefaultReconciliationUsecase(deps.Store, deps.LedgerPublisher, deps.Audit, deps.Metrics, deps.Logger, options),
		VolumeUsecase:         usecase.NewDefaultVolumeUsecase(deps.Store, deps.LedgerPublisher, deps.Audit, deps.Metrics, deps.Logger, options),
		GenealogyUsecase:      usecase.NewDefaultGenealogyUsecase(deps.Store, options),
	}, nil
}

func GenealogyOptions(cfg *config.GenealogyConfig) (usecase.GenealogyOptions, error) {
	flashout, err := genealogy.ParseFlashoutPolicy(cfg.Reconciliation.Flashout)
	if err != nil {
		return usecase.GenealogyOptions{}, err
	}
	orphans, err := genealogy.ParseOrphanPolicy(cfg.Reconciliation.OrphanPolicy)
	if err != nil {
		return usecase.GenealogyOptions{}, err
	}

	options := usecase.DefaultGenealogyOptions()
	options.Policy = genealogy.Policy{
		Flashout: flashout,
		Orphans:  orphans,
		MaxDepth: cfg.Placement.MaxDepth,
	}
	if cfg.Placement.MaxRetries > 0 {
		options.MaxRetries = cfg.Placement.MaxRetries
	}
	if cfg.Placement.RetryBaseDelay > 0 {
		options.RetryBaseDelay = cfg.Placement.RetryBaseDelay
	}
	options.WriteChunkSize = cfg.Reconciliation.WriteChunkSize
	return options, nil
}
