package repository

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultReconciliationRunRepository struct {
	DB *gorm.DB
}

func NewDefaultReconciliationRunRepository(db *gorm.DB) *DefaultReconciliationRunRepository {
	return &DefaultReconciliationRunRepository{DB: db}
}

func (r *DefaultReconciliationRunRepository) CreateRun(ctx context.Context, run *domain.ReconciliationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(mappers.ToGORMRun(run)).Error
}

// LastRun returns nil when no run was recorded yet.
func (r *DefaultReconciliationRunRepository) LastRun(ctx context.Context) (*domain.ReconciliationRun, error) {
	var model models.ReconciliationRunModel
	err := r.DB.WithContext(ctx).Order("started_at DESC").First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainRun(&model), nil
}
