package repository

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultVolumeEntryRepository struct {
	DB *gorm.DB
}

func NewDefaultVolumeEntryRepository(db *gorm.DB) *DefaultVolumeEntryRepository {
	return &DefaultVolumeEntryRepository{DB: db}
}

func (r *DefaultVolumeEntryRepository) CreateEntry(ctx context.Context, entry *domain.VolumeEntry) (bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(mappers.ToGORMVolumeEntry(entry))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *DefaultVolumeEntryRepository) ListEntries(ctx context.Context, memberID string, limit int) ([]*domain.VolumeEntry, error) {
	query := r.DB.WithContext(ctx).Where("member_id = ?", memberID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entryModels []models.VolumeEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]*domain.VolumeEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = mappers.ToDomainVolumeEntry(&entryModels[i])
	}
	return entries, nil
}
