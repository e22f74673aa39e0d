package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultMemberRepository struct {
	DB *gorm.DB
}

func NewDefaultMemberRepository(db *gorm.DB) *DefaultMemberRepository {
	return &DefaultMemberRepository{DB: db}
}

func (r *DefaultMemberRepository) first(db *gorm.DB, memberID string) (*domain.Member, error) {
	var model models.MemberModel
	if err := db.First(&model, "member_id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", memberID, domain.ErrMemberNotFound)
		}
		return nil, err
	}
	return mappers.ToDomainMember(&model), nil
}

func (r *DefaultMemberRepository) GetMember(ctx context.Context, memberID string) (*domain.Member, error) {
	return r.first(r.DB.WithContext(ctx), memberID)
}

// LockMember issues SELECT ... FOR UPDATE; the lock is released when the
// surrounding transaction ends.
func (r *DefaultMemberRepository) LockMember(ctx context.Context, memberID string) (*domain.Member, error) {
	return r.first(r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), memberID)
}

func (r *DefaultMemberRepository) find(db *gorm.DB) ([]*domain.Member, error) {
	var memberModels []models.MemberModel
	if err := db.Order("joined_at, member_id").Find(&memberModels).Error; err != nil {
		return nil, err
	}
	members := make([]*domain.Member, len(memberModels))
	for i := range memberModels {
		members[i] = mappers.ToDomainMember(&memberModels[i])
	}
	return members, nil
}

func (r *DefaultMemberRepository) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	members, err := r.find(r.DB.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (r *DefaultMemberRepository) ListBySponsor(ctx context.Context, sponsorID string) ([]*domain.Member, error) {
	members, err := r.find(r.DB.WithContext(ctx).Where("sponsor_id = ?", sponsorID))
	if err != nil {
		return nil, fmt.Errorf("failed to list members sponsored by %s: %w", sponsorID, err)
	}
	return members, nil
}

func (r *DefaultMemberRepository) CountMembers(ctx context.Context) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.MemberModel{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *DefaultMemberRepository) CreateMember(ctx context.Context, member *domain.Member) error {
	if member.Key == "" {
		member.Key = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.JoinedAt.IsZero() {
		member.JoinedAt = now
	}
	member.UpdatedAt = now
	member.Version = 1

	if err := r.DB.WithContext(ctx).Create(mappers.ToGORMMember(member)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s: %w", member.MemberID, domain.ErrDuplicateMember)
		}
		return err
	}
	return nil
}

// AttachChild is a compare-and-set on the parent row: it only succeeds while
// the slot is empty and nobody else wrote the parent since it was read.
func (r *DefaultMemberRepository) AttachChild(ctx context.Context, parentID string, side domain.Position, childID string, expectedVersion int64) error {
	var column string
	switch side {
	case domain.PositionLeft:
		column = "left_child_id"
	case domain.PositionRight:
		column = "right_child_id"
	default:
		return fmt.Errorf("attach to %s: %w", parentID, domain.ErrInvalidSide)
	}

	res := r.DB.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("member_id = ? AND version = ? AND "+column+" IS NULL", parentID, expectedVersion).
		Updates(map[string]interface{}{
			column:       childID,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s slot of %s: %w", side, parentID, domain.ErrConcurrentSlotConflict)
	}
	return nil
}

func (r *DefaultMemberRepository) SaveMember(ctx context.Context, member *domain.Member) error {
	values := mappers.LedgerColumns(member)
	values["status"] = string(member.Status)
	values["personal_bv"] = member.Volume.PersonalBV
	values["personal_pv"] = member.Volume.PersonalPV
	values["version"] = gorm.Expr("version + 1")
	now := time.Now().UTC()
	values["updated_at"] = now

	res := r.DB.WithContext(ctx).
		Model(&models.MemberModel{}).
		Where("member_id = ?", member.MemberID).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", member.MemberID, domain.ErrMemberNotFound)
	}
	member.Version++
	member.UpdatedAt = now
	return nil
}

func (r *DefaultMemberRepository) SaveLedgers(ctx context.Context, members []*domain.Member) (int, error) {
	skipped := 0
	now := time.Now().UTC()
	for _, member := range members {
		values := mappers.LedgerColumns(member)
		values["version"] = gorm.Expr("version + 1")
		values["updated_at"] = now

		res := r.DB.WithContext(ctx).
			Model(&models.MemberModel{}).
			Where("member_id = ? AND version = ?", member.MemberID, member.Version).
			Updates(values)
		if res.Error != nil {
			return skipped, fmt.Errorf("failed to save ledgers of %s: %w", member.MemberID, res.Error)
		}
		if res.RowsAffected == 0 {
			skipped++
			continue
		}
		member.Version++
		member.UpdatedAt = now
	}
	return skipped, nil
}
