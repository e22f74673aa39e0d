package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
)

type VolumeUsecase interface {
	Credit(ctx context.Context, input *genealogydto.CreditVolumeInput) (*genealogydto.CreditVolumeOutput, error)
	ListEntries(ctx context.Context, memberID string, limit int) ([]*domain.VolumeEntry, error)
}

type DefaultVolumeUsecase struct {
	chain *chainReconciler
}

func NewDefaultVolumeUsecase(
	store domain.Store,
	publisher domain.LedgerPublisher,
	audit domain.AuditLogger,
	genealogyMetrics *metrics.GenealogyMetrics,
	logger *slog.Logger,
	options GenealogyOptions,
) *DefaultVolumeUsecase {
	return &DefaultVolumeUsecase{
		chain: &chainReconciler{
			store:     store,
			publisher: publisher,
			audit:     audit,
			metrics:   genealogyMetrics,
			logger:    logger,
			options:   options,
		},
	}
}

var errDuplicateCredit = fmt.Errorf("volume reference already credited: %w", errUnchanged)

// Credit adds BV/PV to the member's personal volume, records the entry and
// reconciles the ancestor chain in one transaction. A reference id seen
// before for the same member is acknowledged without crediting again.
func (uc *DefaultVolumeUsecase) Credit(ctx context.Context, input *genealogydto.CreditVolumeInput) (*genealogydto.CreditVolumeOutput, error) {
	if err := validateCredit(input); err != nil {
		return nil, err
	}

	res, err := uc.chain.reconcile(ctx, "volume", input.MemberID, func(tx domain.Store, m *domain.Member) error {
		bv := m.Volume.PersonalBV.Add(input.BV)
		pv := m.Volume.PersonalPV.Add(input.PV)
		if bv.IsNegative() || pv.IsNegative() {
			return fmt.Errorf("personal volume of %s would go below zero: %w", m.MemberID, domain.ErrInvalidVolume)
		}
		created, err := tx.VolumeEntries().CreateEntry(ctx, &domain.VolumeEntry{
			MemberID:    m.MemberID,
			EntryType:   input.EntryType,
			BV:          input.BV,
			PV:          input.PV,
			ReferenceID: input.ReferenceID,
		})
		if err != nil {
			return err
		}
		if !created {
			return errDuplicateCredit
		}
		m.Volume.PersonalBV = bv
		m.Volume.PersonalPV = pv
		return nil
	})
	if errors.Is(err, errDuplicateCredit) {
		uc.chain.logger.Info("volume credit already applied", "member_id", input.MemberID, "reference_id", input.ReferenceID)
		member, err := uc.chain.store.Members().GetMember(ctx, input.MemberID)
		if err != nil {
			return nil, err
		}
		return &genealogydto.CreditVolumeOutput{Member: member, Applied: false}, nil
	}
	if err != nil {
		return nil, err
	}

	bv, _ := input.BV.Float64()
	uc.chain.metrics.RecordCredit(string(input.EntryType), bv)
	return &genealogydto.CreditVolumeOutput{Member: findMember(res.Updated, input.MemberID), Applied: true}, nil
}

func (uc *DefaultVolumeUsecase) ListEntries(ctx context.Context, memberID string, limit int) ([]*domain.VolumeEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.chain.store.VolumeEntries().ListEntries(ctx, memberID, limit)
}

func validateCredit(input *genealogydto.CreditVolumeInput) error {
	if input.MemberID == "" {
		return fmt.Errorf("member id is required: %w", domain.ErrInvalidMember)
	}
	if input.EntryType == "" {
		input.EntryType = domain.VolumeEntryRepurchase
	}
	if !input.EntryType.Valid() {
		return fmt.Errorf("entry type %q: %w", input.EntryType, domain.ErrInvalidVolume)
	}
	if input.EntryType != domain.VolumeEntryAdminAdjustment && (input.BV.IsNegative() || input.PV.IsNegative()) {
		return fmt.Errorf("negative amounts are only allowed for adjustments: %w", domain.ErrInvalidVolume)
	}
	if input.BV.IsZero() && input.PV.IsZero() {
		return fmt.Errorf("empty credit: %w", domain.ErrInvalidVolume)
	}
	return nil
}
