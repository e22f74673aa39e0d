package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase/genealogy"
	nanoid "github.com/jaevor/go-nanoid"
)

type PlacementUsecase interface {
	CreateRoot(ctx context.Context, input *genealogydto.CreateRootInput) (*domain.Member, error)
	PlaceMember(ctx context.Context, input *genealogydto.PlaceMemberInput) (*genealogydto.PlacementOutput, error)
	ResolvePlacement(ctx context.Context, sponsorID string, preferred domain.Position) (genealogy.Placement, error)
}

type DefaultPlacementUsecase struct {
	chain *chainReconciler
	newID func() string
}

func NewDefaultPlacementUsecase(
	store domain.Store,
	publisher domain.LedgerPublisher,
	audit domain.AuditLogger,
	genealogyMetrics *metrics.GenealogyMetrics,
	logger *slog.Logger,
	options GenealogyOptions,
) (*DefaultPlacementUsecase, error) {
	newID, err := nanoid.Standard(15)
	if err != nil {
		return nil, fmt.Errorf("init member id generator: %w", err)
	}
	return &DefaultPlacementUsecase{
		chain: &chainReconciler{
			store:     store,
			publisher: publisher,
			audit:     audit,
			metrics:   genealogyMetrics,
			logger:    logger,
			options:   options,
		},
		newID: newID,
	}, nil
}

func (uc *DefaultPlacementUsecase) ResolvePlacement(ctx context.Context, sponsorID string, preferred domain.Position) (genealogy.Placement, error) {
	return genealogy.ResolvePlacement(ctx, uc.chain.store.Members(), sponsorID, preferred, uc.chain.options.Policy.MaxDepth)
}

func (uc *DefaultPlacementUsecase) CreateRoot(ctx context.Context, input *genealogydto.CreateRootInput) (*domain.Member, error) {
	status, err := initialStatus(input.Status)
	if err != nil {
		return nil, err
	}
	memberID := input.MemberID
	if memberID == "" {
		memberID = uc.newID()
	}

	var res *genealogy.ChainResult
	err = uc.chain.store.InTransaction(ctx, func(tx domain.Store) error {
		total, err := tx.Members().CountMembers(ctx)
		if err != nil {
			return err
		}
		if total > 0 {
			return domain.ErrRootExists
		}
		if err := tx.Members().CreateMember(ctx, &domain.Member{
			MemberID:   memberID,
			Status:     status,
			Position:   domain.PositionRoot,
			SponsorLeg: domain.LegNone,
		}); err != nil {
			return err
		}
		res, err = genealogy.ReconcileChain(ctx, tx.Members(), memberID, uc.chain.options.Policy, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.chain.afterCommit(ctx, res)
	uc.chain.logger.Info("genealogy root created", "member_id", memberID)
	return uc.chain.store.Members().GetMember(ctx, memberID)
}

// PlaceMember resolves the spillover slot for a new recruit and writes it in
// one transaction. A slot taken concurrently makes the whole placement start
// over, at most MaxRetries times.
func (uc *DefaultPlacementUsecase) PlaceMember(ctx context.Context, input *genealogydto.PlaceMemberInput) (*genealogydto.PlacementOutput, error) {
	if input.SponsorID == "" {
		return nil, fmt.Errorf("sponsor id is required: %w", domain.ErrInvalidSponsor)
	}
	status, err := initialStatus(input.Status)
	if err != nil {
		return nil, err
	}
	memberID := input.MemberID
	if memberID == "" {
		memberID = uc.newID()
	}
	if memberID == input.SponsorID {
		return nil, fmt.Errorf("member cannot sponsor itself: %w", domain.ErrInvalidSponsor)
	}

	member := &domain.Member{
		MemberID:   memberID,
		Status:     status,
		SponsorID:  domain.StringPtr(input.SponsorID),
		SponsorLeg: domain.LegNone,
		JoinedAt:   input.JoinedAt,
	}

	var (
		placement genealogy.Placement
		res       *genealogy.ChainResult
		attempt   int
	)
	for {
		placement, res, err = uc.placeOnce(ctx, member.Clone(), input.PreferredSide)
		if err == nil || !errors.Is(err, domain.ErrConcurrentSlotConflict) || attempt >= uc.chain.options.MaxRetries {
			break
		}
		attempt++
		uc.chain.logger.Debug("placement slot taken concurrently, retrying",
			"member_id", memberID, "sponsor_id", input.SponsorID, "attempt", attempt)
		select {
		case <-time.After(uc.chain.options.retryDelay(attempt)):
		case <-ctx.Done():
			err = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}
	uc.chain.metrics.RecordPlacement(placement.Depth, attempt, err)
	if err != nil {
		return nil, err
	}

	uc.chain.afterCommit(ctx, res)
	uc.chain.logger.Info("member placed",
		"member_id", memberID,
		"sponsor_id", input.SponsorID,
		"parent_id", placement.ParentID,
		"position", placement.Position,
		"depth", placement.Depth,
	)

	placed := findMember(res.Updated, memberID)
	if placed == nil {
		if placed, err = uc.chain.store.Members().GetMember(ctx, memberID); err != nil {
			return nil, err
		}
	}
	return &genealogydto.PlacementOutput{Member: placed, Depth: placement.Depth, Retries: attempt}, nil
}

func (uc *DefaultPlacementUsecase) placeOnce(ctx context.Context, member *domain.Member, preferred domain.Position) (genealogy.Placement, *genealogy.ChainResult, error) {
	policy := uc.chain.options.Policy
	placement, err := genealogy.ResolvePlacement(ctx, uc.chain.store.Members(), *member.SponsorID, preferred, policy.MaxDepth)
	if err != nil {
		return genealogy.Placement{}, nil, err
	}

	var res *genealogy.ChainResult
	err = uc.chain.store.InTransaction(ctx, func(tx domain.Store) error {
		repo := tx.Members()
		if _, err := repo.GetMember(ctx, member.MemberID); err == nil {
			return fmt.Errorf("%s: %w", member.MemberID, domain.ErrDuplicateMember)
		} else if !errors.Is(err, domain.ErrMemberNotFound) {
			return err
		}

		if _, err := genealogy.LockChain(ctx, repo, placement.ParentID, policy.MaxDepth); err != nil {
			return err
		}
		if err := repo.AttachChild(ctx, placement.ParentID, placement.Position, member.MemberID, placement.ParentVersion); err != nil {
			return err
		}
		member.ParentID = domain.StringPtr(placement.ParentID)
		member.Position = placement.Position
		if err := repo.CreateMember(ctx, member); err != nil {
			return err
		}
		res, err = genealogy.ReconcileChain(ctx, repo, member.MemberID, policy, nil)
		return err
	})
	return placement, res, err
}

func initialStatus(status domain.MemberStatus) (domain.MemberStatus, error) {
	if status == "" {
		return domain.MemberStatusInactive, nil
	}
	if !status.Valid() {
		return "", fmt.Errorf("%q: %w", status, domain.ErrInvalidStatus)
	}
	return status, nil
}
