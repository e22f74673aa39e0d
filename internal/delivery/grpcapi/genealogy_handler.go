package grpcapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LavaJover/shvark-genealogy-service/internal/delivery/grpcapi/mappers"
	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GenealogyHandler struct {
	placement      usecase.PlacementUsecase
	reconciliation usecase.ReconciliationUsecase
	volume         usecase.VolumeUsecase
	genealogy      usecase.GenealogyUsecase
	logger         *slog.Logger
}

func NewGenealogyHandler(
	placement usecase.PlacementUsecase,
	reconciliation usecase.ReconciliationUsecase,
	volume usecase.VolumeUsecase,
	genealogy usecase.GenealogyUsecase,
	logger *slog.Logger,
) *GenealogyHandler {
	return &GenealogyHandler{
		placement:      placement,
		reconciliation: reconciliation,
		volume:         volume,
		genealogy:      genealogy,
		logger:         logger,
	}
}

var _ GenealogyServer = (*GenealogyHandler)(nil)

func (h *GenealogyHandler) fail(method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		h.logger.Error("rpc failed", "method", method, "error", err)
	}
	return st
}

func memberResponse(m *domain.Member) (*structpb.Struct, error) {
	return newStruct(map[string]interface{}{"member": mappers.ToStructMember(m)})
}

func (h *GenealogyHandler) CreateRoot(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	m, err := h.placement.CreateRoot(ctx, &genealogydto.CreateRootInput{
		MemberID: stringField(r, "member_id"),
		Status:   domain.MemberStatus(stringField(r, "status")),
	})
	if err != nil {
		return nil, h.fail("CreateRoot", err)
	}
	return memberResponse(m)
}

func (h *GenealogyHandler) PlaceMember(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	sponsorID, err := requiredString(r, "sponsor_id")
	if err != nil {
		return nil, err
	}
	out, err := h.placement.PlaceMember(ctx, &genealogydto.PlaceMemberInput{
		MemberID:      stringField(r, "member_id"),
		SponsorID:     sponsorID,
		PreferredSide: domain.Position(stringField(r, "preferred_side")),
		Status:        domain.MemberStatus(stringField(r, "status")),
	})
	if err != nil {
		return nil, h.fail("PlaceMember", err)
	}
	return newStruct(map[string]interface{}{
		"member":  mappers.ToStructMember(out.Member),
		"depth":   out.Depth,
		"retries": out.Retries,
	})
}

func (h *GenealogyHandler) ResolvePlacement(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	sponsorID, err := requiredString(r, "sponsor_id")
	if err != nil {
		return nil, err
	}
	p, err := h.placement.ResolvePlacement(ctx, sponsorID, domain.Position(stringField(r, "preferred_side")))
	if err != nil {
		return nil, h.fail("ResolvePlacement", err)
	}
	return newStruct(map[string]interface{}{
		"parent_id": p.ParentID,
		"position":  string(p.Position),
		"depth":     p.Depth,
	})
}

// ClassifyLeg answers "none" with orphan set instead of an error when the
// member is not placed below the sponsor.
func (h *GenealogyHandler) ClassifyLeg(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	sponsorID, err := requiredString(r, "sponsor_id")
	if err != nil {
		return nil, err
	}
	memberID, err := requiredString(r, "member_id")
	if err != nil {
		return nil, err
	}
	leg, err := h.genealogy.ClassifyLeg(ctx, sponsorID, memberID)
	orphan := errors.Is(err, domain.ErrOrphanDescendant)
	if err != nil && !orphan {
		return nil, h.fail("ClassifyLeg", err)
	}
	return newStruct(map[string]interface{}{
		"leg":    string(leg),
		"orphan": orphan,
	})
}

func (h *GenealogyHandler) Aggregate(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	memberID, err := requiredString(r, "member_id")
	if err != nil {
		return nil, err
	}
	out, err := h.genealogy.Aggregate(ctx, memberID, boolField(r, "fresh"))
	if err != nil {
		return nil, h.fail("Aggregate", err)
	}
	return newStruct(map[string]interface{}{
		"member_id":     out.MemberID,
		"bv":            out.BV.String(),
		"pv":            out.PV.String(),
		"team_count":    out.TeamCount,
		"team_active":   out.TeamActive,
		"team_inactive": out.TeamInactive,
	})
}

func (h *GenealogyHandler) RecomputeAll(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := h.reconciliation.RecomputeAll(ctx)
	if err != nil {
		return nil, h.fail("RecomputeAll", err)
	}
	return newStruct(map[string]interface{}{
		"run":    mappers.ToStructRun(out.Run),
		"shared": out.Shared,
	})
}

func (h *GenealogyHandler) ChangeStatus(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	memberID, err := requiredString(r, "member_id")
	if err != nil {
		return nil, err
	}
	m, err := h.reconciliation.ChangeStatus(ctx, memberID, domain.MemberStatus(stringField(r, "status")))
	if err != nil {
		return nil, h.fail("ChangeStatus", err)
	}
	return memberResponse(m)
}

func (h *GenealogyHandler) CreditVolume(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	memberID, err := requiredString(r, "member_id")
	if err != nil {
		return nil, err
	}
	bv, err := decimalField(r, "bv")
	if err != nil {
		return nil, err
	}
	pv, err := decimalField(r, "pv")
	if err != nil {
		return nil, err
	}
	out, err := h.volume.Credit(ctx, &genealogydto.CreditVolumeInput{
		MemberID:    memberID,
		BV:          bv,
		PV:          pv,
		EntryType:   domain.VolumeEntryType(stringField(r, "entry_type")),
		ReferenceID: stringField(r, "reference_id"),
	})
	if err != nil {
		return nil, h.fail("CreditVolume", err)
	}
	return newStruct(map[string]interface{}{
		"member":  mappers.ToStructMember(out.Member),
		"applied": out.Applied,
	})
}

func (h *GenealogyHandler) GetMember(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	memberID, err := requiredString(r, "member_id")
	if err != nil {
		return nil, err
	}
	m, err := h.genealogy.Member(ctx, memberID)
	if err != nil {
		return nil, h.fail("GetMember", err)
	}
	return memberResponse(m)
}

func (h *GenealogyHandler) GetTree(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	memberID, err := requiredString(r, "member_id")
	if err != nil {
		return nil, err
	}
	depth, err := intField(r, "depth")
	if err != nil {
		return nil, err
	}
	tree, err := h.genealogy.Tree(ctx, memberID, depth)
	if err != nil {
		return nil, h.fail("GetTree", err)
	}
	return newStruct(map[string]interface{}{"tree": mappers.ToStructTree(tree)})
}

func (h *GenealogyHandler) ListLegTeam(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	memberID, err := requiredString(r, "member_id")
	if err != nil {
		return nil, err
	}
	leg, err := domain.ParseLeg(stringField(r, "leg"))
	if err != nil {
		return nil, h.fail("ListLegTeam", err)
	}
	page, err := int32Field(r, "page")
	if err != nil {
		return nil, err
	}
	limit, err := int32Field(r, "limit")
	if err != nil {
		return nil, err
	}
	out, err := h.genealogy.LegTeam(ctx, &genealogydto.LegTeamInput{
		MemberID: memberID,
		Leg:      leg,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, h.fail("ListLegTeam", err)
	}
	return newStruct(map[string]interface{}{
		"members":    mappers.ToStructMembers(out.Members),
		"pagination": mappers.ToStructPagination(out.Pagination),
	})
}

func (h *GenealogyHandler) ListDirects(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	sponsorID, err := requiredString(r, "sponsor_id")
	if err != nil {
		return nil, err
	}
	leg, err := domain.ParseLeg(stringField(r, "leg"))
	if err != nil {
		return nil, h.fail("ListDirects", err)
	}
	members, err := h.genealogy.Directs(ctx, sponsorID, leg)
	if err != nil {
		return nil, h.fail("ListDirects", err)
	}
	return newStruct(map[string]interface{}{"members": mappers.ToStructMembers(members)})
}
