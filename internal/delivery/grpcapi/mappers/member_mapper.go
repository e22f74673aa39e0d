package mappers

import (
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
)

// Amounts are rendered as decimal strings so no precision is lost in
// google.protobuf.Value numbers.

func ToStructMember(m *domain.Member) map[string]interface{} {
	if m == nil {
		return nil
	}
	return map[string]interface{}{
		"member_id":      m.MemberID,
		"status":         string(m.Status),
		"parent_id":      optionalID(m.ParentID),
		"position":       string(m.Position),
		"left_child_id":  optionalID(m.LeftChildID),
		"right_child_id": optionalID(m.RightChildID),
		"sponsor_id":     optionalID(m.SponsorID),
		"sponsor_leg":    string(m.SponsorLeg),
		"volume": map[string]interface{}{
			"personal_bv":  m.Volume.PersonalBV.String(),
			"personal_pv":  m.Volume.PersonalPV.String(),
			"left_leg_bv":  m.Volume.LeftLegBV.String(),
			"left_leg_pv":  m.Volume.LeftLegPV.String(),
			"right_leg_bv": m.Volume.RightLegBV.String(),
			"right_leg_pv": m.Volume.RightLegPV.String(),
			"total_bv":     m.Volume.TotalBV.String(),
			"total_pv":     m.Volume.TotalPV.String(),
		},
		"team": map[string]interface{}{
			"left_team_count":     m.Team.LeftTeamCount,
			"left_team_active":    m.Team.LeftTeamActive,
			"left_team_inactive":  m.Team.LeftTeamInactive,
			"right_team_count":    m.Team.RightTeamCount,
			"right_team_active":   m.Team.RightTeamActive,
			"right_team_inactive": m.Team.RightTeamInactive,
		},
		"directs": map[string]interface{}{
			"left_direct_active":    m.Directs.LeftDirectActive,
			"left_direct_inactive":  m.Directs.LeftDirectInactive,
			"right_direct_active":   m.Directs.RightDirectActive,
			"right_direct_inactive": m.Directs.RightDirectInactive,
		},
		"version":    m.Version,
		"joined_at":  m.JoinedAt.UTC().Format(time.RFC3339),
		"updated_at": m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToStructMembers(members []*domain.Member) []interface{} {
	out := make([]interface{}, 0, len(members))
	for _, m := range members {
		out = append(out, ToStructMember(m))
	}
	return out
}

func ToStructTree(node *genealogydto.TreeNode) map[string]interface{} {
	if node == nil {
		return nil
	}
	out := map[string]interface{}{"member": ToStructMember(node.Member)}
	if node.Left != nil {
		out["left"] = ToStructTree(node.Left)
	}
	if node.Right != nil {
		out["right"] = ToStructTree(node.Right)
	}
	return out
}

func ToStructRun(run *domain.ReconciliationRun) map[string]interface{} {
	return map[string]interface{}{
		"run_id":      run.ID,
		"mode":        string(run.Mode),
		"population":  run.Population,
		"corrections": run.Corrections,
		"skipped":     run.Skipped,
		"orphans":     run.Orphans,
		"issues":      run.Issues,
		"started_at":  run.StartedAt.UTC().Format(time.RFC3339Nano),
		"finished_at": run.FinishedAt.UTC().Format(time.RFC3339Nano),
	}
}

func ToStructPagination(p genealogydto.Pagination) map[string]interface{} {
	return map[string]interface{}{
		"current_page":   p.CurrentPage,
		"total_pages":    p.TotalPages,
		"total_items":    p.TotalItems,
		"items_per_page": p.ItemsPerPage,
	}
}

func optionalID(id *string) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
