package mappers

import (
	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/models"
)

func ToDomainMember(model *models.MemberModel) *domain.Member {
	return &domain.Member{
		Key:          model.Key,
		MemberID:     model.MemberID,
		Status:       domain.MemberStatus(model.Status),
		ParentID:     model.ParentID,
		Position:     domain.Position(model.Position),
		LeftChildID:  model.LeftChildID,
		RightChildID: model.RightChildID,
		SponsorID:    model.SponsorID,
		SponsorLeg:   domain.Leg(model.SponsorLeg),
		Volume: domain.VolumeLedger{
			PersonalBV: model.PersonalBV,
			PersonalPV: model.PersonalPV,
			LeftLegBV:  model.LeftLegBV,
			LeftLegPV:  model.LeftLegPV,
			RightLegBV: model.RightLegBV,
			RightLegPV: model.RightLegPV,
			TotalBV:    model.TotalBV,
			TotalPV:    model.TotalPV,
		},
		Team: domain.TeamLedger{
			LeftTeamCount:     model.LeftTeamCount,
			LeftTeamActive:    model.LeftTeamActive,
			LeftTeamInactive:  model.LeftTeamInactive,
			RightTeamCount:    model.RightTeamCount,
			RightTeamActive:   model.RightTeamActive,
			RightTeamInactive: model.RightTeamInactive,
		},
		Directs: domain.DirectLedger{
			LeftDirectActive:    model.LeftDirectActive,
			LeftDirectInactive:  model.LeftDirectInactive,
			RightDirectActive:   model.RightDirectActive,
			RightDirectInactive: model.RightDirectInactive,
		},
		Version:   model.Version,
		JoinedAt:  model.JoinedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func ToGORMMember(member *domain.Member) *models.MemberModel {
	model := &models.MemberModel{
		Key:          member.Key,
		MemberID:     member.MemberID,
		Status:       string(member.Status),
		ParentID:     member.ParentID,
		Position:     string(member.Position),
		LeftChildID:  member.LeftChildID,
		RightChildID: member.RightChildID,
		SponsorID:    member.SponsorID,
		SponsorLeg:   string(member.SponsorLeg),
		PersonalBV:   member.Volume.PersonalBV,
		PersonalPV:   member.Volume.PersonalPV,
		Version:      member.Version,
		JoinedAt:     member.JoinedAt,
		UpdatedAt:    member.UpdatedAt,
	}
	applyLedgers(model, member)
	return model
}

func applyLedgers(model *models.MemberModel, member *domain.Member) {
	model.LeftLegBV = member.Volume.LeftLegBV
	model.LeftLegPV = member.Volume.LeftLegPV
	model.RightLegBV = member.Volume.RightLegBV
	model.RightLegPV = member.Volume.RightLegPV
	model.TotalBV = member.Volume.TotalBV
	model.TotalPV = member.Volume.TotalPV
	model.LeftTeamCount = member.Team.LeftTeamCount
	model.LeftTeamActive = member.Team.LeftTeamActive
	model.LeftTeamInactive = member.Team.LeftTeamInactive
	model.RightTeamCount = member.Team.RightTeamCount
	model.RightTeamActive = member.Team.RightTeamActive
	model.RightTeamInactive = member.Team.RightTeamInactive
	model.LeftDirectActive = member.Directs.LeftDirectActive
	model.LeftDirectInactive = member.Directs.LeftDirectInactive
	model.RightDirectActive = member.Directs.RightDirectActive
	model.RightDirectInactive = member.Directs.RightDirectInactive
}

// LedgerColumns lists every column owned by the aggregation engine.
func LedgerColumns(member *domain.Member) map[string]interface{} {
	return map[string]interface{}{
		"sponsor_leg":           string(member.SponsorLeg),
		"left_leg_bv":           member.Volume.LeftLegBV,
		"left_leg_pv":           member.Volume.LeftLegPV,
		"right_leg_bv":          member.Volume.RightLegBV,
		"right_leg_pv":          member.Volume.RightLegPV,
		"total_bv":              member.Volume.TotalBV,
		"total_pv":              member.Volume.TotalPV,
		"left_team_count":       member.Team.LeftTeamCount,
		"left_team_active":      member.Team.LeftTeamActive,
		"left_team_inactive":    member.Team.LeftTeamInactive,
		"right_team_count":      member.Team.RightTeamCount,
		"right_team_active":     member.Team.RightTeamActive,
		"right_team_inactive":   member.Team.RightTeamInactive,
		"left_direct_active":    member.Directs.LeftDirectActive,
		"left_direct_inactive":  member.Directs.LeftDirectInactive,
		"right_direct_active":   member.Directs.RightDirectActive,
		"right_direct_inactive": member.Directs.RightDirectInactive,
	}
}

func ToDomainVolumeEntry(model *models.VolumeEntryModel) *domain.VolumeEntry {
	entry := &domain.VolumeEntry{
		ID:        model.ID,
		MemberID:  model.MemberID,
		EntryType: domain.VolumeEntryType(model.EntryType),
		BV:        model.BV,
		PV:        model.PV,
		CreatedAt: model.CreatedAt,
	}
	if model.ReferenceID != nil {
		entry.ReferenceID = *model.ReferenceID
	}
	return entry
}

func ToGORMVolumeEntry(entry *domain.VolumeEntry) *models.VolumeEntryModel {
	model := &models.VolumeEntryModel{
		ID:        entry.ID,
		MemberID:  entry.MemberID,
		EntryType: string(entry.EntryType),
		BV:        entry.BV,
		PV:        entry.PV,
		CreatedAt: entry.CreatedAt,
	}
	if entry.ReferenceID != "" {
		model.ReferenceID = domain.StringPtr(entry.ReferenceID)
	}
	return model
}

func ToDomainRun(model *models.ReconciliationRunModel) *domain.ReconciliationRun {
	return &domain.ReconciliationRun{
		ID:          model.ID,
		Mode:        domain.ReconciliationMode(model.Mode),
		Population:  model.Population,
		Corrections: model.Corrections,
		Skipped:     model.Skipped,
		Orphans:     model.Orphans,
		Issues:      model.Issues,
		StartedAt:   model.StartedAt,
		FinishedAt:  model.FinishedAt,
		Error:       model.Error,
	}
}

func ToGORMRun(run *domain.ReconciliationRun) *models.ReconciliationRunModel {
	return &models.ReconciliationRunModel{
		ID:          run.ID,
		Mode:        string(run.Mode),
		Population:  run.Population,
		Corrections: run.Corrections,
		Skipped:     run.Skipped,
		Orphans:     run.Orphans,
		Issues:      run.Issues,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Error:       run.Error,
	}
}
