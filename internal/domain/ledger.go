package domain

import "github.com/shopspring/decimal"

type VolumeLedger struct {
	PersonalBV decimal.Decimal
	PersonalPV decimal.Decimal
	LeftLegBV  decimal.Decimal
	LeftLegPV  decimal.Decimal
	RightLegBV decimal.Decimal
	RightLegPV decimal.Decimal
	TotalBV    decimal.Decimal
	TotalPV    decimal.Decimal
}

// Equal compares amounts by value, so 100 and 100.00 are the same volume.
func (v VolumeLedger) Equal(o VolumeLedger) bool {
	return v.PersonalBV.Equal(o.PersonalBV) &&
		v.PersonalPV.Equal(o.PersonalPV) &&
		v.LeftLegBV.Equal(o.LeftLegBV) &&
		v.LeftLegPV.Equal(o.LeftLegPV) &&
		v.RightLegBV.Equal(o.RightLegBV) &&
		v.RightLegPV.Equal(o.RightLegPV) &&
		v.TotalBV.Equal(o.TotalBV) &&
		v.TotalPV.Equal(o.TotalPV)
}

type TeamLedger struct {
	LeftTeamCount     int64
	LeftTeamActive    int64
	LeftTeamInactive  int64
	RightTeamCount    int64
	RightTeamActive   int64
	RightTeamInactive int64
}

type DirectLedger struct {
	LeftDirectActive    int64
	LeftDirectInactive  int64
	RightDirectActive   int64
	RightDirectInactive int64
}

// Count adds one direct recruit to the counter selected by leg and status.
// LegNone is not counted anywhere.
func (d *DirectLedger) Count(leg Leg, status MemberStatus) {
	active := status.IsActive()
	switch {
	case leg == LegLeft && active:
		d.LeftDirectActive++
	case leg == LegLeft:
		d.LeftDirectInactive++
	case leg == LegRight && active:
		d.RightDirectActive++
	case leg == LegRight:
		d.RightDirectInactive++
	}
}

func (d DirectLedger) Total() int64 {
	return d.LeftDirectActive + d.LeftDirectInactive + d.RightDirectActive + d.RightDirectInactive
}
