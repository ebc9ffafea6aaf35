// Package comparables locates comparable properties for a subject using a
// progressively widening tolerance ladder.
package comparables

import (
	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/utils"
)

// ComputeRanges calculates the matching intervals for subject under params.
// Missing or zero subject attributes produce an interval of [0, +inf).
func ComputeRanges(subject *models.Property, params models.ToleranceParams) models.RangeSet {
	if subject == nil {
		return models.RangeSet{}
	}

	return models.RangeSet{
		YearRange:         yearRange(subject.YearBuilt, params.YearDifference),
		BuildingAreaRange: percentRange(subject.BuildingArea, params.BuildingAreaPercentage),
		LandAreaRange:     percentRange(subject.LandArea, params.LandAreaPercentage),
		CDURange:          cduRange(subject.CDU, params.CDUDifference),
	}
}

func yearRange(yearBuilt *int, delta int) models.IntRange {
	if yearBuilt == nil || *yearBuilt == 0 {
		return models.IntRange{Min: 0}
	}
	maxYear := *yearBuilt + delta
	return models.IntRange{Min: *yearBuilt - delta, Max: &maxYear}
}

func percentRange(value *float64, percentage float64) models.FloatRange {
	v := utils.PositiveOrNil(value)
	if v == nil {
		return models.FloatRange{Min: 0}
	}
	p := percentage / 100
	upper := *v * (1 + p)
	return models.FloatRange{Min: max(0, *v*(1-p)), Max: &upper}
}

func cduRange(cdu *float64, delta float64) models.FloatRange {
	v := utils.PositiveOrNil(cdu)
	if v == nil {
		return models.FloatRange{Min: 0}
	}
	upper := min(1, *v+delta)
	return models.FloatRange{Min: max(0, *v-delta), Max: &upper}
}
