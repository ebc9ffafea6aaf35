package models

import "fmt"

// Expansion level labels attached to search results.
const (
	ExpansionLevelInitial = "initial"
	ExpansionLevelFinal   = "final_expansion"
)

// ExpansionLevel returns the label for the ladder rung at index.
func ExpansionLevel(index int) string {
	if index == 0 {
		return ExpansionLevelInitial
	}
	return fmt.Sprintf("expansion_%d", index)
}

// ToleranceParams is one rung of the tolerance ladder.
type ToleranceParams struct {
	YearDifference         int     `json:"year_difference" yaml:"year_difference" mapstructure:"year_difference"`
	BuildingAreaPercentage float64 `json:"building_area_percentage" yaml:"building_area_percentage" mapstructure:"building_area_percentage"`
	LandAreaPercentage     float64 `json:"land_area_percentage" yaml:"land_area_percentage" mapstructure:"land_area_percentage"`
	CDUDifference          float64 `json:"cdu_difference" yaml:"cdu_difference" mapstructure:"cdu_difference"`
}

// Validate rejects negative tolerances.
func (t ToleranceParams) Validate() error {
	if t.YearDifference < 0 || t.BuildingAreaPercentage < 0 || t.LandAreaPercentage < 0 || t.CDUDifference < 0 {
		return ErrInvalidTolerance
	}
	return nil
}

// DefaultToleranceLadder returns the standard ladder, narrowest first.
func DefaultToleranceLadder() []ToleranceParams {
	return []ToleranceParams{
		{YearDifference: 3, BuildingAreaPercentage: 10, LandAreaPercentage: 10, CDUDifference: 0.1},
		// wider year range
		{YearDifference: 6, BuildingAreaPercentage: 10, LandAreaPercentage: 10, CDUDifference: 0.1},
		// wider year and cdu range
		{YearDifference: 6, BuildingAreaPercentage: 10, LandAreaPercentage: 10, CDUDifference: 0.2},
		// wider year, cdu, land and building area range
		{YearDifference: 6, BuildingAreaPercentage: 20, LandAreaPercentage: 20, CDUDifference: 0.2},
	}
}

// IntRange is an inclusive integer interval. A nil Max is unbounded above.
type IntRange struct {
	Min int  `json:"min"`
	Max *int `json:"max"`
}

// Contains reports whether v lies inside the interval.
func (r IntRange) Contains(v int) bool {
	if v < r.Min {
		return false
	}
	return r.Max == nil || v <= *r.Max
}

// Unbounded reports whether the interval has no upper bound.
func (r IntRange) Unbounded() bool {
	return r.Max == nil
}

// FloatRange is an inclusive decimal interval. A nil Max is unbounded above.
type FloatRange struct {
	Min float64  `json:"min"`
	Max *float64 `json:"max"`
}

// Contains reports whether v lies inside the interval.
func (r FloatRange) Contains(v float64) bool {
	if v < r.Min {
		return false
	}
	return r.Max == nil || v <= *r.Max
}

// Unbounded reports whether the interval has no upper bound.
func (r FloatRange) Unbounded() bool {
	return r.Max == nil
}

// RangeSet holds the matching intervals computed for one subject and one
// ladder rung.
type RangeSet struct {
	YearRange         IntRange   `json:"year_range"`
	BuildingAreaRange FloatRange `json:"building_area_range"`
	LandAreaRange     FloatRange `json:"land_area_range"`
	CDURange          FloatRange `json:"cdu_range"`
}

// ComparableQuery is the store-level filter for one search attempt.
type ComparableQuery struct {
	NeighborhoodCode     string
	Grade                string
	ExcludeAccountNumber string
	Ranges               RangeSet
}

// Matches reports whether p satisfies the query's equality and range
// predicates. Candidates missing a ranged attribute never match.
func (q ComparableQuery) Matches(p *Property) bool {
	if p == nil || p.AccountNumber == q.ExcludeAccountNumber {
		return false
	}
	if p.NeighborhoodCode != q.NeighborhoodCode || p.Grade != q.Grade {
		return false
	}
	if p.YearBuilt == nil || !q.Ranges.YearRange.Contains(*p.YearBuilt) {
		return false
	}
	if p.BuildingArea == nil || !q.Ranges.BuildingAreaRange.Contains(*p.BuildingArea) {
		return false
	}
	if p.LandArea == nil || !q.Ranges.LandAreaRange.Contains(*p.LandArea) {
		return false
	}
	return p.CDU != nil && q.Ranges.CDURange.Contains(*p.CDU)
}
