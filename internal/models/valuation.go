package models

import (
	"fmt"
	"time"
)

// ComparableCalculation holds the per-comparable adjustment steps.
type ComparableCalculation struct {
	AccountNumber         string  `json:"account_number"`
	StreetAddress         string  `json:"street_address"`
	OriginalValue         float64 `json:"original_value"`
	AdjustedBuildingValue float64 `json:"adjusted_building_value"`
	CDUFactor             float64 `json:"cdu_factor"`
	CDUAdjustedValue      float64 `json:"cdu_adjusted_value"`
	PricePerSqft          float64 `json:"price_per_sqft"`
}

// ValueBreakdown splits the final value into its components.
type ValueBreakdown struct {
	BuildingValue      float64 `json:"building_value"`
	LandValue          float64 `json:"land_value"`
	ExtraFeaturesValue float64 `json:"extra_features_value"`
}

// ValuationResult is the output of the valuation engine.
type ValuationResult struct {
	SelectedComparables []ComparableCalculation `json:"lowest_five_comps"`
	MedianPricePerSqft  float64                 `json:"median_price_per_sqft"`
	FinalAdjustedValue  float64                 `json:"final_adjusted_value"`
	ValueBreakdown      ValueBreakdown          `json:"value_breakdown"`
	SkippedComparables  int                     `json:"skipped_comparables"`
}

// SearchResult is the outcome of a progressive comparable search.
type SearchResult struct {
	Comparables    []*Property `json:"comparables"`
	RangesUsed     RangeSet    `json:"ranges_used"`
	ExpansionLevel string      `json:"expansion_level"`
	Attempts       int         `json:"attempts"`
}

// PropertyAnalysis is the full response for one subject property.
type PropertyAnalysis struct {
	AnalysisID           string           `json:"analysis_id"`
	GeneratedAt          time.Time        `json:"generated_at"`
	ReferenceProperty    *Property        `json:"reference_property"`
	ComparableProperties []*Property      `json:"comparable_properties"`
	NumCompsFound        int              `json:"num_comps_found"`
	SearchExpansionLevel string           `json:"search_expansion_level"`
	RangesUsed           RangeSet         `json:"ranges_used"`
	ValueAnalysis        *ValuationResult `json:"value_analysis"`
}

// ComparableError records why a single comparable was excluded from
// valuation. It never escapes the valuation engine.
type ComparableError struct {
	AccountNumber string
	Reason        string
}

func (e *ComparableError) Error() string {
	return fmt.Sprintf("comparable %s: %s", e.AccountNumber, e.Reason)
}
