// Package valuation derives an estimated value for a subject property from
// its comparables.
package valuation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/utils"
)

// DefaultSelectionSize is how many of the cheapest comparables are kept.
const DefaultSelectionSize = 5

// Engine computes valuations. The zero value is not usable; use NewEngine.
type Engine struct {
	selectionSize int
}

// NewEngine creates an engine that keeps the selectionSize lowest
// price-per-sqft comparables. Non-positive sizes fall back to the default.
func NewEngine(selectionSize int) *Engine {
	if selectionSize <= 0 {
		selectionSize = DefaultSelectionSize
	}
	return &Engine{selectionSize: selectionSize}
}

// adjusted is one successfully processed comparable, still in decimal form.
type adjusted struct {
	calc         models.ComparableCalculation
	pricePerSqft decimal.Decimal
}

// ComputeValue adjusts every comparable, keeps the cheapest by price per
// sqft, and values the subject at their median. Comparables that cannot be
// adjusted are skipped. If none survive, models.ErrNoValidComparables is
// returned.
func (e *Engine) ComputeValue(subject *models.Property, comparables []*models.Property) (*models.ValuationResult, error) {
	if subject == nil || len(comparables) == 0 {
		return nil, models.ErrNoValidComparables
	}

	logger := utils.GetLogger().With(zap.String("account_number", subject.AccountNumber))

	results := make([]adjusted, 0, len(comparables))
	skipped := 0
	for _, comp := range comparables {
		a, err := adjustComparable(subject, comp)
		if err != nil {
			skipped++
			logger.Warn("Skipping comparable", zap.Error(err))
			continue
		}
		results = append(results, a)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %d comparables skipped", models.ErrNoValidComparables, skipped)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if c := results[i].pricePerSqft.Cmp(results[j].pricePerSqft); c != 0 {
			return c < 0
		}
		return results[i].calc.AccountNumber < results[j].calc.AccountNumber
	})

	selected := results[:min(e.selectionSize, len(results))]
	median := selected[len(selected)/2].pricePerSqft

	buildingArea, landValue, extraFeatures, err := subjectInputs(subject)
	if err != nil {
		return nil, err
	}

	buildingValue := median.Mul(buildingArea)
	finalValue := buildingValue.Add(landValue).Add(extraFeatures)

	calcs := make([]models.ComparableCalculation, len(selected))
	for i, a := range selected {
		calcs[i] = a.calc
	}

	return &models.ValuationResult{
		SelectedComparables: calcs,
		MedianPricePerSqft:  median.InexactFloat64(),
		FinalAdjustedValue:  finalValue.InexactFloat64(),
		ValueBreakdown: models.ValueBreakdown{
			BuildingValue:      buildingValue.InexactFloat64(),
			LandValue:          landValue.InexactFloat64(),
			ExtraFeaturesValue: extraFeatures.InexactFloat64(),
		},
		SkippedComparables: skipped,
	}, nil
}

// adjustComparable applies the extra-features, condition and area steps to
// one comparable.
func adjustComparable(subject, comp *models.Property) (adjusted, error) {
	if comp == nil {
		return adjusted{}, &models.ComparableError{Reason: "nil record"}
	}
	fail := func(reason string) (adjusted, error) {
		return adjusted{}, &models.ComparableError{AccountNumber: comp.AccountNumber, Reason: reason}
	}

	if comp.BuildingValue == nil {
		return fail("missing building value")
	}
	if subject.CDU == nil || *subject.CDU == 0 {
		return fail("subject cdu missing or zero")
	}
	if comp.CDU == nil {
		return fail("missing cdu")
	}
	if comp.BuildingArea == nil {
		return fail("missing building area")
	}

	buildingValue := decimal.NewFromFloat(*comp.BuildingValue)
	extraFeatures := decimal.Zero
	if comp.ExtraFeaturesValue != nil {
		extraFeatures = decimal.NewFromFloat(*comp.ExtraFeaturesValue)
	}
	subjectCDU := decimal.NewFromFloat(*subject.CDU)
	compCDU := nonZeroOrOne(*comp.CDU)
	area := nonZeroOrOne(*comp.BuildingArea)

	adjustedValue := buildingValue.Sub(extraFeatures)
	factor := subjectCDU.Div(compCDU)
	cduAdjusted := adjustedValue.Mul(factor)
	pricePerSqft := cduAdjusted.Div(area)

	return adjusted{
		calc: models.ComparableCalculation{
			AccountNumber:         comp.AccountNumber,
			StreetAddress:         comp.StreetAddress,
			OriginalValue:         buildingValue.InexactFloat64(),
			AdjustedBuildingValue: adjustedValue.InexactFloat64(),
			CDUFactor:             factor.InexactFloat64(),
			CDUAdjustedValue:      cduAdjusted.InexactFloat64(),
			PricePerSqft:          pricePerSqft.InexactFloat64(),
		},
		pricePerSqft: pricePerSqft,
	}, nil
}

// subjectInputs returns the subject fields the final value is built from.
// None of them are defaulted.
func subjectInputs(subject *models.Property) (area, land, extra decimal.Decimal, err error) {
	var missing []string
	if subject.BuildingArea == nil {
		missing = append(missing, "building_area")
	}
	if subject.LandValue == nil {
		missing = append(missing, "land_value")
	}
	if subject.ExtraFeaturesValue == nil {
		missing = append(missing, "extra_features_value")
	}
	if len(missing) > 0 {
		return area, land, extra, fmt.Errorf("%w: %v", models.ErrIncompleteSubject, missing)
	}

	return decimal.NewFromFloat(*subject.BuildingArea),
		decimal.NewFromFloat(*subject.LandValue),
		decimal.NewFromFloat(*subject.ExtraFeaturesValue),
		nil
}

// nonZeroOrOne converts v to a decimal, substituting 1 for exactly zero.
func nonZeroOrOne(v float64) decimal.Decimal {
	if v == 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(v)
}
