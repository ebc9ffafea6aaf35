package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation-engine/internal/models"
)

func TestExpansionLevel(t *testing.T) {
	assert.Equal(t, "initial", models.ExpansionLevel(0))
	assert.Equal(t, "expansion_1", models.ExpansionLevel(1))
	assert.Equal(t, "expansion_3", models.ExpansionLevel(3))
}

func TestDefaultToleranceLadder(t *testing.T) {
	ladder := models.DefaultToleranceLadder()
	require.Len(t, ladder, 4)

	assert.Equal(t, models.ToleranceParams{YearDifference: 3, BuildingAreaPercentage: 10, LandAreaPercentage: 10, CDUDifference: 0.1}, ladder[0])
	assert.Equal(t, models.ToleranceParams{YearDifference: 6, BuildingAreaPercentage: 20, LandAreaPercentage: 20, CDUDifference: 0.2}, ladder[3])

	for i := 1; i < len(ladder); i++ {
		assert.GreaterOrEqual(t, ladder[i].YearDifference, ladder[i-1].YearDifference)
		assert.GreaterOrEqual(t, ladder[i].BuildingAreaPercentage, ladder[i-1].BuildingAreaPercentage)
		assert.GreaterOrEqual(t, ladder[i].LandAreaPercentage, ladder[i-1].LandAreaPercentage)
		assert.GreaterOrEqual(t, ladder[i].CDUDifference, ladder[i-1].CDUDifference)
	}
}

func TestToleranceParams_Validate(t *testing.T) {
	assert.NoError(t, models.ToleranceParams{}.Validate())
	assert.ErrorIs(t, models.ToleranceParams{YearDifference: -1}.Validate(), models.ErrInvalidTolerance)
	assert.ErrorIs(t, models.ToleranceParams{CDUDifference: -0.1}.Validate(), models.ErrInvalidTolerance)
}

func TestRanges_Contains(t *testing.T) {
	years := models.IntRange{Min: 1997, Max: models.Int(2003)}
	assert.True(t, years.Contains(1997))
	assert.True(t, years.Contains(2003))
	assert.False(t, years.Contains(2004))
	assert.False(t, years.Unbounded())

	open := models.FloatRange{Min: 0}
	assert.True(t, open.Unbounded())
	assert.True(t, open.Contains(0))
	assert.True(t, open.Contains(1e12))
	assert.False(t, open.Contains(-1))
}

func TestRangeSet_JSONUnboundedIsNull(t *testing.T) {
	set := models.RangeSet{
		YearRange:         models.IntRange{Min: 0},
		BuildingAreaRange: models.FloatRange{Min: 1800, Max: models.Float64(2200)},
	}

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"year_range":{"min":0,"max":null}`)
	assert.Contains(t, string(data), `"building_area_range":{"min":1800,"max":2200}`)
}

func TestComparableQuery_Matches(t *testing.T) {
	q := models.ComparableQuery{
		NeighborhoodCode:     "N1",
		Grade:                "B",
		ExcludeAccountNumber: "0000000000001",
		Ranges: models.RangeSet{
			YearRange:         models.IntRange{Min: 1997, Max: models.Int(2003)},
			BuildingAreaRange: models.FloatRange{Min: 1800, Max: models.Float64(2200)},
			LandAreaRange:     models.FloatRange{Min: 0},
			CDURange:          models.FloatRange{Min: 0.7, Max: models.Float64(0.9)},
		},
	}

	candidate := func(mutate func(p *models.Property)) *models.Property {
		p := &models.Property{
			AccountNumber:    "0000000000002",
			NeighborhoodCode: "N1",
			Grade:            "B",
			YearBuilt:        models.Int(2000),
			BuildingArea:     models.Float64(2000),
			LandArea:         models.Float64(5000),
			CDU:              models.Float64(0.8),
		}
		if mutate != nil {
			mutate(p)
		}
		return p
	}

	tests := []struct {
		name     string
		property *models.Property
		expected bool
	}{
		{"inside every range", candidate(nil), true},
		{"subject excluded", candidate(func(p *models.Property) { p.AccountNumber = "0000000000001" }), false},
		{"other neighborhood", candidate(func(p *models.Property) { p.NeighborhoodCode = "N2" }), false},
		{"other grade", candidate(func(p *models.Property) { p.Grade = "A" }), false},
		{"too old", candidate(func(p *models.Property) { p.YearBuilt = models.Int(1990) }), false},
		{"too large", candidate(func(p *models.Property) { p.BuildingArea = models.Float64(2500) }), false},
		{"missing cdu", candidate(func(p *models.Property) { p.CDU = nil }), false},
		{"missing land area", candidate(func(p *models.Property) { p.LandArea = nil }), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, q.Matches(tt.property))
		})
	}
}
