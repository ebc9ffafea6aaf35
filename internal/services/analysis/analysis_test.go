package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/services/analysis"
	"property-valuation-engine/internal/services/database"
)

const subjectAccount = "0000000000001"

func newSubject() *models.Property {
	return &models.Property{
		AccountNumber:      subjectAccount,
		StreetAddress:      "100 HEIGHTS BLVD",
		NeighborhoodCode:   "N1",
		Grade:              "B",
		YearBuilt:          models.Int(2000),
		BuildingArea:       models.Float64(2000),
		LandArea:           models.Float64(5000),
		CDU:                models.Float64(0.8),
		LandValue:          models.Float64(50000),
		ExtraFeaturesValue: models.Float64(10000),
	}
}

func newComp(n, year int, area, buildingValue float64) *models.Property {
	return &models.Property{
		AccountNumber:      fmt.Sprintf("%013d", 100+n),
		StreetAddress:      fmt.Sprintf("%d HEIGHTS BLVD", 200+n),
		NeighborhoodCode:   "N1",
		Grade:              "B",
		YearBuilt:          models.Int(year),
		BuildingArea:       models.Float64(area),
		LandArea:           models.Float64(5000),
		CDU:                models.Float64(0.8),
		BuildingValue:      models.Float64(buildingValue),
		ExtraFeaturesValue: models.Float64(0),
	}
}

func newService(t *testing.T, properties ...*models.Property) *analysis.Service {
	t.Helper()
	ctx := context.Background()

	store, err := database.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.UpsertProperties(ctx, properties))

	svc, err := analysis.NewService(store, config.DefaultSearchConfig())
	require.NoError(t, err)
	return svc
}

func TestAnalyze_InitialLevel(t *testing.T) {
	properties := []*models.Property{newSubject()}
	for i := 0; i < 6; i++ {
		properties = append(properties, newComp(i, 1998+i, 2000, 200000+float64(i)*10000))
	}
	svc := newService(t, properties...)

	result, err := svc.Analyze(context.Background(), subjectAccount)
	require.NoError(t, err)

	assert.Equal(t, models.ExpansionLevelInitial, result.SearchExpansionLevel)
	assert.Equal(t, 6, result.NumCompsFound)
	assert.Len(t, result.ComparableProperties, 6)
	assert.Equal(t, subjectAccount, result.ReferenceProperty.AccountNumber)

	value := result.ValueAnalysis
	require.Len(t, value.SelectedComparables, 5)
	assert.InDelta(t, 110.0, value.MedianPricePerSqft, 1e-9)
	assert.InDelta(t, 110.0*2000+50000+10000, value.FinalAdjustedValue, 1e-6)

	_, err = uuid.Parse(result.AnalysisID)
	assert.NoError(t, err)
	assert.False(t, result.GeneratedAt.IsZero())
}

func TestAnalyze_FinalExpansion(t *testing.T) {
	svc := newService(t,
		newSubject(),
		newComp(1, 2000, 2350, 235000),
		newComp(2, 2000, 2350, 258500),
		newComp(3, 2000, 2350, 282000),
	)

	result, err := svc.Analyze(context.Background(), subjectAccount)
	require.NoError(t, err)

	assert.Equal(t, models.ExpansionLevelFinal, result.SearchExpansionLevel)
	assert.Equal(t, 3, result.NumCompsFound)
	assert.InDelta(t, 110.0, result.ValueAnalysis.MedianPricePerSqft, 1e-9)
	require.NotNil(t, result.RangesUsed.BuildingAreaRange.Max)
	assert.InDelta(t, 2400, *result.RangesUsed.BuildingAreaRange.Max, 1e-9)
}

func TestAnalyze_NoComparables(t *testing.T) {
	svc := newService(t, newSubject(), newComp(1, 1960, 2000, 200000))

	result, err := svc.Analyze(context.Background(), subjectAccount)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrNoComparablesFound)
}

func TestAnalyze_ZeroAreaComparable(t *testing.T) {
	subject := newSubject()
	subject.BuildingArea = models.Float64(0)

	zeroArea := newComp(5, 2000, 0, 5000)
	svc := newService(t,
		subject,
		newComp(1, 2000, 2000, 200000),
		newComp(2, 2000, 2000, 210000),
		newComp(3, 2000, 2000, 220000),
		newComp(4, 2000, 2000, 230000),
		zeroArea,
	)

	result, err := svc.Analyze(context.Background(), subjectAccount)
	require.NoError(t, err)
	assert.Equal(t, 5, result.NumCompsFound)

	var found bool
	for _, calc := range result.ValueAnalysis.SelectedComparables {
		if calc.AccountNumber == zeroArea.AccountNumber {
			found = true
			assert.InDelta(t, 5000.0, calc.PricePerSqft, 1e-9)
		}
	}
	assert.True(t, found)
	assert.InDelta(t, 110.0, result.ValueAnalysis.MedianPricePerSqft, 1e-9)
	assert.InDelta(t, 60000.0, result.ValueAnalysis.FinalAdjustedValue, 1e-6)
}

func TestAnalyze_SubjectWithoutCDU(t *testing.T) {
	subject := newSubject()
	subject.CDU = nil

	properties := []*models.Property{subject}
	for i := 0; i < 5; i++ {
		properties = append(properties, newComp(i, 2000, 2000, 200000))
	}
	svc := newService(t, properties...)

	result, err := svc.Analyze(context.Background(), subjectAccount)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrNoValidComparables)
}

func TestAnalyze_NormalizesAccountNumber(t *testing.T) {
	properties := []*models.Property{newSubject()}
	for i := 0; i < 5; i++ {
		properties = append(properties, newComp(i, 2000, 2000, 200000))
	}
	svc := newService(t, properties...)

	result, err := svc.Analyze(context.Background(), " 1 ")
	require.NoError(t, err)
	assert.Equal(t, subjectAccount, result.ReferenceProperty.AccountNumber)
}

func TestAnalyze_SubjectErrors(t *testing.T) {
	svc := newService(t, newSubject())

	_, err := svc.Analyze(context.Background(), "404")
	assert.ErrorIs(t, err, models.ErrSubjectNotFound)

	_, err = svc.Analyze(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrInvalidAccountNumber)
}

// failingStore fails every call.
type failingStore struct{}

func (failingStore) GetProperty(context.Context, string) (*models.Property, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) QueryComparables(context.Context, models.ComparableQuery) ([]*models.Property, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) SearchByAddress(context.Context, string, int) ([]*models.Property, error) {
	return nil, errors.New("connection refused")
}

func TestAnalyze_StoreUnavailable(t *testing.T) {
	svc, err := analysis.NewService(failingStore{}, config.DefaultSearchConfig())
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), subjectAccount)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)

	_, err = svc.SearchByAddress(context.Background(), "heights", 10)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestSearchByAddress(t *testing.T) {
	svc := newService(t, newSubject(), newComp(1, 2000, 2000, 200000))

	results, err := svc.SearchByAddress(context.Background(), "heights", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = svc.SearchByAddress(context.Background(), " ", 10)
	assert.ErrorIs(t, err, models.ErrEmptySearchQuery)
}

func TestRanges(t *testing.T) {
	svc := newService(t)

	ranges := svc.Ranges(newSubject())
	require.Len(t, ranges, len(svc.Ladder()))
	assert.Equal(t, 1997, ranges[0].YearRange.Min)
	assert.Equal(t, 1994, ranges[len(ranges)-1].YearRange.Min)
}

func TestNewService_InvalidConfig(t *testing.T) {
	search := config.DefaultSearchConfig()
	search.ToleranceLadder = nil

	_, err := analysis.NewService(failingStore{}, search)
	assert.ErrorIs(t, err, models.ErrEmptyToleranceLadder)
}
