package comparables_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/services/comparables"
)

// fakeStore filters an in-memory property list with ComparableQuery.Matches.
type fakeStore struct {
	mu         sync.Mutex
	properties []*models.Property
	queries    []models.ComparableQuery
	err        error
	delay      time.Duration
}

func (f *fakeStore) QueryComparables(ctx context.Context, q models.ComparableQuery) ([]*models.Property, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	var out []*models.Property
	for _, p := range f.properties {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func subjectProperty() *models.Property {
	return &models.Property{
		AccountNumber:    "0000000000001",
		NeighborhoodCode: "N1",
		Grade:            "B",
		YearBuilt:        models.Int(2000),
		BuildingArea:     models.Float64(2000),
		LandArea:         models.Float64(5000),
		CDU:              models.Float64(0.8),
	}
}

func comparable(n, year int, area, cdu float64) *models.Property {
	return &models.Property{
		AccountNumber:    fmt.Sprintf("%013d", 100+n),
		NeighborhoodCode: "N1",
		Grade:            "B",
		YearBuilt:        models.Int(year),
		BuildingArea:     models.Float64(area),
		LandArea:         models.Float64(5000),
		CDU:              models.Float64(cdu),
	}
}

func newSearcher(t *testing.T, store comparables.Store, opts ...comparables.Option) *comparables.Searcher {
	t.Helper()
	s, err := comparables.NewSearcher(store, models.DefaultToleranceLadder(), opts...)
	require.NoError(t, err)
	return s
}

func TestFindComparables_InitialLevel(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 6; i++ {
		store.properties = append(store.properties, comparable(i, 2001, 2050, 0.8))
	}

	result, err := newSearcher(t, store).FindComparables(context.Background(), subjectProperty())
	require.NoError(t, err)

	assert.Equal(t, models.ExpansionLevelInitial, result.ExpansionLevel)
	assert.Len(t, result.Comparables, 6)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1997, result.RangesUsed.YearRange.Min)
	assert.Len(t, store.queries, 1)
}

func TestFindComparables_StopsAtFirstSufficientRung(t *testing.T) {
	store := &fakeStore{}
	// three inside the initial year window, two more only after widening
	for i := 0; i < 3; i++ {
		store.properties = append(store.properties, comparable(i, 2002, 2000, 0.8))
	}
	store.properties = append(store.properties,
		comparable(3, 1995, 2000, 0.8),
		comparable(4, 2005, 2000, 0.8),
	)

	result, err := newSearcher(t, store).FindComparables(context.Background(), subjectProperty())
	require.NoError(t, err)

	assert.Equal(t, "expansion_1", result.ExpansionLevel)
	assert.Len(t, result.Comparables, 5)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 1994, result.RangesUsed.YearRange.Min)
	assert.Equal(t, 2006, *result.RangesUsed.YearRange.Max)
}

func TestFindComparables_WidensAreaOnLastRung(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 5; i++ {
		store.properties = append(store.properties, comparable(i, 2000, 2350, 0.8))
	}

	result, err := newSearcher(t, store).FindComparables(context.Background(), subjectProperty())
	require.NoError(t, err)

	assert.Equal(t, "expansion_3", result.ExpansionLevel)
	assert.Equal(t, 4, result.Attempts)
	assert.Len(t, store.queries, 4)
}

func TestFindComparables_FinalExpansionReturnsPartialResult(t *testing.T) {
	store := &fakeStore{properties: []*models.Property{
		comparable(0, 2000, 2000, 0.8),
		comparable(1, 2001, 2100, 0.75),
		comparable(2, 1999, 1900, 0.85),
	}}

	result, err := newSearcher(t, store).FindComparables(context.Background(), subjectProperty())
	require.NoError(t, err)

	assert.Equal(t, models.ExpansionLevelFinal, result.ExpansionLevel)
	assert.Len(t, result.Comparables, 3)
	assert.Equal(t, 4, result.Attempts)
	assert.InDelta(t, 1600, result.RangesUsed.BuildingAreaRange.Min, 1e-9)
}

func TestFindComparables_NoneFound(t *testing.T) {
	store := &fakeStore{properties: []*models.Property{
		comparable(0, 1950, 2000, 0.8),
	}}

	result, err := newSearcher(t, store).FindComparables(context.Background(), subjectProperty())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrNoComparablesFound)
	assert.Len(t, store.queries, 4)
}

func TestFindComparables_NilSubject(t *testing.T) {
	store := &fakeStore{}

	result, err := newSearcher(t, store).FindComparables(context.Background(), nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrSubjectNotFound)
	assert.Empty(t, store.queries)
}

func TestFindComparables_ExcludesSubjectAndFiltersByEquality(t *testing.T) {
	subject := subjectProperty()
	other := comparable(0, 2000, 2000, 0.8)
	other.Grade = "A"
	store := &fakeStore{properties: []*models.Property{subject, other}}

	_, err := newSearcher(t, store).FindComparables(context.Background(), subject)
	assert.ErrorIs(t, err, models.ErrNoComparablesFound)

	for _, q := range store.queries {
		assert.Equal(t, subject.AccountNumber, q.ExcludeAccountNumber)
		assert.Equal(t, "N1", q.NeighborhoodCode)
		assert.Equal(t, "B", q.Grade)
	}
}

func TestFindComparables_StoreErrorAborts(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}

	result, err := newSearcher(t, store).FindComparables(context.Background(), subjectProperty())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Len(t, store.queries, 1)
}

func TestFindComparables_QueryTimeout(t *testing.T) {
	store := &fakeStore{delay: time.Second}

	s := newSearcher(t, store, comparables.WithQueryTimeout(10*time.Millisecond))
	_, err := s.FindComparables(context.Background(), subjectProperty())

	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Len(t, store.queries, 1)
}

func TestFindComparables_Idempotent(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 7; i++ {
		store.properties = append(store.properties, comparable(i, 2000+i%3, 2000, 0.8))
	}
	s := newSearcher(t, store)

	first, err := s.FindComparables(context.Background(), subjectProperty())
	require.NoError(t, err)
	second, err := s.FindComparables(context.Background(), subjectProperty())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFindComparables_CustomLadderAndMinimum(t *testing.T) {
	store := &fakeStore{properties: []*models.Property{
		comparable(0, 2010, 2000, 0.8),
		comparable(1, 2010, 2000, 0.8),
	}}
	ladder := []models.ToleranceParams{
		{YearDifference: 1},
		{YearDifference: 20, BuildingAreaPercentage: 50, LandAreaPercentage: 50, CDUDifference: 0.5},
	}

	s, err := comparables.NewSearcher(store, ladder, comparables.WithMinComparables(2))
	require.NoError(t, err)

	result, err := s.FindComparables(context.Background(), subjectProperty())
	require.NoError(t, err)
	assert.Equal(t, "expansion_1", result.ExpansionLevel)
	assert.Len(t, result.Comparables, 2)
}

func TestNewSearcher_Validation(t *testing.T) {
	store := &fakeStore{}

	_, err := comparables.NewSearcher(store, nil)
	assert.ErrorIs(t, err, models.ErrEmptyToleranceLadder)

	_, err = comparables.NewSearcher(store, []models.ToleranceParams{{LandAreaPercentage: -5}})
	assert.ErrorIs(t, err, models.ErrInvalidTolerance)

	_, err = comparables.NewSearcher(store, models.DefaultToleranceLadder(), comparables.WithMinComparables(0))
	assert.ErrorIs(t, err, models.ErrInvalidMinimum)
}

func TestSearcher_LadderIsCopied(t *testing.T) {
	ladder := models.DefaultToleranceLadder()
	s, err := comparables.NewSearcher(&fakeStore{}, ladder)
	require.NoError(t, err)

	ladder[0].YearDifference = 99
	assert.Equal(t, 3, s.Ladder()[0].YearDifference)
}
