package comparables

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/utils"
)

// DefaultMinComparables is the match count at which widening stops.
const DefaultMinComparables = 5

// Store is the range-filtered query capability the search consumes.
type Store interface {
	QueryComparables(ctx context.Context, query models.ComparableQuery) ([]*models.Property, error)
}

// Searcher walks the tolerance ladder until enough comparables are found.
type Searcher struct {
	store          Store
	ladder         []models.ToleranceParams
	minComparables int
	queryTimeout   time.Duration
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithMinComparables overrides the stop threshold.
func WithMinComparables(n int) Option {
	return func(s *Searcher) {
		s.minComparables = n
	}
}

// WithQueryTimeout bounds each store query. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Searcher) {
		s.queryTimeout = d
	}
}

// NewSearcher creates a searcher over store using ladder, narrowest first.
// The ladder is copied; later changes by the caller have no effect.
func NewSearcher(store Store, ladder []models.ToleranceParams, opts ...Option) (*Searcher, error) {
	if len(ladder) == 0 {
		return nil, models.ErrEmptyToleranceLadder
	}
	for _, params := range ladder {
		if err := params.Validate(); err != nil {
			return nil, err
		}
	}

	s := &Searcher{
		store:          store,
		ladder:         append([]models.ToleranceParams(nil), ladder...),
		minComparables: DefaultMinComparables,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minComparables < 1 {
		return nil, models.ErrInvalidMinimum
	}

	return s, nil
}

// Ladder returns a copy of the configured tolerance ladder.
func (s *Searcher) Ladder() []models.ToleranceParams {
	return append([]models.ToleranceParams(nil), s.ladder...)
}

// FindComparables tries each ladder rung in order and returns the first
// attempt with at least the minimum number of matches. When the widest rung
// still falls short, its matches are returned as the final expansion. A
// store failure aborts the search with models.ErrStoreUnavailable. A nil
// subject yields models.ErrSubjectNotFound.
func (s *Searcher) FindComparables(ctx context.Context, subject *models.Property) (*models.SearchResult, error) {
	if subject == nil {
		return nil, models.ErrSubjectNotFound
	}

	logger := utils.GetLogger().With(zap.String("account_number", subject.AccountNumber))

	var (
		comps  []*models.Property
		ranges models.RangeSet
	)

	for i, params := range s.ladder {
		ranges = ComputeRanges(subject, params)

		var err error
		comps, err = s.query(ctx, subject, ranges)
		if err != nil {
			logger.Error("Comparable query failed",
				zap.String("expansion_level", models.ExpansionLevel(i)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
		}

		logger.Debug("Comparable search attempt",
			zap.String("expansion_level", models.ExpansionLevel(i)),
			zap.Any("ranges", ranges),
			zap.Int("matches", len(comps)),
		)

		if len(comps) >= s.minComparables {
			logger.Info("Comparable search complete",
				zap.String("expansion_level", models.ExpansionLevel(i)),
				zap.Int("matches", len(comps)),
			)
			return &models.SearchResult{
				Comparables:    comps,
				RangesUsed:     ranges,
				ExpansionLevel: models.ExpansionLevel(i),
				Attempts:       i + 1,
			}, nil
		}
	}

	if len(comps) == 0 {
		logger.Info("No comparables found at any tolerance", zap.Int("attempts", len(s.ladder)))
		return nil, models.ErrNoComparablesFound
	}

	logger.Info("Comparable search returned partial results",
		zap.String("expansion_level", models.ExpansionLevelFinal),
		zap.Int("matches", len(comps)),
	)

	return &models.SearchResult{
		Comparables:    comps,
		RangesUsed:     ranges,
		ExpansionLevel: models.ExpansionLevelFinal,
		Attempts:       len(s.ladder),
	}, nil
}

// query runs one range-filtered store query under the configured budget.
func (s *Searcher) query(ctx context.Context, subject *models.Property, ranges models.RangeSet) ([]*models.Property, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	return s.store.QueryComparables(ctx, models.ComparableQuery{
		NeighborhoodCode:     subject.NeighborhoodCode,
		Grade:                subject.Grade,
		ExcludeAccountNumber: subject.AccountNumber,
		Ranges:               ranges,
	})
}
