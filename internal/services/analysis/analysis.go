// Package analysis ties the property store, comparable search and valuation
// engine together into a single property analysis.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/services/comparables"
	"property-valuation-engine/internal/services/valuation"
	"property-valuation-engine/internal/utils"
)

// Store is the property capability the analysis needs.
type Store interface {
	comparables.Store
	GetProperty(ctx context.Context, accountNumber string) (*models.Property, error)
	SearchByAddress(ctx context.Context, query string, limit int) ([]*models.Property, error)
}

// Service produces property analyses.
type Service struct {
	store        Store
	searcher     *comparables.Searcher
	engine       *valuation.Engine
	queryTimeout time.Duration
	now          func() time.Time
}

// NewService creates an analysis service using the given search settings.
func NewService(store Store, search config.SearchConfig) (*Service, error) {
	if err := search.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search config: %w", err)
	}

	searcher, err := comparables.NewSearcher(store, search.ToleranceLadder,
		comparables.WithMinComparables(search.MinComparables),
		comparables.WithQueryTimeout(search.QueryTimeout),
	)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:        store,
		searcher:     searcher,
		engine:       valuation.NewEngine(search.SelectionSize),
		queryTimeout: search.QueryTimeout,
		now:          time.Now,
	}, nil
}

// Analyze looks up the subject, finds its comparables and values it.
func (s *Service) Analyze(ctx context.Context, accountNumber string) (*models.PropertyAnalysis, error) {
	subject, err := s.GetProperty(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	search, err := s.searcher.FindComparables(ctx, subject)
	if err != nil {
		return nil, err
	}

	value, err := s.engine.ComputeValue(subject, search.Comparables)
	if err != nil {
		utils.GetLogger().Warn("Valuation failed",
			zap.String("account_number", subject.AccountNumber),
			zap.Int("comparables", len(search.Comparables)),
			zap.Error(err),
		)
		return nil, err
	}

	analysis := &models.PropertyAnalysis{
		AnalysisID:           uuid.New().String(),
		GeneratedAt:          s.now().UTC(),
		ReferenceProperty:    subject,
		ComparableProperties: search.Comparables,
		NumCompsFound:        len(search.Comparables),
		SearchExpansionLevel: search.ExpansionLevel,
		RangesUsed:           search.RangesUsed,
		ValueAnalysis:        value,
	}

	utils.GetLogger().Info("Property analysis complete",
		zap.String("analysis_id", analysis.AnalysisID),
		zap.String("account_number", subject.AccountNumber),
		zap.String("expansion_level", search.ExpansionLevel),
		zap.Int("comparables", analysis.NumCompsFound),
		zap.Float64("final_adjusted_value", value.FinalAdjustedValue),
	)

	return analysis, nil
}

// GetProperty returns the normalized account's record or
// models.ErrSubjectNotFound.
func (s *Service) GetProperty(ctx context.Context, accountNumber string) (*models.Property, error) {
	account, err := models.NormalizeAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}

	lookupCtx, cancel := s.withBudget(ctx)
	defer cancel()

	subject, err := s.store.GetProperty(lookupCtx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrSubjectNotFound, account)
	}
	return subject, nil
}

// Ladder returns the tolerance ladder the service searches with.
func (s *Service) Ladder() []models.ToleranceParams {
	return s.searcher.Ladder()
}

// Ranges returns the range set for every ladder rung, narrowest first.
func (s *Service) Ranges(subject *models.Property) []models.RangeSet {
	ladder := s.searcher.Ladder()
	ranges := make([]models.RangeSet, len(ladder))
	for i, params := range ladder {
		ranges[i] = comparables.ComputeRanges(subject, params)
	}
	return ranges
}

// SearchByAddress finds properties by street address substring.
func (s *Service) SearchByAddress(ctx context.Context, query string, limit int) ([]*models.Property, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.ErrEmptySearchQuery
	}

	searchCtx, cancel := s.withBudget(ctx)
	defer cancel()

	properties, err := s.store.SearchByAddress(searchCtx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return properties, nil
}

func (s *Service) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return context.WithCancel(ctx)
}
