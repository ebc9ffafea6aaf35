package analysis

import (
	"context"
	"fmt"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/services/database"
)

// Open connects the configured property store and builds a service over it.
// The caller owns the returned store and must close it.
func Open(ctx context.Context, cfg *config.Config) (*Service, database.PropertyStore, error) {
	store, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open property store: %w", err)
	}

	svc, err := NewService(store, cfg.Search)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return svc, store, nil
}
