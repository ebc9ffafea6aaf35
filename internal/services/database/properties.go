package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"property-valuation-engine/internal/models"
)

// PropertyRepository reads property records from PostgreSQL.
type PropertyRepository struct {
	db *DB
}

// NewPropertyRepository creates a new property repository.
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// GetProperty retrieves a property by its account number.
func (r *PropertyRepository) GetProperty(ctx context.Context, accountNumber string) (*models.Property, error) {
	query := "SELECT " + propertyColumns + " FROM properties WHERE account_number = $1"

	property, err := scanProperty(r.db.QueryRowContext(ctx, query, accountNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get property")
	}

	return property, nil
}

// QueryComparables returns every property matching the query's equality
// and range predicates. Order is unspecified.
func (r *PropertyRepository) QueryComparables(ctx context.Context, q models.ComparableQuery) ([]*models.Property, error) {
	sql, args := buildComparableQuery(q, dollarPlaceholder)

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query comparables")
	}
	return collectProperties(rows, "postgres: scan comparable")
}

// SearchByAddress finds properties whose street address contains query.
func (r *PropertyRepository) SearchByAddress(ctx context.Context, query string, limit int) ([]*models.Property, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.ErrEmptySearchQuery
	}

	sql, args := buildAddressQuery(query, limit, dollarPlaceholder)
	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search by address")
	}
	return collectProperties(rows, "postgres: scan search result")
}

// HealthCheck verifies database connectivity.
func (r *PropertyRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// Close closes the underlying pool.
func (r *PropertyRepository) Close() {
	r.db.Close()
}

func collectProperties(rows pgx.Rows, scanMsg string) ([]*models.Property, error) {
	defer rows.Close()

	properties := make([]*models.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, eris.Wrap(err, scanMsg)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, scanMsg)
	}

	return properties, nil
}
