package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"property-valuation-engine/internal/models"
)

// SQLiteRepository reads property records from a local SQLite file. It backs
// local development and the end-to-end tests.
type SQLiteRepository struct {
	db *sql.DB
}

// sqliteSchema bootstraps the properties table for a fresh local database.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS properties (
	account_number        TEXT PRIMARY KEY,
	street_address        TEXT,
	city                  TEXT,
	zip_code              TEXT,
	neighborhood_code     TEXT,
	market_area           TEXT,
	market_description    TEXT,
	year_built            INTEGER,
	building_area         REAL,
	land_area             REAL,
	acreage               REAL,
	land_value            REAL,
	building_value        REAL,
	extra_features_value  REAL,
	total_appraised_value REAL,
	total_market_value    REAL,
	cdu                   REAL,
	grade                 TEXT
);

CREATE INDEX IF NOT EXISTS idx_properties_neighborhood_grade
	ON properties (neighborhood_code, grade);
`

// NewSQLite opens the SQLite database at dsn and ensures the properties
// table exists. Use ":memory:" for a throwaway database.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: create schema")
	}

	return &SQLiteRepository{db: db}, nil
}

// GetProperty retrieves a property by its account number.
func (r *SQLiteRepository) GetProperty(ctx context.Context, accountNumber string) (*models.Property, error) {
	query := "SELECT " + propertyColumns + " FROM properties WHERE account_number = ?"

	property, err := scanProperty(r.db.QueryRowContext(ctx, query, accountNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get property")
	}
	return property, nil
}

// QueryComparables returns every property matching the query's equality
// and range predicates.
func (r *SQLiteRepository) QueryComparables(ctx context.Context, q models.ComparableQuery) ([]*models.Property, error) {
	query, args := buildComparableQuery(q, questionPlaceholder)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query comparables")
	}
	return collectSQLRows(rows, "sqlite: scan comparable")
}

// SearchByAddress finds properties whose street address contains query.
func (r *SQLiteRepository) SearchByAddress(ctx context.Context, query string, limit int) ([]*models.Property, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.ErrEmptySearchQuery
	}

	sqlText, args := buildAddressQuery(query, limit, questionPlaceholder)
	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search by address")
	}
	return collectSQLRows(rows, "sqlite: scan search result")
}

const sqliteUpsert = `INSERT INTO properties (
	account_number, street_address, city, zip_code, neighborhood_code,
	market_area, market_description, grade, year_built, building_area,
	land_area, acreage, cdu, land_value, building_value,
	extra_features_value, total_appraised_value, total_market_value
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (account_number) DO UPDATE SET
	street_address = excluded.street_address,
	city = excluded.city,
	zip_code = excluded.zip_code,
	neighborhood_code = excluded.neighborhood_code,
	market_area = excluded.market_area,
	market_description = excluded.market_description,
	grade = excluded.grade,
	year_built = excluded.year_built,
	building_area = excluded.building_area,
	land_area = excluded.land_area,
	acreage = excluded.acreage,
	cdu = excluded.cdu,
	land_value = excluded.land_value,
	building_value = excluded.building_value,
	extra_features_value = excluded.extra_features_value,
	total_appraised_value = excluded.total_appraised_value,
	total_market_value = excluded.total_market_value`

// UpsertProperties writes records in one transaction, replacing existing
// rows with the same account number.
func (r *SQLiteRepository) UpsertProperties(ctx context.Context, properties []*models.Property) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin upsert")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	for _, p := range properties {
		_, err := stmt.ExecContext(ctx,
			p.AccountNumber, p.StreetAddress, p.City, p.ZipCode, p.NeighborhoodCode,
			p.MarketArea, p.MarketDescription, p.Grade, p.YearBuilt, p.BuildingArea,
			p.LandArea, p.Acreage, p.CDU, p.LandValue, p.BuildingValue,
			p.ExtraFeaturesValue, p.TotalAppraisedValue, p.TotalMarketValue,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert %s", p.AccountNumber)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit upsert")
}

// HealthCheck verifies the database is reachable.
func (r *SQLiteRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database.
func (r *SQLiteRepository) Close() {
	_ = r.db.Close()
}

func collectSQLRows(rows *sql.Rows, scanMsg string) ([]*models.Property, error) {
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
