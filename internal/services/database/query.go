package database

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"property-valuation-engine/internal/models"
)

// propertyColumns is the select list shared by every property query. Text
// columns are coalesced so NULLs scan into plain strings.
const propertyColumns = `account_number,
	COALESCE(street_address, ''), COALESCE(city, ''), COALESCE(zip_code, ''),
	COALESCE(neighborhood_code, ''), COALESCE(market_area, ''), COALESCE(market_description, ''),
	COALESCE(grade, ''), year_built, building_area, land_area, acreage, cdu,
	land_value, building_value, extra_features_value, total_appraised_value, total_market_value`

// DefaultSearchLimit caps address search results.
const DefaultSearchLimit = 10

// placeholderFunc renders the n-th (1-based) bind parameter.
type placeholderFunc func(n int) string

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }

// queryBuilder accumulates WHERE conditions and their arguments.
type queryBuilder struct {
	placeholder placeholderFunc
	conditions  []string
	args        []any
}

func newQueryBuilder(placeholder placeholderFunc) *queryBuilder {
	return &queryBuilder{placeholder: placeholder}
}

func (qb *queryBuilder) addCondition(format, column string, arg any) {
	qb.args = append(qb.args, arg)
	qb.conditions = append(qb.conditions, fmt.Sprintf(format, column, qb.placeholder(len(qb.args))))
}

func (qb *queryBuilder) addIntRange(column string, r models.IntRange) {
	qb.addCondition("%s >= %s", column, r.Min)
	if r.Max != nil {
		qb.addCondition("%s <= %s", column, *r.Max)
	}
}

func (qb *queryBuilder) addFloatRange(column string, r models.FloatRange) {
	qb.addCondition("%s >= %s", column, r.Min)
	if r.Max != nil {
		qb.addCondition("%s <= %s", column, *r.Max)
	}
}

func (qb *queryBuilder) where() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(qb.conditions, " AND ")
}

// buildComparableQuery renders the comparable search for one range set.
// Bounds are inclusive; an unbounded range contributes only its lower bound,
// so candidates with a NULL attribute never match.
func buildComparableQuery(q models.ComparableQuery, placeholder placeholderFunc) (string, []any) {
	qb := newQueryBuilder(placeholder)
	qb.addCondition("%s = %s", "neighborhood_code", q.NeighborhoodCode)
	qb.addCondition("%s = %s", "grade", q.Grade)
	qb.addCondition("%s <> %s", "account_number", q.ExcludeAccountNumber)
	qb.addIntRange("year_built", q.Ranges.YearRange)
	qb.addFloatRange("building_area", q.Ranges.BuildingAreaRange)
	qb.addFloatRange("land_area", q.Ranges.LandAreaRange)
	qb.addFloatRange("cdu", q.Ranges.CDURange)

	return "SELECT " + propertyColumns + " FROM properties" + qb.where(), qb.args
}

// buildAddressQuery renders a case-insensitive street address search.
func buildAddressQuery(query string, limit int, placeholder placeholderFunc) (string, []any) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	sql := fmt.Sprintf("SELECT %s FROM properties WHERE UPPER(street_address) LIKE %s ORDER BY street_address LIMIT %s",
		propertyColumns, placeholder(1), placeholder(2))
	return sql, []any{AddressPattern(query), limit}
}

// AddressPattern upper-cases and trims query and wraps it for LIKE.
func AddressPattern(query string) string {
	upper := cases.Upper(language.Und).String(strings.TrimSpace(query))
	return "%" + upper + "%"
}

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProperty scans one row selected with propertyColumns.
func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.AccountNumber,
		&p.StreetAddress,
		&p.City,
		&p.ZipCode,
		&p.NeighborhoodCode,
		&p.MarketArea,
		&p.MarketDescription,
		&p.Grade,
		&p.YearBuilt,
		&p.BuildingArea,
		&p.LandArea,
		&p.Acreage,
		&p.CDU,
		&p.LandValue,
		&p.BuildingValue,
		&p.ExtraFeaturesValue,
		&p.TotalAppraisedValue,
		&p.TotalMarketValue,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
