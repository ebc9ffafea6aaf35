// Package models defines the data structures for the property valuation engine.
package models

import (
	"regexp"
	"strings"
)

// AccountNumberLength is the width of a normalized appraisal account number.
const AccountNumberLength = 13

// Property represents one appraisal record. Optional attributes are pointers;
// nil means the dataset carried no usable value for that field.
type Property struct {
	AccountNumber       string   `json:"account_number" db:"account_number"`
	StreetAddress       string   `json:"street_address" db:"street_address"`
	City                string   `json:"city" db:"city"`
	ZipCode             string   `json:"zip_code" db:"zip_code"`
	NeighborhoodCode    string   `json:"neighborhood_code" db:"neighborhood_code"`
	MarketArea          string   `json:"market_area" db:"market_area"`
	MarketDescription   string   `json:"market_description" db:"market_description"`
	Grade               string   `json:"grade" db:"grade"`
	YearBuilt           *int     `json:"year_built" db:"year_built"`
	BuildingArea        *float64 `json:"building_area" db:"building_area"`
	LandArea            *float64 `json:"land_area" db:"land_area"`
	Acreage             *float64 `json:"acreage" db:"acreage"`
	CDU                 *float64 `json:"cdu" db:"cdu"`
	LandValue           *float64 `json:"land_value" db:"land_value"`
	BuildingValue       *float64 `json:"building_value" db:"building_value"`
	ExtraFeaturesValue  *float64 `json:"extra_features_value" db:"extra_features_value"`
	TotalAppraisedValue *float64 `json:"total_appraised_value" db:"total_appraised_value"`
	TotalMarketValue    *float64 `json:"total_market_value" db:"total_market_value"`
}

// PropertySummary is a lightweight view used by address search results.
type PropertySummary struct {
	AccountNumber    string   `json:"account_number"`
	StreetAddress    string   `json:"street_address"`
	City             string   `json:"city"`
	ZipCode          string   `json:"zip_code"`
	NeighborhoodCode string   `json:"neighborhood_code"`
	Grade            string   `json:"grade"`
	TotalMarketValue *float64 `json:"total_market_value"`
}

// ToSummary converts a Property to PropertySummary.
func (p *Property) ToSummary() PropertySummary {
	return PropertySummary{
		AccountNumber:    p.AccountNumber,
		StreetAddress:    p.StreetAddress,
		City:             p.City,
		ZipCode:          p.ZipCode,
		NeighborhoodCode: p.NeighborhoodCode,
		Grade:            p.Grade,
		TotalMarketValue: p.TotalMarketValue,
	}
}

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	digitsPattern     = regexp.MustCompile(`^[0-9]+$`)
)

// NormalizeAccountNumber strips whitespace and left-pads numeric account
// numbers with zeros to AccountNumberLength.
func NormalizeAccountNumber(account string) (string, error) {
	normalized := whitespacePattern.ReplaceAllString(strings.TrimSpace(account), "")
	if normalized == "" {
		return "", ErrInvalidAccountNumber
	}

	if digitsPattern.MatchString(normalized) && len(normalized) < AccountNumberLength {
		normalized = strings.Repeat("0", AccountNumberLength-len(normalized)) + normalized
	}

	return normalized, nil
}

// Float64 returns a pointer to v. Handy when building records by hand.
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
