package database

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/utils"
)

// PropertyWriter is implemented by stores that can be seeded locally.
type PropertyWriter interface {
	UpsertProperties(ctx context.Context, properties []*models.Property) error
}

// SeedRecord is one loosely typed property record, keyed by the Property
// JSON field names. Numeric fields may be JSON numbers or strings such as
// "1,250.00"; unparseable values are stored as NULL.
type SeedRecord map[string]any

// ToProperty coerces the record into a Property.
func (r SeedRecord) ToProperty() (*models.Property, error) {
	account, err := models.NormalizeAccountNumber(r.text("account_number"))
	if err != nil {
		return nil, err
	}

	return &models.Property{
		AccountNumber:       account,
		StreetAddress:       r.text("street_address"),
		City:                r.text("city"),
		ZipCode:             r.text("zip_code"),
		NeighborhoodCode:    r.text("neighborhood_code"),
		MarketArea:          r.text("market_area"),
		MarketDescription:   r.text("market_description"),
		Grade:               r.text("grade"),
		YearBuilt:           utils.ParseOptionalInt(r["year_built"]),
		BuildingArea:        utils.ParseOptionalFloat(r["building_area"]),
		LandArea:            utils.ParseOptionalFloat(r["land_area"]),
		Acreage:             utils.ParseOptionalFloat(r["acreage"]),
		CDU:                 utils.ParseOptionalFloat(r["cdu"]),
		LandValue:           utils.ParseOptionalFloat(r["land_value"]),
		BuildingValue:       utils.ParseOptionalFloat(r["building_value"]),
		ExtraFeaturesValue:  utils.ParseOptionalFloat(r["extra_features_value"]),
		TotalAppraisedValue: utils.ParseOptionalFloat(r["total_appraised_value"]),
		TotalMarketValue:    utils.ParseOptionalFloat(r["total_market_value"]),
	}, nil
}

func (r SeedRecord) text(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// DecodeSeedRecords reads a JSON array of seed records.
func DecodeSeedRecords(r io.Reader) ([]*models.Property, error) {
	var records []SeedRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, eris.Wrap(err, "seed: decode records")
	}

	properties := make([]*models.Property, 0, len(records))
	for i, record := range records {
		p, err := record.ToProperty()
		if err != nil {
			return nil, eris.Wrapf(err, "seed: record %d", i)
		}
		properties = append(properties, p)
	}
	return properties, nil
}
