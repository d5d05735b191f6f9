package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/rentalhub/pricing-api/internal/models"
)

// PriceDefinitionRepository locates the price definition governing a
// (rental location, rate type, category, optional season definition)
// combination through the junction table.
type PriceDefinitionRepository struct {
	db *sqlx.DB
}

// NewPriceDefinitionRepository creates a new PriceDefinitionRepository
func NewPriceDefinitionRepository(db *sqlx.DB) *PriceDefinitionRepository {
	return &PriceDefinitionRepository{db: db}
}

const priceDefinitionColumns = `pd.id, pd.season_definition_id,
	pd.time_measurement_months, pd.time_measurement_days,
	pd.time_measurement_hours, pd.time_measurement_minutes,
	pd.units_management_value_days_list,
	pd.units_management_value_hours_list,
	pd.units_management_value_minutes_list`

// Locate returns the price definition for the combination, or (nil, nil)
// when none exists. A nil seasonDefinitionID matches only non-seasonal
// definitions. Junction data declaring several definitions for the same
// combination is a data error; the lowest definition id wins so the answer
// is at least deterministic.
func (r *PriceDefinitionRepository) Locate(ctx context.Context, rentalLocationID, rateTypeID, categoryID int64, seasonDefinitionID *int64) (*models.PriceDefinition, error) {
	query := `SELECT ` + priceDefinitionColumns + `
	          FROM price_definitions pd
	          JOIN category_rental_location_rate_types crlrt ON pd.id = crlrt.price_definition_id
	          WHERE crlrt.rental_location_id = $1
	            AND crlrt.rate_type_id = $2
	            AND crlrt.category_id = $3`

	args := []interface{}{rentalLocationID, rateTypeID, categoryID}
	if seasonDefinitionID != nil {
		query += ` AND pd.season_definition_id = $4`
		args = append(args, *seasonDefinitionID)
	} else {
		query += ` AND pd.season_definition_id IS NULL`
	}
	query += ` ORDER BY pd.id LIMIT 1`

	var pd models.PriceDefinition
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&pd.ID, &pd.SeasonDefinitionID,
		&pd.TimeMeasurementMonths, &pd.TimeMeasurementDays,
		&pd.TimeMeasurementHours, &pd.TimeMeasurementMinutes,
		&pd.UnitsValueDaysList, &pd.UnitsValueHoursList, &pd.UnitsValueMinutesList,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pd, nil
}

// CategoryDefinition pairs a category with the price definition governing it
// for one (rental location, rate type) pair. Used by the price grid.
type CategoryDefinition struct {
	CategoryID   int64
	CategoryCode string
	CategoryName string
	Definition   models.PriceDefinition
}

// GetCategoryDefinitions returns the categories priced under the given
// rental location and rate type together with their price definitions,
// ordered by category code. A nil seasonDefinitionID restricts the result
// to non-seasonal definitions.
func (r *PriceDefinitionRepository) GetCategoryDefinitions(ctx context.Context, rentalLocationID, rateTypeID int64, seasonDefinitionID *int64) ([]CategoryDefinition, error) {
	query := `SELECT DISTINCT c.id, c.code, c.name, ` + priceDefinitionColumns + `
	          FROM categories c
	          JOIN category_rental_location_rate_types crlrt ON c.id = crlrt.category_id
	          JOIN price_definitions pd ON crlrt.price_definition_id = pd.id
	          WHERE crlrt.rental_location_id = $1
	            AND crlrt.rate_type_id = $2`

	args := []interface{}{rentalLocationID, rateTypeID}
	if seasonDefinitionID != nil {
		query += ` AND pd.season_definition_id = $3`
		args = append(args, *seasonDefinitionID)
	} else {
		query += ` AND pd.season_definition_id IS NULL`
	}
	query += ` ORDER BY c.code`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryDefinition
	for rows.Next() {
		var cd CategoryDefinition
		if err := rows.Scan(
			&cd.CategoryID, &cd.CategoryCode, &cd.CategoryName,
			&cd.Definition.ID, &cd.Definition.SeasonDefinitionID,
			&cd.Definition.TimeMeasurementMonths, &cd.Definition.TimeMeasurementDays,
			&cd.Definition.TimeMeasurementHours, &cd.Definition.TimeMeasurementMinutes,
			&cd.Definition.UnitsValueDaysList, &cd.Definition.UnitsValueHoursList,
			&cd.Definition.UnitsValueMinutesList,
		); err != nil {
			return nil, err
		}
		result = append(result, cd)
	}
	return result, rows.Err()
}
