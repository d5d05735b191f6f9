package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/rentalhub/pricing-api/internal/models"
)

// CatalogRepository resolves the rental pricing reference hierarchy: rental
// locations, rate types, categories, season definitions, and seasons. All
// name/code lookups are case-sensitive exact matches against unique columns;
// a miss returns (nil, nil) so callers decide how to report it.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindRentalLocationByName returns the rental location with the given name.
func (r *CatalogRepository) FindRentalLocationByName(ctx context.Context, name string) (*models.RentalLocation, error) {
	query := `SELECT id, name FROM rental_locations WHERE name = $1`

	var rl models.RentalLocation
	err := r.db.QueryRowContext(ctx, query, name).Scan(&rl.ID, &rl.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rl, nil
}

// FindRateTypeByName returns the rate type with the given name.
func (r *CatalogRepository) FindRateTypeByName(ctx context.Context, name string) (*models.RateType, error) {
	query := `SELECT id, name FROM rate_types WHERE name = $1`

	var rt models.RateType
	err := r.db.QueryRowContext(ctx, query, name).Scan(&rt.ID, &rt.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// FindCategoryByCode returns the category with the given code.
func (r *CatalogRepository) FindCategoryByCode(ctx context.Context, code string) (*models.Category, error) {
	query := `SELECT id, code, name FROM categories WHERE code = $1`

	var c models.Category
	err := r.db.QueryRowContext(ctx, query, code).Scan(&c.ID, &c.Code, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindSeasonDefinitionByName returns the season definition with the given name.
func (r *CatalogRepository) FindSeasonDefinitionByName(ctx context.Context, name string) (*models.SeasonDefinition, error) {
	query := `SELECT id, name FROM season_definitions WHERE name = $1`

	var sd models.SeasonDefinition
	err := r.db.QueryRowContext(ctx, query, name).Scan(&sd.ID, &sd.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sd, nil
}

// FindSeasonByName returns the season with the given name inside one season
// definition. Season names are only unique per definition, so the lookup is
// always scoped.
func (r *CatalogRepository) FindSeasonByName(ctx context.Context, name string, seasonDefinitionID int64) (*models.Season, error) {
	query := `SELECT id, name, season_definition_id FROM seasons WHERE name = $1 AND season_definition_id = $2`

	var s models.Season
	err := r.db.QueryRowContext(ctx, query, name, seasonDefinitionID).Scan(&s.ID, &s.Name, &s.SeasonDefinitionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetRentalLocations returns all rental locations that participate in at
// least one pricing combination, ordered by name.
func (r *CatalogRepository) GetRentalLocations(ctx context.Context) ([]models.RentalLocation, error) {
	query := `SELECT DISTINCT rl.id, rl.name
	          FROM rental_locations rl
	          JOIN category_rental_location_rate_types crlrt ON rl.id = crlrt.rental_location_id
	          ORDER BY rl.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []models.RentalLocation
	for rows.Next() {
		var rl models.RentalLocation
		if err := rows.Scan(&rl.ID, &rl.Name); err != nil {
			return nil, err
		}
		locations = append(locations, rl)
	}
	return locations, rows.Err()
}

// GetRateTypesByRentalLocation returns the rate types priced at a rental
// location, ordered by name.
func (r *CatalogRepository) GetRateTypesByRentalLocation(ctx context.Context, rentalLocationID int64) ([]models.RateType, error) {
	query := `SELECT DISTINCT rt.id, rt.name
	          FROM rate_types rt
	          JOIN category_rental_location_rate_types crlrt ON rt.id = crlrt.rate_type_id
	          WHERE crlrt.rental_location_id = $1
	          ORDER BY rt.name`

	rows, err := r.db.QueryContext(ctx, query, rentalLocationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rateTypes []models.RateType
	for rows.Next() {
		var rt models.RateType
		if err := rows.Scan(&rt.ID, &rt.Name); err != nil {
			return nil, err
		}
		rateTypes = append(rateTypes, rt)
	}
	return rateTypes, rows.Err()
}

// GetSeasonDefinitions returns the season definitions that scope at least one
// price definition for the given rental location and rate type.
func (r *CatalogRepository) GetSeasonDefinitions(ctx context.Context, rentalLocationID, rateTypeID int64) ([]models.SeasonDefinition, error) {
	query := `SELECT DISTINCT sd.id, sd.name
	          FROM season_definitions sd
	          JOIN season_definition_rental_locations sdrl ON sd.id = sdrl.season_definition_id
	          JOIN price_definitions pd ON sd.id = pd.season_definition_id
	          JOIN category_rental_location_rate_types crlrt ON pd.id = crlrt.price_definition_id
	          WHERE crlrt.rental_location_id = $1 AND crlrt.rate_type_id = $2
	          ORDER BY sd.name`

	rows, err := r.db.QueryContext(ctx, query, rentalLocationID, rateTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var definitions []models.SeasonDefinition
	for rows.Next() {
		var sd models.SeasonDefinition
		if err := rows.Scan(&sd.ID, &sd.Name); err != nil {
			return nil, err
		}
		definitions = append(definitions, sd)
	}
	return definitions, rows.Err()
}

// GetSeasonsByDefinition returns the seasons of one season definition,
// ordered by name.
func (r *CatalogRepository) GetSeasonsByDefinition(ctx context.Context, seasonDefinitionID int64) ([]models.Season, error) {
	query := `SELECT id, name, season_definition_id
	          FROM seasons
	          WHERE season_definition_id = $1
	          ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, seasonDefinitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []models.Season
	for rows.Next() {
		var s models.Season
		if err := rows.Scan(&s.ID, &s.Name, &s.SeasonDefinitionID); err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}
