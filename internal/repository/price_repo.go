package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rentalhub/pricing-api/internal/models"
)

// PriceRepository persists price rows. A price is uniquely addressed by
// (price_definition_id, season_id-or-null, units, time_measurement); the
// import engine relies on FindByKey/Create/UpdateAmount to upsert against
// that key.
type PriceRepository struct {
	db *sqlx.DB
}

// NewPriceRepository creates a new PriceRepository
func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// FindByKey returns the price row addressed by the uniqueness key, or
// (nil, nil) when none exists. A nil seasonID addresses the non-seasonal
// row, which is distinct from every seasonal one.
func (r *PriceRepository) FindByKey(ctx context.Context, priceDefinitionID int64, seasonID *int64, units, timeMeasurement int) (*models.Price, error) {
	query := `SELECT id, price_definition_id, season_id, units, time_measurement, price
	          FROM prices
	          WHERE price_definition_id = $1 AND units = $2 AND time_measurement = $3`

	args := []interface{}{priceDefinitionID, units, timeMeasurement}
	if seasonID != nil {
		query += ` AND season_id = $4`
		args = append(args, *seasonID)
	} else {
		query += ` AND season_id IS NULL`
	}

	var p models.Price
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.PriceDefinitionID, &p.SeasonID, &p.Units, &p.TimeMeasurement, &p.Price,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new price row and fills in its generated id.
func (r *PriceRepository) Create(ctx context.Context, p *models.Price) error {
	query := `INSERT INTO prices (price_definition_id, season_id, units, time_measurement, price)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	var seasonID sql.NullInt64
	if p.SeasonID != nil {
		seasonID = sql.NullInt64{Int64: *p.SeasonID, Valid: true}
	}
	return r.db.QueryRowContext(ctx, query,
		p.PriceDefinitionID, seasonID, p.Units, p.TimeMeasurement, p.Price,
	).Scan(&p.ID)
}

// UpdateAmount overwrites the price value of an existing row.
func (r *PriceRepository) UpdateAmount(ctx context.Context, id int64, price decimal.Decimal) error {
	query := `UPDATE prices SET price = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, price, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UnitPrice is one priced duration for the grid: the duration count and its
// price.
type UnitPrice struct {
	Units int
	Price decimal.Decimal
}

// GetUnitPrices returns the priced durations of one price definition for a
// time measurement code. When seasonID is set only that season's rows are
// returned; when nonSeasonal is set only rows without a season are returned;
// otherwise rows of every season are included.
func (r *PriceRepository) GetUnitPrices(ctx context.Context, priceDefinitionID int64, timeMeasurement int, seasonID *int64, nonSeasonal bool) ([]UnitPrice, error) {
	query := `SELECT units, price
	          FROM prices
	          WHERE price_definition_id = $1 AND time_measurement = $2`

	args := []interface{}{priceDefinitionID, timeMeasurement}
	switch {
	case seasonID != nil:
		query += ` AND season_id = $3`
		args = append(args, *seasonID)
	case nonSeasonal:
		query += ` AND season_id IS NULL`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []UnitPrice
	for rows.Next() {
		var up UnitPrice
		if err := rows.Scan(&up.Units, &up.Price); err != nil {
			return nil, err
		}
		prices = append(prices, up)
	}
	return prices, rows.Err()
}
