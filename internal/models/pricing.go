package models

import "github.com/shopspring/decimal"

// TimeUnit identifies the time measurement a price definition operates in.
type TimeUnit string

const (
	UnitMonths  TimeUnit = "months"
	UnitDays    TimeUnit = "days"
	UnitHours   TimeUnit = "hours"
	UnitMinutes TimeUnit = "minutes"
)

// Time measurement codes stored on price rows.
const (
	TimeMeasurementMonths  = 1
	TimeMeasurementDays    = 2
	TimeMeasurementHours   = 3
	TimeMeasurementMinutes = 4
)

// RentalLocation represents a branch where vehicles are rented out.
type RentalLocation struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// RateType represents a pricing scheme (e.g. standard, premium).
type RateType struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Category represents a vehicle category identified by a short code.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// SeasonDefinition is a named grouping of seasons. Price definitions may be
// scoped to one; non-seasonal definitions have none.
type SeasonDefinition struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Season belongs to a season definition; its name is unique only within it.
type Season struct {
	ID                 int64  `json:"id" db:"id"`
	Name               string `json:"name" db:"name"`
	SeasonDefinitionID int64  `json:"seasonDefinitionId" db:"season_definition_id"`
}

// PriceDefinition binds a (location, rate type, category, optional season
// grouping) to a time unit and the duration values that unit allows.
// Exactly one of the four unit flags is expected to be set; days wins when
// none or several are.
type PriceDefinition struct {
	ID                 int64  `json:"id" db:"id"`
	SeasonDefinitionID *int64 `json:"seasonDefinitionId" db:"season_definition_id"`

	TimeMeasurementMonths  bool `json:"timeMeasurementMonths" db:"time_measurement_months"`
	TimeMeasurementDays    bool `json:"timeMeasurementDays" db:"time_measurement_days"`
	TimeMeasurementHours   bool `json:"timeMeasurementHours" db:"time_measurement_hours"`
	TimeMeasurementMinutes bool `json:"timeMeasurementMinutes" db:"time_measurement_minutes"`

	// Comma-separated ordered lists of allowed duration values per unit.
	// NULL means the default list "1". Months has no list column.
	UnitsValueDaysList    *string `json:"unitsValueDaysList" db:"units_management_value_days_list"`
	UnitsValueHoursList   *string `json:"unitsValueHoursList" db:"units_management_value_hours_list"`
	UnitsValueMinutesList *string `json:"unitsValueMinutesList" db:"units_management_value_minutes_list"`
}

// Price is a single priced duration cell. It is uniquely addressed by
// (price_definition_id, season_id-or-null, units, time_measurement).
type Price struct {
	ID                int64           `json:"id" db:"id"`
	PriceDefinitionID int64           `json:"priceDefinitionId" db:"price_definition_id"`
	SeasonID          *int64          `json:"seasonId" db:"season_id"`
	Units             int             `json:"units" db:"units"`
	TimeMeasurement   int             `json:"timeMeasurement" db:"time_measurement"`
	Price             decimal.Decimal `json:"price" db:"price"`
}

// ImportResult is the aggregate outcome of a CSV import run.
type ImportResult struct {
	Success       bool     `json:"success"`
	ProcessedRows int      `json:"processed_rows"`
	CreatedPrices int      `json:"created_prices"`
	UpdatedPrices int      `json:"updated_prices"`
	Errors        []string `json:"errors"`
}

// CategoryPrices is one row of the price grid: a category, the durations its
// definition allows for the requested unit, and the prices found per duration.
type CategoryPrices struct {
	CategoryID        int64                      `json:"category_id"`
	CategoryCode      string                     `json:"category_code"`
	CategoryName      string                     `json:"category_name"`
	PriceDefinitionID int64                      `json:"price_definition_id"`
	Durations         []string                   `json:"durations"`
	Prices            map[string]decimal.Decimal `json:"prices"`
}

// PricesGrid is the full category x duration matrix for display.
// Durations mirrors the first category's duration list; categories with
// heterogeneous lists make it misleading, which is a known limitation.
type PricesGrid struct {
	Categories []CategoryPrices `json:"categories"`
	Durations  []string         `json:"durations"`
}
