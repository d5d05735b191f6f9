// Package testutil provides the shared SQLite fixture the repository,
// service, and handler test suites run against.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens an in-memory SQLite database with the pricing schema and a
// reference hierarchy seeded. The single-connection pool keeps the in-memory
// database alive across queries.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)
	_, err = db.Exec(seed)
	require.NoError(t, err)
	return db
}

const schema = `
CREATE TABLE rental_locations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE rate_types (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL
);
CREATE TABLE season_definitions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE season_definition_rental_locations (
    season_definition_id INTEGER NOT NULL,
    rental_location_id INTEGER NOT NULL,
    PRIMARY KEY (season_definition_id, rental_location_id)
);
CREATE TABLE seasons (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    season_definition_id INTEGER NOT NULL,
    UNIQUE (season_definition_id, name)
);
CREATE TABLE price_definitions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    season_definition_id INTEGER,
    time_measurement_months INTEGER NOT NULL DEFAULT 0,
    time_measurement_days INTEGER NOT NULL DEFAULT 1,
    time_measurement_hours INTEGER NOT NULL DEFAULT 0,
    time_measurement_minutes INTEGER NOT NULL DEFAULT 0,
    units_management_value_days_list TEXT,
    units_management_value_hours_list TEXT,
    units_management_value_minutes_list TEXT
);
CREATE TABLE category_rental_location_rate_types (
    rental_location_id INTEGER NOT NULL,
    rate_type_id INTEGER NOT NULL,
    category_id INTEGER NOT NULL,
    price_definition_id INTEGER NOT NULL,
    PRIMARY KEY (rental_location_id, rate_type_id, category_id, price_definition_id)
);
CREATE TABLE prices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    price_definition_id INTEGER NOT NULL,
    season_id INTEGER,
    units INTEGER NOT NULL,
    time_measurement INTEGER NOT NULL,
    price NUMERIC NOT NULL
);
CREATE UNIQUE INDEX idx_prices_unique_key
    ON prices (price_definition_id, COALESCE(season_id, 0), units, time_measurement);
`

// Reference hierarchy used by the tests:
//
//	Downtown/Daily/CAR -> definition 1 (non-seasonal, days 1,3,7,15)
//	Downtown/Daily/SUV -> definition 2 (seasonal "2024 Seasons", days 1,7)
//	Airport/Daily/CAR  -> definition 3 (hours unit 2,4; no days list)
//	Airport/Weekly/CAR -> definition 4 (malformed days list)
const seed = `
INSERT INTO rental_locations (id, name) VALUES (1, 'Downtown'), (2, 'Airport');
INSERT INTO rate_types (id, name) VALUES (1, 'Daily'), (2, 'Weekly');
INSERT INTO categories (id, code, name) VALUES
    (1, 'CAR', 'Compact Car'),
    (2, 'SUV', 'Sport Utility');
INSERT INTO season_definitions (id, name) VALUES (1, '2024 Seasons');
INSERT INTO season_definition_rental_locations (season_definition_id, rental_location_id) VALUES (1, 1);
INSERT INTO seasons (id, name, season_definition_id) VALUES
    (1, 'High', 1),
    (2, 'Low', 1);
INSERT INTO price_definitions (
    id, season_definition_id,
    time_measurement_months, time_measurement_days, time_measurement_hours, time_measurement_minutes,
    units_management_value_days_list, units_management_value_hours_list, units_management_value_minutes_list
) VALUES
    (1, NULL, 0, 1, 0, 0, '1,3,7,15', NULL, NULL),
    (2, 1,    0, 1, 0, 0, '1,7',      NULL, NULL),
    (3, NULL, 0, 0, 1, 0, NULL,       '2,4', NULL),
    (4, NULL, 0, 1, 0, 0, '1,x,7',    NULL, NULL);
INSERT INTO category_rental_location_rate_types (rental_location_id, rate_type_id, category_id, price_definition_id) VALUES
    (1, 1, 1, 1),
    (1, 1, 2, 2),
    (2, 1, 1, 3),
    (2, 2, 1, 4);
`
