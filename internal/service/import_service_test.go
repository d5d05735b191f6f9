package service_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentalhub/pricing-api/internal/models"
	"github.com/rentalhub/pricing-api/internal/repository"
	"github.com/rentalhub/pricing-api/internal/service"
)

func newImporter(t *testing.T, strictUnitMatch bool) (*service.ImportService, *sqlx.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := service.NewImportService(
		repository.NewCatalogRepository(db),
		repository.NewPriceDefinitionRepository(db),
		repository.NewPriceRepository(db),
		nil,
		strictUnitMatch,
	)
	return svc, db
}

func countPrices(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM prices`).Scan(&n))
	return n
}

func TestImport_SingleValidRow(t *testing.T) {
	svc, db := newImporter(t, false)

	csv := "rental_location_name,rate_type_name,category_code,7\nDowntown,Daily,CAR,49.99"
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ProcessedRows)
	assert.Equal(t, 1, result.CreatedPrices)
	assert.Equal(t, 0, result.UpdatedPrices)
	assert.Empty(t, result.Errors)

	priceRepo := repository.NewPriceRepository(db)
	p, err := priceRepo.FindByKey(context.Background(), 1, nil, 7, models.TimeMeasurementDays)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("49.99")), "stored price %s", p.Price)
	assert.Nil(t, p.SeasonID)
}

func TestImport_Idempotent_SecondRunUpdates(t *testing.T) {
	svc, _ := newImporter(t, false)
	ctx := context.Background()

	csv := "rental_location_name,rate_type_name,category_code,3,7\nDowntown,Daily,CAR,19.50,49.99"

	first := svc.ImportFromCSV(ctx, csv)
	require.True(t, first.Success)
	assert.Equal(t, 2, first.CreatedPrices)
	assert.Equal(t, 0, first.UpdatedPrices)

	second := svc.ImportFromCSV(ctx, csv)
	assert.True(t, second.Success)
	assert.Equal(t, 1, second.ProcessedRows)
	assert.Equal(t, 0, second.CreatedPrices)
	assert.Equal(t, 2, second.UpdatedPrices)
}

func TestImport_UpdateOverwritesPrice(t *testing.T) {
	svc, db := newImporter(t, false)
	ctx := context.Background()

	r1 := svc.ImportFromCSV(ctx, "rental_location_name,rate_type_name,category_code,7\nDowntown,Daily,CAR,49.99")
	require.True(t, r1.Success)
	r2 := svc.ImportFromCSV(ctx, "rental_location_name,rate_type_name,category_code,7\nDowntown,Daily,CAR,59.99")
	require.True(t, r2.Success)

	p, err := repository.NewPriceRepository(db).FindByKey(ctx, 1, nil, 7, models.TimeMeasurementDays)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("59.99")))
	assert.Equal(t, 1, countPrices(t, db), "update must not create a second row")
}

func TestImport_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			name:    "missing rental location",
			csv:     "rental_location_name,rate_type_name,category_code,7\n,Daily,CAR,49.99",
			wantErr: "Row 2: rental_location_name is required",
		},
		{
			name:    "missing rate type",
			csv:     "rental_location_name,rate_type_name,category_code,7\nDowntown,,CAR,49.99",
			wantErr: "Row 2: rate_type_name is required",
		},
		{
			name:    "missing category code",
			csv:     "rental_location_name,rate_type_name,category_code,7\nDowntown,Daily,,49.99",
			wantErr: "Row 2: category_code is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db := newImporter(t, false)
			result := svc.ImportFromCSV(context.Background(), tt.csv)

			assert.False(t, result.Success)
			assert.Equal(t, 1, result.ProcessedRows)
			assert.Equal(t, 0, result.CreatedPrices)
			assert.Equal(t, 0, result.UpdatedPrices)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.wantErr, result.Errors[0])
			assert.Equal(t, 0, countPrices(t, db), "failed row must not mutate prices")
		})
	}
}

func TestImport_UnresolvedReferences(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			name:    "unknown rental location",
			csv:     "rental_location_name,rate_type_name,category_code,7\nNowhere,Daily,CAR,49.99",
			wantErr: "Row 2: Rental location 'Nowhere' not found",
		},
		{
			name:    "unknown rate type",
			csv:     "rental_location_name,rate_type_name,category_code,7\nDowntown,Hourly,CAR,49.99",
			wantErr: "Row 2: Rate type 'Hourly' not found",
		},
		{
			name:    "unknown category",
			csv:     "rental_location_name,rate_type_name,category_code,7\nDowntown,Daily,VAN,49.99",
			wantErr: "Row 2: Category 'VAN' not found",
		},
		{
			name:    "unknown season definition",
			csv:     "rental_location_name,rate_type_name,season_definition_name,category_code,7\nDowntown,Daily,2031 Seasons,CAR,49.99",
			wantErr: "Row 2: Season definition '2031 Seasons' not found",
		},
		{
			name:    "season not in definition",
			csv:     "rental_location_name,rate_type_name,season_definition_name,season_name,category_code,7\nDowntown,Daily,2024 Seasons,Mid,SUV,49.99",
			wantErr: "Row 2: Season 'Mid' not found in definition '2024 Seasons'",
		},
		{
			name:    "no price definition for combination",
			csv:     "rental_location_name,rate_type_name,category_code,7\nDowntown,Weekly,CAR,49.99",
			wantErr: "Row 2: No price definition found for this combination",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db := newImporter(t, false)
			result := svc.ImportFromCSV(context.Background(), tt.csv)

			assert.False(t, result.Success)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.wantErr, result.Errors[0])
			assert.Equal(t, 0, countPrices(t, db))
		})
	}
}

func TestImport_DisallowedDuration(t *testing.T) {
	svc, _ := newImporter(t, false)

	csv := "rental_location_name,rate_type_name,category_code,9\nDowntown,Daily,CAR,49.99"
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ProcessedRows)
	assert.Equal(t, 0, result.CreatedPrices)
	assert.Equal(t, 0, result.UpdatedPrices)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 2: Duration '9' not allowed for this price definition (allowed: 1, 3, 7, 15)", result.Errors[0])
}

func TestImport_DisallowedDuration_SiblingCellsStillProcessed(t *testing.T) {
	svc, db := newImporter(t, false)

	// Duration 9 is rejected; 7 in the same row must still be written.
	csv := "rental_location_name,rate_type_name,category_code,9,7\nDowntown,Daily,CAR,10.00,49.99"
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.CreatedPrices)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Duration '9' not allowed")
	assert.Equal(t, 1, countPrices(t, db))
}

func TestImport_InvalidPriceValue(t *testing.T) {
	svc, _ := newImporter(t, false)

	csv := "rental_location_name,rate_type_name,category_code,3,7\nDowntown,Daily,CAR,abc,49.99"
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.CreatedPrices)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 2: Invalid price value 'abc' for duration 3", result.Errors[0])
}

func TestImport_BlankCellsSkipped(t *testing.T) {
	svc, db := newImporter(t, false)

	csv := "rental_location_name,rate_type_name,category_code,1,3,7\nDowntown,Daily,CAR,,  ,49.99"
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.CreatedPrices)
	assert.Equal(t, 1, countPrices(t, db))
}

func TestImport_ProcessedRowsCountsFailedRows(t *testing.T) {
	svc, _ := newImporter(t, false)

	csv := "rental_location_name,rate_type_name,category_code,7\n" +
		"Downtown,Daily,CAR,49.99\n" +
		"Nowhere,Daily,CAR,10.00\n" +
		",Daily,CAR,10.00\n" +
		"Downtown,Daily,CAR,59.99"
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.False(t, result.Success)
	assert.Equal(t, 4, result.ProcessedRows)
	assert.Equal(t, 1, result.CreatedPrices)
	assert.Equal(t, 1, result.UpdatedPrices)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Row 3: Rental location 'Nowhere' not found", result.Errors[0])
	assert.Equal(t, "Row 4: rental_location_name is required", result.Errors[1])
}

func TestImport_MalformedCSV(t *testing.T) {
	svc, db := newImporter(t, false)

	result := svc.ImportFromCSV(context.Background(), "rental_location_name,rate_type_name\n\"unclosed,Daily")

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.ProcessedRows)
	assert.Equal(t, 0, result.CreatedPrices)
	assert.Equal(t, 0, result.UpdatedPrices)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "CSV malformed:")
	assert.Equal(t, 0, countPrices(t, db))
}

func TestImport_RaggedRowsAreProcessedNotFatal(t *testing.T) {
	svc, db := newImporter(t, false)

	// Row 3 drops the trailing price cell, row 4 drops category_code too.
	// Short rows read as blank cells; they never abort the batch.
	csv := "rental_location_name,rate_type_name,category_code,7\n" +
		"Downtown,Daily,CAR,49.99\n" +
		"Downtown,Daily,CAR\n" +
		"Downtown,Daily"
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.False(t, result.Success)
	assert.Equal(t, 3, result.ProcessedRows)
	assert.Equal(t, 1, result.CreatedPrices)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 4: category_code is required", result.Errors[0])
	assert.Equal(t, 1, countPrices(t, db))
}

func TestImport_SeasonalRow(t *testing.T) {
	svc, db := newImporter(t, false)
	ctx := context.Background()

	csv := "rental_location_name,rate_type_name,season_definition_name,season_name,category_code,7\n" +
		"Downtown,Daily,2024 Seasons,High,SUV,89.00"
	result := svc.ImportFromCSV(ctx, csv)

	assert.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.CreatedPrices)

	seasonID := int64(1)
	p, err := repository.NewPriceRepository(db).FindByKey(ctx, 2, &seasonID, 7, models.TimeMeasurementDays)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("89.00")))
}

func TestImport_SeasonDefinitionWithoutSeason_StoresNullSeason(t *testing.T) {
	svc, db := newImporter(t, false)
	ctx := context.Background()

	csv := "rental_location_name,rate_type_name,season_definition_name,category_code,7\n" +
		"Downtown,Daily,2024 Seasons,SUV,75.00"
	result := svc.ImportFromCSV(ctx, csv)

	assert.True(t, result.Success, "errors: %v", result.Errors)

	p, err := repository.NewPriceRepository(db).FindByKey(ctx, 2, nil, 7, models.TimeMeasurementDays)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.SeasonID)
}

func TestImport_SeasonNameWithoutDefinitionIgnored(t *testing.T) {
	svc, db := newImporter(t, false)
	ctx := context.Background()

	// season_name is present but season_definition_name is blank: the season
	// column is ignored and the non-seasonal definition is located.
	csv := "rental_location_name,rate_type_name,season_definition_name,season_name,category_code,7\n" +
		"Downtown,Daily,,High,CAR,49.99"
	result := svc.ImportFromCSV(ctx, csv)

	assert.True(t, result.Success, "errors: %v", result.Errors)

	p, err := repository.NewPriceRepository(db).FindByKey(ctx, 1, nil, 7, models.TimeMeasurementDays)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.SeasonID)
}

func TestImport_EachSeasonGetsItsOwnPriceRow(t *testing.T) {
	svc, db := newImporter(t, false)
	ctx := context.Background()

	csv := "rental_location_name,rate_type_name,season_definition_name,season_name,category_code,7\n" +
		"Downtown,Daily,2024 Seasons,High,SUV,89.00\n" +
		"Downtown,Daily,2024 Seasons,Low,SUV,59.00"
	result := svc.ImportFromCSV(ctx, csv)

	assert.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 2, result.CreatedPrices)
	assert.Equal(t, 2, countPrices(t, db))
}

func TestImport_MalformedDurationListRejectsDefinition(t *testing.T) {
	svc, db := newImporter(t, false)

	csv := "rental_location_name,rate_type_name,category_code,1\nAirport,Weekly,CAR,20.00"
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 2:")
	assert.Contains(t, result.Errors[0], "invalid duration")
	assert.Equal(t, 0, countPrices(t, db))
}

func TestImport_DefaultsToDaysListRegardlessOfUnit(t *testing.T) {
	svc, db := newImporter(t, false)
	ctx := context.Background()

	// Definition 3 is configured for hours (2,4) but has no days list. In
	// the default mode the importer only consults the days list, so the
	// fallback "1" is the single allowed duration and prices are stored
	// with the days code.
	csv := "rental_location_name,rate_type_name,category_code,1,2\nAirport,Daily,CAR,15.00,25.00"
	result := svc.ImportFromCSV(ctx, csv)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.CreatedPrices)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 2: Duration '2' not allowed for this price definition (allowed: 1)", result.Errors[0])

	p, err := repository.NewPriceRepository(db).FindByKey(ctx, 3, nil, 1, models.TimeMeasurementDays)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestImport_StrictUnitMatch_UsesConfiguredUnit(t *testing.T) {
	svc, db := newImporter(t, true)
	ctx := context.Background()

	// With strict unit matching definition 3 validates against its hours
	// list (2,4) and stores with the hours code.
	csv := "rental_location_name,rate_type_name,category_code,2,7\nAirport,Daily,CAR,25.00,49.99"
	result := svc.ImportFromCSV(ctx, csv)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.CreatedPrices)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 2: Duration '7' not allowed for this price definition (allowed: 2, 4)", result.Errors[0])

	p, err := repository.NewPriceRepository(db).FindByKey(ctx, 3, nil, 2, models.TimeMeasurementHours)
	require.NoError(t, err)
	require.NotNil(t, p, "price must be stored under the hours code")
	assert.True(t, p.Price.Equal(decimal.RequireFromString("25.00")))
}

func TestImport_HeaderOnlyCSV(t *testing.T) {
	svc, _ := newImporter(t, false)

	result := svc.ImportFromCSV(context.Background(), "rental_location_name,rate_type_name,category_code,7\n")

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ProcessedRows)
	assert.Empty(t, result.Errors)
}

func TestImport_WhitespaceTrimmedFromFieldsAndHeaders(t *testing.T) {
	svc, _ := newImporter(t, false)

	csv := "rental_location_name, rate_type_name ,category_code, 7\n Downtown , Daily ,CAR, 49.99 "
	result := svc.ImportFromCSV(context.Background(), csv)

	assert.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.CreatedPrices)
}
