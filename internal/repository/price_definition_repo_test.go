package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentalhub/pricing-api/internal/repository"
)

func TestLocate_NonSeasonal(t *testing.T) {
	repo := repository.NewPriceDefinitionRepository(newTestDB(t))
	ctx := context.Background()

	def, err := repo.Locate(ctx, 1, 1, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, int64(1), def.ID)
	assert.Nil(t, def.SeasonDefinitionID)
	require.NotNil(t, def.UnitsValueDaysList)
	assert.Equal(t, "1,3,7,15", *def.UnitsValueDaysList)
}

func TestLocate_Seasonal(t *testing.T) {
	repo := repository.NewPriceDefinitionRepository(newTestDB(t))
	ctx := context.Background()

	seasonDefinitionID := int64(1)
	def, err := repo.Locate(ctx, 1, 1, 2, &seasonDefinitionID)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, int64(2), def.ID)
	require.NotNil(t, def.SeasonDefinitionID)
	assert.Equal(t, seasonDefinitionID, *def.SeasonDefinitionID)
}

func TestLocate_SeasonFilterIsExact(t *testing.T) {
	repo := repository.NewPriceDefinitionRepository(newTestDB(t))
	ctx := context.Background()

	// The SUV combination only has a seasonal definition; asking without a
	// season definition must miss rather than fall through to it.
	def, err := repo.Locate(ctx, 1, 1, 2, nil)
	require.NoError(t, err)
	assert.Nil(t, def)

	// And the CAR combination only has a non-seasonal one.
	seasonDefinitionID := int64(1)
	def, err = repo.Locate(ctx, 1, 1, 1, &seasonDefinitionID)
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestLocate_Miss(t *testing.T) {
	repo := repository.NewPriceDefinitionRepository(newTestDB(t))

	def, err := repo.Locate(context.Background(), 1, 2, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestLocate_AmbiguousJunction_LowestIDWins(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewPriceDefinitionRepository(db)
	ctx := context.Background()

	// Data error: a second non-seasonal definition for the same triple.
	_, err := db.Exec(`INSERT INTO price_definitions (id, season_definition_id, time_measurement_days, units_management_value_days_list)
	                   VALUES (9, NULL, 1, '1')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO category_rental_location_rate_types VALUES (1, 1, 1, 9)`)
	require.NoError(t, err)

	def, err := repo.Locate(ctx, 1, 1, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, int64(1), def.ID)
}

func TestGetCategoryDefinitions(t *testing.T) {
	repo := repository.NewPriceDefinitionRepository(newTestDB(t))
	ctx := context.Background()

	// Non-seasonal: only CAR at Downtown/Daily.
	defs, err := repo.GetCategoryDefinitions(ctx, 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "CAR", defs[0].CategoryCode)
	assert.Equal(t, int64(1), defs[0].Definition.ID)

	// Seasonal: only SUV.
	seasonDefinitionID := int64(1)
	defs, err = repo.GetCategoryDefinitions(ctx, 1, 1, &seasonDefinitionID)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "SUV", defs[0].CategoryCode)
	assert.Equal(t, int64(2), defs[0].Definition.ID)
}
