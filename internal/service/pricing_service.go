package service

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rentalhub/pricing-api/internal/cache"
	"github.com/rentalhub/pricing-api/internal/models"
	"github.com/rentalhub/pricing-api/internal/repository"
)

// PricingService serves the read side of the pricing hierarchy: the
// drill-down lists (locations, rate types, season definitions, seasons) and
// the category x duration price grid.
type PricingService struct {
	catalogRepo *repository.CatalogRepository
	defRepo     *repository.PriceDefinitionRepository
	priceRepo   *repository.PriceRepository
	gridCache   *cache.GridCache
}

// NewPricingService constructs a PricingService. gridCache may be nil, in
// which case every grid request is assembled from the database.
func NewPricingService(catalogRepo *repository.CatalogRepository, defRepo *repository.PriceDefinitionRepository, priceRepo *repository.PriceRepository, gridCache *cache.GridCache) *PricingService {
	return &PricingService{
		catalogRepo: catalogRepo,
		defRepo:     defRepo,
		priceRepo:   priceRepo,
		gridCache:   gridCache,
	}
}

// GetRentalLocations returns all rental locations with pricing combinations.
func (s *PricingService) GetRentalLocations(ctx context.Context) ([]models.RentalLocation, error) {
	return s.catalogRepo.GetRentalLocations(ctx)
}

// GetRateTypesByRentalLocation returns the rate types priced at a location.
func (s *PricingService) GetRateTypesByRentalLocation(ctx context.Context, rentalLocationID int64) ([]models.RateType, error) {
	return s.catalogRepo.GetRateTypesByRentalLocation(ctx, rentalLocationID)
}

// GetSeasonDefinitions returns the season definitions in play for a rental
// location and rate type.
func (s *PricingService) GetSeasonDefinitions(ctx context.Context, rentalLocationID, rateTypeID int64) ([]models.SeasonDefinition, error) {
	return s.catalogRepo.GetSeasonDefinitions(ctx, rentalLocationID, rateTypeID)
}

// GetSeasonsByDefinition returns the seasons of one season definition.
func (s *PricingService) GetSeasonsByDefinition(ctx context.Context, seasonDefinitionID int64) ([]models.Season, error) {
	return s.catalogRepo.GetSeasonsByDefinition(ctx, seasonDefinitionID)
}

// GetPricesData assembles the price grid: every category priced under the
// rental location and rate type, each with the durations its definition
// allows for the requested time unit and the prices already stored for
// them. With a season definition but no season, prices of all its seasons
// are merged into one map; without a season definition only non-seasonal
// prices are read.
//
// The top-level Durations field mirrors the first category's duration list
// (or ["1"] when there are no categories). Categories with differing lists
// make it misleading; callers that care must read the per-category lists.
func (s *PricingService) GetPricesData(ctx context.Context, rentalLocationID, rateTypeID int64, seasonDefinitionID, seasonID *int64, timeMeasurement string) (*models.PricesGrid, error) {
	unit := ParseTimeUnit(timeMeasurement)

	if s.gridCache != nil {
		if grid := s.gridCache.Get(ctx, rentalLocationID, rateTypeID, seasonDefinitionID, seasonID, string(unit)); grid != nil {
			return grid, nil
		}
	}

	categoryDefs, err := s.defRepo.GetCategoryDefinitions(ctx, rentalLocationID, rateTypeID, seasonDefinitionID)
	if err != nil {
		return nil, err
	}

	code := TimeMeasurementCode(unit)
	nonSeasonal := seasonDefinitionID == nil
	seasonFilter := seasonID
	if seasonDefinitionID == nil {
		// A season without its definition is meaningless for filtering.
		seasonFilter = nil
	}

	grid := &models.PricesGrid{Categories: make([]models.CategoryPrices, 0, len(categoryDefs))}
	for _, cd := range categoryDefs {
		durations, err := DurationStrings(&cd.Definition, unit)
		if err != nil {
			return nil, err
		}

		unitPrices, err := s.priceRepo.GetUnitPrices(ctx, cd.Definition.ID, code, seasonFilter, nonSeasonal)
		if err != nil {
			return nil, err
		}
		priceMap := make(map[string]decimal.Decimal, len(unitPrices))
		for _, up := range unitPrices {
			priceMap[strconv.Itoa(up.Units)] = up.Price
		}

		grid.Categories = append(grid.Categories, models.CategoryPrices{
			CategoryID:        cd.CategoryID,
			CategoryCode:      cd.CategoryCode,
			CategoryName:      cd.CategoryName,
			PriceDefinitionID: cd.Definition.ID,
			Durations:         durations,
			Prices:            priceMap,
		})
	}

	if len(grid.Categories) > 0 {
		grid.Durations = grid.Categories[0].Durations
	} else {
		grid.Durations = []string{"1"}
	}

	if s.gridCache != nil {
		s.gridCache.Set(ctx, rentalLocationID, rateTypeID, seasonDefinitionID, seasonID, string(unit), grid)
	}
	return grid, nil
}
