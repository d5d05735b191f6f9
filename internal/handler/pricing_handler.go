package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/rentalhub/pricing-api/internal/service"
	"github.com/rentalhub/pricing-api/internal/utils"
)

// PricingHandler handles the read side of the pricing API: the drill-down
// lists and the price grid.
type PricingHandler struct {
	svc *service.PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(svc *service.PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

// GetRentalLocations returns all rental locations with pricing data.
// GET /v1/pricing/rental-locations
func (h *PricingHandler) GetRentalLocations(c *gin.Context) {
	ctx := c.Request.Context()

	locations, err := h.svc.GetRentalLocations(ctx)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve rental locations")
		return
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved rental locations", locations)
}

// GetRateTypes returns the rate types priced at a rental location.
// GET /v1/pricing/rental-locations/:rental_location_id/rate-types
func (h *PricingHandler) GetRateTypes(c *gin.Context) {
	ctx := c.Request.Context()

	rentalLocationID, err := parseID(c.Param("rental_location_id"), "Rental location ID")
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	rateTypes, err := h.svc.GetRateTypesByRentalLocation(ctx, rentalLocationID)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve rate types")
		return
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved rate types", rateTypes)
}

// GetSeasonDefinitions returns the season definitions scoping price
// definitions for a rental location and rate type.
// GET /v1/pricing/season-definitions?rental_location_id=&rate_type_id=
func (h *PricingHandler) GetSeasonDefinitions(c *gin.Context) {
	ctx := c.Request.Context()

	rentalLocationID, err := parseID(c.Query("rental_location_id"), "Rental location ID")
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	rateTypeID, err := parseID(c.Query("rate_type_id"), "Rate type ID")
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	definitions, err := h.svc.GetSeasonDefinitions(ctx, rentalLocationID, rateTypeID)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve season definitions")
		return
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved season definitions", definitions)
}

// GetSeasons returns the seasons of a season definition.
// GET /v1/pricing/season-definitions/:season_definition_id/seasons
func (h *PricingHandler) GetSeasons(c *gin.Context) {
	ctx := c.Request.Context()

	seasonDefinitionID, err := parseID(c.Param("season_definition_id"), "Season definition ID")
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	seasons, err := h.svc.GetSeasonsByDefinition(ctx, seasonDefinitionID)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve seasons")
		return
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved seasons", seasons)
}

// GetPrices returns the category x duration price grid.
// GET /v1/pricing/prices?rental_location_id=&rate_type_id=&season_definition_id=&season_id=&time_measurement=
func (h *PricingHandler) GetPrices(c *gin.Context) {
	ctx := c.Request.Context()

	rentalLocationID, err := parseID(c.Query("rental_location_id"), "Rental location ID")
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	rateTypeID, err := parseID(c.Query("rate_type_id"), "Rate type ID")
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	seasonDefinitionID, err := parseOptionalID(c.Query("season_definition_id"), "Season definition ID")
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	seasonID, err := parseOptionalID(c.Query("season_id"), "Season ID")
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	timeMeasurement := c.DefaultQuery("time_measurement", "days")

	grid, err := h.svc.GetPricesData(ctx, rentalLocationID, rateTypeID, seasonDefinitionID, seasonID, timeMeasurement)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve prices data")
		return
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved prices data", grid)
}

// respondError maps an error to the API's outcome taxonomy: bad input
// becomes a 400 with the caller-facing message, everything else a 500 with
// the generic fallback.
func (h *PricingHandler) respondError(c *gin.Context, err error, fallback string) {
	if msg, ok := utils.IsBadRequest(err); ok {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("pricing request failed")
	utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}

// parseID parses a required integer identifier.
func parseID(raw, label string) (int64, error) {
	if raw == "" {
		return 0, utils.BadRequest(label + " is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, utils.BadRequest(label + " must be an integer")
	}
	return id, nil
}

// parseOptionalID parses an optional integer identifier. Absence yields nil;
// a present but non-numeric value is rejected.
func parseOptionalID(raw, label string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw, label)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
