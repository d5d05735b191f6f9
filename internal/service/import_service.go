package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rentalhub/pricing-api/internal/cache"
	"github.com/rentalhub/pricing-api/internal/models"
	"github.com/rentalhub/pricing-api/internal/repository"
)

// ImportService ingests price data from CSV text. Each row names a pricing
// combination (rental location, rate type, category, optional season) and
// carries one price cell per duration column; the service resolves the
// combination, validates the durations against the governing price
// definition, and upserts a price row per non-blank cell.
//
// The run never aborts on a bad row: failures are accumulated as
// human-readable errors tagged with the 1-based CSV row number while the
// remaining rows keep processing.
type ImportService struct {
	catalogRepo *repository.CatalogRepository
	defRepo     *repository.PriceDefinitionRepository
	priceRepo   *repository.PriceRepository
	gridCache   *cache.GridCache

	// strictUnitMatch switches validation and storage to a definition's
	// configured time unit. Off by default: the import path historically
	// uses the days list and days code no matter what the definition says.
	strictUnitMatch bool
}

// NewImportService constructs an ImportService. gridCache may be nil.
func NewImportService(catalogRepo *repository.CatalogRepository, defRepo *repository.PriceDefinitionRepository, priceRepo *repository.PriceRepository, gridCache *cache.GridCache, strictUnitMatch bool) *ImportService {
	return &ImportService{
		catalogRepo:     catalogRepo,
		defRepo:         defRepo,
		priceRepo:       priceRepo,
		gridCache:       gridCache,
		strictUnitMatch: strictUnitMatch,
	}
}

// Named CSV columns. Any column whose header is purely numeric is treated as
// a duration column instead.
const (
	colRentalLocation   = "rental_location_name"
	colRateType         = "rate_type_name"
	colSeasonDefinition = "season_definition_name"
	colSeason           = "season_name"
	colCategory         = "category_code"
)

// importRun accumulates counters and errors for a single import. A fresh
// value per call keeps concurrent imports from sharing state.
type importRun struct {
	processedRows int
	createdPrices int
	updatedPrices int
	errors        []string
}

func (r *importRun) errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *importRun) result() *models.ImportResult {
	return &models.ImportResult{
		Success:       len(r.errors) == 0,
		ProcessedRows: r.processedRows,
		CreatedPrices: r.createdPrices,
		UpdatedPrices: r.updatedPrices,
		Errors:        r.errors,
	}
}

// csvRow is one data row paired with the header, preserving column order so
// duration columns are visited in the order they appear in the file.
type csvRow struct {
	headers []string
	values  []string
}

// field returns the trimmed value of a named column, or "" when the column
// is absent.
func (row csvRow) field(name string) string {
	for i, h := range row.headers {
		if h == name && i < len(row.values) {
			return strings.TrimSpace(row.values[i])
		}
	}
	return ""
}

// isDurationHeader reports whether a header names a duration column: one or
// more decimal digits and nothing else.
func isDurationHeader(header string) bool {
	if header == "" {
		return false
	}
	for _, c := range header {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ImportFromCSV processes the given CSV text and reports the aggregate
// outcome. Structurally malformed CSV short-circuits to a single-error
// result with zero counters; every other failure is scoped to one row or
// one cell.
func (s *ImportService) ImportFromCSV(ctx context.Context, csvText string) *models.ImportResult {
	run := &importRun{errors: make([]string, 0)}

	reader := csv.NewReader(strings.NewReader(csvText))
	// Rows shorter or longer than the header are still rows: missing cells
	// read as blank and fall out in the required-field and blank-cell
	// checks. Only true structural damage (unbalanced quotes) is fatal.
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		run.errorf("CSV malformed: %v", err)
		return run.result()
	}
	if len(records) == 0 {
		return run.result()
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	for i, record := range records[1:] {
		// +2: data starts on the line after the header, rows are 1-based.
		s.processRow(ctx, run, csvRow{headers: headers, values: record}, i+2)
	}

	result := run.result()
	if s.gridCache != nil && result.CreatedPrices+result.UpdatedPrices > 0 {
		s.gridCache.Invalidate(ctx)
	}
	return result
}

// processRow resolves, validates, and upserts one CSV row. Validation and
// resolution failures append one error and abandon the row; cell failures
// append one error per cell and keep going.
func (s *ImportService) processRow(ctx context.Context, run *importRun, row csvRow, rowNumber int) {
	run.processedRows++

	rentalLocationName := row.field(colRentalLocation)
	rateTypeName := row.field(colRateType)
	seasonDefinitionName := row.field(colSeasonDefinition)
	seasonName := row.field(colSeason)
	categoryCode := row.field(colCategory)

	if rentalLocationName == "" {
		run.errorf("Row %d: %s is required", rowNumber, colRentalLocation)
		return
	}
	if rateTypeName == "" {
		run.errorf("Row %d: %s is required", rowNumber, colRateType)
		return
	}
	if categoryCode == "" {
		run.errorf("Row %d: %s is required", rowNumber, colCategory)
		return
	}

	rentalLocation, err := s.catalogRepo.FindRentalLocationByName(ctx, rentalLocationName)
	if err != nil {
		s.rowFailure(run, rowNumber, err)
		return
	}
	if rentalLocation == nil {
		run.errorf("Row %d: Rental location '%s' not found", rowNumber, rentalLocationName)
		return
	}

	rateType, err := s.catalogRepo.FindRateTypeByName(ctx, rateTypeName)
	if err != nil {
		s.rowFailure(run, rowNumber, err)
		return
	}
	if rateType == nil {
		run.errorf("Row %d: Rate type '%s' not found", rowNumber, rateTypeName)
		return
	}

	category, err := s.catalogRepo.FindCategoryByCode(ctx, categoryCode)
	if err != nil {
		s.rowFailure(run, rowNumber, err)
		return
	}
	if category == nil {
		run.errorf("Row %d: Category '%s' not found", rowNumber, categoryCode)
		return
	}

	// Season definition and season are optional. A season name without a
	// season definition is ignored entirely.
	var seasonDefinitionID *int64
	var seasonID *int64
	if seasonDefinitionName != "" {
		seasonDefinition, err := s.catalogRepo.FindSeasonDefinitionByName(ctx, seasonDefinitionName)
		if err != nil {
			s.rowFailure(run, rowNumber, err)
			return
		}
		if seasonDefinition == nil {
			run.errorf("Row %d: Season definition '%s' not found", rowNumber, seasonDefinitionName)
			return
		}
		seasonDefinitionID = &seasonDefinition.ID

		if seasonName != "" {
			season, err := s.catalogRepo.FindSeasonByName(ctx, seasonName, seasonDefinition.ID)
			if err != nil {
				s.rowFailure(run, rowNumber, err)
				return
			}
			if season == nil {
				run.errorf("Row %d: Season '%s' not found in definition '%s'", rowNumber, seasonName, seasonDefinitionName)
				return
			}
			seasonID = &season.ID
		}
	}

	def, err := s.defRepo.Locate(ctx, rentalLocation.ID, rateType.ID, category.ID, seasonDefinitionID)
	if err != nil {
		s.rowFailure(run, rowNumber, err)
		return
	}
	if def == nil {
		run.errorf("Row %d: No price definition found for this combination", rowNumber)
		return
	}

	unit := models.UnitDays
	if s.strictUnitMatch {
		unit = DetectTimeUnit(def)
	}
	allowedDurations, err := AllowedDurations(def, unit)
	if err != nil {
		run.errorf("Row %d: %v", rowNumber, err)
		return
	}
	timeMeasurement := TimeMeasurementCode(unit)

	for i, header := range row.headers {
		if !isDurationHeader(header) || i >= len(row.values) {
			continue
		}
		cell := strings.TrimSpace(row.values[i])
		if cell == "" {
			continue
		}

		duration, _ := strconv.Atoi(header)
		if !containsDuration(allowedDurations, duration) {
			run.errorf("Row %d: Duration '%d' not allowed for this price definition (allowed: %s)",
				rowNumber, duration, joinDurations(allowedDurations))
			continue
		}

		price, err := decimal.NewFromString(cell)
		if err != nil {
			run.errorf("Row %d: Invalid price value '%s' for duration %d", rowNumber, cell, duration)
			continue
		}

		s.upsertPrice(ctx, run, def.ID, seasonID, duration, timeMeasurement, price, rowNumber)
	}
}

// upsertPrice creates or overwrites the price row addressed by
// (priceDefinitionID, seasonID, duration, timeMeasurement). Persistence
// failures are cell-scope: one error, remaining columns continue.
func (s *ImportService) upsertPrice(ctx context.Context, run *importRun, priceDefinitionID int64, seasonID *int64, duration, timeMeasurement int, price decimal.Decimal, rowNumber int) {
	existing, err := s.priceRepo.FindByKey(ctx, priceDefinitionID, seasonID, duration, timeMeasurement)
	if err != nil {
		log.Error().Err(err).Int("row", rowNumber).Int("duration", duration).Msg("price lookup failed during import")
		run.errorf("Row %d: Error saving price for duration %d - %v", rowNumber, duration, err)
		return
	}

	if existing == nil {
		p := &models.Price{
			PriceDefinitionID: priceDefinitionID,
			SeasonID:          seasonID,
			Units:             duration,
			TimeMeasurement:   timeMeasurement,
			Price:             price,
		}
		if err := s.priceRepo.Create(ctx, p); err != nil {
			log.Error().Err(err).Int("row", rowNumber).Int("duration", duration).Msg("price create failed during import")
			run.errorf("Row %d: Could not save price for duration %d - %v", rowNumber, duration, err)
			return
		}
		run.createdPrices++
		return
	}

	if err := s.priceRepo.UpdateAmount(ctx, existing.ID, price); err != nil {
		log.Error().Err(err).Int("row", rowNumber).Int("duration", duration).Msg("price update failed during import")
		run.errorf("Row %d: Could not update price for duration %d - %v", rowNumber, duration, err)
		return
	}
	run.updatedPrices++
}

// rowFailure records an unexpected infrastructure failure at row scope and
// lets the batch continue.
func (s *ImportService) rowFailure(run *importRun, rowNumber int, err error) {
	log.Error().Err(err).Int("row", rowNumber).Msg("unexpected error while importing row")
	run.errorf("Row %d: Unexpected error - %v", rowNumber, err)
}

func containsDuration(durations []int, d int) bool {
	for _, v := range durations {
		if v == d {
			return true
		}
	}
	return false
}

func joinDurations(durations []int) string {
	parts := make([]string, len(durations))
	for i, d := range durations {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ", ")
}
