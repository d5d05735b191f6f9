package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rentalhub/pricing-api/internal/models"
)

// defaultDurationList is used when a price definition has no duration list
// configured for its active unit. Months never has a list column, so it
// always resolves to this.
const defaultDurationList = "1"

// DetectTimeUnit returns the active time unit of a price definition. The
// flags are checked in priority order days, hours, minutes, months; days is
// the fallback when no flag is set.
func DetectTimeUnit(def *models.PriceDefinition) models.TimeUnit {
	switch {
	case def.TimeMeasurementDays:
		return models.UnitDays
	case def.TimeMeasurementHours:
		return models.UnitHours
	case def.TimeMeasurementMinutes:
		return models.UnitMinutes
	case def.TimeMeasurementMonths:
		return models.UnitMonths
	default:
		return models.UnitDays
	}
}

// AllowedDurations returns the ordered duration values a price definition
// allows for the given unit. The list is parsed from the definition's
// comma-separated unit list; a non-numeric token rejects the whole
// definition rather than being skipped.
func AllowedDurations(def *models.PriceDefinition, unit models.TimeUnit) ([]int, error) {
	var list *string
	switch unit {
	case models.UnitDays:
		list = def.UnitsValueDaysList
	case models.UnitHours:
		list = def.UnitsValueHoursList
	case models.UnitMinutes:
		list = def.UnitsValueMinutesList
	}

	raw := defaultDurationList
	if list != nil && strings.TrimSpace(*list) != "" {
		raw = *list
	}

	tokens := strings.Split(raw, ",")
	durations := make([]int, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		value, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("price definition %d has invalid duration %q in its %s list", def.ID, token, unit)
		}
		durations = append(durations, value)
	}
	return durations, nil
}

// DurationStrings returns the definition's duration list for a unit as the
// display strings the price grid uses.
func DurationStrings(def *models.PriceDefinition, unit models.TimeUnit) ([]string, error) {
	durations, err := AllowedDurations(def, unit)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(durations))
	for i, d := range durations {
		out[i] = strconv.Itoa(d)
	}
	return out, nil
}

// TimeMeasurementCode maps a time unit to the integer code stored on price
// rows.
func TimeMeasurementCode(unit models.TimeUnit) int {
	switch unit {
	case models.UnitMonths:
		return models.TimeMeasurementMonths
	case models.UnitHours:
		return models.TimeMeasurementHours
	case models.UnitMinutes:
		return models.TimeMeasurementMinutes
	default:
		return models.TimeMeasurementDays
	}
}

// ParseTimeUnit maps a query-string value to a time unit, defaulting to days
// for empty or unknown values.
func ParseTimeUnit(raw string) models.TimeUnit {
	switch raw {
	case string(models.UnitMonths):
		return models.UnitMonths
	case string(models.UnitHours):
		return models.UnitHours
	case string(models.UnitMinutes):
		return models.UnitMinutes
	default:
		return models.UnitDays
	}
}
