package services

import (
	"fmt"
	"math"

	"ecoverse/internal/models"
	"ecoverse/internal/pkg"
)

// kg CO2 per km
var travelFactors = map[models.TravelMode]float64{
	models.TravelModeCar:   0.21,
	models.TravelModeBus:   0.10,
	models.TravelModeTrain: 0.04,
	models.TravelModeBike:  0.0,
	models.TravelModeWalk:  0.0,
}

const (
	ELECTRICITY_FACTOR_KG_PER_KWH = 0.85
	LIFESTYLE_FACTOR_KG           = 2.0

	FOOTPRINT_MAX_POINTS       = 50
	FOOTPRINT_POINTS_PER_KG    = 5
	EPA_MILES_DRIVEN_FACTOR    = 0.192
	EPA_SMARTPHONE_CHARGE_KG   = 0.00822
	EQUIVALENCY_MIN_KG         = 0.01
	EQUIVALENCY_LABEL_MILES    = "miles driven"
	EQUIVALENCY_LABEL_CHARGING = "smartphones charged"
)

func TravelModes() []models.TravelMode {
	return []models.TravelMode{
		models.TravelModeCar,
		models.TravelModeBus,
		models.TravelModeTrain,
		models.TravelModeBike,
		models.TravelModeWalk,
	}
}

// ComputeDailyFootprint returns the day's footprint in kg CO2, rounded to 2 places.
func ComputeDailyFootprint(mode models.TravelMode, km, electricityKwh, lifestyle float64) (float64, error) {
	factor, ok := travelFactors[mode]
	if !ok {
		return 0, fmt.Errorf("%w: unknown travel mode %q", ErrInvalidInput, mode)
	}
	if !finite(km) || !finite(electricityKwh) || km < 0 || electricityKwh < 0 {
		return 0, fmt.Errorf("%w: distance and electricity must be finite and non-negative", ErrInvalidInput)
	}
	if lifestyle < 0 || lifestyle > 1 || math.IsNaN(lifestyle) {
		return 0, fmt.Errorf("%w: lifestyle factor %v outside [0,1]", ErrInvalidInput, lifestyle)
	}

	co2 := km*factor + electricityKwh*ELECTRICITY_FACTOR_KG_PER_KWH + lifestyle*LIFESTYLE_FACTOR_KG
	if !finite(co2) {
		return 0, fmt.Errorf("%w: footprint out of range", ErrInvalidInput)
	}
	return pkg.Round(co2, 2), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PointsForFootprint is max(0, floor(50 - co2*5)). The footprint is taken in
// whole hundredths so a value like 2.1 cannot floor to the wrong integer.
func PointsForFootprint(co2 float64) int {
	// at or past the zero point, and large enough to overflow the integer math
	if !(co2 < FOOTPRINT_MAX_POINTS/FOOTPRINT_POINTS_PER_KG) {
		return 0
	}
	hundredths := int64(math.Round(co2 * 100))
	remaining := FOOTPRINT_MAX_POINTS*100 - hundredths*FOOTPRINT_POINTS_PER_KG
	if remaining <= 0 {
		return 0
	}
	return int(remaining / 100)
}

// Equivalencies expresses a footprint as EPA miles driven and smartphone charges.
// Footprints below 10 g have none.
func Equivalencies(co2Kg float64) []models.Equivalency {
	if co2Kg < EQUIVALENCY_MIN_KG {
		return []models.Equivalency{}
	}

	return []models.Equivalency{
		{Label: EQUIVALENCY_LABEL_MILES, Value: pkg.Round(co2Kg/EPA_MILES_DRIVEN_FACTOR, 2)},
		{Label: EQUIVALENCY_LABEL_CHARGING, Value: pkg.Round(co2Kg/EPA_SMARTPHONE_CHARGE_KG, 2)},
	}
}
