package models

import "time"

const DateLayout = "2006-01-02"

type TravelMode string

const (
	TravelModeCar   TravelMode = "Car"
	TravelModeBus   TravelMode = "Bus"
	TravelModeTrain TravelMode = "Train"
	TravelModeBike  TravelMode = "Bike"
	TravelModeWalk  TravelMode = "Walk"
)

type CarbonRecord struct {
	User           string     `json:"user"`
	Date           string     `json:"date"`
	Timestamp      time.Time  `json:"timestamp"`
	TravelMode     TravelMode `json:"travel_mode"`
	Km             float64    `json:"km"`
	ElectricityKwh float64    `json:"electricity_kwh"`
	Lifestyle      float64    `json:"lifestyle"`
	CO2            float64    `json:"co2"`
}

// CarbonActivity is a single day's input to the emission calculator.
type CarbonActivity struct {
	TravelMode     TravelMode `json:"travel_mode"`
	Km             float64    `json:"km"`
	ElectricityKwh float64    `json:"electricity_kwh"`
	Lifestyle      float64    `json:"lifestyle"`
}

type CarbonEntryResult struct {
	Transaction   *Transaction  `json:"transaction"`
	Record        *CarbonRecord `json:"record"`
	Equivalencies []Equivalency `json:"equivalencies"`
}

type Equivalency struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Forecast struct {
	Predictions []float64 `json:"predictions"`
	Narrative   string    `json:"narrative"`
}
