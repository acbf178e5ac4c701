package models

import "time"

type FlightSource string

const (
	FlightSourceManual FlightSource = "manual"
	FlightSourceADSB   FlightSource = "adsb"
)

type Flight struct {
	ID               string
	UserID           string
	TailNumber       string
	ProviderFlightID *string
	DepartureAirport string
	ArrivalAirport   string
	DepartAt         time.Time
	ArriveAt         *time.Time
	HobbsHours       *float64
	Remarks          string
	Source           FlightSource
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
