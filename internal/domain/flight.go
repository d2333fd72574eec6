package domain

import "time"

// Flight is a normalized flight offer from the external flight API.
type Flight struct {
	ID             string    `json:"id"`
	Airline        string    `json:"airline"`
	FlightNumber   string    `json:"flightNumber"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departureTime"`
	ArrivalTime    time.Time `json:"arrivalTime"`
	PriceCents     int64     `json:"priceCents"`
	AvailableSeats int       `json:"availableSeats"`
	Status         string    `json:"status"`
}

const FlightScheduled = "SCHEDULED"
