package domain

import "time"

type FlightBookingStatus string

const (
	FlightStatusScheduled FlightBookingStatus = "SCHEDULED"
	FlightStatusCancelled FlightBookingStatus = "CANCELLED"
)

type HotelBookingStatus string

const (
	HotelStatusConfirmed HotelBookingStatus = "CONFIRMED"
	HotelStatusScheduled HotelBookingStatus = "SCHEDULED"
	HotelStatusCancelled HotelBookingStatus = "CANCELLED"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// FlightBooking with a nil ItineraryID sits in the user's cart.
type FlightBooking struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"userId"`
	FlightID      string              `json:"flightId"`
	ExternalRef   string              `json:"externalRef,omitempty"`
	Airline       string              `json:"airline"`
	FlightNumber  string              `json:"flightNumber"`
	Origin        string              `json:"origin"`
	Destination   string              `json:"destination"`
	DepartureTime time.Time           `json:"departureTime"`
	ArrivalTime   time.Time           `json:"arrivalTime"`
	PriceCents    int64               `json:"priceCents"`
	Status        FlightBookingStatus `json:"status"`
	ItineraryID   *int64              `json:"itineraryId"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// HotelBooking with a nil ItineraryID sits in the user's cart.
type HotelBooking struct {
	ID                 int64              `json:"id"`
	UserID             int64              `json:"userId"`
	HotelID            int64              `json:"hotelId"`
	RoomID             int64              `json:"roomId"`
	HotelName          string             `json:"hotelName,omitempty"`
	RoomType           string             `json:"roomType,omitempty"`
	CheckIn            time.Time          `json:"checkInDate"`
	CheckOut           time.Time          `json:"checkOutDate"`
	PricePerNightCents int64              `json:"pricePerNightCents"`
	Status             HotelBookingStatus `json:"status"`
	ItineraryID        *int64             `json:"itineraryId"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// Nights is at least one; a same-day stay is billed as a night.
func (h HotelBooking) Nights() int {
	n := int(h.CheckOut.Sub(h.CheckIn).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

func (h HotelBooking) TotalCents() int64 {
	return int64(h.Nights()) * h.PricePerNightCents
}

type Itinerary struct {
	ID        int64           `json:"id"`
	Status    BookingStatus   `json:"status"`
	BookingID *int64          `json:"bookingId"`
	Flights   []FlightBooking `json:"flights"`
	Hotels    []HotelBooking  `json:"hotels"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (i Itinerary) TotalCents() int64 {
	var total int64
	for _, f := range i.Flights {
		if f.Status != FlightStatusCancelled {
			total += f.PriceCents
		}
	}
	for _, h := range i.Hotels {
		if h.Status != HotelStatusCancelled {
			total += h.TotalCents()
		}
	}
	return total
}

// Booking is the confirmation a user sees; it wraps exactly one Itinerary.
type Booking struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"userId"`
	Status    BookingStatus `json:"status"`
	Itinerary *Itinerary    `json:"itinerary,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type Cart struct {
	Flights []FlightBooking `json:"flights"`
	Hotels  []HotelBooking  `json:"hotels"`
}

func (c Cart) Empty() bool {
	return len(c.Flights) == 0 && len(c.Hotels) == 0
}
