package domain

import "time"

type Hotel struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"ownerId"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	StarRating int       `json:"starRating"`
	LogoURL    string    `json:"logoUrl,omitempty"`
	Images     []string  `json:"images"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RoomType is a category of identical rooms. Quantity is the number of
// physical units; vacancy is always derived from bookings.
type RoomType struct {
	ID                 int64     `json:"id"`
	HotelID            int64     `json:"hotelId"`
	Type               string    `json:"type"`
	PricePerNightCents int64     `json:"pricePerNightCents"`
	Quantity           int       `json:"quantity"`
	Amenities          []string  `json:"amenities"`
	Images             []string  `json:"images"`
	Available          bool      `json:"available"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type RoomAvailability struct {
	RoomTypeID     int64  `json:"roomTypeId"`
	Type           string `json:"type"`
	TotalRooms     int    `json:"totalRooms"`
	AvailableRooms int    `json:"availableRooms"`
	OccupiedRooms  int    `json:"occupiedRooms"`
}

// Overlaps reports whether two stays intersect. Boundaries are inclusive, so a
// stay ending on the day another begins counts as overlapping.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// Vacancy never goes below zero.
func Vacancy(quantity, occupied int) int {
	if v := quantity - occupied; v > 0 {
		return v
	}
	return 0
}

func NewRoomAvailability(room RoomType, occupied int) RoomAvailability {
	available := Vacancy(room.Quantity, occupied)
	if !room.Available {
		available = 0
	}
	return RoomAvailability{
		RoomTypeID:     room.ID,
		Type:           room.Type,
		TotalRooms:     room.Quantity,
		AvailableRooms: available,
		OccupiedRooms:  occupied,
	}
}

// DateOnly drops the clock part; stays are compared by calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
