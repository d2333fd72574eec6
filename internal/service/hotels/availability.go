package hotels

import (
	"context"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

// Availability reports vacancy per room type of the hotel (or just roomTypeID) for
// the stay. Only CONFIRMED bookings occupy a room and stay boundaries are inclusive.
func (s *HotelService) Availability(ctx context.Context, hotelID int64, roomTypeID *int64, checkIn, checkOut time.Time) ([]domain.RoomAvailability, error) {
	checkIn, checkOut = domain.DateOnly(checkIn), domain.DateOnly(checkOut)
	if checkIn.After(checkOut) {
		return nil, domain.ErrInvalidDates
	}

	hotels := s.store.Hotels()
	if _, err := hotels.GetByID(ctx, hotelID); err != nil {
		return nil, err
	}

	var rooms []domain.RoomType
	if roomTypeID != nil {
		room, err := hotels.GetRoomType(ctx, hotelID, *roomTypeID)
		if err != nil {
			return nil, err
		}
		rooms = []domain.RoomType{*room}
	} else {
		var err error
		if rooms, err = hotels.ListRoomTypes(ctx, hotelID); err != nil {
			return nil, err
		}
	}

	out := make([]domain.RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		occupied, err := s.store.HotelBookings().CountOverlapping(ctx, room.ID, checkIn, checkOut)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.NewRoomAvailability(room, occupied))
	}
	return out, nil
}
