package booking

import (
	"context"

	"github.com/Domenick1991/travelbooking/internal/invoice"
	"github.com/google/uuid"
)

func (s *BookingService) Invoice(ctx context.Context, bookingID, userID int64) (*invoice.Data, error) {
	booking, err := s.GetBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	data := &invoice.Data{
		Number:    uuid.NewString(),
		IssuedAt:  s.now(),
		Customer:  invoice.Customer{Name: user.FullName(), Email: user.Email},
		BookingID: booking.ID,
		Status:    booking.Status,
	}
	if it := booking.Itinerary; it != nil {
		data.Flights = it.Flights
		data.Hotels = it.Hotels
	}
	return data, nil
}
