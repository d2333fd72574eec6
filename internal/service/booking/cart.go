package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/internal/afs"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"go.uber.org/zap"
)

type HotelCartInput struct {
	HotelID  int64
	RoomID   int64
	CheckIn  time.Time
	CheckOut time.Time
}

func (s *BookingService) ListCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	flights, err := s.store.FlightBookings().ListCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	hotels, err := s.store.HotelBookings().ListCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Cart{Flights: flights, Hotels: hotels}, nil
}

// AddFlightToCart books the flight with the provider and keeps the reference
// on a SCHEDULED row that stays in the cart until checkout.
func (s *BookingService) AddFlightToCart(ctx context.Context, userID int64, flightID string) (*domain.FlightBooking, error) {
	if flightID == "" {
		return nil, domain.Wrap(domain.ErrInvalidInput, errors.New("flight id is required"))
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	flight, err := s.flights.GetFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if flight.Status != domain.FlightScheduled {
		return nil, domain.NewError(domain.KindConflict, fmt.Sprintf("flight %s is %s", flight.ID, flight.Status))
	}

	ref, err := s.flights.CreateBooking(ctx, flight.ID, afs.Passenger{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})
	if err != nil {
		return nil, err
	}

	booking := &domain.FlightBooking{
		UserID:        userID,
		FlightID:      flight.ID,
		ExternalRef:   ref,
		Airline:       flight.Airline,
		FlightNumber:  flight.FlightNumber,
		Origin:        flight.Origin,
		Destination:   flight.Destination,
		DepartureTime: flight.DepartureTime,
		ArrivalTime:   flight.ArrivalTime,
		PriceCents:    flight.PriceCents,
		Status:        domain.FlightStatusScheduled,
	}
	if err := s.store.FlightBookings().Create(ctx, booking); err != nil {
		s.log.Error("flight booked upstream but not stored",
			zap.Int64("user_id", userID), zap.String("flight_id", flight.ID), zap.String("external_ref", ref), zap.Error(err))
		return nil, err
	}
	return booking, nil
}

// AddHotelToCart reserves one unit of a room type. The room-type row stays
// locked while vacancy is counted, so two guests cannot take the last room.
func (s *BookingService) AddHotelToCart(ctx context.Context, userID int64, input HotelCartInput) (*domain.HotelBooking, error) {
	checkIn, checkOut := domain.DateOnly(input.CheckIn), domain.DateOnly(input.CheckOut)
	if checkIn.After(checkOut) {
		return nil, domain.ErrInvalidDates
	}

	var (
		booking domain.HotelBooking
		hotel   *domain.Hotel
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if hotel, err = tx.Hotels().GetByID(ctx, input.HotelID); err != nil {
			return err
		}
		room, err := tx.Hotels().LockRoomType(ctx, input.HotelID, input.RoomID)
		if err != nil {
			return err
		}
		if !room.Available {
			return domain.ErrRoomUnavailable
		}

		occupied, err := tx.HotelBookings().CountOverlapping(ctx, room.ID, checkIn, checkOut)
		if err != nil {
			return err
		}
		if domain.Vacancy(room.Quantity, occupied) == 0 {
			return domain.ErrNoCapacity
		}

		booking = domain.HotelBooking{
			UserID:             userID,
			HotelID:            hotel.ID,
			RoomID:             room.ID,
			HotelName:          hotel.Name,
			RoomType:           room.Type,
			CheckIn:            checkIn,
			CheckOut:           checkOut,
			PricePerNightCents: room.PricePerNightCents,
			Status:             domain.HotelStatusConfirmed,
		}
		return tx.HotelBookings().Create(ctx, &booking)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, hotel.OwnerID, fmt.Sprintf("New booking #%d at %s (%s) from %s to %s",
		booking.ID, hotel.Name, booking.RoomType, checkIn.Format(time.DateOnly), checkOut.Format(time.DateOnly)))
	return &booking, nil
}

func (s *BookingService) RemoveCartFlight(ctx context.Context, userID, flightBookingID int64) error {
	return s.store.FlightBookings().DeleteFromCart(ctx, userID, flightBookingID)
}

func (s *BookingService) RemoveCartHotel(ctx context.Context, userID, hotelBookingID int64) error {
	return s.store.HotelBookings().DeleteFromCart(ctx, userID, hotelBookingID)
}
