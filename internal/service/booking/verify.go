package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"go.uber.org/zap"
)

type VerifyResult struct {
	Changed bool                  `json:"changed"`
	Message string                `json:"message"`
	Booking *domain.FlightBooking `json:"booking,omitempty"`
}

// VerifyFlight compares a booked flight with the provider's live schedule and
// cancels the local booking when the flight is no longer as booked.
func (s *BookingService) VerifyFlight(ctx context.Context, userID, flightBookingID int64) (*VerifyResult, error) {
	booking, err := s.store.FlightBookings().GetByID(ctx, flightBookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, domain.ErrBookingNotFound
	}
	return s.verify(ctx, booking)
}

// VerifyScheduledFlights re-checks up to limit scheduled bookings departing in
// the future and reports how many were cancelled. Failures on single rows are
// logged and skipped.
func (s *BookingService) VerifyScheduledFlights(ctx context.Context, limit int) (int, error) {
	bookings, err := s.store.FlightBookings().ListScheduled(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range bookings {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		res, err := s.verify(ctx, &bookings[i])
		if err != nil {
			s.log.Warn("flight verification failed", zap.Int64("flight_booking_id", bookings[i].ID), zap.Error(err))
			continue
		}
		if res.Changed {
			changed++
		}
	}
	return changed, nil
}

func (s *BookingService) verify(ctx context.Context, booking *domain.FlightBooking) (*VerifyResult, error) {
	if booking.Status == domain.FlightStatusCancelled {
		return &VerifyResult{Message: "Flight booking is already cancelled", Booking: booking}, nil
	}

	liveStatus := ""
	live, err := s.flights.GetFlight(ctx, booking.FlightID)
	switch {
	case errors.Is(err, domain.ErrFlightNotFound):
		liveStatus = "REMOVED"
	case err != nil:
		return nil, err
	case live.Status == "":
		liveStatus = "UNKNOWN"
	default:
		liveStatus = live.Status
	}

	if liveStatus == string(booking.Status) && liveStatus == domain.FlightScheduled {
		return &VerifyResult{Message: "Flight schedule unchanged", Booking: booking}, nil
	}

	updated, err := s.store.FlightBookings().UpdateStatus(ctx, booking.ID, domain.FlightStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.log.Info("flight booking cancelled after schedule change",
		zap.Int64("flight_booking_id", booking.ID), zap.String("flight_id", booking.FlightID), zap.String("live_status", liveStatus))
	s.notify(ctx, booking.UserID, fmt.Sprintf("Flight %s %s (%s to %s) is now %s; your flight booking #%d was cancelled",
		booking.Airline, booking.FlightNumber, booking.Origin, booking.Destination, liveStatus, booking.ID))

	return &VerifyResult{
		Changed: true,
		Message: "Flight schedule changed. Booking cancelled.",
		Booking: updated,
	}, nil
}
