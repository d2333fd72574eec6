package booking

import (
	"context"
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/card"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"go.uber.org/zap"
)

// Checkout turns everything in the user's cart into a confirmed itinerary and
// the booking that wraps it. The card is validated, never charged.
func (s *BookingService) Checkout(ctx context.Context, userID int64, details card.Details) (*domain.Booking, error) {
	if !details.Valid(s.now()) {
		return nil, domain.ErrInvalidCard
	}

	release, err := s.lockCheckout(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var booking *domain.Booking
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		it := &domain.Itinerary{Status: domain.BookingStatusConfirmed}
		if err := tx.Bookings().CreateItinerary(ctx, it); err != nil {
			return err
		}

		flights, err := tx.FlightBookings().LinkCart(ctx, userID, it.ID)
		if err != nil {
			return err
		}
		hotels, err := tx.HotelBookings().LinkCart(ctx, userID, it.ID)
		if err != nil {
			return err
		}
		captured := domain.Cart{Flights: flights, Hotels: hotels}
		if !s.allowEmptyCheckout && captured.Empty() {
			return domain.ErrEmptyCart
		}

		booking = &domain.Booking{UserID: userID, Status: domain.BookingStatusConfirmed}
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return err
		}
		if err := tx.Bookings().SetItineraryBooking(ctx, it.ID, booking.ID); err != nil {
			return err
		}

		it.BookingID = &booking.ID
		it.Flights, it.Hotels = flights, hotels
		booking.Itinerary = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Itinerary confirmed (ID: %d)", booking.ID)
	s.notify(ctx, userID, message)
	s.publish(ctx, kafka.EventBookingConfirmed, booking, message)
	return booking, nil
}

// UpdateItinerary replaces the items of an existing booking with the current
// cart: rows linked before are deleted, cart rows are linked instead.
func (s *BookingService) UpdateItinerary(ctx context.Context, bookingID, userID int64, details card.Details) (*domain.Booking, error) {
	if !details.Valid(s.now()) {
		return nil, domain.ErrInvalidCard
	}

	release, err := s.lockCheckout(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var booking *domain.Booking
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := ownedBooking(ctx, tx, bookingID, userID)
		if err != nil {
			return err
		}
		if current.Status == domain.BookingStatusCancelled {
			return domain.ErrBookingCancelled
		}
		it, err := tx.Bookings().GetItineraryByBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if err := tx.FlightBookings().DeleteByItinerary(ctx, userID, it.ID); err != nil {
			return err
		}
		if err := tx.HotelBookings().DeleteByItinerary(ctx, userID, it.ID); err != nil {
			return err
		}
		if _, err := tx.FlightBookings().LinkCart(ctx, userID, it.ID); err != nil {
			return err
		}
		if _, err := tx.HotelBookings().LinkCart(ctx, userID, it.ID); err != nil {
			return err
		}

		booking, err = s.loadBooking(ctx, tx, bookingID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Itinerary updated (ID: %d)", booking.ID)
	s.notify(ctx, userID, message)
	s.publish(ctx, kafka.EventBookingUpdated, booking, message)
	return booking, nil
}

// lockCheckout serializes checkouts of one user across instances. A Redis
// outage degrades to no lock; the transaction still keeps the data consistent.
func (s *BookingService) lockCheckout(ctx context.Context, userID int64) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	ok, err := s.locker.AcquireCheckoutLock(ctx, userID, s.lockTTL)
	if err != nil {
		s.log.Warn("checkout lock unavailable", zap.Int64("user_id", userID), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, domain.ErrCheckoutInProgress
	}
	return func() {
		if err := s.locker.ReleaseCheckoutLock(context.WithoutCancel(ctx), userID); err != nil {
			s.log.Warn("failed to release checkout lock", zap.Int64("user_id", userID), zap.Error(err))
		}
	}, nil
}
