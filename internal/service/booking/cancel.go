package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/repository"
)

type ownerNotice struct {
	ownerID int64
	message string
}

// CancelBooking cancels the booking, its itinerary and every flight and hotel
// booking linked to it. Cancelling twice is a no-op.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	var (
		booking   *domain.Booking
		cancelled bool
		notices   []ownerNotice
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := ownedBooking(ctx, tx, bookingID, userID)
		if err != nil {
			return err
		}
		if current.Status == domain.BookingStatusCancelled {
			booking, err = s.loadBooking(ctx, tx, bookingID, userID)
			return err
		}

		if err := tx.Bookings().UpdateStatus(ctx, bookingID, domain.BookingStatusCancelled); err != nil {
			return err
		}
		it, err := tx.Bookings().GetItineraryByBooking(ctx, bookingID)
		switch {
		case errors.Is(err, domain.ErrItineraryNotFound):
		case err != nil:
			return err
		default:
			if err := tx.Bookings().UpdateItineraryStatus(ctx, it.ID, domain.BookingStatusCancelled); err != nil {
				return err
			}
			if err := tx.FlightBookings().CancelByItinerary(ctx, it.ID); err != nil {
				return err
			}
			stays, err := tx.HotelBookings().CancelByItinerary(ctx, it.ID)
			if err != nil {
				return err
			}
			if notices, err = guestCancellationNotices(ctx, tx, stays); err != nil {
				return err
			}
		}

		cancelled = true
		booking, err = s.loadBooking(ctx, tx, bookingID, userID)
		if errors.Is(err, domain.ErrItineraryNotFound) {
			booking, err = ownedBooking(ctx, tx, bookingID, userID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return booking, nil
	}

	message := fmt.Sprintf("Booking cancelled (ID: %d)", booking.ID)
	s.notify(ctx, userID, message)
	for _, n := range notices {
		s.notify(ctx, n.ownerID, n.message)
	}
	s.publish(ctx, kafka.EventBookingCancelled, booking, message)
	return booking, nil
}

// CancelHotelBooking lets a guest drop a single stay, in the cart or already
// checked out. The hotel owner is told about it.
func (s *BookingService) CancelHotelBooking(ctx context.Context, userID, hotelBookingID int64) (*domain.HotelBooking, error) {
	var (
		stay    *domain.HotelBooking
		notices []ownerNotice
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.HotelBookings().GetByID(ctx, hotelBookingID)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return domain.ErrBookingNotFound
		}
		if current.Status == domain.HotelStatusCancelled {
			stay = current
			return nil
		}

		if stay, err = tx.HotelBookings().UpdateStatus(ctx, hotelBookingID, domain.HotelStatusCancelled); err != nil {
			return err
		}
		notices, err = guestCancellationNotices(ctx, tx, []domain.HotelBooking{*stay})
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, n := range notices {
		s.notify(ctx, n.ownerID, n.message)
	}
	return stay, nil
}

func guestCancellationNotices(ctx context.Context, tx repository.Store, stays []domain.HotelBooking) ([]ownerNotice, error) {
	owners := make(map[int64]int64)
	notices := make([]ownerNotice, 0, len(stays))
	for _, stay := range stays {
		ownerID, ok := owners[stay.HotelID]
		if !ok {
			hotel, err := tx.Hotels().GetByID(ctx, stay.HotelID)
			if err != nil {
				return nil, err
			}
			ownerID = hotel.OwnerID
			owners[stay.HotelID] = ownerID
		}
		notices = append(notices, ownerNotice{
			ownerID: ownerID,
			message: fmt.Sprintf("Booking #%d at %s (%s) was cancelled by the guest", stay.ID, stay.HotelName, stay.RoomType),
		})
	}
	return notices, nil
}
