package booking

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Domenick1991/travelbooking/internal/afs"
	"github.com/Domenick1991/travelbooking/internal/card"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/invoice"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	ListCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddFlightToCart(ctx context.Context, userID int64, flightID string) (*domain.FlightBooking, error)
	AddHotelToCart(ctx context.Context, userID int64, input HotelCartInput) (*domain.HotelBooking, error)
	RemoveCartFlight(ctx context.Context, userID, flightBookingID int64) error
	RemoveCartHotel(ctx context.Context, userID, hotelBookingID int64) error

	Checkout(ctx context.Context, userID int64, details card.Details) (*domain.Booking, error)
	UpdateItinerary(ctx context.Context, bookingID, userID int64, details card.Details) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)

	CancelBooking(ctx context.Context, bookingID, userID int64) (*domain.Booking, error)
	CancelHotelBooking(ctx context.Context, userID, hotelBookingID int64) (*domain.HotelBooking, error)

	VerifyFlight(ctx context.Context, userID, flightBookingID int64) (*VerifyResult, error)
	VerifyScheduledFlights(ctx context.Context, limit int) (int, error)

	Invoice(ctx context.Context, bookingID, userID int64) (*invoice.Data, error)
}

// FlightGateway is the part of the flight API used for booking and schedule checks.
type FlightGateway interface {
	GetFlight(ctx context.Context, id string) (*domain.Flight, error)
	CreateBooking(ctx context.Context, flightID string, passenger afs.Passenger) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
}

type CheckoutLocker interface {
	AcquireCheckoutLock(ctx context.Context, userID int64, ttl time.Duration) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, userID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store              repository.Store
	flights            FlightGateway
	notifier           Notifier
	locker             CheckoutLocker
	lockTTL            time.Duration
	producer           Producer
	bookingTopic       string
	allowEmptyCheckout bool
	log                *zap.Logger
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithCheckoutLock(locker CheckoutLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

// WithEmptyCheckout controls whether a checkout with nothing in the cart creates an empty itinerary.
func WithEmptyCheckout(allowed bool) BookingServiceOption {
	return func(s *BookingService) {
		s.allowEmptyCheckout = allowed
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(store repository.Store, flights FlightGateway, notifier Notifier, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		store:              store,
		flights:            flights,
		notifier:           notifier,
		allowEmptyCheckout: true,
		lockTTL:            30 * time.Second,
		log:                zap.NewNop(),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	return s.loadBooking(ctx, s.store, bookingID, userID)
}

func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	bookings, err := s.store.Bookings().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		it, err := s.loadItinerary(ctx, s.store, bookings[i].ID)
		if err != nil && !errors.Is(err, domain.ErrItineraryNotFound) {
			return nil, err
		}
		bookings[i].Itinerary = it
	}
	return bookings, nil
}

// ownedBooking hides other users' bookings behind NotFound.
func ownedBooking(ctx context.Context, store repository.Store, bookingID, userID int64) (*domain.Booking, error) {
	booking, err := store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, domain.ErrBookingNotFound
	}
	return booking, nil
}

func (s *BookingService) loadBooking(ctx context.Context, store repository.Store, bookingID, userID int64) (*domain.Booking, error) {
	booking, err := ownedBooking(ctx, store, bookingID, userID)
	if err != nil {
		return nil, err
	}
	it, err := s.loadItinerary(ctx, store, bookingID)
	if err != nil {
		return nil, err
	}
	booking.Itinerary = it
	return booking, nil
}

func (s *BookingService) loadItinerary(ctx context.Context, store repository.Store, bookingID int64) (*domain.Itinerary, error) {
	it, err := store.Bookings().GetItineraryByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if it.Flights, err = store.FlightBookings().ListByItinerary(ctx, it.ID); err != nil {
		return nil, err
	}
	if it.Hotels, err = store.HotelBookings().ListByItinerary(ctx, it.ID); err != nil {
		return nil, err
	}
	return it, nil
}

// notify never fails the caller; the primary operation has already committed.
func (s *BookingService) notify(ctx context.Context, userID int64, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, message); err != nil {
		s.log.Warn("notification failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, message string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.Event{
		Type:       eventType,
		UserID:     booking.UserID,
		BookingID:  booking.ID,
		Message:    message,
		Status:     string(booking.Status),
		OccurredAt: s.now(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, strconv.FormatInt(booking.ID, 10), event); err != nil {
		s.log.Warn("failed to publish booking event", zap.String("type", eventType), zap.Int64("booking_id", booking.ID), zap.Error(err))
	}
}

var _ BookingUseCase = (*BookingService)(nil)
