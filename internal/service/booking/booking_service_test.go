package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/afs"
	"github.com/Domenick1991/travelbooking/internal/card"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/repository/memory"
	"github.com/Domenick1991/travelbooking/internal/service/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetFlight(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockGateway) CreateBooking(ctx context.Context, flightID string, passenger afs.Passenger) (string, error) {
	args := m.Called(ctx, flightID, passenger)
	return args.String(0), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireCheckoutLock(ctx context.Context, userID int64, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, userID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) ReleaseCheckoutLock(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var (
	validCard   = card.Details{Number: "4539578763621486", ExpiryMonth: 12, ExpiryYear: 2030}
	expiredCard = card.Details{Number: "4539578763621486", ExpiryMonth: 1, ExpiryYear: 2024}
	fixedNow    = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func scheduledFlight(id string, priceCents int64) *domain.Flight {
	return &domain.Flight{
		ID:             id,
		Airline:        "Delta",
		FlightNumber:   "DL" + id,
		Origin:         "JFK",
		Destination:    "LAX",
		DepartureTime:  time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		ArrivalTime:    time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		PriceCents:     priceCents,
		AvailableSeats: 12,
		Status:         domain.FlightScheduled,
	}
}

type fixture struct {
	store   *memory.Store
	gateway *MockGateway
	service *BookingService
	owner   domain.User
	guest   domain.User
	other   domain.User
	hotel   domain.Hotel
	room    domain.RoomType
}

func newFixture(t *testing.T, quantity int, opts ...BookingServiceOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{store: store, gateway: &MockGateway{}}
	f.owner = store.AddUser(domain.User{FirstName: "Olga", LastName: "Owner", Email: "owner@example.com", Role: domain.RoleAdmin})
	f.guest = store.AddUser(domain.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	f.other = store.AddUser(domain.User{FirstName: "Bob", Email: "bob@example.com"})
	f.hotel = store.AddHotel(domain.Hotel{OwnerID: f.owner.ID, Name: "Seaside", City: "Miami", StarRating: 4})
	f.room = store.AddRoomType(domain.RoomType{HotelID: f.hotel.ID, Type: "Deluxe", PricePerNightCents: 10000, Quantity: quantity, Available: true})

	opts = append([]BookingServiceOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	f.service = NewBookingService(store, f.gateway, notifications.NewDispatcher(store.Notifications()), opts...)
	return f
}

func (f *fixture) addFlight(t *testing.T, userID int64, flightID string, priceCents int64) *domain.FlightBooking {
	t.Helper()
	f.gateway.On("GetFlight", mock.Anything, flightID).Return(scheduledFlight(flightID, priceCents), nil).Once()
	f.gateway.On("CreateBooking", mock.Anything, flightID, mock.AnythingOfType("afs.Passenger")).Return("REF-"+flightID, nil).Once()
	booking, err := f.service.AddFlightToCart(context.Background(), userID, flightID)
	require.NoError(t, err)
	return booking
}

func (f *fixture) addStay(t *testing.T, userID int64, checkIn, checkOut string) *domain.HotelBooking {
	t.Helper()
	booking, err := f.service.AddHotelToCart(context.Background(), userID, HotelCartInput{
		HotelID: f.hotel.ID, RoomID: f.room.ID, CheckIn: day(checkIn), CheckOut: day(checkOut),
	})
	require.NoError(t, err)
	return booking
}

func (f *fixture) messages(userID int64) []string {
	out := make([]string, 0)
	for _, n := range f.store.NotificationsFor(userID) {
		out = append(out, n.Message)
	}
	return out
}

func TestBookingService_EndToEnd(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	flight := f.addFlight(t, f.guest.ID, "100", 30000)
	assert.Equal(t, "REF-100", flight.ExternalRef)
	assert.Equal(t, domain.FlightStatusScheduled, flight.Status)
	assert.Nil(t, flight.ItineraryID)

	stay := f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-03")
	assert.Equal(t, domain.HotelStatusConfirmed, stay.Status)
	assert.Equal(t, int64(10000), stay.PricePerNightCents)
	assert.Contains(t, f.messages(f.owner.ID)[0], fmt.Sprintf("New booking #%d at Seaside (Deluxe)", stay.ID))

	cart, err := f.service.ListCart(ctx, f.guest.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Flights, 1)
	assert.Len(t, cart.Hotels, 1)

	booking, err := f.service.Checkout(ctx, f.guest.ID, validCard)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	require.NotNil(t, booking.Itinerary)
	require.NotNil(t, booking.Itinerary.BookingID)
	assert.Equal(t, booking.ID, *booking.Itinerary.BookingID)
	assert.Len(t, booking.Itinerary.Flights, 1)
	assert.Len(t, booking.Itinerary.Hotels, 1)
	assert.Equal(t, int64(50000), booking.Itinerary.TotalCents())

	cart, err = f.service.ListCart(ctx, f.guest.ID)
	require.NoError(t, err)
	assert.True(t, cart.Empty())

	assert.Contains(t, f.messages(f.guest.ID), fmt.Sprintf("Itinerary confirmed (ID: %d)", booking.ID))

	got, err := f.service.GetBooking(ctx, booking.ID, f.guest.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.Itinerary.ID, got.Itinerary.ID)
	assert.Len(t, got.Itinerary.Flights, 1)

	list, err := f.service.ListBookings(ctx, f.guest.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].Itinerary)

	data, err := f.service.Invoice(ctx, booking.ID, f.guest.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data.Number)
	assert.Equal(t, "Ada Lovelace", data.Customer.Name)
	assert.Equal(t, fixedNow, data.IssuedAt)
	assert.Equal(t, int64(50000), data.TotalCents())

	_, err = f.service.GetBooking(ctx, booking.ID, f.other.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	f.gateway.AssertExpectations(t)
}

func TestBookingService_AddHotelToCart_Capacity(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-05")

	// the checkout day of one stay still occupies the room
	_, err := f.service.AddHotelToCart(ctx, f.other.ID, HotelCartInput{
		HotelID: f.hotel.ID, RoomID: f.room.ID, CheckIn: day("2025-06-05"), CheckOut: day("2025-06-07"),
	})
	assert.ErrorIs(t, err, domain.ErrNoCapacity)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	f.addStay(t, f.other.ID, "2025-06-06", "2025-06-08")
}

func TestBookingService_AddHotelToCart_Errors(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.service.AddHotelToCart(ctx, f.guest.ID, HotelCartInput{
		HotelID: f.hotel.ID, RoomID: f.room.ID, CheckIn: day("2025-06-05"), CheckOut: day("2025-06-01"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDates)

	_, err = f.service.AddHotelToCart(ctx, f.guest.ID, HotelCartInput{
		HotelID: f.hotel.ID + 100, RoomID: f.room.ID, CheckIn: day("2025-06-01"), CheckOut: day("2025-06-02"),
	})
	assert.ErrorIs(t, err, domain.ErrHotelNotFound)

	closed := f.store.AddRoomType(domain.RoomType{HotelID: f.hotel.ID, Type: "Closed", Quantity: 3})
	_, err = f.service.AddHotelToCart(ctx, f.guest.ID, HotelCartInput{
		HotelID: f.hotel.ID, RoomID: closed.ID, CheckIn: day("2025-06-01"), CheckOut: day("2025-06-02"),
	})
	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
}

func TestBookingService_AddFlightToCart_NotScheduled(t *testing.T) {
	f := newFixture(t, 1)
	delayed := scheduledFlight("200", 10000)
	delayed.Status = "DELAYED"
	f.gateway.On("GetFlight", mock.Anything, "200").Return(delayed, nil).Once()

	_, err := f.service.AddFlightToCart(context.Background(), f.guest.ID, "200")

	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	f.gateway.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_AddFlightToCart_UpstreamFailure(t *testing.T) {
	f := newFixture(t, 1)
	f.gateway.On("GetFlight", mock.Anything, "300").Return(scheduledFlight("300", 10000), nil).Once()
	f.gateway.On("CreateBooking", mock.Anything, "300", afs.Passenger{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}).
		Return("", domain.Wrap(domain.ErrUpstream, errors.New("503"))).Once()

	_, err := f.service.AddFlightToCart(context.Background(), f.guest.ID, "300")

	assert.Equal(t, domain.KindUpstreamFailure, domain.KindOf(err))
	cart, err := f.service.ListCart(context.Background(), f.guest.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Flights)
}

func TestBookingService_RemoveFromCart(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	flight := f.addFlight(t, f.guest.ID, "100", 30000)
	stay := f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-02")

	assert.ErrorIs(t, f.service.RemoveCartFlight(ctx, f.other.ID, flight.ID), domain.ErrBookingNotFound)
	require.NoError(t, f.service.RemoveCartFlight(ctx, f.guest.ID, flight.ID))
	require.NoError(t, f.service.RemoveCartHotel(ctx, f.guest.ID, stay.ID))

	cart, err := f.service.ListCart(ctx, f.guest.ID)
	require.NoError(t, err)
	assert.True(t, cart.Empty())
}

func TestBookingService_Checkout_CapturesWholeCart(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	f.addFlight(t, f.guest.ID, "100", 30000)
	f.addFlight(t, f.guest.ID, "101", 32000)
	for i := 0; i < 3; i++ {
		f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-02")
	}
	f.addFlight(t, f.other.ID, "102", 10000)

	booking, err := f.service.Checkout(ctx, f.guest.ID, validCard)
	require.NoError(t, err)
	assert.Len(t, booking.Itinerary.Flights, 2)
	assert.Len(t, booking.Itinerary.Hotels, 3)

	// nothing left: the default policy still records an empty itinerary
	second, err := f.service.Checkout(ctx, f.guest.ID, validCard)
	require.NoError(t, err)
	assert.Empty(t, second.Itinerary.Flights)
	assert.Empty(t, second.Itinerary.Hotels)
	assert.Len(t, f.store.Itineraries(), 2)

	cart, err := f.service.ListCart(ctx, f.other.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Flights, 1)
}

func TestBookingService_Checkout_SkipsCancelledCartRows(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	stay := f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-02")
	_, err := f.service.CancelHotelBooking(ctx, f.guest.ID, stay.ID)
	require.NoError(t, err)

	booking, err := f.service.Checkout(ctx, f.guest.ID, validCard)

	require.NoError(t, err)
	assert.Empty(t, booking.Itinerary.Hotels)
}

func TestBookingService_Checkout_EmptyCartRejected(t *testing.T) {
	f := newFixture(t, 1, WithEmptyCheckout(false))

	_, err := f.service.Checkout(context.Background(), f.guest.ID, validCard)

	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, f.store.Itineraries())
}

func TestBookingService_Checkout_InvalidCard(t *testing.T) {
	f := newFixture(t, 1)
	f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-02")

	for _, details := range []card.Details{
		expiredCard,
		{Number: "4539578763621487", ExpiryMonth: 12, ExpiryYear: 2030},
		{Number: "", ExpiryMonth: 12, ExpiryYear: 2030},
	} {
		_, err := f.service.Checkout(context.Background(), f.guest.ID, details)
		assert.ErrorIs(t, err, domain.ErrInvalidCard)
	}

	cart, err := f.service.ListCart(context.Background(), f.guest.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Hotels, 1)
	assert.Empty(t, f.store.Itineraries())
}

func TestBookingService_Checkout_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	f.addFlight(t, f.guest.ID, "100", 30000)
	f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-02")
	f.store.FailOn("Bookings.Create", errors.New("connection reset"))

	_, err := f.service.Checkout(ctx, f.guest.ID, validCard)

	require.Error(t, err)
	assert.Empty(t, f.store.Itineraries())
	cart, err := f.service.ListCart(ctx, f.guest.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Flights, 1)
	assert.Len(t, cart.Hotels, 1)
	assert.NotContains(t, f.messages(f.guest.ID), "Itinerary confirmed (ID: 0)")
}

func TestBookingService_Checkout_LockAndEvents(t *testing.T) {
	locker := &MockLocker{}
	producer := &MockProducer{}
	f := newFixture(t, 1, WithCheckoutLock(locker, time.Minute), WithEvents(producer, "bookings"))

	locker.On("AcquireCheckoutLock", mock.Anything, f.guest.ID, time.Minute).Return(true, nil).Once()
	locker.On("ReleaseCheckoutLock", mock.Anything, f.guest.ID).Return(nil).Once()
	producer.On("Publish", mock.Anything, "bookings", mock.AnythingOfType("string"), mock.MatchedBy(func(e kafka.Event) bool {
		return e.Type == kafka.EventBookingConfirmed && e.UserID == f.guest.ID && e.Status == "CONFIRMED"
	})).Return(nil).Once()

	booking, err := f.service.Checkout(context.Background(), f.guest.ID, validCard)

	require.NoError(t, err)
	assert.NotZero(t, booking.ID)
	locker.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_Checkout_ConcurrentCheckoutRejected(t *testing.T) {
	locker := &MockLocker{}
	f := newFixture(t, 1, WithCheckoutLock(locker, time.Minute))
	locker.On("AcquireCheckoutLock", mock.Anything, f.guest.ID, time.Minute).Return(false, nil).Once()

	_, err := f.service.Checkout(context.Background(), f.guest.ID, validCard)

	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)
	assert.Empty(t, f.store.Itineraries())
	locker.AssertNotCalled(t, "ReleaseCheckoutLock", mock.Anything, mock.Anything)
}

func TestBookingService_Checkout_LockBackendDown(t *testing.T) {
	locker := &MockLocker{}
	f := newFixture(t, 1, WithCheckoutLock(locker, time.Minute))
	locker.On("AcquireCheckoutLock", mock.Anything, f.guest.ID, time.Minute).Return(false, errors.New("redis: connection refused")).Once()

	_, err := f.service.Checkout(context.Background(), f.guest.ID, validCard)

	require.NoError(t, err)
	locker.AssertNotCalled(t, "ReleaseCheckoutLock", mock.Anything, mock.Anything)
}

func TestBookingService_UpdateItinerary_ReplacesItems(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	oldFlight := f.addFlight(t, f.guest.ID, "100", 30000)
	booking, err := f.service.Checkout(ctx, f.guest.ID, validCard)
	require.NoError(t, err)

	newStay := f.addStay(t, f.guest.ID, "2025-07-01", "2025-07-04")

	updated, err := f.service.UpdateItinerary(ctx, booking.ID, f.guest.ID, validCard)
	require.NoError(t, err)
	assert.Equal(t, booking.Itinerary.ID, updated.Itinerary.ID)
	assert.Empty(t, updated.Itinerary.Flights)
	require.Len(t, updated.Itinerary.Hotels, 1)
	assert.Equal(t, newStay.ID, updated.Itinerary.Hotels[0].ID)

	_, ok := f.store.FlightBooking(oldFlight.ID)
	assert.False(t, ok)
	assert.Contains(t, f.messages(f.guest.ID), fmt.Sprintf("Itinerary updated (ID: %d)", booking.ID))
}

func TestBookingService_UpdateItinerary_Errors(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	booking, err := f.service.Checkout(ctx, f.guest.ID, validCard)
	require.NoError(t, err)

	_, err = f.service.UpdateItinerary(ctx, booking.ID, f.guest.ID, expiredCard)
	assert.ErrorIs(t, err, domain.ErrInvalidCard)

	_, err = f.service.UpdateItinerary(ctx, booking.ID, f.other.ID, validCard)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = f.service.UpdateItinerary(ctx, booking.ID+1000, f.guest.ID, validCard)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = f.service.CancelBooking(ctx, booking.ID, f.guest.ID)
	require.NoError(t, err)
	_, err = f.service.UpdateItinerary(ctx, booking.ID, f.guest.ID, validCard)
	assert.ErrorIs(t, err, domain.ErrBookingCancelled)
}

func TestBookingService_CancelBooking_Cascades(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	flight := f.addFlight(t, f.guest.ID, "100", 30000)
	stay := f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-03")
	booking, err := f.service.Checkout(ctx, f.guest.ID, validCard)
	require.NoError(t, err)

	cancelled, err := f.service.CancelBooking(ctx, booking.ID, f.guest.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Itinerary.Status)

	storedFlight, _ := f.store.FlightBooking(flight.ID)
	assert.Equal(t, domain.FlightStatusCancelled, storedFlight.Status)
	storedStay, _ := f.store.HotelBooking(stay.ID)
	assert.Equal(t, domain.HotelStatusCancelled, storedStay.Status)

	assert.Contains(t, f.messages(f.guest.ID), fmt.Sprintf("Booking cancelled (ID: %d)", booking.ID))
	assert.Contains(t, f.messages(f.owner.ID), fmt.Sprintf("Booking #%d at Seaside (Deluxe) was cancelled by the guest", stay.ID))

	// the room is free again
	f.addStay(t, f.other.ID, "2025-06-02", "2025-06-02")

	guestMessages := len(f.messages(f.guest.ID))
	again, err := f.service.CancelBooking(ctx, booking.ID, f.guest.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, again.Status)
	assert.Len(t, f.messages(f.guest.ID), guestMessages)

	_, err = f.service.CancelBooking(ctx, booking.ID, f.other.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingService_CancelBooking_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	stay := f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-03")
	booking, err := f.service.Checkout(ctx, f.guest.ID, validCard)
	require.NoError(t, err)
	f.store.FailOn("HotelBookings.CancelByItinerary", errors.New("deadlock"))

	_, err = f.service.CancelBooking(ctx, booking.ID, f.guest.ID)

	require.Error(t, err)
	got, err := f.service.GetBooking(ctx, booking.ID, f.guest.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, got.Status)
	assert.Equal(t, domain.BookingStatusConfirmed, got.Itinerary.Status)
	storedStay, _ := f.store.HotelBooking(stay.ID)
	assert.Equal(t, domain.HotelStatusConfirmed, storedStay.Status)
}

func TestBookingService_CancelHotelBooking(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	stay := f.addStay(t, f.guest.ID, "2025-06-01", "2025-06-03")

	_, err := f.service.CancelHotelBooking(ctx, f.other.ID, stay.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	got, err := f.service.CancelHotelBooking(ctx, f.guest.ID, stay.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HotelStatusCancelled, got.Status)
	assert.Contains(t, f.messages(f.owner.ID), fmt.Sprintf("Booking #%d at Seaside (Deluxe) was cancelled by the guest", stay.ID))

	ownerMessages := len(f.messages(f.owner.ID))
	_, err = f.service.CancelHotelBooking(ctx, f.guest.ID, stay.ID)
	require.NoError(t, err)
	assert.Len(t, f.messages(f.owner.ID), ownerMessages)
}

func TestBookingService_VerifyFlight(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	flight := f.addFlight(t, f.guest.ID, "100", 30000)

	f.gateway.On("GetFlight", mock.Anything, "100").Return(scheduledFlight("100", 30000), nil).Once()
	res, err := f.service.VerifyFlight(ctx, f.guest.ID, flight.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "Flight schedule unchanged", res.Message)

	delayed := scheduledFlight("100", 30000)
	delayed.Status = "DELAYED"
	f.gateway.On("GetFlight", mock.Anything, "100").Return(delayed, nil).Once()
	res, err = f.service.VerifyFlight(ctx, f.guest.ID, flight.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, domain.FlightStatusCancelled, res.Booking.Status)
	msgs := f.messages(f.guest.ID)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1], "is now DELAYED")

	// no upstream call once the row is cancelled
	res, err = f.service.VerifyFlight(ctx, f.guest.ID, flight.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	_, err = f.service.VerifyFlight(ctx, f.other.ID, flight.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	f.gateway.AssertExpectations(t)
}

func TestBookingService_VerifyFlight_MissingLiveStatus(t *testing.T) {
	f := newFixture(t, 1)
	flight := f.addFlight(t, f.guest.ID, "100", 30000)

	unknown := scheduledFlight("100", 30000)
	unknown.Status = ""
	f.gateway.On("GetFlight", mock.Anything, "100").Return(unknown, nil).Once()

	res, err := f.service.VerifyFlight(context.Background(), f.guest.ID, flight.ID)

	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, domain.FlightStatusCancelled, res.Booking.Status)
	msgs := f.messages(f.guest.ID)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1], "is now UNKNOWN")
	f.gateway.AssertExpectations(t)
}

func TestBookingService_VerifyFlight_UpstreamErrors(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	flight := f.addFlight(t, f.guest.ID, "100", 30000)

	f.gateway.On("GetFlight", mock.Anything, "100").Return(nil, domain.Wrap(domain.ErrUpstream, errors.New("timeout"))).Once()
	_, err := f.service.VerifyFlight(ctx, f.guest.ID, flight.ID)
	assert.Equal(t, domain.KindUpstreamFailure, domain.KindOf(err))
	stored, _ := f.store.FlightBooking(flight.ID)
	assert.Equal(t, domain.FlightStatusScheduled, stored.Status)

	f.gateway.On("GetFlight", mock.Anything, "100").Return(nil, domain.ErrFlightNotFound).Once()
	res, err := f.service.VerifyFlight(ctx, f.guest.ID, flight.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestBookingService_VerifyScheduledFlights(t *testing.T) {
	f := newFixture(t, 1)
	kept := f.addFlight(t, f.guest.ID, "100", 30000)
	dropped := f.addFlight(t, f.other.ID, "101", 20000)
	broken := f.addFlight(t, f.other.ID, "102", 20000)

	cancelled := scheduledFlight("101", 20000)
	cancelled.Status = "CANCELLED"
	f.gateway.On("GetFlight", mock.Anything, "100").Return(scheduledFlight("100", 30000), nil).Once()
	f.gateway.On("GetFlight", mock.Anything, "101").Return(cancelled, nil).Once()
	f.gateway.On("GetFlight", mock.Anything, "102").Return(nil, domain.Wrap(domain.ErrUpstream, errors.New("502"))).Once()

	n, err := f.service.VerifyScheduledFlights(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	stored, _ := f.store.FlightBooking(kept.ID)
	assert.Equal(t, domain.FlightStatusScheduled, stored.Status)
	stored, _ = f.store.FlightBooking(dropped.ID)
	assert.Equal(t, domain.FlightStatusCancelled, stored.Status)
	stored, _ = f.store.FlightBooking(broken.ID)
	assert.Equal(t, domain.FlightStatusScheduled, stored.Status)
}
