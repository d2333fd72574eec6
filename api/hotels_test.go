package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/hotels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHotelUseCase struct {
	mock.Mock
}

func (m *MockHotelUseCase) hotel(args mock.Arguments) (*domain.Hotel, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hotel), args.Error(1)
}

func (m *MockHotelUseCase) room(args mock.Arguments) (*domain.RoomType, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoomType), args.Error(1)
}

func (m *MockHotelUseCase) CreateHotel(ctx context.Context, ownerID int64, input hotels.HotelInput) (*domain.Hotel, error) {
	return m.hotel(m.Called(ctx, ownerID, input))
}

func (m *MockHotelUseCase) UpdateHotel(ctx context.Context, ownerID, hotelID int64, input hotels.HotelInput) (*domain.Hotel, error) {
	return m.hotel(m.Called(ctx, ownerID, hotelID, input))
}

func (m *MockHotelUseCase) DeleteHotel(ctx context.Context, ownerID, hotelID int64) error {
	return m.Called(ctx, ownerID, hotelID).Error(0)
}

func (m *MockHotelUseCase) GetHotel(ctx context.Context, hotelID int64) (*domain.Hotel, error) {
	return m.hotel(m.Called(ctx, hotelID))
}

func (m *MockHotelUseCase) ListHotels(ctx context.Context, city string) ([]domain.Hotel, error) {
	args := m.Called(ctx, city)
	return args.Get(0).([]domain.Hotel), args.Error(1)
}

func (m *MockHotelUseCase) UploadHotelImage(ctx context.Context, ownerID, hotelID int64, file io.Reader, filename string) (*domain.Hotel, error) {
	return m.hotel(m.Called(ctx, ownerID, hotelID, file, filename))
}

func (m *MockHotelUseCase) CreateRoomType(ctx context.Context, ownerID, hotelID int64, input hotels.RoomTypeInput) (*domain.RoomType, error) {
	return m.room(m.Called(ctx, ownerID, hotelID, input))
}

func (m *MockHotelUseCase) UpdateRoomType(ctx context.Context, ownerID, hotelID, roomID int64, input hotels.RoomTypeInput) (*domain.RoomType, error) {
	return m.room(m.Called(ctx, ownerID, hotelID, roomID, input))
}

func (m *MockHotelUseCase) ListRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	args := m.Called(ctx, hotelID)
	return args.Get(0).([]domain.RoomType), args.Error(1)
}

func (m *MockHotelUseCase) SetRoomAvailability(ctx context.Context, ownerID, hotelID, roomID int64, available bool) ([]domain.HotelBooking, error) {
	args := m.Called(ctx, ownerID, hotelID, roomID, available)
	return args.Get(0).([]domain.HotelBooking), args.Error(1)
}

func (m *MockHotelUseCase) ListHotelBookings(ctx context.Context, ownerID, hotelID int64) ([]domain.HotelBooking, error) {
	args := m.Called(ctx, ownerID, hotelID)
	return args.Get(0).([]domain.HotelBooking), args.Error(1)
}

func (m *MockHotelUseCase) CancelGuestBooking(ctx context.Context, ownerID, hotelID, bookingID int64) (*domain.HotelBooking, error) {
	args := m.Called(ctx, ownerID, hotelID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HotelBooking), args.Error(1)
}

func (m *MockHotelUseCase) Availability(ctx context.Context, hotelID int64, roomTypeID *int64, checkIn, checkOut time.Time) ([]domain.RoomAvailability, error) {
	args := m.Called(ctx, hotelID, roomTypeID, checkIn, checkOut)
	return args.Get(0).([]domain.RoomAvailability), args.Error(1)
}

func hotelEngine(service hotels.HotelUseCase) http.Handler {
	return newEngine("/hotels", NewHotelHandler(service).Register)
}

func TestHotelHandler_list(t *testing.T) {
	service := &MockHotelUseCase{}
	service.On("ListHotels", mock.Anything, "Miami").Return([]domain.Hotel{{ID: 1, Name: "Seaside", City: "Miami"}}, nil).Once()

	w := perform(hotelEngine(service), http.MethodGet, "/hotels?city=Miami", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got []domain.Hotel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Seaside", got[0].Name)
	service.AssertExpectations(t)
}

func TestHotelHandler_availability(t *testing.T) {
	service := &MockHotelUseCase{}
	checkIn := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	deluxe := domain.RoomAvailability{RoomTypeID: 5, Type: "Deluxe", TotalRooms: 4, AvailableRooms: 3, OccupiedRooms: 1}
	suite := domain.RoomAvailability{RoomTypeID: 6, Type: "Suite", TotalRooms: 1, AvailableRooms: 0, OccupiedRooms: 1}
	roomID := int64(5)
	service.On("Availability", mock.Anything, int64(2), &roomID, checkIn, checkOut).Return([]domain.RoomAvailability{deluxe}, nil).Once()
	service.On("Availability", mock.Anything, int64(2), (*int64)(nil), checkIn, checkOut).Return([]domain.RoomAvailability{deluxe, suite}, nil).Once()
	engine := hotelEngine(service)

	w := perform(engine, http.MethodGet, "/hotels/2/bookings/availability?startDate=2025-06-01&endDate=2025-06-03&roomType=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var single availabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &single))
	assert.Equal(t, availabilityResponse{RoomTypeID: 5, Type: "Deluxe", VacantRooms: 3, TotalRooms: 4, OccupiedRooms: 1}, single)

	w = perform(engine, http.MethodGet, "/hotels/2/bookings/availability?startDate=2025-06-01&endDate=2025-06-03", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []availabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)
	assert.Equal(t, 0, all[1].VacantRooms)

	w = perform(engine, http.MethodGet, "/hotels/2/bookings/availability?startDate=2025-06-01", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertExpectations(t)
}

func TestHotelHandler_create_AdminOnly(t *testing.T) {
	service := &MockHotelUseCase{}
	input := hotels.HotelInput{Name: "Seaside", City: "Miami", StarRating: 4}
	service.On("CreateHotel", mock.Anything, adminIdentity.ID, input).Return(&domain.Hotel{ID: 3, OwnerID: adminIdentity.ID, Name: "Seaside"}, nil).Once()
	engine := hotelEngine(service)

	w := perform(engine, http.MethodPost, "/hotels", "guest", input)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(engine, http.MethodPost, "/hotels", "", input)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(engine, http.MethodPost, "/hotels", "admin", hotels.HotelInput{City: "Miami"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(engine, http.MethodPost, "/hotels", "admin", input)
	assert.Equal(t, http.StatusCreated, w.Code)
	service.AssertExpectations(t)
}

func TestHotelHandler_update_NotOwner(t *testing.T) {
	service := &MockHotelUseCase{}
	input := hotels.HotelInput{Name: "Seaside", City: "Miami"}
	service.On("UpdateHotel", mock.Anything, adminIdentity.ID, int64(9), input).Return(nil, domain.ErrForbidden).Once()

	w := perform(hotelEngine(service), http.MethodPut, "/hotels/9", "admin", input)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHotelHandler_setRoomAvailability(t *testing.T) {
	service := &MockHotelUseCase{}
	cancelled := []domain.HotelBooking{{ID: 1, Status: domain.HotelStatusCancelled}, {ID: 2, Status: domain.HotelStatusCancelled}}
	service.On("SetRoomAvailability", mock.Anything, adminIdentity.ID, int64(2), int64(5), false).Return(cancelled, nil).Once()
	engine := hotelEngine(service)

	w := perform(engine, http.MethodPut, "/hotels/2/rooms/5/availability", "admin", map[string]bool{"available": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":2`)

	w = perform(engine, http.MethodPut, "/hotels/2/rooms/5/availability", "admin", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertExpectations(t)
}

func TestHotelHandler_cancelBooking(t *testing.T) {
	service := &MockHotelUseCase{}
	service.On("CancelGuestBooking", mock.Anything, adminIdentity.ID, int64(2), int64(8)).
		Return(&domain.HotelBooking{ID: 8, Status: domain.HotelStatusCancelled}, nil).Once()

	w := perform(hotelEngine(service), http.MethodPatch, "/hotels/2/bookings/8/cancel", "admin", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestHotelHandler_uploadImage(t *testing.T) {
	service := &MockHotelUseCase{}
	service.On("UploadHotelImage", mock.Anything, adminIdentity.ID, int64(2), mock.Anything, "lobby.jpg").
		Return(&domain.Hotel{ID: 2, Images: []string{"https://cdn.example.com/lobby.jpg"}}, nil).Once()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "lobby.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg bytes"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/hotels/2/images", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin")
	w := httptest.NewRecorder()
	hotelEngine(service).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "lobby.jpg")
	service.AssertExpectations(t)
}
