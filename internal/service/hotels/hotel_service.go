package hotels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"go.uber.org/zap"
)

type HotelUseCase interface {
	CreateHotel(ctx context.Context, ownerID int64, input HotelInput) (*domain.Hotel, error)
	UpdateHotel(ctx context.Context, ownerID, hotelID int64, input HotelInput) (*domain.Hotel, error)
	DeleteHotel(ctx context.Context, ownerID, hotelID int64) error
	GetHotel(ctx context.Context, hotelID int64) (*domain.Hotel, error)
	ListHotels(ctx context.Context, city string) ([]domain.Hotel, error)
	UploadHotelImage(ctx context.Context, ownerID, hotelID int64, file io.Reader, filename string) (*domain.Hotel, error)

	CreateRoomType(ctx context.Context, ownerID, hotelID int64, input RoomTypeInput) (*domain.RoomType, error)
	UpdateRoomType(ctx context.Context, ownerID, hotelID, roomID int64, input RoomTypeInput) (*domain.RoomType, error)
	ListRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error)
	SetRoomAvailability(ctx context.Context, ownerID, hotelID, roomID int64, available bool) ([]domain.HotelBooking, error)

	ListHotelBookings(ctx context.Context, ownerID, hotelID int64) ([]domain.HotelBooking, error)
	CancelGuestBooking(ctx context.Context, ownerID, hotelID, bookingID int64) (*domain.HotelBooking, error)

	Availability(ctx context.Context, hotelID int64, roomTypeID *int64, checkIn, checkOut time.Time) ([]domain.RoomAvailability, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
}

type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}

type HotelInput struct {
	Name       string `json:"name" binding:"required"`
	Address    string `json:"address"`
	City       string `json:"city" binding:"required"`
	StarRating int    `json:"starRating" binding:"omitempty,min=1,max=5"`
	LogoURL    string `json:"logoUrl" binding:"omitempty,url"`
}

type RoomTypeInput struct {
	Type               string   `json:"type" binding:"required"`
	PricePerNightCents int64    `json:"pricePerNightCents" binding:"min=0"`
	Quantity           int      `json:"quantity" binding:"min=0"`
	Amenities          []string `json:"amenities"`
}

type HotelService struct {
	store    repository.Store
	notifier Notifier
	images   ImageStore
	log      *zap.Logger
}

type Option func(*HotelService)

func WithImageStore(images ImageStore) Option {
	return func(s *HotelService) {
		s.images = images
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *HotelService) {
		s.log = log
	}
}

func NewHotelService(store repository.Store, notifier Notifier, opts ...Option) *HotelService {
	s := &HotelService{store: store, notifier: notifier, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (in HotelInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.City) == "" {
		return domain.Wrap(domain.ErrInvalidInput, errors.New("name and city are required"))
	}
	if in.StarRating != 0 && (in.StarRating < 1 || in.StarRating > 5) {
		return domain.Wrap(domain.ErrInvalidInput, errors.New("star rating must be between 1 and 5"))
	}
	return nil
}

func (in RoomTypeInput) validate() error {
	if strings.TrimSpace(in.Type) == "" {
		return domain.Wrap(domain.ErrInvalidInput, errors.New("room type is required"))
	}
	if in.PricePerNightCents < 0 || in.Quantity < 0 {
		return domain.Wrap(domain.ErrInvalidInput, errors.New("price and quantity must not be negative"))
	}
	return nil
}

func (s *HotelService) CreateHotel(ctx context.Context, ownerID int64, input HotelInput) (*domain.Hotel, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if input.StarRating == 0 {
		input.StarRating = 3
	}
	hotel := &domain.Hotel{
		OwnerID:    ownerID,
		Name:       strings.TrimSpace(input.Name),
		Address:    strings.TrimSpace(input.Address),
		City:       strings.TrimSpace(input.City),
		StarRating: input.StarRating,
		LogoURL:    input.LogoURL,
	}
	if err := s.store.Hotels().Create(ctx, hotel); err != nil {
		return nil, err
	}
	return hotel, nil
}

// owned loads the hotel and checks that ownerID manages it.
func (s *HotelService) owned(ctx context.Context, hotels repository.HotelRepository, ownerID, hotelID int64) (*domain.Hotel, error) {
	hotel, err := hotels.GetByID(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if hotel.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return hotel, nil
}

func (s *HotelService) UpdateHotel(ctx context.Context, ownerID, hotelID int64, input HotelInput) (*domain.Hotel, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	hotel, err := s.owned(ctx, s.store.Hotels(), ownerID, hotelID)
	if err != nil {
		return nil, err
	}
	hotel.Name = strings.TrimSpace(input.Name)
	hotel.Address = strings.TrimSpace(input.Address)
	hotel.City = strings.TrimSpace(input.City)
	if input.StarRating != 0 {
		hotel.StarRating = input.StarRating
	}
	if input.LogoURL != "" {
		hotel.LogoURL = input.LogoURL
	}
	if err := s.store.Hotels().Update(ctx, hotel); err != nil {
		return nil, err
	}
	return hotel, nil
}

func (s *HotelService) DeleteHotel(ctx context.Context, ownerID, hotelID int64) error {
	if _, err := s.owned(ctx, s.store.Hotels(), ownerID, hotelID); err != nil {
		return err
	}
	return s.store.Hotels().Delete(ctx, hotelID)
}

func (s *HotelService) GetHotel(ctx context.Context, hotelID int64) (*domain.Hotel, error) {
	return s.store.Hotels().GetByID(ctx, hotelID)
}

func (s *HotelService) ListHotels(ctx context.Context, city string) ([]domain.Hotel, error) {
	return s.store.Hotels().List(ctx, strings.TrimSpace(city))
}

func (s *HotelService) UploadHotelImage(ctx context.Context, ownerID, hotelID int64, file io.Reader, filename string) (*domain.Hotel, error) {
	if s.images == nil {
		return nil, domain.NewError(domain.KindUpstreamFailure, "image storage is not configured")
	}
	if _, err := s.owned(ctx, s.store.Hotels(), ownerID, hotelID); err != nil {
		return nil, err
	}
	url, err := s.images.Upload(ctx, file, filename)
	if err != nil {
		return nil, domain.Wrap(domain.NewError(domain.KindUpstreamFailure, "image upload failed"), err)
	}
	if err := s.store.Hotels().AddImage(ctx, hotelID, url); err != nil {
		return nil, err
	}
	return s.store.Hotels().GetByID(ctx, hotelID)
}

func (s *HotelService) CreateRoomType(ctx context.Context, ownerID, hotelID int64, input RoomTypeInput) (*domain.RoomType, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, s.store.Hotels(), ownerID, hotelID); err != nil {
		return nil, err
	}
	room := &domain.RoomType{
		HotelID:            hotelID,
		Type:               strings.TrimSpace(input.Type),
		PricePerNightCents: input.PricePerNightCents,
		Quantity:           input.Quantity,
		Amenities:          input.Amenities,
		Available:          true,
	}
	if err := s.store.Hotels().CreateRoomType(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *HotelService) UpdateRoomType(ctx context.Context, ownerID, hotelID, roomID int64, input RoomTypeInput) (*domain.RoomType, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	hotels := s.store.Hotels()
	if _, err := s.owned(ctx, hotels, ownerID, hotelID); err != nil {
		return nil, err
	}
	room, err := hotels.GetRoomType(ctx, hotelID, roomID)
	if err != nil {
		return nil, err
	}
	room.Type = strings.TrimSpace(input.Type)
	room.PricePerNightCents = input.PricePerNightCents
	room.Quantity = input.Quantity
	room.Amenities = input.Amenities
	if err := hotels.UpdateRoomType(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *HotelService) ListRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	if _, err := s.store.Hotels().GetByID(ctx, hotelID); err != nil {
		return nil, err
	}
	return s.store.Hotels().ListRoomTypes(ctx, hotelID)
}

// SetRoomAvailability toggles the owner switch. Switching a room type off cancels
// every live booking for it in the same transaction and tells each guest afterwards.
// Switching it back on leaves cancelled bookings cancelled.
func (s *HotelService) SetRoomAvailability(ctx context.Context, ownerID, hotelID, roomID int64, available bool) ([]domain.HotelBooking, error) {
	var hotel *domain.Hotel
	cancelled := make([]domain.HotelBooking, 0)

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if hotel, err = s.owned(ctx, tx.Hotels(), ownerID, hotelID); err != nil {
			return err
		}
		if _, err := tx.Hotels().LockRoomType(ctx, hotelID, roomID); err != nil {
			return err
		}
		if err := tx.Hotels().SetRoomTypeAvailable(ctx, roomID, available); err != nil {
			return err
		}
		if available {
			return nil
		}
		cancelled, err = tx.HotelBookings().CancelByRoom(ctx, roomID)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, b := range cancelled {
		s.notify(ctx, b.UserID, fmt.Sprintf("Your booking #%d at %s (%s) was cancelled because the room is no longer available", b.ID, hotel.Name, b.RoomType))
	}
	return cancelled, nil
}

func (s *HotelService) ListHotelBookings(ctx context.Context, ownerID, hotelID int64) ([]domain.HotelBooking, error) {
	if _, err := s.owned(ctx, s.store.Hotels(), ownerID, hotelID); err != nil {
		return nil, err
	}
	return s.store.HotelBookings().ListByHotel(ctx, hotelID)
}

func (s *HotelService) CancelGuestBooking(ctx context.Context, ownerID, hotelID, bookingID int64) (*domain.HotelBooking, error) {
	hotel, err := s.owned(ctx, s.store.Hotels(), ownerID, hotelID)
	if err != nil {
		return nil, err
	}
	booking, err := s.store.HotelBookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.HotelID != hotelID {
		return nil, domain.ErrBookingNotFound
	}
	if booking.Status == domain.HotelStatusCancelled {
		return booking, nil
	}

	updated, err := s.store.HotelBookings().UpdateStatus(ctx, bookingID, domain.HotelStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, updated.UserID, fmt.Sprintf("Your booking #%d at %s was cancelled by the hotel", updated.ID, hotel.Name))
	return updated, nil
}

// notify never fails the caller.
func (s *HotelService) notify(ctx context.Context, userID int64, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, message); err != nil {
		s.log.Warn("notification failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

var _ HotelUseCase = (*HotelService)(nil)
