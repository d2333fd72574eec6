package repository

import (
	"context"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

// BookingRepository persists bookings and the itinerary each one wraps.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error

	CreateItinerary(ctx context.Context, itinerary *domain.Itinerary) error
	SetItineraryBooking(ctx context.Context, itineraryID, bookingID int64) error
	GetItineraryByBooking(ctx context.Context, bookingID int64) (*domain.Itinerary, error)
	UpdateItineraryStatus(ctx context.Context, itineraryID int64, status domain.BookingStatus) error
}

type PGBookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	if booking.Status == "" {
		booking.Status = domain.BookingStatusConfirmed
	}
	return r.db.QueryRow(ctx, `INSERT INTO bookings (user_id, status) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		booking.UserID, booking.Status).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.QueryRow(ctx, `SELECT id, user_id, status, created_at, updated_at FROM bookings WHERE id=$1`, id).
		Scan(&b.ID, &b.UserID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return &b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, status, created_at, updated_at FROM bookings
		WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGBookingRepository) CreateItinerary(ctx context.Context, itinerary *domain.Itinerary) error {
	if itinerary.Status == "" {
		itinerary.Status = domain.BookingStatusConfirmed
	}
	return r.db.QueryRow(ctx, `INSERT INTO itineraries (status, booking_id) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		itinerary.Status, itinerary.BookingID).Scan(&itinerary.ID, &itinerary.CreatedAt, &itinerary.UpdatedAt)
}

func (r *PGBookingRepository) SetItineraryBooking(ctx context.Context, itineraryID, bookingID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE itineraries SET booking_id=$1, updated_at=now() WHERE id=$2`, bookingID, itineraryID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.KindConflict, "booking already has an itinerary")
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrItineraryNotFound
	}
	return nil
}

func (r *PGBookingRepository) GetItineraryByBooking(ctx context.Context, bookingID int64) (*domain.Itinerary, error) {
	var it domain.Itinerary
	err := r.db.QueryRow(ctx, `SELECT id, status, booking_id, created_at, updated_at FROM itineraries WHERE booking_id=$1`, bookingID).
		Scan(&it.ID, &it.Status, &it.BookingID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrItineraryNotFound)
	}
	return &it, nil
}

func (r *PGBookingRepository) UpdateItineraryStatus(ctx context.Context, itineraryID int64, status domain.BookingStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE itineraries SET status=$1, updated_at=now() WHERE id=$2`, status, itineraryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrItineraryNotFound
	}
	return nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
