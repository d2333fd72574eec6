package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type HotelBookingRepository interface {
	Create(ctx context.Context, booking *domain.HotelBooking) error
	GetByID(ctx context.Context, id int64) (*domain.HotelBooking, error)
	ListCart(ctx context.Context, userID int64) ([]domain.HotelBooking, error)
	DeleteFromCart(ctx context.Context, userID, id int64) error
	LinkCart(ctx context.Context, userID, itineraryID int64) ([]domain.HotelBooking, error)
	ListByItinerary(ctx context.Context, itineraryID int64) ([]domain.HotelBooking, error)
	ListByHotel(ctx context.Context, hotelID int64) ([]domain.HotelBooking, error)
	DeleteByItinerary(ctx context.Context, userID, itineraryID int64) error
	// CancelByItinerary returns the rows it flipped to CANCELLED.
	CancelByItinerary(ctx context.Context, itineraryID int64) ([]domain.HotelBooking, error)
	CancelByRoom(ctx context.Context, roomID int64) ([]domain.HotelBooking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.HotelBookingStatus) (*domain.HotelBooking, error)
	// CountOverlapping counts CONFIRMED stays of the room that touch [checkIn, checkOut], boundaries included.
	CountOverlapping(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (int, error)
}

type PGHotelBookingRepository struct {
	db DBTX
}

func NewHotelBookingRepository(db DBTX) HotelBookingRepository {
	return &PGHotelBookingRepository{db: db}
}

const hotelBookingSelect = `SELECT hb.id, hb.user_id, hb.hotel_id, hb.room_id, h.name, rt.type, hb.check_in, hb.check_out,
	hb.price_per_night_cents, hb.status, hb.itinerary_id, hb.created_at, hb.updated_at`

const hotelBookingJoins = ` JOIN hotels h ON h.id = hb.hotel_id JOIN room_types rt ON rt.id = hb.room_id`

func scanHotelBooking(row pgx.Row) (*domain.HotelBooking, error) {
	var b domain.HotelBooking
	if err := row.Scan(&b.ID, &b.UserID, &b.HotelID, &b.RoomID, &b.HotelName, &b.RoomType, &b.CheckIn, &b.CheckOut,
		&b.PricePerNightCents, &b.Status, &b.ItineraryID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectHotelBookings(rows pgx.Rows, err error) ([]domain.HotelBooking, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.HotelBooking, 0)
	for rows.Next() {
		b, err := scanHotelBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// updatedHotelBookings wraps a data-modifying statement that returns hotel_bookings rows
// so the result carries the joined hotel name and room type.
func updatedHotelBookings(statement string) string {
	return `WITH hb AS (` + statement + ` RETURNING *) ` + hotelBookingSelect + ` FROM hb` + hotelBookingJoins + ` ORDER BY hb.id`
}

func (r *PGHotelBookingRepository) Create(ctx context.Context, booking *domain.HotelBooking) error {
	if booking.Status == "" {
		booking.Status = domain.HotelStatusConfirmed
	}
	err := r.db.QueryRow(ctx, `INSERT INTO hotel_bookings (user_id, hotel_id, room_id, check_in, check_out, price_per_night_cents, status, itinerary_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		booking.UserID, booking.HotelID, booking.RoomID, booking.CheckIn, booking.CheckOut, booking.PricePerNightCents, booking.Status, booking.ItineraryID).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if isForeignKeyViolation(err) {
		return domain.ErrRoomNotFound
	}
	return err
}

func (r *PGHotelBookingRepository) GetByID(ctx context.Context, id int64) (*domain.HotelBooking, error) {
	b, err := scanHotelBooking(r.db.QueryRow(ctx, hotelBookingSelect+` FROM hotel_bookings hb`+hotelBookingJoins+` WHERE hb.id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return b, nil
}

func (r *PGHotelBookingRepository) ListCart(ctx context.Context, userID int64) ([]domain.HotelBooking, error) {
	return collectHotelBookings(r.db.Query(ctx, hotelBookingSelect+` FROM hotel_bookings hb`+hotelBookingJoins+`
		WHERE hb.user_id=$1 AND hb.itinerary_id IS NULL ORDER BY hb.id`, userID))
}

func (r *PGHotelBookingRepository) DeleteFromCart(ctx context.Context, userID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM hotel_bookings WHERE id=$1 AND user_id=$2 AND itinerary_id IS NULL`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGHotelBookingRepository) LinkCart(ctx context.Context, userID, itineraryID int64) ([]domain.HotelBooking, error) {
	return collectHotelBookings(r.db.Query(ctx, updatedHotelBookings(`UPDATE hotel_bookings SET itinerary_id=$1, updated_at=now()
		WHERE user_id=$2 AND itinerary_id IS NULL AND status <> $3`), itineraryID, userID, domain.HotelStatusCancelled))
}

func (r *PGHotelBookingRepository) ListByItinerary(ctx context.Context, itineraryID int64) ([]domain.HotelBooking, error) {
	return collectHotelBookings(r.db.Query(ctx, hotelBookingSelect+` FROM hotel_bookings hb`+hotelBookingJoins+`
		WHERE hb.itinerary_id=$1 ORDER BY hb.id`, itineraryID))
}

func (r *PGHotelBookingRepository) ListByHotel(ctx context.Context, hotelID int64) ([]domain.HotelBooking, error) {
	return collectHotelBookings(r.db.Query(ctx, hotelBookingSelect+` FROM hotel_bookings hb`+hotelBookingJoins+`
		WHERE hb.hotel_id=$1 ORDER BY hb.check_in, hb.id`, hotelID))
}

func (r *PGHotelBookingRepository) DeleteByItinerary(ctx context.Context, userID, itineraryID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM hotel_bookings WHERE user_id=$1 AND itinerary_id=$2`, userID, itineraryID)
	return err
}

func (r *PGHotelBookingRepository) CancelByItinerary(ctx context.Context, itineraryID int64) ([]domain.HotelBooking, error) {
	return collectHotelBookings(r.db.Query(ctx, updatedHotelBookings(`UPDATE hotel_bookings SET status=$1, updated_at=now()
		WHERE itinerary_id=$2 AND status <> $1`), domain.HotelStatusCancelled, itineraryID))
}

func (r *PGHotelBookingRepository) CancelByRoom(ctx context.Context, roomID int64) ([]domain.HotelBooking, error) {
	return collectHotelBookings(r.db.Query(ctx, updatedHotelBookings(`UPDATE hotel_bookings SET status=$1, updated_at=now()
		WHERE room_id=$2 AND status <> $1`), domain.HotelStatusCancelled, roomID))
}

func (r *PGHotelBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.HotelBookingStatus) (*domain.HotelBooking, error) {
	b, err := scanHotelBooking(r.db.QueryRow(ctx, updatedHotelBookings(`UPDATE hotel_bookings SET status=$1, updated_at=now() WHERE id=$2`), status, id))
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return b, nil
}

func (r *PGHotelBookingRepository) CountOverlapping(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM hotel_bookings
		WHERE room_id=$1 AND status=$2 AND check_in <= $3 AND check_out >= $4`,
		roomID, domain.HotelStatusConfirmed, checkOut, checkIn).Scan(&n)
	return n, err
}

var _ HotelBookingRepository = (*PGHotelBookingRepository)(nil)
