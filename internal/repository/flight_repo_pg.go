package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type FlightBookingRepository interface {
	Create(ctx context.Context, booking *domain.FlightBooking) error
	GetByID(ctx context.Context, id int64) (*domain.FlightBooking, error)
	ListCart(ctx context.Context, userID int64) ([]domain.FlightBooking, error)
	// DeleteFromCart removes an unlinked row owned by the user.
	DeleteFromCart(ctx context.Context, userID, id int64) error
	// LinkCart attaches every non-cancelled cart row of the user to the itinerary.
	LinkCart(ctx context.Context, userID, itineraryID int64) ([]domain.FlightBooking, error)
	ListByItinerary(ctx context.Context, itineraryID int64) ([]domain.FlightBooking, error)
	DeleteByItinerary(ctx context.Context, userID, itineraryID int64) error
	CancelByItinerary(ctx context.Context, itineraryID int64) error
	UpdateStatus(ctx context.Context, id int64, status domain.FlightBookingStatus) (*domain.FlightBooking, error)
	ListScheduled(ctx context.Context, after time.Time, limit int) ([]domain.FlightBooking, error)
}

type PGFlightBookingRepository struct {
	db DBTX
}

func NewFlightBookingRepository(db DBTX) FlightBookingRepository {
	return &PGFlightBookingRepository{db: db}
}

const flightBookingColumns = `id, user_id, flight_id, external_ref, airline, flight_number, origin, destination,
	departure_time, arrival_time, price_cents, status, itinerary_id, created_at, updated_at`

func scanFlightBooking(row pgx.Row) (*domain.FlightBooking, error) {
	var f domain.FlightBooking
	if err := row.Scan(&f.ID, &f.UserID, &f.FlightID, &f.ExternalRef, &f.Airline, &f.FlightNumber, &f.Origin, &f.Destination,
		&f.DepartureTime, &f.ArrivalTime, &f.PriceCents, &f.Status, &f.ItineraryID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFlightBookings(rows pgx.Rows, err error) ([]domain.FlightBooking, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.FlightBooking, 0)
	for rows.Next() {
		f, err := scanFlightBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *f)
	}
	return bookings, rows.Err()
}

func (r *PGFlightBookingRepository) Create(ctx context.Context, booking *domain.FlightBooking) error {
	if booking.Status == "" {
		booking.Status = domain.FlightStatusScheduled
	}
	return r.db.QueryRow(ctx, `INSERT INTO flight_bookings (user_id, flight_id, external_ref, airline, flight_number, origin, destination,
			departure_time, arrival_time, price_cents, status, itinerary_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		booking.UserID, booking.FlightID, booking.ExternalRef, booking.Airline, booking.FlightNumber, booking.Origin, booking.Destination,
		booking.DepartureTime, booking.ArrivalTime, booking.PriceCents, booking.Status, booking.ItineraryID).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGFlightBookingRepository) GetByID(ctx context.Context, id int64) (*domain.FlightBooking, error) {
	f, err := scanFlightBooking(r.db.QueryRow(ctx, `SELECT `+flightBookingColumns+` FROM flight_bookings WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return f, nil
}

func (r *PGFlightBookingRepository) ListCart(ctx context.Context, userID int64) ([]domain.FlightBooking, error) {
	return collectFlightBookings(r.db.Query(ctx, `SELECT `+flightBookingColumns+` FROM flight_bookings
		WHERE user_id=$1 AND itinerary_id IS NULL ORDER BY id`, userID))
}

func (r *PGFlightBookingRepository) DeleteFromCart(ctx context.Context, userID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM flight_bookings WHERE id=$1 AND user_id=$2 AND itinerary_id IS NULL`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGFlightBookingRepository) LinkCart(ctx context.Context, userID, itineraryID int64) ([]domain.FlightBooking, error) {
	return collectFlightBookings(r.db.Query(ctx, `UPDATE flight_bookings SET itinerary_id=$1, updated_at=now()
		WHERE user_id=$2 AND itinerary_id IS NULL AND status <> $3
		RETURNING `+flightBookingColumns, itineraryID, userID, domain.FlightStatusCancelled))
}

func (r *PGFlightBookingRepository) ListByItinerary(ctx context.Context, itineraryID int64) ([]domain.FlightBooking, error) {
	return collectFlightBookings(r.db.Query(ctx, `SELECT `+flightBookingColumns+` FROM flight_bookings
		WHERE itinerary_id=$1 ORDER BY id`, itineraryID))
}

func (r *PGFlightBookingRepository) DeleteByItinerary(ctx context.Context, userID, itineraryID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM flight_bookings WHERE user_id=$1 AND itinerary_id=$2`, userID, itineraryID)
	return err
}

func (r *PGFlightBookingRepository) CancelByItinerary(ctx context.Context, itineraryID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE flight_bookings SET status=$1, updated_at=now() WHERE itinerary_id=$2 AND status <> $1`,
		domain.FlightStatusCancelled, itineraryID)
	return err
}

func (r *PGFlightBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.FlightBookingStatus) (*domain.FlightBooking, error) {
	f, err := scanFlightBooking(r.db.QueryRow(ctx, `UPDATE flight_bookings SET status=$1, updated_at=now() WHERE id=$2
		RETURNING `+flightBookingColumns, status, id))
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return f, nil
}

// ListScheduled returns scheduled rows departing after the given instant, least recently touched first.
func (r *PGFlightBookingRepository) ListScheduled(ctx context.Context, after time.Time, limit int) ([]domain.FlightBooking, error) {
	return collectFlightBookings(r.db.Query(ctx, `SELECT `+flightBookingColumns+` FROM flight_bookings
		WHERE status=$1 AND departure_time > $2
		ORDER BY updated_at, id LIMIT $3`, domain.FlightStatusScheduled, after, limit))
}

var _ FlightBookingRepository = (*PGFlightBookingRepository)(nil)
