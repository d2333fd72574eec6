package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// works the same inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store hands out repositories bound to one connection scope.
type Store interface {
	Users() UserRepository
	Hotels() HotelRepository
	FlightBookings() FlightBookingRepository
	HotelBookings() HotelBookingRepository
	Bookings() BookingRepository
	Notifications() NotificationRepository

	// WithTx runs fn inside a single transaction. fn's error rolls everything back.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

const maxTxAttempts = 3

type PGStore struct {
	pool *pgxpool.Pool
	db   DBTX
	inTx bool
}

func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, db: pool}
}

func (s *PGStore) Users() UserRepository { return NewUserRepository(s.db) }
func (s *PGStore) Hotels() HotelRepository { return NewHotelRepository(s.db) }
func (s *PGStore) FlightBookings() FlightBookingRepository { return NewFlightBookingRepository(s.db) }
func (s *PGStore) HotelBookings() HotelBookingRepository { return NewHotelBookingRepository(s.db) }
func (s *PGStore) Bookings() BookingRepository { return NewBookingRepository(s.db) }
func (s *PGStore) Notifications() NotificationRepository { return NewNotificationRepository(s.db) }

func (s *PGStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !retryable(err) {
			return err
		}
	}
	return err
}

func (s *PGStore) runTx(ctx context.Context, fn func(tx Store) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&PGStore{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func retryable(err error) bool {
	switch pgCode(err) {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	}
	return false
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == pgerrcode.ForeignKeyViolation
}

// notFound swaps pgx.ErrNoRows for the given sentinel.
func notFound(err error, sentinel *domain.Error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

var _ Store = (*PGStore)(nil)
