package repository

import (
	"context"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type HotelRepository interface {
	Create(ctx context.Context, hotel *domain.Hotel) error
	Update(ctx context.Context, hotel *domain.Hotel) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Hotel, error)
	List(ctx context.Context, city string) ([]domain.Hotel, error)
	AddImage(ctx context.Context, hotelID int64, url string) error

	CreateRoomType(ctx context.Context, room *domain.RoomType) error
	UpdateRoomType(ctx context.Context, room *domain.RoomType) error
	GetRoomType(ctx context.Context, hotelID, roomID int64) (*domain.RoomType, error)
	// LockRoomType takes a row lock held until the surrounding transaction ends.
	LockRoomType(ctx context.Context, hotelID, roomID int64) (*domain.RoomType, error)
	ListRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error)
	SetRoomTypeAvailable(ctx context.Context, roomID int64, available bool) error
}

type PGHotelRepository struct {
	db DBTX
}

func NewHotelRepository(db DBTX) HotelRepository {
	return &PGHotelRepository{db: db}
}

const hotelColumns = `id, owner_id, name, address, city, star_rating, logo_url, images, created_at, updated_at`

const roomColumns = `id, hotel_id, type, price_per_night_cents, quantity, amenities, images, available, created_at, updated_at`

func scanHotel(row pgx.Row) (*domain.Hotel, error) {
	var h domain.Hotel
	if err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Address, &h.City, &h.StarRating, &h.LogoURL, &h.Images, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func scanRoom(row pgx.Row) (*domain.RoomType, error) {
	var r domain.RoomType
	if err := row.Scan(&r.ID, &r.HotelID, &r.Type, &r.PricePerNightCents, &r.Quantity, &r.Amenities, &r.Images, &r.Available, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *PGHotelRepository) Create(ctx context.Context, hotel *domain.Hotel) error {
	if hotel.Images == nil {
		hotel.Images = []string{}
	}
	return r.db.QueryRow(ctx, `INSERT INTO hotels (owner_id, name, address, city, star_rating, logo_url, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`, hotel.OwnerID, hotel.Name, hotel.Address, hotel.City, hotel.StarRating, hotel.LogoURL, hotel.Images).
		Scan(&hotel.ID, &hotel.CreatedAt, &hotel.UpdatedAt)
}

func (r *PGHotelRepository) Update(ctx context.Context, hotel *domain.Hotel) error {
	err := r.db.QueryRow(ctx, `UPDATE hotels SET name=$2, address=$3, city=$4, star_rating=$5, logo_url=$6, updated_at=now()
		WHERE id=$1 RETURNING updated_at`, hotel.ID, hotel.Name, hotel.Address, hotel.City, hotel.StarRating, hotel.LogoURL).
		Scan(&hotel.UpdatedAt)
	return notFound(err, domain.ErrHotelNotFound)
}

func (r *PGHotelRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM hotels WHERE id=$1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewError(domain.KindConflict, "hotel has bookings")
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrHotelNotFound
	}
	return nil
}

func (r *PGHotelRepository) GetByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRow(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrHotelNotFound)
	}
	return h, nil
}

func (r *PGHotelRepository) List(ctx context.Context, city string) ([]domain.Hotel, error) {
	rows, err := r.db.Query(ctx, `SELECT `+hotelColumns+` FROM hotels
		WHERE $1 = '' OR lower(city) = lower($1)
		ORDER BY name, id`, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hotels := make([]domain.Hotel, 0)
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		hotels = append(hotels, *h)
	}
	return hotels, rows.Err()
}

func (r *PGHotelRepository) AddImage(ctx context.Context, hotelID int64, url string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE hotels SET images = array_append(images, $2), updated_at = now() WHERE id=$1`, hotelID, url)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrHotelNotFound
	}
	return nil
}

func (r *PGHotelRepository) CreateRoomType(ctx context.Context, room *domain.RoomType) error {
	if room.Amenities == nil {
		room.Amenities = []string{}
	}
	if room.Images == nil {
		room.Images = []string{}
	}
	err := r.db.QueryRow(ctx, `INSERT INTO room_types (hotel_id, type, price_per_night_cents, quantity, amenities, images, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`, room.HotelID, room.Type, room.PricePerNightCents, room.Quantity, room.Amenities, room.Images, room.Available).
		Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if isForeignKeyViolation(err) {
		return domain.ErrHotelNotFound
	}
	return err
}

func (r *PGHotelRepository) UpdateRoomType(ctx context.Context, room *domain.RoomType) error {
	if room.Amenities == nil {
		room.Amenities = []string{}
	}
	err := r.db.QueryRow(ctx, `UPDATE room_types SET type=$3, price_per_night_cents=$4, quantity=$5, amenities=$6, updated_at=now()
		WHERE id=$1 AND hotel_id=$2 RETURNING updated_at`, room.ID, room.HotelID, room.Type, room.PricePerNightCents, room.Quantity, room.Amenities).
		Scan(&room.UpdatedAt)
	return notFound(err, domain.ErrRoomNotFound)
}

func (r *PGHotelRepository) GetRoomType(ctx context.Context, hotelID, roomID int64) (*domain.RoomType, error) {
	room, err := scanRoom(r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM room_types WHERE id=$1 AND hotel_id=$2`, roomID, hotelID))
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return room, nil
}

func (r *PGHotelRepository) LockRoomType(ctx context.Context, hotelID, roomID int64) (*domain.RoomType, error) {
	room, err := scanRoom(r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM room_types WHERE id=$1 AND hotel_id=$2 FOR UPDATE`, roomID, hotelID))
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return room, nil
}

func (r *PGHotelRepository) ListRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roomColumns+` FROM room_types WHERE hotel_id=$1 ORDER BY id`, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]domain.RoomType, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

func (r *PGHotelRepository) SetRoomTypeAvailable(ctx context.Context, roomID int64, available bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE room_types SET available=$2, updated_at=now() WHERE id=$1`, roomID, available)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

var _ HotelRepository = (*PGHotelRepository)(nil)
