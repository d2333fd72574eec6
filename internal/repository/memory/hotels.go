package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
)

type hotelRepo struct{ s *Store }

func (r hotelRepo) Create(_ context.Context, hotel *domain.Hotel) error {
	if err := r.s.lock("Hotels.Create"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	if hotel.Images == nil {
		hotel.Images = []string{}
	}
	hotel.ID = d.id()
	hotel.CreatedAt = r.s.sh.now()
	hotel.UpdatedAt = hotel.CreatedAt
	d.hotels[hotel.ID] = *hotel
	return nil
}

func (r hotelRepo) Update(_ context.Context, hotel *domain.Hotel) error {
	if err := r.s.lock("Hotels.Update"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	cur, ok := d.hotels[hotel.ID]
	if !ok {
		return domain.ErrHotelNotFound
	}
	cur.Name, cur.Address, cur.City = hotel.Name, hotel.Address, hotel.City
	cur.StarRating, cur.LogoURL = hotel.StarRating, hotel.LogoURL
	cur.UpdatedAt = r.s.sh.now()
	d.hotels[hotel.ID] = cur
	hotel.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r hotelRepo) Delete(_ context.Context, id int64) error {
	if err := r.s.lock("Hotels.Delete"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	if _, ok := d.hotels[id]; !ok {
		return domain.ErrHotelNotFound
	}
	for _, b := range d.hotelBookings {
		if b.HotelID == id {
			return domain.NewError(domain.KindConflict, "hotel has bookings")
		}
	}
	for rid, room := range d.rooms {
		if room.HotelID == id {
			delete(d.rooms, rid)
		}
	}
	delete(d.hotels, id)
	return nil
}

func (r hotelRepo) GetByID(_ context.Context, id int64) (*domain.Hotel, error) {
	if err := r.s.lock("Hotels.GetByID"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	h, ok := r.s.sh.data.hotels[id]
	if !ok {
		return nil, domain.ErrHotelNotFound
	}
	h.Images = slices.Clone(h.Images)
	return &h, nil
}

func (r hotelRepo) List(_ context.Context, city string) ([]domain.Hotel, error) {
	if err := r.s.lock("Hotels.List"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	out := make([]domain.Hotel, 0)
	for _, h := range r.s.sh.data.hotels {
		if city == "" || strings.EqualFold(h.City, city) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r hotelRepo) AddImage(_ context.Context, hotelID int64, url string) error {
	if err := r.s.lock("Hotels.AddImage"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	h, ok := d.hotels[hotelID]
	if !ok {
		return domain.ErrHotelNotFound
	}
	h.Images = append(slices.Clone(h.Images), url)
	h.UpdatedAt = r.s.sh.now()
	d.hotels[hotelID] = h
	return nil
}

func (r hotelRepo) CreateRoomType(_ context.Context, room *domain.RoomType) error {
	if err := r.s.lock("Hotels.CreateRoomType"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	if _, ok := d.hotels[room.HotelID]; !ok {
		return domain.ErrHotelNotFound
	}
	if room.Amenities == nil {
		room.Amenities = []string{}
	}
	if room.Images == nil {
		room.Images = []string{}
	}
	room.ID = d.id()
	room.CreatedAt = r.s.sh.now()
	room.UpdatedAt = room.CreatedAt
	d.rooms[room.ID] = *room
	return nil
}

func (r hotelRepo) UpdateRoomType(_ context.Context, room *domain.RoomType) error {
	if err := r.s.lock("Hotels.UpdateRoomType"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	cur, ok := d.rooms[room.ID]
	if !ok || cur.HotelID != room.HotelID {
		return domain.ErrRoomNotFound
	}
	cur.Type, cur.PricePerNightCents, cur.Quantity = room.Type, room.PricePerNightCents, room.Quantity
	cur.Amenities = slices.Clone(room.Amenities)
	if cur.Amenities == nil {
		cur.Amenities = []string{}
	}
	cur.UpdatedAt = r.s.sh.now()
	d.rooms[room.ID] = cur
	room.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r hotelRepo) getRoom(op string, hotelID, roomID int64) (*domain.RoomType, error) {
	if err := r.s.lock(op); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	room, ok := r.s.sh.data.rooms[roomID]
	if !ok || room.HotelID != hotelID {
		return nil, domain.ErrRoomNotFound
	}
	room.Amenities = slices.Clone(room.Amenities)
	room.Images = slices.Clone(room.Images)
	return &room, nil
}

func (r hotelRepo) GetRoomType(_ context.Context, hotelID, roomID int64) (*domain.RoomType, error) {
	return r.getRoom("Hotels.GetRoomType", hotelID, roomID)
}

// LockRoomType relies on WithTx serializing transactions.
func (r hotelRepo) LockRoomType(_ context.Context, hotelID, roomID int64) (*domain.RoomType, error) {
	return r.getRoom("Hotels.LockRoomType", hotelID, roomID)
}

func (r hotelRepo) ListRoomTypes(_ context.Context, hotelID int64) ([]domain.RoomType, error) {
	if err := r.s.lock("Hotels.ListRoomTypes"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	out := make([]domain.RoomType, 0)
	for _, id := range sortedKeys(d.rooms) {
		if room := d.rooms[id]; room.HotelID == hotelID {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r hotelRepo) SetRoomTypeAvailable(_ context.Context, roomID int64, available bool) error {
	if err := r.s.lock("Hotels.SetRoomTypeAvailable"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	room, ok := d.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Available = available
	room.UpdatedAt = r.s.sh.now()
	d.rooms[roomID] = room
	return nil
}

var _ repository.HotelRepository = hotelRepo{}
