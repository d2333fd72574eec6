// Package memory is an in-process repository.Store used by workflow tests.
// Transactions are serialized and rolled back by restoring a snapshot.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
)

type state struct {
	nextID        int64
	users         map[int64]domain.User
	hotels        map[int64]domain.Hotel
	rooms         map[int64]domain.RoomType
	flights       map[int64]domain.FlightBooking
	hotelBookings map[int64]domain.HotelBooking
	bookings      map[int64]domain.Booking
	itineraries   map[int64]domain.Itinerary
	notifications map[int64]domain.Notification
}

func newState() *state {
	return &state{
		users:         map[int64]domain.User{},
		hotels:        map[int64]domain.Hotel{},
		rooms:         map[int64]domain.RoomType{},
		flights:       map[int64]domain.FlightBooking{},
		hotelBookings: map[int64]domain.HotelBooking{},
		bookings:      map[int64]domain.Booking{},
		itineraries:   map[int64]domain.Itinerary{},
		notifications: map[int64]domain.Notification{},
	}
}

func (st *state) clone() *state {
	c := newState()
	c.nextID = st.nextID
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.hotels {
		v.Images = slices.Clone(v.Images)
		c.hotels[k] = v
	}
	for k, v := range st.rooms {
		v.Amenities = slices.Clone(v.Amenities)
		v.Images = slices.Clone(v.Images)
		c.rooms[k] = v
	}
	for k, v := range st.flights {
		c.flights[k] = v
	}
	for k, v := range st.hotelBookings {
		c.hotelBookings[k] = v
	}
	for k, v := range st.bookings {
		c.bookings[k] = v
	}
	for k, v := range st.itineraries {
		c.itineraries[k] = v
	}
	for k, v := range st.notifications {
		c.notifications[k] = v
	}
	return c
}

func (st *state) id() int64 {
	st.nextID++
	return st.nextID
}

type shared struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	data  *state
	fails map[string]error
	now   func() time.Time
}

type Store struct {
	sh   *shared
	inTx bool
}

func NewStore() *Store {
	return &Store{sh: &shared{data: newState(), fails: map[string]error{}, now: time.Now}}
}

// FailOn makes every later call of op (e.g. "Bookings.Create") return err.
// A nil err clears the failure.
func (s *Store) FailOn(op string, err error) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if err == nil {
		delete(s.sh.fails, op)
		return
	}
	s.sh.fails[op] = err
}

// lock takes the data mutex and reports the injected failure for op, if any.
func (s *Store) lock(op string) error {
	s.sh.mu.Lock()
	if err, ok := s.sh.fails[op]; ok {
		s.sh.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) unlock() { s.sh.mu.Unlock() }

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Hotels() repository.HotelRepository { return hotelRepo{s} }
func (s *Store) FlightBookings() repository.FlightBookingRepository { return flightRepo{s} }
func (s *Store) HotelBookings() repository.HotelBookingRepository { return hotelBookingRepo{s} }
func (s *Store) Bookings() repository.BookingRepository { return bookingRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.sh.txMu.Lock()
	defer s.sh.txMu.Unlock()

	s.sh.mu.Lock()
	snapshot := s.sh.data.clone()
	s.sh.mu.Unlock()

	if err := fn(&Store{sh: s.sh, inTx: true}); err != nil {
		s.sh.mu.Lock()
		*s.sh.data = *snapshot
		s.sh.mu.Unlock()
		return err
	}
	return nil
}

// Seed helpers for tests.

func (s *Store) AddUser(u domain.User) domain.User {
	_ = userRepo{s}.Create(context.Background(), &u)
	return u
}

func (s *Store) AddHotel(h domain.Hotel) domain.Hotel {
	_ = hotelRepo{s}.Create(context.Background(), &h)
	return h
}

func (s *Store) AddRoomType(r domain.RoomType) domain.RoomType {
	_ = hotelRepo{s}.CreateRoomType(context.Background(), &r)
	return r
}

func (s *Store) FlightBooking(id int64) (domain.FlightBooking, bool) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	f, ok := s.sh.data.flights[id]
	return f, ok
}

func (s *Store) HotelBooking(id int64) (domain.HotelBooking, bool) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	b, ok := s.sh.data.hotelBookings[id]
	return b, ok
}

func (s *Store) Itineraries() []domain.Itinerary {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	out := make([]domain.Itinerary, 0, len(s.sh.data.itineraries))
	for _, it := range s.sh.data.itineraries {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) NotificationsFor(userID int64) []domain.Notification {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	out := make([]domain.Notification, 0)
	for _, n := range s.sh.data.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	if err := r.s.lock("Users.Create"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range d.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.ID = d.id()
	user.CreatedAt = r.s.sh.now()
	user.UpdatedAt = user.CreatedAt
	d.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if err := r.s.lock("Users.GetByID"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	u, ok := r.s.sh.data.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if err := r.s.lock("Users.GetByEmail"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.sh.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

var (
	_ repository.Store          = (*Store)(nil)
	_ repository.UserRepository = userRepo{}
)
