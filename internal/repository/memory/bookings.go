package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
)

func linkedTo(itineraryID *int64, id int64) bool {
	return itineraryID != nil && *itineraryID == id
}

type flightRepo struct{ s *Store }

func (r flightRepo) Create(_ context.Context, booking *domain.FlightBooking) error {
	if err := r.s.lock("FlightBookings.Create"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	if booking.Status == "" {
		booking.Status = domain.FlightStatusScheduled
	}
	booking.ID = d.id()
	booking.CreatedAt = r.s.sh.now()
	booking.UpdatedAt = booking.CreatedAt
	d.flights[booking.ID] = *booking
	return nil
}

func (r flightRepo) GetByID(_ context.Context, id int64) (*domain.FlightBooking, error) {
	if err := r.s.lock("FlightBookings.GetByID"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	f, ok := r.s.sh.data.flights[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &f, nil
}

func (r flightRepo) filter(op string, keep func(domain.FlightBooking) bool) ([]domain.FlightBooking, error) {
	if err := r.s.lock(op); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	out := make([]domain.FlightBooking, 0)
	for _, id := range sortedKeys(d.flights) {
		if f := d.flights[id]; keep(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// update applies fn to every matching row and returns the rows after the change.
func (r flightRepo) update(op string, match func(domain.FlightBooking) bool, fn func(*domain.FlightBooking)) ([]domain.FlightBooking, error) {
	if err := r.s.lock(op); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	out := make([]domain.FlightBooking, 0)
	for _, id := range sortedKeys(d.flights) {
		f := d.flights[id]
		if !match(f) {
			continue
		}
		fn(&f)
		f.UpdatedAt = r.s.sh.now()
		d.flights[id] = f
		out = append(out, f)
	}
	return out, nil
}

func (r flightRepo) ListCart(_ context.Context, userID int64) ([]domain.FlightBooking, error) {
	return r.filter("FlightBookings.ListCart", func(f domain.FlightBooking) bool {
		return f.UserID == userID && f.ItineraryID == nil
	})
}

func (r flightRepo) DeleteFromCart(_ context.Context, userID, id int64) error {
	if err := r.s.lock("FlightBookings.DeleteFromCart"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	f, ok := d.flights[id]
	if !ok || f.UserID != userID || f.ItineraryID != nil {
		return domain.ErrBookingNotFound
	}
	delete(d.flights, id)
	return nil
}

func (r flightRepo) LinkCart(_ context.Context, userID, itineraryID int64) ([]domain.FlightBooking, error) {
	return r.update("FlightBookings.LinkCart", func(f domain.FlightBooking) bool {
		return f.UserID == userID && f.ItineraryID == nil && f.Status != domain.FlightStatusCancelled
	}, func(f *domain.FlightBooking) {
		id := itineraryID
		f.ItineraryID = &id
	})
}

func (r flightRepo) ListByItinerary(_ context.Context, itineraryID int64) ([]domain.FlightBooking, error) {
	return r.filter("FlightBookings.ListByItinerary", func(f domain.FlightBooking) bool {
		return linkedTo(f.ItineraryID, itineraryID)
	})
}

func (r flightRepo) DeleteByItinerary(_ context.Context, userID, itineraryID int64) error {
	if err := r.s.lock("FlightBookings.DeleteByItinerary"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	for id, f := range d.flights {
		if f.UserID == userID && linkedTo(f.ItineraryID, itineraryID) {
			delete(d.flights, id)
		}
	}
	return nil
}

func (r flightRepo) CancelByItinerary(_ context.Context, itineraryID int64) error {
	_, err := r.update("FlightBookings.CancelByItinerary", func(f domain.FlightBooking) bool {
		return linkedTo(f.ItineraryID, itineraryID) && f.Status != domain.FlightStatusCancelled
	}, func(f *domain.FlightBooking) {
		f.Status = domain.FlightStatusCancelled
	})
	return err
}

func (r flightRepo) UpdateStatus(_ context.Context, id int64, status domain.FlightBookingStatus) (*domain.FlightBooking, error) {
	out, err := r.update("FlightBookings.UpdateStatus", func(f domain.FlightBooking) bool {
		return f.ID == id
	}, func(f *domain.FlightBooking) {
		f.Status = status
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrBookingNotFound
	}
	return &out[0], nil
}

func (r flightRepo) ListScheduled(_ context.Context, after time.Time, limit int) ([]domain.FlightBooking, error) {
	out, err := r.filter("FlightBookings.ListScheduled", func(f domain.FlightBooking) bool {
		return f.Status == domain.FlightStatusScheduled && f.DepartureTime.After(after)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type hotelBookingRepo struct{ s *Store }

func (d *state) decorate(b domain.HotelBooking) domain.HotelBooking {
	b.HotelName = d.hotels[b.HotelID].Name
	b.RoomType = d.rooms[b.RoomID].Type
	return b
}

func (r hotelBookingRepo) Create(_ context.Context, booking *domain.HotelBooking) error {
	if err := r.s.lock("HotelBookings.Create"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	room, ok := d.rooms[booking.RoomID]
	if !ok || room.HotelID != booking.HotelID {
		return domain.ErrRoomNotFound
	}
	if booking.Status == "" {
		booking.Status = domain.HotelStatusConfirmed
	}
	booking.ID = d.id()
	booking.CreatedAt = r.s.sh.now()
	booking.UpdatedAt = booking.CreatedAt
	d.hotelBookings[booking.ID] = *booking
	*booking = d.decorate(*booking)
	return nil
}

func (r hotelBookingRepo) GetByID(_ context.Context, id int64) (*domain.HotelBooking, error) {
	if err := r.s.lock("HotelBookings.GetByID"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	b, ok := d.hotelBookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b = d.decorate(b)
	return &b, nil
}

func (r hotelBookingRepo) filter(op string, keep func(domain.HotelBooking) bool) ([]domain.HotelBooking, error) {
	if err := r.s.lock(op); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	out := make([]domain.HotelBooking, 0)
	for _, id := range sortedKeys(d.hotelBookings) {
		if b := d.hotelBookings[id]; keep(b) {
			out = append(out, d.decorate(b))
		}
	}
	return out, nil
}

func (r hotelBookingRepo) update(op string, match func(domain.HotelBooking) bool, fn func(*domain.HotelBooking)) ([]domain.HotelBooking, error) {
	if err := r.s.lock(op); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	out := make([]domain.HotelBooking, 0)
	for _, id := range sortedKeys(d.hotelBookings) {
		b := d.hotelBookings[id]
		if !match(b) {
			continue
		}
		fn(&b)
		b.UpdatedAt = r.s.sh.now()
		d.hotelBookings[id] = b
		out = append(out, d.decorate(b))
	}
	return out, nil
}

func (r hotelBookingRepo) ListCart(_ context.Context, userID int64) ([]domain.HotelBooking, error) {
	return r.filter("HotelBookings.ListCart", func(b domain.HotelBooking) bool {
		return b.UserID == userID && b.ItineraryID == nil
	})
}

func (r hotelBookingRepo) DeleteFromCart(_ context.Context, userID, id int64) error {
	if err := r.s.lock("HotelBookings.DeleteFromCart"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	b, ok := d.hotelBookings[id]
	if !ok || b.UserID != userID || b.ItineraryID != nil {
		return domain.ErrBookingNotFound
	}
	delete(d.hotelBookings, id)
	return nil
}

func (r hotelBookingRepo) LinkCart(_ context.Context, userID, itineraryID int64) ([]domain.HotelBooking, error) {
	return r.update("HotelBookings.LinkCart", func(b domain.HotelBooking) bool {
		return b.UserID == userID && b.ItineraryID == nil && b.Status != domain.HotelStatusCancelled
	}, func(b *domain.HotelBooking) {
		id := itineraryID
		b.ItineraryID = &id
	})
}

func (r hotelBookingRepo) ListByItinerary(_ context.Context, itineraryID int64) ([]domain.HotelBooking, error) {
	return r.filter("HotelBookings.ListByItinerary", func(b domain.HotelBooking) bool {
		return linkedTo(b.ItineraryID, itineraryID)
	})
}

func (r hotelBookingRepo) ListByHotel(_ context.Context, hotelID int64) ([]domain.HotelBooking, error) {
	return r.filter("HotelBookings.ListByHotel", func(b domain.HotelBooking) bool {
		return b.HotelID == hotelID
	})
}

func (r hotelBookingRepo) DeleteByItinerary(_ context.Context, userID, itineraryID int64) error {
	if err := r.s.lock("HotelBookings.DeleteByItinerary"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	for id, b := range d.hotelBookings {
		if b.UserID == userID && linkedTo(b.ItineraryID, itineraryID) {
			delete(d.hotelBookings, id)
		}
	}
	return nil
}

func (r hotelBookingRepo) cancel(b *domain.HotelBooking) {
	b.Status = domain.HotelStatusCancelled
}

func (r hotelBookingRepo) CancelByItinerary(_ context.Context, itineraryID int64) ([]domain.HotelBooking, error) {
	return r.update("HotelBookings.CancelByItinerary", func(b domain.HotelBooking) bool {
		return linkedTo(b.ItineraryID, itineraryID) && b.Status != domain.HotelStatusCancelled
	}, r.cancel)
}

func (r hotelBookingRepo) CancelByRoom(_ context.Context, roomID int64) ([]domain.HotelBooking, error) {
	return r.update("HotelBookings.CancelByRoom", func(b domain.HotelBooking) bool {
		return b.RoomID == roomID && b.Status != domain.HotelStatusCancelled
	}, r.cancel)
}

func (r hotelBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.HotelBookingStatus) (*domain.HotelBooking, error) {
	out, err := r.update("HotelBookings.UpdateStatus", func(b domain.HotelBooking) bool {
		return b.ID == id
	}, func(b *domain.HotelBooking) {
		b.Status = status
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrBookingNotFound
	}
	return &out[0], nil
}

func (r hotelBookingRepo) CountOverlapping(_ context.Context, roomID int64, checkIn, checkOut time.Time) (int, error) {
	if err := r.s.lock("HotelBookings.CountOverlapping"); err != nil {
		return 0, err
	}
	defer r.s.unlock()
	n := 0
	for _, b := range r.s.sh.data.hotelBookings {
		if b.RoomID == roomID && b.Status == domain.HotelStatusConfirmed && domain.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			n++
		}
	}
	return n, nil
}

type bookingRepo struct{ s *Store }

func (r bookingRepo) Create(_ context.Context, booking *domain.Booking) error {
	if err := r.s.lock("Bookings.Create"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	if booking.Status == "" {
		booking.Status = domain.BookingStatusConfirmed
	}
	booking.ID = d.id()
	booking.CreatedAt = r.s.sh.now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	stored.Itinerary = nil
	d.bookings[booking.ID] = stored
	return nil
}

func (r bookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if err := r.s.lock("Bookings.GetByID"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	b, ok := r.s.sh.data.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (r bookingRepo) ListByUser(_ context.Context, userID int64) ([]domain.Booking, error) {
	if err := r.s.lock("Bookings.ListByUser"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	out := make([]domain.Booking, 0)
	keys := sortedKeys(d.bookings)
	for i := len(keys) - 1; i >= 0; i-- {
		if b := d.bookings[keys[i]]; b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r bookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) error {
	if err := r.s.lock("Bookings.UpdateStatus"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	b, ok := d.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = r.s.sh.now()
	d.bookings[id] = b
	return nil
}

func (r bookingRepo) CreateItinerary(_ context.Context, itinerary *domain.Itinerary) error {
	if err := r.s.lock("Bookings.CreateItinerary"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	if itinerary.Status == "" {
		itinerary.Status = domain.BookingStatusConfirmed
	}
	itinerary.ID = d.id()
	itinerary.CreatedAt = r.s.sh.now()
	itinerary.UpdatedAt = itinerary.CreatedAt
	stored := *itinerary
	stored.Flights, stored.Hotels = nil, nil
	d.itineraries[itinerary.ID] = stored
	return nil
}

func (r bookingRepo) SetItineraryBooking(_ context.Context, itineraryID, bookingID int64) error {
	if err := r.s.lock("Bookings.SetItineraryBooking"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	it, ok := d.itineraries[itineraryID]
	if !ok {
		return domain.ErrItineraryNotFound
	}
	for _, other := range d.itineraries {
		if other.ID != itineraryID && linkedTo(other.BookingID, bookingID) {
			return domain.NewError(domain.KindConflict, "booking already has an itinerary")
		}
	}
	id := bookingID
	it.BookingID = &id
	it.UpdatedAt = r.s.sh.now()
	d.itineraries[itineraryID] = it
	return nil
}

func (r bookingRepo) GetItineraryByBooking(_ context.Context, bookingID int64) (*domain.Itinerary, error) {
	if err := r.s.lock("Bookings.GetItineraryByBooking"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	for _, it := range r.s.sh.data.itineraries {
		if linkedTo(it.BookingID, bookingID) {
			return &it, nil
		}
	}
	return nil, domain.ErrItineraryNotFound
}

func (r bookingRepo) UpdateItineraryStatus(_ context.Context, itineraryID int64, status domain.BookingStatus) error {
	if err := r.s.lock("Bookings.UpdateItineraryStatus"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	it, ok := d.itineraries[itineraryID]
	if !ok {
		return domain.ErrItineraryNotFound
	}
	it.Status = status
	it.UpdatedAt = r.s.sh.now()
	d.itineraries[itineraryID] = it
	return nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	if err := r.s.lock("Notifications.Create"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	n.ID = d.id()
	n.Read = false
	n.CreatedAt = r.s.sh.now()
	d.notifications[n.ID] = *n
	return nil
}

func (r notificationRepo) ListByUser(_ context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error) {
	if err := r.s.lock("Notifications.ListByUser"); err != nil {
		return nil, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	out := make([]domain.Notification, 0)
	keys := sortedKeys(d.notifications)
	for i := len(keys) - 1; i >= 0; i-- {
		n := d.notifications[keys[i]]
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r notificationRepo) MarkRead(_ context.Context, userID, id int64) error {
	if err := r.s.lock("Notifications.MarkRead"); err != nil {
		return err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	n, ok := d.notifications[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotFound
	}
	n.Read = true
	d.notifications[id] = n
	return nil
}

var (
	_ repository.FlightBookingRepository = flightRepo{}
	_ repository.HotelBookingRepository  = hotelBookingRepo{}
	_ repository.BookingRepository       = bookingRepo{}
	_ repository.NotificationRepository  = notificationRepo{}
)
