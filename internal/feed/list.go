package feed

import (
	"slices"

	"bookingfeed/internal/domain"
)

// BookingList is the ordered, deduplicated booking collection at the
// heart of the feed. It holds exactly one booking per ID and keeps the
// ordering invariant after every mutation: requested bookings before
// all others, newest first within each partition.
//
// BookingList is not safe for concurrent use; Sync serializes access.
type BookingList struct {
	bookings []domain.Booking
}

// NewBookingList creates an empty list.
func NewBookingList() *BookingList {
	return &BookingList{}
}

// ApplySnapshot replaces the entire collection with the given
// bookings. Records without an ID are skipped; when the same ID
// appears more than once the last record wins. Applying the same
// snapshot twice yields the same ordered collection.
func (l *BookingList) ApplySnapshot(bookings []domain.Booking) {
	next := make([]domain.Booking, 0, len(bookings))
	index := make(map[string]int, len(bookings))

	for _, b := range bookings {
		if b.ID == "" {
			continue
		}
		if i, ok := index[b.ID]; ok {
			next[i] = b
			continue
		}
		index[b.ID] = len(next)
		next = append(next, b)
	}

	l.bookings = next
	l.sort()
}

// ApplyDelta merges a single booking event into the collection.
//
// Both actions are upserts keyed on ID: a duplicate "created" replaces
// the prior record rather than appending, and a "status-updated" for
// an unknown ID inserts the booking, since the likely cause is a
// missed created event. The collection is re-sorted after the
// mutation. An unknown action or a booking without an ID leaves the
// collection untouched.
func (l *BookingList) ApplyDelta(action domain.DeltaAction, b domain.Booking) error {
	if !action.Valid() {
		return ErrUnknownAction
	}
	if b.ID == "" {
		return ErrMissingBookingID
	}

	if i := l.indexOf(b.ID); i >= 0 {
		l.bookings[i] = b
	} else {
		l.bookings = append(l.bookings, b)
	}
	l.sort()
	return nil
}

// Bookings returns the ordered collection as a copy.
func (l *BookingList) Bookings() []domain.Booking {
	out := make([]domain.Booking, len(l.bookings))
	copy(out, l.bookings)
	return out
}

// Get returns the booking with the given ID, if present.
func (l *BookingList) Get(id string) (domain.Booking, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l.bookings[i], true
	}
	return domain.Booking{}, false
}

// Len returns the number of bookings in the collection.
func (l *BookingList) Len() int {
	return len(l.bookings)
}

func (l *BookingList) indexOf(id string) int {
	for i := range l.bookings {
		if l.bookings[i].ID == id {
			return i
		}
	}
	return -1
}

// sort restores the ordering invariant. The sort is stable so bookings
// with equal status partition and CreatedAt keep their relative
// insertion order.
func (l *BookingList) sort() {
	slices.SortStableFunc(l.bookings, func(a, b domain.Booking) int {
		ar := a.Status == domain.BookingStatusRequested
		br := b.Status == domain.BookingStatusRequested
		if ar != br {
			if ar {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
