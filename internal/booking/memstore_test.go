package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/bookit/internal/model"
	"github.com/iliyamo/bookit/internal/repository"
)

// memLockStore keeps lock rows in memory.  Transactions are serialised
// by a single mutex and rolled back from a snapshot on error, which is
// enough to model the unique slot key.
type memLockStore struct {
	mu     sync.Mutex
	rows   map[string]model.BookingLock
	nextID uint64

	sweepErr   error
	releaseErr error
	// beforeInsert runs inside the transaction before a row is added.
	beforeInsert func(rows map[string]model.BookingLock)
	deletes      int
}

func newMemLockStore() *memLockStore {
	return &memLockStore{rows: map[string]model.BookingLock{}}
}

func (s *memLockStore) InTx(ctx context.Context, fn func(tx repository.LockTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]model.BookingLock, len(s.rows))
	for k, v := range s.rows {
		snapshot[k] = v
	}
	if err := fn(memLockTx{s}); err != nil {
		s.rows = snapshot
		return err
	}
	return nil
}

func (s *memLockStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweepErr != nil {
		return 0, s.sweepErr
	}
	var n int64
	for k, l := range s.rows {
		if l.ExpiredAt(now) {
			delete(s.rows, k)
			n++
		}
	}
	return n, nil
}

func (s *memLockStore) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.releaseErr != nil {
		return 0, s.releaseErr
	}
	var n int64
	for k, l := range s.rows {
		if l.LockedBy == owner {
			delete(s.rows, k)
			n++
		}
	}
	return n, nil
}

func (s *memLockStore) ListActive(ctx context.Context, now time.Time) ([]model.BookingLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BookingLock
	for _, l := range s.rows {
		if !l.ExpiredAt(now) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LockedAt.Before(out[j].LockedAt) })
	return out, nil
}

func (s *memLockStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type memLockTx struct{ s *memLockStore }

func (t memLockTx) FindBySlot(ctx context.Context, slot model.Slot) (*model.BookingLock, error) {
	l, ok := t.s.rows[slot.String()]
	if !ok {
		return nil, repository.ErrLockNotFound
	}
	return &l, nil
}

func (t memLockTx) DeleteByID(ctx context.Context, id uint64) error {
	for k, l := range t.s.rows {
		if l.ID == id {
			delete(t.s.rows, k)
		}
	}
	return nil
}

func (t memLockTx) Insert(ctx context.Context, lock *model.BookingLock) error {
	if t.s.beforeInsert != nil {
		t.s.beforeInsert(t.s.rows)
	}
	key := lock.Slot().String()
	if _, ok := t.s.rows[key]; ok {
		return repository.ErrDuplicate
	}
	t.s.nextID++
	lock.ID = t.s.nextID
	t.s.rows[key] = *lock
	return nil
}

// memBookingStore keeps bookings in memory with a unique reference id.
type memBookingStore struct {
	mu       sync.Mutex
	bookings []model.Booking
	// takenAtInsert makes Create report a duplicate for these references
	// once, as if another request inserted them first.
	takenAtInsert map[string]bool
	creates       int
	bookedErr     error
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{takenAtInsert: map[string]bool{}}
}

func (s *memBookingStore) BookedQuantity(ctx context.Context, slot model.Slot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookedErr != nil {
		return 0, s.bookedErr
	}
	total := 0
	for _, b := range s.bookings {
		if b.Slot() == slot {
			total += b.Quantity
		}
	}
	return total, nil
}

func (s *memBookingStore) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.ReferenceID == ref {
			return true, nil
		}
	}
	return false, nil
}

func (s *memBookingStore) Create(ctx context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.takenAtInsert[b.ReferenceID] {
		delete(s.takenAtInsert, b.ReferenceID)
		return repository.ErrDuplicate
	}
	for _, existing := range s.bookings {
		if existing.ReferenceID == b.ReferenceID {
			return repository.ErrDuplicate
		}
	}
	b.CreatedAt = time.Now().UTC()
	s.bookings = append(s.bookings, *b)
	return nil
}

func (s *memBookingStore) GetByReference(ctx context.Context, ref string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.ReferenceID == ref {
			out := b
			return &out, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (s *memBookingStore) add(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, b)
}

func (s *memBookingStore) total(slot model.Slot) int {
	n, _ := s.BookedQuantity(context.Background(), slot)
	return n
}

type memExperienceStore struct {
	items []model.Experience
}

func (s *memExperienceStore) ListAll(ctx context.Context) ([]model.Experience, error) {
	return s.items, nil
}

func (s *memExperienceStore) GetByID(ctx context.Context, id string) (*model.Experience, error) {
	for _, e := range s.items {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, repository.ErrExperienceNotFound
}

type memPromoCodeStore struct {
	codes map[string]model.PromoCode
}

func (s *memPromoCodeStore) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	pc, ok := s.codes[code]
	if !ok {
		return nil, repository.ErrPromoCodeNotFound
	}
	return &pc, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	refs []string
	err  error
}

func (p *recordingPublisher) PublishBookingConfirmed(ctx context.Context, b *model.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs = append(p.refs, b.ReferenceID)
	return p.err
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.refs...)
}

// fakeClock is a settable clock shared between goroutines.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var errStoreDown = errors.New("store unavailable")

var testSlot = model.Slot{ExperienceID: "exp-1", Date: "2025-03-15", Time: "10:00 am"}
