package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"frontdesk-server/models"
)

type snapshot struct {
	rooms        map[string]models.Room
	reservations map[string]models.Reservation
	payments     map[string]models.Payment
	paymentOrder []string
	audit        []models.AuditLog
	nextAuditID  uint
}

func newSnapshot() *snapshot {
	return &snapshot{
		rooms:        map[string]models.Room{},
		reservations: map[string]models.Reservation{},
		payments:     map[string]models.Payment{},
	}
}

func (s *snapshot) clone() *snapshot {
	c := &snapshot{
		rooms:        make(map[string]models.Room, len(s.rooms)),
		reservations: make(map[string]models.Reservation, len(s.reservations)),
		payments:     make(map[string]models.Payment, len(s.payments)),
		paymentOrder: append([]string(nil), s.paymentOrder...),
		audit:        append([]models.AuditLog(nil), s.audit...),
		nextAuditID:  s.nextAuditID,
	}
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

// MemoryStore keeps the whole property in memory. Writers are serialised by
// a single lock and work on a copy that replaces the live snapshot only when
// the unit of work succeeds.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *snapshot
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snap: newSnapshot(), now: time.Now}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{snap: m.snap, readOnly: true, now: m.now})
}

func (m *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.snap.clone()
	if err := fn(&memTx{snap: work, now: m.now}); err != nil {
		return err
	}
	m.snap = work
	return nil
}

type memTx struct {
	snap     *snapshot
	readOnly bool
	now      func() time.Time
}

func (t *memTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *memTx) Room(id string) (*models.Room, error) {
	r, ok := t.snap.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memTx) RoomByNumber(number string) (*models.Room, error) {
	for _, r := range t.snap.rooms {
		if r.Number == number {
			room := r
			return &room, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) Rooms(filter models.RoomFilter) ([]models.Room, error) {
	rooms := make([]models.Room, 0, len(t.snap.rooms))
	for _, r := range t.snap.rooms {
		if filter.Match(&r) {
			rooms = append(rooms, r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
	return rooms, nil
}

// LockRoom is a plain read here: the writer lock already covers the store.
func (t *memTx) LockRoom(id string) (*models.Room, error) {
	return t.Room(id)
}

func (t *memTx) SaveRoom(room *models.Room) error {
	if err := t.writable(); err != nil {
		return err
	}
	for id, r := range t.snap.rooms {
		if id != room.ID && r.Number == room.Number {
			return fmt.Errorf("%w: room number %q already used by %s", ErrDuplicate, room.Number, id)
		}
	}
	now := t.now()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now
	t.snap.rooms[room.ID] = *room
	return nil
}

func (t *memTx) DeleteRoom(id string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.snap.rooms[id]; !ok {
		return ErrNotFound
	}
	delete(t.snap.rooms, id)
	return nil
}

func (t *memTx) Reservation(id string) (*models.Reservation, error) {
	r, ok := t.snap.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memTx) Reservations(q models.ReservationQuery) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range t.snap.reservations {
		if q.Match(&r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) SaveReservation(r *models.Reservation) error {
	if err := t.writable(); err != nil {
		return err
	}
	now := t.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	t.snap.reservations[r.ID] = *r
	return nil
}

func (t *memTx) Payment(id string) (*models.Payment, error) {
	p, ok := t.snap.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (t *memTx) Payments(reservationID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, id := range t.snap.paymentOrder {
		if p := t.snap.payments[id]; p.ReservationID == reservationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memTx) AppendPayment(p *models.Payment) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.snap.payments[p.ID]; exists {
		return fmt.Errorf("payment %s already recorded", p.ID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = t.now()
	}
	t.snap.payments[p.ID] = *p
	t.snap.paymentOrder = append(t.snap.paymentOrder, p.ID)
	return nil
}

func (t *memTx) SettlePayment(id string, status models.PaymentStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	p, ok := t.snap.payments[id]
	if !ok {
		return ErrNotFound
	}
	if p.Status != models.PaymentPending {
		return fmt.Errorf("payment %s is %s, only pending entries settle", id, p.Status)
	}
	p.Status = status
	t.snap.payments[id] = p
	return nil
}

func (t *memTx) AppendAudit(entry *models.AuditLog) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.snap.nextAuditID++
	entry.ID = t.snap.nextAuditID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = t.now()
	}
	t.snap.audit = append(t.snap.audit, *entry)
	return nil
}

func (t *memTx) AuditLogs(resourceID string) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, e := range t.snap.audit {
		if resourceID == "" || e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out, nil
}
