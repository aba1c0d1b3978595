package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"frontdesk-server/models"
	"frontdesk-server/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Clock returns the current instant in the property's time zone. "Today"
// for check-in and room status purposes is the calendar date of that instant.
type Clock func() time.Time

func SystemClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// FixedClock always reports the given instant.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func (c Clock) Today() time.Time { return models.Day(c()) }

// CalendarCache stores rendered month calendars per room.
type CalendarCache interface {
	// Get also returns the room version the lookup ran under; Put stores
	// under that version so an invalidation in between wins.
	Get(ctx context.Context, roomID string, year int, month time.Month) ([]models.CalendarDay, int64, bool)
	Put(ctx context.Context, roomID string, year int, month time.Month, version int64, days []models.CalendarDay)
	Invalidate(ctx context.Context, roomID string)
}

type Option func(*deps)

func WithClock(c Clock) Option { return func(d *deps) { d.clock = c } }

func WithLogger(l *logrus.Logger) Option { return func(d *deps) { d.logger = l } }

func WithCalendarCache(c CalendarCache) Option { return func(d *deps) { d.cache = c } }

type deps struct {
	store  storage.Store
	clock  Clock
	logger *logrus.Logger
	cache  CalendarCache
}

func (d *deps) log(path string) *logrus.Entry {
	return d.logger.WithFields(logrus.Fields{"path": path})
}

func (d *deps) invalidate(ctx context.Context, roomIDs ...string) {
	if d.cache == nil {
		return
	}
	seen := map[string]bool{}
	for _, id := range roomIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		d.cache.Invalidate(ctx, id)
	}
}

// Hotel bundles the front-desk components around one store.
type Hotel struct {
	Rooms        *Rooms
	Reservations *Reservations
	Availability *Availability
	Lifecycle    *Lifecycle
	Ledger       *Ledger
}

func New(store storage.Store, opts ...Option) *Hotel {
	d := &deps{store: store, clock: SystemClock(time.UTC)}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logrus.New()
		d.logger.SetOutput(io.Discard)
	}
	avail := &Availability{deps: d}
	life := &Lifecycle{deps: d}
	return &Hotel{
		Rooms:        &Rooms{deps: d},
		Reservations: &Reservations{deps: d, lifecycle: life},
		Availability: avail,
		Lifecycle:    life,
		Ledger:       &Ledger{deps: d},
	}
}

type actorKey struct{}

// WithActor records who is issuing the command, for the audit trail.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return "system"
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func audit(ctx context.Context, tx storage.Tx, action, resourceType, resourceID, reason string, before, after any) error {
	entry := &models.AuditLog{
		Actor:        actorFrom(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Reason:       reason,
	}
	if before != nil {
		entry.Before = toJSON(before)
	}
	if after != nil {
		entry.After = toJSON(after)
	}
	return tx.AppendAudit(entry)
}

// Today is the property's current calendar date.
func (h *Hotel) Today() time.Time { return h.Rooms.clock.Today() }

// AuditTrail returns the audit entries recorded for a room, reservation or
// payment, oldest first.
func (h *Hotel) AuditTrail(ctx context.Context, resourceID string) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := h.Rooms.store.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.AuditLogs(resourceID)
		return err
	})
	return out, err
}
