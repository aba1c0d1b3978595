package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"frontdesk-server/models"
	"frontdesk-server/storage"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Event string

const (
	EventConfirm  Event = "confirm"
	EventCancel   Event = "cancel"
	EventCheckIn  Event = "check-in"
	EventCheckOut Event = "check-out"
	EventNoShow   Event = "no-show"
)

type edge struct {
	from []models.ReservationStatus
	to   models.ReservationStatus
}

var transitions = map[Event]edge{
	EventConfirm:  {from: []models.ReservationStatus{models.StatusPending}, to: models.StatusConfirmed},
	EventCancel:   {from: []models.ReservationStatus{models.StatusPending, models.StatusConfirmed}, to: models.StatusCancelled},
	EventCheckIn:  {from: []models.ReservationStatus{models.StatusConfirmed}, to: models.StatusCheckedIn},
	EventCheckOut: {from: []models.ReservationStatus{models.StatusCheckedIn}, to: models.StatusCheckedOut},
	EventNoShow:   {from: []models.ReservationStatus{models.StatusConfirmed}, to: models.StatusNoShow},
}

var eventOrder = []Event{EventConfirm, EventCheckIn, EventCheckOut, EventCancel, EventNoShow}

// Next returns the status an event leads to from the given status.
func Next(from models.ReservationStatus, ev Event) (models.ReservationStatus, bool) {
	e, ok := transitions[ev]
	if !ok {
		return "", false
	}
	for _, s := range e.from {
		if s == from {
			return e.to, true
		}
	}
	return "", false
}

// AllowedEvents lists the events that are legal from a status, ignoring
// date checks.
func AllowedEvents(from models.ReservationStatus) []Event {
	var out []Event
	for _, ev := range eventOrder {
		if _, ok := Next(from, ev); ok {
			out = append(out, ev)
		}
	}
	return out
}

func ParseEvent(s string) (Event, error) {
	ev := Event(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-")))
	if _, ok := transitions[ev]; !ok {
		return "", invalid("unknown event %q", s)
	}
	return ev, nil
}

// Lifecycle is the reservation state machine. Every transition runs as one
// unit of work together with the room status it implies.
type Lifecycle struct {
	*deps
}

// CheckOutResult carries the closed reservation and the balance still owed.
// An outstanding balance is a warning for the desk, not a failure.
type CheckOutResult struct {
	Reservation        *models.Reservation `json:"reservation"`
	OutstandingBalance decimal.Decimal     `json:"outstandingBalance"`
	Warning            string              `json:"warning,omitempty"`
}

// checkDates enforces the date side of a transition. It runs before the
// edge itself is checked.
func checkDates(r *models.Reservation, ev Event, today time.Time) error {
	switch ev {
	case EventCheckIn:
		if !models.Contains(r.Range(), today) {
			return fmt.Errorf("%w: reservation %s covers %s, today is %s",
				ErrPrematureTransition, r.ID, r.Range(), today.Format(models.DateLayout))
		}
	case EventNoShow:
		if !today.After(r.CheckIn) {
			return fmt.Errorf("%w: reservation %s cannot be a no-show before %s has passed",
				ErrPrematureTransition, r.ID, r.CheckIn.Format(models.DateLayout))
		}
	}
	return nil
}

func (l *Lifecycle) fire(ctx context.Context, id string, ev Event) (*models.Reservation, error) {
	today := l.clock.Today()
	now := l.clock()
	var out *models.Reservation
	err := l.store.Update(ctx, func(tx storage.Tx) error {
		r, err := tx.Reservation(id)
		if err != nil {
			return lookup(err, "reservation", id)
		}
		if err := checkDates(r, ev, today); err != nil {
			return err
		}
		to, ok := Next(r.Status, ev)
		if !ok {
			return &TransitionError{ReservationID: id, From: r.Status, Event: ev}
		}
		before := *r

		room, err := tx.LockRoom(r.RoomID)
		if err != nil {
			return lookup(err, "room", r.RoomID)
		}
		switch ev {
		case EventCheckIn:
			if room.PhysicalStatus == models.RoomMaintenance {
				return fmt.Errorf("%w: room %s is under maintenance", ErrConsistency, room.Number)
			}
			stamp := now
			r.ActualCheckIn = &stamp
		case EventCheckOut:
			stamp := now
			r.ActualCheckOut = &stamp
		}
		r.Status = to
		if err := tx.SaveReservation(r); err != nil {
			return err
		}
		if _, err := recomputeRoomTx(tx, r.RoomID, today, ev == EventCheckOut); err != nil {
			return err
		}
		out = r
		return audit(ctx, tx, "reservation."+strings.ReplaceAll(string(ev), "-", "_"), "reservation", r.ID, "", before, r)
	})
	if err != nil {
		l.log("services/lifecycle").WithFields(logrus.Fields{"reservation": id, "event": ev}).Debugf("transition rejected: %v", err)
		return nil, err
	}
	l.invalidate(ctx, out.RoomID)
	l.log("services/lifecycle").WithFields(logrus.Fields{"reservation": id, "event": ev, "status": out.Status}).Info("reservation transitioned")
	return out, nil
}

func (l *Lifecycle) Confirm(ctx context.Context, id string) (*models.Reservation, error) {
	return l.fire(ctx, id, EventConfirm)
}

// Cancel tombstones a pending or confirmed reservation. Checked-in stays can
// only be closed by check-out or ForceStatus.
func (l *Lifecycle) Cancel(ctx context.Context, id string) (*models.Reservation, error) {
	return l.fire(ctx, id, EventCancel)
}

func (l *Lifecycle) CheckIn(ctx context.Context, id string) (*models.Reservation, error) {
	return l.fire(ctx, id, EventCheckIn)
}

func (l *Lifecycle) CheckOut(ctx context.Context, id string) (*CheckOutResult, error) {
	r, err := l.fire(ctx, id, EventCheckOut)
	if err != nil {
		return nil, err
	}
	res := &CheckOutResult{Reservation: r, OutstandingBalance: r.Balance()}
	switch {
	case res.OutstandingBalance.IsPositive():
		res.Warning = fmt.Sprintf("outstanding balance of %s", res.OutstandingBalance.StringFixed(2))
	case res.OutstandingBalance.IsNegative():
		res.Warning = fmt.Sprintf("guest overpaid by %s", res.OutstandingBalance.Neg().StringFixed(2))
	}
	if res.Warning != "" {
		l.log("services/lifecycle").WithField("reservation", id).Warn(res.Warning)
	}
	return res, nil
}

// NoShow closes a confirmed reservation whose guest never arrived.
func (l *Lifecycle) NoShow(ctx context.Context, id string) (*models.Reservation, error) {
	return l.fire(ctx, id, EventNoShow)
}

// Fire dispatches an event by name.
func (l *Lifecycle) Fire(ctx context.Context, id string, ev Event) (*models.Reservation, error) {
	if _, ok := transitions[ev]; !ok {
		return nil, invalid("unknown event %q", ev)
	}
	if ev == EventCheckOut {
		res, err := l.CheckOut(ctx, id)
		if err != nil {
			return nil, err
		}
		return res.Reservation, nil
	}
	return l.fire(ctx, id, ev)
}

// ForceStatus moves a reservation to any status, bypassing the transition
// table. It still refuses to create an overlap and always records the reason.
func (l *Lifecycle) ForceStatus(ctx context.Context, id string, status models.ReservationStatus, reason string) (*models.Reservation, error) {
	status, err := models.ParseReservationStatus(string(status))
	if err != nil {
		return nil, invalid("%v", err)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, invalid("a reason is required to force a status")
	}
	today := l.clock.Today()
	now := l.clock()
	var out *models.Reservation
	err = l.store.Update(ctx, func(tx storage.Tx) error {
		r, err := tx.Reservation(id)
		if err != nil {
			return lookup(err, "reservation", id)
		}
		if _, err := tx.LockRoom(r.RoomID); err != nil {
			return lookup(err, "room", r.RoomID)
		}
		if status.Blocks() && !r.Status.Blocks() {
			if err := ensureFreeTx(tx, r.RoomID, r.Range(), r.ID); err != nil {
				return err
			}
		}
		before := *r
		vacated := r.Status == models.StatusCheckedIn && status != models.StatusCheckedIn
		r.Status = status
		if status == models.StatusCheckedIn && r.ActualCheckIn == nil {
			stamp := now
			r.ActualCheckIn = &stamp
		}
		if status == models.StatusCheckedOut && r.ActualCheckOut == nil {
			stamp := now
			r.ActualCheckOut = &stamp
		}
		if err := tx.SaveReservation(r); err != nil {
			return err
		}
		if _, err := recomputeRoomTx(tx, r.RoomID, today, vacated); err != nil {
			return err
		}
		out = r
		return audit(ctx, tx, "reservation.force_status", "reservation", r.ID, reason, before, r)
	})
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, out.RoomID)
	l.log("services/lifecycle").WithFields(logrus.Fields{"reservation": id, "status": status, "actor": actorFrom(ctx)}).Warnf("status forced: %s", reason)
	return out, nil
}
