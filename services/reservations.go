package services

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"frontdesk-server/models"
	"frontdesk-server/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Reservations is the reservation store: creation, edits and queries.
// Status changes go through Lifecycle.
type Reservations struct {
	*deps
	lifecycle *Lifecycle
}

type ReservationInput struct {
	GuestID     string           `json:"guestId" validate:"required"`
	GuestName   string           `json:"guestName" validate:"max=120"`
	RoomID      string           `json:"roomId" validate:"required"`
	CheckIn     time.Time        `json:"checkIn" validate:"required"`
	CheckOut    time.Time        `json:"checkOut" validate:"required"`
	Guests      int              `json:"guests" validate:"omitempty,min=1"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	Notes       string           `json:"notes"`
	// Confirm creates the reservation directly in the confirmed state.
	Confirm bool `json:"confirm"`
}

type ReservationPatch struct {
	RoomID      *string          `json:"roomId,omitempty"`
	CheckIn     *time.Time       `json:"checkIn,omitempty"`
	CheckOut    *time.Time       `json:"checkOut,omitempty"`
	Guests      *int             `json:"guests,omitempty"`
	GuestName   *string          `json:"guestName,omitempty"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// reservationNumber builds the human facing code printed on confirmations.
func reservationNumber(created time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("RSV-%s-%s", created.Format("20060102"), suffix)
}

func price(room *models.Room, rng models.DateRange) decimal.Decimal {
	return room.NightlyPrice.Mul(decimal.NewFromInt(int64(rng.Nights())))
}

// lockRoomsTx locks each distinct room once, in id order, so two moves
// between the same pair of rooms take their locks in the same sequence.
func lockRoomsTx(tx storage.Tx, ids ...string) (map[string]*models.Room, error) {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	locked := make(map[string]*models.Room, len(ids))
	for _, id := range ids {
		room, err := tx.LockRoom(id)
		if err != nil {
			return nil, lookup(err, "room", id)
		}
		locked[id] = room
	}
	return locked, nil
}

func checkCapacity(room *models.Room, guests int) error {
	if guests > room.MaxOccupancy {
		return invalid("room %s takes at most %d guests, %d requested", room.Number, room.MaxOccupancy, guests)
	}
	return nil
}

// Create books a room. The overlap check and the insert happen under the
// room's lock, so two racing requests for the same nights cannot both win.
func (s *Reservations) Create(ctx context.Context, in ReservationInput) (*models.Reservation, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	rng, err := models.NewDateRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	today := s.clock.Today()
	if rng.CheckIn.Before(today) {
		return nil, invalid("check-in %s is in the past", rng.CheckIn.Format(models.DateLayout))
	}
	if in.TotalAmount != nil && in.TotalAmount.IsNegative() {
		return nil, invalid("total amount must not be negative")
	}
	guests := in.Guests
	if guests == 0 {
		guests = 1
	}
	status := models.StatusPending
	if in.Confirm {
		status = models.StatusConfirmed
	}
	now := s.clock()
	r := &models.Reservation{
		ID:         uuid.NewString(),
		Number:     reservationNumber(now),
		GuestID:    strings.TrimSpace(in.GuestID),
		GuestName:  strings.TrimSpace(in.GuestName),
		RoomID:     in.RoomID,
		CheckIn:    rng.CheckIn,
		CheckOut:   rng.CheckOut,
		Guests:     guests,
		Status:     status,
		PaidAmount: decimal.Zero,
		Notes:      in.Notes,
	}
	err = s.store.Update(ctx, func(tx storage.Tx) error {
		room, err := tx.LockRoom(in.RoomID)
		if err != nil {
			return lookup(err, "room", in.RoomID)
		}
		if err := checkCapacity(room, guests); err != nil {
			return err
		}
		if err := ensureFreeTx(tx, room.ID, rng, ""); err != nil {
			return err
		}
		if in.TotalAmount != nil {
			r.TotalAmount = *in.TotalAmount
		} else {
			r.TotalAmount = price(room, rng)
		}
		if err := tx.SaveReservation(r); err != nil {
			return err
		}
		if models.Contains(rng, today) {
			if _, err := recomputeRoomTx(tx, room.ID, today, false); err != nil {
				return err
			}
		}
		return audit(ctx, tx, "reservation.create", "reservation", r.ID, "", nil, r)
	})
	if err != nil {
		return nil, unique(err)
	}
	s.invalidate(ctx, r.RoomID)
	s.log("services/reservations").WithFields(logrus.Fields{
		"reservation": r.ID,
		"room":        r.RoomID,
		"range":       rng.String(),
	}).Info("reservation created")
	return r, nil
}

func (s *Reservations) Get(ctx context.Context, id string) (*models.Reservation, error) {
	var r *models.Reservation
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		r, err = tx.Reservation(id)
		return lookup(err, "reservation", id)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Update edits an open reservation. Moving it to other dates or another room
// re-checks availability with the reservation itself excluded. Once the
// guest is in house only the departure date may change.
func (s *Reservations) Update(ctx context.Context, id string, patch ReservationPatch) (*models.Reservation, error) {
	today := s.clock.Today()
	var (
		updated *models.Reservation
		oldRoom string
	)
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		r, err := tx.Reservation(id)
		if err != nil {
			return lookup(err, "reservation", id)
		}
		if r.Status.Terminal() {
			return fmt.Errorf("%w: reservation %s is %s and can no longer be edited", ErrInvalidTransition, r.ID, r.Status)
		}
		inHouse := r.Status == models.StatusCheckedIn
		if inHouse && (patch.RoomID != nil || patch.CheckIn != nil) {
			return fmt.Errorf("%w: reservation %s is checked in, only the check-out date can change", ErrInvalidTransition, r.ID)
		}
		before := *r
		oldRoom = r.RoomID

		rng := r.Range()
		if patch.CheckIn != nil {
			rng.CheckIn = models.Day(*patch.CheckIn)
		}
		if patch.CheckOut != nil {
			rng.CheckOut = models.Day(*patch.CheckOut)
		}
		if err := rng.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if patch.CheckIn != nil && !rng.CheckIn.Equal(before.CheckIn) && rng.CheckIn.Before(today) {
			return invalid("check-in %s is in the past", rng.CheckIn.Format(models.DateLayout))
		}
		roomID := r.RoomID
		if patch.RoomID != nil {
			roomID = *patch.RoomID
		}
		locked, err := lockRoomsTx(tx, roomID, oldRoom)
		if err != nil {
			return err
		}
		room := locked[roomID]
		guests := r.Guests
		if patch.Guests != nil {
			if *patch.Guests < 1 {
				return invalid("guests must be at least 1")
			}
			guests = *patch.Guests
		}
		if err := checkCapacity(room, guests); err != nil {
			return err
		}
		moved := roomID != r.RoomID || !rng.CheckIn.Equal(r.CheckIn) || !rng.CheckOut.Equal(r.CheckOut)
		if moved {
			if err := ensureFreeTx(tx, roomID, rng, r.ID); err != nil {
				return err
			}
		}

		r.RoomID = roomID
		r.CheckIn, r.CheckOut = rng.CheckIn, rng.CheckOut
		r.Guests = guests
		if patch.GuestName != nil {
			r.GuestName = strings.TrimSpace(*patch.GuestName)
		}
		if patch.Notes != nil {
			r.Notes = *patch.Notes
		}
		switch {
		case patch.TotalAmount != nil:
			if patch.TotalAmount.IsNegative() {
				return invalid("total amount must not be negative")
			}
			r.TotalAmount = *patch.TotalAmount
		case moved:
			r.TotalAmount = price(room, rng)
		}
		if err := tx.SaveReservation(r); err != nil {
			return err
		}
		if moved {
			if _, err := recomputeRoomTx(tx, roomID, today, false); err != nil {
				return err
			}
			if roomID != oldRoom {
				if _, err := recomputeRoomTx(tx, oldRoom, today, false); err != nil {
					return err
				}
			}
		}
		updated = r
		return audit(ctx, tx, "reservation.update", "reservation", r.ID, "", before, r)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, oldRoom, updated.RoomID)
	return updated, nil
}

// Cancel releases the room. The reservation is kept with status cancelled.
func (s *Reservations) Cancel(ctx context.Context, id string) (*models.Reservation, error) {
	return s.lifecycle.Cancel(ctx, id)
}

// list streams the reservations matching q, read in a single view.
func (s *Reservations) list(ctx context.Context, q models.ReservationQuery) iter.Seq2[models.Reservation, error] {
	return func(yield func(models.Reservation, error) bool) {
		var found []models.Reservation
		err := s.store.View(ctx, func(tx storage.Tx) error {
			var err error
			found, err = tx.Reservations(q)
			return err
		})
		if err != nil {
			yield(models.Reservation{}, err)
			return
		}
		for _, r := range found {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (s *Reservations) ListByRoom(ctx context.Context, roomID string) iter.Seq2[models.Reservation, error] {
	return s.list(ctx, models.ReservationQuery{RoomID: roomID})
}

func (s *Reservations) ListByGuest(ctx context.Context, guestID string) iter.Seq2[models.Reservation, error] {
	return s.list(ctx, models.ReservationQuery{GuestID: guestID})
}

func (s *Reservations) ListByStatus(ctx context.Context, status models.ReservationStatus) iter.Seq2[models.Reservation, error] {
	return s.list(ctx, models.ReservationQuery{Status: status})
}

// ListForDateRange yields every reservation overlapping rng, whatever its
// status.
func (s *Reservations) ListForDateRange(ctx context.Context, rng models.DateRange) iter.Seq2[models.Reservation, error] {
	if err := rng.Validate(); err != nil {
		return func(yield func(models.Reservation, error) bool) {
			yield(models.Reservation{}, fmt.Errorf("%w: %v", ErrValidation, err))
		}
	}
	return s.list(ctx, models.ReservationQuery{Range: &rng})
}

// Search combines the filters of a ReservationQuery.
func (s *Reservations) Search(ctx context.Context, q models.ReservationQuery) iter.Seq2[models.Reservation, error] {
	if q.Range != nil {
		if err := q.Range.Validate(); err != nil {
			return func(yield func(models.Reservation, error) bool) {
				yield(models.Reservation{}, fmt.Errorf("%w: %v", ErrValidation, err))
			}
		}
	}
	return s.list(ctx, q)
}

// Collect drains a reservation sequence, stopping at the first error.
func Collect(seq iter.Seq2[models.Reservation, error]) ([]models.Reservation, error) {
	out := []models.Reservation{}
	for r, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
