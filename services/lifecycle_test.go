package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"frontdesk-server/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from models.ReservationStatus
		ev   Event
		to   models.ReservationStatus
		ok   bool
	}{
		{models.StatusPending, EventConfirm, models.StatusConfirmed, true},
		{models.StatusPending, EventCancel, models.StatusCancelled, true},
		{models.StatusPending, EventCheckIn, "", false},
		{models.StatusConfirmed, EventCheckIn, models.StatusCheckedIn, true},
		{models.StatusConfirmed, EventCancel, models.StatusCancelled, true},
		{models.StatusConfirmed, EventNoShow, models.StatusNoShow, true},
		{models.StatusConfirmed, EventConfirm, "", false},
		{models.StatusCheckedIn, EventCheckOut, models.StatusCheckedOut, true},
		{models.StatusCheckedIn, EventCancel, "", false},
		{models.StatusCheckedOut, EventCheckIn, "", false},
		{models.StatusCancelled, EventConfirm, "", false},
		{models.StatusNoShow, EventCheckIn, "", false},
	}
	for _, c := range cases {
		to, ok := Next(c.from, c.ev)
		assert.Equal(t, c.ok, ok, "%s --%s-->", c.from, c.ev)
		assert.Equal(t, c.to, to, "%s --%s-->", c.from, c.ev)
	}
}

func TestAllowedEvents(t *testing.T) {
	assert.Equal(t, []Event{EventConfirm, EventCancel}, AllowedEvents(models.StatusPending))
	assert.Equal(t, []Event{EventCheckIn, EventCancel, EventNoShow}, AllowedEvents(models.StatusConfirmed))
	assert.Equal(t, []Event{EventCheckOut}, AllowedEvents(models.StatusCheckedIn))
	assert.Empty(t, AllowedEvents(models.StatusCheckedOut))
	assert.Empty(t, AllowedEvents(models.StatusCancelled))
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent("CHECK_IN")
	require.NoError(t, err)
	assert.Equal(t, EventCheckIn, ev)

	_, err = ParseEvent("teleport")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckInScenario(t *testing.T) {
	f := newFixture(t, models.Date(2026, time.January, 8))
	ctx := context.Background()
	room := f.room(t, "201", 120)

	r := f.book(t, room.ID, jan(9), jan(11), false)
	assert.Equal(t, models.StatusPending, r.Status)

	r, err := f.hotel.Lifecycle.Confirm(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, r.Status)

	_, err = f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	require.ErrorIs(t, err, ErrPrematureTransition)

	f.clock.set(jan(9).Add(14 * time.Hour))
	r, err = f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, r.Status)
	require.NotNil(t, r.ActualCheckIn)

	room, err = f.hotel.Rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, room.PhysicalStatus)
}

func TestCheckInAfterStayEndedIsPremature(t *testing.T) {
	f := newFixture(t, jan(1))
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), true)

	f.clock.set(jan(12))
	_, err := f.hotel.Lifecycle.CheckIn(context.Background(), r.ID)
	assert.ErrorIs(t, err, ErrPrematureTransition)
}

func TestIllegalEdges(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), false)

	_, err := f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusPending, te.From)
	assert.Equal(t, EventCheckIn, te.Event)

	_, err = f.hotel.Lifecycle.CheckOut(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.hotel.Lifecycle.Cancel(ctx, r.ID)
	require.NoError(t, err)
	_, err = f.hotel.Lifecycle.Confirm(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.hotel.Lifecycle.Confirm(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSecondCancelIsRejected(t *testing.T) {
	f := newFixture(t, jan(1))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), true)

	cancelled, err := f.hotel.Lifecycle.Cancel(ctx, r.ID)
	require.NoError(t, err)
	trail, err := f.hotel.AuditTrail(ctx, r.ID)
	require.NoError(t, err)

	f.clock.set(jan(2))
	_, err = f.hotel.Lifecycle.Cancel(ctx, r.ID)
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusCancelled, te.From)

	got, err := f.hotel.Reservations.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.True(t, got.UpdatedAt.Equal(cancelled.UpdatedAt))
	after, err := f.hotel.AuditTrail(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(trail))
}

func TestBackToBackCheckOutKeepsRoomOccupied(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	first := f.book(t, room.ID, jan(10), jan(12), true)
	second := f.book(t, room.ID, jan(12), jan(14), true)
	_, err := f.hotel.Lifecycle.CheckIn(ctx, first.ID)
	require.NoError(t, err)

	f.clock.set(jan(12).Add(8 * time.Hour))
	_, err = f.hotel.Lifecycle.CheckIn(ctx, second.ID)
	require.NoError(t, err)
	res, err := f.hotel.Lifecycle.CheckOut(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, res.Reservation.Status)

	got, err := f.hotel.Rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, got.PhysicalStatus)
}

func TestCheckedInCannotBeCancelled(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), true)
	_, err := f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	require.NoError(t, err)

	_, err = f.hotel.Reservations.Cancel(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckOutWarnsAboutBalance(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 250)
	r := f.book(t, room.ID, jan(10), jan(12), true)
	assert.Equal(t, "500", r.TotalAmount.String())

	_, err := f.hotel.Ledger.RecordPayment(ctx, PaymentInput{
		ReservationID: r.ID, Amount: decimal.NewFromInt(300), Method: models.MethodCash,
	})
	require.NoError(t, err)
	_, err = f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	require.NoError(t, err)

	f.clock.set(jan(12).Add(11 * time.Hour))
	res, err := f.hotel.Lifecycle.CheckOut(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, res.Reservation.Status)
	assert.Equal(t, "200", res.OutstandingBalance.String())
	assert.Equal(t, "outstanding balance of 200.00", res.Warning)
	require.NotNil(t, res.Reservation.ActualCheckOut)

	room, err = f.hotel.Rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomCleaning, room.PhysicalStatus)
}

func TestCheckOutSettledStayHasNoWarning(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(11), true)
	_, err := f.hotel.Ledger.RecordPayment(ctx, PaymentInput{
		ReservationID: r.ID, Amount: decimal.NewFromInt(100), Method: models.MethodCard,
	})
	require.NoError(t, err)
	_, err = f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	require.NoError(t, err)

	res, err := f.hotel.Lifecycle.CheckOut(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, res.OutstandingBalance.IsZero())
	assert.Empty(t, res.Warning)
}

func TestCheckInRefusedUnderMaintenance(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), true)
	_, err := f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, models.RoomMaintenance)
	require.NoError(t, err)

	_, err = f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	require.ErrorIs(t, err, ErrConsistency)

	got, err := f.hotel.Reservations.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Nil(t, got.ActualCheckIn)
}

func TestNoShow(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), true)

	_, err := f.hotel.Lifecycle.NoShow(ctx, r.ID)
	require.ErrorIs(t, err, ErrPrematureTransition)

	f.clock.set(jan(11))
	r, err = f.hotel.Lifecycle.NoShow(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoShow, r.Status)

	room, err = f.hotel.Rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomAvailable, room.PhysicalStatus)

	free, err := f.hotel.Availability.IsFree(ctx, room.ID, r.Range(), "")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestFireDispatchesByName(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), false)

	for _, ev := range []Event{EventConfirm, EventCheckIn, EventCheckOut} {
		var err error
		r, err = f.hotel.Lifecycle.Fire(ctx, r.ID, ev)
		require.NoError(t, err, ev)
	}
	assert.Equal(t, models.StatusCheckedOut, r.Status)

	_, err := f.hotel.Lifecycle.Fire(ctx, r.ID, Event("rebook"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestForceStatus(t *testing.T) {
	f := newFixture(t, jan(1))
	ctx := WithActor(context.Background(), "manager-1")
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), true)

	_, err := f.hotel.Lifecycle.ForceStatus(ctx, r.ID, models.StatusCancelled, " ")
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.hotel.Lifecycle.ForceStatus(ctx, r.ID, "vanished", "typo")
	require.ErrorIs(t, err, ErrValidation)

	r, err = f.hotel.Lifecycle.ForceStatus(ctx, r.ID, models.StatusCancelled, "guest called")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, r.Status)

	f.book(t, room.ID, jan(11), jan(13), false)
	_, err = f.hotel.Lifecycle.ForceStatus(ctx, r.ID, "CONFIRMED", "guest called back")
	require.ErrorIs(t, err, ErrOverlap)

	trail, err := f.hotel.AuditTrail(context.Background(), r.ID)
	require.NoError(t, err)
	last := trail[len(trail)-1]
	assert.Equal(t, "reservation.force_status", last.Action)
	assert.Equal(t, "guest called", last.Reason)
	assert.Equal(t, "manager-1", last.Actor)
}

func TestForcedCheckOutFreesRoom(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 100)
	r := f.book(t, room.ID, jan(10), jan(12), true)
	_, err := f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	require.NoError(t, err)

	r, err = f.hotel.Lifecycle.ForceStatus(ctx, r.ID, models.StatusCheckedOut, "left without checking out")
	require.NoError(t, err)
	require.NotNil(t, r.ActualCheckOut)

	room, err = f.hotel.Rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomCleaning, room.PhysicalStatus)
}
