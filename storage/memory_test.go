package storage

import (
	"context"
	"errors"
	"testing"

	"frontdesk-server/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRoom(t *testing.T, s *MemoryStore, id, number string) {
	t.Helper()
	err := s.Update(context.Background(), func(tx Tx) error {
		return tx.SaveRoom(&models.Room{ID: id, Number: number, Type: models.RoomSingle, MaxOccupancy: 1, NightlyPrice: decimal.NewFromInt(50)})
	})
	require.NoError(t, err)
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	s := NewMemoryStore()
	seedRoom(t, s, "r1", "101")

	boom := errors.New("boom")
	err := s.Update(context.Background(), func(tx Tx) error {
		if err := tx.SaveRoom(&models.Room{ID: "r2", Number: "102", Type: models.RoomSingle}); err != nil {
			return err
		}
		if err := tx.SaveReservation(&models.Reservation{ID: "x", RoomID: "r2"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.View(context.Background(), func(tx Tx) error {
		_, err := tx.Room("r2")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = tx.Reservation("x")
		assert.ErrorIs(t, err, ErrNotFound)
		rooms, err := tx.Rooms(models.RoomFilter{})
		require.NoError(t, err)
		assert.Len(t, rooms, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestViewIsReadOnly(t *testing.T) {
	s := NewMemoryStore()
	err := s.View(context.Background(), func(tx Tx) error {
		return tx.SaveRoom(&models.Room{ID: "r1", Number: "101"})
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestCancelledContextIsRefused(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Update(ctx, func(tx Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRoomNumbersAreUnique(t *testing.T) {
	s := NewMemoryStore()
	seedRoom(t, s, "r1", "101")
	err := s.Update(context.Background(), func(tx Tx) error {
		return tx.SaveRoom(&models.Room{ID: "r2", Number: "101"})
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.View(context.Background(), func(tx Tx) error {
		room, err := tx.RoomByNumber("101")
		require.NoError(t, err)
		assert.Equal(t, "r1", room.ID)
		assert.False(t, room.CreatedAt.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestReservationQueries(t *testing.T) {
	s := NewMemoryStore()
	day := func(d int) models.DateRange {
		return models.DateRange{CheckIn: models.Date(2026, 1, d), CheckOut: models.Date(2026, 1, d+2)}
	}
	err := s.Update(context.Background(), func(tx Tx) error {
		for _, r := range []models.Reservation{
			{ID: "b", RoomID: "r1", GuestID: "g1", CheckIn: day(10).CheckIn, CheckOut: day(10).CheckOut, Status: models.StatusPending},
			{ID: "a", RoomID: "r1", GuestID: "g2", CheckIn: day(3).CheckIn, CheckOut: day(3).CheckOut, Status: models.StatusConfirmed},
			{ID: "c", RoomID: "r2", GuestID: "g1", CheckIn: day(11).CheckIn, CheckOut: day(11).CheckOut, Status: models.StatusCancelled},
		} {
			r := r
			if err := tx.SaveReservation(&r); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = s.View(context.Background(), func(tx Tx) error {
		got, err := tx.Reservations(models.ReservationQuery{RoomID: "r1"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)

		rng := models.DateRange{CheckIn: models.Date(2026, 1, 12), CheckOut: models.Date(2026, 1, 13)}
		got, err = tx.Reservations(models.ReservationQuery{Range: &rng})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "c", got[0].ID)

		got, err = tx.Reservations(models.ReservationQuery{GuestID: "g1", Status: models.StatusPending})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestLedgerEntries(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update(context.Background(), func(tx Tx) error {
		for _, id := range []string{"p1", "p2"} {
			if err := tx.AppendPayment(&models.Payment{ID: id, ReservationID: "res", Amount: decimal.NewFromInt(10), Status: models.PaymentPending}); err != nil {
				return err
			}
		}
		return tx.SettlePayment("p1", models.PaymentCompleted)
	})
	require.NoError(t, err)

	err = s.Update(context.Background(), func(tx Tx) error {
		return tx.SettlePayment("p1", models.PaymentFailed)
	})
	assert.Error(t, err, "completed entries never change")

	err = s.Update(context.Background(), func(tx Tx) error {
		return tx.AppendPayment(&models.Payment{ID: "p1", ReservationID: "res"})
	})
	assert.Error(t, err)

	err = s.View(context.Background(), func(tx Tx) error {
		payments, err := tx.Payments("res")
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, "p1", payments[0].ID)
		assert.Equal(t, models.PaymentCompleted, payments[0].Status)
		assert.Equal(t, models.PaymentPending, payments[1].Status)
		return nil
	})
	require.NoError(t, err)
}

func TestAuditLogIDs(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update(context.Background(), func(tx Tx) error {
		if err := tx.AppendAudit(&models.AuditLog{Action: "a", ResourceID: "x"}); err != nil {
			return err
		}
		return tx.AppendAudit(&models.AuditLog{Action: "b", ResourceID: "y"})
	})
	require.NoError(t, err)

	err = s.View(context.Background(), func(tx Tx) error {
		all, err := tx.AuditLogs("")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, uint(1), all[0].ID)
		assert.Equal(t, uint(2), all[1].ID)

		only, err := tx.AuditLogs("y")
		require.NoError(t, err)
		require.Len(t, only, 1)
		assert.Equal(t, "b", only[0].Action)
		return nil
	})
	require.NoError(t, err)
}
