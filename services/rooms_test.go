package services

import (
	"context"
	"testing"
	"time"

	"frontdesk-server/models"
	"frontdesk-server/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	f := newFixture(t, jan(1))
	room := f.room(t, "101", 90)
	assert.Equal(t, models.RoomAvailable, room.PhysicalStatus)
	assert.Equal(t, 2, room.MaxOccupancy)
	assert.NotEmpty(t, room.ID)

	ctx := context.Background()
	_, err := f.hotel.Rooms.CreateRoom(ctx, RoomInput{Number: "101", Type: models.RoomSuite, NightlyPrice: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrValidation, "duplicate number")

	_, err = f.hotel.Rooms.CreateRoom(ctx, RoomInput{Number: "102", Type: "castle", NightlyPrice: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.hotel.Rooms.CreateRoom(ctx, RoomInput{Number: "103", Type: models.RoomSingle, NightlyPrice: decimal.NewFromInt(-10)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.hotel.Rooms.CreateRoom(ctx, RoomInput{Type: models.RoomSingle})
	assert.ErrorIs(t, err, ErrValidation)
}

// blindStore hides existing room numbers from the in-transaction check, which
// is what a second writer racing on the same number sees.
type blindStore struct {
	*storage.MemoryStore
}

func (s blindStore) Update(ctx context.Context, fn func(storage.Tx) error) error {
	return s.MemoryStore.Update(ctx, func(tx storage.Tx) error {
		return fn(blindTx{tx})
	})
}

type blindTx struct {
	storage.Tx
}

func (blindTx) RoomByNumber(string) (*models.Room, error) {
	return nil, storage.ErrNotFound
}

func TestRacingRoomNumberIsValidationError(t *testing.T) {
	f := newFixture(t, jan(1))
	f.room(t, "101", 90)

	racing := New(blindStore{f.store}, WithClock(f.clock.clock()))
	_, err := racing.Rooms.CreateRoom(context.Background(), RoomInput{
		Number: "101", Type: models.RoomSingle, NightlyPrice: decimal.NewFromInt(60),
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	rooms, err := f.hotel.Rooms.ListRooms(context.Background(), models.RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}

func TestListAndUpdateRooms(t *testing.T) {
	f := newFixture(t, jan(1))
	ctx := context.Background()
	f.room(t, "201", 90)
	r101 := f.room(t, "101", 90)

	rooms, err := f.hotel.Rooms.ListRooms(ctx, models.RoomFilter{})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "101", rooms[0].Number)

	suite := models.RoomSuite
	price := decimal.NewFromInt(300)
	updated, err := f.hotel.Rooms.UpdateRoom(ctx, r101.ID, RoomPatch{Type: &suite, NightlyPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, models.RoomSuite, updated.Type)
	assert.Equal(t, "300", updated.NightlyPrice.String())

	suites, err := f.hotel.Rooms.ListRooms(ctx, models.RoomFilter{Type: models.RoomSuite})
	require.NoError(t, err)
	require.Len(t, suites, 1)
	assert.Equal(t, r101.ID, suites[0].ID)

	taken := "201"
	_, err = f.hotel.Rooms.UpdateRoom(ctx, r101.ID, RoomPatch{Number: &taken})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.hotel.Rooms.UpdateRoom(ctx, "missing", RoomPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetPhysicalStatusAgreesWithReservations(t *testing.T) {
	f := newFixture(t, jan(10))
	ctx := context.Background()
	room := f.room(t, "101", 90)

	_, err := f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, models.RoomOccupied)
	assert.ErrorIs(t, err, ErrConsistency)

	got, err := f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, "Cleaning")
	require.NoError(t, err)
	assert.Equal(t, models.RoomCleaning, got.PhysicalStatus)
	got, err = f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, models.RoomAvailable)
	require.NoError(t, err)
	assert.Equal(t, models.RoomAvailable, got.PhysicalStatus)

	r := f.book(t, room.ID, jan(10), jan(12), true)
	_, err = f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, models.RoomAvailable)
	assert.ErrorIs(t, err, ErrConsistency)

	_, err = f.hotel.Lifecycle.CheckIn(ctx, r.ID)
	require.NoError(t, err)
	_, err = f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, models.RoomReserved)
	assert.ErrorIs(t, err, ErrConsistency)
	got, err = f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, models.RoomOccupied)
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, got.PhysicalStatus)

	_, err = f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, "haunted")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRoomStatusFollowsTheCalendar(t *testing.T) {
	f := newFixture(t, jan(1))
	ctx := context.Background()
	room := f.room(t, "101", 90)
	other := f.room(t, "102", 90)
	f.book(t, room.ID, jan(10), jan(12), true)

	got, err := f.hotel.Rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomAvailable, got.PhysicalStatus)

	f.clock.set(jan(10).Add(9 * time.Hour))
	got, err = f.hotel.Rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomReserved, got.PhysicalStatus, "arrival day")

	reserved, err := f.hotel.Rooms.ListRooms(ctx, models.RoomFilter{Status: models.RoomReserved})
	require.NoError(t, err)
	require.Len(t, reserved, 1)
	assert.Equal(t, room.ID, reserved[0].ID)

	free, err := f.hotel.Availability.FreeRoomsForRange(ctx, models.DateRange{CheckIn: jan(12), CheckOut: jan(13)}, models.RoomFilter{})
	require.NoError(t, err)
	require.Len(t, free, 2)
	assert.Equal(t, models.RoomReserved, free[0].PhysicalStatus)
	assert.Equal(t, models.RoomAvailable, free[1].PhysicalStatus)

	_, err = f.hotel.Rooms.SetPhysicalStatus(ctx, room.ID, models.RoomAvailable)
	assert.ErrorIs(t, err, ErrConsistency)
	_, err = f.hotel.Rooms.SetPhysicalStatus(ctx, other.ID, models.RoomMaintenance)
	require.NoError(t, err)

	// the guest never showed and nobody touched the room
	f.clock.set(jan(13).Add(9 * time.Hour))
	got, err = f.hotel.Rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomAvailable, got.PhysicalStatus)

	got, err = f.hotel.Rooms.GetRoom(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomMaintenance, got.PhysicalStatus)
}

func TestDeleteRoom(t *testing.T) {
	f := newFixture(t, jan(1))
	ctx := context.Background()
	room := f.room(t, "101", 90)
	r := f.book(t, room.ID, jan(10), jan(12), false)

	err := f.hotel.Rooms.DeleteRoom(ctx, room.ID)
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.hotel.Reservations.Cancel(ctx, r.ID)
	require.NoError(t, err)
	require.NoError(t, f.hotel.Rooms.DeleteRoom(ctx, room.ID))

	_, err = f.hotel.Rooms.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.hotel.Rooms.DeleteRoom(ctx, room.ID), ErrNotFound)
}
