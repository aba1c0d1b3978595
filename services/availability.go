package services

import (
	"context"
	"fmt"
	"time"

	"frontdesk-server/models"
	"frontdesk-server/storage"
)

// Availability answers whether rooms are free and renders occupancy
// calendars. Only pending, confirmed and checked-in reservations block.
type Availability struct {
	*deps
}

// conflictTx returns the first blocking reservation on roomID overlapping
// rng, ignoring excludeID. A nil result means the room is free.
func conflictTx(tx storage.Tx, roomID string, rng models.DateRange, excludeID string) (*models.Reservation, error) {
	candidates, err := tx.Reservations(models.ReservationQuery{RoomID: roomID, Range: &rng})
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		r := &candidates[i]
		if r.ID == excludeID || !r.Status.Blocks() {
			continue
		}
		if models.Overlaps(r.Range(), rng) {
			return r, nil
		}
	}
	return nil, nil
}

func ensureFreeTx(tx storage.Tx, roomID string, rng models.DateRange, excludeID string) error {
	conflict, err := conflictTx(tx, roomID, rng, excludeID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &OverlapError{RoomID: roomID, Requested: rng, ReservationID: conflict.ID, Held: conflict.Range()}
	}
	return nil
}

// derivedStatusTx is the physical status implied by reservations alone:
// occupied while any guest is checked in, reserved when a pending or
// confirmed stay covers today, and empty when reservations imply nothing.
func derivedStatusTx(tx storage.Tx, roomID string, today time.Time) (models.RoomStatus, error) {
	inHouse, err := tx.Reservations(models.ReservationQuery{RoomID: roomID, Status: models.StatusCheckedIn})
	if err != nil {
		return "", err
	}
	if len(inHouse) > 0 {
		return models.RoomOccupied, nil
	}
	day := models.DateRange{CheckIn: today, CheckOut: today.AddDate(0, 0, 1)}
	current, err := tx.Reservations(models.ReservationQuery{RoomID: roomID, Range: &day})
	if err != nil {
		return "", err
	}
	for _, r := range current {
		if r.Status == models.StatusPending || r.Status == models.StatusConfirmed {
			return models.RoomReserved, nil
		}
	}
	return "", nil
}

// settleStatus merges what reservations imply into a stored status. vacated
// marks that a guest just left, which sends the room to cleaning unless
// someone else is already in. Cleaning and maintenance set by hand stand
// until a guest checks in.
func settleStatus(stored, derived models.RoomStatus, vacated bool) models.RoomStatus {
	manual := stored == models.RoomCleaning || stored == models.RoomMaintenance
	switch {
	case derived == models.RoomOccupied:
		return models.RoomOccupied
	case vacated:
		return models.RoomCleaning
	case derived == models.RoomReserved && !manual:
		return models.RoomReserved
	case derived == "" && !manual:
		return models.RoomAvailable
	}
	return stored
}

// recomputeRoomTx re-derives a room's physical status after its reservations
// changed and saves it when it moved.
func recomputeRoomTx(tx storage.Tx, roomID string, today time.Time, vacated bool) (*models.Room, error) {
	room, err := tx.LockRoom(roomID)
	if err != nil {
		return nil, lookup(err, "room", roomID)
	}
	derived, err := derivedStatusTx(tx, roomID, today)
	if err != nil {
		return nil, err
	}
	next := settleStatus(room.PhysicalStatus, derived, vacated)
	if next == room.PhysicalStatus {
		return room, nil
	}
	room.PhysicalStatus = next
	if err := tx.SaveRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// liveStatusesTx overlays today's reservations on rooms read from the store.
// The stored status only moves on writes, so a confirmed arrival reads as
// reserved on its day even if nothing touched the room since the booking.
func liveStatusesTx(tx storage.Tx, rooms []models.Room, today time.Time) error {
	if len(rooms) == 0 {
		return nil
	}
	derived := map[string]models.RoomStatus{}
	day := models.DateRange{CheckIn: today, CheckOut: today.AddDate(0, 0, 1)}
	current, err := tx.Reservations(models.ReservationQuery{Range: &day})
	if err != nil {
		return err
	}
	for _, r := range current {
		if r.Status == models.StatusPending || r.Status == models.StatusConfirmed {
			derived[r.RoomID] = models.RoomReserved
		}
	}
	inHouse, err := tx.Reservations(models.ReservationQuery{Status: models.StatusCheckedIn})
	if err != nil {
		return err
	}
	for _, r := range inHouse {
		derived[r.RoomID] = models.RoomOccupied
	}
	for i := range rooms {
		rooms[i].PhysicalStatus = settleStatus(rooms[i].PhysicalStatus, derived[rooms[i].ID], false)
	}
	return nil
}

// IsFree reports whether roomID can take rng. excludeID lets a reservation be
// moved without colliding with itself.
func (a *Availability) IsFree(ctx context.Context, roomID string, rng models.DateRange, excludeID string) (bool, error) {
	if err := rng.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var free bool
	err := a.store.View(ctx, func(tx storage.Tx) error {
		if _, err := tx.Room(roomID); err != nil {
			return lookup(err, "room", roomID)
		}
		conflict, err := conflictTx(tx, roomID, rng, excludeID)
		if err != nil {
			return err
		}
		free = conflict == nil
		return nil
	})
	return free, err
}

// FreeRoomsForRange lists the rooms matching filter that are free for the
// whole range. Rooms under maintenance are never offered.
func (a *Availability) FreeRoomsForRange(ctx context.Context, rng models.DateRange, filter models.RoomFilter) ([]models.Room, error) {
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var free []models.Room
	err := a.store.View(ctx, func(tx storage.Tx) error {
		rooms, err := tx.Rooms(filter)
		if err != nil {
			return err
		}
		held, err := tx.Reservations(models.ReservationQuery{Range: &rng})
		if err != nil {
			return err
		}
		blocked := map[string]bool{}
		for _, r := range held {
			if r.Status.Blocks() {
				blocked[r.RoomID] = true
			}
		}
		for _, room := range rooms {
			if blocked[room.ID] || room.PhysicalStatus == models.RoomMaintenance {
				continue
			}
			free = append(free, room)
		}
		return liveStatusesTx(tx, free, a.clock.Today())
	})
	return free, err
}

func calendarVisible(s models.ReservationStatus) bool {
	return s != models.StatusCancelled && s != models.StatusNoShow
}

// buildCalendar lays reservations out over the days of a month.
func buildCalendar(year int, month time.Month, reservations []models.Reservation) []models.CalendarDay {
	var days []models.CalendarDay
	for d := range models.MonthRange(year, month).Days() {
		day := models.CalendarDay{Date: d, Entries: []models.CalendarEntry{}}
		for _, r := range reservations {
			if !calendarVisible(r.Status) {
				continue
			}
			entry := models.CalendarEntry{
				ReservationID: r.ID,
				GuestID:       r.GuestID,
				GuestName:     r.GuestName,
				Status:        r.Status,
			}
			switch {
			case models.Contains(r.Range(), d):
				entry.Tag = models.TagStay
				if d.Equal(r.CheckIn) {
					entry.Tag = models.TagArrival
				}
				day.Occupied = true
			case d.Equal(r.CheckOut):
				entry.Tag = models.TagDeparture
			default:
				continue
			}
			day.Entries = append(day.Entries, entry)
		}
		days = append(days, day)
	}
	return days
}

// calendarWindow widens a month by one day at the front so stays ending on
// the 1st show their departure.
func calendarWindow(year int, month time.Month) models.DateRange {
	m := models.MonthRange(year, month)
	return models.DateRange{CheckIn: m.CheckIn.AddDate(0, 0, -1), CheckOut: m.CheckOut}
}

func checkMonth(year int, month time.Month) error {
	if month < time.January || month > time.December {
		return invalid("month %d out of range", month)
	}
	if year < 1970 || year > 9999 {
		return invalid("year %d out of range", year)
	}
	return nil
}

// MonthCalendar renders one room's month, day by day.
func (a *Availability) MonthCalendar(ctx context.Context, roomID string, year int, month time.Month) ([]models.CalendarDay, error) {
	if err := checkMonth(year, month); err != nil {
		return nil, err
	}
	version := int64(-1)
	if a.cache != nil {
		days, ver, ok := a.cache.Get(ctx, roomID, year, month)
		if ok {
			return days, nil
		}
		version = ver
	}
	var days []models.CalendarDay
	err := a.store.View(ctx, func(tx storage.Tx) error {
		if _, err := tx.Room(roomID); err != nil {
			return lookup(err, "room", roomID)
		}
		window := calendarWindow(year, month)
		reservations, err := tx.Reservations(models.ReservationQuery{RoomID: roomID, Range: &window})
		if err != nil {
			return err
		}
		days = buildCalendar(year, month, reservations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.Put(ctx, roomID, year, month, version, days)
	}
	return days, nil
}

// PropertyCalendar renders the month for every room, ordered by room number.
func (a *Availability) PropertyCalendar(ctx context.Context, year int, month time.Month) ([]models.RoomCalendar, error) {
	if err := checkMonth(year, month); err != nil {
		return nil, err
	}
	var out []models.RoomCalendar
	err := a.store.View(ctx, func(tx storage.Tx) error {
		rooms, err := tx.Rooms(models.RoomFilter{})
		if err != nil {
			return err
		}
		window := calendarWindow(year, month)
		reservations, err := tx.Reservations(models.ReservationQuery{Range: &window})
		if err != nil {
			return err
		}
		byRoom := map[string][]models.Reservation{}
		for _, r := range reservations {
			byRoom[r.RoomID] = append(byRoom[r.RoomID], r)
		}
		for _, room := range rooms {
			out = append(out, models.RoomCalendar{
				RoomID:     room.ID,
				RoomNumber: room.Number,
				Days:       buildCalendar(year, month, byRoom[room.ID]),
			})
		}
		return nil
	})
	return out, err
}

// DailyOverview summarises one day at the front desk: who arrives, who
// leaves, who is in house and how full the property is.
func (a *Availability) DailyOverview(ctx context.Context, day time.Time) (*models.DailyOverview, error) {
	day = models.Day(day)
	overview := &models.DailyOverview{
		Date:       day,
		Arrivals:   []models.Reservation{},
		Departures: []models.Reservation{},
		InHouse:    []models.Reservation{},
	}
	err := a.store.View(ctx, func(tx storage.Tx) error {
		rooms, err := tx.Rooms(models.RoomFilter{})
		if err != nil {
			return err
		}
		overview.RoomsTotal = len(rooms)
		window := models.DateRange{CheckIn: day.AddDate(0, 0, -1), CheckOut: day.AddDate(0, 0, 1)}
		reservations, err := tx.Reservations(models.ReservationQuery{Range: &window})
		if err != nil {
			return err
		}
		occupied := map[string]bool{}
		for _, r := range reservations {
			switch {
			case r.CheckIn.Equal(day) && r.Status.Blocks():
				overview.Arrivals = append(overview.Arrivals, r)
			case r.CheckOut.Equal(day) && (r.Status == models.StatusCheckedIn || r.Status == models.StatusCheckedOut):
				overview.Departures = append(overview.Departures, r)
			}
			if r.Status == models.StatusCheckedIn {
				overview.InHouse = append(overview.InHouse, r)
				occupied[r.RoomID] = true
			}
		}
		overview.RoomsOccupied = len(occupied)
		if overview.RoomsTotal > 0 {
			overview.OccupancyRate = float64(overview.RoomsOccupied) / float64(overview.RoomsTotal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return overview, nil
}
