package models

import "time"

type DayTag string

const (
	TagArrival   DayTag = "arrival"
	TagStay      DayTag = "stay"
	TagDeparture DayTag = "departure"
)

type CalendarEntry struct {
	ReservationID string            `json:"reservationId"`
	GuestID       string            `json:"guestId"`
	GuestName     string            `json:"guestName,omitempty"`
	Status        ReservationStatus `json:"status"`
	Tag           DayTag            `json:"tag"`
}

// CalendarDay lists the reservations touching one day of a room.
// Departure entries are informational: the guest has left by then and the
// night is not counted in Occupied.
type CalendarDay struct {
	Date     time.Time       `json:"date"`
	Occupied bool            `json:"occupied"`
	Entries  []CalendarEntry `json:"entries"`
}

type RoomCalendar struct {
	RoomID     string        `json:"roomId"`
	RoomNumber string        `json:"roomNumber"`
	Days       []CalendarDay `json:"days"`
}

type DailyOverview struct {
	Date          time.Time     `json:"date"`
	Arrivals      []Reservation `json:"arrivals"`
	Departures    []Reservation `json:"departures"`
	InHouse       []Reservation `json:"inHouse"`
	RoomsTotal    int           `json:"roomsTotal"`
	RoomsOccupied int           `json:"roomsOccupied"`
	OccupancyRate float64       `json:"occupancyRate"`
}
