package services

import (
	"context"
	"fmt"

	"frontdesk-server/models"
	"frontdesk-server/storage"
)

type AlertKind string

const (
	AlertUnconfirmedArrival AlertKind = "unconfirmed-arrival"
	AlertMissedArrival      AlertKind = "missed-arrival"
	AlertOverdueDeparture   AlertKind = "overdue-departure"
	AlertBalanceDue         AlertKind = "balance-due"
)

// Alert is something the desk should act on today.
type Alert struct {
	Kind          AlertKind                `json:"kind"`
	ReservationID string                   `json:"reservationId"`
	Number        string                   `json:"number"`
	RoomID        string                   `json:"roomId"`
	GuestName     string                   `json:"guestName,omitempty"`
	Status        models.ReservationStatus `json:"status"`
	Message       string                   `json:"message"`
}

func alertFor(kind AlertKind, r models.Reservation, format string, args ...any) Alert {
	return Alert{
		Kind:          kind,
		ReservationID: r.ID,
		Number:        r.Number,
		RoomID:        r.RoomID,
		GuestName:     r.GuestName,
		Status:        r.Status,
		Message:       fmt.Sprintf(format, args...),
	}
}

// Alerts lists the reservations that need attention as of today: arrivals
// still pending, confirmed guests who never showed up, guests past their
// check-out date and departures today with money owed.
func (h *Hotel) Alerts(ctx context.Context) ([]Alert, error) {
	today := h.Today()
	alerts := []Alert{}
	err := h.Rooms.store.View(ctx, func(tx storage.Tx) error {
		pending, err := tx.Reservations(models.ReservationQuery{Status: models.StatusPending})
		if err != nil {
			return err
		}
		for _, r := range pending {
			if !r.CheckIn.After(today) {
				alerts = append(alerts, alertFor(AlertUnconfirmedArrival, r, "arrival on %s is still unconfirmed", r.CheckIn.Format(models.DateLayout)))
			}
		}
		confirmed, err := tx.Reservations(models.ReservationQuery{Status: models.StatusConfirmed})
		if err != nil {
			return err
		}
		for _, r := range confirmed {
			if r.CheckIn.Before(today) {
				alerts = append(alerts, alertFor(AlertMissedArrival, r, "expected on %s, not checked in", r.CheckIn.Format(models.DateLayout)))
			}
		}
		inHouse, err := tx.Reservations(models.ReservationQuery{Status: models.StatusCheckedIn})
		if err != nil {
			return err
		}
		for _, r := range inHouse {
			switch {
			case r.CheckOut.Before(today):
				alerts = append(alerts, alertFor(AlertOverdueDeparture, r, "was due to leave on %s", r.CheckOut.Format(models.DateLayout)))
			case r.CheckOut.Equal(today) && r.Balance().IsPositive():
				alerts = append(alerts, alertFor(AlertBalanceDue, r, "leaves today owing %s", r.Balance().StringFixed(2)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}
