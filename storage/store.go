package storage

import (
	"context"
	"errors"

	"frontdesk-server/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrReadOnly  = errors.New("write attempted in a read-only transaction")
	ErrDuplicate = errors.New("duplicate key")
)

// Store runs units of work against the property's rooms, reservations and
// ledger. Update is all-or-nothing: if fn returns an error nothing it wrote
// becomes visible. Readers never observe a half-applied Update.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is the set of reads and writes available inside a unit of work.
// Records are returned by value; callers save them back explicitly.
type Tx interface {
	Room(id string) (*models.Room, error)
	RoomByNumber(number string) (*models.Room, error)
	Rooms(filter models.RoomFilter) ([]models.Room, error)
	// LockRoom reads a room and holds it until the unit of work ends, so
	// that availability checks and the write that follows them are atomic.
	LockRoom(id string) (*models.Room, error)
	SaveRoom(room *models.Room) error
	DeleteRoom(id string) error

	Reservation(id string) (*models.Reservation, error)
	Reservations(q models.ReservationQuery) ([]models.Reservation, error)
	SaveReservation(r *models.Reservation) error

	Payment(id string) (*models.Payment, error)
	Payments(reservationID string) ([]models.Payment, error)
	AppendPayment(p *models.Payment) error
	// SettlePayment moves a pending entry to its final status. Completed
	// entries are never rewritten.
	SettlePayment(id string, status models.PaymentStatus) error

	AppendAudit(entry *models.AuditLog) error
	AuditLogs(resourceID string) ([]models.AuditLog, error)
}
