package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"frontdesk-server/models"
	"frontdesk-server/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Rooms is the room registry.
type Rooms struct {
	*deps
}

type RoomInput struct {
	Number       string          `json:"number" validate:"required,max=20"`
	Type         models.RoomType `json:"type" validate:"required,oneof=single double suite deluxe"`
	Floor        int             `json:"floor" validate:"min=0"`
	MaxOccupancy int             `json:"maxOccupancy" validate:"omitempty,min=1,max=20"`
	NightlyPrice decimal.Decimal `json:"nightlyPrice"`
	Description  string          `json:"description"`
}

type RoomPatch struct {
	Number       *string          `json:"number,omitempty"`
	Type         *models.RoomType `json:"type,omitempty"`
	Floor        *int             `json:"floor,omitempty"`
	MaxOccupancy *int             `json:"maxOccupancy,omitempty"`
	NightlyPrice *decimal.Decimal `json:"nightlyPrice,omitempty"`
	Description  *string          `json:"description,omitempty"`
}

func checkRoom(room *models.Room) error {
	if strings.TrimSpace(room.Number) == "" {
		return invalid("room number is required")
	}
	if _, err := models.ParseRoomType(string(room.Type)); err != nil {
		return invalid("%v", err)
	}
	if room.Floor < 0 {
		return invalid("floor must not be negative")
	}
	if room.MaxOccupancy < 1 {
		return invalid("max occupancy must be at least 1")
	}
	if room.NightlyPrice.IsNegative() {
		return invalid("nightly price must not be negative")
	}
	return nil
}

func ensureUniqueNumber(tx storage.Tx, number, selfID string) error {
	existing, err := tx.RoomByNumber(number)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return invalid("room number %q is already in use", number)
	}
	return nil
}

func (s *Rooms) CreateRoom(ctx context.Context, in RoomInput) (*models.Room, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	room := &models.Room{
		ID:             uuid.NewString(),
		Number:         strings.TrimSpace(in.Number),
		Type:           in.Type,
		Floor:          in.Floor,
		MaxOccupancy:   in.MaxOccupancy,
		NightlyPrice:   in.NightlyPrice,
		PhysicalStatus: models.RoomAvailable,
		Description:    in.Description,
	}
	if room.MaxOccupancy == 0 {
		room.MaxOccupancy = 2
	}
	if err := checkRoom(room); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		if err := ensureUniqueNumber(tx, room.Number, room.ID); err != nil {
			return err
		}
		if err := tx.SaveRoom(room); err != nil {
			return err
		}
		return audit(ctx, tx, "room.create", "room", room.ID, "", nil, room)
	})
	if err != nil {
		return nil, unique(err)
	}
	s.log("services/rooms").WithField("room", room.Number).Info("room created")
	return room, nil
}

func (s *Rooms) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	var room *models.Room
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		room, err = tx.Room(id)
		if err != nil {
			return lookup(err, "room", id)
		}
		derived, err := derivedStatusTx(tx, id, s.clock.Today())
		if err != nil {
			return err
		}
		room.PhysicalStatus = settleStatus(room.PhysicalStatus, derived, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// ListRooms filters on the live physical status, not the stored one.
func (s *Rooms) ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, error) {
	status := filter.Status
	filter.Status = ""
	var rooms []models.Room
	err := s.store.View(ctx, func(tx storage.Tx) error {
		all, err := tx.Rooms(filter)
		if err != nil {
			return err
		}
		if err := liveStatusesTx(tx, all, s.clock.Today()); err != nil {
			return err
		}
		rooms = make([]models.Room, 0, len(all))
		for _, room := range all {
			if status == "" || room.PhysicalStatus == status {
				rooms = append(rooms, room)
			}
		}
		return nil
	})
	return rooms, err
}

// UpdateRoom edits a room's static attributes. Physical status is not
// touched here.
func (s *Rooms) UpdateRoom(ctx context.Context, id string, patch RoomPatch) (*models.Room, error) {
	var updated *models.Room
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		room, err := tx.LockRoom(id)
		if err != nil {
			return lookup(err, "room", id)
		}
		before := *room
		if patch.Number != nil {
			room.Number = strings.TrimSpace(*patch.Number)
		}
		if patch.Type != nil {
			room.Type = *patch.Type
		}
		if patch.Floor != nil {
			room.Floor = *patch.Floor
		}
		if patch.MaxOccupancy != nil {
			room.MaxOccupancy = *patch.MaxOccupancy
		}
		if patch.NightlyPrice != nil {
			room.NightlyPrice = *patch.NightlyPrice
		}
		if patch.Description != nil {
			room.Description = *patch.Description
		}
		if err := checkRoom(room); err != nil {
			return err
		}
		if room.Number != before.Number {
			if err := ensureUniqueNumber(tx, room.Number, room.ID); err != nil {
				return err
			}
		}
		if err := tx.SaveRoom(room); err != nil {
			return err
		}
		updated = room
		return audit(ctx, tx, "room.update", "room", room.ID, "", before, room)
	})
	if err != nil {
		return nil, unique(err)
	}
	return updated, nil
}

// SetPhysicalStatus is the housekeeping override. Cleaning and maintenance
// can always be set; occupied, reserved and available must agree with what
// the room's reservations imply, since those states belong to the lifecycle.
func (s *Rooms) SetPhysicalStatus(ctx context.Context, id string, status models.RoomStatus) (*models.Room, error) {
	status, err := models.ParseRoomStatus(string(status))
	if err != nil {
		return nil, invalid("%v", err)
	}
	today := s.clock.Today()
	var updated *models.Room
	err = s.store.Update(ctx, func(tx storage.Tx) error {
		room, err := tx.LockRoom(id)
		if err != nil {
			return lookup(err, "room", id)
		}
		derived, err := derivedStatusTx(tx, id, today)
		if err != nil {
			return err
		}
		switch status {
		case models.RoomOccupied, models.RoomReserved:
			if derived != status {
				return fmt.Errorf("%w: room %s cannot be marked %s by hand, reservations imply %q", ErrConsistency, room.Number, status, derived)
			}
		case models.RoomAvailable:
			if derived != "" {
				return fmt.Errorf("%w: room %s is %s according to its reservations", ErrConsistency, room.Number, derived)
			}
		}
		if room.PhysicalStatus == status {
			updated = room
			return nil
		}
		before := *room
		room.PhysicalStatus = status
		if err := tx.SaveRoom(room); err != nil {
			return err
		}
		updated = room
		return audit(ctx, tx, "room.status", "room", room.ID, "", before, room)
	})
	if err != nil {
		return nil, err
	}
	s.log("services/rooms").WithFields(logrus.Fields{"room": updated.Number, "status": status}).Info("room status set")
	return updated, nil
}

// DeleteRoom removes a room that no live reservation refers to.
func (s *Rooms) DeleteRoom(ctx context.Context, id string) error {
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		room, err := tx.LockRoom(id)
		if err != nil {
			return lookup(err, "room", id)
		}
		refs, err := tx.Reservations(models.ReservationQuery{RoomID: id})
		if err != nil {
			return err
		}
		for _, r := range refs {
			if r.Status.Blocks() {
				return fmt.Errorf("%w: room %s is held by %s reservation %s", ErrConflict, room.Number, r.Status, r.ID)
			}
		}
		if err := tx.DeleteRoom(id); err != nil {
			return lookup(err, "room", id)
		}
		return audit(ctx, tx, "room.delete", "room", id, "", room, nil)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}
