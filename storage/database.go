package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"frontdesk-server/models"

	"github.com/jackc/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps rooms, reservations and the ledger in postgres via gorm.
type PostgresStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func connectToDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func performMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Room{},
		&models.Reservation{},
		&models.Payment{},
		&models.AuditLog{},
	)
}

func OpenPostgres(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := connectToDB(dsn)
	if err != nil {
		logger.WithFields(logrus.Fields{"path": "storage/database"}).Errorf("failed to initialize database: %v", err)
		return nil, err
	}
	if err := performMigrations(db); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) View(ctx context.Context, fn func(Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, readOnly: true})
	}, &sql.TxOptions{ReadOnly: true})
}

func (s *PostgresStore) Update(ctx context.Context, fn func(Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db       *gorm.DB
	readOnly bool
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// uniqueViolation is the postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

func duplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Detail)
	}
	return err
}

func (t *gormTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *gormTx) Room(id string) (*models.Room, error) {
	var room models.Room
	if err := t.db.First(&room, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (t *gormTx) RoomByNumber(number string) (*models.Room, error) {
	var room models.Room
	if err := t.db.Where("number = ?", number).First(&room).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (t *gormTx) Rooms(filter models.RoomFilter) ([]models.Room, error) {
	q := t.db.Model(&models.Room{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Floor != nil {
		q = q.Where("floor = ?", *filter.Floor)
	}
	if filter.Status != "" {
		q = q.Where("physical_status = ?", filter.Status)
	}
	var rooms []models.Room
	if err := q.Order("number ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (t *gormTx) LockRoom(id string) (*models.Room, error) {
	var room models.Room
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (t *gormTx) SaveRoom(room *models.Room) error {
	if err := t.writable(); err != nil {
		return err
	}
	return duplicate(t.db.Save(room).Error)
}

func (t *gormTx) DeleteRoom(id string) error {
	if err := t.writable(); err != nil {
		return err
	}
	res := t.db.Delete(&models.Room{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) Reservation(id string) (*models.Reservation, error) {
	var r models.Reservation
	if err := t.db.First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (t *gormTx) Reservations(q models.ReservationQuery) ([]models.Reservation, error) {
	db := t.db.Model(&models.Reservation{})
	if q.RoomID != "" {
		db = db.Where("room_id = ?", q.RoomID)
	}
	if q.GuestID != "" {
		db = db.Where("guest_id = ?", q.GuestID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Range != nil {
		db = db.Where("check_in < ? AND check_out > ?", q.Range.CheckOut, q.Range.CheckIn)
	}
	var out []models.Reservation
	if err := db.Order("check_in ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (t *gormTx) SaveReservation(r *models.Reservation) error {
	if err := t.writable(); err != nil {
		return err
	}
	return duplicate(t.db.Save(r).Error)
}

func (t *gormTx) Payment(id string) (*models.Payment, error) {
	var p models.Payment
	if err := t.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (t *gormTx) Payments(reservationID string) ([]models.Payment, error) {
	var out []models.Payment
	if err := t.db.Where("reservation_id = ?", reservationID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (t *gormTx) AppendPayment(p *models.Payment) error {
	if err := t.writable(); err != nil {
		return err
	}
	return duplicate(t.db.Create(p).Error)
}

func (t *gormTx) SettlePayment(id string, status models.PaymentStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	res := t.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) AppendAudit(entry *models.AuditLog) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.db.Create(entry).Error
}

func (t *gormTx) AuditLogs(resourceID string) ([]models.AuditLog, error) {
	q := t.db.Model(&models.AuditLog{})
	if resourceID != "" {
		q = q.Where("resource_id = ?", resourceID)
	}
	var out []models.AuditLog
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
