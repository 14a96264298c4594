package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/equipment-lending/internal/model"
)

// Tx is the set of row operations available inside one scoped transaction.
// Lock methods take row locks that are held until the transaction ends.
// Callers lock the equipment row before any of its requests.
type Tx interface {
	LockEquipment(ctx context.Context, id uint64) (model.Equipment, error)
	InsertEquipment(ctx context.Context, e *model.Equipment) error
	UpdateEquipment(ctx context.Context, id uint64, f model.EquipmentFields) error
	AdjustEquipmentQuantity(ctx context.Context, id uint64, delta int) error
	SoftDeleteEquipment(ctx context.Context, id uint64) error

	GetRequest(ctx context.Context, id uint64) (model.Request, error)
	LockRequest(ctx context.Context, id uint64) (model.Request, error)
	InsertRequest(ctx context.Context, r *model.Request) error
	SetRequestStatus(ctx context.Context, id uint64, s model.RequestStatus) error
	SetRequestQuantity(ctx context.Context, id uint64, qty int) error
	SoftDeleteRequest(ctx context.Context, id uint64) error
	CancelPendingRequests(ctx context.Context, equipmentID uint64) (int64, error)
}

// Store is what the reservation engine needs from persistence: lock-free
// reads plus a scoped transaction.  InTx commits when fn returns nil and
// rolls back on any error or panic.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetEquipment(ctx context.Context, id uint64) (model.Equipment, error)
	ListEquipment(ctx context.Context, q model.EquipmentQuery) ([]model.Equipment, int, error)
	GetRequest(ctx context.Context, id uint64) (model.Request, error)
	ListRequests(ctx context.Context, q model.RequestQuery) ([]model.RequestView, int, error)
}

// SQLStore implements Store on MySQL.
type SQLStore struct {
	db        *sql.DB
	equipment *EquipmentRepo
	requests  *RequestRepo
}

// NewSQLStore wires the inventory and request repositories over db.
func NewSQLStore(db *sql.DB) *SQLStore {
	if db == nil {
		panic("repository: nil *sql.DB")
	}
	return &SQLStore{db: db, equipment: NewEquipmentRepo(db), requests: NewRequestRepo(db)}
}

// InTx runs fn in a single transaction.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", translate(err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", translate(cerr))
		}
	}()
	err = fn(&sqlTx{tx: tx, equipment: s.equipment, requests: s.requests})
	return err
}

func (s *SQLStore) GetEquipment(ctx context.Context, id uint64) (model.Equipment, error) {
	return s.equipment.GetByID(ctx, id)
}

func (s *SQLStore) ListEquipment(ctx context.Context, q model.EquipmentQuery) ([]model.Equipment, int, error) {
	return s.equipment.List(ctx, q)
}

func (s *SQLStore) GetRequest(ctx context.Context, id uint64) (model.Request, error) {
	return s.requests.GetByID(ctx, id)
}

func (s *SQLStore) ListRequests(ctx context.Context, q model.RequestQuery) ([]model.RequestView, int, error) {
	return s.requests.List(ctx, q)
}

// sqlTx binds the repositories to one *sql.Tx.
type sqlTx struct {
	tx        *sql.Tx
	equipment *EquipmentRepo
	requests  *RequestRepo
}

func (t *sqlTx) LockEquipment(ctx context.Context, id uint64) (model.Equipment, error) {
	return t.equipment.LockTx(ctx, t.tx, id)
}

func (t *sqlTx) InsertEquipment(ctx context.Context, e *model.Equipment) error {
	return t.equipment.InsertTx(ctx, t.tx, e)
}

func (t *sqlTx) UpdateEquipment(ctx context.Context, id uint64, f model.EquipmentFields) error {
	return t.equipment.UpdateTx(ctx, t.tx, id, f)
}

func (t *sqlTx) AdjustEquipmentQuantity(ctx context.Context, id uint64, delta int) error {
	return t.equipment.AdjustQuantityTx(ctx, t.tx, id, delta)
}

func (t *sqlTx) SoftDeleteEquipment(ctx context.Context, id uint64) error {
	return t.equipment.SoftDeleteTx(ctx, t.tx, id)
}

func (t *sqlTx) GetRequest(ctx context.Context, id uint64) (model.Request, error) {
	return t.requests.GetTx(ctx, t.tx, id)
}

func (t *sqlTx) LockRequest(ctx context.Context, id uint64) (model.Request, error) {
	return t.requests.LockTx(ctx, t.tx, id)
}

func (t *sqlTx) InsertRequest(ctx context.Context, r *model.Request) error {
	return t.requests.InsertTx(ctx, t.tx, r)
}

func (t *sqlTx) SetRequestStatus(ctx context.Context, id uint64, s model.RequestStatus) error {
	return t.requests.SetStatusTx(ctx, t.tx, id, s)
}

func (t *sqlTx) SetRequestQuantity(ctx context.Context, id uint64, qty int) error {
	return t.requests.SetQuantityTx(ctx, t.tx, id, qty)
}

func (t *sqlTx) SoftDeleteRequest(ctx context.Context, id uint64) error {
	return t.requests.SoftDeleteTx(ctx, t.tx, id)
}

func (t *sqlTx) CancelPendingRequests(ctx context.Context, equipmentID uint64) (int64, error) {
	return t.requests.CancelPendingTx(ctx, t.tx, equipmentID)
}
