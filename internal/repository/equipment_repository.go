package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/equipment-lending/internal/model"
)

const equipmentColumns = "id, name, description, quantity, created_at, deleted_at"

// EquipmentRepo is the inventory store.  Reads outside a transaction go
// through DB; every mutation takes the caller's *sql.Tx so that inventory
// and request rows change together.
type EquipmentRepo struct{ DB *sql.DB }

// NewEquipmentRepo constructs a new EquipmentRepo.
func NewEquipmentRepo(db *sql.DB) *EquipmentRepo { return &EquipmentRepo{DB: db} }

func scanEquipment(s scanner) (model.Equipment, error) {
	var e model.Equipment
	err := s.Scan(&e.ID, &e.Name, &e.Description, &e.Quantity, &e.CreatedAt, &e.DeletedAt)
	return e, err
}

// GetByID returns a live equipment row.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (model.Equipment, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment WHERE id = ? AND deleted_at IS NULL", id)
	e, err := scanEquipment(row)
	return e, translate(err)
}

// List returns one page of live equipment plus the total number of matches.
// The search term is matched against name and description.
func (r *EquipmentRepo) List(ctx context.Context, q model.EquipmentQuery) ([]model.Equipment, int, error) {
	q.PageRequest = q.Normalize()
	where := sq.And{sq.Eq{"deleted_at": nil}}
	if q.Search != "" {
		p := containsPattern(q.Search)
		where = append(where, sq.Or{sq.Like{"name": p}, sq.Like{"description": p}})
	}

	countSQL, countArgs, err := sq.Select("COUNT(*)").From("equipment").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	listSQL, listArgs, err := sq.Select(equipmentColumns).From("equipment").Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(q.Limit)).Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	var out []model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// LockTx reads the row with SELECT ... FOR UPDATE.  Soft-deleted rows are
// returned as well so that callers can restore stock to them.
func (r *EquipmentRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Equipment, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment WHERE id = ? FOR UPDATE", id)
	e, err := scanEquipment(row)
	return e, translate(err)
}

// InsertTx creates the row and fills in ID and CreatedAt.
func (r *EquipmentRepo) InsertTx(ctx context.Context, tx *sql.Tx, e *model.Equipment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO equipment (name, description, quantity) VALUES (?, ?, ?)",
		e.Name, e.Description, e.Quantity)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return translate(tx.QueryRowContext(ctx,
		"SELECT created_at FROM equipment WHERE id = ?", e.ID).Scan(&e.CreatedAt))
}

// UpdateTx overwrites the editable fields of a live row.
func (r *EquipmentRepo) UpdateTx(ctx context.Context, tx *sql.Tx, id uint64, f model.EquipmentFields) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE equipment SET name = ?, description = ?, quantity = ? WHERE id = ? AND deleted_at IS NULL",
		f.Name, f.Description, f.Quantity, id)
	return affectedOne(res, err)
}

// AdjustQuantityTx adds delta to the stock.  The statement refuses to drive
// the quantity below zero and reports ErrConflict if it would.
func (r *EquipmentRepo) AdjustQuantityTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE equipment SET quantity = quantity + ? WHERE id = ? AND quantity + ? >= 0",
		delta, id, delta)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: quantity of equipment %d cannot change by %d", ErrConflict, id, delta)
	}
	return nil
}

// SoftDeleteTx stamps deleted_at on a live row.
func (r *EquipmentRepo) SoftDeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE equipment SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL", id)
	return affectedOne(res, err)
}

// affectedOne turns "no row matched" into ErrNotFound.  The DSN sets
// clientFoundRows so matched rows count even when no value changed.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
