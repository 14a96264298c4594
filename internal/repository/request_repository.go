package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/equipment-lending/internal/model"
)

const requestColumns = "id, user_id, equipment_id, quantity, status, created_at, deleted_at"

// RequestRepo is the request store.  Cancelled requests keep their row with
// deleted_at set; every read here treats them as absent.
type RequestRepo struct{ DB *sql.DB }

// NewRequestRepo constructs a new RequestRepo.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{DB: db} }

func scanRequest(s scanner) (model.Request, error) {
	var r model.Request
	err := s.Scan(&r.ID, &r.UserID, &r.EquipmentID, &r.Quantity, &r.Status, &r.CreatedAt, &r.DeletedAt)
	return r, err
}

func getRequest(ctx context.Context, q querier, id uint64, lock bool) (model.Request, error) {
	query := "SELECT " + requestColumns + " FROM requests WHERE id = ? AND deleted_at IS NULL"
	if lock {
		query += " FOR UPDATE"
	}
	r, err := scanRequest(q.QueryRowContext(ctx, query, id))
	return r, translate(err)
}

// GetByID returns a live request.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (model.Request, error) {
	return getRequest(ctx, r.DB, id, false)
}

// GetTx reads a live request inside tx without locking it.
func (r *RequestRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Request, error) {
	return getRequest(ctx, tx, id, false)
}

// LockTx reads a live request with SELECT ... FOR UPDATE.
func (r *RequestRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Request, error) {
	return getRequest(ctx, tx, id, true)
}

// List returns one page of live requests joined with user and equipment
// names.  Requests whose equipment has been deleted are hidden.
func (r *RequestRepo) List(ctx context.Context, q model.RequestQuery) ([]model.RequestView, int, error) {
	q.PageRequest = q.Normalize()
	where := sq.And{
		sq.Eq{"r.deleted_at": nil},
		sq.Eq{"e.deleted_at": nil},
	}
	if q.OwnerID != 0 {
		where = append(where, sq.Eq{"r.user_id": q.OwnerID})
	}
	if q.Search != "" {
		p := containsPattern(q.Search)
		where = append(where, sq.Or{sq.Like{"u.name": p}, sq.Like{"e.name": p}})
	}
	base := func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.From("requests r").
			Join("users u ON u.id = r.user_id").
			Join("equipment e ON e.id = r.equipment_id").
			Where(where)
	}

	countSQL, countArgs, err := base(sq.Select("COUNT(*)")).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	listSQL, listArgs, err := base(sq.Select(
		"r.id", "r.user_id", "r.equipment_id", "r.quantity", "r.status", "r.created_at", "r.deleted_at",
		"u.name", "e.name",
	)).OrderBy("r.created_at DESC", "r.id DESC").
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

	var out []model.RequestView
	for rows.Next() {
		var v model.RequestView
		if err := rows.Scan(&v.ID, &v.UserID, &v.EquipmentID, &v.Quantity, &v.Status, &v.CreatedAt,
			&v.DeletedAt, &v.UserName, &v.EquipmentName); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// InsertTx stores a new request and fills in ID and CreatedAt.
func (r *RequestRepo) InsertTx(ctx context.Context, tx *sql.Tx, req *model.Request) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO requests (user_id, equipment_id, quantity, status) VALUES (?, ?, ?, ?)",
		req.UserID, req.EquipmentID, req.Quantity, req.Status)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return translate(tx.QueryRowContext(ctx,
		"SELECT created_at FROM requests WHERE id = ?", req.ID).Scan(&req.CreatedAt))
}

// SetStatusTx overwrites the status of a live request.
func (r *RequestRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, s model.RequestStatus) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE requests SET status = ? WHERE id = ? AND deleted_at IS NULL", s, id)
	return affectedOne(res, err)
}

// SetQuantityTx overwrites the requested quantity of a live request.
func (r *RequestRepo) SetQuantityTx(ctx context.Context, tx *sql.Tx, id uint64, qty int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE requests SET quantity = ? WHERE id = ? AND deleted_at IS NULL", qty, id)
	return affectedOne(res, err)
}

// SoftDeleteTx cancels a live request.
func (r *RequestRepo) SoftDeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE requests SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL", id)
	return affectedOne(res, err)
}

// CancelPendingTx cancels every live Pending request for the equipment and
// returns how many were cancelled.  Approved and Rejected rows are kept.
func (r *RequestRepo) CancelPendingTx(ctx context.Context, tx *sql.Tx, equipmentID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE requests SET deleted_at = UTC_TIMESTAMP() WHERE equipment_id = ? AND status = ? AND deleted_at IS NULL",
		equipmentID, model.StatusPending)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}
