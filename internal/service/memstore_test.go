package service

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aarondl/null/v8"

	"github.com/iliyamo/equipment-lending/internal/model"
	"github.com/iliyamo/equipment-lending/internal/repository"
)

// memStore is an in-memory repository.Store.  One mutex serialises all
// transactions, which is at least as strict as row locking.  A
// transaction works on copies and swaps them in only on success.
type memStore struct {
	mu        sync.Mutex
	equipment map[uint64]model.Equipment
	requests  map[uint64]model.Request
	users     map[uint64]string
	nextID    uint64
	failOn    map[string]error
	commits   int
}

func newMemStore() *memStore {
	return &memStore{
		equipment: map[uint64]model.Equipment{},
		requests:  map[uint64]model.Request{},
		users:     map[uint64]string{},
		failOn:    map[string]error{},
	}
}

func (s *memStore) addEquipment(name string, qty int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.equipment[s.nextID] = model.Equipment{ID: s.nextID, Name: name, Quantity: qty, CreatedAt: time.Now().UTC()}
	return s.nextID
}

func (s *memStore) addRequest(userID, equipmentID uint64, qty int, st model.RequestStatus) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.requests[s.nextID] = model.Request{ID: s.nextID, UserID: userID, EquipmentID: equipmentID,
		Quantity: qty, Status: st, CreatedAt: time.Now().UTC()}
	return s.nextID
}

func (s *memStore) item(id uint64) model.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equipment[id]
}

func (s *memStore) request(id uint64) model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

// approvedSum is Σ quantity of Approved requests for the item, cancelled
// or not.
func (s *memStore) approvedSum(equipmentID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.EquipmentID == equipmentID && r.Status == model.StatusApproved {
			n += r.Quantity
		}
	}
	return n
}

func (s *memStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{
		equipment: maps.Clone(s.equipment),
		requests:  maps.Clone(s.requests),
		nextID:    s.nextID,
		failOn:    s.failOn,
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.equipment, s.requests, s.nextID = tx.equipment, tx.requests, tx.nextID
	s.commits++
	return nil
}

func (s *memStore) GetEquipment(_ context.Context, id uint64) (model.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.equipment[id]
	if !ok || e.IsDeleted() {
		return model.Equipment{}, repository.ErrNotFound
	}
	return e, nil
}

func (s *memStore) ListEquipment(_ context.Context, q model.EquipmentQuery) ([]model.Equipment, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Equipment
	for _, e := range s.equipment {
		if e.IsDeleted() {
			continue
		}
		if q.Search != "" && !contains(e.Name, q.Search) && !contains(e.Description.String, q.Search) {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return window(all, q.PageRequest), len(all), nil
}

func (s *memStore) GetRequest(_ context.Context, id uint64) (model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.IsCancelled() {
		return model.Request{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *memStore) ListRequests(_ context.Context, q model.RequestQuery) ([]model.RequestView, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.RequestView
	for _, r := range s.requests {
		e := s.equipment[r.EquipmentID]
		if r.IsCancelled() || e.IsDeleted() {
			continue
		}
		if q.OwnerID != 0 && r.UserID != q.OwnerID {
			continue
		}
		v := model.RequestView{Request: r, UserName: s.users[r.UserID], EquipmentName: e.Name}
		if q.Search != "" && !contains(v.UserName, q.Search) && !contains(v.EquipmentName, q.Search) {
			continue
		}
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return window(all, q.PageRequest), len(all), nil
}

func contains(s, sub string) bool { return strings.Contains(strings.ToLower(s), strings.ToLower(sub)) }

func window[T any](all []T, p model.PageRequest) []T {
	start := p.Offset()
	if start >= len(all) {
		return nil
	}
	end := min(start+p.Limit, len(all))
	return all[start:end]
}

type memTx struct {
	equipment map[uint64]model.Equipment
	requests  map[uint64]model.Request
	nextID    uint64
	failOn    map[string]error
}

func (t *memTx) fail(op string) error { return t.failOn[op] }

func (t *memTx) LockEquipment(_ context.Context, id uint64) (model.Equipment, error) {
	if err := t.fail("LockEquipment"); err != nil {
		return model.Equipment{}, err
	}
	e, ok := t.equipment[id]
	if !ok {
		return model.Equipment{}, repository.ErrNotFound
	}
	return e, nil
}

func (t *memTx) InsertEquipment(_ context.Context, e *model.Equipment) error {
	if err := t.fail("InsertEquipment"); err != nil {
		return err
	}
	t.nextID++
	e.ID = t.nextID
	e.CreatedAt = time.Now().UTC()
	t.equipment[e.ID] = *e
	return nil
}

func (t *memTx) UpdateEquipment(_ context.Context, id uint64, f model.EquipmentFields) error {
	e, ok := t.equipment[id]
	if !ok || e.IsDeleted() {
		return repository.ErrNotFound
	}
	e.Name, e.Description, e.Quantity = f.Name, f.Description, f.Quantity
	t.equipment[id] = e
	return nil
}

func (t *memTx) AdjustEquipmentQuantity(_ context.Context, id uint64, delta int) error {
	if err := t.fail("AdjustEquipmentQuantity"); err != nil {
		return err
	}
	e, ok := t.equipment[id]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Quantity+delta < 0 {
		return repository.ErrConflict
	}
	e.Quantity += delta
	t.equipment[id] = e
	return nil
}

func (t *memTx) SoftDeleteEquipment(_ context.Context, id uint64) error {
	e, ok := t.equipment[id]
	if !ok || e.IsDeleted() {
		return repository.ErrNotFound
	}
	e.DeletedAt = null.TimeFrom(time.Now().UTC())
	t.equipment[id] = e
	return nil
}

func (t *memTx) GetRequest(_ context.Context, id uint64) (model.Request, error) {
	r, ok := t.requests[id]
	if !ok || r.IsCancelled() {
		return model.Request{}, repository.ErrNotFound
	}
	return r, nil
}

func (t *memTx) LockRequest(ctx context.Context, id uint64) (model.Request, error) {
	return t.GetRequest(ctx, id)
}

func (t *memTx) InsertRequest(_ context.Context, r *model.Request) error {
	if err := t.fail("InsertRequest"); err != nil {
		return err
	}
	t.nextID++
	r.ID = t.nextID
	r.CreatedAt = time.Now().UTC()
	t.requests[r.ID] = *r
	return nil
}

func (t *memTx) SetRequestStatus(_ context.Context, id uint64, s model.RequestStatus) error {
	if err := t.fail("SetRequestStatus"); err != nil {
		return err
	}
	r, ok := t.requests[id]
	if !ok || r.IsCancelled() {
		return repository.ErrNotFound
	}
	r.Status = s
	t.requests[id] = r
	return nil
}

func (t *memTx) SetRequestQuantity(_ context.Context, id uint64, qty int) error {
	r, ok := t.requests[id]
	if !ok || r.IsCancelled() {
		return repository.ErrNotFound
	}
	r.Quantity = qty
	t.requests[id] = r
	return nil
}

func (t *memTx) SoftDeleteRequest(_ context.Context, id uint64) error {
	r, ok := t.requests[id]
	if !ok || r.IsCancelled() {
		return repository.ErrNotFound
	}
	r.DeletedAt = null.TimeFrom(time.Now().UTC())
	t.requests[id] = r
	return nil
}

func (t *memTx) CancelPendingRequests(_ context.Context, equipmentID uint64) (int64, error) {
	if err := t.fail("CancelPendingRequests"); err != nil {
		return 0, err
	}
	var n int64
	for id, r := range t.requests {
		if r.EquipmentID == equipmentID && r.Status == model.StatusPending && !r.IsCancelled() {
			r.DeletedAt = null.TimeFrom(time.Now().UTC())
			t.requests[id] = r
			n++
		}
	}
	return n, nil
}
