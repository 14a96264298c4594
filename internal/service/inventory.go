package service

import (
	"context"
	"strings"

	"github.com/iliyamo/equipment-lending/internal/model"
	"github.com/iliyamo/equipment-lending/internal/policy"
	"github.com/iliyamo/equipment-lending/internal/queue"
	"github.com/iliyamo/equipment-lending/internal/repository"
)

func checkFields(f *model.EquipmentFields) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return ErrInvalidInput
	}
	if f.Quantity < 0 || f.Quantity > model.MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// CreateEquipment adds an item with the given starting stock.
func (e *Engine) CreateEquipment(ctx context.Context, actor model.Actor, f model.EquipmentFields) (model.Equipment, error) {
	if !policy.CanMutateEquipment(actor) {
		return model.Equipment{}, ErrForbidden
	}
	if err := checkFields(&f); err != nil {
		return model.Equipment{}, err
	}
	item := model.Equipment{Name: f.Name, Description: f.Description, Quantity: f.Quantity}
	err := e.inTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertEquipment(ctx, &item)
	})
	if err != nil {
		return model.Equipment{}, e.logFailure("create equipment", err)
	}
	return item, nil
}

// UpdateEquipment overwrites name, description and stock of a live item.
// Setting the stock directly is an administrative correction and is not
// reconciled against approved requests.
func (e *Engine) UpdateEquipment(ctx context.Context, actor model.Actor, id uint64, f model.EquipmentFields) (model.Equipment, error) {
	if !policy.CanMutateEquipment(actor) {
		return model.Equipment{}, ErrForbidden
	}
	if err := checkFields(&f); err != nil {
		return model.Equipment{}, err
	}
	var item model.Equipment
	err := e.inTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cur, err := tx.LockEquipment(ctx, id)
		if err != nil {
			return err
		}
		if cur.IsDeleted() {
			return ErrNotFound
		}
		if err := tx.UpdateEquipment(ctx, id, f); err != nil {
			return err
		}
		cur.Name, cur.Description, cur.Quantity = f.Name, f.Description, f.Quantity
		item = cur
		return nil
	})
	if err != nil {
		return model.Equipment{}, e.logFailure("update equipment", err)
	}
	return item, nil
}

// DeleteEquipment soft-deletes the item and cancels its Pending requests in
// the same transaction.  Approved requests keep their stock deduction.  It
// returns the number of cancelled requests.  Deleting an item twice
// reports ErrNotFound and cancels nothing.
func (e *Engine) DeleteEquipment(ctx context.Context, actor model.Actor, id uint64) (int64, error) {
	if !policy.CanMutateEquipment(actor) {
		return 0, ErrForbidden
	}
	var cancelled int64
	err := e.inTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cur, err := tx.LockEquipment(ctx, id)
		if err != nil {
			return err
		}
		if cur.IsDeleted() {
			return ErrNotFound
		}
		if err := tx.SoftDeleteEquipment(ctx, id); err != nil {
			return err
		}
		cancelled, err = tx.CancelPendingRequests(ctx, id)
		return err
	})
	if err != nil {
		return 0, e.logFailure("delete equipment", err)
	}

	ev := queue.NewRequestEvent(queue.EventEquipmentDeleted, actor.ID)
	ev.EquipmentID = id
	ev.Cancelled = cancelled
	e.publish(ctx, ev)
	return cancelled, nil
}

// GetEquipment returns a live item.
func (e *Engine) GetEquipment(ctx context.Context, id uint64) (model.Equipment, error) {
	item, err := e.store.GetEquipment(ctx, id)
	if err != nil {
		return model.Equipment{}, e.logFailure("get equipment", classify(err))
	}
	return item, nil
}

// ListEquipment pages through live items.  Every authenticated actor may
// browse the inventory.
func (e *Engine) ListEquipment(ctx context.Context, _ model.Actor, search string, page model.PageRequest) (model.Page[model.Equipment], error) {
	page = page.Normalize()
	items, total, err := e.store.ListEquipment(ctx, model.EquipmentQuery{Search: strings.TrimSpace(search), PageRequest: page})
	if err != nil {
		return model.Page[model.Equipment]{}, e.logFailure("list equipment", classify(err))
	}
	return model.NewPage(items, total, page), nil
}
