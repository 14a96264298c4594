package service

import (
	"context"
	"strings"

	"github.com/iliyamo/equipment-lending/internal/model"
	"github.com/iliyamo/equipment-lending/internal/policy"
	"github.com/iliyamo/equipment-lending/internal/queue"
	"github.com/iliyamo/equipment-lending/internal/repository"
)

func requestEvent(t queue.EventType, actor model.Actor, r model.Request) queue.RequestEvent {
	ev := queue.NewRequestEvent(t, actor.ID)
	ev.RequestID = r.ID
	ev.EquipmentID = r.EquipmentID
	ev.UserID = r.UserID
	ev.Quantity = r.Quantity
	ev.Status = string(r.Status)
	return ev
}

// CreateRequest files a Pending request for qty units.  Stock is checked
// against the current quantity but not reserved, so several Pending
// requests may together exceed it; approval is where stock is taken.
func (e *Engine) CreateRequest(ctx context.Context, actor model.Actor, equipmentID uint64, qty int) (model.Request, error) {
	if !policy.CanCreateRequest(actor) {
		return model.Request{}, ErrForbidden
	}
	var req model.Request
	err := e.inTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		item, err := tx.LockEquipment(ctx, equipmentID)
		if err != nil {
			return err
		}
		if item.IsDeleted() {
			return ErrNotFound
		}
		if qty < 1 || qty > model.MaxQuantity {
			return ErrInvalidQuantity
		}
		if qty > item.Quantity {
			return ErrInsufficientStock
		}
		req = model.Request{
			UserID:      actor.ID,
			EquipmentID: equipmentID,
			Quantity:    qty,
			Status:      model.StatusPending,
		}
		return tx.InsertRequest(ctx, &req)
	})
	if err != nil {
		return model.Request{}, e.logFailure("create request", err)
	}
	e.publish(ctx, requestEvent(queue.EventRequestCreated, actor, req))
	return req, nil
}

// strictAllowed lists the transitions accepted in strict mode.
func strictAllowed(from, to model.RequestStatus) bool {
	switch from {
	case model.StatusPending:
		return to == model.StatusApproved || to == model.StatusRejected
	case model.StatusApproved:
		return to == model.StatusRejected
	}
	return false
}

// SetStatus approves or rejects a request.  Moving into Approved deducts
// the request quantity from stock; moving out of Approved restores it.
// Re-applying the current status changes nothing but the row.
func (e *Engine) SetStatus(ctx context.Context, actor model.Actor, requestID uint64, status model.RequestStatus) (model.Request, error) {
	if !policy.CanReviewRequests(actor) {
		return model.Request{}, ErrForbidden
	}
	if status != model.StatusApproved && status != model.StatusRejected {
		return model.Request{}, ErrInvalidStatus
	}
	var req model.Request
	err := e.inTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// The equipment id is needed to take the equipment lock first.
		peek, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		item, err := tx.LockEquipment(ctx, peek.EquipmentID)
		if err != nil {
			return err
		}
		r, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if e.opts.StrictTransitions && !strictAllowed(r.Status, status) {
			return ErrInvalidState
		}

		switch {
		case status == model.StatusApproved && r.Status != model.StatusApproved:
			if item.IsDeleted() {
				return ErrNotFound
			}
			if item.Quantity < r.Quantity {
				return ErrInsufficientStock
			}
			if err := tx.AdjustEquipmentQuantity(ctx, item.ID, -r.Quantity); err != nil {
				return err
			}
		case status == model.StatusRejected && r.Status == model.StatusApproved:
			// Stock raised by an admin edit may leave no room to restore.
			if item.Quantity > model.MaxQuantity-r.Quantity {
				return ErrInvalidQuantity
			}
			if err := tx.AdjustEquipmentQuantity(ctx, item.ID, r.Quantity); err != nil {
				return err
			}
		}
		if err := tx.SetRequestStatus(ctx, r.ID, status); err != nil {
			return err
		}
		r.Status = status
		req = r
		return nil
	})
	if err != nil {
		return model.Request{}, e.logFailure("set request status", err)
	}

	t := queue.EventRequestApproved
	if status == model.StatusRejected {
		t = queue.EventRequestRejected
	}
	e.publish(ctx, requestEvent(t, actor, req))
	return req, nil
}

// EditRequestQuantity changes the quantity of a Pending request.  Stock is
// not re-checked here; the approval check is authoritative.
func (e *Engine) EditRequestQuantity(ctx context.Context, actor model.Actor, requestID uint64, qty int) (model.Request, error) {
	var req model.Request
	err := e.inTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		r, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !policy.CanMutateRequest(actor, r) {
			return ErrForbidden
		}
		if r.Status != model.StatusPending {
			return ErrInvalidState
		}
		if qty < 1 || qty > model.MaxQuantity {
			return ErrInvalidQuantity
		}
		if err := tx.SetRequestQuantity(ctx, r.ID, qty); err != nil {
			return err
		}
		r.Quantity = qty
		req = r
		return nil
	})
	if err != nil {
		return model.Request{}, e.logFailure("edit request quantity", err)
	}
	e.publish(ctx, requestEvent(queue.EventQuantityChanged, actor, req))
	return req, nil
}

// CancelRequest soft-deletes a request.  Owners may cancel only while the
// request is Pending; administrators may cancel in any state.  Stock is
// left untouched, including for Approved requests.
func (e *Engine) CancelRequest(ctx context.Context, actor model.Actor, requestID uint64) (model.Request, error) {
	var req model.Request
	err := e.inTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		r, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !policy.CanMutateRequest(actor, r) {
			return ErrForbidden
		}
		if !policy.CanCancelInState(actor, r.Status) {
			return ErrInvalidState
		}
		if err := tx.SoftDeleteRequest(ctx, r.ID); err != nil {
			return err
		}
		req = r
		return nil
	})
	if err != nil {
		return model.Request{}, e.logFailure("cancel request", err)
	}
	e.publish(ctx, requestEvent(queue.EventRequestCancelled, actor, req))
	return req, nil
}

// ListRequests pages through live requests.  Administrators see every
// request, other actors only their own.
func (e *Engine) ListRequests(ctx context.Context, actor model.Actor, search string, page model.PageRequest) (model.Page[model.RequestView], error) {
	page = page.Normalize()
	items, total, err := e.store.ListRequests(ctx, model.RequestQuery{
		Search:      strings.TrimSpace(search),
		OwnerID:     policy.RequestOwnerScope(actor),
		PageRequest: page,
	})
	if err != nil {
		return model.Page[model.RequestView]{}, e.logFailure("list requests", classify(err))
	}
	return model.NewPage(items, total, page), nil
}
