// Package policy holds the role and ownership rules consulted by the
// reservation engine.  Every rule is a pure function of the actor and,
// where relevant, the row being touched.
package policy

import "github.com/iliyamo/equipment-lending/internal/model"

// CanViewAllRequests reports whether the actor may list every user's requests.
func CanViewAllRequests(a model.Actor) bool { return a.IsAdmin() }

// CanMutateRequest reports whether the actor may edit or cancel r.
func CanMutateRequest(a model.Actor, r model.Request) bool {
	return a.IsAdmin() || a.ID == r.UserID
}

// CanMutateEquipment reports whether the actor may create, update or delete
// inventory items.
func CanMutateEquipment(a model.Actor) bool { return a.IsAdmin() }

// CanReviewRequests reports whether the actor may approve or reject requests.
func CanReviewRequests(a model.Actor) bool { return a.IsAdmin() }

// CanCreateRequest reports whether the actor may submit new requests.  Only
// regular users borrow equipment.
func CanCreateRequest(a model.Actor) bool { return a.Role == model.RoleUser }

// CanCancelInState reports whether the actor may cancel a request in the
// given status.  Administrators may cancel regardless of status.
func CanCancelInState(a model.Actor, s model.RequestStatus) bool {
	return a.IsAdmin() || s == model.StatusPending
}

// RequestOwnerScope returns the owner filter for request listings: zero for
// actors that see everything, the actor's own id otherwise.
func RequestOwnerScope(a model.Actor) uint64 {
	if CanViewAllRequests(a) {
		return 0
	}
	return a.ID
}
