package model

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest selects a 1-indexed page of a listing.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the page to >= 1 and the limit to [1, MaxPageLimit],
// substituting DefaultPageLimit for a non-positive limit.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset is the number of rows skipped before the page starts.
func (p PageRequest) Offset() int { return (p.Page - 1) * p.Limit }

// Page is one page of a listing together with its pagination metadata.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPage assembles a Page, computing TotalPages as ceil(total/limit).
func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Limit > 0 {
		pages = (total + req.Limit - 1) / req.Limit
	}
	return Page[T]{Items: items, Total: total, Page: req.Page, Limit: req.Limit, TotalPages: pages}
}

// EquipmentQuery filters the inventory listing.
type EquipmentQuery struct {
	Search string
	PageRequest
}

// RequestQuery filters the request listing.  A non-zero OwnerID restricts
// the listing to that user's requests.
type RequestQuery struct {
	Search  string
	OwnerID uint64
	PageRequest
}
