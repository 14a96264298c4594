package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/equipment-lending/internal/repository"
)

// Outcomes of engine operations.  Every error returned by the Engine
// matches exactly one of these with errors.Is.
var (
	ErrNotFound          = repository.ErrNotFound
	ErrForbidden         = repository.ErrForbidden
	ErrConflict          = repository.ErrConflict
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

var known = []error{
	ErrNotFound, ErrForbidden, ErrConflict, ErrInvalidQuantity,
	ErrInvalidStatus, ErrInsufficientStock, ErrInvalidState, ErrInvalidInput, ErrInternal,
}

// classify passes typed outcomes through and wraps anything else, such as
// a broken connection, as ErrInternal with the cause kept in the chain.
// A transaction that ran out of time is a retryable conflict.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

func isInternal(err error) bool { return errors.Is(err, ErrInternal) }
