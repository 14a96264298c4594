// Package service implements the reservation engine: the operations that
// change equipment stock and request status together.  Each mutation runs
// in exactly one transaction obtained from a repository.Store; equipment
// rows are always locked before request rows.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/queue"
	"github.com/iliyamo/equipment-lending/internal/repository"
)

// DefaultTxTimeout bounds a single engine transaction when Options leaves
// TxTimeout unset.
const DefaultTxTimeout = 5 * time.Second

// EventPublisher receives an event after each committed mutation.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.RequestEvent) error
}

// Options tune the engine.
type Options struct {
	// StrictTransitions limits SetStatus to Pending->Approved,
	// Pending->Rejected and Approved->Rejected.
	StrictTransitions bool
	TxTimeout         time.Duration
}

// Engine is stateless; all state lives in the Store.
type Engine struct {
	store  repository.Store
	events EventPublisher
	log    *zap.Logger
	opts   Options
}

// New constructs an Engine.  A nil publisher drops events and a nil logger
// discards output.
func New(store repository.Store, events EventPublisher, log *zap.Logger, opts Options) *Engine {
	if store == nil {
		panic("service: nil store")
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = DefaultTxTimeout
	}
	return &Engine{store: store, events: events, log: log.Named("engine"), opts: opts}
}

// inTx runs fn under the transaction timeout and classifies its error.
func (e *Engine) inTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.opts.TxTimeout)
	defer cancel()
	err := e.store.InTx(ctx, func(tx repository.Tx) error { return fn(ctx, tx) })
	return classify(err)
}

// publish is called only after commit.  It never fails the operation.
func (e *Engine) publish(ctx context.Context, ev queue.RequestEvent) {
	if err := e.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		e.log.Warn("event not published",
			zap.String("event_id", ev.ID),
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}

// logFailure records unexpected failures.  Typed business outcomes are
// not logged here.
func (e *Engine) logFailure(op string, err error) error {
	if err != nil && isInternal(err) {
		e.log.Error(op+" failed", zap.Error(err))
	}
	return err
}
