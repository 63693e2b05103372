package worker

import (
	"context"

	"github.com/no0law1/kafka-prioritization/types"
)

// Handler processes records consumed by a tier worker.
//
// The worker calls Handle once per data record, sequentially; the next poll
// does not start until Handle returns, so a slow handler throttles only its
// own tier. The context is detached from worker cancellation: an in-flight
// call always runs to completion during shutdown.
//
// A non-nil error is logged and counted. The record is not redelivered by
// the worker; delivery guarantees are the substrate's (at-least-once).
type Handler interface {
	Handle(ctx context.Context, rec types.Record) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, rec types.Record) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, rec types.Record) error { return f(ctx, rec) }
