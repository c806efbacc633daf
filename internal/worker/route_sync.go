// Package worker keeps a process's route cache in step with resolutions
// announced by other processes on the message bus.
package worker

import (
	"context"
	"errors"

	"finance/internal/amqp"
	"finance/internal/log"
	"finance/internal/resolver"
)

// RouteAdopter accepts routes discovered elsewhere.
type RouteAdopter interface {
	Adopt(ctx context.Context, route resolver.ResolvedRoute) (bool, error)
}

// RouteSyncWorker applies route resolved messages to a resolver.
type RouteSyncWorker struct {
	resolver RouteAdopter
	logger   *log.Logger
}

func NewRouteSyncWorker(res RouteAdopter, logger *log.Logger) *RouteSyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RouteSyncWorker{
		resolver: res,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRouteResolved adopts the announced route. Messages for another
// backend, or naming a path this process would never probe, are dropped
// rather than retried.
func (w *RouteSyncWorker) HandleRouteResolved(ctx context.Context, msg *amqp.RouteResolvedMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	changed, err := w.resolver.Adopt(ctx, resolver.ResolvedRoute{
		Key:        resolver.RouteKey(msg.Key),
		Path:       msg.Path,
		BaseURL:    msg.BaseURL,
		ResolvedAt: msg.Timestamp,
	})
	switch {
	case errors.Is(err, resolver.ErrForeignRoute), errors.Is(err, resolver.ErrUnknownRouteKey):
		w.logger.DebugContext(ctx, "Ignoring route message",
			log.FieldRouteKey, msg.Key,
			log.FieldBaseURL, msg.BaseURL,
			log.FieldError, err)
		return nil
	case err != nil:
		return err
	}

	if changed {
		w.logger.InfoContext(ctx, "Route synced from peer",
			log.FieldRouteKey, msg.Key,
			log.FieldPath, msg.Path)
	}
	return nil
}

// Run consumes messages until ctx is cancelled.
func (w *RouteSyncWorker) Run(ctx context.Context, client *amqp.Client) error {
	err := client.ConsumeRouteResolved(ctx, func(msg *amqp.RouteResolvedMessage) error {
		return w.HandleRouteResolved(ctx, msg)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
