// Package bridge connects the installer event bus to the queue store.
//
// The bridge holds the single long-lived bus subscription and translates
// each event into the matching store mutation. A progress report reaching
// 100 percent doubles as a completion signal, so installs that finish
// without an explicit success line still complete their task.
package bridge

import (
	"context"
	"log/slog"

	"llstore/internal/events"
	"llstore/internal/logging"
)

// Queue is the mutation surface the bridge drives. Satisfied by
// queue.Store.
type Queue interface {
	UpdateProgress(appID string, percent int, message string)
	UpdateMessage(appID, message string)
	MarkSuccess(appID string)
	MarkFailed(appID, errMessage string, code *int, detail string)
}

// Bridge pumps installer events into the queue store.
type Bridge struct {
	bus    *events.Bus
	store  Queue
	logger *slog.Logger
	buffer int
}

// New constructs a bridge with the given subscription buffer.
func New(bus *events.Bus, store Queue, logger *slog.Logger, buffer int) *Bridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bridge{bus: bus, store: store, logger: logger, buffer: buffer}
}

// Run consumes events until the context is cancelled. It subscribes before
// returning control to the scheduler, so events published after Run starts
// are never missed.
func (b *Bridge) Run(ctx context.Context) {
	ch, unsubscribe := b.bus.Subscribe(b.buffer)
	defer unsubscribe()

	b.logger.Debug("event bridge started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Debug("event bridge stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			b.route(evt)
		}
	}
}

func (b *Bridge) route(evt events.Event) {
	switch evt.Kind {
	case events.KindProgress:
		b.store.UpdateProgress(evt.AppID, evt.Percent, evt.Status)
		if evt.Percent >= 100 {
			b.store.MarkSuccess(evt.AppID)
		}
	case events.KindError:
		b.store.MarkFailed(evt.AppID, evt.Status, evt.Code, evt.Detail)
	case events.KindMessage:
		b.store.UpdateMessage(evt.AppID, evt.Status)
	default:
		b.logger.Warn("dropping event of unknown kind", logging.String("kind", string(evt.Kind)))
	}
}
