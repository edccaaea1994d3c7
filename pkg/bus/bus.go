// Package bus is the typed asynchronous request/response channel between
// the page context, the background context, and any UI surface.
//
// Every request yields exactly one response. Requests from a single sender
// are delivered in send order; responses may complete out of order across
// independent requests, so callers correlate by request token rather than
// arrival order.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

// Handler processes one request and returns its single response. Handlers
// may perform I/O; a panic is caught and folded into an error response.
type Handler func(ctx context.Context, msg models.Message) models.Response

// envelope pairs a request with its reply channel and correlation token.
type envelope struct {
	token string
	msg   models.Message
	reply chan models.Response
}

// Bus routes requests to per-type handlers through a single delivery loop.
type Bus struct {
	logger *slog.Logger
	inbox  chan envelope

	mu       sync.RWMutex
	handlers map[models.MessageType]Handler
}

// New creates a bus. The buffer bounds how many requests may be pending
// delivery before senders block.
func New(logger *slog.Logger, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 32
	}
	return &Bus{
		logger:   logger,
		inbox:    make(chan envelope, buffer),
		handlers: make(map[models.MessageType]Handler),
	}
}

// Handle registers the handler for a message type, replacing any previous
// registration.
func (b *Bus) Handle(t models.MessageType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = h
}

// Send delivers a request and waits for its response. Malformed requests
// are rejected synchronously with an error response. The returned error is
// non-nil only when ctx ends before the response arrives.
func (b *Bus) Send(ctx context.Context, msg models.Message) (models.Response, error) {
	if !msg.Type.Valid() {
		return models.Response{Success: false, Error: fmt.Sprintf("unknown message type: %q", msg.Type)}, nil
	}

	env := envelope{
		token: uuid.NewString(),
		msg:   msg,
		reply: make(chan models.Response, 1),
	}

	select {
	case b.inbox <- env:
	case <-ctx.Done():
		return models.Response{}, fmt.Errorf("send %s: %w", msg.Type, ctx.Err())
	}

	select {
	case resp := <-env.reply:
		return resp, nil
	case <-ctx.Done():
		return models.Response{}, fmt.Errorf("awaiting response to %s (request %s): %w", msg.Type, env.token, ctx.Err())
	}
}

// Serve runs the delivery loop until ctx ends. Envelopes are picked up in
// send order; each handler runs on its own goroutine so one slow request
// does not stall delivery of the next.
func (b *Bus) Serve(ctx context.Context) error {
	for {
		select {
		case env := <-b.inbox:
			b.mu.RLock()
			h, ok := b.handlers[env.msg.Type]
			b.mu.RUnlock()

			if !ok {
				env.reply <- models.Response{Success: false, Error: fmt.Sprintf("no handler for message type %q", env.msg.Type)}
				continue
			}
			go b.dispatch(ctx, env, h)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch invokes the handler and guarantees exactly one reply, even when
// the handler panics.
func (b *Bus) dispatch(ctx context.Context, env envelope, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				"type", string(env.msg.Type),
				"request", env.token,
				"panic", fmt.Sprint(r))
			env.reply <- models.Response{Success: false, Error: fmt.Sprintf("internal error handling %s: %v", env.msg.Type, r)}
		}
	}()

	env.reply <- h(ctx, env.msg)
}
