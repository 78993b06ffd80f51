package chatclient

import (
	"context"
	"fmt"
	"log/slog"
)

// ReceiveHandler is invoked once per inbound message matching its route. It
// must return promptly; long work belongs on another goroutine.
type ReceiveHandler func(context.Context, InboundMessage)

// SendHandler is invoked to obtain the next outbound message. The client does
// not invoke it again until the returned message has been written. Returning
// ErrSendClosed stops the send loop for that route.
type SendHandler func(context.Context) (string, error)

type ReceiveHandlerAdapter func(ReceiveHandler) ReceiveHandler

func AdaptReceiveHandler(h ReceiveHandler, opts ...ReceiveHandlerAdapter) ReceiveHandler {
	for _, opt := range opts {
		h = opt(h)
	}
	return h
}

// AdaptWithRoute returns an adapter that calls the handler only if the
// message is on the supplied route. The empty route matches every message.
func AdaptWithRoute(route string) ReceiveHandlerAdapter {
	return func(h ReceiveHandler) ReceiveHandler {
		return func(ctx context.Context, m InboundMessage) {
			if route != "" && m.Route() != route {
				return
			}
			h(ctx, m)
		}
	}
}

// AdaptWithRecover returns an adapter that logs and swallows a panic raised
// by the handler, so one bad message cannot take down the read loop.
func AdaptWithRecover(logf func(int, string, ...any)) ReceiveHandlerAdapter {
	return func(h ReceiveHandler) ReceiveHandler {
		return func(ctx context.Context, m InboundMessage) {
			defer func() {
				if err := recover(); err != nil {
					logf(int(slog.LevelError),
						fmt.Sprintf("recovered from panic in receive handler: %v", err),
						"payload", string(m.Raw()))
				}
			}()
			h(ctx, m)
		}
	}
}
