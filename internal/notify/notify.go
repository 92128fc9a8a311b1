// Package notify defines the notification sink the storefront core uses to
// surface non-fatal, user-visible messages. Rendering (toasts, banners) is
// entirely external; the core only emits messages through this interface.
package notify

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Notifier delivers a user-visible message. Implementations must be
// fire-and-forget: no acknowledgment, no error, no blocking on delivery.
type Notifier interface {
	Notify(ctx context.Context, message string, isErr bool)
}

// Confirmer asks the user a yes/no question and reports the answer. The core
// awaits confirmation before destructive cart mutations.
type Confirmer interface {
	Confirm(ctx context.Context, message, title string) (bool, error)
}

// LogNotifier writes notifications to the request-scoped logger. It is the
// default sink when no UI transport is attached.
type LogNotifier struct{}

// NewLogNotifier returns a Notifier backed by zctx context loggers.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the message at warn level for errors and info level otherwise.
func (LogNotifier) Notify(ctx context.Context, message string, isErr bool) {
	lg := zctx.From(ctx)
	if isErr {
		lg.Warn("user notice", zap.String("message", message))
		return
	}
	lg.Info("user notice", zap.String("message", message))
}

// StaticConfirmer answers every confirmation prompt with a fixed value. The
// API layer builds one from the client's explicit confirmation flag.
type StaticConfirmer bool

// Confirm returns the fixed answer.
func (c StaticConfirmer) Confirm(context.Context, string, string) (bool, error) {
	return bool(c), nil
}
