// Package admin implements the back-office screens: dashboard, orders,
// users, categories and menu items. Every mutation reports its outcome
// through a Notifier.
package admin

import (
	"context"
	"log/slog"
)

// Level is the kind of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows transient feedback to the operator.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, level Level, message string)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, level Level, message string) {
	f(ctx, level, message)
}

// LogNotifier writes notifications to a logger, for non-interactive use.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs the message at a level matching its kind.
func (n LogNotifier) Notify(ctx context.Context, level Level, message string) {
	switch level {
	case LevelError:
		n.Logger.ErrorContext(ctx, message)
	default:
		n.Logger.InfoContext(ctx, message, slog.String("level", string(level)))
	}
}
