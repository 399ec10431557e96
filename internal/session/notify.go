package session

import (
	"sync"

	"go.uber.org/zap"
)

// Level classifies a user notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a short message for the person running the import.
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier receives notifications from a session.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify logs the notification at a level matching its kind.
func (l LogNotifier) Notify(n Notification) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
	if n.Level == LevelError {
		l.Logger.Warn("Import notification", fields...)
		return
	}
	l.Logger.Info("Import notification", fields...)
}

// Collector keeps notifications in memory.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

// Notify records the notification.
func (c *Collector) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Notifications returns a copy of everything recorded so far.
func (c *Collector) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification{}, c.items...)
}
