package dbus

import (
	"fmt"
	"log/slog"

	"github.com/jmylchreest/notid/internal/model"
)

// Emitter sends the outbound notification signals on a connection.
// An Emitter without a connection fails every emission with ErrNotConnected.
type Emitter struct {
	conn   Conn
	logger *slog.Logger
}

// NewEmitter creates an Emitter for conn.
func NewEmitter(conn Conn, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{conn: conn, logger: logger}
}

// NotificationClosed emits the NotificationClosed signal.
// This signal is emitted when a notification is closed, either by timeout,
// user dismissal, or explicit close request.
func (e *Emitter) NotificationClosed(id uint32, reason model.CloseReason) error {
	if e == nil || e.conn == nil {
		return ErrNotConnected
	}

	err := e.conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason))
	if err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	e.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// ActionInvoked emits the ActionInvoked signal.
func (e *Emitter) ActionInvoked(id uint32, actionKey string) error {
	if e == nil || e.conn == nil {
		return ErrNotConnected
	}

	err := e.conn.Emit(DBusPath, DBusInterface+".ActionInvoked", id, actionKey)
	if err != nil {
		return fmt.Errorf("failed to emit ActionInvoked signal: %w", err)
	}

	e.logger.Debug("emitted ActionInvoked signal", "id", id, "action_key", actionKey)
	return nil
}

// InvokeAction emits ActionInvoked followed by NotificationClosed(dismissed).
// Resident notifications stay open after an action, so the close is skipped for them.
func (e *Emitter) InvokeAction(id uint32, actionKey string, resident bool) error {
	if err := e.ActionInvoked(id, actionKey); err != nil {
		return err
	}

	if !resident {
		return e.NotificationClosed(id, model.CloseReasonDismissed)
	}

	return nil
}
