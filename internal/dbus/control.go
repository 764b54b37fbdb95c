package dbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/notid/internal/model"
)

const (
	// ControlInterface is the interface notid uses to drive the daemon.
	ControlInterface = "io.github.jmylchreest.notid.Control"
	// ControlPath is the object path of the control interface.
	ControlPath = "/io/github/jmylchreest/notid"
	// ControlChangedSignal carries the retained and unread counts after every change.
	ControlChangedSignal = ControlInterface + ".Changed"
)

// ErrNotExported is returned when a control signal is emitted before Export.
var ErrNotExported = errors.New("control object is not exported")

// Status is a snapshot of the daemon as reported by the control interface.
type Status struct {
	State         string  `json:"state"`
	Count         int     `json:"count"`
	Unread        int     `json:"unread"`
	MenuOpen      bool    `json:"menu_open"`
	PopupActive   bool    `json:"popup_active"`
	PopupEntries  int     `json:"popup_entries"`
	SurfaceHeight float64 `json:"surface_height"`
}

// ControlHandler executes control requests. Implemented by the daemon host.
type ControlHandler interface {
	List() ([]model.Notification, error)
	Status() (Status, error)
	Dismiss(id uint32) error
	InvokeAction(id uint32, actionKey string) error
	PopupClicked(id uint32) error
	ClearAll() error
	OpenMenu() error
	CloseMenu() error
}

// Control exposes a ControlHandler on the bus.
type Control struct {
	handler ControlHandler
	logger  *slog.Logger

	mu   sync.Mutex
	conn Conn
}

// NewControl creates a Control forwarding to handler.
func NewControl(handler ControlHandler, logger *slog.Logger) *Control {
	if logger == nil {
		logger = slog.Default()
	}
	return &Control{handler: handler, logger: logger}
}

// Export registers the control object and its introspection data on conn.
func (c *Control) Export(conn Conn) error {
	if err := conn.Export(c, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: ControlPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ControlInterface,
				Methods: controlMethods(),
				Signals: []introspect.Signal{
					{
						Name: "Changed",
						Args: []introspect.Arg{
							{Name: "count", Type: "u"},
							{Name: "unread", Type: "u"},
						},
					},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ControlPath, introspectableInterface); err != nil {
		return fmt.Errorf("failed to export control introspectable: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Changed emits the Changed signal.
// D-Bus signal: Changed(uu)
func (c *Control) Changed(count, unread int) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotExported
	}
	return conn.Emit(ControlPath, ControlChangedSignal, uint32(count), uint32(unread))
}

// List returns the retained notifications as a JSON array, newest first.
// D-Bus method: List() -> s
func (c *Control) List() (string, *dbus.Error) {
	notifications, err := c.handler.List()
	if err != nil {
		return "", c.fail("List", err)
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	data, err := json.Marshal(notifications)
	if err != nil {
		return "", c.fail("List", err)
	}
	return string(data), nil
}

// Status returns the daemon status as a JSON object.
// D-Bus method: Status() -> s
func (c *Control) Status() (string, *dbus.Error) {
	status, err := c.handler.Status()
	if err != nil {
		return "", c.fail("Status", err)
	}
	data, err := json.Marshal(status)
	if err != nil {
		return "", c.fail("Status", err)
	}
	return string(data), nil
}

// Dismiss closes a notification as if the user dismissed it.
// D-Bus method: Dismiss(u)
func (c *Control) Dismiss(id uint32) *dbus.Error {
	return c.fail("Dismiss", c.handler.Dismiss(id))
}

// InvokeAction invokes an action of a notification.
// D-Bus method: InvokeAction(us)
func (c *Control) InvokeAction(id uint32, actionKey string) *dbus.Error {
	return c.fail("InvokeAction", c.handler.InvokeAction(id, actionKey))
}

// PopupClicked handles a primary click on a popup.
// D-Bus method: PopupClicked(u)
func (c *Control) PopupClicked(id uint32) *dbus.Error {
	return c.fail("PopupClicked", c.handler.PopupClicked(id))
}

// ClearAll dismisses every retained notification.
// D-Bus method: ClearAll()
func (c *Control) ClearAll() *dbus.Error {
	return c.fail("ClearAll", c.handler.ClearAll())
}

// OpenMenu marks everything read and hides popups.
// D-Bus method: OpenMenu()
func (c *Control) OpenMenu() *dbus.Error {
	return c.fail("OpenMenu", c.handler.OpenMenu())
}

// CloseMenu lets popups show again.
// D-Bus method: CloseMenu()
func (c *Control) CloseMenu() *dbus.Error {
	return c.fail("CloseMenu", c.handler.CloseMenu())
}

func (c *Control) fail(method string, err error) *dbus.Error {
	if err == nil {
		return nil
	}
	c.logger.Warn("control request failed", "method", method, "error", err)

	var dbusErr *dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr
	}
	return dbus.MakeFailedError(err)
}

func controlMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "List",
			Args: []introspect.Arg{
				{Name: "notifications", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "status", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Dismiss",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "InvokeAction",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
				{Name: "action_key", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "PopupClicked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
		{Name: "ClearAll"},
		{Name: "OpenMenu"},
		{Name: "CloseMenu"},
	}
}
