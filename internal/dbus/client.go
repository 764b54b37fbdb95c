package dbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notid/internal/model"
)

// Client talks to a running notidd over the session bus.
type Client struct {
	conn    *dbus.Conn
	control dbus.BusObject
	server  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn:    conn,
		control: conn.Object(DBusBusName, ControlPath),
		server:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

// Close closes the client's connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// List returns the retained notifications, newest first.
func (c *Client) List(ctx context.Context) ([]model.Notification, error) {
	var raw string
	if err := c.control.CallWithContext(ctx, ControlInterface+".List", 0).Store(&raw); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	var notifications []model.Notification
	if err := json.Unmarshal([]byte(raw), &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// Status returns the daemon status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var raw string
	if err := c.control.CallWithContext(ctx, ControlInterface+".Status", 0).Store(&raw); err != nil {
		return Status{}, fmt.Errorf("failed to get status: %w", err)
	}

	var status Status
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return Status{}, fmt.Errorf("failed to decode status: %w", err)
	}
	return status, nil
}

// Dismiss dismisses a notification.
func (c *Client) Dismiss(ctx context.Context, id uint32) error {
	return c.call(ctx, "Dismiss", id)
}

// InvokeAction invokes an action on a notification.
func (c *Client) InvokeAction(ctx context.Context, id uint32, actionKey string) error {
	return c.call(ctx, "InvokeAction", id, actionKey)
}

// PopupClicked simulates a primary click on a popup.
func (c *Client) PopupClicked(ctx context.Context, id uint32) error {
	return c.call(ctx, "PopupClicked", id)
}

// ClearAll dismisses every notification.
func (c *Client) ClearAll(ctx context.Context) error {
	return c.call(ctx, "ClearAll")
}

// OpenMenu marks notifications read and hides popups.
func (c *Client) OpenMenu(ctx context.Context) error {
	return c.call(ctx, "OpenMenu")
}

// CloseMenu lets popups show again.
func (c *Client) CloseMenu(ctx context.Context) error {
	return c.call(ctx, "CloseMenu")
}

// Change is one Changed announcement from the daemon.
type Change struct {
	Count  int
	Unread int
}

// Changes delivers the daemon's Changed announcements until ctx ends.
func (c *Client) Changes(ctx context.Context) (<-chan Change, error) {
	err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(ControlPath),
		dbus.WithMatchInterface(ControlInterface),
		dbus.WithMatchMember("Changed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to watch daemon changes: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)

	out := make(chan Change)
	go func() {
		defer close(out)
		defer c.conn.RemoveSignal(signals)

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				change, ok := decodeChange(sig)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func decodeChange(sig *dbus.Signal) (Change, bool) {
	if sig.Name != ControlChangedSignal || len(sig.Body) != 2 {
		return Change{}, false
	}
	count, ok1 := sig.Body[0].(uint32)
	unread, ok2 := sig.Body[1].(uint32)
	if !ok1 || !ok2 {
		return Change{}, false
	}
	return Change{Count: int(count), Unread: int(unread)}, true
}

// ServerInformation queries the notification server identity.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.server.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("failed to get server information: %w", err)
	}
	return info, nil
}

// NotifyRequest holds the arguments of a Notify call.
type NotifyRequest struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []model.Action
	Urgency       model.Urgency
	Transient     bool
	ExpireTimeout int32
}

// Notify sends a notification through the standard interface and returns its id.
func (c *Client) Notify(ctx context.Context, req NotifyRequest) (uint32, error) {
	actions := make([]string, 0, len(req.Actions)*2)
	for _, a := range req.Actions {
		actions = append(actions, a.Key, a.Label)
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(req.Urgency)),
	}
	if req.Transient {
		hints["transient"] = dbus.MakeVariant(true)
	}

	var id uint32
	err := c.server.CallWithContext(ctx, DBusInterface+".Notify", 0,
		req.AppName, req.ReplacesID, req.AppIcon, req.Summary, req.Body,
		actions, hints, req.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}
	return id, nil
}

func (c *Client) call(ctx context.Context, method string, args ...any) error {
	if err := c.control.CallWithContext(ctx, ControlInterface+"."+method, 0, args...).Err; err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	return nil
}
