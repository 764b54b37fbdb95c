package dbus

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/notid/internal/model"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"

	introspectableInterface = "org.freedesktop.DBus.Introspectable"

	// EventBufferSize is the capacity of the daemon's event channel.
	EventBufferSize = 100
	// DefaultTimeout applies when a client asks for the server default.
	DefaultTimeout = 5 * time.Second
)

// Errors
var (
	ErrNameTaken     = errors.New("bus name already taken")
	ErrNotConnected  = errors.New("not connected to D-Bus")
	ErrDaemonStopped = errors.New("daemon stopped")
)

// Conn is the subset of *dbus.Conn the daemon needs.
type Conn interface {
	Export(v any, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
	Emit(path dbus.ObjectPath, name string, values ...any) error
	Close() error
}

// Connector opens a bus connection.
type Connector func() (Conn, error)

// SessionConnector opens a private session bus connection.
func SessionConnector() (Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return conn, nil
}

// DaemonConfig configures a Daemon.
type DaemonConfig struct {
	// DefaultTimeout is used when a client passes a negative expire_timeout.
	DefaultTimeout time.Duration
	// ServerInfo is returned by GetServerInformation.
	ServerInfo ServerInfo
	// Icons resolves app_icon. Nil means no icons.
	Icons IconResolver
}

// Daemon implements the org.freedesktop.Notifications D-Bus interface.
//
// Every received notification is published as a domain event on a bounded channel.
// The D-Bus reply never waits on the consumer; events that do not fit are dropped.
type Daemon struct {
	logger *slog.Logger

	serverInfo ServerInfo
	icons      IconResolver
	entropy    io.Reader

	defaultTimeout atomic.Int64
	counter        atomic.Uint32
	scheduler      *Scheduler

	mu      sync.Mutex
	conn    Conn
	emitter *Emitter
	events  chan model.Event
	closed  bool
}

// NewDaemon creates a Daemon that is not yet on the bus.
func NewDaemon(cfg DaemonConfig, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.ServerInfo.Name == "" {
		cfg.ServerInfo = DefaultServerInfo(cfg.ServerInfo.Version)
	}

	d := &Daemon{
		logger:     logger,
		serverInfo: cfg.ServerInfo,
		icons:      cfg.Icons,
		entropy:    rand.Reader,
		scheduler:  NewScheduler(),
		emitter:    NewEmitter(nil, logger),
		events:     make(chan model.Event, EventBufferSize),
	}
	d.defaultTimeout.Store(int64(cfg.DefaultTimeout))
	return d
}

// SetDefaultTimeout changes the timeout used for notifications that ask for the server
// default. Already scheduled expiries are unaffected.
func (d *Daemon) SetDefaultTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d.defaultTimeout.Store(int64(timeout))
}

// Events returns the channel domain events are published on.
// It is closed by Stop.
func (d *Daemon) Events() <-chan model.Event {
	return d.events
}

// Emitter returns the signal emitter bound to the daemon's connection.
func (d *Daemon) Emitter() *Emitter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.emitter
}

// Start exports the notification object with its introspection data and claims the bus
// name. Any failure is final for this daemon.
func (d *Daemon) Start(conn Conn) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDaemonStopped
	}
	if d.conn != nil {
		return fmt.Errorf("daemon already started")
	}

	if err := conn.Export(d, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath, introspectableInterface); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	if err := ClaimName(conn, DBusBusName); err != nil {
		return err
	}

	d.conn = conn
	d.emitter = NewEmitter(conn, d.logger)

	d.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// ClaimName requests name without queuing and fails unless we become the primary owner.
func ClaimName(conn Conn, name string) error {
	reply, err := conn.RequestName(name, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%s: %w", name, ErrNameTaken)
	}
	return nil
}

// Stop cancels pending expiry jobs, closes the event channel and releases the bus name.
// The connection itself is owned by the caller.
func (d *Daemon) Stop() {
	d.scheduler.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.events)

	if d.conn != nil {
		if _, err := d.conn.ReleaseName(DBusBusName); err != nil {
			d.logger.Warn("failed to release bus name", "error", err)
		}
	}

	d.logger.Info("D-Bus notification server stopped")
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (d *Daemon) GetCapabilities() ([]string, *dbus.Error) {
	d.logger.Debug("GetCapabilities called")
	return ServerCapabilities, nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (d *Daemon) GetServerInformation() (string, string, string, string, *dbus.Error) {
	d.logger.Debug("GetServerInformation called")
	info := d.serverInfo
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

// Notify handles incoming notification requests.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (d *Daemon) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	id := replacesID
	if id == 0 {
		id = d.nextID()
	}

	d.logger.Debug("Notify called",
		"app_name", appName,
		"replaces_id", replacesID,
		"summary", summary,
		"id", id,
	)

	n := d.newNotification(id)

	h := DecodeHints(hints)
	n.AppName = appName
	n.AppIcon = appIcon
	n.Summary = summary
	n.Body = body
	n.Actions = ParseActions(actions)
	n.ExpireTimeout = expireTimeout
	n.Urgency = h.Urgency
	n.Transient = h.Transient
	n.Resident = h.Resident
	n.Category = h.Category
	n.DesktopEntry = h.DesktopEntry
	if d.icons != nil {
		n.Icon = d.icons.Resolve(appIcon)
	}

	d.deliver(n)
	return id, nil
}

// newNotification creates a notification for id. The call never fails: when no key can
// be generated one is derived from the id and time.
func (d *Daemon) newNotification(id uint32) *model.Notification {
	n, err := model.NewNotificationWithEntropy(id, d.entropy)
	if err == nil {
		return n
	}
	d.logger.Warn("failed to generate notification key, deriving one", "id", id, "error", err)
	now := time.Now()
	return &model.Notification{
		Key:       model.FallbackKey(id, now),
		ID:        id,
		Urgency:   model.UrgencyNormal,
		Timestamp: now,
	}
}

// NotifyInternal delivers a notification raised by notidd itself.
// A zero id takes a fresh one from the same counter as D-Bus clients; a set id replaces
// that notification. Returns the id used.
func (d *Daemon) NotifyInternal(n *model.Notification) uint32 {
	if n.ID == 0 {
		n.ID = d.nextID()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	if n.Key == "" {
		n.Key = d.newNotification(n.ID).Key
	}

	d.logger.Debug("NotifyInternal called",
		"app_name", n.AppName,
		"summary", n.Summary,
		"id", n.ID,
	)

	d.deliver(n)
	return n.ID
}

// CloseNotification closes a notification by ID.
// D-Bus method: CloseNotification(u) -> nothing
func (d *Daemon) CloseNotification(id uint32) *dbus.Error {
	d.logger.Debug("CloseNotification called", "id", id)

	d.publish(model.ClosedEvent(id, model.CloseReasonClosed))
	if err := d.Emitter().NotificationClosed(id, model.CloseReasonClosed); err != nil {
		d.logger.Warn("failed to emit NotificationClosed signal", "id", id, "error", err)
	}
	return nil
}

// Timeout returns how long n stays before expiring, or 0 if it never expires.
func (d *Daemon) Timeout(n *model.Notification) time.Duration {
	if n.IsCritical() {
		return 0
	}
	switch {
	case n.ExpireTimeout < 0:
		return time.Duration(d.defaultTimeout.Load())
	case n.ExpireTimeout == 0:
		return 0
	default:
		return time.Duration(n.ExpireTimeout) * time.Millisecond
	}
}

// Scheduler exposes the expiry scheduler.
func (d *Daemon) Scheduler() *Scheduler {
	return d.scheduler
}

func (d *Daemon) deliver(n *model.Notification) {
	d.publish(model.NotifyEvent(n))

	timeout := d.Timeout(n)
	if timeout <= 0 {
		return
	}

	id := n.ID
	d.scheduler.Schedule(id, timeout, func() {
		d.logger.Debug("notification expired", "id", id)
		d.publish(model.ClosedEvent(id, model.CloseReasonExpired))
		if err := d.Emitter().NotificationClosed(id, model.CloseReasonExpired); err != nil {
			d.logger.Warn("failed to emit NotificationClosed signal", "id", id, "error", err)
		}
	})
}

// publish never blocks; the event is dropped when the channel is full or closed.
func (d *Daemon) publish(e model.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.Warn("dropping event, daemon stopped", "event", e.String())
		return false
	}

	select {
	case d.events <- e:
		return true
	default:
		d.logger.Warn("dropping event, channel full", "event", e.String())
		return false
	}
}

// nextID returns the next id, wrapping past MaxUint32 back to 1 and never returning 0.
func (d *Daemon) nextID() uint32 {
	for {
		cur := d.counter.Load()
		next := cur + 1
		if next == 0 {
			next = 1
		}
		if d.counter.CompareAndSwap(cur, next) {
			return next
		}
	}
}

// notificationMethods returns the D-Bus method introspection data.
func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

// notificationSignals returns the D-Bus signal introspection data.
func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
