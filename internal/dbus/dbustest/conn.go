// Package dbustest provides an in-memory bus connection for tests.
package dbustest

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

// Signal is an emitted signal.
type Signal struct {
	Path   dbus.ObjectPath
	Name   string
	Values []any
}

// Export is a recorded Export call.
type Export struct {
	Object    any
	Path      dbus.ObjectPath
	Interface string
}

// Conn records exports, name requests and signals.
type Conn struct {
	mu sync.Mutex

	// NameReply is returned by RequestName. Defaults to primary owner.
	NameReply dbus.RequestNameReply
	// NameErr, ExportErr and EmitErr are returned by the matching calls when set.
	NameErr   error
	ExportErr error
	EmitErr   error

	exports  []Export
	names    []string
	released []string
	signals  []Signal
	closed   bool

	signalCh chan Signal
}

// NewConn creates a connection that grants every name request.
func NewConn() *Conn {
	return &Conn{
		NameReply: dbus.RequestNameReplyPrimaryOwner,
		signalCh:  make(chan Signal, 256),
	}
}

// Export implements the connection interface.
func (c *Conn) Export(v any, path dbus.ObjectPath, iface string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ExportErr != nil {
		return c.ExportErr
	}
	c.exports = append(c.exports, Export{Object: v, Path: path, Interface: iface})
	return nil
}

// RequestName implements the connection interface.
func (c *Conn) RequestName(name string, _ dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.NameErr != nil {
		return 0, c.NameErr
	}
	c.names = append(c.names, name)
	return c.NameReply, nil
}

// ReleaseName implements the connection interface.
func (c *Conn) ReleaseName(name string) (dbus.ReleaseNameReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.released = append(c.released, name)
	return dbus.ReleaseNameReplyReleased, nil
}

// Emit implements the connection interface.
func (c *Conn) Emit(path dbus.ObjectPath, name string, values ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.EmitErr != nil {
		return c.EmitErr
	}
	sig := Signal{Path: path, Name: name, Values: values}
	c.signals = append(c.signals, sig)
	select {
	case c.signalCh <- sig:
	default:
	}
	return nil
}

// Close implements the connection interface.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Exports returns the recorded exports.
func (c *Conn) Exports() []Export {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Export(nil), c.exports...)
}

// Exported reports whether something was exported on path with iface.
func (c *Conn) Exported(path dbus.ObjectPath, iface string) bool {
	for _, e := range c.Exports() {
		if e.Path == path && e.Interface == iface {
			return true
		}
	}
	return false
}

// Names returns the requested bus names.
func (c *Conn) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

// Released returns the released bus names.
func (c *Conn) Released() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.released...)
}

// Signals returns the emitted signals in order.
func (c *Conn) Signals() []Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Signal(nil), c.signals...)
}

// SignalCh delivers each emitted signal as it happens.
func (c *Conn) SignalCh() <-chan Signal {
	return c.signalCh
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
