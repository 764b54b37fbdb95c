// Package service manages the lifetime of the notification server connection and
// relays what it receives to a single consumer.
//
// A Subscription moves through Init, Active and Error. Error is terminal: reconnecting
// means creating a new Subscription.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/model"
	"github.com/jmylchreest/notid/internal/store"
)

// State is the connection lifecycle state.
type State int

const (
	// StateInit is connecting and claiming the bus name.
	StateInit State = iota
	// StateActive is relaying events.
	StateActive
	// StateError is terminal.
	StateError
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MessageKind identifies a Message.
type MessageKind int

const (
	// MessageInit carries the Service once the name is owned.
	MessageInit MessageKind = iota
	// MessageUpdate carries a domain event.
	MessageUpdate
	// MessageError carries the terminal error.
	MessageError
)

// Message is what a Subscription delivers to its consumer.
type Message struct {
	Kind    MessageKind
	Service *Service
	Event   model.Event
	Err     error
}

// Config configures a Subscription.
type Config struct {
	// Connector opens the bus connection. Defaults to the session bus.
	Connector dbus.Connector
	// Daemon configures the notification server.
	Daemon dbus.DaemonConfig
	// MaxNotifications bounds the retained list.
	MaxNotifications int
	// Control is exported alongside the server when set.
	Control dbus.ControlHandler
}

// Subscription owns one attempt at serving the notification interface.
type Subscription struct {
	cfg    Config
	logger *slog.Logger
	out    chan Message

	mu    sync.RWMutex
	state State
	err   error
}

// NewSubscription creates a Subscription in the Init state.
func NewSubscription(cfg Config, logger *slog.Logger) *Subscription {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Connector == nil {
		cfg.Connector = dbus.SessionConnector
	}
	return &Subscription{
		cfg:    cfg,
		logger: logger,
		out:    make(chan Message, 16),
	}
}

// Messages returns the channel messages are delivered on.
func (s *Subscription) Messages() <-chan Message {
	return s.out
}

// State returns the current state.
func (s *Subscription) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the terminal error, if any.
func (s *Subscription) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Run connects, relays events until the daemon stops or ctx ends, and then idles in the
// Error state until ctx ends. It never retries.
func (s *Subscription) Run(ctx context.Context) error {
	conn, daemon, control, err := s.setup()
	if err != nil {
		s.fail(ctx, err)
		<-ctx.Done()
		return nil
	}
	st := store.NewStore(s.cfg.MaxNotifications)
	defer func() {
		daemon.Stop()
		_ = st.Close()
		if err := conn.Close(); err != nil {
			s.logger.Debug("failed to close bus connection", "error", err)
		}
	}()

	svc := New(st, daemon.Emitter(), daemon, s.logger)
	svc.SetControl(control)
	s.setState(StateActive, nil)
	if !s.send(ctx, Message{Kind: MessageInit, Service: svc}) {
		return nil
	}

	events := daemon.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				s.fail(ctx, dbus.ErrDaemonStopped)
				<-ctx.Done()
				return nil
			}
			if !s.send(ctx, Message{Kind: MessageUpdate, Event: e}) {
				return nil
			}
		}
	}
}

// setup connects, exports the control object when configured, and starts the server.
// The returned control is nil without a control handler.
func (s *Subscription) setup() (dbus.Conn, *dbus.Daemon, *dbus.Control, error) {
	conn, err := s.cfg.Connector()
	if err != nil {
		return nil, nil, nil, err
	}

	var control *dbus.Control
	if s.cfg.Control != nil {
		control = dbus.NewControl(s.cfg.Control, s.logger)
		if err := control.Export(conn); err != nil {
			_ = conn.Close()
			return nil, nil, nil, err
		}
	}

	daemon := dbus.NewDaemon(s.cfg.Daemon, s.logger)
	if err := daemon.Start(conn); err != nil {
		daemon.Stop()
		_ = conn.Close()
		return nil, nil, nil, fmt.Errorf("failed to start notification server: %w", err)
	}
	return conn, daemon, control, nil
}

func (s *Subscription) fail(ctx context.Context, err error) {
	if errors.Is(err, dbus.ErrNameTaken) {
		s.logger.Error("another notification server owns the bus name", "error", err)
	} else {
		s.logger.Error("notification service failed", "error", err)
	}
	s.setState(StateError, err)
	s.send(ctx, Message{Kind: MessageError, Err: err})
}

func (s *Subscription) setState(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.err = err
}

func (s *Subscription) send(ctx context.Context, msg Message) bool {
	select {
	case s.out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
