package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/notid/internal/config"
	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/model"
	"github.com/jmylchreest/notid/internal/popup"
	"github.com/jmylchreest/notid/internal/service"
	"github.com/jmylchreest/notid/internal/store"
)

// Host errors.
var (
	// ErrHostUnavailable is returned when a command cannot be run by the host loop in time.
	ErrHostUnavailable = errors.New("host is not running")
	// ErrNotReady is returned by commands that need the notification service before it exists.
	ErrNotReady = errors.New("notification service is not ready")
)

const (
	// DefaultTickInterval is the popup frame interval.
	DefaultTickInterval = 16 * time.Millisecond
	// DefaultCommandTimeout bounds how long a control request waits for the host loop.
	DefaultCommandTimeout = 2 * time.Second

	commandBufferSize = 16
)

// Host states reported by Status.
const (
	StateWaiting = "waiting"
	StateActive  = "active"
	StateError   = "error"
)

// Options configures a Host.
type Options struct {
	PopupEnabled     bool
	PopupDuration    time.Duration
	Popup            popup.Options
	MaxNotifications int
	DefaultTimeout   time.Duration
	TickInterval     time.Duration
	CommandTimeout   time.Duration

	// Version is announced after connecting when AnnounceStartup is set.
	Version         string
	AnnounceStartup bool
}

// OptionsFromConfig derives host options from the daemon configuration.
func OptionsFromConfig(cfg *config.DaemonConfig) Options {
	return Options{
		PopupEnabled:  cfg.Popup.Enabled,
		PopupDuration: cfg.Popup.Duration.Duration(),
		Popup: popup.Options{
			MaxVisible:        cfg.Popup.MaxVisible,
			AnimationDuration: cfg.Popup.Animation.Duration(),
			EntryHeight:       float64(cfg.Popup.EntryHeight),
			Padding:           float64(cfg.Popup.Padding),
		},
		MaxNotifications: cfg.Notifications.MaxNotifications,
		DefaultTimeout:   cfg.Notifications.DefaultTimeout.Duration(),
		TickInterval:     DefaultTickInterval,
		CommandTimeout:   DefaultCommandTimeout,
		AnnounceStartup:  cfg.Internal.Startup,
	}
}

func (o Options) normalized() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}
	return o
}

// FrameEntry is one popup as it should be drawn.
type FrameEntry struct {
	Notification *model.Notification
	Phase        popup.Phase
	Progress     float64
}

// Frame is the popup surface state at one tick.
type Frame struct {
	Entries []FrameEntry
	Height  float64
	Bubble  float64
}

type command struct {
	fn   func() error
	done chan error
}

// Host consumes service messages, drives the popup engine and answers control requests.
// All state below the mutex is owned by the goroutine running Run.
type Host struct {
	logger         *slog.Logger
	notifier       *InternalNotifier
	commands       chan command
	commandTimeout time.Duration

	mu     sync.RWMutex
	render func(Frame)

	opts     Options
	engine   *popup.Engine
	service  *service.Service
	changes  <-chan store.ChangeEvent
	state    string
	unread   int
	menuOpen bool
	ticker   *time.Ticker
}

// NewHost creates a Host. A nil notifier gets a fresh InternalNotifier.
func NewHost(opts Options, notifier *InternalNotifier, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NewInternalNotifier(logger)
	}
	opts = opts.normalized()

	return &Host{
		logger:         logger,
		notifier:       notifier,
		commands:       make(chan command, commandBufferSize),
		commandTimeout: opts.CommandTimeout,
		opts:           opts,
		engine:         popup.New(opts.Popup),
		state:          StateWaiting,
	}
}

// Notifier returns the internal notifier fed by the current service.
func (h *Host) Notifier() *InternalNotifier {
	return h.notifier
}

// SetRenderCallback sets the function called with every popup frame.
func (h *Host) SetRenderCallback(callback func(Frame)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.render = callback
}

// Run handles messages and commands until ctx ends or messages closes.
// An Error message is returned as the result; the host keeps its state and may be run
// again with the messages of a new subscription.
func (h *Host) Run(ctx context.Context, messages <-chan service.Message) error {
	defer h.stopTicker()

	for {
		h.syncTicker()

		var tick <-chan time.Time
		if h.ticker != nil {
			tick = h.ticker.C
		}

		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := h.handleMessage(msg); err != nil {
				return err
			}

		case cmd := <-h.commands:
			cmd.done <- cmd.fn()

		case _, ok := <-h.changes:
			if !ok {
				h.changes = nil
				continue
			}
			h.drainChanges()
			h.announce()

		case now := <-tick:
			h.engine.TickAt(now)
			h.renderFrame(now)
		}
	}
}

func (h *Host) handleMessage(msg service.Message) error {
	switch msg.Kind {
	case service.MessageInit:
		h.detach()
		h.service = msg.Service
		h.changes = h.service.Subscribe()
		h.state = StateActive
		h.service.SetMaxNotifications(h.opts.MaxNotifications)
		if h.opts.DefaultTimeout > 0 {
			h.service.SetDefaultTimeout(h.opts.DefaultTimeout)
		}
		h.notifier.SetNotifyHandler(h.service.NotifyInternal)
		h.logger.Info("notification service ready")
		if h.opts.AnnounceStartup {
			h.notifier.NotifyStartup(h.opts.Version)
		}

	case service.MessageUpdate:
		h.handleEvent(msg.Event)

	case service.MessageError:
		h.state = StateError
		h.detach()
		h.notifier.SetNotifyHandler(nil)
		return msg.Err
	}
	return nil
}

// detach drops the current service and its change subscription.
func (h *Host) detach() {
	if h.service != nil && h.changes != nil {
		h.service.Unsubscribe(h.changes)
	}
	h.service = nil
	h.changes = nil
}

// drainChanges discards queued change events so a burst is announced once.
func (h *Host) drainChanges() {
	for {
		select {
		case _, ok := <-h.changes:
			if !ok {
				h.changes = nil
				return
			}
		default:
			return
		}
	}
}

// announce tells control clients about the current counts.
func (h *Host) announce() {
	if h.service != nil {
		h.service.AnnounceChange(h.unread)
	}
}

func (h *Host) handleEvent(e model.Event) {
	if h.service == nil {
		h.logger.Warn("dropping event received before service", "event", e)
		return
	}

	if err := h.service.Update(e); err != nil {
		h.logger.Warn("failed to apply event", "event", e, "error", err)
		return
	}

	switch e.Kind {
	case model.EventNotify:
		h.unread++
		if h.opts.PopupEnabled && !h.menuOpen {
			h.engine.Enqueue(e.Notification, h.opts.PopupDuration)
		}
	case model.EventClosed:
		h.engine.Dismiss(e.ID)
	}
}

func (h *Host) syncTicker() {
	active := h.engine.IsActive()
	switch {
	case active && h.ticker == nil:
		h.ticker = time.NewTicker(h.opts.TickInterval)
	case !active && h.ticker != nil:
		h.stopTicker()
	}
}

func (h *Host) stopTicker() {
	if h.ticker != nil {
		h.ticker.Stop()
		h.ticker = nil
	}
}

func (h *Host) renderFrame(now time.Time) {
	h.mu.RLock()
	render := h.render
	h.mu.RUnlock()
	if render == nil {
		return
	}

	entries := h.engine.Entries()
	frame := Frame{
		Entries: make([]FrameEntry, 0, len(entries)),
		Height:  h.engine.TargetSurfaceHeightAt(now),
		Bubble:  h.engine.BubbleProgressAt(now),
	}
	for i, entry := range entries {
		frame.Entries = append(frame.Entries, FrameEntry{
			Notification: entry.Notification,
			Phase:        entry.Phase,
			Progress:     h.engine.EntryProgressStaggeredAt(entry, i, now),
		})
	}
	render(frame)
}

// do runs fn on the host loop and waits for its result.
func (h *Host) do(fn func() error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	timer := time.NewTimer(h.commandTimeout)
	defer timer.Stop()

	select {
	case h.commands <- cmd:
	case <-timer.C:
		return ErrHostUnavailable
	}

	select {
	case err := <-cmd.done:
		return err
	case <-timer.C:
		return ErrHostUnavailable
	}
}

// withService runs fn on the host loop once the service exists.
func (h *Host) withService(fn func(svc *service.Service) error) error {
	return h.do(func() error {
		if h.service == nil {
			return ErrNotReady
		}
		return fn(h.service)
	})
}

// List returns the retained notifications, newest first.
func (h *Host) List() ([]model.Notification, error) {
	var list []model.Notification
	err := h.withService(func(svc *service.Service) error {
		list = svc.Notifications()
		return nil
	})
	return list, err
}

// Status reports the host state.
func (h *Host) Status() (dbus.Status, error) {
	var status dbus.Status
	err := h.do(func() error {
		now := time.Now()
		status = dbus.Status{
			State:         h.state,
			Unread:        h.unread,
			MenuOpen:      h.menuOpen,
			PopupActive:   h.engine.IsActive(),
			PopupEntries:  h.engine.Len(),
			SurfaceHeight: h.engine.TargetSurfaceHeightAt(now),
		}
		if h.service != nil {
			status.Count = h.service.Count()
		}
		return nil
	})
	return status, err
}

// Dismiss closes a notification on behalf of the user.
func (h *Host) Dismiss(id uint32) error {
	return h.withService(func(svc *service.Service) error {
		h.engine.Dismiss(id)
		svc.Dismiss(id)
		return nil
	})
}

// InvokeAction invokes an action and closes the notification unless it is resident.
func (h *Host) InvokeAction(id uint32, actionKey string) error {
	return h.withService(func(svc *service.Service) error {
		h.engine.Dismiss(id)
		svc.InvokeAction(id, actionKey)
		return nil
	})
}

// PopupClicked invokes the default action of a notification. Notifications without one
// are left alone. The popup is consulted first since transient notifications are shown
// without being retained.
func (h *Host) PopupClicked(id uint32) error {
	return h.withService(func(svc *service.Service) error {
		var n *model.Notification
		if entry, ok := h.engine.Get(id); ok {
			n = entry.Notification
		} else {
			n = svc.Get(id)
		}
		if n == nil || !n.HasDefaultAction() {
			return nil
		}
		h.engine.Dismiss(id)
		svc.InvokeAction(id, model.DefaultActionKey)
		return nil
	})
}

// ClearAll dismisses every retained notification and resets the unread count.
func (h *Host) ClearAll() error {
	return h.withService(func(svc *service.Service) error {
		ids := svc.DismissAll()
		h.unread = 0
		for _, entry := range h.engine.Entries() {
			h.engine.Dismiss(entry.ID())
		}
		h.logger.Debug("cleared notifications", "count", len(ids))
		return nil
	})
}

// OpenMenu marks everything read and hides popups until CloseMenu.
func (h *Host) OpenMenu() error {
	return h.do(func() error {
		h.unread = 0
		h.menuOpen = true
		h.engine.Clear()
		h.renderFrame(time.Now())
		h.announce()
		return nil
	})
}

// CloseMenu lets new notifications pop up again.
func (h *Host) CloseMenu() error {
	return h.do(func() error {
		h.menuOpen = false
		h.announce()
		return nil
	})
}

// ApplyConfig applies a reloaded configuration to the running host.
// Entries already showing keep their display duration.
func (h *Host) ApplyConfig(cfg *config.DaemonConfig) error {
	h.notifier.SetEnabled(cfg.Internal.Enabled)
	h.notifier.SetMinInterval(cfg.Internal.Interval.Duration())

	return h.do(func() error {
		opts := OptionsFromConfig(cfg)
		opts.TickInterval = h.opts.TickInterval
		opts.CommandTimeout = h.opts.CommandTimeout
		opts.Version = h.opts.Version

		h.opts = opts
		h.engine.UpdateOptions(opts.Popup)
		if h.service != nil {
			h.service.SetMaxNotifications(opts.MaxNotifications)
			h.service.SetDefaultTimeout(opts.DefaultTimeout)
		}
		return nil
	})
}

// ConfigReloaded applies cfg and tells the user it took effect.
func (h *Host) ConfigReloaded(cfg *config.DaemonConfig) {
	if err := h.ApplyConfig(cfg); err != nil {
		h.logger.Warn("failed to apply reloaded config", "error", err)
		return
	}
	h.notifier.NotifyConfigReloaded()
}

// ConfigFailed tells the user a changed config was rejected.
func (h *Host) ConfigFailed(err error) {
	h.notifier.NotifyConfigError(err)
}

var (
	_ dbus.ControlHandler = (*Host)(nil)
	_ ReloadHandler       = (*Host)(nil)
)
