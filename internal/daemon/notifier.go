package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/notid/internal/model"
)

// NotificationLevel is the severity of an internal notification.
type NotificationLevel int

const (
	NotificationLevelInfo NotificationLevel = iota
	NotificationLevelWarning
	NotificationLevelError
)

func (l NotificationLevel) String() string {
	switch l {
	case NotificationLevelInfo:
		return "info"
	case NotificationLevelWarning:
		return "warning"
	case NotificationLevelError:
		return "error"
	default:
		return "unknown"
	}
}

type levelStyle struct {
	urgency model.Urgency
	icon    string
}

var levelStyles = map[NotificationLevel]levelStyle{
	NotificationLevelInfo:    {model.UrgencyLow, "dialog-information"},
	NotificationLevelWarning: {model.UrgencyNormal, "dialog-warning"},
	NotificationLevelError:   {model.UrgencyCritical, "dialog-error"},
}

const (
	// InternalAppName is the app name internal notifications are raised under.
	InternalAppName = "notid"
	// InternalExpireTimeout is the expiry of internal notifications in milliseconds.
	InternalExpireTimeout = 5000
	// DefaultNotifyInterval is the minimum time between notifications with the same key.
	DefaultNotifyInterval = 5 * time.Second
)

// NotifyFunc raises a notification and returns the id it was given.
type NotifyFunc func(n *model.Notification) uint32

type sentNotice struct {
	at time.Time
	id uint32
}

// InternalNotifier raises notifications about notidd itself through the normal notify
// path. Each key is rate limited, and a new notice replaces the popup of the previous
// one with the same key.
type InternalNotifier struct {
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	handler     NotifyFunc
	enabled     bool
	minInterval time.Duration
	sent        map[string]sentNotice
}

// NewInternalNotifier creates an enabled InternalNotifier with no handler.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:      logger,
		now:         time.Now,
		enabled:     true,
		minInterval: DefaultNotifyInterval,
		sent:        make(map[string]sentNotice),
	}
}

// SetNotifyHandler sets the function used to raise notifications. A nil handler drops
// notices until one is set again. Ids from an earlier handler are forgotten.
func (n *InternalNotifier) SetNotifyHandler(handler NotifyFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = handler
	for key, s := range n.sent {
		n.sent[key] = sentNotice{at: s.at}
	}
}

// SetEnabled turns internal notifications on or off.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets how soon a notice with the same key may be raised again.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify raises a notice and returns its id, or 0 when it was disabled, unhandled or
// rate limited.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return 0
	}
	if n.handler == nil {
		n.logger.Debug("internal notification dropped, no handler", "key", key)
		return 0
	}

	now := n.now()
	prev, seen := n.sent[key]
	if seen && now.Sub(prev.at) < n.minInterval {
		n.logger.Debug("internal notification rate limited", "key", key)
		return 0
	}

	style := levelStyles[level]
	notification := &model.Notification{
		ID:            prev.id,
		AppName:       InternalAppName,
		AppIcon:       style.icon,
		Summary:       summary,
		Body:          body,
		Urgency:       style.urgency,
		ExpireTimeout: InternalExpireTimeout,
		Transient:     true,
		Category:      "device",
		DesktopEntry:  InternalAppName,
	}

	id := n.handler(notification)
	n.sent[key] = sentNotice{at: now, id: id}
	n.logger.Debug("internal notification sent", "key", key, "id", id, "level", level)
	return id
}

// NotifyConfigReloaded tells the user a changed config took effect.
func (n *InternalNotifier) NotifyConfigReloaded() uint32 {
	return n.Notify("config-reload", "Configuration Reloaded",
		"notidd is now using the updated configuration.", NotificationLevelInfo)
}

// NotifyConfigError tells the user a changed config was rejected.
func (n *InternalNotifier) NotifyConfigError(err error) uint32 {
	return n.Notify("config-error", "Configuration Error",
		"Keeping the previous configuration: "+err.Error(), NotificationLevelWarning)
}

// NotifyStartup announces the running version.
func (n *InternalNotifier) NotifyStartup(version string) uint32 {
	return n.Notify("startup", "notidd Started",
		"notidd "+version+" is handling notifications.", NotificationLevelInfo)
}
