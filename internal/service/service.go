package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/model"
	"github.com/jmylchreest/notid/internal/store"
)

// Service is the handle handed to the consumer once the bus name is owned.
// It owns the retained list and the signal emitter for its whole lifetime.
type Service struct {
	store   *store.Store
	emitter *dbus.Emitter
	daemon  *dbus.Daemon
	control *dbus.Control
	logger  *slog.Logger

	wg sync.WaitGroup
}

// New creates a Service. daemon may be nil when internal notifications are not needed.
func New(st *store.Store, emitter *dbus.Emitter, daemon *dbus.Daemon, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   st,
		emitter: emitter,
		daemon:  daemon,
		logger:  logger,
	}
}

// Update applies a domain event to the retained list.
func (s *Service) Update(e model.Event) error {
	return s.store.Apply(e)
}

// Close removes a notification without signalling clients.
func (s *Service) Close(id uint32) bool {
	return s.store.Remove(id)
}

// Dismiss removes a notification and tells its client it was dismissed.
func (s *Service) Dismiss(id uint32) {
	s.store.Remove(id)
	s.emit(func() error {
		return s.emitter.NotificationClosed(id, model.CloseReasonDismissed)
	})
}

// InvokeAction tells the client the action was invoked and closes the notification,
// unless it is resident, in which case it stays in the list and no close is sent.
func (s *Service) InvokeAction(id uint32, actionKey string) {
	resident := false
	if n := s.store.Get(id); n != nil {
		resident = n.Resident
	}
	if !resident {
		s.store.Remove(id)
	}

	s.emit(func() error {
		return s.emitter.InvokeAction(id, actionKey, resident)
	})
}

// ClearAll empties the list and returns the removed ids, newest first.
func (s *Service) ClearAll() []uint32 {
	return s.store.Clear()
}

// DismissAll empties the list and sends a dismissed close for every removed id.
func (s *Service) DismissAll() []uint32 {
	ids := s.store.Clear()
	if len(ids) == 0 {
		return ids
	}

	s.emit(func() error {
		for _, id := range ids {
			if err := s.emitter.NotificationClosed(id, model.CloseReasonDismissed); err != nil {
				return err
			}
		}
		return nil
	})
	return ids
}

// NotifyInternal raises a notification on behalf of notidd itself.
// Returns 0 when the service has no daemon.
func (s *Service) NotifyInternal(n *model.Notification) uint32 {
	if s.daemon == nil {
		return 0
	}
	return s.daemon.NotifyInternal(n)
}

// Notifications returns the retained notifications, newest first.
func (s *Service) Notifications() []model.Notification {
	return s.store.All()
}

// Get returns a copy of the retained notification with the given id, or nil.
func (s *Service) Get(id uint32) *model.Notification {
	return s.store.Get(id)
}

// Count returns the number of retained notifications.
func (s *Service) Count() int {
	return s.store.Count()
}

// SetMaxNotifications changes the bound of the retained list.
func (s *Service) SetMaxNotifications(max int) {
	s.store.SetMax(max)
}

// SetDefaultTimeout changes the expiry used when clients ask for the server default.
func (s *Service) SetDefaultTimeout(timeout time.Duration) {
	if s.daemon != nil {
		s.daemon.SetDefaultTimeout(timeout)
	}
}

// Subscribe returns a channel of retained list changes.
func (s *Service) Subscribe() <-chan store.ChangeEvent {
	return s.store.Subscribe()
}

// Unsubscribe removes a subscription.
func (s *Service) Unsubscribe(ch <-chan store.ChangeEvent) {
	s.store.Unsubscribe(ch)
}

// SetControl sets the control object AnnounceChange signals through.
// Call it before handing the service to its consumer.
func (s *Service) SetControl(control *dbus.Control) {
	s.control = control
}

// AnnounceChange tells control clients the list or the unread count changed.
func (s *Service) AnnounceChange(unread int) {
	if s.control == nil {
		return
	}
	count := s.store.Count()
	s.emit(func() error {
		return s.control.Changed(count, unread)
	})
}

// Wait blocks until every signal emission started so far has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// emit runs fn on its own goroutine; failures are only logged.
func (s *Service) emit(fn func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil {
			s.logger.Warn("failed to emit signal", "error", err)
		}
	}()
}
