// Package store provides the retained notification list.
package store

import (
	"fmt"
	"sync"

	"github.com/jmylchreest/notid/internal/model"
)

// DefaultMaxNotifications bounds the list when no limit is configured.
const DefaultMaxNotifications = 50

// ChangeType indicates the type of store change.
type ChangeType int

const (
	// ChangeTypeAdd indicates a notification was inserted at the head.
	ChangeTypeAdd ChangeType = iota
	// ChangeTypeRemove indicates a notification was removed by id.
	ChangeTypeRemove
	// ChangeTypeClear indicates all notifications were cleared.
	ChangeTypeClear
	// ChangeTypeTrim indicates the oldest notifications were dropped to respect the bound.
	ChangeTypeTrim
)

// String returns the string representation of the change type.
func (t ChangeType) String() string {
	switch t {
	case ChangeTypeAdd:
		return "add"
	case ChangeTypeRemove:
		return "remove"
	case ChangeTypeClear:
		return "clear"
	case ChangeTypeTrim:
		return "trim"
	default:
		return "unknown"
	}
}

// ChangeEvent signals store content changes.
type ChangeEvent struct {
	Type  ChangeType
	ID    uint32 // set for add and remove
	Count int
}

// Store holds notifications newest first, unique by id, bounded in length.
type Store struct {
	mu            sync.RWMutex
	notifications []*model.Notification
	max           int

	subscribers []chan ChangeEvent
	closed      bool
}

// NewStore creates an empty store holding at most max notifications.
func NewStore(max int) *Store {
	if max <= 0 {
		max = DefaultMaxNotifications
	}
	return &Store{
		notifications: make([]*model.Notification, 0, max),
		max:           max,
		subscribers:   make([]chan ChangeEvent, 0),
	}
}

// Apply mutates the list according to a domain event.
//
// Notify replaces any entry with the same id, then inserts at the head unless the
// notification is transient and not critical. Closed removes the id if present.
func (s *Store) Apply(e model.Event) error {
	switch e.Kind {
	case model.EventNotify:
		if e.Notification == nil {
			return fmt.Errorf("notify event %d has no notification", e.ID)
		}
		return s.Add(e.Notification)
	case model.EventClosed:
		s.Remove(e.ID)
		return nil
	default:
		return fmt.Errorf("unknown event kind %d", e.Kind)
	}
}

// Add inserts n at the head, replacing any entry with the same id.
func (s *Store) Add(n *model.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("invalid notification %d: %w", n.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if s.removeLocked(n.ID) {
		s.notifyChange(ChangeEvent{Type: ChangeTypeRemove, ID: n.ID, Count: 1})
	}

	if !n.Retainable() {
		return nil
	}

	s.notifications = append(s.notifications, nil)
	copy(s.notifications[1:], s.notifications)
	s.notifications[0] = n.Clone()
	s.notifyChange(ChangeEvent{Type: ChangeTypeAdd, ID: n.ID, Count: 1})

	s.trimLocked()
	return nil
}

// Remove deletes the notification with the given id.
// Returns false if no such notification exists.
func (s *Store) Remove(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeLocked(id) {
		return false
	}
	s.notifyChange(ChangeEvent{Type: ChangeTypeRemove, ID: id, Count: 1})
	return true
}

// Clear removes all notifications and returns the ids that were present, newest first.
func (s *Store) Clear() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint32, len(s.notifications))
	for i, n := range s.notifications {
		ids[i] = n.ID
	}
	s.notifications = s.notifications[:0]

	if len(ids) > 0 {
		s.notifyChange(ChangeEvent{Type: ChangeTypeClear, Count: len(ids)})
	}
	return ids
}

// SetMax changes the bound, trimming the oldest entries if needed.
func (s *Store) SetMax(max int) {
	if max <= 0 {
		max = DefaultMaxNotifications
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.max = max
	s.trimLocked()
}

// Max returns the current bound.
func (s *Store) Max() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max
}

// All returns copies of all notifications, newest first.
func (s *Store) All() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Notification, len(s.notifications))
	for i, n := range s.notifications {
		result[i] = *n.Clone()
	}
	return result
}

// Get returns a copy of the notification with the given id, or nil.
func (s *Store) Get(id uint32) *model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexLocked(id); idx >= 0 {
		return s.notifications[idx].Clone()
	}
	return nil
}

// Count returns the number of retained notifications.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications)
}

// Subscribe returns a channel that receives change events.
func (s *Store) Subscribe() <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, 10)
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close releases resources and closes all subscriber channels.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	return nil
}

func (s *Store) indexLocked(id uint32) int {
	for i, n := range s.notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id uint32) bool {
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.notifications = append(s.notifications[:idx], s.notifications[idx+1:]...)
	return true
}

func (s *Store) trimLocked() {
	if len(s.notifications) <= s.max {
		return
	}
	dropped := len(s.notifications) - s.max
	clear(s.notifications[s.max:])
	s.notifications = s.notifications[:s.max]
	s.notifyChange(ChangeEvent{Type: ChangeTypeTrim, Count: dropped})
}

// notifyChange sends a change event to all subscribers (non-blocking).
func (s *Store) notifyChange(event ChangeEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// Errors
var (
	ErrStoreClosed = storeError("store is closed")
)

type storeError string

func (e storeError) Error() string {
	return string(e)
}
