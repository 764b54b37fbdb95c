// Package model defines the core data structures for notid.
package model

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
)

// Urgency is the freedesktop urgency level carried in the "urgency" hint.
type Urgency byte

// Urgency levels as sent by clients.
const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// UrgencyNames maps urgency levels to human-readable names.
var UrgencyNames = map[Urgency]string{
	UrgencyLow:      "low",
	UrgencyNormal:   "normal",
	UrgencyCritical: "critical",
}

// ParseUrgency maps a raw hint byte to an Urgency.
// Anything other than 0 or 2 is treated as normal.
func ParseUrgency(b byte) Urgency {
	switch b {
	case 0:
		return UrgencyLow
	case 2:
		return UrgencyCritical
	default:
		return UrgencyNormal
	}
}

// String returns the human-readable urgency name.
func (u Urgency) String() string {
	if name, ok := UrgencyNames[u]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Urgency) UnmarshalText(text []byte) error {
	for level, name := range UrgencyNames {
		if strings.EqualFold(string(text), name) {
			*u = level
			return nil
		}
	}
	return fmt.Errorf("invalid urgency %q", string(text))
}

// DefaultActionKey is the action invoked by a primary click on a notification.
const DefaultActionKey = "default"

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// IconHandle is an already-resolved icon produced by an icon resolver.
// Nothing in notid inspects it.
type IconHandle any

// Notification is a single notification as received over D-Bus.
type Notification struct {
	// Key uniquely identifies this particular delivery, even when ID is reused by a replacement.
	Key string `json:"key" yaml:"key"`

	// Freedesktop standard fields
	ID            uint32    `json:"id" yaml:"id"`
	AppName       string    `json:"app_name" yaml:"app_name"`
	AppIcon       string    `json:"app_icon,omitempty" yaml:"app_icon,omitempty"`
	Summary       string    `json:"summary" yaml:"summary"`
	Body          string    `json:"body" yaml:"body"`
	Actions       []Action  `json:"actions,omitempty" yaml:"actions,omitempty"`
	Urgency       Urgency   `json:"urgency" yaml:"urgency"`
	ExpireTimeout int32     `json:"expire_timeout" yaml:"expire_timeout"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`

	// Hints
	Transient    bool   `json:"transient,omitempty" yaml:"transient,omitempty"`
	Resident     bool   `json:"resident,omitempty" yaml:"resident,omitempty"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`
	DesktopEntry string `json:"desktop_entry,omitempty" yaml:"desktop_entry,omitempty"`

	Icon IconHandle `json:"-" yaml:"-"`
}

// Validation errors.
var (
	ErrZeroID         = errors.New("id cannot be 0")
	ErrEmptyKey       = errors.New("key cannot be empty")
	ErrInvalidUrgency = errors.New("urgency must be 0, 1, or 2")
	ErrZeroTimestamp  = errors.New("timestamp must be set")
)

// NewNotification creates a Notification with a fresh key, captured at the current local time.
func NewNotification(id uint32) (*Notification, error) {
	return NewNotificationWithEntropy(id, rand.Reader)
}

// NewNotificationWithEntropy is NewNotification drawing the key's randomness from entropy.
func NewNotificationWithEntropy(id uint32, entropy io.Reader) (*Notification, error) {
	now := time.Now()
	key, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Notification{
		Key:       key.String(),
		ID:        id,
		Urgency:   UrgencyNormal,
		Timestamp: now,
	}, nil
}

// FallbackKey derives a key from id and t for when no randomness is available.
// Keys differ for different ids or instants.
func FallbackKey(id uint32, t time.Time) string {
	var entropy [10]byte
	binary.BigEndian.PutUint32(entropy[:4], id)
	binary.BigEndian.PutUint32(entropy[4:8], uint32(t.Nanosecond()))
	return ulid.MustNew(ulid.Timestamp(t), bytes.NewReader(entropy[:])).String()
}

// Validate checks that the notification can enter the retained list.
func (n *Notification) Validate() error {
	if n.ID == 0 {
		return ErrZeroID
	}
	if n.Key == "" {
		return ErrEmptyKey
	}
	if n.Urgency > UrgencyCritical {
		return ErrInvalidUrgency
	}
	if n.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

// IsCritical reports whether the notification has critical urgency.
func (n *Notification) IsCritical() bool {
	return n.Urgency == UrgencyCritical
}

// Retainable reports whether the notification belongs in the retained list.
// Transient notifications are display-only unless they are critical.
func (n *Notification) Retainable() bool {
	return !n.Transient || n.IsCritical()
}

// Action returns the action with the given key.
func (n *Notification) Action(key string) (Action, bool) {
	for _, a := range n.Actions {
		if a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// HasDefaultAction reports whether a primary click should invoke an action.
func (n *Notification) HasDefaultAction() bool {
	_, ok := n.Action(DefaultActionKey)
	return ok
}

// RelativeTime returns a human-readable relative time string such as "5 minutes ago".
func (n *Notification) RelativeTime() string {
	return humanize.Time(n.Timestamp)
}

// PlainBody returns the body with markup removed.
func (n *Notification) PlainBody() string {
	return StripMarkup(n.Body)
}

// BodyTruncated returns the plain body truncated to maxLen characters.
// If the body is longer, it is truncated and "..." is appended.
func (n *Notification) BodyTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	// Collapse whitespace and newlines to single spaces
	body := strings.Join(strings.Fields(n.PlainBody()), " ")

	if utf8.RuneCountInString(body) <= maxLen {
		return body
	}
	runes := []rune(body)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Clone creates a deep copy of the notification.
func (n *Notification) Clone() *Notification {
	clone := *n
	if n.Actions != nil {
		clone.Actions = make([]Action, len(n.Actions))
		copy(clone.Actions, n.Actions)
	}
	return &clone
}
