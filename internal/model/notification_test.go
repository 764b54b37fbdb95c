package model

import (
	"encoding/json"
	"errors"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validNotification() *Notification {
	return &Notification{
		Key:       "01HQGXK5P0000000000000000",
		ID:        7,
		AppName:   "firefox",
		Summary:   "Download complete",
		Body:      "file.zip",
		Urgency:   UrgencyNormal,
		Timestamp: time.Now(),
	}
}

func TestNewNotification(t *testing.T) {
	n, err := NewNotification(42)
	require.NoError(t, err)

	assert.Equal(t, uint32(42), n.ID)
	assert.Len(t, n.Key, 26)
	assert.Equal(t, UrgencyNormal, n.Urgency)
	assert.False(t, n.Timestamp.IsZero())
	assert.Equal(t, time.Local, n.Timestamp.Location())

	other, err := NewNotification(42)
	require.NoError(t, err)
	assert.NotEqual(t, n.Key, other.Key)
}

func TestNewNotificationWithEntropy_Failure(t *testing.T) {
	_, err := NewNotificationWithEntropy(42, iotest.ErrReader(errors.New("no entropy")))
	assert.Error(t, err)
}

func TestFallbackKey(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 500, time.UTC)

	key := FallbackKey(42, at)
	assert.Len(t, key, 26)
	assert.Equal(t, key, FallbackKey(42, at))
	assert.NotEqual(t, key, FallbackKey(43, at))
	assert.NotEqual(t, key, FallbackKey(42, at.Add(time.Nanosecond)))
}

func TestNotification_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Notification)
		wantErr error
	}{
		{
			name:   "valid notification",
			modify: func(n *Notification) {},
		},
		{
			name:    "zero id",
			modify:  func(n *Notification) { n.ID = 0 },
			wantErr: ErrZeroID,
		},
		{
			name:    "empty key",
			modify:  func(n *Notification) { n.Key = "" },
			wantErr: ErrEmptyKey,
		},
		{
			name:    "invalid urgency",
			modify:  func(n *Notification) { n.Urgency = 3 },
			wantErr: ErrInvalidUrgency,
		},
		{
			name:    "zero timestamp",
			modify:  func(n *Notification) { n.Timestamp = time.Time{} },
			wantErr: ErrZeroTimestamp,
		},
		{
			name:   "empty action key is allowed",
			modify: func(n *Notification) { n.Actions = []Action{{Key: "", Label: "Open"}} },
		},
		{
			name: "empty app name is allowed",
			modify: func(n *Notification) {
				n.AppName = ""
				n.AppIcon = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNotification()
			tt.modify(n)
			err := n.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		raw  byte
		want Urgency
	}{
		{0, UrgencyLow},
		{1, UrgencyNormal},
		{2, UrgencyCritical},
		{3, UrgencyNormal},
		{255, UrgencyNormal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseUrgency(tt.raw), "raw=%d", tt.raw)
	}
}

func TestUrgency_Text(t *testing.T) {
	data, err := json.Marshal(UrgencyCritical)
	require.NoError(t, err)
	assert.JSONEq(t, `"critical"`, string(data))

	var u Urgency
	require.NoError(t, json.Unmarshal([]byte(`"LOW"`), &u))
	assert.Equal(t, UrgencyLow, u)

	assert.Error(t, json.Unmarshal([]byte(`"urgent"`), &u))
	assert.Equal(t, "unknown", Urgency(9).String())
}

func TestNotification_Retainable(t *testing.T) {
	tests := []struct {
		name      string
		transient bool
		urgency   Urgency
		want      bool
	}{
		{"regular", false, UrgencyNormal, true},
		{"transient low", true, UrgencyLow, false},
		{"transient normal", true, UrgencyNormal, false},
		{"transient critical", true, UrgencyCritical, true},
		{"critical", false, UrgencyCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNotification()
			n.Transient = tt.transient
			n.Urgency = tt.urgency
			assert.Equal(t, tt.want, n.Retainable())
		})
	}
}

func TestNotification_Actions(t *testing.T) {
	n := validNotification()
	assert.False(t, n.HasDefaultAction())

	n.Actions = []Action{{Key: "reply", Label: "Reply"}, {Key: DefaultActionKey, Label: "Open"}}
	assert.True(t, n.HasDefaultAction())

	a, ok := n.Action("reply")
	require.True(t, ok)
	assert.Equal(t, "Reply", a.Label)

	_, ok = n.Action("missing")
	assert.False(t, ok)
}

func TestNotification_BodyTruncated(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "he"},
		{"zero", "hello", 0, ""},
		{"collapses whitespace", "a\n\nb   c", 10, "a b c"},
		{"strips markup", "<b>bold</b> text", 20, "bold text"},
		{"multibyte", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Notification{Body: tt.body}
			assert.Equal(t, tt.want, n.BodyTruncated(tt.maxLen))
		})
	}
}

func TestNotification_RelativeTime(t *testing.T) {
	n := validNotification()
	n.Timestamp = time.Now().Add(-2 * time.Hour)
	assert.Equal(t, "2 hours ago", n.RelativeTime())
}

func TestNotification_Clone(t *testing.T) {
	n := validNotification()
	n.Actions = []Action{{Key: "default", Label: "Open"}}

	clone := n.Clone()
	clone.Actions[0].Label = "Changed"
	clone.Summary = "Other"

	assert.Equal(t, "Open", n.Actions[0].Label)
	assert.Equal(t, "Download complete", n.Summary)
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"line<br>break<br/>again<br />done", "line\nbreak\nagain\ndone"},
		{`<a href="https://example.com">link</a>`, "link"},
		{"fish &amp; chips &lt;3 &quot;yes&quot; &apos;no&apos; &gt;", `fish & chips <3 "yes" 'no' >`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMarkup(tt.in))
	}
}

func TestEvents(t *testing.T) {
	n := validNotification()

	e := NotifyEvent(n)
	assert.Equal(t, EventNotify, e.Kind)
	assert.Equal(t, n.ID, e.ID)
	assert.Same(t, n, e.Notification)
	assert.Equal(t, "notify(7)", e.String())

	c := ClosedEvent(7, CloseReasonExpired)
	assert.Equal(t, EventClosed, c.Kind)
	assert.Nil(t, c.Notification)
	assert.Equal(t, "closed(7, expired)", c.String())
}

func TestCloseReasonString(t *testing.T) {
	tests := []struct {
		reason   CloseReason
		expected string
	}{
		{CloseReasonExpired, "expired"},
		{CloseReasonDismissed, "dismissed"},
		{CloseReasonClosed, "closed"},
		{CloseReasonUndefined, "undefined"},
		{CloseReason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.String())
		})
	}
}
