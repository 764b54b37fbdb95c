package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/notid/internal/model"
)

func TestParseActions(t *testing.T) {
	tests := []struct {
		name     string
		actions  []string
		expected []model.Action
	}{
		{
			name:     "empty",
			actions:  nil,
			expected: []model.Action{},
		},
		{
			name:     "single action",
			actions:  []string{"default", "Open"},
			expected: []model.Action{{Key: "default", Label: "Open"}},
		},
		{
			name:    "multiple actions",
			actions: []string{"default", "Open", "dismiss", "Dismiss", "reply", "Reply"},
			expected: []model.Action{
				{Key: "default", Label: "Open"},
				{Key: "dismiss", Label: "Dismiss"},
				{Key: "reply", Label: "Reply"},
			},
		},
		{
			name:     "odd number (incomplete pair ignored)",
			actions:  []string{"default", "Open", "orphan"},
			expected: []model.Action{{Key: "default", Label: "Open"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseActions(tt.actions))
		})
	}
}

func TestDecodeHints_Urgency(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected model.Urgency
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: model.UrgencyNormal,
		},
		{
			name:     "low urgency",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(0))},
			expected: model.UrgencyLow,
		},
		{
			name:     "normal urgency",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(1))},
			expected: model.UrgencyNormal,
		},
		{
			name:     "critical urgency",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))},
			expected: model.UrgencyCritical,
		},
		{
			name:     "out of range returns normal",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(7))},
			expected: model.UrgencyNormal,
		},
		{
			name:     "wrong type returns normal",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant("high")},
			expected: model.UrgencyNormal,
		},
		{
			name:     "int32 is not a byte",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(int32(2))},
			expected: model.UrgencyNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeHints(tt.hints).Urgency)
		})
	}
}

func TestDecodeHints_Flags(t *testing.T) {
	tests := []struct {
		name      string
		hints     map[string]dbus.Variant
		transient bool
		resident  bool
	}{
		{"no hints", nil, false, false},
		{"transient", map[string]dbus.Variant{"transient": dbus.MakeVariant(true)}, true, false},
		{"transient false", map[string]dbus.Variant{"transient": dbus.MakeVariant(false)}, false, false},
		{"transient wrong type", map[string]dbus.Variant{"transient": dbus.MakeVariant("yes")}, false, false},
		{"resident", map[string]dbus.Variant{"resident": dbus.MakeVariant(true)}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := DecodeHints(tt.hints)
			assert.Equal(t, tt.transient, h.Transient)
			assert.Equal(t, tt.resident, h.Resident)
		})
	}
}

func TestDecodeHints_Strings(t *testing.T) {
	h := DecodeHints(map[string]dbus.Variant{
		"category":      dbus.MakeVariant("email.arrived"),
		"desktop-entry": dbus.MakeVariant("thunderbird"),
	})
	assert.Equal(t, "email.arrived", h.Category)
	assert.Equal(t, "thunderbird", h.DesktopEntry)

	h = DecodeHints(map[string]dbus.Variant{
		"category": dbus.MakeVariant(123),
	})
	assert.Empty(t, h.Category)
	assert.Empty(t, h.DesktopEntry)
}

func TestIconResolverFunc(t *testing.T) {
	resolver := IconResolverFunc(func(appIcon string) model.IconHandle {
		return "resolved:" + appIcon
	})
	assert.Equal(t, "resolved:firefox", resolver.Resolve("firefox"))
}

func TestDefaultServerInfo(t *testing.T) {
	info := DefaultServerInfo("1.4.0")
	assert.Equal(t, "notid", info.Name)
	assert.Equal(t, "notid", info.Vendor)
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "1.2", info.SpecVersion)

	assert.Equal(t, "dev", DefaultServerInfo("").Version)
}

func TestServerCapabilities(t *testing.T) {
	assert.Equal(t, []string{"actions", "body", "body-markup"}, ServerCapabilities)
}
