package dbus

import (
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notid/internal/model"
)

// Hints is the typed view of the a{sv} hints of a Notify call.
// Missing or mistyped hints fall back to their zero value, urgency to normal.
type Hints struct {
	Urgency      model.Urgency
	Transient    bool
	Resident     bool
	Category     string
	DesktopEntry string
}

// DecodeHints extracts the hints notid understands.
func DecodeHints(hints map[string]dbus.Variant) Hints {
	h := Hints{Urgency: model.UrgencyNormal}

	if b, ok := hintValue[byte](hints, "urgency"); ok {
		h.Urgency = model.ParseUrgency(b)
	}
	h.Transient, _ = hintValue[bool](hints, "transient")
	h.Resident, _ = hintValue[bool](hints, "resident")
	h.Category, _ = hintValue[string](hints, "category")
	h.DesktopEntry, _ = hintValue[string](hints, "desktop-entry")

	return h
}

func hintValue[T any](hints map[string]dbus.Variant, key string) (T, bool) {
	var zero T
	v, ok := hints[key]
	if !ok {
		return zero, false
	}
	value, ok := v.Value().(T)
	if !ok {
		return zero, false
	}
	return value, true
}

// ParseActions converts the alternating key/label action array to structured form.
// A trailing key without a label is dropped.
func ParseActions(raw []string) []model.Action {
	actions := make([]model.Action, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		actions = append(actions, model.Action{
			Key:   raw[i],
			Label: raw[i+1],
		})
	}
	return actions
}

// IconResolver turns the app_icon argument into something a renderer can draw.
type IconResolver interface {
	Resolve(appIcon string) model.IconHandle
}

// IconResolverFunc adapts a function to IconResolver.
type IconResolverFunc func(appIcon string) model.IconHandle

// Resolve calls f(appIcon).
func (f IconResolverFunc) Resolve(appIcon string) model.IconHandle {
	return f(appIcon)
}

// ServerCapabilities lists the capabilities advertised by notidd.
var ServerCapabilities = []string{
	"actions",
	"body",
	"body-markup",
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the server information for the given build version.
func DefaultServerInfo(version string) ServerInfo {
	if version == "" {
		version = "dev"
	}
	return ServerInfo{
		Name:        "notid",
		Vendor:      "notid",
		Version:     version,
		SpecVersion: "1.2",
	}
}
