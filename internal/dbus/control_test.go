package dbus

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notid/internal/dbus/dbustest"
	"github.com/jmylchreest/notid/internal/model"
)

type fakeHandler struct {
	notifications []model.Notification
	status        Status
	err           error
	calls         []string
}

func (h *fakeHandler) List() ([]model.Notification, error) {
	h.calls = append(h.calls, "list")
	return h.notifications, h.err
}

func (h *fakeHandler) Status() (Status, error) {
	h.calls = append(h.calls, "status")
	return h.status, h.err
}

func (h *fakeHandler) Dismiss(id uint32) error {
	h.calls = append(h.calls, "dismiss")
	return h.err
}

func (h *fakeHandler) InvokeAction(id uint32, actionKey string) error {
	h.calls = append(h.calls, "action:"+actionKey)
	return h.err
}

func (h *fakeHandler) PopupClicked(id uint32) error {
	h.calls = append(h.calls, "clicked")
	return h.err
}

func (h *fakeHandler) ClearAll() error {
	h.calls = append(h.calls, "clear")
	return h.err
}

func (h *fakeHandler) OpenMenu() error {
	h.calls = append(h.calls, "menu")
	return h.err
}

func (h *fakeHandler) CloseMenu() error {
	h.calls = append(h.calls, "menu-close")
	return h.err
}

func TestControl_Export(t *testing.T) {
	conn := dbustest.NewConn()
	require.NoError(t, NewControl(&fakeHandler{}, nil).Export(conn))

	assert.True(t, conn.Exported(ControlPath, ControlInterface))
	assert.True(t, conn.Exported(ControlPath, introspectableInterface))
}

func TestControl_List(t *testing.T) {
	h := &fakeHandler{}
	c := NewControl(h, nil)

	raw, derr := c.List()
	require.Nil(t, derr)
	assert.JSONEq(t, `[]`, raw)

	h.notifications = []model.Notification{{
		Key:       "k",
		ID:        3,
		AppName:   "mail",
		Summary:   "New message",
		Urgency:   model.UrgencyCritical,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}

	raw, derr = c.List()
	require.Nil(t, derr)

	var decoded []model.Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, uint32(3), decoded[0].ID)
	assert.Equal(t, model.UrgencyCritical, decoded[0].Urgency)
}

func TestControl_Status(t *testing.T) {
	h := &fakeHandler{status: Status{State: "active", Count: 2, Unread: 1, PopupActive: true, SurfaceHeight: 96}}

	raw, derr := NewControl(h, nil).Status()
	require.Nil(t, derr)
	assert.JSONEq(t, `{
		"state": "active",
		"count": 2,
		"unread": 1,
		"menu_open": false,
		"popup_active": true,
		"popup_entries": 0,
		"surface_height": 96
	}`, raw)
}

func TestControl_Commands(t *testing.T) {
	h := &fakeHandler{}
	c := NewControl(h, nil)

	assert.Nil(t, c.Dismiss(1))
	assert.Nil(t, c.InvokeAction(1, "reply"))
	assert.Nil(t, c.PopupClicked(1))
	assert.Nil(t, c.ClearAll())
	assert.Nil(t, c.OpenMenu())
	assert.Nil(t, c.CloseMenu())

	assert.Equal(t, []string{"dismiss", "action:reply", "clicked", "clear", "menu", "menu-close"}, h.calls)
}

func TestControl_Errors(t *testing.T) {
	h := &fakeHandler{err: errors.New("host unavailable")}
	c := NewControl(h, nil)

	derr := c.Dismiss(1)
	require.NotNil(t, derr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)

	_, derr = c.List()
	assert.NotNil(t, derr)

	custom := dbus.NewError("io.github.jmylchreest.notid.Error.Timeout", nil)
	h.err = custom
	assert.Same(t, custom, c.ClearAll())
}

func TestControl_Changed(t *testing.T) {
	c := NewControl(&fakeHandler{}, nil)
	assert.ErrorIs(t, c.Changed(1, 1), ErrNotExported)

	conn := dbustest.NewConn()
	require.NoError(t, c.Export(conn))
	require.NoError(t, c.Changed(3, 2))

	signals := conn.Signals()
	require.Len(t, signals, 1)
	assert.Equal(t, dbus.ObjectPath(ControlPath), signals[0].Path)
	assert.Equal(t, ControlChangedSignal, signals[0].Name)
	assert.Equal(t, []any{uint32(3), uint32(2)}, signals[0].Values)
}

func TestDecodeChange(t *testing.T) {
	tests := []struct {
		name   string
		sig    *dbus.Signal
		want   Change
		wantOK bool
	}{
		{"changed", &dbus.Signal{Name: ControlChangedSignal, Body: []any{uint32(4), uint32(1)}}, Change{Count: 4, Unread: 1}, true},
		{"other signal", &dbus.Signal{Name: DBusInterface + ".NotificationClosed", Body: []any{uint32(4), uint32(1)}}, Change{}, false},
		{"short body", &dbus.Signal{Name: ControlChangedSignal, Body: []any{uint32(4)}}, Change{}, false},
		{"wrong types", &dbus.Signal{Name: ControlChangedSignal, Body: []any{"4", uint32(1)}}, Change{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeChange(tt.sig)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
