// Package dbus implements the org.freedesktop.Notifications D-Bus interface.
// It provides a server that receives notifications from applications and
// exposes GetCapabilities, Notify, CloseNotification, and GetServerInformation,
// the signals sent back to clients, and the notid control interface with its client.
package dbus
