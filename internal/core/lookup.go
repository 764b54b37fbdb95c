package core

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jmylchreest/notid/internal/model"
)

// MinKeyPrefix is the shortest key prefix Resolve accepts.
const MinKeyPrefix = 4

// Lookup errors.
var (
	ErrNotFound  = errors.New("notification not found")
	ErrAmbiguous = errors.New("key prefix matches more than one notification")
)

// LookupByID finds a notification by id. Returns nil if not found.
func LookupByID(notifications []model.Notification, id uint32) *model.Notification {
	i := slices.IndexFunc(notifications, func(n model.Notification) bool { return n.ID == id })
	if i < 0 {
		return nil
	}
	return &notifications[i]
}

// LookupByKey finds a notification by its unique key. Returns nil if not found.
func LookupByKey(notifications []model.Notification, key string) *model.Notification {
	i := slices.IndexFunc(notifications, func(n model.Notification) bool { return n.Key == key })
	if i < 0 {
		return nil
	}
	return &notifications[i]
}

// Resolve finds the notification a user reference points at. A reference is a numeric
// id, a full key, or a key prefix of at least MinKeyPrefix characters matching exactly
// one notification. Keys compare case-insensitively.
func Resolve(notifications []model.Notification, ref string) (*model.Notification, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("empty notification reference")
	}

	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		if n := LookupByID(notifications, uint32(id)); n != nil {
			return n, nil
		}
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if len(ref) < MinKeyPrefix {
		return nil, fmt.Errorf("invalid notification reference %q: key prefixes need %d characters", ref, MinKeyPrefix)
	}

	prefix := strings.ToUpper(ref)
	var match *model.Notification
	for i := range notifications {
		key := strings.ToUpper(notifications[i].Key)
		if key == prefix {
			return &notifications[i], nil
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, ref)
		}
		match = &notifications[i]
	}
	if match == nil {
		return nil, fmt.Errorf("%w: key %s", ErrNotFound, ref)
	}
	return match, nil
}

// UniqueApps returns the app names present, sorted case-insensitively.
func UniqueApps(notifications []model.Notification) []string {
	seen := make(map[string]struct{}, len(notifications))
	apps := make([]string, 0, len(notifications))

	for _, n := range notifications {
		if n.AppName == "" {
			continue
		}
		if _, ok := seen[n.AppName]; ok {
			continue
		}
		seen[n.AppName] = struct{}{}
		apps = append(apps, n.AppName)
	}

	slices.SortFunc(apps, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return apps
}
