package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jmylchreest/notid/internal/model"
)

// SortField is a notification attribute to order by.
type SortField string

const (
	SortByTimestamp SortField = "timestamp"
	SortByApp       SortField = "app"
	SortByUrgency   SortField = "urgency"
	SortByID        SortField = "id"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions selects the primary sort key and its direction.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions returns newest first, the order the daemon keeps.
func DefaultSortOptions() SortOptions {
	return SortOptions{Field: SortByTimestamp, Order: SortDesc}
}

var comparators = map[SortField]func(a, b *model.Notification) int{
	SortByTimestamp: func(a, b *model.Notification) int { return a.Timestamp.Compare(b.Timestamp) },
	SortByApp: func(a, b *model.Notification) int {
		return cmp.Compare(strings.ToLower(a.AppName), strings.ToLower(b.AppName))
	},
	SortByUrgency: func(a, b *model.Notification) int { return cmp.Compare(a.Urgency, b.Urgency) },
	SortByID:      func(a, b *model.Notification) int { return cmp.Compare(a.ID, b.ID) },
}

// Sort orders notifications in place by opts. Ties on the primary key keep the input
// order, which for daemon lists is newest first.
func Sort(notifications []model.Notification, opts SortOptions) {
	compare, ok := comparators[opts.Field]
	if !ok {
		compare = comparators[SortByTimestamp]
	}

	slices.SortStableFunc(notifications, func(a, b model.Notification) int {
		c := compare(&a, &b)
		if opts.Order == SortDesc {
			return -c
		}
		return c
	})
}

// ParseSortField parses a sort field name. An empty name is the timestamp.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "timestamp", "time", "t":
		return SortByTimestamp, nil
	case "app", "app_name", "a":
		return SortByApp, nil
	case "urgency", "u":
		return SortByUrgency, nil
	case "id":
		return SortByID, nil
	default:
		return "", fmt.Errorf("invalid sort field: %s (use timestamp, app, urgency, or id)", s)
	}
}

// ParseSortOrder parses a sort order name. An empty name is descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending", "d":
		return SortDesc, nil
	case "asc", "ascending", "a":
		return SortAsc, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (use asc or desc)", s)
	}
}
