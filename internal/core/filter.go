// Package core provides filtering, sorting and lookup over notification lists.
package core

import (
	"strings"
	"time"

	"github.com/jmylchreest/notid/internal/model"
)

// FilterOptions selects notifications. Zero values select everything.
type FilterOptions struct {
	Since   time.Duration  // Only notifications newer than now-Since
	App     string         // Exact app name
	Urgency *model.Urgency // Only this urgency
	Search  string         // Case-insensitive substring of summary or plain body
	Expr    *FilterExpr    // Additional conditions
	Limit   int            // Maximum results
}

// Filter returns the notifications matching opts, preserving order.
func Filter(notifications []model.Notification, opts FilterOptions) []model.Notification {
	return FilterAt(notifications, opts, time.Now())
}

// FilterAt is Filter with an explicit current time.
func FilterAt(notifications []model.Notification, opts FilterOptions, now time.Time) []model.Notification {
	keep := opts.predicate(now)

	result := make([]model.Notification, 0, len(notifications))
	for i := range notifications {
		if !keep(&notifications[i]) {
			continue
		}
		result = append(result, notifications[i])
		if opts.Limit > 0 && len(result) == opts.Limit {
			break
		}
	}
	return result
}

func (o FilterOptions) predicate(now time.Time) func(*model.Notification) bool {
	var cutoff time.Time
	if o.Since > 0 {
		cutoff = now.Add(-o.Since)
	}
	search := strings.ToLower(o.Search)

	return func(n *model.Notification) bool {
		switch {
		case !cutoff.IsZero() && n.Timestamp.Before(cutoff):
			return false
		case o.App != "" && n.AppName != o.App:
			return false
		case o.Urgency != nil && n.Urgency != *o.Urgency:
			return false
		case search != "" && !containsFold(n.Summary, search) && !containsFold(n.PlainBody(), search):
			return false
		case o.Expr != nil && !o.Expr.MatchAt(n, now):
			return false
		}
		return true
	}
}

// containsFold reports whether lowerSub, already lower case, occurs in s ignoring case.
func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}
