package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notid/internal/model"
)

func ids(ns []model.Notification) []uint32 {
	out := make([]uint32, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func sample(now time.Time) []model.Notification {
	return []model.Notification{
		{ID: 1, AppName: "firefox", Summary: "Download complete", Body: "<b>file.zip</b>", Urgency: model.UrgencyLow, Timestamp: now.Add(-30 * time.Minute)},
		{ID: 2, AppName: "slack", Summary: "New message", Body: "Meeting at 3", Urgency: model.UrgencyCritical, Timestamp: now.Add(-2 * time.Hour), Resident: true},
		{ID: 3, AppName: "firefox", Summary: "Error", Body: "Tab crashed", Urgency: model.UrgencyNormal, Timestamp: now.Add(-3 * 24 * time.Hour), Category: "im.error"},
	}
}

func TestFilter(t *testing.T) {
	now := time.Now()
	critical := model.UrgencyCritical

	tests := []struct {
		name string
		opts FilterOptions
		want []uint32
	}{
		{"no filters", FilterOptions{}, []uint32{1, 2, 3}},
		{"app", FilterOptions{App: "firefox"}, []uint32{1, 3}},
		{"urgency", FilterOptions{Urgency: &critical}, []uint32{2}},
		{"since", FilterOptions{Since: time.Hour}, []uint32{1}},
		{"search summary", FilterOptions{Search: "ERROR"}, []uint32{3}},
		{"search plain body", FilterOptions{Search: "file.zip"}, []uint32{1}},
		{"limit", FilterOptions{Limit: 2}, []uint32{1, 2}},
		{"combined", FilterOptions{App: "firefox", Since: 24 * time.Hour}, []uint32{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterAt(sample(now), tt.opts, now)))
		})
	}
}

func TestFilter_Empty(t *testing.T) {
	assert.Empty(t, Filter(nil, FilterOptions{}))
}

func TestFilter_WithExpr(t *testing.T) {
	now := time.Now()
	expr, err := ParseFilter("app=firefox,urgency>=normal")
	require.NoError(t, err)

	assert.Equal(t, []uint32{3}, ids(FilterAt(sample(now), FilterOptions{Expr: expr}, now)))
}
