package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notid/internal/model"
)

func TestSort(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		opts SortOptions
		want []uint32
	}{
		{"default newest first", DefaultSortOptions(), []uint32{1, 2, 3}},
		{"timestamp asc", SortOptions{Field: SortByTimestamp, Order: SortAsc}, []uint32{3, 2, 1}},
		{"app asc stable", SortOptions{Field: SortByApp, Order: SortAsc}, []uint32{1, 3, 2}},
		{"urgency desc", SortOptions{Field: SortByUrgency, Order: SortDesc}, []uint32{2, 3, 1}},
		{"id asc", SortOptions{Field: SortByID, Order: SortAsc}, []uint32{1, 2, 3}},
		{"id desc", SortOptions{Field: SortByID, Order: SortDesc}, []uint32{3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := sample(now)
			Sort(ns, tt.opts)
			assert.Equal(t, tt.want, ids(ns))
		})
	}
}

func TestSort_Empty(t *testing.T) {
	var ns []model.Notification
	Sort(ns, DefaultSortOptions())
	assert.Empty(t, ns)
}

func TestParseSortField(t *testing.T) {
	tests := []struct {
		in      string
		want    SortField
		wantErr bool
	}{
		{"", SortByTimestamp, false},
		{"time", SortByTimestamp, false},
		{"APP", SortByApp, false},
		{"u", SortByUrgency, false},
		{"id", SortByID, false},
		{"color", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortField(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOrder
		wantErr bool
	}{
		{"", SortDesc, false},
		{"asc", SortAsc, false},
		{"Descending", SortDesc, false},
		{"up", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortOrder(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
