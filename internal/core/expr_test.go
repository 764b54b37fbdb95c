package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notid/internal/model"
)

func TestParseFilter_Match(t *testing.T) {
	now := time.Now()

	tests := []struct {
		expr string
		want []uint32
	}{
		{"", []uint32{1, 2, 3}},
		{"app=firefox", []uint32{1, 3}},
		{"app!=firefox", []uint32{2}},
		{"summary~MESSAGE", []uint32{2}},
		{"body~=^Tab", []uint32{3}},
		{"body~file.zip", []uint32{1}},
		{"urgency>low", []uint32{2, 3}},
		{"urgency<critical", []uint32{1, 3}},
		{"urgency=normal", []uint32{3}},
		{"timestamp>1h", []uint32{1}},
		{"timestamp<1d", []uint32{3}},
		{"resident=true", []uint32{2}},
		{"transient=false", []uint32{1, 2, 3}},
		{"category~error", []uint32{3}},
		{"app=firefox, urgency<=normal", []uint32{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(FilterAt(sample(now), FilterOptions{Expr: expr}, now)))
		})
	}
}

func TestParseFilter_Errors(t *testing.T) {
	tests := []string{
		"app",
		"=firefox",
		"color=red",
		"urgency=urgent",
		"timestamp>soon",
		"body~=[",
		"resident=maybe",
		"app!firefox",
		"urgency~low",
		"resident>true",
		"summary<=b",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseFilter(expr)
			assert.Error(t, err)
		})
	}
}

func TestParseFilter_ValueWithOperatorChars(t *testing.T) {
	expr, err := ParseFilter("summary~a=b")
	require.NoError(t, err)
	assert.Equal(t, "summary~a=b", expr.String())

	n := &model.Notification{Summary: "x A=B y"}
	assert.True(t, expr.Match(n))
}

func TestFilterExpr_String(t *testing.T) {
	expr, err := ParseFilter(" title ~ Error , PRIORITY>=normal,ts<2d ")
	require.NoError(t, err)
	assert.Equal(t, 3, expr.Len())
	assert.Equal(t, "summary~Error,urgency>=normal,timestamp<2d", expr.String())
}

func TestFilterExpr_MatchAtUsesGivenTime(t *testing.T) {
	expr, err := ParseFilter("timestamp>1h")
	require.NoError(t, err)

	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	n := &model.Notification{Timestamp: created}

	assert.True(t, expr.MatchAt(n, created.Add(59*time.Minute)))
	assert.False(t, expr.MatchAt(n, created.Add(61*time.Minute)))
}

func TestFilterExpr_NegatedFlag(t *testing.T) {
	expr, err := ParseFilter("resident!=true")
	require.NoError(t, err)

	assert.True(t, expr.Match(&model.Notification{}))
	assert.False(t, expr.Match(&model.Notification{Resident: true}))
}
