package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/notid/internal/model"
)

var longUnits = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseDuration parses a Go duration, or a whole number of days ("3d") or weeks ("2w").
// "" and "0" are zero, which callers treat as no limit.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	if unit, ok := longUnits[s[len(s)-1]]; ok {
		count, err := strconv.ParseUint(s[:len(s)-1], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(count) * unit, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

// ParseUrgency parses an urgency name or its wire value 0, 1 or 2.
func ParseUrgency(s string) (model.Urgency, error) {
	s = strings.TrimSpace(s)

	var u model.Urgency
	if err := u.UnmarshalText([]byte(s)); err == nil {
		return u, nil
	}
	if v, err := strconv.ParseUint(s, 10, 8); err == nil && v <= uint64(model.UrgencyCritical) {
		return model.Urgency(v), nil
	}
	return 0, fmt.Errorf("invalid urgency: %s (use low, normal, or critical)", s)
}
