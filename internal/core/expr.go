package core

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/notid/internal/model"
)

// FilterOp is a comparison operator in a filter expression.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="
	FilterOpNotEqual  FilterOp = "!="
	FilterOpContains  FilterOp = "~"
	FilterOpRegex     FilterOp = "~="
	FilterOpGreater   FilterOp = ">"
	FilterOpLess      FilterOp = "<"
	FilterOpGreaterEq FilterOp = ">="
	FilterOpLessEq    FilterOp = "<="
)

type fieldKind int

const (
	textField fieldKind = iota
	orderedField
	flagField
)

var kindOps = map[fieldKind][]FilterOp{
	textField:    {FilterOpEqual, FilterOpNotEqual, FilterOpContains, FilterOpRegex},
	orderedField: {FilterOpEqual, FilterOpNotEqual, FilterOpGreater, FilterOpLess, FilterOpGreaterEq, FilterOpLessEq},
	flagField:    {FilterOpEqual, FilterOpNotEqual},
}

type filterField struct {
	kind fieldKind
	text func(*model.Notification) string
	flag func(*model.Notification) bool
}

var filterFields = map[string]filterField{
	"app":       {kind: textField, text: func(n *model.Notification) string { return n.AppName }},
	"summary":   {kind: textField, text: func(n *model.Notification) string { return n.Summary }},
	"body":      {kind: textField, text: (*model.Notification).PlainBody},
	"category":  {kind: textField, text: func(n *model.Notification) string { return n.Category }},
	"urgency":   {kind: orderedField},
	"timestamp": {kind: orderedField},
	"resident":  {kind: flagField, flag: func(n *model.Notification) bool { return n.Resident }},
	"transient": {kind: flagField, flag: func(n *model.Notification) bool { return n.Transient }},
}

var fieldAliases = map[string]string{
	"app_name": "app",
	"appname":  "app",
	"title":    "summary",
	"message":  "body",
	"cat":      "category",
	"priority": "urgency",
	"time":     "timestamp",
	"ts":       "timestamp",
}

type condition struct {
	field string
	op    FilterOp
	value string
	match func(n *model.Notification, now time.Time) bool
}

// FilterExpr is a parsed filter expression. Every condition must match.
type FilterExpr struct {
	conditions []condition
}

// ParseFilter parses comma separated "field op value" conditions.
//
//	app=discord
//	summary~error          case-insensitive substring
//	body~=(?i)meeting      regular expression
//	urgency>=normal
//	timestamp>1h           newer than an hour
//	resident=true
func ParseFilter(expr string) (*FilterExpr, error) {
	f := &FilterExpr{}
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		f.conditions = append(f.conditions, c)
	}
	return f, nil
}

// Len returns the number of conditions.
func (f *FilterExpr) Len() int {
	return len(f.conditions)
}

// String returns the expression with canonical field names.
func (f *FilterExpr) String() string {
	parts := make([]string, len(f.conditions))
	for i, c := range f.conditions {
		parts[i] = c.field + string(c.op) + c.value
	}
	return strings.Join(parts, ",")
}

// Match reports whether n satisfies every condition as of now.
func (f *FilterExpr) Match(n *model.Notification) bool {
	return f.MatchAt(n, time.Now())
}

// MatchAt is Match with an explicit current time, against which timestamp ages are taken.
func (f *FilterExpr) MatchAt(n *model.Notification, now time.Time) bool {
	for i := range f.conditions {
		if !f.conditions[i].match(n, now) {
			return false
		}
	}
	return true
}

// splitCondition cuts s at its first operator. Field names never contain operator
// characters, so the first one starts the operator.
func splitCondition(s string) (field string, op FilterOp, value string, ok bool) {
	i := strings.IndexAny(s, "=!<>~")
	if i <= 0 {
		return "", "", "", false
	}
	rest := s[i:]
	for _, two := range []FilterOp{FilterOpNotEqual, FilterOpGreaterEq, FilterOpLessEq, FilterOpRegex} {
		if strings.HasPrefix(rest, string(two)) {
			return s[:i], two, rest[len(two):], true
		}
	}
	if rest[0] == '!' {
		return "", "", "", false
	}
	return s[:i], FilterOp(rest[:1]), rest[1:], true
}

func parseCondition(s string) (condition, error) {
	rawField, op, rawValue, ok := splitCondition(s)
	if !ok {
		return condition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
	}

	name := strings.ToLower(strings.TrimSpace(rawField))
	if canonical, ok := fieldAliases[name]; ok {
		name = canonical
	}
	field, ok := filterFields[name]
	if !ok {
		return condition{}, fmt.Errorf("unknown filter field: %s", name)
	}
	if !slices.Contains(kindOps[field.kind], op) {
		return condition{}, fmt.Errorf("operator %s does not apply to %s", op, name)
	}

	c := condition{field: name, op: op, value: strings.TrimSpace(rawValue)}
	var err error
	switch field.kind {
	case textField:
		c.match, err = textMatcher(field.text, op, c.value)
	case orderedField:
		c.match, err = orderedMatcher(name, op, c.value)
	case flagField:
		c.match, err = flagMatcher(field.flag, op, name, c.value)
	}
	if err != nil {
		return condition{}, err
	}
	return c, nil
}

func textMatcher(get func(*model.Notification) string, op FilterOp, value string) (func(*model.Notification, time.Time) bool, error) {
	switch op {
	case FilterOpRegex:
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		return func(n *model.Notification, _ time.Time) bool { return re.MatchString(get(n)) }, nil
	case FilterOpContains:
		lower := strings.ToLower(value)
		return func(n *model.Notification, _ time.Time) bool { return containsFold(get(n), lower) }, nil
	case FilterOpNotEqual:
		return func(n *model.Notification, _ time.Time) bool { return get(n) != value }, nil
	default:
		return func(n *model.Notification, _ time.Time) bool { return get(n) == value }, nil
	}
}

func orderedMatcher(name string, op FilterOp, value string) (func(*model.Notification, time.Time) bool, error) {
	var compare func(n *model.Notification, now time.Time) int

	switch name {
	case "urgency":
		want, err := ParseUrgency(value)
		if err != nil {
			return nil, err
		}
		compare = func(n *model.Notification, _ time.Time) int { return cmp.Compare(n.Urgency, want) }
	case "timestamp":
		age, err := ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp value: %w", err)
		}
		// Newer compares greater.
		compare = func(n *model.Notification, now time.Time) int { return n.Timestamp.Compare(now.Add(-age)) }
	}

	test := orderTests[op]
	return func(n *model.Notification, now time.Time) bool { return test(compare(n, now)) }, nil
}

var orderTests = map[FilterOp]func(c int) bool{
	FilterOpEqual:     func(c int) bool { return c == 0 },
	FilterOpNotEqual:  func(c int) bool { return c != 0 },
	FilterOpGreater:   func(c int) bool { return c > 0 },
	FilterOpLess:      func(c int) bool { return c < 0 },
	FilterOpGreaterEq: func(c int) bool { return c >= 0 },
	FilterOpLessEq:    func(c int) bool { return c <= 0 },
}

func flagMatcher(get func(*model.Notification) bool, op FilterOp, name, value string) (func(*model.Notification, time.Time) bool, error) {
	want, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %s", name, value)
	}
	if op == FilterOpNotEqual {
		want = !want
	}
	return func(n *model.Notification, _ time.Time) bool { return get(n) == want }, nil
}
