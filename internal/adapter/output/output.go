// Package output renders notification lists for the notid CLI.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/notid/internal/model"
)

// Formatter writes a list of notifications.
type Formatter interface {
	Format(w io.Writer, notifications []model.Notification) error
}

// FormatType names an output format.
type FormatType string

const (
	FormatPlain FormatType = "plain" // Multi-line, human readable
	FormatDmenu FormatType = "dmenu" // One line per notification, for launchers
	FormatJSON  FormatType = "json"  // Indented JSON array
	FormatJSONL FormatType = "jsonl" // One JSON object per line
	FormatYAML  FormatType = "yaml"  // YAML sequence
	FormatIDs   FormatType = "ids"   // Numeric ids, one per line
	FormatKeys  FormatType = "keys"  // Unique keys, one per line
)

// Formats lists the accepted format names.
var Formats = []FormatType{FormatPlain, FormatDmenu, FormatJSON, FormatJSONL, FormatYAML, FormatIDs, FormatKeys}

// ParseFormat parses a format name. An empty name is plain.
func ParseFormat(s string) (FormatType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatPlain, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (use %s)", s, formatNames())
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Column is a part of a dmenu line.
type Column string

const (
	ColumnID      Column = "id"
	ColumnTime    Column = "time"
	ColumnApp     Column = "app"
	ColumnUrgency Column = "urgency"
	ColumnText    Column = "text" // summary, then the plain body
)

// FormatterOptions configures the line based formats.
type FormatterOptions struct {
	Template   string   // Replaces the built-in layout of plain and dmenu output
	Columns    []Column // dmenu columns, in order
	Separator  string   // dmenu column separator
	BodyMaxLen int      // Maximum body length in runes (0 = unlimited)
	Multiline  bool     // Keep newlines in bodies
	HideTime   bool     // Omit the relative time from plain output
}

// DefaultFormatterOptions returns the options used when nothing is configured.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		Columns:    []Column{ColumnID, ColumnTime, ColumnApp, ColumnText},
		Separator:  " | ",
		BodyMaxLen: 80,
	}
}

// NewFormatter creates the formatter for format. It fails when opts.Template does not parse.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(false), nil
	case FormatJSONL:
		return NewJSONFormatter(true), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatIDs:
		return NewIDsFormatter(false), nil
	case FormatKeys:
		return NewIDsFormatter(true), nil
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatPlain, "":
		return NewPlainFormatter(opts)
	default:
		return nil, fmt.Errorf("unknown format %q (use %s)", format, formatNames())
	}
}
