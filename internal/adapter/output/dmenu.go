package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmylchreest/notid/internal/model"
)

// DmenuFormatter writes one line per notification for dmenu, rofi, fuzzel and friends.
// The id column comes first by default so a selection can be cut back to an id.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *lineTemplate
}

// NewDmenuFormatter creates a dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) (*DmenuFormatter, error) {
	tmpl, err := parseLineTemplate("dmenu", opts.Template)
	if err != nil {
		return nil, err
	}
	if len(opts.Columns) == 0 {
		opts.Columns = DefaultFormatterOptions().Columns
	}
	if opts.Separator == "" {
		opts.Separator = " | "
	}
	return &DmenuFormatter{opts: opts, template: tmpl}, nil
}

// Format writes notifications one per line.
func (f *DmenuFormatter) Format(w io.Writer, notifications []model.Notification) error {
	for i := range notifications {
		n := &notifications[i]
		if f.template != nil {
			if err := f.template.writeLine(w, i+1, n); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, f.line(n)); err != nil {
			return err
		}
	}
	return nil
}

func (f *DmenuFormatter) line(n *model.Notification) string {
	parts := make([]string, 0, len(f.opts.Columns))
	for _, col := range f.opts.Columns {
		var part string
		switch col {
		case ColumnID:
			part = strconv.FormatUint(uint64(n.ID), 10)
		case ColumnTime:
			part = relativeTime(n.Timestamp)
		case ColumnApp:
			part = n.AppName
		case ColumnUrgency:
			part = urgencyIcon(n.Urgency)
		case ColumnText:
			part = n.Summary
			if body := flattenBody(n.PlainBody(), f.opts.BodyMaxLen, false); body != "" {
				part += ": " + body
			}
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, f.opts.Separator)
}
