package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/notid/internal/model"
)

// PlainFormatter writes a readable block per notification:
//
//	[7] <firefox> Download complete ! (5m)
//	    file.zip has finished downloading
//	    actions: default=Open, cancel=Cancel
type PlainFormatter struct {
	opts     FormatterOptions
	template *lineTemplate
}

// NewPlainFormatter creates a plain text formatter.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	tmpl, err := parseLineTemplate("plain", opts.Template)
	if err != nil {
		return nil, err
	}
	return &PlainFormatter{opts: opts, template: tmpl}, nil
}

// Format writes each notification as a block, or as a template line when one is set.
func (f *PlainFormatter) Format(w io.Writer, notifications []model.Notification) error {
	for i := range notifications {
		n := &notifications[i]
		var err error
		if f.template != nil {
			err = f.template.writeLine(w, i+1, n)
		} else {
			_, err = io.WriteString(w, f.block(n))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) block(n *model.Notification) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%d] ", n.ID)
	if n.AppName != "" {
		fmt.Fprintf(&sb, "<%s> ", n.AppName)
	}
	sb.WriteString(n.Summary)
	if n.IsCritical() {
		sb.WriteString(" !")
	}
	if !f.opts.HideTime {
		fmt.Fprintf(&sb, " (%s)", relativeTime(n.Timestamp))
	}
	sb.WriteByte('\n')

	if body := flattenBody(n.PlainBody(), f.opts.BodyMaxLen, f.opts.Multiline); body != "" {
		for line := range strings.SplitSeq(body, "\n") {
			sb.WriteString("    " + line + "\n")
		}
	}

	if len(n.Actions) > 0 {
		pairs := make([]string, len(n.Actions))
		for i, a := range n.Actions {
			pairs[i] = a.Key + "=" + a.Label
		}
		sb.WriteString("    actions: " + strings.Join(pairs, ", ") + "\n")
	}

	return sb.String()
}
