package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/jmylchreest/notid/internal/model"
)

// TimeLayout is used by the formatTime template function.
const TimeLayout = "2006-01-02 15:04"

// templateData is what custom templates execute against. Notification fields and
// methods are reachable directly, e.g. {{.Summary}} or {{.BodyTruncated 40}}.
type templateData struct {
	*model.Notification
	Index int // 1-based position in the listed output
}

// lineTemplate renders one notification per execution.
type lineTemplate struct {
	tmpl *template.Template
}

func parseLineTemplate(name, text string) (*lineTemplate, error) {
	if text == "" {
		return nil, nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &lineTemplate{tmpl: tmpl}, nil
}

// writeLine executes the template for n and terminates the output with a newline.
func (t *lineTemplate) writeLine(w io.Writer, index int, n *model.Notification) error {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, templateData{Notification: n, Index: index}); err != nil {
		return fmt.Errorf("failed to render notification %d: %w", n.ID, err)
	}
	line := strings.TrimRight(sb.String(), "\n")
	_, err := fmt.Fprintln(w, line)
	return err
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"reltime":  relativeTime,
		"formatTime": func(t time.Time) string {
			return t.Format(TimeLayout)
		},
		"urgencyIcon": urgencyIcon,
		"actions":     actionLabels,
	}
}

func urgencyIcon(u model.Urgency) string {
	switch u {
	case model.UrgencyLow:
		return "L"
	case model.UrgencyCritical:
		return "!"
	default:
		return "-"
	}
}

// actionLabels joins the labels of the non-default actions.
func actionLabels(actions []model.Action) string {
	labels := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.Key == model.DefaultActionKey {
			continue
		}
		labels = append(labels, a.Label)
	}
	return strings.Join(labels, ", ")
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// relativeTime returns a compact age such as "now", "5m" or "2w".
func relativeTime(t time.Time) string {
	return relativeTimeAt(t, time.Now())
}

func relativeTimeAt(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw", int(d.Hours()/24/7))
	}
}

// flattenBody prepares a plain body for display. Runs of spaces collapse, newlines
// become spaces unless multiline is set.
func flattenBody(body string, maxLen int, multiline bool) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r", ""), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}

	sep := " "
	if multiline {
		sep = "\n"
	}
	var kept []string
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return truncate(strings.Join(kept, sep), maxLen)
}
