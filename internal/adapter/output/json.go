package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/notid/internal/model"
)

// JSONFormatter writes notifications as an indented array, or as JSON lines.
type JSONFormatter struct {
	lines bool
}

// NewJSONFormatter creates a JSON formatter. With lines set each notification is written
// as a compact object on its own line.
func NewJSONFormatter(lines bool) *JSONFormatter {
	return &JSONFormatter{lines: lines}
}

// Format writes the notifications. An empty list is written as [] in array mode.
func (f *JSONFormatter) Format(w io.Writer, notifications []model.Notification) error {
	encoder := json.NewEncoder(w)

	if f.lines {
		for i := range notifications {
			if err := encoder.Encode(&notifications[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if notifications == nil {
		notifications = []model.Notification{}
	}
	encoder.SetIndent("", "  ")
	return encoder.Encode(notifications)
}
