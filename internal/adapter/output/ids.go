package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/notid/internal/model"
)

// IDsFormatter writes one identifier per line, for piping into xargs.
// Keys stay unique when a client reuses an id for a replacement.
type IDsFormatter struct {
	keys bool
}

// NewIDsFormatter creates an identifier formatter writing keys instead of ids when keys is set.
func NewIDsFormatter(keys bool) *IDsFormatter {
	return &IDsFormatter{keys: keys}
}

// Format writes the identifiers.
func (f *IDsFormatter) Format(w io.Writer, notifications []model.Notification) error {
	for _, n := range notifications {
		var err error
		if f.keys {
			_, err = fmt.Fprintln(w, n.Key)
		} else {
			_, err = fmt.Fprintln(w, n.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
