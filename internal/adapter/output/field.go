package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/notid/internal/model"
)

// Fields lists the names accepted by FormatField.
var Fields = []string{
	"id", "key", "app", "summary", "body", "plain_body", "category", "icon",
	"desktop_entry", "urgency", "time", "actions", "all",
}

// FormatField returns a single field of n as text.
func FormatField(n *model.Notification, field string) (string, error) {
	switch strings.ToLower(field) {
	case "id":
		return strconv.FormatUint(uint64(n.ID), 10), nil
	case "key":
		return n.Key, nil
	case "app", "app_name":
		return n.AppName, nil
	case "summary":
		return n.Summary, nil
	case "body":
		return n.Body, nil
	case "plain_body":
		return n.PlainBody(), nil
	case "category":
		return n.Category, nil
	case "icon", "app_icon":
		return n.AppIcon, nil
	case "desktop_entry":
		return n.DesktopEntry, nil
	case "urgency":
		return n.Urgency.String(), nil
	case "time", "timestamp":
		return n.Timestamp.Format(time.RFC3339), nil
	case "actions":
		keys := make([]string, len(n.Actions))
		for i, a := range n.Actions {
			keys[i] = a.Key
		}
		return strings.Join(keys, "\n"), nil
	case "all":
		return n.Summary + "\n" + n.PlainBody(), nil
	default:
		return "", fmt.Errorf("unknown field %q (use %s)", field, strings.Join(Fields, ", "))
	}
}
