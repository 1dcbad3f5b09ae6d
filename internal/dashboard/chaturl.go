package dashboard

import (
	"strconv"
	"strings"
)

// ChatURL fills the {room} placeholder of tmpl. It returns "" when tmpl is
// empty or no room is open.
func ChatURL(tmpl string, roomID int64) string {
	if tmpl == "" || roomID == 0 {
		return ""
	}
	return strings.ReplaceAll(tmpl, "{room}", strconv.FormatInt(roomID, 10))
}
