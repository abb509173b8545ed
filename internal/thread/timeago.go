package thread

import (
	"time"

	"github.com/dustin/go-humanize"
)

// RelativeTime renders t relative to now for thread display, e.g. "2 hours ago".
func RelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
