package home

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimeAgo formats date relative to now, e.g. "1 hour ago".
func TimeAgo(date, now time.Time) string {
	if date.IsZero() {
		return ""
	}
	if now.Sub(date) < time.Minute && now.Sub(date) > -time.Minute {
		return "just now"
	}
	return humanize.RelTime(date, now, "ago", "from now")
}
