package dump

import (
	"fmt"
	"strings"
)

// niceDuration formats whole seconds as "1d 2h 3m 4s", omitting zero
// components.
func niceDuration(seconds int) string {
	days := seconds / (60 * 60 * 24)
	hours := (seconds - days*60*60*24) / (60 * 60)
	minutes := (seconds - days*60*60*24 - hours*60*60) / 60
	secs := seconds - days*60*60*24 - hours*60*60 - minutes*60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	if secs > 0 {
		fmt.Fprintf(&b, "%ds", secs)
	}
	return strings.TrimSpace(b.String())
}

// compactDuration is niceDuration without separators, the form the
// archive video envelope uses (e.g. "1d2h3m4s").
func compactDuration(seconds int) string {
	return strings.ReplaceAll(niceDuration(seconds), " ", "")
}
