package chat

import (
	"strings"
	"time"

	"github.com/onnwee/chat-tender/backend/irc"
)

// liveTerms is the vocabulary that hints a channel just went live.
// Matching is case-sensitive substring containment.
var liveTerms = []string{"live", "hi youtube", "hi yt", "pog", "pogchamp"}

const (
	liveWindowSize = 10
	liveThreshold  = 5 // strictly more than half of the window
	liveDebounce   = time.Minute
)

// LiveDetector keeps a sliding window over the most recent parsed
// messages and fires a debounced inference when a majority of the
// window references liveness vocabulary. It is a guess based on chat
// behavior, not a reliable signal.
type LiveDetector struct {
	recent    []*irc.Message
	lastFired time.Time
	now       func() time.Time
}

func NewLiveDetector() *LiveDetector {
	return &LiveDetector{now: time.Now}
}

// Observe adds a message to the window and reports whether a live
// inference fired. At most one inference fires per debounce interval.
func (d *LiveDetector) Observe(msg *irc.Message) bool {
	d.recent = append(d.recent, msg)
	if len(d.recent) > liveWindowSize {
		d.recent = d.recent[1:]
	}

	matches := 0
	for _, m := range d.recent {
		if containsLiveTerm(m.Params) {
			matches++
		}
	}
	if matches <= liveThreshold {
		return false
	}
	now := d.now()
	if !d.lastFired.IsZero() && now.Sub(d.lastFired) <= liveDebounce {
		return false
	}
	d.lastFired = now
	return true
}

// LastFired returns when the last inference fired, zero if never.
func (d *LiveDetector) LastFired() time.Time { return d.lastFired }

func containsLiveTerm(text string) bool {
	for _, term := range liveTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
