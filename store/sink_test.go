package store

import (
	"testing"
	"time"

	"github.com/onnwee/chat-tender/backend/irc"
)

func TestRowFromMessage(t *testing.T) {
	line := "@badges=moderator/1;color=#00FF00;display-name=Ann;emotes=25:0-4;user-id=42;tmi-sent-ts=1700000000000 :ann!ann@tmi PRIVMSG #chan :Kappa nice"
	msg := irc.ParseLine(line)
	if msg == nil {
		t.Fatal("parse failed")
	}
	r := RowFromMessage("chan", msg)
	if r.ChannelLogin != "chan" || r.UserID != "42" || r.Username != "ann" {
		t.Errorf("row = %+v", r)
	}
	if r.Message != "Kappa nice" || r.DisplayName != "Ann" || r.Color != "#00FF00" {
		t.Errorf("row = %+v", r)
	}
	if r.Badges != "moderator/1" || r.Emotes != "25:0-4" {
		t.Errorf("raw passthrough fields = %q %q", r.Badges, r.Emotes)
	}
	if r.IsAction {
		t.Error("plain message flagged as action")
	}
	want := time.UnixMilli(1700000000000).UTC()
	if !r.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", r.Timestamp, want)
	}
}

func TestSinkEnqueueNeverBlocks(t *testing.T) {
	s := NewSink(nil, 2, 10, time.Second)
	// No Run goroutine draining; overflow rows are dropped, not queued.
	for i := 0; i < 10; i++ {
		s.Enqueue(Row{ChannelLogin: "chan"})
	}
	if got := len(s.buf); got != 2 {
		t.Errorf("buffered rows = %d, want 2", got)
	}
}
