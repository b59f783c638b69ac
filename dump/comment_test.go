package dump

import (
	"testing"

	"github.com/onnwee/chat-tender/backend/irc"
)

func TestCommentFromMessageScenario(t *testing.T) {
	line := "@badge-info=;badges=broadcaster/1;color=#0000FF;display-name=Ann;emotes=25:0-4;user-id=42;room-id=7;tmi-sent-ts=1000 :ann!ann@ann.tmi.twitch.tv PRIVMSG #chan :Kappa hello"
	msg := irc.ParseLine(line)
	if msg == nil {
		t.Fatal("parse failed")
	}
	c, err := CommentFromMessage(msg, "fallback", 3.5)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if c.ChannelID != "7" {
		t.Errorf("channel id = %q, want room-id 7", c.ChannelID)
	}
	if c.Commenter.ID != "42" || c.Commenter.DisplayName != "Ann" {
		t.Errorf("commenter = %+v", c.Commenter)
	}
	if c.Commenter.Name != "ann" {
		t.Errorf("commenter name = %q, want source nick", c.Commenter.Name)
	}
	if c.ContentOffsetSeconds != 3.5 {
		t.Errorf("offset = %v", c.ContentOffsetSeconds)
	}
	if c.Message.UserColor != "#0000FF" {
		t.Errorf("color = %q", c.Message.UserColor)
	}
	if len(c.Message.Fragments) == 0 || c.Message.Fragments[0].Emoticon == nil || c.Message.Fragments[0].Emoticon.EmoticonID != "25" {
		t.Errorf("first fragment should carry emoticon 25, got %+v", c.Message.Fragments)
	}
	if len(c.Message.Emoticons) != 1 || c.Message.Emoticons[0] != (Emoticon{ID: "25", Begin: 0, End: 4}) {
		t.Errorf("emoticons = %+v", c.Message.Emoticons)
	}
	if len(c.Message.UserBadges) != 1 || c.Message.UserBadges[0] != (UserBadge{ID: "broadcaster", Version: "1"}) {
		t.Errorf("badges = %+v", c.Message.UserBadges)
	}
}

func TestCommentFromMessageMissingParameters(t *testing.T) {
	msg := irc.ParseLine("@user-id=9 :u!u@h JOIN #chan")
	if msg == nil {
		t.Fatal("parse failed")
	}
	if _, err := CommentFromMessage(msg, "1", 0); err != ErrNoParameters {
		t.Fatalf("err = %v, want ErrNoParameters", err)
	}
}

func TestCommentFromMessageGeneratesID(t *testing.T) {
	msg := irc.ParseLine("@user-id=9 :u!u@h PRIVMSG #chan :hello there")
	if msg == nil {
		t.Fatal("parse failed")
	}
	c, err := CommentFromMessage(msg, "1", 0)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(c.ID) != 8 {
		t.Errorf("generated id = %q, want 8 chars", c.ID)
	}
	if c.Message.UserColor != "#FFFFFF" {
		t.Errorf("default color = %q", c.Message.UserColor)
	}
}

func TestFragmentsNoEmoticonsSingleFragment(t *testing.T) {
	frags := fragmentsFromText("just a plain message", nil)
	if len(frags) != 1 {
		t.Fatalf("fragments = %d, want 1", len(frags))
	}
	if frags[0].Text != "just a plain message" {
		t.Errorf("text = %q, want full rejoined text", frags[0].Text)
	}
	if frags[0].Emoticon != nil {
		t.Error("expected no emoticon")
	}
}

func TestFragmentsEmoticonOnFirstToken(t *testing.T) {
	emoticons := []Emoticon{{ID: "25", Begin: 0, End: 4}}
	frags := fragmentsFromText("Kappa hello", emoticons)
	if len(frags) < 2 {
		t.Fatalf("fragments = %d, want at least 2", len(frags))
	}
	if frags[0].Emoticon == nil || frags[0].Emoticon.EmoticonID != "25" {
		t.Errorf("first fragment = %+v, want emoticon 25", frags[0])
	}
}

func TestFragmentsAttachmentIsFirstMatchHeuristic(t *testing.T) {
	// Both emoticons have start offsets within the first word; the scan
	// attaches the earliest-inserted one, not the exact span match.
	emoticons := []Emoticon{
		{ID: "1902", Begin: 6, End: 10},
		{ID: "25", Begin: 0, End: 4},
	}
	frags := fragmentsFromText("bigword more", emoticons)
	if frags[0].Emoticon == nil || frags[0].Emoticon.EmoticonID != "1902" {
		t.Errorf("first fragment emoticon = %+v, want insertion-order first match", frags[0].Emoticon)
	}
}

func TestBadgesConcatenationOrder(t *testing.T) {
	tags := irc.ParseTags("badges=moderator/1,vip/1;badge-info=subscriber/24")
	badges := badgesFromTags(tags)
	want := []UserBadge{
		{ID: "moderator", Version: "1"},
		{ID: "vip", Version: "1"},
		{ID: "subscriber", Version: "24"},
	}
	if len(badges) != len(want) {
		t.Fatalf("badges = %+v", badges)
	}
	for i := range want {
		if badges[i] != want[i] {
			t.Errorf("badges[%d] = %+v, want %+v", i, badges[i], want[i])
		}
	}
}
