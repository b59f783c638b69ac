package irc

import (
	"testing"
	"time"
)

func TestParseLinePrivMsgFull(t *testing.T) {
	line := "@badge-info=;badges=broadcaster/1;color=#0000FF;display-name=Ann;emotes=25:0-4;user-id=42;room-id=7;tmi-sent-ts=1000 :ann!ann@ann.tmi.twitch.tv PRIVMSG #chan :Kappa hello"
	msg := ParseLine(line)
	if msg == nil {
		t.Fatal("expected message, got nil")
	}
	if msg.Command.Kind != KindPrivMsg {
		t.Fatalf("expected PRIVMSG, got %s", msg.Command.Kind)
	}
	if msg.Command.Name != "PRIVMSG" {
		t.Errorf("command name = %q, want PRIVMSG", msg.Command.Name)
	}
	if msg.Command.Channel != "#chan" {
		t.Errorf("channel = %q, want #chan", msg.Command.Channel)
	}
	if msg.Params != "Kappa hello" {
		t.Errorf("params = %q, want %q", msg.Params, "Kappa hello")
	}
	if msg.Source == nil || msg.Source.Nick != "ann" || msg.Source.Host != "ann@ann.tmi.twitch.tv" {
		t.Errorf("source = %+v, want nick ann", msg.Source)
	}
	if got := msg.UserID(); got != "42" {
		t.Errorf("user-id = %q, want 42", got)
	}
	if got := msg.RoomID(); got != "7" {
		t.Errorf("room-id = %q, want 7", got)
	}
	if want := time.UnixMilli(1000).UTC(); !msg.Time.Equal(want) {
		t.Errorf("time = %v, want %v", msg.Time, want)
	}
	// badges stays in the tag set as raw text even though it is not
	// decoded into structure.
	if got := msg.Tags.Get("badges"); got != "broadcaster/1" {
		t.Errorf("badges raw = %q, want broadcaster/1", got)
	}
	if len(msg.Tags.Emotes) != 1 || msg.Tags.Emotes[0].ID != "25" {
		t.Errorf("emotes = %+v, want single id 25", msg.Tags.Emotes)
	}
}

func TestParseLineKeepsAllNonIgnoredTags(t *testing.T) {
	line := "@color=#FF0000;client-nonce=abc;flags=0-3:P.3;mod=1;subscriber=0 :u!u@h PRIVMSG #c :hi"
	msg := ParseLine(line)
	if msg == nil {
		t.Fatal("expected message")
	}
	for _, name := range []string{"color", "mod", "subscriber"} {
		if !msg.Tags.Has(name) {
			t.Errorf("tag %q missing", name)
		}
	}
	for _, name := range []string{"client-nonce", "flags"} {
		if msg.Tags.Has(name) {
			t.Errorf("ignored tag %q should not be present", name)
		}
	}
}

func TestParseLineRejectsUnknownCommand(t *testing.T) {
	cases := []string{
		":tmi.twitch.tv 372 justinfan123 :You are in a maze",
		":tmi.twitch.tv 353 justinfan123 = #chan :justinfan123",
		":tmi.twitch.tv 421 justinfan123 WHO :Unknown command",
		":tmi.twitch.tv BOGUS #chan",
	}
	for _, line := range cases {
		if msg := ParseLine(line); msg != nil {
			t.Errorf("line %q: expected rejection, got %+v", line, msg.Command)
		}
	}
}

func TestParseLinePing(t *testing.T) {
	msg := ParseLine("PING :tmi.twitch.tv")
	if msg == nil {
		t.Fatal("expected message")
	}
	if msg.Command.Kind != KindPing {
		t.Fatalf("kind = %s, want PING", msg.Command.Kind)
	}
	if msg.Params != "tmi.twitch.tv" {
		t.Errorf("params = %q, want tmi.twitch.tv", msg.Params)
	}
	if msg.Tags.Has("anything") {
		t.Error("expected no tags")
	}
}

func TestParseLineSourceWithoutNick(t *testing.T) {
	msg := ParseLine(":tmi.twitch.tv CLEARCHAT #chan :baduser")
	if msg == nil {
		t.Fatal("expected message")
	}
	if msg.Source == nil || msg.Source.Nick != "" || msg.Source.Host != "tmi.twitch.tv" {
		t.Errorf("source = %+v, want bare host", msg.Source)
	}
	if msg.Params != "baduser" {
		t.Errorf("params = %q, want baduser", msg.Params)
	}
}

func TestParseLineCapAck(t *testing.T) {
	msg := ParseLine(":tmi.twitch.tv CAP * ACK :twitch.tv/commands twitch.tv/tags")
	if msg == nil {
		t.Fatal("expected message")
	}
	if msg.Command.Kind != KindCap || !msg.Command.CapAck {
		t.Fatalf("command = %+v, want CAP ack", msg.Command)
	}
}

func TestParseLineAction(t *testing.T) {
	msg := ParseLine(":u!u@h PRIVMSG #c :\x01ACTION waves at chat\x01")
	if msg == nil {
		t.Fatal("expected message")
	}
	if !msg.IsAction {
		t.Error("expected IsAction")
	}
	if msg.Params != "waves at chat" {
		t.Errorf("params = %q, want unwrapped text", msg.Params)
	}
}

func TestParseLineCTCPWithoutActionKeepsUnwrapped(t *testing.T) {
	msg := ParseLine(":u!u@h PRIVMSG #c :\x01VERSION\x01")
	if msg == nil {
		t.Fatal("expected message")
	}
	if msg.IsAction {
		t.Error("did not expect IsAction for non-ACTION CTCP")
	}
	if msg.Params != "VERSION" {
		t.Errorf("params = %q, want VERSION", msg.Params)
	}
}

func TestParseLineBotCommand(t *testing.T) {
	msg := ParseLine(":u!u@h PRIVMSG #c :!so  somechannel extra")
	if msg == nil {
		t.Fatal("expected message")
	}
	bot := msg.Command.Bot
	if bot == nil {
		t.Fatal("expected embedded bot command")
	}
	if bot.Name != "so" {
		t.Errorf("bot name = %q, want so", bot.Name)
	}
	if bot.Params != "somechannel extra" {
		t.Errorf("bot params = %q, want trimmed remainder", bot.Params)
	}
}

func TestParseLineBotCommandNoArgs(t *testing.T) {
	msg := ParseLine(":u!u@h PRIVMSG #c :!uptime")
	if msg == nil {
		t.Fatal("expected message")
	}
	if msg.Command.Bot == nil || msg.Command.Bot.Name != "uptime" || msg.Command.Bot.Params != "" {
		t.Errorf("bot = %+v, want uptime with no params", msg.Command.Bot)
	}
}

func TestParseLineReceiptTimeFallback(t *testing.T) {
	received := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := parseLineAt("PING :tmi.twitch.tv", received)
	if msg == nil {
		t.Fatal("expected message")
	}
	if !msg.Time.Equal(received) {
		t.Errorf("time = %v, want receipt time %v", msg.Time, received)
	}
}

func TestSplitPayload(t *testing.T) {
	lines := SplitPayload("PING :tmi.twitch.tv\r\n:u!u@h PRIVMSG #c :hi\r\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "PING :tmi.twitch.tv" {
		t.Errorf("first line = %q", lines[0])
	}
}
