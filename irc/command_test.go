package irc

import "testing"

func TestParseCommandChannelScoped(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
	}{
		{"JOIN #chan", KindJoin},
		{"PART #chan", KindPart},
		{"NOTICE #chan", KindNotice},
		{"CLEARCHAT #chan", KindClearChat},
		{"HOSTTARGET #chan", KindHostTarget},
		{"PRIVMSG #chan", KindPrivMsg},
		{"USERSTATE #chan", KindUserState},
		{"ROOMSTATE #chan", KindRoomState},
		{"001 justinfan123", KindWelcome},
	}
	for _, tc := range cases {
		cmd := ParseCommand(tc.raw)
		if cmd == nil {
			t.Fatalf("%q: expected command", tc.raw)
		}
		if cmd.Kind != tc.kind {
			t.Errorf("%q: kind = %s, want %s", tc.raw, cmd.Kind, tc.kind)
		}
		if cmd.Channel == "" {
			t.Errorf("%q: expected channel to be captured", tc.raw)
		}
	}
}

func TestParseCommandBare(t *testing.T) {
	for _, raw := range []string{"PING", "USERNOTICE #chan", "GLOBALUSERSTATE", "RECONNECT"} {
		if cmd := ParseCommand(raw); cmd == nil {
			t.Errorf("%q: expected command", raw)
		}
	}
}

func TestParseCommandCapAckFlag(t *testing.T) {
	if cmd := ParseCommand("CAP * ACK"); cmd == nil || !cmd.CapAck {
		t.Errorf("CAP * ACK: got %+v, want ack set", cmd)
	}
	if cmd := ParseCommand("CAP * NAK"); cmd == nil || cmd.CapAck {
		t.Errorf("CAP * NAK: got %+v, want ack unset", cmd)
	}
}

func TestParseCommandIgnored(t *testing.T) {
	for _, raw := range []string{"002", "003", "004", "353", "366", "372", "375", "376", "421 nick WHO", "WHISPER target"} {
		if cmd := ParseCommand(raw); cmd != nil {
			t.Errorf("%q: expected nil, got %+v", raw, cmd)
		}
	}
}
