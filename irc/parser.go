package irc

import (
	"strconv"
	"strings"
	"time"
)

// ctcpDelimiter frames CTCP messages; for Twitch chat the only CTCP
// form in practice is the ACTION (/me) envelope.
const ctcpDelimiter = '\x01'

// SplitPayload splits one socket payload into individual lines. A
// single payload may carry several CRLF-terminated lines; empty entries
// (from the trailing separator) are dropped.
func SplitPayload(payload string) []string {
	parts := strings.Split(payload, "\r\n")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// ParseLine decodes one raw line into a Message, or returns nil when
// the line does not resolve to a command the client cares about. That
// is the single rejection point: a line with an unknown command is
// discarded whole, tags and all.
func ParseLine(line string) *Message {
	return parseLineAt(line, time.Now().UTC())
}

// parseLineAt is ParseLine with an injectable receipt time for tests.
func parseLineAt(line string, received time.Time) *Message {
	var rawTags, rawSource, rawParams string
	hasParams := false
	idx := 0

	// Tag block: everything between '@' and the first space.
	if idx < len(line) && line[idx] == '@' {
		end := strings.IndexByte(line, ' ')
		if end < 0 {
			return nil
		}
		rawTags = line[1:end]
		idx = end + 1
	}

	// Source block: everything between ':' and the next space.
	if idx < len(line) && line[idx] == ':' {
		end := strings.IndexByte(line[idx:], ' ')
		if end < 0 {
			return nil
		}
		rawSource = line[idx+1 : idx+end]
		idx = idx + end + 1
	}

	// Command block runs to the payload marker, or end of line when
	// the line has no trailing payload.
	rawCommand := line[idx:]
	if end := strings.IndexByte(line[idx:], ':'); end >= 0 {
		rawCommand = line[idx : idx+end]
		rawParams = line[idx+end+1:]
		hasParams = true
	}
	rawCommand = strings.TrimSpace(rawCommand)

	cmd := ParseCommand(rawCommand)
	if cmd == nil {
		return nil
	}

	msg := &Message{Command: cmd, Time: received}

	if rawTags != "" {
		msg.Tags = ParseTags(rawTags)
		if ts := msg.Tags.Get("tmi-sent-ts"); ts != "" {
			if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
				msg.Time = time.UnixMilli(ms).UTC()
			}
		}
	}

	if rawSource != "" {
		msg.Source = parseSource(rawSource)
	}

	if hasParams {
		msg.Params = rawParams
		if strings.HasPrefix(rawParams, "!") {
			cmd.Bot = parseBotCommand(rawParams)
		}
		if len(rawParams) >= 2 && rawParams[0] == ctcpDelimiter && rawParams[len(rawParams)-1] == ctcpDelimiter {
			msg.Params = rawParams[1 : len(rawParams)-1]
			if strings.HasPrefix(msg.Params, "ACTION") {
				msg.Params = strings.TrimSpace(msg.Params[len("ACTION"):])
				msg.IsAction = true
			}
		}
	}

	return msg
}

// parseSource splits a sender prefix on the first '!'. Two parts give
// nick and host; a bare prefix is host only.
func parseSource(raw string) *Source {
	nick, host, found := strings.Cut(raw, "!")
	if !found {
		return &Source{Host: raw}
	}
	return &Source{Nick: nick, Host: host}
}
