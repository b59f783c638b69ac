// Package irc implements the subset of the Twitch IRC wire format this
// service speaks: line splitting into tags/source/command/parameters,
// tag decoding (including the badge and emote grammars), and command
// classification. Lines that do not resolve to a known command are
// rejected as a whole; everything downstream only ever sees a Message
// with a non-nil Command.
package irc

import "time"

// Source identifies the sender prefix of a line. A two-part prefix
// (nick!host) fills both fields; a bare host leaves Nick empty.
type Source struct {
	Nick string
	Host string
}

// Message is the decoded form of one raw IRC line.
type Message struct {
	Tags    *Tags
	Source  *Source
	Command *Command
	// Params is the trailing free-text payload. Empty means the line
	// carried none; CTCP action framing has already been stripped.
	Params string
	// Time is taken from the tmi-sent-ts tag when present, otherwise
	// the wall-clock receipt time.
	Time time.Time
	// IsAction is set when Params arrived wrapped in the CTCP ACTION
	// envelope (/me messages).
	IsAction bool
}

// UserID returns the stable user identifier tag, or "".
func (m *Message) UserID() string { return m.Tags.Get("user-id") }

// RoomID returns the channel identifier tag, or "".
func (m *Message) RoomID() string { return m.Tags.Get("room-id") }

// Is reports whether the message classified as the given command kind.
func (m *Message) Is(k Kind) bool { return m.Command != nil && m.Command.Kind == k }
