package chat

import (
	"time"

	"github.com/onnwee/chat-tender/backend/irc"
)

// Message is a parsed line enriched with the sender's session record.
// The User pointer references live session state owned by the Session;
// observers must treat it as read-only.
type Message struct {
	*irc.Message
	User *User
}

// Sub describes a subscription, resubscription, or gifted subscription
// extracted from a USERNOTICE event.
type Sub struct {
	DisplayName string
	Months      int
	PlanName    string
	Text        string
}

// Ban describes a clear-chat event targeting one user. Duration zero is
// a permanent ban or message deletion.
type Ban struct {
	Login    string
	Duration time.Duration
}

// Dispatcher fans each event out to registered observers, synchronously
// and in registration order. Observers must not block and must not
// register or deregister observers from inside a callback.
type Dispatcher struct {
	message   []func(*Message)
	chat      []func(*Message)
	command   []func(*Message)
	connected []func()
	live      []func(*Message)
	ban       []func(Ban, *Message)
	sub       []func(Sub, *Message)
	closed    []func()
}

// OnMessage registers an observer for every accepted message, chat and
// command alike.
func (d *Dispatcher) OnMessage(fn func(*Message)) { d.message = append(d.message, fn) }

// OnChat registers an observer for PRIVMSG events.
func (d *Dispatcher) OnChat(fn func(*Message)) { d.chat = append(d.chat, fn) }

// OnCommand registers an observer for every non-PRIVMSG event.
func (d *Dispatcher) OnCommand(fn func(*Message)) { d.command = append(d.command, fn) }

// OnConnected registers an observer fired once when the capability
// handshake completes.
func (d *Dispatcher) OnConnected(fn func()) { d.connected = append(d.connected, fn) }

// OnLive registers an observer for live inferences, carrying the
// message that triggered the inference.
func (d *Dispatcher) OnLive(fn func(*Message)) { d.live = append(d.live, fn) }

// OnBan registers an observer for clear-chat ban events.
func (d *Dispatcher) OnBan(fn func(Ban, *Message)) { d.ban = append(d.ban, fn) }

// OnSub registers an observer for sub/resub/subgift notices.
func (d *Dispatcher) OnSub(fn func(Sub, *Message)) { d.sub = append(d.sub, fn) }

// OnClose registers an observer fired when the connection closes.
func (d *Dispatcher) OnClose(fn func()) { d.closed = append(d.closed, fn) }

func (d *Dispatcher) emitMessage(m *Message) {
	for _, fn := range d.message {
		fn(m)
	}
}

func (d *Dispatcher) emitChat(m *Message) {
	for _, fn := range d.chat {
		fn(m)
	}
}

func (d *Dispatcher) emitCommand(m *Message) {
	for _, fn := range d.command {
		fn(m)
	}
}

func (d *Dispatcher) emitConnected() {
	for _, fn := range d.connected {
		fn()
	}
}

func (d *Dispatcher) emitLive(m *Message) {
	for _, fn := range d.live {
		fn(m)
	}
}

func (d *Dispatcher) emitBan(b Ban, m *Message) {
	for _, fn := range d.ban {
		fn(b, m)
	}
}

func (d *Dispatcher) emitSub(s Sub, m *Message) {
	for _, fn := range d.sub {
		fn(s, m)
	}
}

func (d *Dispatcher) emitClose() {
	for _, fn := range d.closed {
		fn()
	}
}
