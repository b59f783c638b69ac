package chat

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/chat-tender/backend/dump"
	"github.com/onnwee/chat-tender/backend/irc"
	"github.com/onnwee/chat-tender/backend/telemetry"
)

// DefaultRelayURL is the public websocket chat relay.
const DefaultRelayURL = "wss://irc-ws.chat.twitch.tv:443"

// capabilities requested after login; tags carry all the metadata the
// session and archive layers depend on.
const capabilities = "twitch.tv/commands twitch.tv/tags"

// State is the connection lifecycle position.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateLoggedIn
	StateCapPending
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLoggedIn:
		return "logged_in"
	case StateCapPending:
		return "cap_pending"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Client is one anonymous read-only connection to a single channel's
// chat. All line processing happens on the goroutine running Run; the
// mutex protects the pieces the HTTP status and Send paths touch.
type Client struct {
	Dispatcher

	// RelayURL may be overridden before Run (tests, alternate relays).
	RelayURL string

	channelLogin string
	channelID    string

	session  *Session
	live     *LiveDetector
	recorder *dump.Recorder
	logger   *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	state  State
	capped bool
}

// NewClient builds a client for one channel login. channelID may be
// empty; it is learned from room-id tags once the first tagged line
// arrives.
func NewClient(channelLogin, channelID string) *Client {
	return &Client{
		RelayURL:     DefaultRelayURL,
		channelLogin: channelLogin,
		channelID:    channelID,
		session:      NewSession(),
		live:         NewLiveDetector(),
		recorder:     dump.NewRecorder(channelLogin),
		logger:       slog.Default().With(slog.String("component", "chat"), slog.String("channel", channelLogin)),
	}
}

// Session exposes the derived per-user state for this connection.
func (c *Client) Session() *Session { return c.session }

// Run dials the relay, performs the anonymous handshake, and processes
// payloads until the context is canceled or the socket closes. Any
// active dump is finalized before Run returns; there is no automatic
// reconnect.
func (c *Client) Run(ctx context.Context) error {
	c.setState(StateConnecting)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.RelayURL, nil)
	if err != nil {
		c.setState(StateClosed)
		return fmt.Errorf("dial chat relay: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	// Cancellation closes the socket, which unblocks the read loop.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	c.loginAnonymous()
	c.join(c.channelLogin)
	c.sendRaw("CAP REQ :" + capabilities)
	c.setState(StateCapPending)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.logger.Info("connection closed", slog.Any("err", err))
			break
		}
		for _, line := range irc.SplitPayload(string(payload)) {
			c.processLine(line)
		}
	}

	c.shutdown()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// Close terminates the connection. The read loop finalizes any active
// dump on its way out.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) shutdown() {
	if err := c.recorder.Stop(c.currentChannelID()); err != nil {
		c.logger.Error("failed to finalize dump on close", slog.Any("err", err))
	}
	c.setState(StateClosed)
	c.emitClose()
}

// Send posts a chat message to the joined channel. Anonymous logins are
// read-only on the real relay, but the write path is kept for parity
// and for test relays.
func (c *Client) Send(text string) {
	c.sendRaw(fmt.Sprintf("PRIVMSG #%s :%s", c.channelLogin, text))
}

func (c *Client) loginAnonymous() {
	c.sendRaw("PASS blah")
	c.sendRaw(fmt.Sprintf("NICK justinfan%d", rand.Intn(1000000)))
	c.setState(StateLoggedIn)
}

func (c *Client) join(channel string) {
	c.sendRaw("JOIN #" + channel)
}

func (c *Client) sendRaw(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		c.logger.Warn("write failed", slog.Any("err", err))
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) currentChannelID() string {
	if id := c.session.ChannelID(); id != "" {
		return id
	}
	return c.channelID
}

// processLine runs one line through the full pipeline: parse, session
// update, event fan-out, keepalive, dump append, live heuristic, and
// the command-specific state transitions. A failure anywhere is
// isolated to this line.
func (c *Client) processLine(line string) {
	msg := irc.ParseLine(line)
	if msg == nil {
		telemetry.CountLineRejected()
		return
	}
	telemetry.CountLineParsed()

	user := c.session.Apply(msg)
	m := &Message{Message: msg, User: user}

	c.emitMessage(m)
	telemetry.CountEvent("message")
	if msg.Is(irc.KindPrivMsg) {
		c.emitChat(m)
		telemetry.CountEvent("chat")
	} else {
		c.emitCommand(m)
		telemetry.CountEvent("command")
	}

	switch msg.Command.Kind {
	case irc.KindPing:
		c.sendRaw("PONG :tmi.twitch.tv")
		telemetry.CountPong()
	case irc.KindCap:
		if msg.Command.CapAck && !c.capped {
			c.capped = true
			c.setState(StateReady)
			c.logger.Info("capabilities acknowledged")
			c.emitConnected()
			telemetry.CountEvent("connected")
		}
	case irc.KindClearChat:
		c.handleClearChat(m)
	case irc.KindUserNotice:
		c.handleUserNotice(m)
	case irc.KindReconnect:
		// Reconnect policy belongs to the caller that owns Run.
		c.logger.Warn("relay requested reconnect")
	}

	if msg.Is(irc.KindPrivMsg) && c.recorder.Active() {
		if err := c.recorder.Append(msg, c.currentChannelID()); err != nil {
			c.logger.Warn("dump append failed", slog.Any("err", err))
		} else {
			telemetry.CountDumpComment()
		}
	}

	if c.live.Observe(msg) {
		c.logger.Info("live inference fired")
		c.emitLive(m)
		telemetry.CountEvent("live")
	}

	telemetry.SetActiveBans(c.channelLogin, c.session.ActiveBanCount())
	telemetry.SetTrackedUsers(c.channelLogin, c.session.UserCount())
}

func (c *Client) handleClearChat(m *Message) {
	duration := time.Duration(tagInt(m.Tags, "ban-duration")) * time.Second
	if target := m.Tags.Get("target-user-id"); target != "" && m.Params != "" {
		c.session.RecordBan(target, duration)
	}
	c.emitBan(Ban{Login: m.Params, Duration: duration}, m)
	telemetry.CountEvent("ban")
	c.logger.Debug("clearchat", slog.String("target", m.Params), slog.Int("users", c.session.UserCount()))
}

// subNoticeIDs are the msg-id values that announce a subscription.
var subNoticeIDs = map[string]struct{}{"sub": {}, "resub": {}, "subgift": {}}

func (c *Client) handleUserNotice(m *Message) {
	if userID := m.UserID(); userID != "" {
		c.session.SetLogin(userID, m.Tags.Get("login"))
	}
	if _, ok := subNoticeIDs[m.Tags.Get("msg-id")]; !ok {
		return
	}
	c.emitSub(Sub{
		DisplayName: m.Tags.Get("display-name"),
		Months:      tagInt(m.Tags, "msg-param-cumulative-months"),
		PlanName:    unescapeTagSpaces(m.Tags.Get("msg-param-sub-plan-name")),
		Text:        m.Params,
	}, m)
	telemetry.CountEvent("sub")
}

// StartDump begins archiving chat messages to path. See dump.Recorder
// for the two-phase persistence contract.
func (c *Client) StartDump(path string) error {
	return c.recorder.Start(path)
}

// StopDump finalizes the active dump. A no-op when none is active.
func (c *Client) StopDump() error {
	return c.recorder.Stop(c.currentChannelID())
}

// DumpActive reports whether a dump is recording.
func (c *Client) DumpActive() bool { return c.recorder.Active() }

// Status is a point-in-time snapshot for the ops surface.
type Status struct {
	Channel    string    `json:"channel"`
	ChannelID  string    `json:"channel_id"`
	State      string    `json:"state"`
	Users      int       `json:"users"`
	ActiveBans int       `json:"active_bans"`
	DumpActive bool      `json:"dump_active"`
	LastLive   time.Time `json:"last_live"`
}

func (c *Client) Status() Status {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	return Status{
		Channel:    c.channelLogin,
		ChannelID:  c.currentChannelID(),
		State:      state.String(),
		Users:      c.session.UserCount(),
		ActiveBans: c.session.ActiveBanCount(),
		DumpActive: c.recorder.Active(),
		LastLive:   c.live.LastFired(),
	}
}

func tagInt(tags *irc.Tags, name string) int {
	n, _ := strconv.Atoi(tags.Get(name))
	return n
}

// unescapeTagSpaces replaces the IRC tag escape for spaces in values
// such as sub plan names. Double-escaped sequences show up in relayed
// notices, so both forms are handled.
func unescapeTagSpaces(v string) string {
	v = strings.ReplaceAll(v, `\\s`, " ")
	return strings.ReplaceAll(v, `\s`, " ")
}
