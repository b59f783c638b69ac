package irc

import (
	"log/slog"
	"strings"
)

// Kind enumerates the command vocabulary the client handles. Anything
// outside this set is rejected at parse time, so a switch over Kind can
// be exhaustive.
type Kind int

const (
	KindUnknown Kind = iota
	KindJoin
	KindPart
	KindNotice
	KindClearChat
	KindHostTarget
	KindPrivMsg
	KindUserNotice
	KindPing
	KindCap
	KindGlobalUserState
	KindUserState
	KindRoomState
	KindReconnect
	// KindWelcome is the 001 numeric sent after a successful login.
	KindWelcome
)

var kindNames = map[Kind]string{
	KindJoin:            "JOIN",
	KindPart:            "PART",
	KindNotice:          "NOTICE",
	KindClearChat:       "CLEARCHAT",
	KindHostTarget:      "HOSTTARGET",
	KindPrivMsg:         "PRIVMSG",
	KindUserNotice:      "USERNOTICE",
	KindPing:            "PING",
	KindCap:             "CAP",
	KindGlobalUserState: "GLOBALUSERSTATE",
	KindUserState:       "USERSTATE",
	KindRoomState:       "ROOMSTATE",
	KindReconnect:       "RECONNECT",
	KindWelcome:         "001",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// BotCommand is an in-chat "!command" embedded in a message payload.
type BotCommand struct {
	Name   string
	Params string
}

// Command is the classified form of a line's command token. Channel is
// set only for channel-scoped commands, CapAck only for CAP, and Bot
// only when the payload carried a bot-style command.
type Command struct {
	Kind    Kind
	Name    string
	Channel string
	CapAck  bool
	Bot     *BotCommand
}

// ParseCommand classifies the raw command block of a line. It returns
// nil for commands the client deliberately ignores (informational
// numerics, unsupported-command notices) and for anything unrecognized;
// the caller drops the whole line in that case.
func ParseCommand(raw string) *Command {
	parts := strings.Split(raw, " ")
	switch parts[0] {
	case "JOIN", "PART", "NOTICE", "CLEARCHAT", "HOSTTARGET", "PRIVMSG":
		return &Command{Kind: kindOf(parts[0]), Name: parts[0], Channel: part(parts, 1)}
	case "USERNOTICE":
		return &Command{Kind: KindUserNotice, Name: parts[0]}
	case "PING":
		return &Command{Kind: KindPing, Name: parts[0]}
	case "CAP":
		return &Command{Kind: KindCap, Name: parts[0], CapAck: part(parts, 2) == "ACK"}
	case "GLOBALUSERSTATE":
		return &Command{Kind: KindGlobalUserState, Name: parts[0]}
	case "USERSTATE", "ROOMSTATE":
		return &Command{Kind: kindOf(parts[0]), Name: parts[0], Channel: part(parts, 1)}
	case "RECONNECT":
		slog.Info("server announced connection termination for maintenance")
		return &Command{Kind: KindReconnect, Name: parts[0]}
	case "001":
		return &Command{Kind: KindWelcome, Name: parts[0], Channel: part(parts, 1)}
	case "421":
		slog.Debug("unsupported irc command", slog.String("command", part(parts, 2)))
		return nil
	case "002", "003", "004", "353", "366", "372", "375", "376":
		slog.Debug("ignoring numeric message", slog.String("numeric", parts[0]))
		return nil
	default:
		slog.Debug("unexpected irc command", slog.String("command", parts[0]), slog.String("raw", raw))
		return nil
	}
}

func kindOf(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// parseBotCommand decomposes a payload beginning with '!' into the
// embedded command name and its trimmed argument string.
func parseBotCommand(params string) *BotCommand {
	rest := strings.TrimSpace(params[1:])
	name, args, found := strings.Cut(rest, " ")
	if !found {
		return &BotCommand{Name: rest}
	}
	return &BotCommand{Name: name, Params: strings.TrimSpace(args)}
}
