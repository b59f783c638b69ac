// Package dump converts chat messages into the third-party VOD-comment
// archive format and records them with a two-phase append-then-consolidate
// pipeline: every message is persisted immediately as one JSON line in a
// temporary sink, and on stop the lines are consolidated into a single
// finalized document with a video metadata envelope.
package dump

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/chat-tender/backend/irc"
)

// ErrNoParameters is returned when a message without a free-text payload
// is converted to a comment. The failure aborts only that conversion.
var ErrNoParameters = errors.New("dump: message has no parameters")

// Comment is one durable chat message record in the archive format.
type Comment struct {
	ID                   string         `json:"_id"`
	ChannelID            string         `json:"channel_id"`
	ContentID            string         `json:"content_id"`
	ContentOffsetSeconds float64        `json:"content_offset_seconds"`
	ContentType          string         `json:"content_type"`
	Commenter            Commenter      `json:"commenter"`
	Message              CommentMessage `json:"message"`
	CreatedAt            time.Time      `json:"created_at"`
	Source               string         `json:"source"`
	State                string         `json:"state"`
	UpdatedAt            time.Time      `json:"updated_at"`
	MoreReplies          bool           `json:"more_replies"`
}

// Commenter is the sender snapshot embedded in each comment.
type Commenter struct {
	ID          string    `json:"_id"`
	Bio         string    `json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
	DisplayName string    `json:"display_name"`
	Logo        string    `json:"logo"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommentMessage carries the message body with its fragment and badge
// decomposition.
type CommentMessage struct {
	Body       string      `json:"body"`
	Emoticons  []Emoticon  `json:"emoticons"`
	Fragments  []Fragment  `json:"fragments"`
	UserBadges []UserBadge `json:"user_badges"`
	UserColor  string      `json:"user_color"`
	IsAction   bool        `json:"is_action"`
}

// Emoticon is one emote occurrence with its recorded character span.
type Emoticon struct {
	ID    string `json:"_id"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

// Fragment is a run of message text, optionally carrying an emoticon.
type Fragment struct {
	Text     string            `json:"text"`
	Emoticon *FragmentEmoticon `json:"emoticon"`
}

type FragmentEmoticon struct {
	EmoticonID string `json:"emoticon_id"`
}

// UserBadge is one badge id/version pair on the sender.
type UserBadge struct {
	ID      string `json:"_id"`
	Version string `json:"version"`
}

// CommentFromMessage converts a parsed chat message into an archive
// comment at the given offset from dump start.
func CommentFromMessage(msg *irc.Message, channelID string, offsetSeconds float64) (Comment, error) {
	if msg.Params == "" {
		return Comment{}, ErrNoParameters
	}

	emoticons := emoticonsFromTags(msg.Tags)

	id := msg.Tags.Get("id")
	if id == "" {
		id = uuid.NewString()[:8]
	}
	if roomID := msg.RoomID(); roomID != "" {
		channelID = roomID
	}
	color := msg.Tags.Get("color")
	if color == "" {
		color = "#FFFFFF"
	}
	displayName := msg.Tags.Get("display-name")
	var nick string
	if msg.Source != nil {
		nick = msg.Source.Nick
	}
	if displayName == "" {
		displayName = nick
	}

	return Comment{
		ID:                   id,
		ChannelID:            channelID,
		ContentOffsetSeconds: offsetSeconds,
		ContentType:          "video",
		Commenter: Commenter{
			ID:          msg.UserID(),
			CreatedAt:   msg.Time,
			DisplayName: displayName,
			Name:        nick,
			Type:        "user",
			UpdatedAt:   msg.Time,
		},
		Message: CommentMessage{
			Body:       msg.Params,
			Emoticons:  emoticons,
			Fragments:  fragmentsFromText(msg.Params, emoticons),
			UserBadges: badgesFromTags(msg.Tags),
			UserColor:  color,
			IsAction:   msg.IsAction,
		},
		CreatedAt: msg.Time,
		Source:    "chat",
		State:     "published",
		UpdatedAt: msg.Time,
	}, nil
}

// emoticonsFromTags flattens the decoded emotes tag into occurrence
// records, preserving the tag's insertion order.
func emoticonsFromTags(tags *irc.Tags) []Emoticon {
	if tags == nil {
		return nil
	}
	var out []Emoticon
	for _, emote := range tags.Emotes {
		for _, pos := range emote.Positions {
			begin, _ := strconv.Atoi(pos.Start)
			end, _ := strconv.Atoi(pos.End)
			out = append(out, Emoticon{ID: emote.ID, Begin: begin, End: end})
		}
	}
	return out
}

// fragmentsFromText splits the message on single spaces, attaches the
// first emoticon whose recorded start offset fits within each word, and
// merges adjacent text-only tokens into one fragment. Attachment is a
// position heuristic (first match in insertion order), not exact span
// matching.
func fragmentsFromText(text string, emoticons []Emoticon) []Fragment {
	words := strings.Split(text, " ")
	raw := make([]Fragment, 0, len(words))
	for _, word := range words {
		frag := Fragment{Text: word}
		for _, emo := range emoticons {
			if emo.Begin <= len(frag.Text) {
				frag.Emoticon = &FragmentEmoticon{EmoticonID: emo.ID}
				break
			}
		}
		raw = append(raw, frag)
	}

	var merged []Fragment
	var current *Fragment
	for i := range raw {
		frag := raw[i]
		if frag.Emoticon != nil {
			if current != nil {
				merged = append(merged, *current)
			}
			current = &frag
		} else if current != nil {
			current.Text += " " + frag.Text
		} else {
			current = &frag
		}
	}
	if current != nil {
		merged = append(merged, *current)
	}
	return merged
}

// badgesFromTags concatenates the raw badges tag entries and the decoded
// badge-info entries into one flat list.
func badgesFromTags(tags *irc.Tags) []UserBadge {
	if tags == nil {
		return nil
	}
	var out []UserBadge
	if raw := tags.Get("badges"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			name, version, _ := strings.Cut(pair, "/")
			out = append(out, UserBadge{ID: name, Version: version})
		}
	}
	for _, b := range tags.BadgeInfo {
		out = append(out, UserBadge{ID: b.Name, Version: b.Version})
	}
	return out
}
