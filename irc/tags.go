package irc

import "strings"

// tagsToIgnore are dropped during decoding and never appear in the
// resulting tag set.
var tagsToIgnore = map[string]struct{}{
	"client-nonce": {},
	"flags":        {},
}

// Badge is one name/version pair from the badge-info grammar.
type Badge struct {
	Name    string
	Version string
}

// EmotePosition is one start-end span from the emotes grammar. The
// values are kept as received; conversion to integers happens at the
// point of use.
type EmotePosition struct {
	Start string
	End   string
}

// Emote is one emote id with its occurrence positions, in the order the
// tag listed them.
type Emote struct {
	ID        string
	Positions []EmotePosition
}

// Tags holds the decoded tag prefix of a line. Raw carries every kept
// key/value pair verbatim; the typed fields are the structured decodings
// of the three tags with their own grammars. The badges tag is kept raw
// only, matching observed upstream behavior.
type Tags struct {
	Raw       map[string]string
	BadgeInfo []Badge
	Emotes    []Emote
	EmoteSets []string
}

// Get returns the raw value of a tag, or "" when absent. Safe on a nil
// receiver so callers can chain from Message.Tags directly.
func (t *Tags) Get(name string) string {
	if t == nil {
		return ""
	}
	return t.Raw[name]
}

// Has reports whether the tag was present on the line (possibly with an
// empty value).
func (t *Tags) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.Raw[name]
	return ok
}

// Bool reports whether a tag carries the value "1" (the wire encoding
// for role flags such as mod, subscriber, turbo).
func (t *Tags) Bool(name string) bool { return t.Get(name) == "1" }

// BadgeInfoMap returns the decoded badge-info pairs as a map. Returns
// nil when the tag was absent or empty.
func (t *Tags) BadgeInfoMap() map[string]string {
	if t == nil || len(t.BadgeInfo) == 0 {
		return nil
	}
	m := make(map[string]string, len(t.BadgeInfo))
	for _, b := range t.BadgeInfo {
		m[b.Name] = b.Version
	}
	return m
}

// ParseTags decodes the raw tag block (without the leading '@') into a
// Tags value. Pairs are semicolon separated; an empty value means the
// tag was present but null.
func ParseTags(raw string) *Tags {
	t := &Tags{Raw: make(map[string]string)}
	for _, pair := range strings.Split(raw, ";") {
		name, value, _ := strings.Cut(pair, "=")
		if _, skip := tagsToIgnore[name]; skip {
			continue
		}
		t.Raw[name] = value
		switch name {
		case "badge-info":
			t.BadgeInfo = parseBadgePairs(value)
		case "emotes":
			t.Emotes = parseEmotes(value)
		case "emote-sets":
			if value != "" {
				t.EmoteSets = strings.Split(value, ",")
			}
		}
	}
	return t
}

// parseBadgePairs decodes a comma-separated list of name/version pairs,
// e.g. "subscriber/12,founder/0".
func parseBadgePairs(value string) []Badge {
	if value == "" {
		return nil
	}
	pairs := strings.Split(value, ",")
	out := make([]Badge, 0, len(pairs))
	for _, pair := range pairs {
		name, version, _ := strings.Cut(pair, "/")
		out = append(out, Badge{Name: name, Version: version})
	}
	return out
}

// parseEmotes decodes the emotes grammar, e.g. "25:0-4,12-16/1902:6-10".
// Order is preserved from the tag.
func parseEmotes(value string) []Emote {
	if value == "" {
		return nil
	}
	groups := strings.Split(value, "/")
	out := make([]Emote, 0, len(groups))
	for _, group := range groups {
		id, posList, ok := strings.Cut(group, ":")
		if !ok {
			continue
		}
		positions := strings.Split(posList, ",")
		e := Emote{ID: id, Positions: make([]EmotePosition, 0, len(positions))}
		for _, pos := range positions {
			start, end, _ := strings.Cut(pos, "-")
			e.Positions = append(e.Positions, EmotePosition{Start: start, End: end})
		}
		out = append(out, e)
	}
	return out
}
