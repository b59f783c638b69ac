package chat

import (
	"sync"
	"time"

	"github.com/onnwee/chat-tender/backend/irc"
)

// User is the derived state for one chat participant, keyed by the
// stable user-id tag. Role flags are monotonic: once observed true they
// stay true for the life of the session.
type User struct {
	ID           string
	Nick         string
	Login        string
	DisplayName  string
	Color        string
	Badges       map[string]string
	IsMod        bool
	IsSubscriber bool
	IsTurbo      bool
	MessageCount int

	// BanTime/BanDuration are set by a clear-chat event targeting this
	// user. Zero BanTime means never banned.
	BanTime     time.Time
	BanDuration time.Duration

	lastSeen time.Time
}

// Banned reports whether the user's ban window is still open at now.
func (u *User) Banned(now time.Time) bool {
	return !u.BanTime.IsZero() && now.Before(u.BanTime.Add(u.BanDuration))
}

// Session tracks per-user derived state and the channel id for one
// connection. It is written by the connection's single processing
// goroutine; the mutex exists for the read-side status and sweep paths.
type Session struct {
	mu        sync.Mutex
	users     map[string]*User
	channelID string
	now       func() time.Time
}

func NewSession() *Session {
	return &Session{users: make(map[string]*User), now: time.Now}
}

// Apply folds one parsed message into the session: it creates or
// updates the sender's record and tracks the channel id from room-id
// tags. Returns the sender's record, or nil when the message carries no
// user identifier.
func (s *Session) Apply(msg *irc.Message) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roomID := msg.RoomID(); roomID != "" {
		s.channelID = roomID
	}

	userID := msg.UserID()
	if userID == "" {
		return nil
	}

	u, ok := s.users[userID]
	if !ok {
		u = &User{
			ID:          userID,
			Nick:        msg.Tags.Get("login"),
			Login:       msg.Tags.Get("login"),
			DisplayName: msg.Tags.Get("display-name"),
			Color:       msg.Tags.Get("color"),
			Badges:      msg.Tags.BadgeInfoMap(),
		}
		if u.Badges == nil {
			u.Badges = map[string]string{}
		}
		s.users[userID] = u
	} else {
		u.MessageCount++
	}

	if msg.Tags.Bool("mod") {
		u.IsMod = true
	}
	if msg.Tags.Bool("subscriber") {
		u.IsSubscriber = true
	}
	if msg.Tags.Bool("turbo") {
		u.IsTurbo = true
	}
	u.lastSeen = s.now()
	return u
}

// Lookup returns the record for a user id, or nil.
func (s *Session) Lookup(userID string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID]
}

// RecordBan opens a ban window on the target user. A zero duration
// closes the window immediately, matching the wire default when the
// ban-duration tag is absent.
func (s *Session) RecordBan(userID string, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false
	}
	u.BanTime = s.now()
	u.BanDuration = d
	return true
}

// SetLogin updates the stored login for a user, as USERNOTICE events
// carry a fresher login tag than the original join.
func (s *Session) SetLogin(userID, login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Login = login
	}
}

// ActiveBanCount returns how many tracked users have an open ban window.
func (s *Session) ActiveBanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, u := range s.users {
		if u.Banned(now) {
			n++
		}
	}
	return n
}

// UserCount returns the number of tracked users.
func (s *Session) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// ChannelID returns the channel id learned from room-id tags, or "".
func (s *Session) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// Sweep evicts users with no activity within maxIdle and no open ban
// window, and returns how many were removed. This caps the otherwise
// unbounded growth of the session map on long-running connections.
func (s *Session) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, u := range s.users {
		if u.Banned(now) {
			continue
		}
		if now.Sub(u.lastSeen) > maxIdle {
			delete(s.users, id)
			removed++
		}
	}
	return removed
}
