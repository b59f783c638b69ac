package dump

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/onnwee/chat-tender/backend/irc"
)

var (
	// ErrDumpActive is returned when a dump is started while one is
	// already recording on this recorder.
	ErrDumpActive = errors.New("dump: already started")
	// ErrDumpExists is returned when the finalized target path already
	// exists.
	ErrDumpExists = errors.New("dump: target file already exists")
)

// Video is the metadata envelope written at finalize time.
type Video struct {
	CreatedAt    time.Time `json:"created_at"`
	Description  string    `json:"description"`
	Duration     string    `json:"duration"`
	ID           string    `json:"id"`
	Language     string    `json:"language"`
	PublishedAt  time.Time `json:"published_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	URL          string    `json:"url"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	ViewCount    int       `json:"view_count"`
	Viewable     string    `json:"viewable"`
	Start        float64   `json:"start"`
	End          float64   `json:"end"`
}

// Streamer identifies the recorded channel in the finalized document.
type Streamer struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Dump is the finalized archive document: every recorded comment in
// append order plus the video envelope.
type Dump struct {
	Comments []Comment `json:"comments"`
	Video    Video     `json:"video"`
	Streamer Streamer  `json:"streamer"`
}

// Recorder appends chat messages to a temporary line-delimited sink and
// consolidates them into one finalized document on Stop. The temporary
// file survives a crash mid-session, so a partial recording remains
// recoverable even when Stop never runs.
type Recorder struct {
	channelLogin string

	mu    sync.Mutex
	path  string
	sink  *os.File
	start time.Time
	now   func() time.Time
}

// NewRecorder returns a recorder for the given channel login. No file
// is touched until Start.
func NewRecorder(channelLogin string) *Recorder {
	return &Recorder{channelLogin: channelLogin, now: time.Now}
}

// Active reports whether a dump is currently recording.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sink != nil
}

// Start opens the temporary sink at path+".line" and records the start
// time. It fails without mutating state if a dump is already active or
// the finalized target already exists.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sink != nil {
		return ErrDumpActive
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrDumpExists, path)
	}
	f, err := os.OpenFile(path+".line", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open dump sink: %w", err)
	}
	r.path = path
	r.sink = f
	r.start = r.now().UTC()
	slog.Info("chat dump started", slog.String("channel", r.channelLogin), slog.String("path", path))
	return nil
}

// Append converts a chat message to a comment at the current offset
// from dump start and writes it as one line. No-op when no dump is
// active. A conversion failure aborts only that message.
func (r *Recorder) Append(msg *irc.Message, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sink == nil {
		return nil
	}
	offset := r.now().UTC().Sub(r.start).Seconds()
	c, err := CommentFromMessage(msg, channelID, offset)
	if err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	if _, err := r.sink.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	return nil
}

// Stop closes the sink, reads back every appended line, wraps the
// comments with the video envelope, writes the consolidated document to
// the target path, and deletes the temporary sink. Calling Stop with no
// active dump logs and returns nil without touching the filesystem.
// A failed consolidation still deactivates the recorder; the temporary
// sink is left on disk for recovery.
func (r *Recorder) Stop(channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sink == nil {
		slog.Info("chat dump was not started", slog.String("channel", r.channelLogin))
		return nil
	}

	path := r.path
	linePath := r.path + ".line"
	if err := r.sink.Close(); err != nil {
		slog.Warn("failed to close dump sink", slog.Any("err", err))
	}
	start := r.start
	r.path = ""
	r.sink = nil
	r.start = time.Time{}

	data, err := os.ReadFile(linePath)
	if err != nil {
		return fmt.Errorf("read dump sink: %w", err)
	}
	comments := make([]Comment, 0, 128)
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		var c Comment
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return fmt.Errorf("decode dump line: %w", err)
		}
		comments = append(comments, c)
	}

	elapsed := r.now().UTC().Sub(start).Seconds()
	streamerID, _ := strconv.Atoi(channelID)
	final := Dump{
		Comments: comments,
		Video: Video{
			CreatedAt:   start,
			Duration:    compactDuration(int(math.Round(elapsed))),
			PublishedAt: start,
			Title:       "Chat Dump",
			Type:        "archive",
			UserID:      channelID,
			UserName:    r.channelLogin,
			End:         elapsed,
		},
		Streamer: Streamer{Name: r.channelLogin, ID: streamerID},
	}

	out, err := json.Marshal(final)
	if err != nil {
		return fmt.Errorf("marshal dump: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	if err := os.Remove(linePath); err != nil {
		slog.Warn("failed to remove dump sink", slog.Any("err", err))
	}
	slog.Info("chat dump stopped", slog.String("channel", r.channelLogin), slog.String("path", path), slog.Int("comments", len(comments)))
	return nil
}
