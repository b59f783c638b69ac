package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/onnwee/chat-tender/backend/irc"
	"github.com/onnwee/chat-tender/backend/telemetry"
)

// Row is one chat message flattened for persistence.
type Row struct {
	ChannelLogin string
	UserID       string
	Username     string
	DisplayName  string
	Message      string
	Timestamp    time.Time
	Badges       string
	Emotes       string
	Color        string
	IsAction     bool
}

// RowFromMessage flattens a parsed chat message into a sink row.
func RowFromMessage(channelLogin string, msg *irc.Message) Row {
	r := Row{
		ChannelLogin: channelLogin,
		UserID:       msg.UserID(),
		Message:      msg.Params,
		Timestamp:    msg.Time,
		Color:        msg.Tags.Get("color"),
		DisplayName:  msg.Tags.Get("display-name"),
		Badges:       msg.Tags.Get("badges"),
		Emotes:       msg.Tags.Get("emotes"),
		IsAction:     msg.IsAction,
	}
	if msg.Source != nil {
		r.Username = msg.Source.Nick
	}
	return r
}

// Sink batches chat rows into Postgres. Enqueue never blocks the
// connection's processing goroutine: when the buffer is full the row is
// dropped and counted.
type Sink struct {
	db        *sql.DB
	buf       chan Row
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

// NewSink builds a sink. bufSize caps the in-flight backlog, batchSize
// the rows per insert, interval the maximum latency before a partial
// batch is flushed.
func NewSink(db *sql.DB, bufSize, batchSize int, interval time.Duration) *Sink {
	if bufSize <= 0 {
		bufSize = 1024
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Sink{
		db:        db,
		buf:       make(chan Row, bufSize),
		batchSize: batchSize,
		interval:  interval,
		logger:    slog.Default().With(slog.String("component", "sink")),
	}
}

// Enqueue queues a row for persistence, dropping it when the buffer is
// full.
func (s *Sink) Enqueue(r Row) {
	select {
	case s.buf <- r:
	default:
		telemetry.CountSinkDropped()
	}
}

// Run drains the buffer until the context is canceled, then performs a
// final flush of whatever is queued.
func (s *Sink) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	batch := make([]Row, 0, s.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		telemetry.TimeFunc(telemetry.SinkFlushDuration, func() {
			if err := s.insert(context.WithoutCancel(ctx), batch); err != nil {
				s.logger.Error("sink flush failed", slog.Any("err", err), slog.Int("rows", len(batch)))
			} else {
				telemetry.CountSinkInserted(len(batch))
			}
		})
		batch = batch[:0]
	}

	for {
		select {
		case r := <-s.buf:
			batch = append(batch, r)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			// Drain what is already buffered before giving up.
			for {
				select {
				case r := <-s.buf:
					batch = append(batch, r)
					if len(batch) >= s.batchSize {
						flush()
					}
				default:
					flush()
					return ctx.Err()
				}
			}
		}
	}
}

func (s *Sink) insert(ctx context.Context, batch []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO chat_messages(channel_login, user_id, username, display_name, message, abs_timestamp, badges, emotes, color, is_action)
		  VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range batch {
		ts := r.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, r.ChannelLogin, nullIfEmpty(r.UserID), nullIfEmpty(r.Username), nullIfEmpty(r.DisplayName), r.Message, ts, nullIfEmpty(r.Badges), nullIfEmpty(r.Emotes), nullIfEmpty(r.Color), r.IsAction); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
