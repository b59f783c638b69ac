package store

import (
	"context"
	"database/sql"
	"time"
)

// Channel is one row of the capture registry. Enabled channels get a
// connection at startup and on registry refresh; DumpEnabled starts an
// archive as soon as the connection is ready.
type Channel struct {
	Login       string     `json:"login"`
	ChannelID   string     `json:"channel_id"`
	Enabled     bool       `json:"enabled"`
	DumpEnabled bool       `json:"dump_enabled"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ListChannels returns all registry rows ordered by login.
func ListChannels(ctx context.Context, db *sql.DB) ([]Channel, error) {
	rows, err := db.QueryContext(ctx, `SELECT login, COALESCE(channel_id,''), enabled, dump_enabled, created_at, updated_at FROM channels ORDER BY login`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Channel
	for rows.Next() {
		var c Channel
		var updated sql.NullTime
		if err := rows.Scan(&c.Login, &c.ChannelID, &c.Enabled, &c.DumpEnabled, &c.CreatedAt, &updated); err != nil {
			return nil, err
		}
		if updated.Valid {
			c.UpdatedAt = &updated.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetChannel returns one registry row. sql.ErrNoRows when absent.
func GetChannel(ctx context.Context, db *sql.DB, login string) (Channel, error) {
	var c Channel
	var updated sql.NullTime
	err := db.QueryRowContext(ctx, `SELECT login, COALESCE(channel_id,''), enabled, dump_enabled, created_at, updated_at FROM channels WHERE login=$1`, login).
		Scan(&c.Login, &c.ChannelID, &c.Enabled, &c.DumpEnabled, &c.CreatedAt, &updated)
	if err != nil {
		return Channel{}, err
	}
	if updated.Valid {
		c.UpdatedAt = &updated.Time
	}
	return c, nil
}

// UpsertChannel inserts or updates a registry row keyed by login.
func UpsertChannel(ctx context.Context, db *sql.DB, c Channel) error {
	q := `INSERT INTO channels(login, channel_id, enabled, dump_enabled, updated_at)
		  VALUES($1,$2,$3,$4,NOW())
		  ON CONFLICT(login) DO UPDATE SET
		    channel_id=EXCLUDED.channel_id,
		    enabled=EXCLUDED.enabled,
		    dump_enabled=EXCLUDED.dump_enabled,
		    updated_at=NOW()`
	_, err := db.ExecContext(ctx, q, c.Login, c.ChannelID, c.Enabled, c.DumpEnabled)
	return err
}

// DeleteChannel removes a registry row and its captured messages.
func DeleteChannel(ctx context.Context, db *sql.DB, login string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM chat_messages WHERE channel_login=$1`, login); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `DELETE FROM channels WHERE login=$1`, login)
	return err
}

// SetChannelID records the resolved numeric id for a login.
func SetChannelID(ctx context.Context, db *sql.DB, login, channelID string) error {
	_, err := db.ExecContext(ctx, `UPDATE channels SET channel_id=$2, updated_at=NOW() WHERE login=$1`, login, channelID)
	return err
}
