package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/onnwee/chat-tender/backend/store"
	"github.com/onnwee/chat-tender/backend/testutil"
)

func TestMigrateIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	// SetupTestDB already migrated once; a second run must be a no-op.
	if err := store.Migrate(context.Background(), db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestChannelRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	login := "roundtrip_chan"
	t.Cleanup(func() { _ = store.DeleteChannel(ctx, db, login) })

	c := store.Channel{Login: login, ChannelID: "123", Enabled: true, DumpEnabled: true}
	if err := store.UpsertChannel(ctx, db, c); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetChannel(ctx, db, login)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChannelID != "123" || !got.Enabled || !got.DumpEnabled {
		t.Errorf("channel = %+v", got)
	}

	// Upsert again flips the flags in place.
	c.Enabled = false
	c.DumpEnabled = false
	if err := store.UpsertChannel(ctx, db, c); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err = store.GetChannel(ctx, db, login)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Enabled || got.DumpEnabled {
		t.Errorf("flags not updated: %+v", got)
	}
	if got.UpdatedAt == nil {
		t.Error("updated_at not set")
	}

	list, err := store.ListChannels(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, ch := range list {
		if ch.Login == login {
			found = true
		}
	}
	if !found {
		t.Error("upserted channel missing from list")
	}

	if err := store.DeleteChannel(ctx, db, login); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetChannel(ctx, db, login); err != sql.ErrNoRows {
		t.Errorf("get after delete err = %v, want ErrNoRows", err)
	}
}

func TestSetChannelID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	login := "resolve_chan"
	t.Cleanup(func() { _ = store.DeleteChannel(ctx, db, login) })

	if err := store.UpsertChannel(ctx, db, store.Channel{Login: login, Enabled: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.SetChannelID(ctx, db, login, "987"); err != nil {
		t.Fatalf("set id: %v", err)
	}
	got, err := store.GetChannel(ctx, db, login)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChannelID != "987" {
		t.Errorf("channel id = %q, want 987", got.ChannelID)
	}
}

func TestSinkPersistsBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	login := "sink_chan"
	t.Cleanup(func() { _ = store.DeleteChannel(context.Background(), db, login) })

	if err := store.UpsertChannel(ctx, db, store.Channel{Login: login, Enabled: true}); err != nil {
		t.Fatalf("upsert channel: %v", err)
	}

	sink := store.NewSink(db, 16, 4, 50*time.Millisecond)
	done := make(chan struct{})
	go func() { _ = sink.Run(ctx); close(done) }()

	now := time.Now().UTC()
	for i := 0; i < 6; i++ {
		sink.Enqueue(store.Row{
			ChannelLogin: login,
			UserID:       "42",
			Username:     "ann",
			Message:      "hello",
			Timestamp:    now,
		})
	}

	// Wait for at least one timed flush, then stop and wait for the
	// final drain.
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	var count int
	if err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM chat_messages WHERE channel_login=$1`, login).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 6 {
		t.Errorf("persisted rows = %d, want 6", count)
	}
}
