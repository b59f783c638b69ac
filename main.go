// Command backend is the main entrypoint for the chat-tender capture service.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Opens one anonymous chat connection per registered channel and fans
//     events out to the database sink and dump recorder.
//   - Runs periodic maintenance jobs: session sweeps and registry refresh.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status,
//     /channels, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joho/godotenv"
	"github.com/onnwee/chat-tender/backend/chat"
	"github.com/onnwee/chat-tender/backend/config"
	"github.com/onnwee/chat-tender/backend/jobs"
	"github.com/onnwee/chat-tender/backend/server"
	"github.com/onnwee/chat-tender/backend/store"
	"github.com/onnwee/chat-tender/backend/telemetry"
	"github.com/onnwee/chat-tender/backend/twitchapi"
)

// clientManager tracks the running connections for the HTTP layer.
type clientManager struct {
	mu      sync.Mutex
	clients map[string]*chat.Client
}

func newClientManager() *clientManager {
	return &clientManager{clients: make(map[string]*chat.Client)}
}

func (m *clientManager) add(login string, c *chat.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[login] = c
}

func (m *clientManager) Statuses() []chat.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.Status, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c.Status())
	}
	return out
}

func (m *clientManager) Client(login string) (*chat.Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[login]
	return c, ok
}

func (m *clientManager) each(fn func(login string, c *chat.Client)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for login, c := range m.clients {
		fn(login, c)
	}
}

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load("backend/.env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("chat-tender", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Optional Helix client for resolving channel logins to numeric ids.
	// The capture path itself is anonymous and works without it.
	var helix *twitchapi.HelixClient
	if err := cfg.ValidateHelixReady(); err == nil {
		ts, err := twitchapi.NewTokenSource(context.Background(), cfg.TwitchClientID, cfg.TwitchClientSecret, "", nil)
		if err != nil {
			slog.Warn("twitch token source unavailable", slog.Any("err", err))
		} else {
			helix = &twitchapi.HelixClient{TokenSource: ts, ClientID: cfg.TwitchClientID}
		}
	} else {
		slog.Info("helix lookups disabled", slog.Any("reason", err))
	}

	// DB
	database, err := store.Connect()
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()

	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := store.Migrate(context.Background(), database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Seed the registry from TWITCH_CHANNELS, then read the enabled set
	// back so env and API-registered channels behave the same.
	for _, login := range cfg.TwitchChannels {
		if _, err := store.GetChannel(ctx, database, login); err == sql.ErrNoRows {
			if err := store.UpsertChannel(ctx, database, store.Channel{Login: login, Enabled: true, DumpEnabled: cfg.DumpEnabled}); err != nil {
				slog.Error("failed to seed channel", slog.String("channel", login), slog.Any("err", err))
			}
		}
	}
	channels, err := store.ListChannels(ctx, database)
	if err != nil {
		slog.Error("failed to list channels", slog.Any("err", err))
		os.Exit(1)
	}

	manager := newClientManager()
	sink := store.NewSink(database, cfg.SinkBufSize, cfg.SinkBatchSize, cfg.SinkFlushInterval)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sink.Run(gctx) })

	started := 0
	for _, ch := range channels {
		if !ch.Enabled {
			continue
		}
		channel := ch
		if channel.ChannelID == "" && helix != nil {
			rctx, cancel := context.WithTimeout(ctx, 8*time.Second)
			if id, err := helix.GetUserID(rctx, channel.Login); err != nil {
				slog.Warn("channel id lookup failed", slog.String("channel", channel.Login), slog.Any("err", err))
			} else {
				channel.ChannelID = id
				if err := store.SetChannelID(ctx, database, channel.Login, id); err != nil {
					slog.Warn("failed to persist channel id", slog.String("channel", channel.Login), slog.Any("err", err))
				}
			}
			cancel()
		}

		client := chat.NewClient(channel.Login, channel.ChannelID)
		client.RelayURL = cfg.ChatURL
		client.OnChat(func(m *chat.Message) {
			sink.Enqueue(store.RowFromMessage(channel.Login, m.Message))
		})
		if channel.DumpEnabled {
			client.OnConnected(func() {
				path := filepath.Join(cfg.DataDir, channel.Login+"-"+time.Now().UTC().Format("20060102-150405")+".json")
				if err := client.StartDump(path); err != nil {
					slog.Error("failed to start dump", slog.String("channel", channel.Login), slog.Any("err", err))
				}
			})
		}
		client.OnLive(func(m *chat.Message) {
			logger := slog.Default().With(slog.String("channel", channel.Login))
			// The id may have been learned from room-id tags after boot.
			id := client.Status().ChannelID
			if helix == nil || id == "" {
				logger.Info("channel appears live (chat heuristic)")
				return
			}
			rctx, cancel := context.WithTimeout(gctx, 8*time.Second)
			defer cancel()
			if s, err := helix.GetStream(rctx, id); err != nil {
				logger.Warn("live confirmation failed", slog.Any("err", err))
			} else if s != nil {
				logger.Info("channel live confirmed", slog.String("title", s.Title), slog.Int("viewers", s.ViewerCount))
			} else {
				logger.Info("live heuristic fired but helix reports offline")
			}
		})
		manager.add(channel.Login, client)
		g.Go(func() error { return client.Run(gctx) })
		started++
	}
	slog.Info("capture connections starting", slog.Int("count", started))

	// Maintenance jobs
	scheduler := jobs.NewScheduler()
	if err := scheduler.Schedule("session-sweep", cfg.SessionSweep, func() {
		manager.each(func(login string, c *chat.Client) {
			if removed := c.Session().Sweep(cfg.SessionMaxIdle); removed > 0 {
				slog.Info("session sweep", slog.String("channel", login), slog.Int("removed", removed))
			}
		})
	}); err != nil {
		slog.Error("failed to schedule session sweep", slog.Any("err", err))
	}
	if helix != nil {
		if err := scheduler.Schedule("registry-refresh", "0 0 * * * *", func() {
			rctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			chs, err := store.ListChannels(rctx, database)
			if err != nil {
				slog.Warn("registry refresh list failed", slog.Any("err", err))
				return
			}
			for _, ch := range chs {
				if ch.ChannelID != "" {
					continue
				}
				if id, err := helix.GetUserID(rctx, ch.Login); err == nil {
					_ = store.SetChannelID(rctx, database, ch.Login, id)
				}
			}
		}); err != nil {
			slog.Error("failed to schedule registry refresh", slog.Any("err", err))
		}
	}
	g.Go(func() error { return scheduler.Run(gctx) })

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			// Use an http.Server with timeouts to satisfy G114 and avoid DoS risks
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (health/status/registry/metrics)
	g.Go(func() error { return server.Start(gctx, database, manager, cfg.HTTPAddr) })

	// Block until shutdown signal or fatal worker error
	if err := g.Wait(); err != nil && err != context.Canceled {
		slog.Error("worker exited with error", slog.Any("err", err))
	}
	slog.Info("shutting down")
}
