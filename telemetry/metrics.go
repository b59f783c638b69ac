// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    once sync.Once

    // Counters
    LinesParsed   prometheus.Counter
    LinesRejected prometheus.Counter
    PongsSent     prometheus.Counter
    DumpComments  prometheus.Counter
    SinkDropped   prometheus.Counter
    SinkInserted  prometheus.Counter
    EventsEmitted *prometheus.CounterVec

    // Histograms (seconds)
    SinkFlushDuration prometheus.Observer

    // Gauges
    ActiveBansGauge   *prometheus.GaugeVec
    TrackedUsersGauge *prometheus.GaugeVec
)

// Init registers metrics (idempotent).
func Init() {
    once.Do(func() {
        LinesParsed = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_lines_parsed_total", Help: "Number of relay lines accepted by the parser"})
        LinesRejected = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_lines_rejected_total", Help: "Number of relay lines rejected by the parser"})
        PongsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_pongs_sent_total", Help: "Number of keepalive PONG responses sent"})
        DumpComments = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_dump_comments_total", Help: "Number of comments appended to active dumps"})
    SinkDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_sink_dropped_total", Help: "Number of messages dropped by the database sink"})
    SinkInserted = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_sink_inserted_total", Help: "Number of messages persisted by the database sink"})
        EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chat_events_emitted_total", Help: "Number of events fanned out to observers"}, []string{"type"})
        SinkFlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chat_sink_flush_duration_seconds", Help: "Database sink flush duration seconds", Buckets: prometheus.DefBuckets})
        ActiveBansGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "chat_active_bans", Help: "Current number of open ban windows per channel"}, []string{"channel"})
        TrackedUsersGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "chat_tracked_users", Help: "Current number of tracked users per channel"}, []string{"channel"})
    })
}

// CountLineParsed increments the accepted-line counter if registered.
func CountLineParsed() { if LinesParsed != nil { LinesParsed.Inc() } }

// CountLineRejected increments the rejected-line counter if registered.
func CountLineRejected() { if LinesRejected != nil { LinesRejected.Inc() } }

// CountPong increments the keepalive counter if registered.
func CountPong() { if PongsSent != nil { PongsSent.Inc() } }

// CountDumpComment increments the dump append counter if registered.
func CountDumpComment() { if DumpComments != nil { DumpComments.Inc() } }

// CountEvent increments the per-type event counter if registered.
func CountEvent(eventType string) { if EventsEmitted != nil { EventsEmitted.WithLabelValues(eventType).Inc() } }

// CountSinkDropped increments the sink drop counter if registered.
func CountSinkDropped() { if SinkDropped != nil { SinkDropped.Inc() } }

// CountSinkInserted adds to the sink insert counter if registered.
func CountSinkInserted(n int) { if SinkInserted != nil { SinkInserted.Add(float64(n)) } }

// SetActiveBans records the current open ban windows for a channel.
func SetActiveBans(channel string, n int) { if ActiveBansGauge != nil { ActiveBansGauge.WithLabelValues(channel).Set(float64(n)) } }

// SetTrackedUsers records the current session size for a channel.
func SetTrackedUsers(channel string, n int) { if TrackedUsersGauge != nil { TrackedUsersGauge.WithLabelValues(channel).Set(float64(n)) } }

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
    start := time.Now()
    fn()
    d := time.Since(start)
    if obs != nil { obs.Observe(d.Seconds()) }
    return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}
var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context { return context.WithValue(ctx, corrKey, id) }

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
    v := ctx.Value(corrKey)
    if s, ok := v.(string); ok { return s }
    return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
    if id := GetCorrelation(ctx); id != "" { return slog.Default().With(slog.String("corr", id)) }
    return slog.Default()
}
