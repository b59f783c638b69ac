package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCountersInitialized(t *testing.T) {
	// Ensure Init is called
	Init()

	if LinesParsed == nil {
		t.Error("LinesParsed counter not initialized")
	}
	if LinesRejected == nil {
		t.Error("LinesRejected counter not initialized")
	}
	if EventsEmitted == nil {
		t.Error("EventsEmitted counter vec not initialized")
	}
	if SinkFlushDuration == nil {
		t.Error("SinkFlushDuration histogram not initialized")
	}
}

func TestHelpersSafeBeforeAndAfterInit(t *testing.T) {
	// Helpers must never panic, registered or not.
	CountLineParsed()
	CountLineRejected()
	CountPong()
	CountDumpComment()
	CountEvent("chat")
	CountSinkDropped()
	CountSinkInserted(3)
	SetActiveBans("chan", 2)
	SetTrackedUsers("chan", 150)

	Init()

	CountLineParsed()
	CountEvent("ban")
	SetActiveBans("chan", 0)
	SetTrackedUsers("chan", 151)
}

func TestTimeFuncRecordsObservation(t *testing.T) {
	// Ensure Init is called
	Init()

	testHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration",
		Buckets: prometheus.DefBuckets,
	})
	prometheus.MustRegister(testHistogram)
	defer prometheus.Unregister(testHistogram)

	executed := false
	duration := TimeFunc(testHistogram, func() {
		time.Sleep(10 * time.Millisecond)
		executed = true
	})

	if !executed {
		t.Error("TimeFunc did not execute provided function")
	}

	if duration < 10*time.Millisecond {
		t.Errorf("TimeFunc duration = %v, want >= 10ms", duration)
	}

	metric := &dto.Metric{}
	if err := testHistogram.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Histogram == nil {
		t.Fatal("Histogram metric is nil")
	}

	if *metric.Histogram.SampleCount == 0 {
		t.Error("TimeFunc did not record observation in histogram")
	}
}

func TestTimeFuncNilObserver(t *testing.T) {
	executed := false
	TimeFunc(nil, func() { executed = true })
	if !executed {
		t.Error("TimeFunc must run fn even without an observer")
	}
}
