package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricHistogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordFunctionsAreNoOpsBeforeInit(t *testing.T) {
	resetGlobalMetricsForTest()

	RecordScan()
	RecordSerializationFailure()
	RecordPayload("Done")
	RecordRepeat(3, time.Millisecond)

	if current() != nil {
		t.Error("recording must not initialize metrics")
	}
}

func TestInitRegistersAndRecords(t *testing.T) {
	resetGlobalMetricsForTest()
	defer resetGlobalMetricsForTest()

	reg := prometheus.NewRegistry()
	Init(WithRegistry(reg), WithNamespace("test"), WithSubsystem("dash"))

	RecordScan()
	RecordScan()
	RecordSerializationFailure()
	RecordPayload("Done")
	RecordPayload("Loading")
	RecordPayload("Done")
	RecordRepeat(4, 2*time.Millisecond)

	m := current()
	if got := metricCounterValue(t, m.dependencyScans); got != 2 {
		t.Errorf("dependency scans = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.serializationFailures); got != 1 {
		t.Errorf("serialization failures = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.payloadsTotal.WithLabelValues("Done")); got != 2 {
		t.Errorf("done payloads = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.repeatsTotal); got != 1 {
		t.Errorf("repeats = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.repeatClones); got != 1 {
		t.Errorf("repeat clone samples = %d, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_dash_dependency_scans_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected test_dash_dependency_scans_total to be registered")
	}
}

func TestInitOnlyOnce(t *testing.T) {
	resetGlobalMetricsForTest()
	defer resetGlobalMetricsForTest()

	Init(WithRegistry(prometheus.NewRegistry()))
	first := current()
	Init(WithRegistry(prometheus.NewRegistry()))

	if current() != first {
		t.Error("second Init must keep the existing metrics")
	}
}

type fakeSpan struct {
	trace.Span

	ended       bool
	statusCode  codes.Code
	description string
	errs        []error
}

func (s *fakeSpan) End(...trace.SpanEndOption) { s.ended = true }

func (s *fakeSpan) SetStatus(code codes.Code, description string) {
	s.statusCode = code
	s.description = description
}

func (s *fakeSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func TestEndSpan(t *testing.T) {
	ok := &fakeSpan{}
	EndSpan(ok, nil)
	if !ok.ended || ok.statusCode != codes.Ok || len(ok.errs) != 0 {
		t.Errorf("unexpected span after success: %+v", ok)
	}

	failed := &fakeSpan{}
	boom := errors.New("boom")
	EndSpan(failed, boom)
	if !failed.ended || failed.statusCode != codes.Error || failed.description != "boom" {
		t.Errorf("unexpected span after failure: %+v", failed)
	}
	if len(failed.errs) != 1 || failed.errs[0] != boom {
		t.Errorf("recorded errors = %v", failed.errs)
	}
}

func TestStartSpanUsesGlobalProvider(t *testing.T) {
	SetTracerName("scenes-test")
	defer SetTracerName("")

	ctx, span := StartSpan(context.Background(), "scenes.test", attribute.Int("series", 2))
	defer span.End()

	if ctx == nil || span == nil {
		t.Fatal("StartSpan should return a context and span")
	}
	if span.SpanContext().IsValid() {
		t.Error("spans from the default provider should not be recording")
	}
}
