package report

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEmit_StampsTime(t *testing.T) {
	c := NewCollector()
	Emit(c, Event{Level: LevelInfo, Kind: KindResolve, Message: "order"})

	events := c.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Time.IsZero() {
		t.Error("Emit() did not stamp event time")
	}
}

func TestEmit_NilSink(t *testing.T) {
	// Must not panic.
	Emit(nil, Event{Message: "dropped"})
	Warn(nil, KindMerge, "", "", "dropped")
}

func TestCollector_FilterAndWarnings(t *testing.T) {
	c := NewCollector()
	Info(c, KindFileCreate, "p", "a.md", "created")
	Warn(c, KindFileSkip, "p", "b.md", "exists")
	Emit(c, Event{Level: LevelError, Kind: KindFileError, Message: "boom"})

	if got := len(c.Filter(KindFileCreate)); got != 1 {
		t.Errorf("Filter(file.create) = %d events, want 1", got)
	}
	if got := len(c.Warnings()); got != 2 {
		t.Errorf("Warnings() = %d events, want 2", got)
	}
}

func TestMulti(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	Multi{a, nil, b}.Emit(Event{Message: "x"})

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("Multi did not fan out: a=%d b=%d", len(a.Events()), len(b.Events()))
	}
}

func TestEvent_String(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{Event{Message: "done"}, "done"},
		{Event{Plugin: "p", Message: "m"}, "p: m"},
		{Event{Path: "x", Message: "m"}, "m (x)"},
		{Event{Plugin: "p", Path: "x", Message: "m", DryRun: true}, "[dry-run] p: m (x)"},
	}
	for _, tt := range tests {
		if got := tt.event.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewZapSink(zap.New(core))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sink.Emit(Event{Time: ts, Level: LevelWarn, Kind: KindFileSkip, Plugin: "base", Path: "a.md", Message: "exists", DryRun: true})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entry.Level)
	}
	if entry.Message != "exists" {
		t.Errorf("message = %q, want %q", entry.Message, "exists")
	}
	if !entry.Time.Equal(ts) {
		t.Errorf("time = %v, want %v", entry.Time, ts)
	}
	fields := entry.ContextMap()
	if fields["plugin"] != "base" || fields["path"] != "a.md" || fields["kind"] != "file.skip" || fields["dry_run"] != true {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestNewZapSink_NilLogger(t *testing.T) {
	NewZapSink(nil).Emit(Event{Level: LevelError, Message: "ignored"})
}
