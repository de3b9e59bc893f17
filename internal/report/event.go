// Package report carries structured pipeline events from the resolver,
// merger and installer to a caller-owned sink.
package report

import (
	"fmt"
	"sync"
	"time"
)

// Level is the severity of an event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Kind categorizes what happened.
type Kind string

const (
	// KindResolve records the computed install order.
	KindResolve Kind = "resolve"
	// KindManifest is a non-fatal manifest finding (style, compatibility).
	KindManifest Kind = "manifest"
	// KindMerge is a rule-merge finding.
	KindMerge Kind = "merge"
	// KindTemplateMissing is a placeholder with no value in the context.
	KindTemplateMissing Kind = "template.missing"
	// KindScaffold is a directory creation.
	KindScaffold Kind = "scaffold"
	// KindFileCreate is a file written where none existed.
	KindFileCreate Kind = "file.create"
	// KindFileOverwrite is a file replaced because force was set.
	KindFileOverwrite Kind = "file.overwrite"
	// KindFileSkip is an existing file left untouched.
	KindFileSkip Kind = "file.skip"
	// KindFileError is a per-file filesystem failure.
	KindFileError Kind = "file.error"
	// KindArtifact is a configuration artifact write.
	KindArtifact Kind = "artifact"
	// KindVerify is a verification finding.
	KindVerify Kind = "verify"
)

// Event is one structured record emitted by a pipeline stage.
type Event struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Kind    Kind      `json:"kind"`
	Plugin  string    `json:"plugin,omitempty"`
	Path    string    `json:"path,omitempty"`
	Message string    `json:"message"`
	DryRun  bool      `json:"dry_run,omitempty"`
}

// String renders the event for console output.
func (e Event) String() string {
	prefix := ""
	if e.DryRun {
		prefix = "[dry-run] "
	}
	switch {
	case e.Plugin != "" && e.Path != "":
		return fmt.Sprintf("%s%s: %s (%s)", prefix, e.Plugin, e.Message, e.Path)
	case e.Plugin != "":
		return fmt.Sprintf("%s%s: %s", prefix, e.Plugin, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s%s (%s)", prefix, e.Message, e.Path)
	}
	return prefix + e.Message
}

// Sink receives events. Implementations must tolerate being called from a
// single goroutine at a time; Collector additionally locks.
type Sink interface {
	Emit(Event)
}

// Emit stamps the event time if unset and forwards it to sink.
// A nil sink discards the event.
func Emit(sink Sink, e Event) {
	if sink == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	sink.Emit(e)
}

// Warn emits a warning event.
func Warn(sink Sink, kind Kind, plugin, path, msg string) {
	Emit(sink, Event{Level: LevelWarn, Kind: kind, Plugin: plugin, Path: path, Message: msg})
}

// Info emits an informational event.
func Info(sink Sink, kind Kind, plugin, path, msg string) {
	Emit(sink, Event{Level: LevelInfo, Kind: kind, Plugin: plugin, Path: path, Message: msg})
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Collector records events in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Emit implements Sink.
func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of everything collected.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Filter returns collected events matching kind.
func (c *Collector) Filter(kind Kind) []Event {
	var out []Event
	for _, e := range c.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns collected events at warn level or above.
func (c *Collector) Warnings() []Event {
	var out []Event
	for _, e := range c.Events() {
		if e.Level == LevelWarn || e.Level == LevelError {
			out = append(out, e)
		}
	}
	return out
}

// Multi fans events out to several sinks in order.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}
