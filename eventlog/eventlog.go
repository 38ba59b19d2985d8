// Package eventlog provides the single logging seam the rest of worldphys
// calls through. Hot paths (SceneQuery, CollideAndSlide, PhysicsEngine.Step)
// never format strings; they check a category mask first and take a no-op
// sink by default.
//
// Package eventlog is provided as part of the worldphys character-controller
// physics core.
package eventlog

import (
	"fmt"
	"log/slog"
)

// Category is a compile-time bitmask identifying the subsystem emitting an
// event. Callers enable the categories they care about; everything else is
// dropped before any formatting happens.
type Category uint32

const (
	CategoryTileLifecycle Category = 1 << iota // StaticMapTree.LoadTile / UnloadTile
	CategoryQuery                               // SceneQuery broad/narrow phase diagnostics
	CategorySlide                               // CollideAndSlide iteration diagnostics
	CategoryStep                                // PhysicsEngine.Step state transitions

	CategoryAll Category = 0xFFFFFFFF
	CategoryNone Category = 0
)

// Sink receives formatted events. The default Sink is a no-op; hot paths
// must check Enabled before doing any work to build a message.
type Sink interface {
	// Logf emits an event. Implementations may ignore cat if they log
	// unconditionally (e.g. a slog-backed sink filtering on level instead).
	Logf(cat Category, format string, args ...any)
}

// noopSink discards everything. This is the default Sink so that a caller
// that never configures logging pays zero formatting cost.
type noopSink struct{}

func (noopSink) Logf(Category, string, ...any) {}

// Noop is the shared no-op sink instance.
var Noop Sink = noopSink{}

// SlogSink adapts a *slog.Logger to Sink, filtering on a category mask.
// This is the sink a server normally installs: the formatted event goes out
// as the slog message, one logger per map shard.
type SlogSink struct {
	Logger *slog.Logger
	Mask   Category // categories this sink actually emits.
}

// NewSlogSink wraps logger, enabling only the given categories.
func NewSlogSink(logger *slog.Logger, mask Category) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{Logger: logger, Mask: mask}
}

// Logf implements Sink.
func (s *SlogSink) Logf(cat Category, format string, args ...any) {
	if s == nil || s.Mask&cat == 0 {
		return
	}
	s.Logger.Info(fmt.Sprintf(format, args...))
}

// Enabled reports whether sink would emit anything for cat. Callers in hot
// paths use this to skip building a message entirely.
func Enabled(sink Sink, cat Category) bool {
	if s, ok := sink.(*SlogSink); ok {
		return s != nil && s.Mask&cat != 0
	}
	return sink != nil && sink != Noop
}
