// Package telemetry provides structured logging and metrics for the ambient
// layers built on top of the pure khf core (persist, orchestrator). The core
// forest itself stays silent — only adapters that perform I/O or fan out
// across goroutines log and count anything. This keeps logging and metrics
// a concern of the outer layers, not of the algorithm itself.
package telemetry

import (
	"log/slog"
	"os"

	"github.com/lemosyne/khf/metrics"
)

// Logger wraps slog.Logger with a "module" attribute, so each subsystem's
// log lines are taggable back to their source without threading a name
// through every call site.
type Logger struct {
	inner *slog.Logger
}

var defaultLogger = NewLogger(slog.LevelInfo)

// NewLogger creates a Logger that writes JSON to stderr at the given level.
func NewLogger(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(h)}
}

// NewLoggerWithHandler creates a Logger backed by an arbitrary slog.Handler,
// for tests or custom sinks.
func NewLoggerWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// Default returns the process-wide default Logger.
func Default() *Logger { return defaultLogger }

// SetDefault replaces the process-wide default Logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Module returns a child logger tagged with the given subsystem name, e.g.
// "persist" or "orchestrator".
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// With returns a child logger carrying additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// Metrics is a thin, forest-scoped facade over a metrics.Registry: one
// counter per operation kind and gauges for fragmentation and key count, enough for an
// operator dashboard without pulling metric-naming concerns into the core.
type Metrics struct {
	registry *metrics.Registry

	derives      *metrics.Counter
	updates      *metrics.Counter
	commits      *metrics.Counter
	consolidates *metrics.Counter
	fragments    *metrics.Gauge
	keys         *metrics.Gauge
}

// NewMetrics registers a forest's counters and gauges under registry, or
// under a fresh private registry if registry is nil.
func NewMetrics(registry *metrics.Registry) *Metrics {
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &Metrics{
		registry:     registry,
		derives:      registry.Counter("khf.derive.count"),
		updates:      registry.Counter("khf.update.count"),
		commits:      registry.Counter("khf.commit.count"),
		consolidates: registry.Counter("khf.consolidate.count"),
		fragments:    registry.Gauge("khf.fragmentation"),
		keys:         registry.Gauge("khf.keys"),
	}
}

func (m *Metrics) RecordDerive()      { m.derives.Inc(1) }
func (m *Metrics) RecordUpdate()      { m.updates.Inc(1) }
func (m *Metrics) RecordCommit()      { m.commits.Inc(1) }
func (m *Metrics) RecordConsolidate() { m.consolidates.Inc(1) }

// Observe records the forest's current fragmentation and key count.
func (m *Metrics) Observe(fragmentation, keys uint64) {
	m.fragments.Update(int64(fragmentation))
	m.keys.Update(int64(keys))
}

// Registry returns the underlying metrics.Registry, for callers that want
// to export these values through their own metrics pipeline.
func (m *Metrics) Registry() *metrics.Registry {
	return m.registry
}
