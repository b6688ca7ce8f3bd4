package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestMetricsRecordsCounters(t *testing.T) {
	m := NewMetrics(nil)
	m.RecordDerive()
	m.RecordDerive()
	m.RecordUpdate()
	m.RecordCommit()
	m.RecordConsolidate()

	snap := m.Registry().Snapshot()
	if snap["khf.derive.count"] != 2 {
		t.Errorf("khf.derive.count = %d, want 2", snap["khf.derive.count"])
	}
	if snap["khf.update.count"] != 1 {
		t.Errorf("khf.update.count = %d, want 1", snap["khf.update.count"])
	}
}

func TestMetricsObserveSetsGauges(t *testing.T) {
	m := NewMetrics(nil)
	m.Observe(7, 100)
	snap := m.Registry().Snapshot()
	if snap["khf.fragmentation"] != 7 {
		t.Errorf("khf.fragmentation = %d, want 7", snap["khf.fragmentation"])
	}
	if snap["khf.keys"] != 100 {
		t.Errorf("khf.keys = %d, want 100", snap["khf.keys"])
	}
}

func TestLoggerModuleAddsAttribute(t *testing.T) {
	l := NewLogger(0)
	child := l.Module("persist")
	if child == nil {
		t.Fatal("Module should return a usable child logger")
	}
	// Exercise the logging paths; slog.JSONHandler doesn't panic on any
	// well-formed arg list.
	child.Info("snapshot saved", "keys", 42)
	child.Debug("noop")

	var buf bytes.Buffer
	tagged := NewLoggerWithHandler(slog.NewJSONHandler(&buf, nil)).Module("persist")
	tagged.Info("snapshot saved")
	if !strings.Contains(buf.String(), `"module":"persist"`) {
		t.Errorf("Module(%q) log line = %q, want a module attribute", "persist", buf.String())
	}
}
