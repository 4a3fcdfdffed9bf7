package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecordUsesEventLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(core)

	l.Record(EventRenamed, zap.String("from", "a.jpg"), zap.String("to", "image-1.jpg"))
	l.Record(EventNamingViolation, zap.String("path", "b.png"))
	l.Record(EventRenameFailed, zap.String("path", "c.png"))

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Errorf("entry %d (%s): level %v want %v", i, e.Message, e.Level, want[i])
		}
	}
	if got := entries[0].ContextMap()["to"]; got != "image-1.jpg" {
		t.Fatalf("to=%v", got)
	}
}

func TestMultiFansOut(t *testing.T) {
	c1, l1 := observer.New(zapcore.InfoLevel)
	c2, l2 := observer.New(zapcore.InfoLevel)
	r := Multi(New(c1), nil, New(c2))

	r.Record(EventBatchStart, zap.String("dir", "/x"))
	_ = r.Sync()

	if l1.Len() != 1 || l2.Len() != 1 {
		t.Fatalf("fan-out: %d / %d", l1.Len(), l2.Len())
	}
}

func TestSetupLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dedupe.log")
	l, err := SetupLogger(Options{File: path, MaxSizeMB: 1, MaxAgeDays: 10, Compress: true, Console: io.Discard})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	l.Record(EventImagesFound, zap.Int("count", 4))
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"images_found"`) || !strings.Contains(line, `"count":4`) {
		t.Fatalf("unexpected log line: %s", line)
	}
}

func TestDebugLevelGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedupe.log")
	l, err := SetupLogger(Options{File: path, Console: io.Discard})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hidden")
	l.Record(EventBatchDone)
	_ = l.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Fatal("debug entry written without Debug option")
	}
	if !strings.Contains(string(data), EventBatchDone) {
		t.Fatal("info entry missing")
	}
}

func TestNop(t *testing.T) {
	r := Nop()
	r.Record(EventBatchStart)
	if err := r.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
