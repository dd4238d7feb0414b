package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)

	l.Info("hello %s", "info")
	l.Warning("careful %d", 2)
	l.Error("broken: %v", "boom")

	out := buf.String()
	for _, want := range []string{"INFO    ", "hello info", "WARNING ", "careful 2", "ERROR   ", "broken: boom", "logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestNew_WritesFiles(t *testing.T) {
	dir := t.TempDir()

	l, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Info("to info file")
	l.Error("to error file")
	l.Close()

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	if err != nil {
		t.Fatalf("read info.log: %v", err)
	}
	if !strings.Contains(string(info), "to info file") {
		t.Errorf("info.log missing entry: %s", info)
	}

	errLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	if err != nil {
		t.Fatalf("read error.log: %v", err)
	}
	if !strings.Contains(string(errLog), "to error file") {
		t.Errorf("error.log missing entry: %s", errLog)
	}
	if strings.Contains(string(errLog), "to info file") {
		t.Error("info entry leaked into error.log")
	}
}
