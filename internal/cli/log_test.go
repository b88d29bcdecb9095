package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	// Test that it can log
	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	time.Sleep(10 * time.Millisecond)
	prog.done("Checked 713 anchors")

	out := buf.String()
	if !strings.Contains(out, "Checked 713 anchors (") {
		t.Errorf("progress output = %q, want message followed by elapsed time", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "ms)") {
		t.Errorf("progress output = %q, want elapsed time rounded to milliseconds", out)
	}
}

func TestSweepLogsCheckedAnchors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	path := writeScenario(t, "menu.toml", menuScenario)

	// 8 columns of 750px and 6 rows of 580px at a step of 100
	if _, err := execute(t, c, "sweep", "--step", "100", path); err != nil && !errors.Is(err, errSweepFailed) {
		t.Fatalf("sweep error = %v", err)
	}
	if !strings.Contains(buf.String(), "Checked 48 anchors") {
		t.Errorf("log output = %q, want the anchor count", buf.String())
	}
}
