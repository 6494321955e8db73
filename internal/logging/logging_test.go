package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupWriterHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter("warn", &buf)

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line emitted at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("warn line missing")
	}
}

func TestSetupWriterFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter("chatty", &buf)

	logger.Debug("hidden")
	logger.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line emitted at fallback level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("info line missing")
	}
}
