package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitWriter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Config{Level: "info", Format: "json"}, &buf)
	defer Init(Config{Level: "info", Format: "json"})

	Info().Str("key", "value").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestInitWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Config{Level: "warn", Format: "json"}, &buf)
	defer Init(Config{Level: "info", Format: "json"})

	Info().Msg("suppressed")
	Warn().Msg("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "emitted") {
		t.Error("warn should pass at warn level")
	}
}

func TestInitWriter_BadLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Config{Level: "nonsense", Format: "json"}, &buf)
	defer Init(Config{Level: "info", Format: "json"})

	Info().Msg("still works")
	if !strings.Contains(buf.String(), "still works") {
		t.Error("unknown level should fall back to info")
	}
}
