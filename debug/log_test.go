package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestUseWriterCategories(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf, true)
	defer Disable()

	Log("voice", "stole channel %d", 3)
	Warn("midi", "device disappeared", "device", "kbd")

	out := buf.String()
	if !strings.Contains(out, "stole channel 3") || !strings.Contains(out, "cat=voice") {
		t.Fatalf("debug record missing: %q", out)
	}
	if !strings.Contains(out, "device=kbd") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestQuietByDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf, false)
	defer Disable()

	Log("seq", "layout clamp")
	if buf.Len() != 0 {
		t.Fatalf("debug records should be filtered at info level, got %q", buf.String())
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf, true)
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(5, "loop", "tick")
	}
	if got := strings.Count(buf.String(), "every 5"); got != 2 {
		t.Fatalf("expected 2 sampled records, got %d: %q", got, buf.String())
	}
}
