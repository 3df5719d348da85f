package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestContextHandlerKV(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newContextHandler(buf, formatKV, slog.LevelInfo)).With("component", "app")

	ctx := WithRID(Background(), BuildRID(42, 9, 7))
	ctx = WithUpdateMeta(ctx, 42, 7, 9)
	LogEvent(ctx, log, slog.LevelInfo, "test.event", slog.String("status", "ok"))

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=" + CompactRID("42:9:7"), "user_id=7", "chat_id=9"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %s", want, line)
		}
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
}

func TestContextHandlerJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newContextHandler(buf, formatJSON, slog.LevelInfo)).With("component", "shop.checkout")

	ctx := WithHandler(WithRID(Background(), "12:34:56"), "shop.buy")
	LogEvent(ctx, log, slog.LevelError, "checkout.failed",
		slog.String("err", "boom"),
		slog.Duration("took", 1500*time.Microsecond),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	checks := map[string]any{
		"level":     "ERROR",
		"component": "shop.checkout",
		"event":     "checkout.failed",
		"rid":       CompactRID("12:34:56"),
		"rid_full":  "12:34:56",
		"handler":   "shop.buy",
		"took_ms":   float64(2),
	}
	for k, want := range checks {
		if rec[k] != want {
			t.Fatalf("%s = %v, want %v", k, rec[k], want)
		}
	}
	if _, ok := rec["ts"]; !ok {
		t.Fatalf("expected ts in %v", rec)
	}
}

func TestContextHandlerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newContextHandler(buf, formatJSON, slog.LevelWarn))
	LogEvent(Background(), log, slog.LevelInfo, "dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

func TestCompactRID(t *testing.T) {
	cases := map[string]string{
		"35:36:0": "z.10.0",
		"bad":     "bad",
		"1:x:2":   "1:x:2",
		" 1:2:3 ": "1.2.3",
	}
	for in, want := range cases {
		if got := CompactRID(in); got != want {
			t.Fatalf("CompactRID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\td", 10); got != "abc\td" {
		t.Fatalf("unexpected sanitize result %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("unexpected limit result %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
	if num, den := parseRatioSpec("2/5"); num != 2 || den != 5 {
		t.Fatalf("parseRatioSpec = %d/%d", num, den)
	}
}
