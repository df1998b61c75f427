//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"vm-provisioning-bot/internal/config"
)

func TestWithAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter(config.LogConfig{Level: "debug", Format: "json"}, false, &buf)

	ctx := WithUserID(WithTraceID(context.Background(), "trace-1"), "user-1")
	With(ctx, base).Info().Msg("turn")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if entry["trace_id"] != "trace-1" {
		t.Errorf("expected trace_id trace-1, got %v", entry["trace_id"])
	}
	if entry["user_id"] != "user-1" {
		t.Errorf("expected user_id user-1, got %v", entry["user_id"])
	}
	if TraceID(ctx) != "trace-1" {
		t.Errorf("TraceID returned %q", TraceID(ctx))
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter(config.LogConfig{Level: "warn"}, false, &buf)
	base.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level, got %q", buf.String())
	}
	base.Warn().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("warn should be written")
	}
}

func TestRedact(t *testing.T) {
	cases := []struct {
		in   string
		dev  bool
		want string
	}{
		{"rg1", false, "***"},
		{"production-group", false, "prod...up"},
		{"production-group", true, "production-group"},
		{"máquinas-ñandú", false, "máqu...dú"},
	}
	for _, c := range cases {
		if got := Redact(c.in, c.dev); got != c.want {
			t.Errorf("Redact(%q, %v) = %q, want %q", c.in, c.dev, got, c.want)
		}
	}
}
