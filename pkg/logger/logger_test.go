package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			SetLevel(tt.in)
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("SetLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestForItemAddsFields(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = zerolog.New(&buf)
	defer func() { Logger = prev }()

	ForItem(context.Background(), "school-1", "item-1").Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if entry["tenant_id"] != "school-1" || entry["item_id"] != "item-1" {
		t.Errorf("unexpected fields: %v", entry)
	}
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id must be absent without a span")
	}
}

func TestWithContextCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = zerolog.New(&buf)
	defer func() { Logger = prev }()

	ctx := WithRequestID(context.Background(), "req-42")
	if got := RequestID(ctx); got != "req-42" {
		t.Fatalf("expected req-42, got %q", got)
	}
	Warn(ctx).Msg("slow")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-42" || entry["level"] != "warn" {
		t.Errorf("unexpected fields: %v", entry)
	}
	if RequestID(context.Background()) != "" {
		t.Error("expected empty request id without WithRequestID")
	}
}
