package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "json"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := ContextWithRequestID(context.Background(), "req-1")
	Get().Named("dataset").Info(ctx, "fetched", Int("satellites", 3), Bool("forced", true))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "fetched" {
		t.Errorf("msg = %v, want fetched", rec["msg"])
	}
	if rec["component"] != "dataset" {
		t.Errorf("component = %v, want dataset", rec["component"])
	}
	if rec["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", rec["request_id"])
	}
	if rec["satellites"] != float64(3) {
		t.Errorf("satellites = %v, want 3", rec["satellites"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "text"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("SetLevelString: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	Get().Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
	Get().Warn(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Error("warn record missing")
	}
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInitWithWriterRejectsUnknownFormat(t *testing.T) {
	if err := InitWithWriter(&bytes.Buffer{}, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("request id %q is not a uuid: %v", id, err)
	}
	again, id2 := EnsureRequestID(ctx)
	if id2 != id || RequestIDFromContext(again) != id {
		t.Errorf("existing request id not reused: %q vs %q", id2, id)
	}
}

func TestNoop(t *testing.T) {
	l := Noop().Named("x").With(String("k", "v"))
	l.Info(context.Background(), "ignored")
}
