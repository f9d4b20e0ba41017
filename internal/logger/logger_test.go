package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", false)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Info().Msg("dropped")
	log.Warn().Str("meetingId", "m1").Msg("kept")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "kept" || entry["meetingId"] != "m1" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestReportFailureNamesService(t *testing.T) {
	var buf bytes.Buffer
	ReportFailure(&buf, errors.New("open config/config.yaml: no such file or directory"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["service"] != ServiceName || entry["level"] != "fatal" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["error"] != "open config/config.yaml: no such file or directory" {
		t.Fatalf("expected the error in the entry, got %v", entry["error"])
	}
}
