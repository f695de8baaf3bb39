package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterHandshakeEvent(t *testing.T) {
	entry := logJSON(t, sampleEvents()[1])

	want := map[string]any{
		"msg":          "protocol",
		"conn_id":      "conn-1",
		"layer":        "CHANNEL",
		"category":     "HANDSHAKE",
		"server_name":  "example.test",
		"version":      "TLS 1.3",
		"cipher_suite": "TLS_AES_128_GCM_SHA256",
		"alpn":         "mqtt",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}
}

func TestSlogAdapterErrorEvent(t *testing.T) {
	entry := logJSON(t, sampleEvents()[2])

	if entry["error_code"] != float64(-0x2700) {
		t.Errorf("error_code: got %v", entry["error_code"])
	}
	if entry["verify_flags"] != float64(4) {
		t.Errorf("verify_flags: got %v", entry["verify_flags"])
	}
	if entry["error_context"] != "handshake" {
		t.Errorf("error_context: got %v", entry["error_context"])
	}
}

func TestSlogAdapterIOEvent(t *testing.T) {
	entry := logJSON(t, Event{ConnectionID: "c", IO: &IOEvent{Size: 10, Truncated: true}})
	if entry["size"] != float64(10) || entry["truncated"] != true {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestSlogAdapterSkipsWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{ConnectionID: "c"})
	if buf.Len() != 0 {
		t.Errorf("debug event written at info level: %s", buf.String())
	}
}
