package log

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func captureOf(t *testing.T, events []Event) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	return &buf
}

func collect(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for ev, err := range r.Events() {
		if err != nil {
			t.Fatalf("Events: %v", err)
		}
		out = append(out, ev)
	}
	return out
}

func TestReaderFilters(t *testing.T) {
	events := sampleEvents()
	start := events[1].Timestamp

	layer := LayerChannel
	category := CategoryHandshake
	dir := DirectionOut

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"conn-1", "conn-1", "conn-2"}},
		{"connection", Filter{ConnectionID: "conn-2"}, []string{"conn-2"}},
		{"layer", Filter{Layer: &layer}, []string{"conn-1", "conn-2"}},
		{"category", Filter{Category: &category}, []string{"conn-1"}},
		{"direction", Filter{Direction: &dir}, []string{"conn-1"}},
		{"time start", Filter{TimeStart: &start}, []string{"conn-1", "conn-2"}},
		{"time end", Filter{TimeEnd: &start}, []string{"conn-1"}},
		{"server name", Filter{ServerName: "example.test"}, []string{"conn-1"}},
		{"errors only", Filter{ErrorsOnly: true}, []string{"conn-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewStreamReader(captureOf(t, events), tt.filter)
			got := collect(t, r)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i, ev := range got {
				if ev.ConnectionID != tt.want[i] {
					t.Errorf("event %d: ConnectionID = %q, want %q", i, ev.ConnectionID, tt.want[i])
				}
			}
		})
	}
}

func TestReaderNextEOF(t *testing.T) {
	r := NewStreamReader(&bytes.Buffer{}, Filter{})
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next on empty capture = %v, want io.EOF", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestReaderStopsOnCorruption(t *testing.T) {
	buf := captureOf(t, []Event{{Timestamp: time.Now(), ConnectionID: "ok"}})
	buf.Write([]byte{0xff, 0xff})

	r := NewStreamReader(buf, Filter{})
	var sawErr bool
	n := 0
	for _, err := range r.Events() {
		if err != nil {
			sawErr = true
			continue
		}
		n++
	}
	if n != 1 || !sawErr {
		t.Errorf("events = %d, error seen = %v", n, sawErr)
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	if _, err := NewReader("/nonexistent/capture.clog"); err == nil {
		t.Error("NewReader succeeded on a missing file")
	}
}
