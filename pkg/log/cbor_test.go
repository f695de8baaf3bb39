package log

import (
	"bytes"
	"reflect"
	"testing"
	"time"
)

func sampleEvents() []Event {
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	code := -0x2700
	return []Event{
		{
			Timestamp:    now,
			ConnectionID: "conn-1",
			Direction:    DirectionOut,
			Layer:        LayerTransport,
			Category:     CategoryIO,
			RemoteAddr:   "192.0.2.1:8883",
			IO:           &IOEvent{Size: 3, Data: []byte{0x16, 0x03, 0x01}},
		},
		{
			Timestamp:    now.Add(time.Millisecond),
			ConnectionID: "conn-1",
			Direction:    DirectionLocal,
			Layer:        LayerChannel,
			Category:     CategoryHandshake,
			ServerName:   "example.test",
			Handshake: &HandshakeEvent{
				Version:     0x0304,
				CipherSuite: 0x1301,
				ALPN:        "mqtt",
				PeerSubject: "CN=example.test",
				Duration:    42 * time.Millisecond,
			},
		},
		{
			Timestamp:    now.Add(2 * time.Millisecond),
			ConnectionID: "conn-2",
			Direction:    DirectionLocal,
			Layer:        LayerChannel,
			Category:     CategoryError,
			Error: &ErrorEventData{
				Layer:       LayerChannel,
				Message:     "certificate verification failed",
				Code:        &code,
				Context:     "handshake",
				VerifyFlags: 0x04,
			},
		},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	for _, want := range sampleEvents() {
		data, err := EncodeEvent(want)
		if err != nil {
			t.Fatalf("EncodeEvent: %v", err)
		}
		got, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
		}
		got.Timestamp = want.Timestamp
		if !reflect.DeepEqual(got, want) {
			t.Errorf("decoded event = %+v, want %+v", got, want)
		}
	}
}

func TestEncodeUsesIntegerKeys(t *testing.T) {
	data, err := EncodeEvent(Event{ConnectionID: "c"})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	if bytes.Contains(data, []byte("ConnectionID")) {
		t.Error("encoded event contains field names")
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("DecodeEvent accepted garbage")
	}
}
