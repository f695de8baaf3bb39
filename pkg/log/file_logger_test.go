package log

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.clog")

	for i := 0; i < 2; i++ {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger: %v", err)
		}
		logger.Log(Event{Timestamp: time.Now(), ConnectionID: "conn"})
		if err := logger.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	count := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		count++
	}
	if count != 2 {
		t.Errorf("got %d events, want 2", count)
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStreamLogger(nopCloser{&buf})

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	logger.Log(Event{ConnectionID: "late"})
	if buf.Len() != 0 {
		t.Error("Log after Close wrote data")
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStreamLogger(nopCloser{&buf})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{ConnectionID: "conn", IO: &IOEvent{Size: j}})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	r := NewStreamReader(&buf, Filter{})
	count := 0
	for _, err := range r.Events() {
		if err != nil {
			t.Fatalf("Events: %v", err)
		}
		count++
	}
	if count != 200 {
		t.Errorf("got %d events, want 200", count)
	}
	if logger.Dropped() != 0 {
		t.Errorf("Dropped = %d", logger.Dropped())
	}
}

func TestNewFileLoggerBadPath(t *testing.T) {
	_, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x.clog"))
	if !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist", err)
	}
}
