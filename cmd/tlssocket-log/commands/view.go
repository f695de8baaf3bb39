package commands

import (
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mash-protocol/tlssocket/pkg/cert"
	"github.com/mash-protocol/tlssocket/pkg/log"
)

// RunView prints matching events in human-readable form.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [conn:%s] %-5s %s %s\n",
		ts, shortenConnID(event.ConnectionID), event.Direction, event.Layer, event.Category)

	if event.ServerName != "" && event.Handshake != nil {
		fmt.Fprintf(w, "  Server: %s (%s)\n", event.ServerName, event.RemoteAddr)
	}

	switch {
	case event.IO != nil:
		formatIODetails(w, event.IO)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Handshake != nil:
		formatHandshakeDetails(w, event.Handshake)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func formatIODetails(w io.Writer, ev *log.IOEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", ev.Size)
	if len(ev.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(ev.Data))
		if ev.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatHandshakeDetails(w io.Writer, hs *log.HandshakeEvent) {
	fmt.Fprintf(w, "  Version: %s\n", tls.VersionName(hs.Version))
	fmt.Fprintf(w, "  Cipher: %s\n", tls.CipherSuiteName(hs.CipherSuite))
	if hs.ALPN != "" {
		fmt.Fprintf(w, "  ALPN: %s\n", hs.ALPN)
	}
	if hs.PeerSubject != "" {
		fmt.Fprintf(w, "  Peer: %s\n", hs.PeerSubject)
		fmt.Fprintf(w, "  Issuer: %s\n", hs.PeerIssuer)
	}
	if hs.Resumed {
		fmt.Fprintln(w, "  Resumed: yes")
	}
	fmt.Fprintf(w, "  Duration: %s\n", formatDuration(hs.Duration))
}

func formatErrorDetails(w io.Writer, ev *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", ev.Layer)
	fmt.Fprintf(w, "  Message: %s\n", ev.Message)
	if ev.Code != nil {
		fmt.Fprintf(w, "  Code: %d (-0x%04x)\n", *ev.Code, -*ev.Code)
	}
	if ev.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", ev.Context)
	}
	if ev.VerifyFlags != 0 {
		fmt.Fprintf(w, "  Verify flags: 0x%04x\n", ev.VerifyFlags)
		fmt.Fprintf(w, "%s\n", indent(cert.VerifyFlags(ev.VerifyFlags).String(), "    "))
	}
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
