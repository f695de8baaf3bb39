package commands

import (
	"fmt"
	"io"

	"github.com/mash-protocol/tlssocket/pkg/log"
)

// RunFilter copies matching events from path into a new capture file and
// reports how many were written.
func RunFilter(path, output string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}
	if n := logger.Dropped(); n > 0 {
		return fmt.Errorf("failed to write %d events", n)
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}
