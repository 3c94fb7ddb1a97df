// Package sink provides text output destinations for listener messages,
// mirroring the original tool's console/file output handlers.
package sink

import (
	"errors"
	"fmt"
	"os"
)

// ErrInvalidMode is returned by NewFileSink for an unrecognized Mode.
var ErrInvalidMode = errors.New("sink: invalid file sink mode")

// Sink is a one-line-at-a-time text output destination.
type Sink interface {
	Write(message string) error
}

// ConsoleSink writes each message to stdout.
type ConsoleSink struct{}

// NewConsoleSink returns a Sink that prints to stdout.
func NewConsoleSink() ConsoleSink { return ConsoleSink{} }

func (ConsoleSink) Write(message string) error {
	_, err := fmt.Println(message)
	return err
}

// Mode controls how FileSink treats a pre-existing file at its path.
type Mode int

const (
	// Append opens the file in append mode for every write.
	Append Mode = iota
	// Overwrite truncates the file on the first write, then appends.
	Overwrite
)

// FileSink writes each message as its own line to a file on disk.
type FileSink struct {
	path       string
	mode       Mode
	firstWrite bool
}

// NewFileSink returns a FileSink targeting path under the given Mode.
func NewFileSink(path string, mode Mode) (*FileSink, error) {
	if mode != Append && mode != Overwrite {
		return nil, fmt.Errorf("sink: mode %d: %w", mode, ErrInvalidMode)
	}
	return &FileSink{path: path, mode: mode, firstWrite: true}, nil
}

func (s *FileSink) Write(message string) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if s.mode == Overwrite && s.firstWrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		s.firstWrite = false
	}
	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("sink: open %s: %w", s.path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s\n", message); err != nil {
		return fmt.Errorf("sink: write %s: %w", s.path, err)
	}
	return nil
}
