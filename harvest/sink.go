package harvest

import (
	"fmt"
	"io"
	"os"
)

// A Sink receives harvested entropy chunks. It is opened once before the
// loop starts and closed once when the loop stops, however it stopped.
type Sink interface {
	Open() error
	Write(chunk []byte) error
	Close() error
}

// FileSink writes chunks to standard output, or to Path when it is set.
// The path is opened in append mode so a pre-created FIFO reader is not
// disrupted and a regular file accumulates instead of truncating.
type FileSink struct {
	// Path is the destination; empty means standard output.
	Path string

	f *os.File
}

// Open acquires the destination handle. Opening twice is an error.
func (s *FileSink) Open() error {
	if s.f != nil {
		return fmt.Errorf("%w: sink already open", ErrOpenFailed)
	}
	if s.Path == "" {
		s.f = os.Stdout
		return nil
	}
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOpenFailed, s.Path, err)
	}
	s.f = f
	return nil
}

// Write hands one chunk to the destination. A short write means the
// downstream reader is gone; it is reported as ErrWriteFailed, never retried.
func (s *FileSink) Write(chunk []byte) error {
	if s.f == nil {
		return fmt.Errorf("%w: sink not open", ErrWriteFailed)
	}
	n, err := s.f.Write(chunk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if n < len(chunk) {
		return fmt.Errorf("%w: short write %d/%d: %v", ErrWriteFailed, n, len(chunk), io.ErrShortWrite)
	}
	return nil
}

// Close releases the destination. Standard output is left open for the
// process; anything else is synced and closed. Safe to call more than once.
func (s *FileSink) Close() error {
	f := s.f
	if f == nil {
		return nil
	}
	s.f = nil
	if f == os.Stdout {
		return nil
	}
	// Sync reports EINVAL on a FIFO; only the close result matters there.
	_ = f.Sync()
	return f.Close()
}
