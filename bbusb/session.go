package bbusb

import (
	"fmt"

	"github.com/Thiagojm/harvest_go_cli/harvest"
)

// Session is an open connection to one BitBabbler unit. The zero value with
// a Unit index is ready to Open. A Session is owned by a single goroutine.
type Session struct {
	// Unit selects the Nth device on the bus.
	Unit int

	// Bitrate is the MPSSE clock in Hz; 0 selects the vendor default.
	Bitrate uint

	// LatencyMs is the FTDI latency timer; 0 selects the default 1 ms.
	LatencyMs uint8

	dev *device
}

var _ harvest.Source = (*Session)(nil)

// Open claims the unit and programs its MPSSE engine.
func (s *Session) Open() error {
	if s.dev != nil {
		return fmt.Errorf("%w: session already open", harvest.ErrOpenFailed)
	}
	dev, err := openUnit(s.Unit, s.Bitrate, s.LatencyMs)
	if err != nil {
		return fmt.Errorf("%w: %v", harvest.ErrOpenFailed, err)
	}
	s.dev = dev
	return nil
}

// Read fills buf with entropy. USB transfer hiccups are reported as
// transient; the caller retries once on the same session and reopens after
// a second failure.
func (s *Session) Read(buf []byte) (int, error) {
	if s.dev == nil {
		return 0, fmt.Errorf("%w: session not open", harvest.ErrSourceUnavailable)
	}
	n, err := s.dev.readRandom(buf)
	if err != nil {
		return n, fmt.Errorf("%w: unit %d: %v", harvest.ErrSourceUnavailable, s.Unit, err)
	}
	if n < len(buf) {
		return n, fmt.Errorf("%w: unit %d: short transfer %d/%d", harvest.ErrSourceUnavailable, s.Unit, n, len(buf))
	}
	return n, nil
}

// Close releases the USB handles. A never-opened or already-closed session
// is a no-op.
func (s *Session) Close() error {
	if s.dev == nil {
		return nil
	}
	dev := s.dev
	s.dev = nil
	dev.close()
	return nil
}

func (s *Session) String() string {
	return fmt.Sprintf("bitb unit %d", s.Unit)
}
