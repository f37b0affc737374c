package truerng

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/Thiagojm/harvest_go_cli/harvest"
)

// Defaults for the serial link. TrueRNG models advertise a high baud rate;
// the OS clamps it if unsupported.
const (
	defaultBaudRate    = 3000000
	defaultReadTimeout = 10 * time.Second
)

// Session is an open connection to one TrueRNG unit. The zero value with a
// Unit index is ready to Open. A Session is owned by a single goroutine.
type Session struct {
	// Unit selects the Nth detected device.
	Unit int

	// ReadTimeout bounds one chunk read. Zero means the default 10s.
	ReadTimeout time.Duration

	port serial.Port
	name string
}

var _ harvest.Source = (*Session)(nil)

// Open locates the unit, opens its port, raises DTR and flushes stale input.
func (s *Session) Open() error {
	if s.port != nil {
		return fmt.Errorf("%w: session already open", harvest.ErrOpenFailed)
	}
	name, err := FindPort(s.Unit)
	if err != nil {
		return fmt.Errorf("%w: %v", harvest.ErrOpenFailed, err)
	}
	mode := &serial.Mode{
		BaudRate: defaultBaudRate,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", harvest.ErrOpenFailed, name, err)
	}
	_ = port.SetDTR(true)
	_ = port.SetReadTimeout(time.Second)
	// Stale buffered input is harmless; a flush failure is not fatal.
	_ = port.ResetInputBuffer()
	s.port = port
	s.name = name
	return nil
}

// Read fills buf with entropy bytes. The whole chunk must arrive before the
// deadline; a stalled or erroring transfer is reported as transient so the
// caller can retry once and then reopen.
func (s *Session) Read(buf []byte) (int, error) {
	if s.port == nil {
		return 0, fmt.Errorf("%w: session not open", harvest.ErrSourceUnavailable)
	}
	timeout := s.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	deadline := time.Now().Add(timeout)
	total := 0
	for total < len(buf) {
		if time.Now().After(deadline) {
			return total, fmt.Errorf("%w: %s: read %d/%d bytes before deadline",
				harvest.ErrSourceUnavailable, s.name, total, len(buf))
		}
		n, err := s.port.Read(buf[total:])
		if err != nil {
			return total, fmt.Errorf("%w: %s: %v", harvest.ErrSourceUnavailable, s.name, err)
		}
		total += n
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	return total, nil
}

// Close releases the port. A never-opened or already-closed session is a
// no-op.
func (s *Session) Close() error {
	if s.port == nil {
		return nil
	}
	port := s.port
	s.port = nil
	return port.Close()
}

func (s *Session) String() string {
	if s.name != "" {
		return fmt.Sprintf("trng unit %d (%s)", s.Unit, s.name)
	}
	return fmt.Sprintf("trng unit %d", s.Unit)
}
