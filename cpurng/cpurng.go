// Package cpurng reads 32-bit random words from the rdrand and rdseed CPU
// instructions and exposes them as a harvest.Source. The silicon occasionally
// reports no value ready through the carry flag; the source then sleeps
// briefly and retries, bounded, since there is no device handle to reopen.
package cpurng

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/Thiagojm/harvest_go_cli/harvest"
)

// WordSize is the bytes delivered per instruction execution. The output
// stream is always a whole number of words.
const WordSize = 4

// Instruction selects which random-number instruction the session executes.
type Instruction string

const (
	Rdrand Instruction = "rdrand"
	Rdseed Instruction = "rdseed"
)

// Validate checks whether in names a known instruction.
func (in Instruction) Validate() error {
	if in == Rdrand || in == Rdseed {
		return nil
	}
	return fmt.Errorf("invalid instruction: %q (allowed: rdrand, rdseed)", string(in))
}

// Info is the pre-flight capability report for this source family.
type Info struct {
	RdrandSupported bool
	RdseedSupported bool
}

// Query reports which instructions the host CPU supports.
func Query() Info {
	return Info{
		RdrandSupported: hasRdrand(),
		RdseedSupported: hasRdseed(),
	}
}

// Session executes one instruction variant. The zero value with an Instr is
// ready to Open. A Session is owned by a single goroutine.
type Session struct {
	// Instr selects rdrand or rdseed.
	Instr Instruction

	// RetrySleep is the pause before re-executing after the carry flag
	// reports no value ready. Zero means the default 1 ms. The value is a
	// tunable, not a documented property of the silicon.
	RetrySleep time.Duration

	// MaxAttempts bounds the executions per word, sleeps included. Zero
	// means the default of 1000.
	MaxAttempts int

	step   func() (uint32, bool)
	opened bool
}

var _ harvest.Source = (*Session)(nil)

const defaultMaxAttempts = 1000

// Open verifies the instruction is supported on this CPU. There is no device
// handle; open and close only gate the session state.
func (s *Session) Open() error {
	if err := s.Instr.Validate(); err != nil {
		return fmt.Errorf("%w: %v", harvest.ErrOpenFailed, err)
	}
	switch s.Instr {
	case Rdrand:
		if !hasRdrand() {
			return fmt.Errorf("%w: rdrand not supported on this CPU", harvest.ErrOpenFailed)
		}
		if s.step == nil {
			s.step = rdrand32
		}
	case Rdseed:
		if !hasRdseed() {
			return fmt.Errorf("%w: rdseed not supported on this CPU", harvest.ErrOpenFailed)
		}
		if s.step == nil {
			s.step = rdseed32
		}
	}
	s.opened = true
	return nil
}

// Read fills buf with whole random words. len(buf) must be a multiple of
// WordSize. Exhausting the attempt bound on a word is reported as transient.
func (s *Session) Read(buf []byte) (int, error) {
	if !s.opened {
		return 0, fmt.Errorf("%w: session not open", harvest.ErrSourceUnavailable)
	}
	if len(buf)%WordSize != 0 {
		return 0, fmt.Errorf("%w: buffer of %d bytes is not whole words", harvest.ErrConfig, len(buf))
	}
	sleep := s.RetrySleep
	if sleep <= 0 {
		sleep = time.Millisecond
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	for off := 0; off < len(buf); off += WordSize {
		word, ok := s.nextWord(sleep, maxAttempts)
		if !ok {
			return off, fmt.Errorf("%w: %s produced no value in %d attempts",
				harvest.ErrSourceUnavailable, s.Instr, maxAttempts)
		}
		binary.LittleEndian.PutUint32(buf[off:], word)
	}
	return len(buf), nil
}

func (s *Session) nextWord(sleep time.Duration, maxAttempts int) (uint32, bool) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(sleep)
		}
		if word, ok := s.step(); ok {
			return word, true
		}
	}
	return 0, false
}

// Close marks the session closed. Safe to call on a never-opened session.
func (s *Session) Close() error {
	s.opened = false
	return nil
}

func (s *Session) String() string {
	return fmt.Sprintf("cpu %s", s.Instr)
}
