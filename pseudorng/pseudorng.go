// Package pseudorng is a software stand-in for the hardware sources: always
// present, backed by crypto/rand, with an optional deterministic seed for
// reproducible streams. It is useful for exercising the harvesting pipeline
// on machines without an entropy device.
package pseudorng

import (
	crand "crypto/rand"
	"fmt"
	mrand "math/rand/v2"

	"github.com/Thiagojm/harvest_go_cli/harvest"
)

// Detect always succeeds; a software RNG is always available.
func Detect() (bool, error) { return true, nil }

// Session produces pseudorandom chunks. The zero value reads from
// crypto/rand; a non-zero Seed switches to a deterministic generator.
type Session struct {
	// Seed, when non-zero, makes the stream reproducible.
	Seed uint64

	rng    *mrand.ChaCha8
	opened bool
}

var _ harvest.Source = (*Session)(nil)

// Open prepares the generator.
func (s *Session) Open() error {
	if s.Seed != 0 {
		var key [32]byte
		for i := 0; i < len(key); i += 8 {
			v := s.Seed + uint64(i)
			for j := 0; j < 8; j++ {
				key[i+j] = byte(v >> (8 * j))
			}
		}
		s.rng = mrand.NewChaCha8(key)
	}
	s.opened = true
	return nil
}

// Read fills buf with pseudorandom bytes. It never fails transiently.
func (s *Session) Read(buf []byte) (int, error) {
	if !s.opened {
		return 0, fmt.Errorf("%w: session not open", harvest.ErrSourceUnavailable)
	}
	if s.rng != nil {
		return s.rng.Read(buf)
	}
	if _, err := crand.Read(buf); err != nil {
		return 0, fmt.Errorf("%w: %v", harvest.ErrSourceUnavailable, err)
	}
	return len(buf), nil
}

// Close marks the session closed. Safe to call on a never-opened session.
func (s *Session) Close() error {
	s.opened = false
	return nil
}

func (s *Session) String() string {
	if s.Seed != 0 {
		return fmt.Sprintf("pseudo seed %d", s.Seed)
	}
	return "pseudo"
}
