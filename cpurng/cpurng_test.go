package cpurng

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagojm/harvest_go_cli/harvest"
)

// fakeStep plays back a sequence of (word, carry) results.
type fakeStep struct {
	words []uint32
	fails []bool
	calls int
}

func (f *fakeStep) step() (uint32, bool) {
	idx := f.calls
	f.calls++
	if idx < len(f.fails) && f.fails[idx] {
		return 0, false
	}
	if idx < len(f.words) {
		return f.words[idx], true
	}
	return 0xCAFEBEEF, true
}

func newFakeSession(t *testing.T, f *fakeStep) *Session {
	t.Helper()
	s := &Session{Instr: Rdrand, RetrySleep: time.Microsecond, step: f.step}
	s.opened = true
	return s
}

func TestReadFillsWholeWords(t *testing.T) {
	f := &fakeStep{words: []uint32{0x01020304, 0x05060708}}
	s := newFakeSession(t, f)

	buf := make([]byte, 8)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, uint32(0x01020304), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(0x05060708), binary.LittleEndian.Uint32(buf[4:8]))
}

func TestReadRetriesOnCarryClear(t *testing.T) {
	// Two dry executions before the word arrives.
	f := &fakeStep{words: []uint32{0, 0, 0xDEADC0DE}, fails: []bool{true, true, false}}
	s := newFakeSession(t, f)

	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, uint32(0xDEADC0DE), binary.LittleEndian.Uint32(buf))
	assert.Equal(t, 3, f.calls)
}

func TestReadExhaustsAttempts(t *testing.T) {
	fails := make([]bool, 64)
	for i := range fails {
		fails[i] = true
	}
	f := &fakeStep{fails: fails}
	s := newFakeSession(t, f)
	s.MaxAttempts = 5

	_, err := s.Read(make([]byte, 4))
	require.ErrorIs(t, err, harvest.ErrSourceUnavailable)
	assert.Equal(t, 5, f.calls)
}

func TestReadRejectsPartialWords(t *testing.T) {
	s := newFakeSession(t, &fakeStep{})
	_, err := s.Read(make([]byte, 6))
	assert.ErrorIs(t, err, harvest.ErrConfig)
}

func TestReadRequiresOpen(t *testing.T) {
	s := &Session{Instr: Rdrand}
	_, err := s.Read(make([]byte, 4))
	assert.ErrorIs(t, err, harvest.ErrSourceUnavailable)
}

func TestInstructionValidate(t *testing.T) {
	assert.NoError(t, Rdrand.Validate())
	assert.NoError(t, Rdseed.Validate())
	assert.Error(t, Instruction("rdmsr").Validate())
}

func TestOpenUnsupportedInstr(t *testing.T) {
	s := &Session{Instr: Instruction("bogus")}
	assert.ErrorIs(t, s.Open(), harvest.ErrOpenFailed)
}

func TestOpenMatchesQuery(t *testing.T) {
	info := Query()
	s := &Session{Instr: Rdrand}
	err := s.Open()
	if info.RdrandSupported {
		assert.NoError(t, err)
		assert.NoError(t, s.Close())
	} else {
		assert.ErrorIs(t, err, harvest.ErrOpenFailed)
	}
}
