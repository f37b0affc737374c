package bbusb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripStatusBytes(t *testing.T) {
	// One full 64-byte packet: 2 status bytes, 62 payload.
	transfer := make([]byte, 64)
	for i := 2; i < 64; i++ {
		transfer[i] = byte(i)
	}
	dst := make([]byte, 62)
	n := stripStatusBytes(dst, transfer, 64)
	assert.Equal(t, 62, n)
	assert.Equal(t, transfer[2:64], dst)
}

func TestStripStatusBytesSpansPackets(t *testing.T) {
	// Two packets of 8: each contributes 6 payload bytes.
	transfer := []byte{
		0x01, 0x60, 1, 2, 3, 4, 5, 6,
		0x01, 0x60, 7, 8, 9, 10, 11, 12,
	}
	dst := make([]byte, 12)
	n := stripStatusBytes(dst, transfer, 8)
	assert.Equal(t, 12, n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, dst)
}

func TestStripStatusBytesBoundedByDst(t *testing.T) {
	transfer := []byte{0x01, 0x60, 1, 2, 3, 4, 5, 6}
	dst := make([]byte, 3)
	n := stripStatusBytes(dst, transfer, 8)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{1, 2, 3}, dst)
}

func TestStripStatusBytesStatusOnly(t *testing.T) {
	// A bare status header carries no entropy.
	n := stripStatusBytes(make([]byte, 8), []byte{0x01, 0x60}, 64)
	assert.Equal(t, 0, n)
}

func TestRoundUpToMaxPacket(t *testing.T) {
	assert.Equal(t, 64, roundUpToMaxPacket(1, 64))
	assert.Equal(t, 64, roundUpToMaxPacket(64, 64))
	assert.Equal(t, 128, roundUpToMaxPacket(65, 64))
	assert.Equal(t, 7, roundUpToMaxPacket(7, 0))
}
