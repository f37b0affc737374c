package naming

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceValidate(t *testing.T) {
	for _, d := range []Device{DeviceTrueRNG, DeviceBitBabbler, DeviceCPU, DevicePseudo} {
		assert.NoError(t, d.Validate())
	}
	assert.Error(t, Device("quantum").Validate())
	assert.Error(t, Device("").Validate())
}

func TestBuildCaptureName(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	name, err := BuildCaptureName(now, DeviceTrueRNG, 512)
	require.NoError(t, err)
	assert.Equal(t, "20250314T150926_trng_c512.bin", name)

	_, err = BuildCaptureName(now, Device("nope"), 512)
	assert.Error(t, err)
	_, err = BuildCaptureName(now, DeviceCPU, 0)
	assert.Error(t, err)
}

func TestBuildCapturePath(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	p, err := BuildCapturePath("data", now, DeviceCPU, 4)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "20250314T150926_cpu_c4.bin"), p)

	p, err = BuildCapturePath("", now, DeviceCPU, 4)
	require.NoError(t, err)
	assert.Equal(t, "20250314T150926_cpu_c4.bin", p)
}

func TestParseChunkSize(t *testing.T) {
	n, err := ParseChunkSize("data/20250314T150926_trng_c512.bin")
	require.NoError(t, err)
	assert.Equal(t, 512, n)

	_, err = ParseChunkSize("random.dat")
	assert.Error(t, err)
}

func TestNameRoundTrip(t *testing.T) {
	name, err := BuildCaptureName(time.Now(), DeviceBitBabbler, 4096)
	require.NoError(t, err)
	n, err := ParseChunkSize(name)
	require.NoError(t, err)
	assert.Equal(t, 4096, n)
}
