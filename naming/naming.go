// Package naming defines the source family identifiers shared by the CLIs
// and the capture file naming convention used for auto-named output files.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Device identifies a source family.
// Allowed values: "trng" (serial hardware), "bitb" (USB hardware),
// "cpu" (random-number instruction), and "pseudo" (software RNG).
type Device string

const (
	DeviceTrueRNG    Device = "trng"
	DeviceBitBabbler Device = "bitb"
	DeviceCPU        Device = "cpu"
	DevicePseudo     Device = "pseudo"
)

// Validate checks whether d is one of the allowed device identifiers.
func (d Device) Validate() error {
	switch d {
	case DeviceTrueRNG, DeviceBitBabbler, DeviceCPU, DevicePseudo:
		return nil
	}
	return fmt.Errorf("invalid device: %q (allowed: trng, bitb, cpu, pseudo)", string(d))
}

// BuildCaptureName builds a capture filename using the convention
//
//	YYYYMMDDTHHMMSS_{device}_c{chunk}.bin
//
// where chunk is the chunk size in bytes.
func BuildCaptureName(now time.Time, device Device, chunkBytes int) (string, error) {
	if err := device.Validate(); err != nil {
		return "", err
	}
	if chunkBytes <= 0 {
		return "", errors.New("chunkBytes must be > 0")
	}
	stamp := now.Format("20060102T150405")
	return fmt.Sprintf("%s_%s_c%d.bin", stamp, string(device), chunkBytes), nil
}

// BuildCapturePath builds a capture path inside dir (dir may be empty).
func BuildCapturePath(dir string, now time.Time, device Device, chunkBytes int) (string, error) {
	name, err := BuildCaptureName(now, device, chunkBytes)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return name, nil
	}
	return filepath.Join(dir, name), nil
}

var chunkRe = regexp.MustCompile(`_c(\d+)\.`)

// ParseChunkSize extracts the chunk size in bytes from a capture file path.
func ParseChunkSize(path string) (int, error) {
	m := chunkRe.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0, fmt.Errorf("chunk size not found in file name: %s", filepath.Base(path))
	}
	return strconv.Atoi(m[1])
}
