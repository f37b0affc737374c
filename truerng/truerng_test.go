package truerng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.bug.st/serial/enumerator"
)

func TestMatchesByProductPrefix(t *testing.T) {
	p := &enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, Product: "TrueRNGpro"}
	assert.True(t, matches(p))
}

func TestMatchesBySerialPrefix(t *testing.T) {
	p := &enumerator.PortDetails{Name: "COM5", IsUSB: true, SerialNumber: "TrueRNG-0231"}
	assert.True(t, matches(p))
}

func TestMatchesByVIDPID(t *testing.T) {
	p := &enumerator.PortDetails{Name: "/dev/ttyACM1", IsUSB: true, VID: "16d0", PID: "0aa0"}
	assert.True(t, matches(p))

	p = &enumerator.PortDetails{Name: "/dev/ttyACM1", IsUSB: true, VID: "04D8", PID: "F5FE"}
	assert.True(t, matches(p))
}

func TestDoesNotMatchOtherSerialDevices(t *testing.T) {
	for _, p := range []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, Product: "FT232R USB UART", VID: "0403", PID: "6001"},
		{Name: "/dev/ttyS0"},
		{Name: "COM3", IsUSB: true, VID: "16D0", PID: "FFFF"},
	} {
		assert.False(t, matches(p), "%q must not match", p.Name)
	}
}
