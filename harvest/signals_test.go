package harvest

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalMapping(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE} {
		f := NewFlags()
		f.handle(sig)
		assert.True(t, f.ShutdownRequested(), "%v must request shutdown", sig)
		assert.False(t, f.TakeReport(), "%v must not request a report", sig)
	}

	f := NewFlags()
	f.handle(syscall.SIGHUP)
	assert.False(t, f.ShutdownRequested(), "SIGHUP must not stop the stream")
	assert.True(t, f.TakeReport())
}

func TestTakeReportConsumesTheRequest(t *testing.T) {
	f := NewFlags()
	assert.False(t, f.TakeReport())

	f.RequestReport()
	assert.True(t, f.TakeReport())
	assert.False(t, f.TakeReport(), "a request is consumed exactly once")
}

func TestInstallUninstall(t *testing.T) {
	f := NewFlags()
	f.Install()
	f.Uninstall()
	f.Uninstall() // idempotent
}
