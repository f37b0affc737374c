//go:build windows

package diag

import (
	"errors"
	"io"
)

func syslogWriter(string) (io.Writer, error) {
	return nil, errors.New("detached logging requires a system log; not available on windows")
}
