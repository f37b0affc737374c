//go:build !windows

package diag

import (
	"io"
	"log/syslog"
)

func syslogWriter(ident string) (io.Writer, error) {
	if ident == "" {
		ident = "harvest"
	}
	return syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, ident)
}
