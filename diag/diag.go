// Package diag builds the diagnostic logger for the harvester tools. All
// diagnostics go to standard error, or to the system log when running
// detached, and never to standard output, which carries the entropy stream.
package diag

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the diagnostic routing and verbosity.
type Options struct {
	// Detached routes diagnostics to the system log instead of stderr.
	Detached bool

	// Verbose enables debug-level detail (per-retry, per-session lines).
	Verbose bool

	// Ident is the system log identifier used when detached.
	Ident string
}

// New builds a SugaredLogger per the options. Callers must Sync it on exit.
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "" // syslog stamps lines itself; stderr stays terse

	var ws zapcore.WriteSyncer
	if opts.Detached {
		w, err := syslogWriter(opts.Ident)
		if err != nil {
			return nil, err
		}
		ws = zapcore.AddSync(w)
	} else {
		ws = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level)
	return zap.New(core).Sugar(), nil
}
