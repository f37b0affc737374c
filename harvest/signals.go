package harvest

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/tevino/abool"
)

// Flags is the only channel between signal context and the acquisition loop:
// two cooperative booleans, set by the signal watcher and polled (and, for
// the report flag, cleared) by the loop once per iteration. The watcher does
// nothing but flag assignment, so no I/O or allocation happens on the signal
// path.
//
// SIGINT, SIGTERM and SIGPIPE request shutdown; SIGHUP requests a statistics
// report without stopping the stream.
type Flags struct {
	shutdown *abool.AtomicBool
	report   *abool.AtomicBool

	sigc chan os.Signal
}

// NewFlags returns a flag set with nothing requested yet.
func NewFlags() *Flags {
	return &Flags{
		shutdown: abool.New(),
		report:   abool.New(),
	}
}

// Install registers the signal handlers and starts the watcher. Must be
// called before the loop starts so a registration problem surfaces eagerly.
func (f *Flags) Install() {
	f.sigc = make(chan os.Signal, 4)
	signal.Notify(f.sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE, syscall.SIGHUP)
	go func() {
		for sig := range f.sigc {
			f.handle(sig)
		}
	}()
}

// Uninstall stops signal delivery and the watcher.
func (f *Flags) Uninstall() {
	if f.sigc == nil {
		return
	}
	signal.Stop(f.sigc)
	close(f.sigc)
	f.sigc = nil
}

func (f *Flags) handle(sig os.Signal) {
	switch sig {
	case syscall.SIGHUP:
		f.report.Set()
	default:
		f.shutdown.Set()
	}
}

// RequestShutdown sets the shutdown flag, as if an interrupt had arrived.
func (f *Flags) RequestShutdown() {
	f.shutdown.Set()
}

// RequestReport sets the report flag, as if a SIGHUP had arrived.
func (f *Flags) RequestReport() {
	f.report.Set()
}

// ShutdownRequested reports whether the loop should stop. The flag stays set;
// the loop only exits once.
func (f *Flags) ShutdownRequested() bool {
	return f.shutdown.IsSet()
}

// TakeReport consumes a pending report request. It returns true at most once
// per request.
func (f *Flags) TakeReport() bool {
	return f.report.SetToIf(true, false)
}
