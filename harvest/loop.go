package harvest

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Loop states. The run starts in stateStarting and always passes through
// stateStopping before stateStopped, so the sink is closed and the final
// report emitted no matter how the run ended.
type state int

const (
	stateStarting state = iota
	stateSessionOpen
	stateReading
	stateStopping
	stateStopped
)

// Config assembles one harvesting run.
type Config struct {
	// Source is the entropy source capability; it is opened and, after
	// consecutive read failures, reopened by the loop.
	Source Source

	// Sink receives the chunks. It is opened once and closed once.
	Sink Sink

	// Flags carries the cooperative shutdown/report requests.
	Flags *Flags

	// Stats receives the run counters. Optional; allocated when nil.
	Stats *Stats

	// Chunk is the bytes per acquisition call. Must be positive; values
	// above MaxChunk are clamped. A zero chunk is a query-only invocation
	// and never reaches the loop.
	Chunk int

	// ReadRetries is how many immediate same-session retries a transient
	// read failure gets before the session is torn down. The default of 1
	// is the observed two-strikes policy for USB-class transfer hiccups;
	// it is a tunable, not a contract.
	ReadRetries int

	// Log receives diagnostics. Never mixed into the entropy stream.
	Log *zap.SugaredLogger

	// Debug additionally emits the counter line after every chunk.
	Debug bool
}

// Harvester is the acquisition loop: it pulls chunks from the source, pushes
// them to the sink, reacts to the flags and keeps the counters. Everything it
// owns is touched by the loop goroutine only.
type Harvester struct {
	src     Source
	sink    Sink
	flags   *Flags
	stats   *Stats
	chunk   int
	retries int
	log     *zap.SugaredLogger
	debug   bool

	sessionOpen bool
}

// New validates the configuration and builds a harvester.
func New(cfg Config) (*Harvester, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("%w: no source", ErrConfig)
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("%w: no sink", ErrConfig)
	}
	if cfg.Flags == nil {
		return nil, fmt.Errorf("%w: no flags", ErrConfig)
	}
	if cfg.Chunk <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrConfig, cfg.Chunk)
	}
	chunk := ClampChunk(cfg.Chunk)
	stats := cfg.Stats
	if stats == nil {
		stats = NewStats(chunk)
	}
	retries := cfg.ReadRetries
	if retries <= 0 {
		retries = 1
	}
	logger := cfg.Log
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Harvester{
		src:     cfg.Source,
		sink:    cfg.Sink,
		flags:   cfg.Flags,
		stats:   stats,
		chunk:   chunk,
		retries: retries,
		log:     logger,
		debug:   cfg.Debug,
	}, nil
}

// Stats exposes the run counters, e.g. for a final exit summary.
func (h *Harvester) Stats() *Stats {
	return h.stats
}

// Run drives the state machine until stateStopped and returns the fatal
// error that ended the run, or nil after a clean, signal-driven shutdown.
func (h *Harvester) Run() error {
	var runErr error
	buf := make([]byte, h.chunk)

	st := stateStarting
	for st != stateStopped {
		switch st {
		case stateStarting:
			if err := h.sink.Open(); err != nil {
				h.log.Errorf("open sink: %v", err)
				runErr = err
				st = stateStopping
				break
			}
			st = stateSessionOpen

		case stateSessionOpen:
			if h.flags.ShutdownRequested() {
				st = stateStopping
				break
			}
			if err := h.src.Open(); err != nil {
				// A persistently absent device should not spin the
				// process, so opens are not retried.
				h.log.Errorf("open %s: %v", h.src, err)
				runErr = err
				st = stateStopping
				break
			}
			h.sessionOpen = true
			h.stats.Opens.Inc()
			h.log.Debugf("%s: session open", h.src)
			st = stateReading

		case stateReading:
			if h.flags.ShutdownRequested() {
				st = stateStopping
				break
			}
			if h.flags.TakeReport() {
				h.log.Infof("%s", h.stats.Line())
			}
			st, runErr = h.readChunk(buf)

		case stateStopping:
			h.closeSession()
			if err := h.sink.Close(); err != nil {
				h.log.Errorf("close sink: %v", err)
			}
			h.log.Infof("%s", h.stats.Line())
			st = stateStopped
		}
	}
	return runErr
}

// readChunk performs one acquisition cycle: read with the bounded retry
// policy, then write. It returns the next state and, for a broken sink, the
// fatal error.
func (h *Harvester) readChunk(buf []byte) (state, error) {
	n, err := h.src.Read(buf)
	for try := 1; err != nil && errors.Is(err, ErrSourceUnavailable) && try <= h.retries; try++ {
		h.stats.Retries.Inc()
		h.log.Debugf("read %s: %v try=%d", h.src, err, try)
		n, err = h.src.Read(buf)
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrSourceUnavailable), errors.Is(err, ErrRetryExhausted):
		// The session is wedged. Tear it down and have a fresh one opened;
		// as long as the open succeeds, the run soldiers on.
		h.log.Warnf("read %s: %v (reopening)", h.src, err)
		h.closeSession()
		return stateSessionOpen, nil
	default:
		h.log.Errorf("read %s: %v", h.src, err)
		return stateStopping, err
	}

	h.stats.Reads.Inc()
	h.stats.Bytes.Add(n)
	if werr := h.sink.Write(buf[:n]); werr != nil {
		// Nothing is consuming the stream anymore; stop harvesting.
		h.log.Errorf("write: %v", werr)
		return stateStopping, werr
	}
	if h.debug {
		h.log.Infof("%s", h.stats.Line())
	}
	return stateReading, nil
}

func (h *Harvester) closeSession() {
	if !h.sessionOpen {
		return
	}
	h.sessionOpen = false
	if err := h.src.Close(); err != nil {
		h.log.Debugf("close %s: %v", h.src, err)
	}
}
