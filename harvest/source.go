package harvest

import "errors"

// MaxChunk is the largest chunk size accepted per acquisition call. Vendor
// libraries for USB entropy devices cap a single transfer at 16 MiB, so the
// same ceiling applies uniformly. Larger requests are clamped, not rejected.
const MaxChunk = 16 * 1024 * 1024

// Errors classified at the component boundaries. Device packages wrap their
// native failures into one of these so the acquisition loop never has to know
// vendor or instruction specifics.
var (
	// ErrConfig marks an invalid configuration value, detected before any
	// loop state is entered.
	ErrConfig = errors.New("invalid configuration")

	// ErrOpenFailed means the source or sink could not be opened: device
	// absent, busy, or the instruction unsupported on this CPU.
	ErrOpenFailed = errors.New("open failed")

	// ErrSourceUnavailable marks a transient read failure. The loop retries
	// the read once before giving up on the session.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRetryExhausted means consecutive reads failed and the session must
	// be closed and reopened before reading again.
	ErrRetryExhausted = errors.New("read retries exhausted")

	// ErrWriteFailed means the sink rejected a chunk or accepted it only
	// partially. A broken sink is not retried.
	ErrWriteFailed = errors.New("sink write failed")
)

// A Source is an open-read-close capability over one entropy source. A
// session reads fixed-size chunks; its chunk size never changes while open.
//
// Read fills buf completely or fails. A failure wrapping ErrSourceUnavailable
// is transient: the caller may retry the read on the same session. Any other
// failure, or a retry that fails again, requires Close followed by a fresh
// Open. Close is a no-op on a never-opened or already-closed session.
type Source interface {
	Open() error
	Read(buf []byte) (int, error)
	Close() error

	// String identifies the source for diagnostics, e.g. "trng unit 0".
	String() string
}

// ClampChunk bounds a requested chunk size to the allowed maximum.
func ClampChunk(n int) int {
	if n > MaxChunk {
		return MaxChunk
	}
	return n
}
