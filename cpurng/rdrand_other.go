//go:build !amd64

package cpurng

// The random-number instructions exist only on amd64; on other architectures
// the capability query reports unsupported and Open fails.

func hasRdrand() bool { return false }

func hasRdseed() bool { return false }

func rdrand32() (uint32, bool) { return 0, false }

func rdseed32() (uint32, bool) { return 0, false }
