//go:build amd64

package cpurng

import "golang.org/x/sys/cpu"

func hasRdrand() bool { return cpu.X86.HasRDRAND }

func hasRdseed() bool { return cpu.X86.HasRDSEED }

// Implemented in rdrand_amd64.s. Each returns one 32-bit word and the carry
// flag: false means the instruction had no value ready.

func rdrand32() (word uint32, ok bool)

func rdseed32() (word uint32, ok bool)
