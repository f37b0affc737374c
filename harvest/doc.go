// Package harvest contains the shared core of the entropy harvester tools:
// the Source and Sink contracts, the cooperative signal flags, the runtime
// counters, and the acquisition loop that ties them together. The per-device
// packages (truerng, bbusb, cpurng, pseudorng) plug into this loop through
// the Source interface, so the loop itself is source-agnostic.
package harvest
