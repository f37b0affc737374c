// Package truerng detects and reads TrueRNG-class USB entropy devices that
// present themselves as serial (COM) ports. The device is exposed as a
// harvest.Source: open the Nth detected unit, read exact chunks under a
// deadline, close and reopen when a transfer wedges.
package truerng
