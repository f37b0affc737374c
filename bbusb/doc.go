// Package bbusb drives BitBabbler-class FTDI entropy devices over libusb via
// gousb. It initializes the FTDI MPSSE engine and reads raw entropy through
// the bulk endpoints, exposing the device as a harvest.Source session and a
// pre-flight query of per-unit identity and power descriptors.
package bbusb
