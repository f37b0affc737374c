// detect scans every supported entropy source family and prints what it
// finds: per-family unit counts and, for hardware units, identity and power
// details. It never touches a device beyond reading descriptors.
package main

import (
	"fmt"
	"os"

	"github.com/Thiagojm/harvest_go_cli/bbusb"
	"github.com/Thiagojm/harvest_go_cli/cpurng"
	"github.com/Thiagojm/harvest_go_cli/truerng"
)

func main() {
	exit := 0

	tunits, err := truerng.Enumerate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "trng: %v\n", err)
		exit = 1
	}
	fmt.Printf("trng: %d device(s)\n", len(tunits))
	for i, u := range tunits {
		fmt.Printf("  unit %d:\n", i)
		fmt.Printf("    port:   %s\n", u.Port)
		if u.Product != "" {
			fmt.Printf("    product: %s\n", u.Product)
		}
		if u.SerialNumber != "" {
			fmt.Printf("    serial:  %s\n", u.SerialNumber)
		}
		if u.IsUSB {
			fmt.Printf("    usb:     %s:%s\n", u.VID, u.PID)
		}
	}

	bunits, err := bbusb.Enumerate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bitb: %v\n", err)
		exit = 1
	}
	fmt.Printf("bitb: %d device(s)\n", len(bunits))
	for _, u := range bunits {
		fmt.Printf("  unit %d:\n", u.Unit)
		fmt.Printf("    bus:          %d addr %d\n", u.Bus, u.Address)
		if u.SerialNumber != "" {
			fmt.Printf("    serial:       %s\n", u.SerialNumber)
		}
		if u.Manufacturer != "" {
			fmt.Printf("    manufacturer: %s\n", u.Manufacturer)
		}
		if u.Product != "" {
			fmt.Printf("    product:      %s\n", u.Product)
		}
		fmt.Printf("    power:        %dmA self-powered=%v\n", u.MaxPowerMilliAmps, u.SelfPowered)
		fmt.Printf("    modules:      0x%08x\n", u.InterfaceMask)
	}

	info := cpurng.Query()
	fmt.Printf("cpu: rdrand=%v rdseed=%v\n", info.RdrandSupported, info.RdseedSupported)

	os.Exit(exit)
}
