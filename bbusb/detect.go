package bbusb

import (
	"github.com/google/gousb"
)

// DeviceInfo describes one detected BitBabbler unit, for the pre-flight
// device query.
type DeviceInfo struct {
	Unit         int
	Bus          int
	Address      int
	SerialNumber string
	Manufacturer string
	Product      string

	// SelfPowered and MaxPowerMilliAmps come from the active configuration
	// descriptor.
	SelfPowered       bool
	MaxPowerMilliAmps int

	// InterfaceMask is a bitmap of the interface numbers the configuration
	// exposes.
	InterfaceMask uint32
}

// Detect returns whether at least one BitBabbler is present, and the
// detected units.
func Detect() (bool, []DeviceInfo, error) {
	units, err := Enumerate()
	if err != nil {
		return false, nil, err
	}
	return len(units) > 0, units, nil
}

// Enumerate lists every BitBabbler on the bus. A unit's index in the
// returned slice is its unit number for Session. String descriptor reads can
// fail on a busy device; those fields are then left empty rather than
// failing the query.
func Enumerate() ([]DeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(ftdiVendorID) && desc.Product == gousb.ID(bbProductID)
	})
	defer func() {
		for _, d := range devs {
			d.Close()
		}
	}()
	if err != nil {
		return nil, err
	}

	units := make([]DeviceInfo, 0, len(devs))
	for i, d := range devs {
		info := DeviceInfo{
			Unit:    i,
			Bus:     d.Desc.Bus,
			Address: d.Desc.Address,
		}
		if s, err := d.SerialNumber(); err == nil {
			info.SerialNumber = s
		}
		if s, err := d.Manufacturer(); err == nil {
			info.Manufacturer = s
		}
		if s, err := d.Product(); err == nil {
			info.Product = s
		}
		if cfg, ok := d.Desc.Configs[1]; ok {
			info.SelfPowered = cfg.SelfPowered
			info.MaxPowerMilliAmps = int(cfg.MaxPower)
			for _, intf := range cfg.Interfaces {
				if intf.Number < 32 {
					info.InterfaceMask |= 1 << uint(intf.Number)
				}
			}
		}
		units = append(units, info)
	}
	return units, nil
}
