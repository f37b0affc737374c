package truerng

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// DeviceNamePrefix identifies a TrueRNG serial device by its friendly name,
// product string or serial number.
const DeviceNamePrefix = "TrueRNG"

// Known TrueRNG USB vendor/product identifiers (TrueRNG, TrueRNGpro,
// TrueRNGproV2).
var knownIDs = map[string][]string{
	"16D0": {"0AA0", "0AA2", "0AA4"},
	"04D8": {"F5FE"},
}

// UnitInfo describes one detected unit, for the pre-flight device query.
type UnitInfo struct {
	Port         string
	Product      string
	SerialNumber string
	VID          string
	PID          string
	IsUSB        bool
}

// Detect returns true if at least one TrueRNG device is present.
func Detect() (bool, error) {
	units, err := Enumerate()
	if err != nil {
		return false, err
	}
	return len(units) > 0, nil
}

// Enumerate lists every detected TrueRNG unit in port order. A unit's index
// in the returned slice is its unit number for Session.
func Enumerate() ([]UnitInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerating ports: %w", err)
	}
	var units []UnitInfo
	for _, p := range ports {
		if p == nil || !matches(p) {
			continue
		}
		units = append(units, UnitInfo{
			Port:         p.Name,
			Product:      p.Product,
			SerialNumber: p.SerialNumber,
			VID:          p.VID,
			PID:          p.PID,
			IsUSB:        p.IsUSB,
		})
	}
	return units, nil
}

// FindPort returns the port path of the given unit index.
func FindPort(unit int) (string, error) {
	units, err := Enumerate()
	if err != nil {
		return "", err
	}
	if unit < 0 || unit >= len(units) {
		return "", fmt.Errorf("TrueRNG unit %d not found (%d detected)", unit, len(units))
	}
	return units[unit].Port, nil
}

func matches(p *enumerator.PortDetails) bool {
	if p.IsUSB && strings.HasPrefix(p.Product, DeviceNamePrefix) {
		return true
	}
	if p.IsUSB && strings.HasPrefix(p.SerialNumber, DeviceNamePrefix) {
		return true
	}
	if strings.HasPrefix(p.Name, DeviceNamePrefix) {
		return true
	}
	if p.IsUSB {
		for _, pid := range knownIDs[strings.ToUpper(p.VID)] {
			if strings.EqualFold(p.PID, pid) {
				return true
			}
		}
	}
	return false
}
