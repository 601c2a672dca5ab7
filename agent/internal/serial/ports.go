package serial

import (
	bugst "go.bug.st/serial"
)

type PortInfo struct {
	Path        string `json:"port"`
	Description string `json:"description"`
}

var fallbackPorts = []PortInfo{
	{Path: "/dev/ttyACM0", Description: "Arduino Uno (Standard)"},
	{Path: "/dev/ttyUSB0", Description: "USB-Serial (Standard)"},
}

// ListPorts reports the serial devices present, or the common Arduino paths
// when enumeration fails or finds nothing. The bool is true for the fallback.
func ListPorts() ([]PortInfo, bool) {
	names, err := bugst.GetPortsList()
	if err != nil || len(names) == 0 {
		out := make([]PortInfo, len(fallbackPorts))
		copy(out, fallbackPorts)
		return out, true
	}
	out := make([]PortInfo, 0, len(names))
	for _, n := range names {
		out = append(out, PortInfo{Path: n})
	}
	return out, false
}
