package jtag

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// ProbeKind categorizes cable families.
type ProbeKind string

const (
	ProbeKindCMSISDAP ProbeKind = "cmsis-dap"
	ProbeKindSim      ProbeKind = "simulator"
)

// ProbeInfo describes a detected cable.
type ProbeInfo struct {
	Kind        ProbeKind
	Description string
	VendorID    uint16
	ProductID   uint16
	Serial      string
}

// Label returns a user-friendly description for the probe.
func (p ProbeInfo) Label() string {
	if p.Description != "" {
		return p.Description
	}
	return fmt.Sprintf("%s (%04X:%04X)", string(p.Kind), p.VendorID, p.ProductID)
}

type knownProbe struct {
	VendorID    uint16
	ProductID   uint16
	Description string
}

var knownCMSISDAPProbes = []knownProbe{
	{VendorID: 0x2E8A, ProductID: 0x000C, Description: "Raspberry Pi CMSIS-DAP"},
	{VendorID: 0x0D28, ProductID: 0x0204, Description: "DAPLink CMSIS-DAP"},
	{VendorID: 0x1366, ProductID: 0x0101, Description: "SEGGER J-Link CMSIS-DAP"},
}

// DiscoverProbes enumerates connected JTAG probes with known VID/PID
// pairs. It always appends the simulator entry so playback can be
// exercised without hardware attached.
func DiscoverProbes(ctx context.Context) ([]ProbeInfo, error) {
	var results []ProbeInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if info, ok := classifyProbe(desc); ok {
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}

	results = append(results, ProbeInfo{
		Kind:        ProbeKindSim,
		Description: "Simulator (no hardware)",
	})
	return results, nil
}

func classifyProbe(desc *gousb.DeviceDesc) (ProbeInfo, bool) {
	for _, known := range knownCMSISDAPProbes {
		if uint16(desc.Vendor) == known.VendorID && uint16(desc.Product) == known.ProductID {
			return ProbeInfo{
				Kind:        ProbeKindCMSISDAP,
				Description: known.Description,
				VendorID:    known.VendorID,
				ProductID:   known.ProductID,
			}, true
		}
	}
	return ProbeInfo{}, false
}
