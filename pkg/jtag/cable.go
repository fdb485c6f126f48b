// Package jtag provides the cable transport layer for driving a JTAG
// Test Access Port: the Cable capability implemented by hardware probes
// and the simulator, and a Driver that keeps a local TAP state model in
// sync with the wire.
package jtag

import (
	"errors"
	"fmt"
)

// CableInfo describes a cable/probe implementation.
type CableInfo struct {
	Name         string
	Vendor       string
	Model        string
	SerialNumber string
	Firmware     string
	MinFrequency int // Hertz
	MaxFrequency int // Hertz
}

// Cable abstracts a physical or virtual JTAG cable. All methods block
// until the clocked operation has completed on the wire.
type Cable interface {
	Info() (CableInfo, error)

	// PulseTMS clocks one TCK cycle per entry of tms with TDI held low.
	// Used for state transitions and for free-running idle clocks.
	PulseTMS(tms []bool) error

	// ShiftBits shifts the buffer LSB-first with TMS held low, except
	// that TMS is raised on the very last bit when exit is set so the
	// controller leaves the shift state on the same clock edge. The
	// final byte of tdi contributes only finalBits bits (1..8). The
	// captured TDO bits are returned in a buffer of the same shape.
	ShiftBits(tdi []byte, finalBits uint8, exit bool) ([]byte, error)

	SetSpeed(hz int) error
	Close() error
}

// TargetResetter is the optional capability of cables that can run a
// probe-defined target reset sequence outside the TAP state machine.
type TargetResetter interface {
	ResetTarget() error
}

// ErrNotImplemented lets backends signal a missing capability without a
// fresh fmt.Errorf each time.
var ErrNotImplemented = errors.New("jtag: not implemented")

// CheckShiftArgs validates a ShiftBits buffer and returns the total
// number of clocked bits.
func CheckShiftArgs(tdi []byte, finalBits uint8) (int, error) {
	if len(tdi) == 0 {
		return 0, fmt.Errorf("jtag: empty shift buffer")
	}
	if finalBits < 1 || finalBits > 8 {
		return 0, fmt.Errorf("jtag: final bit count %d out of range [1,8]", finalBits)
	}
	return (len(tdi)-1)*8 + int(finalBits), nil
}
