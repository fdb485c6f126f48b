package jtag

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceSVF/pkg/tap"
)

// Driver couples a Cable with a locally tracked TAP state machine. Every
// TMS bit sent to the wire is mirrored into the model, so the tracked
// state is authoritative as long as the driver is the only user of the
// cable.
type Driver struct {
	cable   Cable
	machine *tap.Machine
}

// NewDriver wraps a cable with a TAP model assumed to start in
// Test-Logic-Reset. Call Reset to force hardware and model into
// agreement before the first operation.
func NewDriver(cable Cable) *Driver {
	return &Driver{cable: cable, machine: tap.NewMachine()}
}

// Cable returns the underlying cable.
func (d *Driver) Cable() Cable {
	return d.cable
}

// State reports the tracked TAP controller state.
func (d *Driver) State() tap.State {
	return d.machine.State()
}

// Reset clocks five TMS=1 cycles, forcing the controller into
// Test-Logic-Reset regardless of its prior state.
func (d *Driver) Reset() error {
	tms := d.machine.ResetSequence()
	if err := d.cable.PulseTMS(tms); err != nil {
		return fmt.Errorf("jtag: reset: %w", err)
	}
	return nil
}

// MoveTo drives the controller to the target state along the shortest
// TMS path. A no-op when already there.
func (d *Driver) MoveTo(target tap.State) error {
	tms, err := d.machine.MoveTo(target)
	if err != nil {
		return err
	}
	if len(tms) == 0 {
		return nil
	}
	if err := d.cable.PulseTMS(tms); err != nil {
		return fmt.Errorf("jtag: transition to %s: %w", target, err)
	}
	return nil
}

// ShiftRegister shifts the buffer through the register the controller
// currently sits in. The controller must be in Shift-IR or Shift-DR; the
// last bit is clocked with TMS=1, leaving the controller in the matching
// Exit1 state.
func (d *Driver) ShiftRegister(tdi []byte, finalBits uint8) ([]byte, error) {
	st := d.machine.State()
	if st != tap.ShiftIR && st != tap.ShiftDR {
		return nil, fmt.Errorf("jtag: shift requested in %s", st)
	}
	tdo, err := d.cable.ShiftBits(tdi, finalBits, true)
	if err != nil {
		return nil, fmt.Errorf("jtag: shift in %s: %w", st, err)
	}
	// The final bit exited the shift state.
	d.machine.Clock(true)
	return tdo, nil
}

// IdleClocks emits n TCK cycles with TMS held low. In a stable state
// such as Run-Test/Idle or a pause state the controller does not move.
func (d *Driver) IdleClocks(n int) error {
	if n <= 0 {
		return nil
	}
	tms := make([]bool, n)
	for range tms {
		d.machine.Clock(false)
	}
	if err := d.cable.PulseTMS(tms); err != nil {
		return fmt.Errorf("jtag: idle clocks: %w", err)
	}
	return nil
}
