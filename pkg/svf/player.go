// Package svf parses Serial Vector Format test programs and replays
// them against a JTAG cable: sticky per-register scan configuration,
// masked shift buffers, expected-TDO verification and batched run-test
// clocking.
package svf

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/OpenTraceLab/OpenTraceSVF/pkg/jtag"
	"github.com/OpenTraceLab/OpenTraceSVF/pkg/tap"
)

// DefaultClockBatch caps how many idle cycles one run-test transfer
// emits, so a single RUNTEST cannot exceed the cable's per-request
// limits.
const DefaultClockBatch = 100

// ErrUnsupported marks SVF features the player deliberately does not
// model. Executing past them could leave the target in a state the
// vectors no longer describe, so they abort the run.
var ErrUnsupported = errors.New("svf: unsupported feature")

// VerifyError reports a captured response that disagrees with the
// expected TDO after masking. Got and Want are the masked byte values.
type VerifyError struct {
	Register string
	Byte     int
	Got      byte
	Want     byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("svf: %s verification failed at byte %d: got %02X, want %02X",
		e.Register, e.Byte, e.Got, e.Want)
}

// registerState is the sticky scan configuration for one register.
// Fields persist across commands until a scan supplies a replacement.
type registerState struct {
	tdi   []byte
	mask  []byte
	smask []byte
}

func (r *registerState) merge(cmd *ScanCommand) {
	if cmd.SMask != nil {
		r.smask = cmd.SMask.Clone()
	}
	if cmd.Mask != nil {
		r.mask = cmd.Mask.Clone()
	}
	if cmd.TDI != nil {
		r.tdi = cmd.TDI.Clone()
	}
}

// Player executes a command stream against a JTAG driver. It is
// single-use and strictly sequential: one instance per run, commands in
// arrival order, no retries.
type Player struct {
	driver *jtag.Driver
	log    *slog.Logger

	// ClockBatch overrides DefaultClockBatch when positive.
	ClockBatch int

	endIR    tap.State
	endDR    tap.State
	runState tap.State
	runEnd   tap.State

	ir registerState
	dr registerState
}

// NewPlayer creates a player with all end states defaulting to
// Run-Test/Idle. A nil logger silences per-command tracing.
func NewPlayer(driver *jtag.Driver, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Player{
		driver:   driver,
		log:      logger,
		endIR:    tap.RunTestIdle,
		endDR:    tap.RunTestIdle,
		runState: tap.RunTestIdle,
		runEnd:   tap.RunTestIdle,
	}
}

// Run consumes the command sequence in order. The first parse or
// execution error aborts the run; commands already executed stay
// executed, since JTAG side effects cannot be rolled back.
func (p *Player) Run(commands iter.Seq2[Command, error]) error {
	for cmd, err := range commands {
		if err != nil {
			return err
		}
		p.log.Debug("execute", "command", cmd.String())
		if err := p.Execute(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Execute dispatches one command.
func (p *Player) Execute(cmd Command) error {
	switch c := cmd.(type) {
	case *EndIRCommand:
		p.endIR = c.State.TAP()
		return nil

	case *EndDRCommand:
		p.endDR = c.State.TAP()
		return nil

	case *StateCommand:
		if len(c.Path) > 0 {
			return fmt.Errorf("%w: STATE with explicit path", ErrUnsupported)
		}
		return p.driver.MoveTo(c.End.TAP())

	case *ScanCommand:
		switch c.Target {
		case ScanIR, ScanDR:
			return p.shift(c)
		default:
			// Head/tail padding for other devices in the chain. A zero
			// length disables the slot, which is all this player models.
			if c.Length != 0 {
				return fmt.Errorf("%w: %s with nonzero length", ErrUnsupported, c.Target)
			}
			return nil
		}

	case *RunTestCommand:
		return p.runTest(c)

	case *TRSTCommand:
		if c.Mode != TRSTOff {
			return fmt.Errorf("%w: TRST %s", ErrUnsupported, c.Mode)
		}
		return nil

	case *FrequencyCommand:
		p.log.Warn("FREQUENCY not enforced; set the cable clock instead")
		return nil

	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, cmd)
	}
}

// shift merges the scan's fields into the register context, drives the
// masked buffer through the register and verifies the captured response
// when an expected TDO was supplied.
func (p *Player) shift(cmd *ScanCommand) error {
	var reg *registerState
	var shiftState, endState tap.State
	if cmd.Target == ScanIR {
		reg, shiftState, endState = &p.ir, tap.ShiftIR, p.endIR
	} else {
		reg, shiftState, endState = &p.dr, tap.ShiftDR, p.endDR
	}

	if cmd.Length == 0 {
		return fmt.Errorf("svf: %s: zero-length scan", cmd.Target)
	}

	reg.merge(cmd)

	need := ByteLen(cmd.Length)
	if len(reg.tdi) != need {
		return fmt.Errorf("svf: %s: TDI spans %d bytes, %d-bit scan needs %d",
			cmd.Target, len(reg.tdi), cmd.Length, need)
	}
	smask, err := effectiveMask(reg.smask, need, cmd.Target, "SMASK")
	if err != nil {
		return err
	}

	buf := make([]byte, need)
	for i := range buf {
		buf[i] = reg.tdi[i] & smask[i]
	}

	if err := p.driver.MoveTo(shiftState); err != nil {
		return err
	}
	captured, err := p.driver.ShiftRegister(buf, FinalBits(cmd.Length))
	if err != nil {
		return err
	}
	if err := p.driver.MoveTo(endState); err != nil {
		return err
	}

	if cmd.TDO == nil {
		return nil
	}
	mask, err := effectiveMask(reg.mask, need, cmd.Target, "MASK")
	if err != nil {
		return err
	}
	for i := range captured {
		got := captured[i] & mask[i]
		want := cmd.TDO.Data[i] & mask[i]
		if got != want {
			return &VerifyError{
				Register: cmd.Target.String(),
				Byte:     i,
				Got:      got,
				Want:     want,
			}
		}
	}
	return nil
}

// effectiveMask returns the sticky mask, defaulting to all-cares when
// none was ever supplied and rejecting a stale length.
func effectiveMask(mask []byte, need int, target ScanTarget, name string) ([]byte, error) {
	if len(mask) == 0 {
		all := make([]byte, need)
		for i := range all {
			all[i] = 0xFF
		}
		return all, nil
	}
	if len(mask) != need {
		return nil, fmt.Errorf("svf: %s: %s spans %d bytes, scan needs %d",
			target, name, len(mask), need)
	}
	return mask, nil
}

// runTest applies the sticky run/end state updates, then emits the
// requested idle cycles in bounded batches.
func (p *Player) runTest(cmd *RunTestCommand) error {
	if cmd.RunState != nil {
		p.runState = cmd.RunState.TAP()
	}
	if cmd.EndState != nil {
		p.runEnd = cmd.EndState.TAP()
	}

	if !cmd.Clocked {
		return fmt.Errorf("%w: timed RUNTEST", ErrUnsupported)
	}
	if cmd.Clock != ClockTCK {
		return fmt.Errorf("%w: RUNTEST with %s clock", ErrUnsupported, cmd.Clock)
	}
	if cmd.MinSeconds != nil || cmd.MaxSeconds != nil {
		return fmt.Errorf("%w: RUNTEST with time bounds", ErrUnsupported)
	}

	if err := p.driver.MoveTo(p.runState); err != nil {
		return err
	}

	batch := p.ClockBatch
	if batch <= 0 {
		batch = DefaultClockBatch
	}
	for remaining := int(cmd.Count); remaining > 0; {
		n := remaining
		if n > batch {
			n = batch
		}
		if err := p.driver.IdleClocks(n); err != nil {
			return err
		}
		remaining -= n
	}

	return p.driver.MoveTo(p.runEnd)
}
