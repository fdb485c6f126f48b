package svf

import (
	"fmt"
	"strings"
)

// Command is one parsed SVF statement. The set of implementations is
// closed: the player's dispatcher switches exhaustively over them.
type Command interface {
	fmt.Stringer
	command()
}

// ScanTarget selects which register (or head/tail padding slot) a scan
// statement addresses.
type ScanTarget uint8

const (
	ScanIR ScanTarget = iota
	ScanDR
	ScanHeadIR
	ScanHeadDR
	ScanTailIR
	ScanTailDR
)

var scanTargetNames = [...]string{"SIR", "SDR", "HIR", "HDR", "TIR", "TDR"}

func (t ScanTarget) String() string {
	if int(t) < len(scanTargetNames) {
		return scanTargetNames[t]
	}
	return fmt.Sprintf("ScanTarget(%d)", uint8(t))
}

// ScanCommand is an SIR/SDR/HIR/HDR/TIR/TDR statement. Absent fields are
// nil; the player keeps the previously supplied value for them.
type ScanCommand struct {
	Target ScanTarget
	Length uint32
	TDI    *BitVector
	TDO    *BitVector
	Mask   *BitVector
	SMask  *BitVector
}

func (c *ScanCommand) command() {}

func (c *ScanCommand) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d", c.Target, c.Length)
	for _, f := range []struct {
		name string
		vec  *BitVector
	}{
		{"TDI", c.TDI},
		{"TDO", c.TDO},
		{"MASK", c.Mask},
		{"SMASK", c.SMask},
	} {
		if f.vec != nil {
			fmt.Fprintf(&b, " %s(%s)", f.name, f.vec.Hex())
		}
	}
	return b.String()
}

// StateCommand navigates the controller to a stable state, optionally
// via an explicit path.
type StateCommand struct {
	Path []State
	End  State
}

func (c *StateCommand) command() {}

func (c *StateCommand) String() string {
	var b strings.Builder
	b.WriteString("STATE")
	for _, s := range c.Path {
		fmt.Fprintf(&b, " %s", s)
	}
	fmt.Fprintf(&b, " %s", c.End)
	return b.String()
}

// EndIRCommand sets the state entered after instruction register shifts.
type EndIRCommand struct {
	State State
}

func (c *EndIRCommand) command() {}

func (c *EndIRCommand) String() string {
	return fmt.Sprintf("ENDIR %s", c.State)
}

// EndDRCommand sets the state entered after data register shifts.
type EndDRCommand struct {
	State State
}

func (c *EndDRCommand) command() {}

func (c *EndDRCommand) String() string {
	return fmt.Sprintf("ENDDR %s", c.State)
}

// ClockSource selects the clock a RUNTEST counts cycles of.
type ClockSource uint8

const (
	ClockTCK ClockSource = iota
	ClockSCK
)

func (c ClockSource) String() string {
	if c == ClockSCK {
		return "SCK"
	}
	return "TCK"
}

// RunTestCommand holds the controller in a run state for a number of
// clock cycles (Clocked) or a duration (timed). Nil RunState/EndState
// reuse the previously configured values.
type RunTestCommand struct {
	RunState *State
	EndState *State

	Clocked bool
	Count   uint32
	Clock   ClockSource

	MinSeconds *float64
	MaxSeconds *float64
}

func (c *RunTestCommand) command() {}

func (c *RunTestCommand) String() string {
	var b strings.Builder
	b.WriteString("RUNTEST")
	if c.RunState != nil {
		fmt.Fprintf(&b, " %s", *c.RunState)
	}
	if c.Clocked {
		fmt.Fprintf(&b, " %d %s", c.Count, c.Clock)
	}
	if c.MinSeconds != nil {
		fmt.Fprintf(&b, " %G SEC", *c.MinSeconds)
	}
	if c.MaxSeconds != nil {
		fmt.Fprintf(&b, " MAXIMUM %G SEC", *c.MaxSeconds)
	}
	if c.EndState != nil {
		fmt.Fprintf(&b, " ENDSTATE %s", *c.EndState)
	}
	return b.String()
}

// TRSTMode is the argument of a TRST statement.
type TRSTMode uint8

const (
	TRSTOn TRSTMode = iota
	TRSTOff
	TRSTZ
	TRSTAbsent
)

var trstModeNames = [...]string{"ON", "OFF", "Z", "ABSENT"}

func (m TRSTMode) String() string {
	if int(m) < len(trstModeNames) {
		return trstModeNames[m]
	}
	return fmt.Sprintf("TRSTMode(%d)", uint8(m))
}

// ParseTRSTMode resolves a TRST mode name, case-insensitively.
func ParseTRSTMode(name string) (TRSTMode, bool) {
	upper := strings.ToUpper(name)
	for i, n := range trstModeNames {
		if n == upper {
			return TRSTMode(i), true
		}
	}
	return 0, false
}

// TRSTCommand controls the optional TRST reset line.
type TRSTCommand struct {
	Mode TRSTMode
}

func (c *TRSTCommand) command() {}

func (c *TRSTCommand) String() string {
	return fmt.Sprintf("TRST %s", c.Mode)
}

// FrequencyCommand sets the maximum TCK frequency. A nil Hz restores the
// default (unbounded) clock.
type FrequencyCommand struct {
	Hz *float64
}

func (c *FrequencyCommand) command() {}

func (c *FrequencyCommand) String() string {
	if c.Hz == nil {
		return "FREQUENCY"
	}
	return fmt.Sprintf("FREQUENCY %G HZ", *c.Hz)
}
