package svf

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceSVF/pkg/tap"
)

// State is an SVF state name, one of the 16 TAP controller states in the
// vocabulary SVF uses for ENDIR/ENDDR/STATE/RUNTEST arguments.
type State uint8

const (
	StateReset State = iota
	StateIdle
	StateDRSelect
	StateDRCapture
	StateDRShift
	StateDRExit1
	StateDRPause
	StateDRExit2
	StateDRUpdate
	StateIRSelect
	StateIRCapture
	StateIRShift
	StateIRExit1
	StateIRPause
	StateIRExit2
	StateIRUpdate

	numStates = 16
)

var stateNames = [numStates]string{
	"RESET",
	"IDLE",
	"DRSELECT",
	"DRCAPTURE",
	"DRSHIFT",
	"DREXIT1",
	"DRPAUSE",
	"DREXIT2",
	"DRUPDATE",
	"IRSELECT",
	"IRCAPTURE",
	"IRSHIFT",
	"IREXIT1",
	"IRPAUSE",
	"IREXIT2",
	"IRUPDATE",
}

func (s State) String() string {
	if s < numStates {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// ParseState resolves an SVF state name, case-insensitively.
func ParseState(name string) (State, bool) {
	upper := strings.ToUpper(name)
	for i, n := range stateNames {
		if n == upper {
			return State(i), true
		}
	}
	return 0, false
}

// tapStates maps the SVF vocabulary onto the TAP controller enumeration.
// Total and injective over the 16 states.
var tapStates = [numStates]tap.State{
	StateReset:     tap.TestLogicReset,
	StateIdle:      tap.RunTestIdle,
	StateDRSelect:  tap.SelectDRScan,
	StateDRCapture: tap.CaptureDR,
	StateDRShift:   tap.ShiftDR,
	StateDRExit1:   tap.Exit1DR,
	StateDRPause:   tap.PauseDR,
	StateDRExit2:   tap.Exit2DR,
	StateDRUpdate:  tap.UpdateDR,
	StateIRSelect:  tap.SelectIRScan,
	StateIRCapture: tap.CaptureIR,
	StateIRShift:   tap.ShiftIR,
	StateIRExit1:   tap.Exit1IR,
	StateIRPause:   tap.PauseIR,
	StateIRExit2:   tap.Exit2IR,
	StateIRUpdate:  tap.UpdateIR,
}

// TAP translates the SVF state into the controller enumeration.
func (s State) TAP() tap.State {
	if s >= numStates {
		panic(fmt.Sprintf("svf: invalid state %d", s))
	}
	return tapStates[s]
}

// StateFromTAP is the inverse of State.TAP.
func StateFromTAP(t tap.State) (State, bool) {
	for i, mapped := range tapStates {
		if mapped == t {
			return State(i), true
		}
	}
	return 0, false
}
