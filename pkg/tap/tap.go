// Package tap models the IEEE 1149.1 TAP controller: the 16-state
// diagram, the TMS-driven transition function, and shortest-path TMS
// sequence generation between arbitrary states. It performs no I/O; a
// cable driver forwards the generated TMS bits to hardware.
package tap

import "fmt"

// State is one of the 16 defined IEEE 1149.1 TAP controller states.
type State uint8

const (
	TestLogicReset State = iota
	RunTestIdle
	SelectDRScan
	CaptureDR
	ShiftDR
	Exit1DR
	PauseDR
	Exit2DR
	UpdateDR
	SelectIRScan
	CaptureIR
	ShiftIR
	Exit1IR
	PauseIR
	Exit2IR
	UpdateIR

	numStates = 16
)

var stateNames = [numStates]string{
	"TestLogicReset",
	"RunTestIdle",
	"SelectDRScan",
	"CaptureDR",
	"ShiftDR",
	"Exit1DR",
	"PauseDR",
	"Exit2DR",
	"UpdateDR",
	"SelectIRScan",
	"CaptureIR",
	"ShiftIR",
	"Exit1IR",
	"PauseIR",
	"Exit2IR",
	"UpdateIR",
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Valid reports whether s is one of the 16 defined controller states.
func (s State) Valid() bool {
	return s < numStates
}

// transitions[s][0] is the state after clocking TCK with TMS=0,
// transitions[s][1] with TMS=1.
var transitions = [numStates][2]State{
	TestLogicReset: {RunTestIdle, TestLogicReset},
	RunTestIdle:    {RunTestIdle, SelectDRScan},
	SelectDRScan:   {CaptureDR, SelectIRScan},
	CaptureDR:      {ShiftDR, Exit1DR},
	ShiftDR:        {ShiftDR, Exit1DR},
	Exit1DR:        {PauseDR, UpdateDR},
	PauseDR:        {PauseDR, Exit2DR},
	Exit2DR:        {ShiftDR, UpdateDR},
	UpdateDR:       {RunTestIdle, SelectDRScan},
	SelectIRScan:   {CaptureIR, TestLogicReset},
	CaptureIR:      {ShiftIR, Exit1IR},
	ShiftIR:        {ShiftIR, Exit1IR},
	Exit1IR:        {PauseIR, UpdateIR},
	PauseIR:        {PauseIR, Exit2IR},
	Exit2IR:        {ShiftIR, UpdateIR},
	UpdateIR:       {RunTestIdle, SelectDRScan},
}

// Next returns the controller state after one TCK cycle with the given
// TMS value. It panics on an invalid state, which cannot happen through
// the exported API.
func Next(s State, tms bool) State {
	if !s.Valid() {
		panic(fmt.Sprintf("tap: invalid state %d", s))
	}
	if tms {
		return transitions[s][1]
	}
	return transitions[s][0]
}

// Path computes the shortest TMS sequence that moves the controller from
// one state to another, using BFS over the state diagram. An empty
// sequence means the states are equal.
func Path(from, to State) ([]bool, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("tap: invalid start state %d", from)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("tap: invalid target state %d", to)
	}
	if from == to {
		return nil, nil
	}

	type node struct {
		state State
		tms   []bool
	}

	queue := []node{{state: from}}
	var visited [numStates]bool
	visited[from] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, bit := range [2]bool{false, true} {
			next := Next(cur.state, bit)
			if visited[next] {
				continue
			}
			tms := append(append([]bool(nil), cur.tms...), bit)
			if next == to {
				return tms, nil
			}
			visited[next] = true
			queue = append(queue, node{state: next, tms: tms})
		}
	}

	// Unreachable: the TAP diagram is strongly connected.
	return nil, fmt.Errorf("tap: no path from %s to %s", from, to)
}

// Machine tracks the TAP controller state across clock cycles.
type Machine struct {
	state State
}

// NewMachine returns a machine initialized to Test-Logic-Reset, the
// state the hardware controller settles in after five TMS=1 cycles.
func NewMachine() *Machine {
	return &Machine{state: TestLogicReset}
}

// State reports the currently tracked controller state.
func (m *Machine) State() State {
	return m.state
}

// Clock advances the machine one TCK cycle with the given TMS bit and
// returns the resulting state.
func (m *Machine) Clock(tms bool) State {
	m.state = Next(m.state, tms)
	return m.state
}

// ResetSequence returns the standard five TMS=1 cycles that force any
// controller into Test-Logic-Reset, updating the machine as a side
// effect.
func (m *Machine) ResetSequence() []bool {
	tms := make([]bool, 5)
	for i := range tms {
		tms[i] = true
		m.Clock(true)
	}
	return tms
}

// MoveTo computes the shortest TMS sequence from the tracked state to
// target and advances the machine along it.
func (m *Machine) MoveTo(target State) ([]bool, error) {
	tms, err := Path(m.state, target)
	if err != nil {
		return nil, err
	}
	for _, bit := range tms {
		m.Clock(bit)
	}
	return tms, nil
}
