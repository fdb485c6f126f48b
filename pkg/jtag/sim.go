package jtag

import "fmt"

// SimOpKind distinguishes the operations recorded by SimCable.
type SimOpKind uint8

const (
	OpPulseTMS SimOpKind = iota
	OpShift
	OpResetTarget
)

// SimOp captures one cable invocation for inspection within tests.
type SimOp struct {
	Kind      SimOpKind
	TMS       []bool // OpPulseTMS
	TDI       []byte // OpShift
	FinalBits uint8  // OpShift
	Exit      bool   // OpShift
}

// ShiftHook lets a test supply deterministic TDO data.
type ShiftHook func(tdi []byte, finalBits uint8, exit bool) ([]byte, error)

// SimCable is an in-memory cable for unit tests. It records every
// operation in arrival order and, unless OnShift is set, echoes TDI back
// as TDO to keep expectations predictable.
type SimCable struct {
	InfoData CableInfo
	SpeedHz  int

	OnShift ShiftHook

	ops    []SimOp
	closed bool
}

// NewSimCable constructs a simulator with a generic identity.
func NewSimCable() *SimCable {
	return &SimCable{
		InfoData: CableInfo{
			Name:         "Simulator",
			Vendor:       "OpenTraceLab",
			Model:        "sim",
			MinFrequency: 1,
			MaxFrequency: 100_000_000,
		},
	}
}

// Ops returns the recorded operations in arrival order.
func (s *SimCable) Ops() []SimOp {
	out := make([]SimOp, len(s.ops))
	copy(out, s.ops)
	return out
}

// ShiftOps returns only the recorded register shifts, in order.
func (s *SimCable) ShiftOps() []SimOp {
	var out []SimOp
	for _, op := range s.ops {
		if op.Kind == OpShift {
			out = append(out, op)
		}
	}
	return out
}

func (s *SimCable) Info() (CableInfo, error) {
	return s.InfoData, nil
}

func (s *SimCable) PulseTMS(tms []bool) error {
	if s.closed {
		return fmt.Errorf("jtag: cable closed")
	}
	s.ops = append(s.ops, SimOp{
		Kind: OpPulseTMS,
		TMS:  append([]bool(nil), tms...),
	})
	return nil
}

func (s *SimCable) ShiftBits(tdi []byte, finalBits uint8, exit bool) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("jtag: cable closed")
	}
	if _, err := CheckShiftArgs(tdi, finalBits); err != nil {
		return nil, err
	}

	s.ops = append(s.ops, SimOp{
		Kind:      OpShift,
		TDI:       append([]byte(nil), tdi...),
		FinalBits: finalBits,
		Exit:      exit,
	})

	if s.OnShift != nil {
		return s.OnShift(tdi, finalBits, exit)
	}

	tdo := make([]byte, len(tdi))
	copy(tdo, tdi)
	return tdo, nil
}

func (s *SimCable) ResetTarget() error {
	if s.closed {
		return fmt.Errorf("jtag: cable closed")
	}
	s.ops = append(s.ops, SimOp{Kind: OpResetTarget})
	return nil
}

func (s *SimCable) SetSpeed(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("jtag: invalid speed %dHz", hz)
	}
	s.SpeedHz = hz
	return nil
}

func (s *SimCable) Close() error {
	s.closed = true
	return nil
}
