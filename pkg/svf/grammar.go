package svf

import (
	"fmt"
	"strings"
)

// Grammar node types for participle. Each statement form starts with its
// verb keyword, so the alternation below is decided by one token of
// lookahead (two inside RUNTEST, where a number can begin a cycle count
// or a duration).

type document struct {
	Statements []*statement `parser:"@@*"`
}

type statement struct {
	Scan      *scanStmt      `parser:"  @@"`
	RunTest   *runTestStmt   `parser:"| @@"`
	State     *stateStmt     `parser:"| @@"`
	EndIR     *endIRStmt     `parser:"| @@"`
	EndDR     *endDRStmt     `parser:"| @@"`
	Trst      *trstStmt      `parser:"| @@"`
	Frequency *frequencyStmt `parser:"| @@"`
}

type scanStmt struct {
	Target string       `parser:"@( KwSIR | KwSDR | KwHIR | KwHDR | KwTIR | KwTDR )"`
	Length uint32       `parser:"@Number"`
	Fields []*scanField `parser:"@@* Semicolon"`
}

type scanField struct {
	Name  string `parser:"@( KwTDI | KwTDO | KwMask | KwSMask )"`
	Value string `parser:"@HexVector"`
}

type stateStmt struct {
	// One or more state names; the last is the destination, anything
	// before it is an explicit path.
	States []string `parser:"KwState @Ident+ Semicolon"`
}

type endIRStmt struct {
	State string `parser:"KwEndIR @Ident Semicolon"`
}

type endDRStmt struct {
	State string `parser:"KwEndDR @Ident Semicolon"`
}

type trstStmt struct {
	Mode string `parser:"KwTRST @Ident Semicolon"`
}

type frequencyStmt struct {
	Hz *float64 `parser:"KwFrequency ( @Number KwHz )? Semicolon"`
}

type runTestStmt struct {
	RunState *string      `parser:"KwRunTest @Ident?"`
	Clocked  *clockedSpec `parser:"( @@"`
	Timed    *timedSpec   `parser:"| @@ )"`
	EndState *string      `parser:"( KwEndState @Ident )? Semicolon"`
}

type clockedSpec struct {
	Count uint32     `parser:"@Number"`
	Clock string     `parser:"@( KwTCK | KwSCK )"`
	Min   *timedSpec `parser:"@@?"`
}

type timedSpec struct {
	Seconds float64  `parser:"@Number KwSec"`
	Max     *float64 `parser:"( KwMaximum @Number KwSec )?"`
}

// command converts a raw grammar node into the typed Command it denotes,
// validating state names, modes and vector fields.
func (s *statement) command() (Command, error) {
	switch {
	case s.Scan != nil:
		return s.Scan.command()
	case s.RunTest != nil:
		return s.RunTest.command()
	case s.State != nil:
		return s.State.command()
	case s.EndIR != nil:
		st, err := parseStateName(s.EndIR.State)
		if err != nil {
			return nil, fmt.Errorf("ENDIR: %w", err)
		}
		return &EndIRCommand{State: st}, nil
	case s.EndDR != nil:
		st, err := parseStateName(s.EndDR.State)
		if err != nil {
			return nil, fmt.Errorf("ENDDR: %w", err)
		}
		return &EndDRCommand{State: st}, nil
	case s.Trst != nil:
		mode, ok := ParseTRSTMode(s.Trst.Mode)
		if !ok {
			return nil, fmt.Errorf("TRST: unknown mode %q", s.Trst.Mode)
		}
		return &TRSTCommand{Mode: mode}, nil
	case s.Frequency != nil:
		return &FrequencyCommand{Hz: s.Frequency.Hz}, nil
	default:
		return nil, fmt.Errorf("svf: empty statement")
	}
}

var scanTargets = map[string]ScanTarget{
	"SIR": ScanIR,
	"SDR": ScanDR,
	"HIR": ScanHeadIR,
	"HDR": ScanHeadDR,
	"TIR": ScanTailIR,
	"TDR": ScanTailDR,
}

func (s *scanStmt) command() (Command, error) {
	target, ok := scanTargets[strings.ToUpper(s.Target)]
	if !ok {
		return nil, fmt.Errorf("unknown scan verb %q", s.Target)
	}

	cmd := &ScanCommand{Target: target, Length: s.Length}
	for _, f := range s.Fields {
		vec, err := ParseHex(hexBody(f.Value), s.Length)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", target, strings.ToUpper(f.Name), err)
		}
		var slot **BitVector
		switch strings.ToUpper(f.Name) {
		case "TDI":
			slot = &cmd.TDI
		case "TDO":
			slot = &cmd.TDO
		case "MASK":
			slot = &cmd.Mask
		case "SMASK":
			slot = &cmd.SMask
		}
		if *slot != nil {
			return nil, fmt.Errorf("%s: duplicate %s field", target, strings.ToUpper(f.Name))
		}
		*slot = vec
	}
	return cmd, nil
}

func (s *stateStmt) command() (Command, error) {
	states := make([]State, len(s.States))
	for i, name := range s.States {
		st, err := parseStateName(name)
		if err != nil {
			return nil, fmt.Errorf("STATE: %w", err)
		}
		states[i] = st
	}
	cmd := &StateCommand{End: states[len(states)-1]}
	if len(states) > 1 {
		cmd.Path = states[:len(states)-1]
	}
	return cmd, nil
}

func (s *runTestStmt) command() (Command, error) {
	cmd := &RunTestCommand{}
	if s.RunState != nil {
		st, err := parseStateName(*s.RunState)
		if err != nil {
			return nil, fmt.Errorf("RUNTEST: %w", err)
		}
		cmd.RunState = &st
	}
	if s.EndState != nil {
		st, err := parseStateName(*s.EndState)
		if err != nil {
			return nil, fmt.Errorf("RUNTEST ENDSTATE: %w", err)
		}
		cmd.EndState = &st
	}

	switch {
	case s.Clocked != nil:
		cmd.Clocked = true
		cmd.Count = s.Clocked.Count
		if strings.EqualFold(s.Clocked.Clock, "SCK") {
			cmd.Clock = ClockSCK
		}
		if s.Clocked.Min != nil {
			min := s.Clocked.Min.Seconds
			cmd.MinSeconds = &min
			cmd.MaxSeconds = s.Clocked.Min.Max
		}
	case s.Timed != nil:
		min := s.Timed.Seconds
		cmd.MinSeconds = &min
		cmd.MaxSeconds = s.Timed.Max
	default:
		return nil, fmt.Errorf("RUNTEST: missing run specification")
	}
	return cmd, nil
}

func parseStateName(name string) (State, error) {
	st, ok := ParseState(name)
	if !ok {
		return 0, fmt.Errorf("unknown state %q", name)
	}
	return st, nil
}

// hexBody strips the surrounding parentheses from a HexVector token.
func hexBody(tok string) string {
	return strings.TrimSuffix(strings.TrimPrefix(tok, "("), ")")
}
