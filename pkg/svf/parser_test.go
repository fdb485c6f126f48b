package svf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser returned error: %v", err)
	}
	return p
}

func TestParseProgram(t *testing.T) {
	p := newTestParser(t)

	input := `
! configure end states
ENDIR IDLE;
ENDDR DRPAUSE;
SIR 8 TDI(AA) SMASK(FF);
SDR 16 TDI(0F0F) TDO(0F0F) MASK(FFFF);
RUNTEST IDLE 250 TCK ENDSTATE IDLE;
STATE RESET;
TRST OFF;
`
	got, err := p.ParseString("test.svf", input)
	if err != nil {
		t.Fatalf("ParseString returned error: %v", err)
	}

	idle := StateIdle
	want := []Command{
		&EndIRCommand{State: StateIdle},
		&EndDRCommand{State: StateDRPause},
		&ScanCommand{
			Target: ScanIR,
			Length: 8,
			TDI:    &BitVector{Bits: 8, Data: []byte{0xAA}},
			SMask:  &BitVector{Bits: 8, Data: []byte{0xFF}},
		},
		&ScanCommand{
			Target: ScanDR,
			Length: 16,
			TDI:    &BitVector{Bits: 16, Data: []byte{0x0F, 0x0F}},
			TDO:    &BitVector{Bits: 16, Data: []byte{0x0F, 0x0F}},
			Mask:   &BitVector{Bits: 16, Data: []byte{0xFF, 0xFF}},
		},
		&RunTestCommand{RunState: &idle, EndState: &idle, Clocked: true, Count: 250, Clock: ClockTCK},
		&StateCommand{End: StateReset},
		&TRSTCommand{Mode: TRSTOff},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parsed commands mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCommentStyles(t *testing.T) {
	p := newTestParser(t)

	input := "! bang comment\n// slash comment\nSTATE IDLE; ! trailing\n"
	cmds, err := p.ParseString("comments.svf", input)
	if err != nil {
		t.Fatalf("ParseString returned error: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("parsed %d commands, want 1", len(cmds))
	}
}

func TestParseMultilineVector(t *testing.T) {
	p := newTestParser(t)

	input := "SDR 32 TDI(01234\n567)\n;\n"
	cmds, err := p.ParseString("multiline.svf", input)
	if err != nil {
		t.Fatalf("ParseString returned error: %v", err)
	}
	scan := cmds[0].(*ScanCommand)
	want := []byte{0x67, 0x45, 0x23, 0x01}
	if diff := cmp.Diff(want, scan.TDI.Data); diff != "" {
		t.Fatalf("TDI mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRunTestForms(t *testing.T) {
	p := newTestParser(t)

	cases := []struct {
		name  string
		input string
		check func(t *testing.T, cmd *RunTestCommand)
	}{
		{
			name:  "count only",
			input: "RUNTEST 100 TCK;",
			check: func(t *testing.T, cmd *RunTestCommand) {
				if !cmd.Clocked || cmd.Count != 100 || cmd.Clock != ClockTCK {
					t.Fatalf("cmd = %+v", cmd)
				}
				if cmd.RunState != nil || cmd.EndState != nil {
					t.Fatalf("states should be absent: %+v", cmd)
				}
			},
		},
		{
			name:  "state and endstate",
			input: "RUNTEST DRPAUSE 5 TCK ENDSTATE IRPAUSE;",
			check: func(t *testing.T, cmd *RunTestCommand) {
				if cmd.RunState == nil || *cmd.RunState != StateDRPause {
					t.Fatalf("run state = %v", cmd.RunState)
				}
				if cmd.EndState == nil || *cmd.EndState != StateIRPause {
					t.Fatalf("end state = %v", cmd.EndState)
				}
			},
		},
		{
			name:  "timed",
			input: "RUNTEST 1E-2 SEC;",
			check: func(t *testing.T, cmd *RunTestCommand) {
				if cmd.Clocked {
					t.Fatalf("cmd = %+v, want timed", cmd)
				}
				if cmd.MinSeconds == nil || *cmd.MinSeconds != 0.01 {
					t.Fatalf("min seconds = %v", cmd.MinSeconds)
				}
			},
		},
		{
			name:  "clocked with time bounds",
			input: "RUNTEST 100 TCK 1E-2 SEC MAXIMUM 1 SEC;",
			check: func(t *testing.T, cmd *RunTestCommand) {
				if !cmd.Clocked || cmd.MinSeconds == nil || cmd.MaxSeconds == nil {
					t.Fatalf("cmd = %+v", cmd)
				}
				if *cmd.MaxSeconds != 1 {
					t.Fatalf("max seconds = %v", *cmd.MaxSeconds)
				}
			},
		},
		{
			name:  "sck clock",
			input: "RUNTEST 50 SCK;",
			check: func(t *testing.T, cmd *RunTestCommand) {
				if cmd.Clock != ClockSCK {
					t.Fatalf("clock = %v, want SCK", cmd.Clock)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmds, err := p.ParseString("runtest.svf", tc.input)
			if err != nil {
				t.Fatalf("ParseString returned error: %v", err)
			}
			tc.check(t, cmds[0].(*RunTestCommand))
		})
	}
}

func TestParseStatePath(t *testing.T) {
	p := newTestParser(t)

	cmds, err := p.ParseString("path.svf", "STATE DRSELECT DRCAPTURE DREXIT1 DRPAUSE;")
	if err != nil {
		t.Fatalf("ParseString returned error: %v", err)
	}
	st := cmds[0].(*StateCommand)
	if st.End != StateDRPause {
		t.Fatalf("End = %s, want DRPAUSE", st.End)
	}
	wantPath := []State{StateDRSelect, StateDRCapture, StateDRExit1}
	if diff := cmp.Diff(wantPath, st.Path); diff != "" {
		t.Fatalf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStateWithoutPath(t *testing.T) {
	p := newTestParser(t)

	cmds, err := p.ParseString("nopath.svf", "STATE RESET;")
	if err != nil {
		t.Fatalf("ParseString returned error: %v", err)
	}
	st := cmds[0].(*StateCommand)
	if st.Path != nil {
		t.Fatalf("Path = %#v, want nil for a pathless STATE", st.Path)
	}
	if st.End != StateReset {
		t.Fatalf("End = %s, want RESET", st.End)
	}
}

func TestParseErrors(t *testing.T) {
	p := newTestParser(t)

	cases := []struct {
		name  string
		input string
	}{
		{"unknown state", "ENDIR NOWHERE;"},
		{"unknown trst mode", "TRST MAYBE;"},
		{"hex too long", "SIR 4 TDI(FFF);"},
		{"duplicate field", "SIR 8 TDI(AA) TDI(BB);"},
		{"missing semicolon", "STATE IDLE"},
		{"unknown verb", "PIO (HLZ);"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := p.ParseString("bad.svf", tc.input); err == nil {
				t.Fatalf("ParseString(%q) succeeded, want error", tc.input)
			}
		})
	}
}

func TestCommandsIsLazyAndStopsOnError(t *testing.T) {
	p := newTestParser(t)

	// Second statement fails conversion: the sequence must yield the
	// first command, then the error, then stop.
	input := "STATE IDLE; ENDIR NOWHERE; STATE RESET;"

	var got []Command
	var errs int
	for cmd, err := range p.Commands("lazy.svf", input) {
		if err != nil {
			errs++
			continue
		}
		got = append(got, cmd)
	}
	if len(got) != 1 {
		t.Fatalf("yielded %d commands, want 1", len(got))
	}
	if errs != 1 {
		t.Fatalf("yielded %d errors, want 1", errs)
	}
}

func TestParseGolden(t *testing.T) {
	p := newTestParser(t)

	input := `
ENDIR IDLE;
ENDDR DRPAUSE;
SIR 8 TDI(AA) SMASK(FF);
SDR 16 TDI(0F0F) TDO(0F0F) MASK(FFFF);
RUNTEST IDLE 250 TCK ENDSTATE IDLE;
STATE RESET;
TRST OFF;
`
	cmds, err := p.ParseString("golden.svf", input)
	if err != nil {
		t.Fatalf("ParseString returned error: %v", err)
	}

	var b strings.Builder
	for _, cmd := range cmds {
		b.WriteString(cmd.String())
		b.WriteByte('\n')
	}

	g := goldie.New(t)
	g.Assert(t, "parse_basic", []byte(b.String()))
}
