package jtag

import (
	"bytes"
	"testing"
)

// fakeLink answers DAP commands in memory. JTAG sequences echo TDI back
// as TDO for every capturing descriptor.
type fakeLink struct {
	packet      int
	cmds        [][]byte
	resetStatus byte
}

func (f *fakeLink) roundTrip(cmd []byte) ([]byte, error) {
	f.cmds = append(f.cmds, append([]byte(nil), cmd...))

	switch cmd[0] {
	case cmdDAPJTAGSeq:
		resp := []byte{cmdDAPJTAGSeq, dapStatusOK}
		count := int(cmd[1])
		off := 2
		for i := 0; i < count; i++ {
			info := cmd[off]
			off++
			clocks := int(info & dapSeqClockMask)
			if clocks == 0 {
				clocks = dapSeqMaxClocks
			}
			n := (clocks + 7) / 8
			if info&dapSeqCapture != 0 {
				resp = append(resp, cmd[off:off+n]...)
			}
			off += n
		}
		return resp, nil
	case cmdDAPConnect:
		return []byte{cmdDAPConnect, dapPortJTAG}, nil
	case cmdDAPInfo:
		return []byte{cmdDAPInfo, 4, 'f', 'a', 'k', 'e'}, nil
	case cmdDAPResetTarget:
		return []byte{cmdDAPResetTarget, f.resetStatus}, nil
	default:
		return []byte{cmd[0], dapStatusOK}, nil
	}
}

func (f *fakeLink) maxPacket() int { return f.packet }
func (f *fakeLink) close() error   { return nil }

func newFakeDAP(packet int) (*CMSISDAP, *fakeLink) {
	link := &fakeLink{packet: packet}
	c := &CMSISDAP{link: link, speedHz: 1_000_000}
	c.info = CableInfo{Name: "fake", MinFrequency: 1_000, MaxFrequency: 10_000_000}
	return c, link
}

func TestTMSSequencesGrouping(t *testing.T) {
	cases := []struct {
		name string
		tms  []bool
		want []struct {
			clocks int
			tms    bool
		}
	}{
		{
			name: "single run",
			tms:  []bool{true, true, true},
			want: []struct {
				clocks int
				tms    bool
			}{{3, true}},
		},
		{
			name: "level change splits",
			tms:  []bool{true, true, false, false, false, true},
			want: []struct {
				clocks int
				tms    bool
			}{{2, true}, {3, false}, {1, true}},
		},
		{
			name: "long run splits at 64",
			tms:  make([]bool, 100),
			want: []struct {
				clocks int
				tms    bool
			}{{64, false}, {36, false}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seqs := tmsSequences(tc.tms)
			if len(seqs) != len(tc.want) {
				t.Fatalf("got %d sequences, want %d", len(seqs), len(tc.want))
			}
			for i, w := range tc.want {
				if seqs[i].clocks != w.clocks || seqs[i].tms != w.tms {
					t.Fatalf("seq %d = {clocks:%d tms:%v}, want {clocks:%d tms:%v}",
						i, seqs[i].clocks, seqs[i].tms, w.clocks, w.tms)
				}
				if seqs[i].capture {
					t.Fatalf("seq %d captures TDO, want no capture", i)
				}
			}
		})
	}
}

func TestShiftSequencesSplitsFinalBit(t *testing.T) {
	tdi := []byte{0xAA, 0x0F}
	seqs := shiftSequences(tdi, 12, true)

	if len(seqs) != 2 {
		t.Fatalf("got %d sequences, want 2", len(seqs))
	}
	if seqs[0].clocks != 11 || seqs[0].tms || !seqs[0].capture {
		t.Fatalf("body sequence = %+v", seqs[0])
	}
	if seqs[1].clocks != 1 || !seqs[1].tms || !seqs[1].capture {
		t.Fatalf("final sequence = %+v", seqs[1])
	}
	// Bit 11 of AA0F is set.
	if seqs[1].tdi[0] != 1 {
		t.Fatalf("final TDI bit = %d, want 1", seqs[1].tdi[0])
	}
}

func TestCMSISDAPShiftBitsEcho(t *testing.T) {
	c, _ := newFakeDAP(64)

	tdi := []byte{0xAA, 0x0F}
	tdo, err := c.ShiftBits(tdi, 4, true)
	if err != nil {
		t.Fatalf("ShiftBits returned error: %v", err)
	}
	if !bytes.Equal(tdo, tdi) {
		t.Fatalf("TDO = %x, want %x", tdo, tdi)
	}
}

func TestCMSISDAPLongShiftBatches(t *testing.T) {
	// 512 bits: seven 64-clock descriptors, one 63-clock and the final
	// bit. A 64-byte packet holds at most six descriptor bodies, so the
	// shift needs multiple round trips.
	c, link := newFakeDAP(64)

	tdi := make([]byte, 64)
	for i := range tdi {
		tdi[i] = byte(i*37 + 1)
	}
	tdo, err := c.ShiftBits(tdi, 8, true)
	if err != nil {
		t.Fatalf("ShiftBits returned error: %v", err)
	}
	if !bytes.Equal(tdo, tdi) {
		t.Fatalf("TDO = %x, want %x", tdo, tdi)
	}
	if len(link.cmds) < 2 {
		t.Fatalf("expected multiple USB round trips, got %d", len(link.cmds))
	}
	for _, cmd := range link.cmds {
		if len(cmd) > 64 {
			t.Fatalf("command of %d bytes exceeds packet size", len(cmd))
		}
	}
}

func TestCMSISDAPPulseTMS(t *testing.T) {
	c, link := newFakeDAP(64)

	if err := c.PulseTMS([]bool{true, true, false}); err != nil {
		t.Fatalf("PulseTMS returned error: %v", err)
	}
	if len(link.cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(link.cmds))
	}
	cmd := link.cmds[0]
	if cmd[0] != cmdDAPJTAGSeq || cmd[1] != 2 {
		t.Fatalf("command header = %x, want JTAG sequence with 2 descriptors", cmd[:2])
	}
}

func TestCMSISDAPResetTarget(t *testing.T) {
	c, link := newFakeDAP(64)

	if err := c.ResetTarget(); err != nil {
		t.Fatalf("ResetTarget returned error: %v", err)
	}
	if len(link.cmds) != 1 || link.cmds[0][0] != cmdDAPResetTarget {
		t.Fatalf("commands = %x, want a single DAP_ResetTarget", link.cmds)
	}

	link.resetStatus = 0xFF
	if err := c.ResetTarget(); err == nil {
		t.Fatal("error status accepted")
	}
}

func TestDAPSequenceCodecRoundTrip(t *testing.T) {
	seqs := []dapSequence{
		{clocks: 8, tms: false, capture: true, tdi: []byte{0x5A}},
		{clocks: 3, tms: true, capture: false, tdi: []byte{0x07}},
		{clocks: 1, tms: true, capture: true, tdi: []byte{0x01}},
	}

	cmd := encodeDAPSequences(seqs)
	if cmd[0] != cmdDAPJTAGSeq || cmd[1] != 3 {
		t.Fatalf("header = %x", cmd[:2])
	}

	// Response: status plus the two captured payloads.
	resp := []byte{cmdDAPJTAGSeq, dapStatusOK, 0xA5, 0x01}
	tdos, err := decodeDAPSequences(resp, seqs)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if tdos[0][0] != 0xA5 {
		t.Fatalf("tdos[0] = %x, want a5", tdos[0])
	}
	if tdos[1] != nil {
		t.Fatalf("tdos[1] = %x, want nil (no capture)", tdos[1])
	}
	if tdos[2][0] != 0x01 {
		t.Fatalf("tdos[2] = %x, want 01", tdos[2])
	}
}

func TestDAPInfoStringDecoding(t *testing.T) {
	s, err := decodeDAPInfoString([]byte{cmdDAPInfo, 5, 'v', '1', '.', '0', 0})
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if s != "v1.0" {
		t.Fatalf("info string = %q, want v1.0", s)
	}
	if _, err := decodeDAPInfoString([]byte{cmdDAPInfo, 9, 'x'}); err == nil {
		t.Fatal("truncated info string accepted")
	}
}
