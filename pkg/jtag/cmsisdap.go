package jtag

import (
	"fmt"
	"sync"
)

// dapLink is the packet transport beneath the CMSIS-DAP codec. Satisfied
// by usbLink and by in-memory fakes in tests.
type dapLink interface {
	roundTrip(cmd []byte) ([]byte, error)
	maxPacket() int
	close() error
}

func (l *usbLink) maxPacket() int { return l.packetSize }

// CMSISDAP drives a CMSIS-DAP v1/v2 probe as a Cable. Shift and TMS
// operations are translated into DAP_JTAG_Sequence descriptors, split at
// the 64-clock descriptor limit and batched to the probe's packet size.
type CMSISDAP struct {
	link dapLink

	info      CableInfo
	speedHz   int
	connected bool

	mu sync.Mutex
}

// NewCMSISDAP opens the probe at vid:pid, queries its identity, connects
// the JTAG port and applies a 1 MHz default clock.
func NewCMSISDAP(vid, pid uint16) (*CMSISDAP, error) {
	link, err := openUSBLink(vid, pid)
	if err != nil {
		return nil, err
	}

	c := &CMSISDAP{link: link, speedHz: 1_000_000}
	if err := c.setup(); err != nil {
		link.close()
		return nil, err
	}
	return c, nil
}

func (c *CMSISDAP) setup() error {
	c.queryInfo()

	resp, err := c.link.roundTrip(encodeDAPConnect(dapPortJTAG))
	if err != nil {
		return fmt.Errorf("jtag: connect: %w", err)
	}
	port, err := decodeDAPConnect(resp)
	if err != nil {
		return err
	}
	if port != dapPortJTAG {
		return fmt.Errorf("jtag: probe connected port %d, want JTAG", port)
	}
	c.connected = true

	return c.SetSpeed(c.speedHz)
}

// queryInfo is best effort: a probe that answers no identity strings is
// still usable.
func (c *CMSISDAP) queryInfo() {
	read := func(id byte) string {
		resp, err := c.link.roundTrip(encodeDAPInfo(id))
		if err != nil {
			return ""
		}
		s, _ := decodeDAPInfoString(resp)
		return s
	}
	c.info = CableInfo{
		Name:         "CMSIS-DAP Probe",
		Vendor:       read(dapInfoVendor),
		Model:        read(dapInfoProduct),
		SerialNumber: read(dapInfoSerial),
		Firmware:     read(dapInfoFirmware),
		MinFrequency: 1_000,
		MaxFrequency: 10_000_000,
	}
}

func (c *CMSISDAP) Info() (CableInfo, error) {
	return c.info, nil
}

func (c *CMSISDAP) PulseTMS(tms []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(tms) == 0 {
		return nil
	}
	seqs := tmsSequences(tms)
	_, err := c.sendSequences(seqs)
	return err
}

// tmsSequences groups the TMS bit string into runs of a constant level,
// capped at the per-descriptor clock limit. TDI stays low throughout.
func tmsSequences(tms []bool) []dapSequence {
	var seqs []dapSequence
	for i := 0; i < len(tms); {
		level := tms[i]
		n := 0
		for i+n < len(tms) && n < dapSeqMaxClocks && tms[i+n] == level {
			n++
		}
		seqs = append(seqs, dapSequence{
			clocks: n,
			tms:    level,
			tdi:    make([]byte, (n+7)/8),
		})
		i += n
	}
	return seqs
}

func (c *CMSISDAP) ShiftBits(tdi []byte, finalBits uint8, exit bool) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bits, err := CheckShiftArgs(tdi, finalBits)
	if err != nil {
		return nil, err
	}

	seqs := shiftSequences(tdi, bits, exit)
	tdos, err := c.sendSequences(seqs)
	if err != nil {
		return nil, err
	}

	// Reassemble per-descriptor TDO chunks into a buffer shaped like the
	// request.
	out := make([]byte, len(tdi))
	pos := 0
	for i, s := range seqs {
		for b := 0; b < s.clocks; b++ {
			if bitAt(tdos[i], b) {
				setBitAt(out, pos)
			}
			pos++
		}
	}
	return out, nil
}

// shiftSequences builds the descriptor list for a register shift: all
// but the last bit with TMS low, then a single-clock descriptor carrying
// the final bit with TMS at the exit level.
func shiftSequences(tdi []byte, bits int, exit bool) []dapSequence {
	var seqs []dapSequence
	body := bits - 1
	for pos := 0; pos < body; pos += dapSeqMaxClocks {
		n := body - pos
		if n > dapSeqMaxClocks {
			n = dapSeqMaxClocks
		}
		seqs = append(seqs, dapSequence{
			clocks:  n,
			tms:     false,
			capture: true,
			tdi:     extractBits(tdi, pos, n),
		})
	}

	last := dapSequence{clocks: 1, tms: exit, capture: true, tdi: []byte{0}}
	if bitAt(tdi, bits-1) {
		last.tdi[0] = 1
	}
	return append(seqs, last)
}

// sendSequences transmits descriptors in packet-sized batches and
// returns one TDO buffer per descriptor (nil where capture was off).
func (c *CMSISDAP) sendSequences(seqs []dapSequence) ([][]byte, error) {
	max := c.link.maxPacket()
	out := make([][]byte, 0, len(seqs))

	start := 0
	cmdLen, respLen := 2, 2
	flush := func(end int) error {
		if start == end {
			return nil
		}
		batch := seqs[start:end]
		resp, err := c.link.roundTrip(encodeDAPSequences(batch))
		if err != nil {
			return fmt.Errorf("jtag: JTAG sequence: %w", err)
		}
		tdos, err := decodeDAPSequences(resp, batch)
		if err != nil {
			return err
		}
		out = append(out, tdos...)
		start = end
		cmdLen, respLen = 2, 2
		return nil
	}

	for i, s := range seqs {
		if i-start >= 255 || cmdLen+s.encodedLen() > max || respLen+s.captureLen() > max {
			if err := flush(i); err != nil {
				return nil, err
			}
		}
		cmdLen += s.encodedLen()
		respLen += s.captureLen()
	}
	if err := flush(len(seqs)); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetTarget runs the probe's device-specific reset sequence
// (DAP_ResetTarget). Support is optional in the protocol; probes without
// it answer with an error status.
func (c *CMSISDAP) ResetTarget() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.link.roundTrip(encodeDAPResetTarget())
	if err != nil {
		return fmt.Errorf("jtag: reset target: %w", err)
	}
	return decodeDAPStatus(resp, cmdDAPResetTarget)
}

func (c *CMSISDAP) SetSpeed(hz int) error {
	if hz < c.info.MinFrequency || hz > c.info.MaxFrequency {
		return fmt.Errorf("jtag: frequency %dHz out of range [%d, %d]",
			hz, c.info.MinFrequency, c.info.MaxFrequency)
	}
	resp, err := c.link.roundTrip(encodeDAPClock(uint32(hz)))
	if err != nil {
		return fmt.Errorf("jtag: set clock: %w", err)
	}
	if err := decodeDAPStatus(resp, cmdDAPSWJClock); err != nil {
		return err
	}
	c.speedHz = hz
	return nil
}

func (c *CMSISDAP) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		// Best effort; the probe drops state on USB close anyway.
		_, _ = c.link.roundTrip(encodeDAPDisconnect())
		c.connected = false
	}
	return c.link.close()
}

func bitAt(buf []byte, i int) bool {
	return buf[i/8]&(1<<(uint(i)%8)) != 0
}

func setBitAt(buf []byte, i int) {
	buf[i/8] |= 1 << (uint(i) % 8)
}

// extractBits copies count bits starting at bit offset start into a
// fresh LSB-first buffer.
func extractBits(buf []byte, start, count int) []byte {
	out := make([]byte, (count+7)/8)
	for i := 0; i < count; i++ {
		if bitAt(buf, start+i) {
			setBitAt(out, i)
		}
	}
	return out
}
