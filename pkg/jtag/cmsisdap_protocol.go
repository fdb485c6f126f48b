package jtag

import (
	"encoding/binary"
	"fmt"
)

// CMSIS-DAP command IDs.
const (
	cmdDAPInfo        = 0x00
	cmdDAPConnect     = 0x02
	cmdDAPDisconnect  = 0x03
	cmdDAPResetTarget = 0x0A
	cmdDAPSWJClock    = 0x11
	cmdDAPJTAGSeq     = 0x14
)

// DAP_Info identifiers.
const (
	dapInfoVendor   = 0x01
	dapInfoProduct  = 0x02
	dapInfoSerial   = 0x03
	dapInfoFirmware = 0x04
)

const (
	dapPortJTAG = 2

	dapStatusOK = 0x00
)

// Sequence info byte layout for DAP_JTAG_Sequence.
const (
	dapSeqClockMask = 0x3F // bits [5:0], 0 encodes 64 clocks
	dapSeqTMS       = 0x40
	dapSeqCapture   = 0x80

	// Maximum clocks one sequence descriptor can carry.
	dapSeqMaxClocks = 64
)

// dapSequence is one DAP_JTAG_Sequence descriptor: up to 64 TCK cycles
// with a constant TMS level and optional TDO capture.
type dapSequence struct {
	clocks  int
	tms     bool
	capture bool
	tdi     []byte
}

func (s dapSequence) infoByte() byte {
	info := byte(s.clocks & dapSeqClockMask)
	if s.tms {
		info |= dapSeqTMS
	}
	if s.capture {
		info |= dapSeqCapture
	}
	return info
}

// encodedLen is the wire size of the descriptor inside the command.
func (s dapSequence) encodedLen() int {
	return 1 + (s.clocks+7)/8
}

// captureLen is the number of response bytes the descriptor produces.
func (s dapSequence) captureLen() int {
	if !s.capture {
		return 0
	}
	return (s.clocks + 7) / 8
}

func encodeDAPInfo(id byte) []byte {
	return []byte{cmdDAPInfo, id}
}

func decodeDAPInfoString(resp []byte) (string, error) {
	if len(resp) < 2 || resp[0] != cmdDAPInfo {
		return "", fmt.Errorf("jtag: malformed DAP_Info response")
	}
	n := int(resp[1])
	if len(resp) < 2+n {
		return "", fmt.Errorf("jtag: truncated DAP_Info string")
	}
	s := resp[2 : 2+n]
	// Strings are NUL terminated on some firmwares.
	if n > 0 && s[n-1] == 0 {
		s = s[:n-1]
	}
	return string(s), nil
}

func encodeDAPConnect(port byte) []byte {
	return []byte{cmdDAPConnect, port}
}

func decodeDAPConnect(resp []byte) (byte, error) {
	if len(resp) < 2 || resp[0] != cmdDAPConnect {
		return 0, fmt.Errorf("jtag: malformed DAP_Connect response")
	}
	if resp[1] == 0 {
		return 0, fmt.Errorf("jtag: probe refused connection")
	}
	return resp[1], nil
}

func encodeDAPDisconnect() []byte {
	return []byte{cmdDAPDisconnect}
}

func encodeDAPClock(hz uint32) []byte {
	cmd := make([]byte, 5)
	cmd[0] = cmdDAPSWJClock
	binary.LittleEndian.PutUint32(cmd[1:], hz)
	return cmd
}

func encodeDAPResetTarget() []byte {
	return []byte{cmdDAPResetTarget}
}

// decodeDAPStatus checks the common [cmd, status] response shape.
func decodeDAPStatus(resp []byte, cmd byte) error {
	if len(resp) < 2 || resp[0] != cmd {
		return fmt.Errorf("jtag: malformed response for command 0x%02X", cmd)
	}
	if resp[1] != dapStatusOK {
		return fmt.Errorf("jtag: command 0x%02X failed with status 0x%02X", cmd, resp[1])
	}
	return nil
}

// encodeDAPSequences builds a DAP_JTAG_Sequence command from descriptor
// list: [0x14][count]([info][tdi...])*.
func encodeDAPSequences(seqs []dapSequence) []byte {
	size := 2
	for _, s := range seqs {
		size += s.encodedLen()
	}
	cmd := make([]byte, 2, size)
	cmd[0] = cmdDAPJTAGSeq
	cmd[1] = byte(len(seqs))
	for _, s := range seqs {
		cmd = append(cmd, s.infoByte())
		data := make([]byte, (s.clocks+7)/8)
		copy(data, s.tdi)
		cmd = append(cmd, data...)
	}
	return cmd
}

// decodeDAPSequences extracts per-descriptor TDO buffers from a
// DAP_JTAG_Sequence response. Descriptors without capture contribute a
// nil entry so indices line up with the request.
func decodeDAPSequences(resp []byte, seqs []dapSequence) ([][]byte, error) {
	if err := decodeDAPStatus(resp, cmdDAPJTAGSeq); err != nil {
		return nil, err
	}
	out := make([][]byte, len(seqs))
	off := 2
	for i, s := range seqs {
		n := s.captureLen()
		if n == 0 {
			continue
		}
		if off+n > len(resp) {
			return nil, fmt.Errorf("jtag: truncated TDO data in sequence response")
		}
		out[i] = append([]byte(nil), resp[off:off+n]...)
		off += n
	}
	return out, nil
}
