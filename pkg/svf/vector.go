package svf

import (
	"fmt"
	"strings"
)

// BitVector is a bit-packed register value. Data is stored LSB-first:
// byte 0 holds the first-shifted bits, the last byte is the most
// significant and carries FinalBits(Bits) valid bits.
type BitVector struct {
	Bits uint32
	Data []byte
}

// FinalBits returns how many bits of the last buffer byte are valid for
// a pattern of the given bit length: length mod 8, with a zero remainder
// meaning a full final byte.
func FinalBits(length uint32) uint8 {
	if r := uint8(length % 8); r != 0 {
		return r
	}
	return 8
}

// ByteLen returns the number of bytes a pattern of the given bit length
// occupies.
func ByteLen(length uint32) int {
	return int((length + 7) / 8)
}

// ParseHex decodes an SVF hex literal body (whitespace allowed, as the
// format permits vectors to span lines) into a vector of the declared
// bit length. Digits beyond the declared length, or high bits set above
// it, are rejected.
func ParseHex(s string, bits uint32) (*BitVector, error) {
	if bits == 0 {
		return nil, fmt.Errorf("svf: hex vector with zero bit length")
	}

	var digits []byte
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, byte(r-'0'))
		case r >= 'a' && r <= 'f':
			digits = append(digits, byte(r-'a'+10))
		case r >= 'A' && r <= 'F':
			digits = append(digits, byte(r-'A'+10))
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
		default:
			return nil, fmt.Errorf("svf: invalid hex digit %q", r)
		}
	}
	if len(digits) == 0 {
		return nil, fmt.Errorf("svf: empty hex vector")
	}

	maxDigits := int((bits + 3) / 4)
	if len(digits) > maxDigits {
		return nil, fmt.Errorf("svf: %d hex digits exceed %d-bit length", len(digits), bits)
	}

	data := make([]byte, ByteLen(bits))
	// digits[0] is the most significant nibble.
	for i := 0; i < len(digits); i++ {
		nib := len(digits) - 1 - i // nibble index from the LSB end
		data[nib/2] |= digits[i] << (uint(nib%2) * 4)
	}

	if excess := uint(ByteLen(bits))*8 - uint(bits); excess > 0 {
		last := data[len(data)-1]
		if last>>(8-excess) != 0 {
			return nil, fmt.Errorf("svf: hex value does not fit in %d bits", bits)
		}
	}

	return &BitVector{Bits: bits, Data: data}, nil
}

// Hex renders the vector as an uppercase SVF hex body with the minimal
// digit count for its bit length.
func (v *BitVector) Hex() string {
	digits := int((v.Bits + 3) / 4)
	var b strings.Builder
	for i := digits - 1; i >= 0; i-- {
		nib := v.Data[i/2] >> (uint(i%2) * 4) & 0xF
		fmt.Fprintf(&b, "%X", nib)
	}
	return b.String()
}

// Clone returns an independent copy of the vector's bytes.
func (v *BitVector) Clone() []byte {
	return append([]byte(nil), v.Data...)
}
